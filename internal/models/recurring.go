package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date format used for occurrence scheduling.
// Occurrences are dates, not instants: a template due "2026-03-01" is due all
// day regardless of timezone, and ISO dates compare correctly as strings.
const DateLayout = "2006-01-02"

// Frequency is how often a recurring expense generates a new occurrence.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Advance returns the occurrence date that follows the given one: +1 day,
// +7 days, or +1 calendar month. Month-end overflow normalizes forward
// (Jan 31 + 1 month = Mar 2/3), matching time.AddDate.
func (f Frequency) Advance(date string) (string, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", fmt.Errorf("invalid occurrence date %q: %w", date, err)
	}
	switch f {
	case FrequencyDaily:
		t = t.AddDate(0, 0, 1)
	case FrequencyWeekly:
		t = t.AddDate(0, 0, 7)
	case FrequencyMonthly:
		t = t.AddDate(0, 1, 0)
	default:
		return "", fmt.Errorf("unknown frequency: %s", f)
	}
	return t.Format(DateLayout), nil
}

// RecurringExpense is a template that generates a real Expense on a schedule.
// The template never touches the ledger itself; each generated occurrence goes
// through the same split computation and debt application as a hand-entered
// expense.
type RecurringExpense struct {
	// ID is the unique identifier for the template (UUID format).
	ID string `json:"id"`

	// GroupID is the group the generated expenses belong to.
	GroupID string `json:"group_id"`

	// Title is copied onto each generated expense.
	Title string `json:"title"`

	// Description is an optional longer note.
	Description string `json:"description,omitempty"`

	// Amount is the expense amount per occurrence.
	Amount float64 `json:"amount"`

	// PaidBy is the user who fronts the money each occurrence.
	PaidBy string `json:"paid_by"`

	// SplitType records how the splits recipe is interpreted.
	SplitType SplitType `json:"split_type"`

	// Splits is the split recipe, not computed shares: for equal splits the
	// rows carry the participant set (amounts unused), for percentage splits
	// the amounts are percentages, for custom splits absolute amounts. Shares
	// are recomputed at each generation so conservation always holds.
	Splits []Split `json:"splits"`

	// Frequency is the generation cadence.
	Frequency Frequency `json:"frequency"`

	// StartDate is the first scheduled occurrence (DateLayout).
	StartDate string `json:"start_date"`

	// NextOccurrence is the next date an expense is due (DateLayout).
	NextOccurrence string `json:"next_occurrence"`

	// LastGeneratedAt is the Unix timestamp of the last generation, 0 if the
	// template has never fired.
	LastGeneratedAt int64 `json:"last_generated_at,omitempty"`

	// IsActive gates generation; inactive templates are kept but never fire.
	IsActive bool `json:"is_active"`

	// CreatedBy is the user who created the template. Generated expenses are
	// recorded under this identity.
	CreatedBy string `json:"created_by"`

	// CreatedAt is the Unix timestamp when the template was created.
	CreatedAt int64 `json:"created_at"`
}

// Participants returns the user IDs of the split recipe, the participant set
// for equal splits.
func (r *RecurringExpense) Participants() []string {
	users := make([]string, len(r.Splits))
	for i, s := range r.Splits {
		users[i] = s.UserID
	}
	return users
}
