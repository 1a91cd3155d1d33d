package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/splitsmart/backend/internal/calculator"
	"github.com/splitsmart/backend/internal/ledger"
	"github.com/splitsmart/backend/internal/models"
	"github.com/splitsmart/backend/internal/storage"
)

// RecurringService manages recurring-expense templates and the generation
// pass that turns due templates into real expenses. Generation goes through
// ExpenseService so every occurrence gets the same split computation, debt
// application, and cache invalidation as a hand-entered expense.
type RecurringService struct {
	store    storage.Store
	expenses *ExpenseService
}

// NewRecurringService creates a RecurringService.
func NewRecurringService(store storage.Store, expenses *ExpenseService) *RecurringService {
	return &RecurringService{store: store, expenses: expenses}
}

// CreateRecurringParams carries the inputs for a new template. Participants
// and Shares form the split recipe, interpreted by SplitType the same way
// CreateExpenseParams is.
type CreateRecurringParams struct {
	GroupID      string           `json:"group_id"`
	Title        string           `json:"title"`
	Description  string           `json:"description,omitempty"`
	Amount       float64          `json:"amount"`
	PaidBy       string           `json:"paid_by"`
	SplitType    models.SplitType `json:"split_type"`
	Frequency    models.Frequency `json:"frequency"`
	StartDate    string           `json:"start_date"`
	Participants []string         `json:"participants,omitempty"`
	Shares       []models.Split   `json:"shares,omitempty"`
}

// UpdateRecurringParams carries the template fields a member may change.
// The schedule position (NextOccurrence) is owned by the generation pass and
// Skip; it is not directly settable.
type UpdateRecurringParams struct {
	RecurringID  string           `json:"recurring_id"`
	Title        string           `json:"title"`
	Description  string           `json:"description,omitempty"`
	Amount       float64          `json:"amount"`
	Frequency    models.Frequency `json:"frequency"`
	IsActive     bool             `json:"is_active"`
	Participants []string         `json:"participants,omitempty"`
	Shares       []models.Split   `json:"shares,omitempty"`
}

// ProcessReport aggregates the outcome of one generation pass.
type ProcessReport struct {
	Generated int `json:"generated"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Create validates the split recipe and persists a new template with its
// first occurrence scheduled at StartDate.
func (s *RecurringService) Create(ctx context.Context, actorID string, p CreateRecurringParams) (*models.RecurringExpense, error) {
	if actorID == "" {
		return nil, ledger.ErrNotAuthenticated
	}
	if _, err := time.Parse(models.DateLayout, p.StartDate); err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", p.StartDate, err)
	}
	if _, err := models.Frequency(p.Frequency).Advance(p.StartDate); err != nil {
		return nil, err
	}

	// Dry-run the recipe now so a broken template never reaches the
	// generation pass.
	if _, err := calculator.ComputeSplits(p.Amount, p.SplitType, p.Participants, p.Shares); err != nil {
		return nil, err
	}

	recurring := &models.RecurringExpense{
		GroupID:        p.GroupID,
		Title:          p.Title,
		Description:    p.Description,
		Amount:         calculator.Round2(p.Amount),
		PaidBy:         p.PaidBy,
		SplitType:      p.SplitType,
		Splits:         recipeSplits(p.SplitType, p.Participants, p.Shares),
		Frequency:      p.Frequency,
		StartDate:      p.StartDate,
		NextOccurrence: p.StartDate,
		IsActive:       true,
		CreatedBy:      actorID,
	}
	if err := s.store.CreateRecurringExpense(ctx, recurring); err != nil {
		return nil, err
	}

	slog.Info("Recurring expense created",
		"recurring_id", recurring.ID,
		"group_id", recurring.GroupID,
		"frequency", recurring.Frequency,
		"next_occurrence", recurring.NextOccurrence,
	)
	return recurring, nil
}

// Update replaces a template's mutable fields and split recipe.
func (s *RecurringService) Update(ctx context.Context, actorID string, p UpdateRecurringParams) (*models.RecurringExpense, error) {
	if actorID == "" {
		return nil, ledger.ErrNotAuthenticated
	}

	existing, err := s.store.GetRecurringExpense(ctx, p.RecurringID)
	if err != nil {
		return nil, err
	}
	if _, err := calculator.ComputeSplits(p.Amount, existing.SplitType, p.Participants, p.Shares); err != nil {
		return nil, err
	}
	if _, err := p.Frequency.Advance(existing.NextOccurrence); err != nil {
		return nil, err
	}

	existing.Title = p.Title
	existing.Description = p.Description
	existing.Amount = calculator.Round2(p.Amount)
	existing.Frequency = p.Frequency
	existing.IsActive = p.IsActive
	existing.Splits = recipeSplits(existing.SplitType, p.Participants, p.Shares)

	if err := s.store.UpdateRecurringExpense(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// Delete removes a template. Already-generated expenses are untouched.
func (s *RecurringService) Delete(ctx context.Context, actorID, recurringID string) error {
	if actorID == "" {
		return ledger.ErrNotAuthenticated
	}
	return s.store.DeleteRecurringExpense(ctx, recurringID)
}

// List returns a group's templates, newest first.
func (s *RecurringService) List(ctx context.Context, groupID string) ([]*models.RecurringExpense, error) {
	return s.store.ListRecurringExpensesByGroup(ctx, groupID)
}

// Skip marks the template's next occurrence as skipped and advances the
// schedule past it. The generation pass also honors skip marks directly, so
// skipping is safe even if the pass already has the template in hand.
func (s *RecurringService) Skip(ctx context.Context, actorID, recurringID string) (*models.RecurringExpense, error) {
	if actorID == "" {
		return nil, ledger.ErrNotAuthenticated
	}

	recurring, err := s.store.GetRecurringExpense(ctx, recurringID)
	if err != nil {
		return nil, err
	}

	if err := s.store.SkipOccurrence(ctx, recurringID, recurring.NextOccurrence); err != nil {
		return nil, err
	}
	next, err := recurring.Frequency.Advance(recurring.NextOccurrence)
	if err != nil {
		return nil, err
	}
	recurring.NextOccurrence = next
	if err := s.store.UpdateRecurringExpense(ctx, recurring); err != nil {
		return nil, err
	}

	slog.Info("Occurrence skipped",
		"recurring_id", recurringID,
		"next_occurrence", recurring.NextOccurrence,
	)
	return recurring, nil
}

// ProcessDue runs one generation pass as of the given date: every active
// template whose next occurrence is due either generates a real expense or,
// if that occurrence was skipped, just advances. A failing template is
// counted and left in place for the next pass; it never blocks the others.
func (s *RecurringService) ProcessDue(ctx context.Context, asOf time.Time) (ProcessReport, error) {
	due, err := s.store.ListDueRecurringExpenses(ctx, asOf.Format(models.DateLayout))
	if err != nil {
		return ProcessReport{}, err
	}

	var report ProcessReport
	for _, recurring := range due {
		skipped, err := s.store.IsOccurrenceSkipped(ctx, recurring.ID, recurring.NextOccurrence)
		if err != nil {
			return report, err
		}

		if skipped {
			if err := s.advance(ctx, recurring, 0); err != nil {
				return report, err
			}
			report.Skipped++
			continue
		}

		if err := s.generate(ctx, recurring); err != nil {
			report.Failed++
			slog.Warn("Recurring generation failed",
				"recurring_id", recurring.ID,
				"group_id", recurring.GroupID,
				"error", err,
			)
			continue
		}
		report.Generated++
	}

	if len(due) > 0 {
		slog.Info("Recurring pass complete",
			"generated", report.Generated,
			"skipped", report.Skipped,
			"failed", report.Failed,
		)
	}
	return report, nil
}

// generate creates the real expense for one due occurrence and advances the
// template's schedule.
func (s *RecurringService) generate(ctx context.Context, recurring *models.RecurringExpense) error {
	result, err := s.expenses.CreateExpense(ctx, recurring.CreatedBy, CreateExpenseParams{
		GroupID:      recurring.GroupID,
		Title:        recurring.Title,
		Description:  recurring.Description,
		Amount:       recurring.Amount,
		PaidBy:       recurring.PaidBy,
		SplitType:    recurring.SplitType,
		Participants: recurring.Participants(),
		Shares:       recurring.Splits,
	})
	if err != nil {
		return err
	}

	if err := s.advance(ctx, recurring, time.Now().Unix()); err != nil {
		return err
	}

	if result.Expense != nil {
		slog.Info("Recurring expense generated",
			"recurring_id", recurring.ID,
			"expense_id", result.Expense.ID,
			"group_id", recurring.GroupID,
		)
	}
	return nil
}

// advance moves the template to its next occurrence, recording the generation
// time when one happened.
func (s *RecurringService) advance(ctx context.Context, recurring *models.RecurringExpense, generatedAt int64) error {
	next, err := recurring.Frequency.Advance(recurring.NextOccurrence)
	if err != nil {
		return err
	}
	recurring.NextOccurrence = next
	if generatedAt != 0 {
		recurring.LastGeneratedAt = generatedAt
	}
	return s.store.UpdateRecurringExpense(ctx, recurring)
}

// recipeSplits normalizes a participants+shares recipe into stored split
// rows: the participant set (amounts zero) for equal splits, the shares
// otherwise.
func recipeSplits(splitType models.SplitType, participants []string, shares []models.Split) []models.Split {
	if splitType == models.SplitEqual {
		splits := make([]models.Split, len(participants))
		for i, userID := range participants {
			splits[i] = models.Split{UserID: userID}
		}
		return splits
	}
	splits := make([]models.Split, len(shares))
	copy(splits, shares)
	return splits
}
