package models

// SplitType describes how an expense amount is distributed across participants.
type SplitType string

const (
	// SplitEqual divides the amount evenly among all participants.
	SplitEqual SplitType = "equal"
	// SplitCustom uses caller-provided absolute amounts.
	SplitCustom SplitType = "custom"
	// SplitPercentage uses caller-provided percentages of the total.
	SplitPercentage SplitType = "percentage"
)

// Expense represents a shared expense within a group.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string `json:"id"`

	// GroupID is the group this expense belongs to.
	GroupID string `json:"group_id"`

	// Title is the human-readable name for the expense.
	Title string `json:"title"`

	// Description is an optional longer note.
	Description string `json:"description,omitempty"`

	// Amount is the full expense amount.
	Amount float64 `json:"amount"`

	// PaidBy is the user who fronted the money.
	PaidBy string `json:"paid_by"`

	// SplitType records how Splits were derived.
	SplitType SplitType `json:"split_type"`

	// Splits is the per-participant distribution. The split amounts always
	// sum to Amount; the ledger rejects expenses where they do not.
	Splits []Split `json:"splits"`

	// CreatedBy is the user who recorded the expense.
	CreatedBy string `json:"created_by"`

	// CreatedAt is the Unix timestamp when the expense was created.
	CreatedAt int64 `json:"created_at"`
}

// Split is one participant's share of an expense.
type Split struct {
	UserID string  `json:"user_id"`
	Amount float64 `json:"amount"`
}
