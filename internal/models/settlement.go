package models

// Settlement represents a payment between group members to clear debts.
// Settlements are immutable audit rows, independent of the mutable
// PairwiseBalance they reduce.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string `json:"id"`

	// GroupID is the group this settlement belongs to.
	GroupID string `json:"group_id"`

	// FromUserID is the user who paid (debtor settling up).
	FromUserID string `json:"from_user_id"`

	// ToUserID is the user who received payment (creditor being paid).
	ToUserID string `json:"to_user_id"`

	// Amount is the payment amount.
	Amount float64 `json:"amount"`

	// Method is how the payment was made (e.g. "cash", "upi").
	Method string `json:"method,omitempty"`

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64 `json:"created_at"`

	// CreatedBy is the user ID who recorded this settlement.
	CreatedBy string `json:"created_by"`

	// Note is an optional description for the settlement.
	Note string `json:"note,omitempty"`
}
