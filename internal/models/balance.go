package models

// PairwiseBalance is a directed debt between two users within a group:
// FromUser owes ToUser the Amount. At most one row exists per ordered
// (group, from, to) pair; the reverse pair may coexist only transiently until
// the ledger nets the two directions against each other.
type PairwiseBalance struct {
	// ID is the unique identifier for the balance row (UUID format).
	ID string `json:"id"`

	// GroupID is the group this debt belongs to.
	GroupID string `json:"group_id"`

	// FromUser is the debtor.
	FromUser string `json:"from_user"`

	// ToUser is the creditor.
	ToUser string `json:"to_user"`

	// Amount is the outstanding debt. Always > 0; rows at or below the
	// settlement epsilon are deleted rather than stored.
	Amount float64 `json:"amount"`

	// UpdatedAt is the Unix timestamp of the last mutation.
	UpdatedAt int64 `json:"updated_at"`
}

// NetBalance is one user's overall position across all pairwise balances in a
// group. Positive means the user is owed money, negative means they owe.
// Derived on demand; never persisted.
type NetBalance struct {
	UserID string  `json:"user_id"`
	Amount float64 `json:"amount"`
}

// SuggestedTransfer is a single payment proposed by the settlement optimizer.
// It is a plan, not a ledger entry: executing it means settling the underlying
// pairwise balances, not writing the transfer itself.
type SuggestedTransfer struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

// Savings reports how many transfers the optimizer eliminated.
type Savings struct {
	Saved      int `json:"saved"`
	Percentage int `json:"percentage"`
}

// SettlementPlan is the optimizer's full output for a group.
type SettlementPlan struct {
	GroupID        string              `json:"group_id"`
	Transfers      []SuggestedTransfer `json:"transfers"`
	OriginalCount  int                 `json:"original_count"`
	OptimizedCount int                 `json:"optimized_count"`
	Savings        Savings             `json:"savings"`
}
