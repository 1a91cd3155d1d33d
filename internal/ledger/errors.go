package ledger

import "errors"

var (
	// ErrNotAuthenticated is returned when a mutation is attempted with no
	// actor identity. Fatal to that call; never retried automatically.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrBalanceNotFound is returned when a settlement references a pairwise
	// balance that no longer exists (already settled elsewhere). The
	// underlying state genuinely changed, so the call is not retried.
	ErrBalanceNotFound = errors.New("balance not found, it may have already been settled")

	// ErrOverSettlement is returned when a settlement amount exceeds the
	// outstanding debt. The excess is rejected rather than clamped or flipped
	// to the opposite direction, since clamping would mask a stale client.
	ErrOverSettlement = errors.New("settlement amount exceeds outstanding debt")

	// ErrInvariantViolation indicates the conservation check failed: split
	// amounts do not sum to the expense total. This is a programming defect
	// in the caller, not a runtime condition to recover from.
	ErrInvariantViolation = errors.New("expense splits do not sum to the expense amount")
)
