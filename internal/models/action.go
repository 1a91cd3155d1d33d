package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ActionType identifies the kind of queued ledger mutation.
type ActionType string

const (
	ActionCreateExpense ActionType = "CREATE_EXPENSE"
	ActionUpdateExpense ActionType = "UPDATE_EXPENSE"
	ActionDeleteExpense ActionType = "DELETE_EXPENSE"
	ActionRecordPayment ActionType = "RECORD_PAYMENT"
)

// ActionPayload is the closed set of offline-action payloads. Exactly one
// implementation exists per ActionType, so replay dispatch can switch over the
// concrete type exhaustively.
type ActionPayload interface {
	ActionType() ActionType
}

// CreateExpensePayload queues the creation of an expense and its splits.
type CreateExpensePayload struct {
	GroupID     string    `json:"group_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Amount      float64   `json:"amount"`
	PaidBy      string    `json:"paid_by"`
	SplitType   SplitType `json:"split_type"`
	Splits      []Split   `json:"splits"`
	CreatedBy   string    `json:"created_by"`
}

func (CreateExpensePayload) ActionType() ActionType { return ActionCreateExpense }

// UpdateExpensePayload queues an update of an expense's mutable fields.
type UpdateExpensePayload struct {
	ExpenseID   string    `json:"expense_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Amount      float64   `json:"amount"`
	SplitType   SplitType `json:"split_type"`
	Splits      []Split   `json:"splits"`
}

func (UpdateExpensePayload) ActionType() ActionType { return ActionUpdateExpense }

// DeleteExpensePayload queues the deletion of an expense.
type DeleteExpensePayload struct {
	ExpenseID string `json:"expense_id"`
}

func (DeleteExpensePayload) ActionType() ActionType { return ActionDeleteExpense }

// RecordPaymentPayload queues a settlement payment between two members.
type RecordPaymentPayload struct {
	GroupID    string  `json:"group_id"`
	FromUserID string  `json:"from_user_id"`
	ToUserID   string  `json:"to_user_id"`
	Amount     float64 `json:"amount"`
	Method     string  `json:"method,omitempty"`
	Note       string  `json:"note,omitempty"`
	CreatedBy  string  `json:"created_by"`
}

func (RecordPaymentPayload) ActionType() ActionType { return ActionRecordPayment }

// OfflineAction is a ledger mutation captured while the backend was
// unreachable. Actions live in the local durable queue until they are replayed
// successfully or exhaust their retries.
type OfflineAction struct {
	// ID is the unique identifier for the action (UUID format).
	ID string

	// Type tags the payload kind.
	Type ActionType

	// Payload carries the mutation parameters.
	Payload ActionPayload

	// CreatedAt is when the action was enqueued. Replay is strictly FIFO by
	// creation order so dependent mutations (create-then-delete) stay causal.
	CreatedAt time.Time

	// RetryCount is the number of failed replay attempts so far.
	RetryCount int
}

// EncodePayload serializes a payload for queue storage.
func EncodePayload(p ActionPayload) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", p.ActionType(), err)
	}
	return data, nil
}

// DecodePayload deserializes a stored payload according to its type tag.
func DecodePayload(t ActionType, data []byte) (ActionPayload, error) {
	var p ActionPayload
	switch t {
	case ActionCreateExpense:
		p = &CreateExpensePayload{}
	case ActionUpdateExpense:
		p = &UpdateExpensePayload{}
	case ActionDeleteExpense:
		p = &DeleteExpensePayload{}
	case ActionRecordPayment:
		p = &RecordPaymentPayload{}
	default:
		return nil, fmt.Errorf("unknown action type: %s", t)
	}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", t, err)
	}
	return p, nil
}
