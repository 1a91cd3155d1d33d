// Package service implements the application services of the ledger engine:
// expense mutations (online write-through or offline queueing), settlement
// recording, and settlement planning.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/splitsmart/backend/internal/cache"
	"github.com/splitsmart/backend/internal/calculator"
	"github.com/splitsmart/backend/internal/ledger"
	"github.com/splitsmart/backend/internal/models"
	"github.com/splitsmart/backend/internal/queue"
	"github.com/splitsmart/backend/internal/storage"
	"github.com/splitsmart/backend/internal/syncer"
)

// ExpenseService handles ledger-mutating operations. When the probe reports
// the backend unreachable, mutations are appended to the offline queue
// instead of written through; the sync orchestrator replays them later via
// Apply.
type ExpenseService struct {
	store  storage.Store
	ledger *ledger.Ledger
	queue  queue.Queue
	cache  *cache.Cache
	probe  syncer.Probe
}

// Ensure ExpenseService can replay queued actions.
var _ syncer.Applier = (*ExpenseService)(nil)

// NewExpenseService creates an ExpenseService.
func NewExpenseService(store storage.Store, l *ledger.Ledger, q queue.Queue, c *cache.Cache, probe syncer.Probe) *ExpenseService {
	return &ExpenseService{store: store, ledger: l, queue: q, cache: c, probe: probe}
}

// CreateExpenseParams carries the inputs for a new expense.
type CreateExpenseParams struct {
	GroupID      string           `json:"group_id"`
	Title        string           `json:"title"`
	Description  string           `json:"description,omitempty"`
	Amount       float64          `json:"amount"`
	PaidBy       string           `json:"paid_by"`
	SplitType    models.SplitType `json:"split_type"`
	Participants []string         `json:"participants,omitempty"`
	Shares       []models.Split   `json:"shares,omitempty"`
}

// UpdateExpenseParams carries the inputs for replacing an expense's mutable
// fields and splits.
type UpdateExpenseParams struct {
	ExpenseID    string           `json:"expense_id"`
	Title        string           `json:"title"`
	Description  string           `json:"description,omitempty"`
	Amount       float64          `json:"amount"`
	SplitType    models.SplitType `json:"split_type"`
	Participants []string         `json:"participants,omitempty"`
	Shares       []models.Split   `json:"shares,omitempty"`
}

// RecordPaymentParams carries the inputs for a settlement payment.
type RecordPaymentParams struct {
	GroupID    string  `json:"group_id"`
	FromUserID string  `json:"from_user_id"`
	ToUserID   string  `json:"to_user_id"`
	Amount     float64 `json:"amount"`
	Method     string  `json:"method,omitempty"`
	Note       string  `json:"note,omitempty"`
}

// MutationResult reports the outcome of a ledger-mutating call. Exactly one
// of the fields is set: Expense/Settlement for a write-through, QueuedActionID
// when the mutation was captured offline.
type MutationResult struct {
	Expense        *models.Expense    `json:"expense,omitempty"`
	Settlement     *models.Settlement `json:"settlement,omitempty"`
	QueuedActionID string             `json:"queued_action_id,omitempty"`
}

// Queued reports whether the mutation was deferred to the offline queue.
func (r *MutationResult) Queued() bool { return r.QueuedActionID != "" }

// CreateExpense records a new expense and applies one debt per non-payer
// split, or queues the whole mutation when offline.
func (s *ExpenseService) CreateExpense(ctx context.Context, actorID string, p CreateExpenseParams) (*MutationResult, error) {
	if actorID == "" {
		return nil, ledger.ErrNotAuthenticated
	}

	splits, err := calculator.ComputeSplits(p.Amount, p.SplitType, p.Participants, p.Shares)
	if err != nil {
		return nil, err
	}

	payload := &models.CreateExpensePayload{
		GroupID:     p.GroupID,
		Title:       p.Title,
		Description: p.Description,
		Amount:      calculator.Round2(p.Amount),
		PaidBy:      p.PaidBy,
		SplitType:   p.SplitType,
		Splits:      splits,
		CreatedBy:   actorID,
	}

	if !s.probe.Online(ctx) {
		actionID, err := s.queue.Enqueue(ctx, payload)
		if err != nil {
			return nil, err
		}
		slog.Info("Expense queued offline", "action_id", actionID, "group_id", p.GroupID)
		return &MutationResult{QueuedActionID: actionID}, nil
	}

	expense, err := s.applyCreate(ctx, payload)
	if err != nil {
		return nil, err
	}
	return &MutationResult{Expense: expense}, nil
}

// UpdateExpense replaces an expense's fields and splits, or queues the update
// when offline. The ledger effect is reverse-old-then-apply-new.
func (s *ExpenseService) UpdateExpense(ctx context.Context, actorID string, p UpdateExpenseParams) (*MutationResult, error) {
	if actorID == "" {
		return nil, ledger.ErrNotAuthenticated
	}

	splits, err := calculator.ComputeSplits(p.Amount, p.SplitType, p.Participants, p.Shares)
	if err != nil {
		return nil, err
	}

	payload := &models.UpdateExpensePayload{
		ExpenseID:   p.ExpenseID,
		Title:       p.Title,
		Description: p.Description,
		Amount:      calculator.Round2(p.Amount),
		SplitType:   p.SplitType,
		Splits:      splits,
	}

	if !s.probe.Online(ctx) {
		actionID, err := s.queue.Enqueue(ctx, payload)
		if err != nil {
			return nil, err
		}
		slog.Info("Expense update queued offline", "action_id", actionID, "expense_id", p.ExpenseID)
		return &MutationResult{QueuedActionID: actionID}, nil
	}

	expense, err := s.applyUpdate(ctx, payload)
	if err != nil {
		return nil, err
	}
	return &MutationResult{Expense: expense}, nil
}

// DeleteExpense removes an expense and undoes its ledger effect, or queues
// the deletion when offline.
func (s *ExpenseService) DeleteExpense(ctx context.Context, actorID, expenseID string) (*MutationResult, error) {
	if actorID == "" {
		return nil, ledger.ErrNotAuthenticated
	}
	if expenseID == "" {
		return nil, fmt.Errorf("expense_id required")
	}

	if !s.probe.Online(ctx) {
		actionID, err := s.queue.Enqueue(ctx, &models.DeleteExpensePayload{ExpenseID: expenseID})
		if err != nil {
			return nil, err
		}
		slog.Info("Expense deletion queued offline", "action_id", actionID, "expense_id", expenseID)
		return &MutationResult{QueuedActionID: actionID}, nil
	}

	if err := s.applyDelete(ctx, &models.DeleteExpensePayload{ExpenseID: expenseID}); err != nil {
		return nil, err
	}
	return &MutationResult{}, nil
}

// RecordPayment settles a debt and writes the immutable settlement audit row,
// or queues the payment when offline.
func (s *ExpenseService) RecordPayment(ctx context.Context, actorID string, p RecordPaymentParams) (*MutationResult, error) {
	if actorID == "" {
		return nil, ledger.ErrNotAuthenticated
	}

	payload := &models.RecordPaymentPayload{
		GroupID:    p.GroupID,
		FromUserID: p.FromUserID,
		ToUserID:   p.ToUserID,
		Amount:     calculator.Round2(p.Amount),
		Method:     p.Method,
		Note:       p.Note,
		CreatedBy:  actorID,
	}

	if !s.probe.Online(ctx) {
		actionID, err := s.queue.Enqueue(ctx, payload)
		if err != nil {
			return nil, err
		}
		slog.Info("Payment queued offline", "action_id", actionID, "group_id", p.GroupID)
		return &MutationResult{QueuedActionID: actionID}, nil
	}

	settlement, err := s.applyPayment(ctx, payload)
	if err != nil {
		return nil, err
	}
	return &MutationResult{Settlement: settlement}, nil
}

// Apply replays one queued action. The switch is exhaustive over the payload
// sum type; an unknown payload is a defect, not a retryable condition, but it
// is reported as an error so the orchestrator's retry cap disposes of it.
func (s *ExpenseService) Apply(ctx context.Context, action models.OfflineAction) error {
	switch p := action.Payload.(type) {
	case *models.CreateExpensePayload:
		_, err := s.applyCreate(ctx, p)
		return err
	case *models.UpdateExpensePayload:
		_, err := s.applyUpdate(ctx, p)
		return err
	case *models.DeleteExpensePayload:
		return s.applyDelete(ctx, p)
	case *models.RecordPaymentPayload:
		_, err := s.applyPayment(ctx, p)
		return err
	default:
		return fmt.Errorf("unhandled action payload %T", action.Payload)
	}
}

func (s *ExpenseService) applyCreate(ctx context.Context, p *models.CreateExpensePayload) (*models.Expense, error) {
	expense := &models.Expense{
		GroupID:     p.GroupID,
		Title:       p.Title,
		Description: p.Description,
		Amount:      p.Amount,
		PaidBy:      p.PaidBy,
		SplitType:   p.SplitType,
		Splits:      p.Splits,
		CreatedBy:   p.CreatedBy,
	}

	if err := s.ledger.ValidateSplits(expense.Amount, expense.Splits); err != nil {
		return nil, err
	}
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, err
	}
	if err := s.ledger.ApplyExpense(ctx, expense); err != nil {
		return nil, err
	}

	s.cache.InvalidateGroup(expense.GroupID)
	return expense, nil
}

func (s *ExpenseService) applyUpdate(ctx context.Context, p *models.UpdateExpensePayload) (*models.Expense, error) {
	existing, err := s.store.GetExpense(ctx, p.ExpenseID)
	if err != nil {
		return nil, err
	}

	updated := &models.Expense{
		ID:          existing.ID,
		GroupID:     existing.GroupID,
		Title:       p.Title,
		Description: p.Description,
		Amount:      p.Amount,
		PaidBy:      existing.PaidBy,
		SplitType:   p.SplitType,
		Splits:      p.Splits,
		CreatedBy:   existing.CreatedBy,
		CreatedAt:   existing.CreatedAt,
	}
	if err := s.ledger.ValidateSplits(updated.Amount, updated.Splits); err != nil {
		return nil, err
	}

	// Undo the old debts before applying the new ones; mirror netting makes
	// the reversal exact.
	if err := s.ledger.ReverseExpense(ctx, existing); err != nil {
		return nil, err
	}
	if err := s.store.UpdateExpense(ctx, updated); err != nil {
		return nil, err
	}
	if err := s.ledger.ApplyExpense(ctx, updated); err != nil {
		return nil, err
	}

	s.cache.InvalidateGroup(updated.GroupID)
	return updated, nil
}

func (s *ExpenseService) applyDelete(ctx context.Context, p *models.DeleteExpensePayload) error {
	existing, err := s.store.GetExpense(ctx, p.ExpenseID)
	if err != nil {
		return err
	}
	if err := s.ledger.ReverseExpense(ctx, existing); err != nil {
		return err
	}
	if err := s.store.DeleteExpense(ctx, p.ExpenseID); err != nil {
		return err
	}

	s.cache.InvalidateGroup(existing.GroupID)
	return nil
}

func (s *ExpenseService) applyPayment(ctx context.Context, p *models.RecordPaymentPayload) (*models.Settlement, error) {
	remaining, err := s.ledger.Settle(ctx, p.GroupID, p.FromUserID, p.ToUserID, p.Amount)
	if err != nil {
		return nil, err
	}

	settlement := &models.Settlement{
		GroupID:    p.GroupID,
		FromUserID: p.FromUserID,
		ToUserID:   p.ToUserID,
		Amount:     p.Amount,
		Method:     p.Method,
		Note:       p.Note,
		CreatedBy:  p.CreatedBy,
	}
	if err := s.store.CreateSettlement(ctx, settlement); err != nil {
		return nil, err
	}

	s.cache.InvalidateGroup(p.GroupID)
	slog.Info("Payment recorded",
		"group_id", p.GroupID,
		"from", p.FromUserID,
		"to", p.ToUserID,
		"amount", p.Amount,
		"remaining", remaining,
	)
	return settlement, nil
}
