// Package ledger maintains the per-group pairwise debts that are the durable
// source of truth for who owes whom.
//
// The ledger performs no incremental bookkeeping: derived views (net balances,
// settlement plans) are recomputed from current rows, and every successful
// write invalidates the group's cached views.
//
// Known consistency gap: the ledger provides no distributed locking.
// Concurrent writers to the same balance row race at the storage layer and the
// last write wins. The engine guarantees eventual, order-independent
// convergence of a group's balances, not strict real-time consistency;
// Recalculate is the repair path when a race leaves rows inconsistent.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/splitsmart/backend/internal/cache"
	"github.com/splitsmart/backend/internal/calculator"
	"github.com/splitsmart/backend/internal/models"
	"github.com/splitsmart/backend/internal/storage"
)

// Ledger applies debts and settlements to the pairwise balance rows.
type Ledger struct {
	store storage.Store
	cache *cache.Cache
}

// New creates a Ledger over the given store. Writes invalidate derived views
// in c.
func New(store storage.Store, c *cache.Cache) *Ledger {
	return &Ledger{store: store, cache: c}
}

// ApplyDebt increases the directed debt fromUser -> toUser. If a debt already
// exists in the opposite direction, the two are netted against each other so a
// pair never owes each other both ways at once: the reverse row shrinks,
// disappears, or flips into a forward row, whichever the net demands.
func (l *Ledger) ApplyDebt(ctx context.Context, groupID, fromUser, toUser string, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("debt amount must be positive, got %.2f", amount)
	}
	if fromUser == toUser {
		return fmt.Errorf("user %s cannot owe themselves", fromUser)
	}
	amount = calculator.Round2(amount)

	// Mirror check: net against any debt in the opposite direction first.
	reverse, err := l.store.GetBalance(ctx, groupID, toUser, fromUser)
	if err != nil {
		return err
	}

	if reverse != nil {
		net := calculator.Round2(reverse.Amount - amount)
		switch {
		case net > calculator.Epsilon:
			// Reverse debt still dominates; shrink it.
			reverse.Amount = net
			if err := l.store.UpsertBalance(ctx, reverse); err != nil {
				return err
			}
		case net < -calculator.Epsilon:
			// New debt dominates; the direction flips.
			if err := l.store.DeleteBalance(ctx, groupID, toUser, fromUser); err != nil {
				return err
			}
			if err := l.addForward(ctx, groupID, fromUser, toUser, -net); err != nil {
				return err
			}
		default:
			// The two cancel out within epsilon; no dust rows.
			if err := l.store.DeleteBalance(ctx, groupID, toUser, fromUser); err != nil {
				return err
			}
		}
	} else {
		if err := l.addForward(ctx, groupID, fromUser, toUser, amount); err != nil {
			return err
		}
	}

	l.cache.InvalidateGroup(groupID)
	return nil
}

// addForward adds amount to the forward (fromUser -> toUser) row, creating it
// if absent.
func (l *Ledger) addForward(ctx context.Context, groupID, fromUser, toUser string, amount float64) error {
	forward, err := l.store.GetBalance(ctx, groupID, fromUser, toUser)
	if err != nil {
		return err
	}
	if forward == nil {
		forward = &models.PairwiseBalance{
			GroupID:  groupID,
			FromUser: fromUser,
			ToUser:   toUser,
		}
	}
	forward.Amount = calculator.Round2(forward.Amount + amount)
	return l.store.UpsertBalance(ctx, forward)
}

// Settle decreases an existing debt by amount and returns the remaining debt.
// The row may be stored in either orientation, so both directions are
// consulted. A settlement that exceeds the outstanding debt is rejected with
// ErrOverSettlement rather than clamped or flipped; a missing row yields
// ErrBalanceNotFound. Rows reduced to the epsilon or below are deleted, never
// left as near-zero residue.
func (l *Ledger) Settle(ctx context.Context, groupID, fromUser, toUser string, amount float64) (float64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("settlement amount must be positive, got %.2f", amount)
	}
	amount = calculator.Round2(amount)

	balance, err := l.store.GetBalance(ctx, groupID, fromUser, toUser)
	if err != nil {
		return 0, err
	}
	if balance == nil {
		// The debt may be recorded in the opposite orientation.
		balance, err = l.store.GetBalance(ctx, groupID, toUser, fromUser)
		if err != nil {
			return 0, err
		}
	}
	if balance == nil {
		return 0, ErrBalanceNotFound
	}

	if amount > balance.Amount+calculator.Epsilon {
		return 0, fmt.Errorf("%w: settling %.2f against %.2f", ErrOverSettlement, amount, balance.Amount)
	}

	remaining := calculator.Round2(balance.Amount - amount)
	if remaining <= calculator.Epsilon {
		if err := l.store.DeleteBalance(ctx, balance.GroupID, balance.FromUser, balance.ToUser); err != nil {
			return 0, err
		}
		remaining = 0
	} else {
		balance.Amount = remaining
		if err := l.store.UpsertBalance(ctx, balance); err != nil {
			return 0, err
		}
	}

	l.cache.InvalidateGroup(groupID)
	return remaining, nil
}

// ValidateSplits enforces the conservation invariant: an expense distributes
// its full amount across participants exactly once.
func (l *Ledger) ValidateSplits(amount float64, splits []models.Split) error {
	if len(splits) == 0 {
		return fmt.Errorf("%w: expense has no splits", ErrInvariantViolation)
	}
	sum := 0.0
	for _, s := range splits {
		if s.Amount < 0 {
			return fmt.Errorf("%w: negative split %.2f for %s", ErrInvariantViolation, s.Amount, s.UserID)
		}
		sum = calculator.Round2(sum + s.Amount)
	}
	if math.Abs(sum-amount) > calculator.Epsilon {
		return fmt.Errorf("%w: splits sum to %.2f, expense amount is %.2f", ErrInvariantViolation, sum, amount)
	}
	return nil
}

// ApplyExpense applies one debt per non-payer split: each participant owes the
// payer their share.
func (l *Ledger) ApplyExpense(ctx context.Context, expense *models.Expense) error {
	if err := l.ValidateSplits(expense.Amount, expense.Splits); err != nil {
		return err
	}
	for _, split := range expense.Splits {
		if split.UserID == expense.PaidBy || split.Amount <= calculator.Epsilon {
			continue
		}
		if err := l.ApplyDebt(ctx, expense.GroupID, split.UserID, expense.PaidBy, split.Amount); err != nil {
			return fmt.Errorf("failed to apply debt for split %s: %w", split.UserID, err)
		}
	}
	return nil
}

// ReverseExpense undoes an expense's debts by applying each split in the
// opposite direction. The mirror netting in ApplyDebt makes this exact.
func (l *Ledger) ReverseExpense(ctx context.Context, expense *models.Expense) error {
	for _, split := range expense.Splits {
		if split.UserID == expense.PaidBy || split.Amount <= calculator.Epsilon {
			continue
		}
		if err := l.ApplyDebt(ctx, expense.GroupID, expense.PaidBy, split.UserID, split.Amount); err != nil {
			return fmt.Errorf("failed to reverse debt for split %s: %w", split.UserID, err)
		}
	}
	return nil
}

// Recalculate rebuilds a group's pairwise rows from scratch by folding every
// expense split and every recorded settlement, then replacing the stored rows.
// This is the repair path for last-write-wins races on shared rows.
func (l *Ledger) Recalculate(ctx context.Context, groupID string) error {
	expenses, err := l.store.ListExpensesByGroup(ctx, groupID)
	if err != nil {
		return err
	}
	settlements, err := l.store.ListSettlementsByGroup(ctx, groupID)
	if err != nil {
		return err
	}

	type pair struct{ from, to string }
	debts := make(map[pair]float64)
	add := func(from, to string, amount float64) {
		p := pair{from, to}
		debts[p] = calculator.Round2(debts[p] + amount)
	}

	for _, expense := range expenses {
		for _, split := range expense.Splits {
			if split.UserID == expense.PaidBy {
				continue
			}
			add(split.UserID, expense.PaidBy, split.Amount)
		}
	}
	for _, settlement := range settlements {
		// A payment from debtor to creditor reduces the debtor's debt.
		add(settlement.FromUserID, settlement.ToUserID, -settlement.Amount)
	}

	if err := l.store.DeleteGroupBalances(ctx, groupID); err != nil {
		return err
	}

	written := 0
	for p, amount := range debts {
		// Net the two directions so only one row per unordered pair survives.
		mirror := pair{p.to, p.from}
		net := calculator.Round2(amount - debts[mirror])
		if net <= calculator.Epsilon {
			continue
		}
		balance := &models.PairwiseBalance{
			GroupID:  groupID,
			FromUser: p.from,
			ToUser:   p.to,
			Amount:   net,
		}
		if err := l.store.UpsertBalance(ctx, balance); err != nil {
			return err
		}
		written++
	}

	l.cache.InvalidateGroup(groupID)
	slog.Info("Recalculated group balances", "group_id", groupID, "rows", written)
	return nil
}
