// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/splitsmart/backend/internal/models"
)

// ErrNotFound is returned when a lookup or mutation references a row that does
// not exist. GetBalance is the exception: balance absence is a normal state and
// yields (nil, nil) instead.
var ErrNotFound = errors.New("not found")

// Store defines the interface for the relational backing store of the ledger
// engine. This abstraction allows swapping storage backends (SQLite,
// PostgreSQL, etc.) without changing the ledger or service layers.
//
// The store provides no cross-writer locking: concurrent writers to the same
// balance row race and the last write wins. The engine guarantees eventual,
// order-independent convergence of a group's balances, not strict real-time
// consistency.
type Store interface {
	// ListBalances returns all pairwise balances for a group.
	ListBalances(ctx context.Context, groupID string) ([]models.PairwiseBalance, error)

	// GetBalance retrieves the balance for an ordered (from, to) pair.
	// Returns (nil, nil) when no such row exists; absence is a normal state,
	// not an error.
	GetBalance(ctx context.Context, groupID, fromUser, toUser string) (*models.PairwiseBalance, error)

	// UpsertBalance inserts or replaces the balance row keyed by
	// (group, from, to). The balance.ID field will be populated if unset.
	UpsertBalance(ctx context.Context, balance *models.PairwiseBalance) error

	// DeleteBalance removes the balance row for an ordered pair.
	// Deleting an absent row is not an error.
	DeleteBalance(ctx context.Context, groupID, fromUser, toUser string) error

	// DeleteGroupBalances removes every balance row for a group.
	DeleteGroupBalances(ctx context.Context, groupID string) error

	// CreateExpense persists a new expense and its splits transactionally.
	// The expense.ID field will be populated by the store.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense by its ID, including splits.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// UpdateExpense replaces an existing expense and its splits.
	// Returns an error if the expense is not found.
	UpdateExpense(ctx context.Context, expense *models.Expense) error

	// DeleteExpense removes an expense and its splits.
	DeleteExpense(ctx context.Context, expenseID string) error

	// ListExpensesByGroup retrieves all expenses for a group, newest first.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)

	// CreateRecurringExpense persists a recurring-expense template and its
	// split recipe transactionally. The template's ID field will be populated.
	CreateRecurringExpense(ctx context.Context, recurring *models.RecurringExpense) error

	// GetRecurringExpense retrieves a template by ID, including its splits.
	// Returns ErrNotFound when absent.
	GetRecurringExpense(ctx context.Context, recurringID string) (*models.RecurringExpense, error)

	// UpdateRecurringExpense replaces a template and its splits.
	// Returns ErrNotFound when absent.
	UpdateRecurringExpense(ctx context.Context, recurring *models.RecurringExpense) error

	// DeleteRecurringExpense removes a template; splits and skipped
	// occurrences cascade. Returns ErrNotFound when absent.
	DeleteRecurringExpense(ctx context.Context, recurringID string) error

	// ListRecurringExpensesByGroup retrieves a group's templates, newest first.
	ListRecurringExpensesByGroup(ctx context.Context, groupID string) ([]*models.RecurringExpense, error)

	// ListDueRecurringExpenses retrieves active templates whose next
	// occurrence is on or before asOf (DateLayout), oldest occurrence first.
	ListDueRecurringExpenses(ctx context.Context, asOf string) ([]*models.RecurringExpense, error)

	// SkipOccurrence marks one occurrence date of a template as skipped.
	// Marking the same date twice is not an error.
	SkipOccurrence(ctx context.Context, recurringID, date string) error

	// IsOccurrenceSkipped reports whether the occurrence date was skipped.
	IsOccurrenceSkipped(ctx context.Context, recurringID, date string) (bool, error)

	// CreateSettlement persists an immutable settlement audit row.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// ListSettlementsByGroup retrieves all settlements for a group, newest first.
	ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error)

	// Close releases any resources held by the store.
	Close() error
}
