package service

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitsmart/backend/internal/cache"
	"github.com/splitsmart/backend/internal/ledger"
	"github.com/splitsmart/backend/internal/models"
	"github.com/splitsmart/backend/internal/queue"
	"github.com/splitsmart/backend/internal/storage"
	"github.com/splitsmart/backend/internal/storage/sqlite"
	"github.com/splitsmart/backend/internal/syncer"
)

// testEnv wires a real store and queue on temp files, with a toggleable
// connectivity probe.
type testEnv struct {
	store    storage.Store
	queue    queue.Queue
	cache    *cache.Cache
	expenses *ExpenseService
	syncer   *syncer.Orchestrator
	online   atomic.Bool
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	store, err := sqlite.New(filepath.Join(dir, "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	q, err := queue.Open(filepath.Join(dir, "queue.db"))
	require.NoError(t, err)
	t.Cleanup(func() { q.Close() })

	env := &testEnv{store: store, queue: q, cache: cache.New()}
	env.online.Store(true)

	probe := syncer.ProbeFunc(func(context.Context) bool { return env.online.Load() })
	l := ledger.New(store, env.cache)
	env.expenses = NewExpenseService(store, l, q, env.cache, probe)
	env.syncer = syncer.New(q, env.expenses, env.cache, probe, 0)
	return env
}

func (e *testEnv) balances(t *testing.T, groupID string) []models.PairwiseBalance {
	t.Helper()
	balances, err := e.store.ListBalances(context.Background(), groupID)
	require.NoError(t, err)
	return balances
}

func equalExpense(groupID string) CreateExpenseParams {
	return CreateExpenseParams{
		GroupID:      groupID,
		Title:        "Dinner",
		Amount:       90,
		PaidBy:       "alice",
		SplitType:    models.SplitEqual,
		Participants: []string{"alice", "bob", "carol"},
	}
}

func TestCreateExpense_Online(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.expenses.CreateExpense(ctx, "alice", equalExpense("g1"))
	require.NoError(t, err)
	assert.False(t, result.Queued())
	require.NotNil(t, result.Expense)
	assert.NotEmpty(t, result.Expense.ID)

	balances := env.balances(t, "g1")
	require.Len(t, balances, 2)
	for _, b := range balances {
		assert.Equal(t, "alice", b.ToUser)
		assert.Equal(t, 30.0, b.Amount)
	}
}

func TestCreateExpense_RequiresActor(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.expenses.CreateExpense(context.Background(), "", equalExpense("g1"))
	assert.ErrorIs(t, err, ledger.ErrNotAuthenticated)
}

func TestCreateExpense_OfflineQueuesThenDrains(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.online.Store(false)
	result, err := env.expenses.CreateExpense(ctx, "alice", equalExpense("g1"))
	require.NoError(t, err)
	assert.True(t, result.Queued())
	assert.Nil(t, result.Expense)

	// Nothing hits the ledger while offline.
	assert.Empty(t, env.balances(t, "g1"))
	n, err := env.queue.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	env.online.Store(true)
	report, err := env.syncer.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)

	require.Len(t, env.balances(t, "g1"), 2)
	n, err = env.queue.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestUpdateExpense_ReversesOldDebts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.expenses.CreateExpense(ctx, "alice", equalExpense("g1"))
	require.NoError(t, err)

	_, err = env.expenses.UpdateExpense(ctx, "alice", UpdateExpenseParams{
		ExpenseID:    created.Expense.ID,
		Title:        "Dinner (corrected)",
		Amount:       60,
		SplitType:    models.SplitEqual,
		Participants: []string{"alice", "bob", "carol"},
	})
	require.NoError(t, err)

	balances := env.balances(t, "g1")
	require.Len(t, balances, 2)
	for _, b := range balances {
		assert.Equal(t, 20.0, b.Amount)
	}

	stored, err := env.store.GetExpense(ctx, created.Expense.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dinner (corrected)", stored.Title)
	assert.Equal(t, 60.0, stored.Amount)
}

func TestDeleteExpense_UndoesLedgerEffect(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.expenses.CreateExpense(ctx, "alice", equalExpense("g1"))
	require.NoError(t, err)
	require.Len(t, env.balances(t, "g1"), 2)

	_, err = env.expenses.DeleteExpense(ctx, "alice", created.Expense.ID)
	require.NoError(t, err)

	assert.Empty(t, env.balances(t, "g1"))
	_, err = env.store.GetExpense(ctx, created.Expense.ID)
	assert.Error(t, err)
}

func TestRecordPayment_SettlesAndAudits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.expenses.CreateExpense(ctx, "alice", equalExpense("g1"))
	require.NoError(t, err)

	result, err := env.expenses.RecordPayment(ctx, "bob", RecordPaymentParams{
		GroupID:    "g1",
		FromUserID: "bob",
		ToUserID:   "alice",
		Amount:     30,
		Method:     "cash",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Settlement)
	assert.Equal(t, "bob", result.Settlement.FromUserID)

	// Bob's debt is gone, Carol's remains.
	balances := env.balances(t, "g1")
	require.Len(t, balances, 1)
	assert.Equal(t, "carol", balances[0].FromUser)

	settlements, err := env.store.ListSettlementsByGroup(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, settlements, 1)
	assert.Equal(t, 30.0, settlements[0].Amount)
}

func TestRecordPayment_OverSettlement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.expenses.CreateExpense(ctx, "alice", equalExpense("g1"))
	require.NoError(t, err)

	_, err = env.expenses.RecordPayment(ctx, "bob", RecordPaymentParams{
		GroupID:    "g1",
		FromUserID: "bob",
		ToUserID:   "alice",
		Amount:     500,
	})
	require.ErrorIs(t, err, ledger.ErrOverSettlement)

	// No audit row for a rejected payment.
	settlements, err := env.store.ListSettlementsByGroup(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, settlements)
}

func TestOfflineReplay_PreservesCausalOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Create online so the expense has an ID, then queue a replacement and a
	// payment offline. The drain must apply them in enqueue order.
	created, err := env.expenses.CreateExpense(ctx, "alice", equalExpense("g1"))
	require.NoError(t, err)

	env.online.Store(false)
	_, err = env.expenses.UpdateExpense(ctx, "alice", UpdateExpenseParams{
		ExpenseID:    created.Expense.ID,
		Title:        "Dinner",
		Amount:       60,
		SplitType:    models.SplitEqual,
		Participants: []string{"alice", "bob", "carol"},
	})
	require.NoError(t, err)
	_, err = env.expenses.RecordPayment(ctx, "bob", RecordPaymentParams{
		GroupID:    "g1",
		FromUserID: "bob",
		ToUserID:   "alice",
		Amount:     20,
	})
	require.NoError(t, err)

	env.online.Store(true)
	report, err := env.syncer.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Succeeded)

	// After update (20 each) and payment, only Carol owes.
	balances := env.balances(t, "g1")
	require.Len(t, balances, 1)
	assert.Equal(t, "carol", balances[0].FromUser)
	assert.Equal(t, 20.0, balances[0].Amount)
}
