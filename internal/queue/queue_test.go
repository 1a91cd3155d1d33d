package queue

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitsmart/backend/internal/models"
)

func newTestQueue(t *testing.T) (*SQLiteQueue, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "queue.db")
	q, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { q.Close() })
	return q, path
}

func deletePayload(expenseID string) models.ActionPayload {
	return models.DeleteExpensePayload{ExpenseID: expenseID}
}

func TestQueue_FIFOOrder(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	id1, err := q.Enqueue(ctx, deletePayload("e1"))
	require.NoError(t, err)
	id2, err := q.Enqueue(ctx, deletePayload("e2"))
	require.NoError(t, err)
	id3, err := q.Enqueue(ctx, deletePayload("e3"))
	require.NoError(t, err)

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, []string{id1, id2, id3}, []string{pending[0].ID, pending[1].ID, pending[2].ID})
}

func TestQueue_RoundTripsPayload(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	payload := models.RecordPaymentPayload{
		GroupID:    "g1",
		FromUserID: "alice",
		ToUserID:   "bob",
		Amount:     42.50,
		Method:     "cash",
		CreatedBy:  "alice",
	}
	_, err := q.Enqueue(ctx, payload)
	require.NoError(t, err)

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	assert.Equal(t, models.ActionRecordPayment, pending[0].Type)
	decoded, ok := pending[0].Payload.(*models.RecordPaymentPayload)
	require.True(t, ok)
	assert.Equal(t, payload, *decoded)
}

func TestQueue_Remove(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	id1, err := q.Enqueue(ctx, deletePayload("e1"))
	require.NoError(t, err)
	id2, err := q.Enqueue(ctx, deletePayload("e2"))
	require.NoError(t, err)

	require.NoError(t, q.Remove(ctx, id1))

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, id2, pending[0].ID)

	// Removing an absent action is not an error.
	assert.NoError(t, q.Remove(ctx, id1))
}

func TestQueue_IncrementRetry(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, deletePayload("e1"))
	require.NoError(t, err)

	require.NoError(t, q.IncrementRetry(ctx, id))
	require.NoError(t, q.IncrementRetry(ctx, id))

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].RetryCount)

	assert.Error(t, q.IncrementRetry(ctx, "no-such-action"))
}

func TestQueue_Len(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = q.Enqueue(ctx, deletePayload("e1"))
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, deletePayload("e2"))
	require.NoError(t, err)

	n, err = q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestQueue_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.db")
	ctx := context.Background()

	q, err := Open(path)
	require.NoError(t, err)

	id, err := q.Enqueue(ctx, deletePayload("e1"))
	require.NoError(t, err)
	require.NoError(t, q.IncrementRetry(ctx, id))
	require.NoError(t, q.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	pending, err := reopened.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, id, pending[0].ID)
	assert.Equal(t, 1, pending[0].RetryCount)
}
