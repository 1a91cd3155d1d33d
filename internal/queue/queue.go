// Package queue implements the offline mutation queue: a local, durable, FIFO
// store of pending ledger mutations that is replayed when connectivity
// returns.
//
// The queue is exclusively owned by one process and is never shared across
// devices. It is constructed once at application start and passed by handle to
// its callers, so tests can substitute their own instance.
package queue

import (
	"context"

	"github.com/splitsmart/backend/internal/models"
)

// Queue defines the contract for the durable offline-action queue. Pending
// actions survive process restarts and are independent of any network
// connectivity.
type Queue interface {
	// Enqueue appends an action with retry_count = 0 and returns its ID.
	Enqueue(ctx context.Context, payload models.ActionPayload) (string, error)

	// Pending returns all queued actions in creation order. Replay is FIFO,
	// not priority-based, so dependent mutations (create-then-delete) keep
	// their causal ordering.
	Pending(ctx context.Context) ([]models.OfflineAction, error)

	// Remove deletes an action, either after a successful replay or when its
	// retries are exhausted.
	Remove(ctx context.Context, actionID string) error

	// IncrementRetry bumps an action's retry count after a failed replay.
	IncrementRetry(ctx context.Context, actionID string) error

	// Len reports the number of pending actions.
	Len(ctx context.Context) (int, error)

	// Close releases any resources held by the queue.
	Close() error
}
