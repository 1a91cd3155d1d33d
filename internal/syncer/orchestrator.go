// Package syncer drives the draining of the offline mutation queue: it
// detects the offline-to-online transition, serializes replay, reports the
// outcome, and invalidates cached ledger views.
package syncer

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/splitsmart/backend/internal/cache"
	"github.com/splitsmart/backend/internal/models"
	"github.com/splitsmart/backend/internal/queue"
)

// DefaultMaxRetries is the number of failed replay attempts after which an
// action is permanently dropped.
const DefaultMaxRetries = 3

// ErrSyncInProgress is returned when a drain is requested while one is
// already running. The request is ignored, not queued; the running drain
// covers it.
var ErrSyncInProgress = errors.New("sync already in progress")

// Applier replays one queued action against the live backend. Implemented by
// the expense service, which dispatches on the payload type.
type Applier interface {
	Apply(ctx context.Context, action models.OfflineAction) error
}

// Report aggregates the outcome of one drain. Dropped actions (retries
// exhausted) are included in Failed. No partial-action state is exposed
// mid-drain.
type Report struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Dropped   int `json:"dropped"`
}

// Orchestrator owns the drain loop. It is single-writer by construction: the
// re-entrancy guard refuses to start a second drain while one is in flight.
type Orchestrator struct {
	queue      queue.Queue
	applier    Applier
	cache      *cache.Cache
	probe      Probe
	maxRetries int
	syncing    atomic.Bool
}

// New creates an Orchestrator. maxRetries <= 0 selects DefaultMaxRetries.
func New(q queue.Queue, applier Applier, c *cache.Cache, probe Probe, maxRetries int) *Orchestrator {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Orchestrator{
		queue:      q,
		applier:    applier,
		cache:      c,
		probe:      probe,
		maxRetries: maxRetries,
	}
}

// Online reports current connectivity.
func (o *Orchestrator) Online(ctx context.Context) bool {
	return o.probe.Online(ctx)
}

// Syncing reports whether a drain is currently in flight.
func (o *Orchestrator) Syncing() bool {
	return o.syncing.Load()
}

// Sync drains the queue snapshot taken at drain start, in FIFO order.
// Actions enqueued during the drain are deferred to the next cycle. For each
// action: if its retries are already exhausted it is dropped without another
// attempt and counted failed; otherwise a successful replay removes it and a
// failure increments its retry count. Cached ledger views are invalidated
// exactly once after the drain, regardless of individual outcomes.
func (o *Orchestrator) Sync(ctx context.Context) (Report, error) {
	if !o.syncing.CompareAndSwap(false, true) {
		return Report{}, ErrSyncInProgress
	}
	defer o.syncing.Store(false)

	snapshot, err := o.queue.Pending(ctx)
	if err != nil {
		return Report{}, err
	}
	if len(snapshot) == 0 {
		return Report{}, nil
	}

	slog.Info("Draining offline queue", "pending", len(snapshot))

	// One invalidation per drain, even when a queue-storage error aborts it
	// mid-loop: replayed actions may have touched any group.
	defer func() {
		o.cache.InvalidateAll()
		drainsTotal.Inc()
		if n, err := o.queue.Len(ctx); err == nil {
			pendingActions.Set(float64(n))
		}
	}()

	var report Report
	for _, action := range snapshot {
		if action.RetryCount >= o.maxRetries {
			if err := o.queue.Remove(ctx, action.ID); err != nil {
				return report, err
			}
			report.Failed++
			report.Dropped++
			actionsTotal.WithLabelValues(outcomeDropped).Inc()
			slog.Warn("Dropping action, retries exhausted",
				"action_id", action.ID,
				"type", action.Type,
				"retries", action.RetryCount,
			)
			continue
		}

		if err := o.applier.Apply(ctx, action); err != nil {
			// The only place a failure is swallowed instead of propagated:
			// it becomes a retry-count increment.
			if rerr := o.queue.IncrementRetry(ctx, action.ID); rerr != nil {
				return report, rerr
			}
			report.Failed++
			actionsTotal.WithLabelValues(outcomeFailure).Inc()
			slog.Warn("Replay failed",
				"action_id", action.ID,
				"type", action.Type,
				"retries", action.RetryCount+1,
				"error", err,
			)
			continue
		}

		if err := o.queue.Remove(ctx, action.ID); err != nil {
			return report, err
		}
		report.Succeeded++
		actionsTotal.WithLabelValues(outcomeSuccess).Inc()
	}

	slog.Info("Drain complete", "succeeded", report.Succeeded, "failed", report.Failed, "dropped", report.Dropped)
	return report, nil
}

// Watch polls the probe at the given interval and fires a drain on each
// offline-to-online transition. It blocks until ctx is cancelled.
func (o *Orchestrator) Watch(ctx context.Context, interval time.Duration) {
	wasOnline := o.probe.Online(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			online := o.probe.Online(ctx)
			if online && !wasOnline {
				slog.Info("Connectivity restored, syncing offline queue")
				if _, err := o.Sync(ctx); err != nil && !errors.Is(err, ErrSyncInProgress) {
					slog.Error("Queue drain failed", "error", err)
				}
			}
			wasOnline = online
		}
	}
}
