package cli

import (
	"fmt"
	"time"

	"github.com/splitsmart/backend/internal/cache"
	"github.com/splitsmart/backend/internal/config"
	"github.com/splitsmart/backend/internal/ledger"
	"github.com/splitsmart/backend/internal/queue"
	"github.com/splitsmart/backend/internal/service"
	"github.com/splitsmart/backend/internal/storage/sqlite"
	"github.com/splitsmart/backend/internal/syncer"
)

// app holds the wired engine: one store, one queue handle, one orchestrator.
// The queue is constructed here exactly once and passed by reference to its
// consumers.
type app struct {
	cfg          *config.Config
	store        *sqlite.SQLiteStore
	queue        *queue.SQLiteQueue
	cache        *cache.Cache
	ledger       *ledger.Ledger
	expenses     *service.ExpenseService
	settlements  *service.SettlementService
	recurring    *service.RecurringService
	orchestrator *syncer.Orchestrator
}

func buildApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	q, err := queue.Open(cfg.Queue.Path)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize offline queue: %w", err)
	}

	var probe syncer.Probe
	if cfg.Sync.ProbeURL != "" {
		probe = syncer.NewHTTPProbe(cfg.Sync.ProbeURL, time.Duration(cfg.Sync.ProbeTimeoutSec)*time.Second)
	} else {
		probe = syncer.Always(true)
	}

	c := cache.New()
	l := ledger.New(store, c)
	expenses := service.NewExpenseService(store, l, q, c, probe)
	settlements := service.NewSettlementService(store, c)
	recurring := service.NewRecurringService(store, expenses)
	orchestrator := syncer.New(q, expenses, c, probe, cfg.Sync.MaxRetries)

	return &app{
		cfg:          cfg,
		store:        store,
		queue:        q,
		cache:        c,
		ledger:       l,
		expenses:     expenses,
		settlements:  settlements,
		recurring:    recurring,
		orchestrator: orchestrator,
	}, nil
}

func (a *app) Close() {
	a.queue.Close()
	a.store.Close()
}
