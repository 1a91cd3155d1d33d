package service

import (
	"context"
	"time"

	"github.com/splitsmart/backend/internal/cache"
	"github.com/splitsmart/backend/internal/calculator"
	"github.com/splitsmart/backend/internal/models"
	"github.com/splitsmart/backend/internal/storage"
)

// viewTTL bounds how long a derived view may be served without touching the
// store. Ledger writes invalidate eagerly; the TTL only covers writes from
// other processes sharing the store.
const viewTTL = 30 * time.Second

// SettlementService serves the read side of the engine: pairwise balances,
// net balances, and optimized settlement plans. Both reductions are pure
// functions recomputed from current ledger state, cached per group until the
// next write.
type SettlementService struct {
	store storage.Store
	cache *cache.Cache
}

// NewSettlementService creates a SettlementService.
func NewSettlementService(store storage.Store, c *cache.Cache) *SettlementService {
	return &SettlementService{store: store, cache: c}
}

// GroupBalances returns all pairwise balances for a group.
func (s *SettlementService) GroupBalances(ctx context.Context, groupID string) ([]models.PairwiseBalance, error) {
	key := cache.Key("balances", groupID)
	if v, ok := s.cache.Get(key); ok {
		return v.([]models.PairwiseBalance), nil
	}

	balances, err := s.store.ListBalances(ctx, groupID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, balances, viewTTL)
	return balances, nil
}

// NetBalances folds a group's pairwise balances into one signed net figure
// per user.
func (s *SettlementService) NetBalances(ctx context.Context, groupID string) ([]models.NetBalance, error) {
	balances, err := s.GroupBalances(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return calculator.Aggregate(balances), nil
}

// Plan computes the optimized settlement plan for a group: the minimum set of
// transfers the greedy simplifier finds, plus how many transfers it saved over
// paying every pairwise debt directly.
func (s *SettlementService) Plan(ctx context.Context, groupID string) (*models.SettlementPlan, error) {
	key := cache.Key("plan", groupID)
	if v, ok := s.cache.Get(key); ok {
		return v.(*models.SettlementPlan), nil
	}

	balances, err := s.GroupBalances(ctx, groupID)
	if err != nil {
		return nil, err
	}

	transfers := calculator.Simplify(calculator.Aggregate(balances))
	plan := &models.SettlementPlan{
		GroupID:        groupID,
		Transfers:      transfers,
		OriginalCount:  len(balances),
		OptimizedCount: len(transfers),
		Savings:        calculator.ComputeSavings(len(balances), len(transfers)),
	}

	s.cache.Set(key, plan, viewTTL)
	return plan, nil
}

// Expenses returns a group's expenses, newest first.
func (s *SettlementService) Expenses(ctx context.Context, groupID string) ([]*models.Expense, error) {
	return s.store.ListExpensesByGroup(ctx, groupID)
}

// Settlements returns a group's settlement audit rows, newest first.
func (s *SettlementService) Settlements(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	return s.store.ListSettlementsByGroup(ctx, groupID)
}
