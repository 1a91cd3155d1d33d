package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitsmart/backend/internal/models"
)

func pb(from, to string, amount float64) models.PairwiseBalance {
	return models.PairwiseBalance{GroupID: "g1", FromUser: from, ToUser: to, Amount: amount}
}

func netOf(t *testing.T, balances []models.NetBalance, userID string) float64 {
	t.Helper()
	for _, b := range balances {
		if b.UserID == userID {
			return b.Amount
		}
	}
	t.Fatalf("no net balance for %s", userID)
	return 0
}

func TestAggregate_SingleDebt(t *testing.T) {
	net := Aggregate([]models.PairwiseBalance{pb("alice", "bob", 40)})

	require.Len(t, net, 2)
	assert.Equal(t, -40.0, netOf(t, net, "alice"))
	assert.Equal(t, 40.0, netOf(t, net, "bob"))
}

func TestAggregate_Triangle(t *testing.T) {
	// A owes B 30, B owes C 30, C owes A 30: everyone nets to zero.
	net := Aggregate([]models.PairwiseBalance{
		pb("alice", "bob", 30),
		pb("bob", "carol", 30),
		pb("carol", "alice", 30),
	})

	assert.Empty(t, net, "balanced triangle should produce no net balances")
}

func TestAggregate_Conservation(t *testing.T) {
	tests := []struct {
		name     string
		balances []models.PairwiseBalance
	}{
		{"empty", nil},
		{"single", []models.PairwiseBalance{pb("a", "b", 12.34)}},
		{"star", []models.PairwiseBalance{
			pb("a", "b", 100), pb("c", "b", 50), pb("d", "b", 25),
		}},
		{"dense", []models.PairwiseBalance{
			pb("a", "b", 19.99), pb("b", "c", 7.01), pb("c", "a", 3.33),
			pb("d", "a", 42.42), pb("b", "d", 0.57),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum := 0.0
			for _, b := range Aggregate(tt.balances) {
				sum += b.Amount
			}
			assert.InDelta(t, 0, sum, Epsilon, "net balances must sum to zero")
		})
	}
}

func TestAggregate_DropsSettledEntries(t *testing.T) {
	// The two positions cancel to below epsilon and both users drop out.
	net := Aggregate([]models.PairwiseBalance{
		pb("alice", "bob", 10.00),
		pb("bob", "alice", 9.996),
	})

	assert.Empty(t, net)
}

func TestAggregate_DeterministicOrder(t *testing.T) {
	net := Aggregate([]models.PairwiseBalance{
		pb("zed", "bob", 5),
		pb("alice", "bob", 5),
	})

	require.Len(t, net, 3)
	assert.Equal(t, "alice", net[0].UserID)
	assert.Equal(t, "bob", net[1].UserID)
	assert.Equal(t, "zed", net[2].UserID)
}
