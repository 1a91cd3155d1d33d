package calculator

import (
	"math"
	"sort"

	"github.com/splitsmart/backend/internal/models"
)

// Aggregate folds a group's pairwise balances into one signed net figure per
// user: each debt decreases the debtor's net and increases the creditor's.
// Output is rounded to cents, entries below Epsilon are dropped as settled,
// and results are sorted by user ID for deterministic output.
//
// For any valid input the net amounts sum to zero (within epsilon): every debt
// subtracts from one user exactly what it adds to another.
func Aggregate(balances []models.PairwiseBalance) []models.NetBalance {
	net := make(map[string]float64)

	for _, b := range balances {
		net[b.FromUser] = Round2(net[b.FromUser] - b.Amount)
		net[b.ToUser] = Round2(net[b.ToUser] + b.Amount)
	}

	result := make([]models.NetBalance, 0, len(net))
	for userID, amount := range net {
		if math.Abs(amount) < Epsilon {
			continue
		}
		result = append(result, models.NetBalance{UserID: userID, Amount: amount})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].UserID < result[j].UserID
	})

	return result
}
