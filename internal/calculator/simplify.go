package calculator

import (
	"math"
	"sort"

	"github.com/splitsmart/backend/internal/models"
)

// Simplify reduces a set of net balances to a small list of transfers with the
// same net effect, using greedy largest-first matching: repeatedly pay the
// largest creditor from the largest debtor. The heuristic is fast and bounded
// (at most creditors+debtors-1 transfers) though not proven globally minimal
// for every distribution.
//
// The sum of emitted transfer amounts equals the sum of positive net balances,
// every emitted amount is >= Epsilon, and amounts are rounded to cents after
// each step.
func Simplify(netBalances []models.NetBalance) []models.SuggestedTransfer {
	var creditors, debtors []models.NetBalance

	for _, b := range netBalances {
		switch {
		case b.Amount > Epsilon:
			creditors = append(creditors, b)
		case b.Amount < -Epsilon:
			// Store debtors as positive magnitudes.
			debtors = append(debtors, models.NetBalance{UserID: b.UserID, Amount: math.Abs(b.Amount)})
		}
	}

	sortDescending(creditors)
	sortDescending(debtors)

	var transfers []models.SuggestedTransfer
	i, j := 0, 0 // creditor, debtor cursors

	for i < len(creditors) && j < len(debtors) {
		creditor := &creditors[i]
		debtor := &debtors[j]

		amount := Round2(math.Min(creditor.Amount, debtor.Amount))
		if amount >= Epsilon {
			transfers = append(transfers, models.SuggestedTransfer{
				From:   debtor.UserID,
				To:     creditor.UserID,
				Amount: amount,
			})
		}

		creditor.Amount = Round2(creditor.Amount - amount)
		debtor.Amount = Round2(debtor.Amount - amount)

		if creditor.Amount < Epsilon {
			i++
		}
		if debtor.Amount < Epsilon {
			j++
		}
	}

	return transfers
}

// sortDescending orders balances by amount, largest first, with the user ID as
// a tiebreaker so equal amounts produce a stable plan.
func sortDescending(balances []models.NetBalance) {
	sort.Slice(balances, func(i, j int) bool {
		if balances[i].Amount != balances[j].Amount {
			return balances[i].Amount > balances[j].Amount
		}
		return balances[i].UserID < balances[j].UserID
	})
}

// ComputeSavings reports how many transfers the optimizer eliminated relative
// to paying every pairwise debt directly.
func ComputeSavings(originalCount, optimizedCount int) models.Savings {
	saved := originalCount - optimizedCount
	if saved < 0 {
		saved = 0
	}
	percentage := 0
	if originalCount > 0 {
		percentage = int(math.Round(float64(saved) / float64(originalCount) * 100))
	}
	return models.Savings{Saved: saved, Percentage: percentage}
}
