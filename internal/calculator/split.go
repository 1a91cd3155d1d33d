package calculator

import (
	"fmt"
	"math"

	"github.com/splitsmart/backend/internal/models"
)

// ComputeSplits distributes an expense amount across participants according to
// the split type. For equal splits each share is the amount divided evenly; for
// percentage splits the shares slice carries percentages of the total; for
// custom splits the shares carry absolute amounts and are validated as-is.
//
// Shares are rounded to cents and any rounding remainder is assigned to the
// first participant, so the returned splits always sum exactly to the expense
// amount. Money is neither created nor destroyed by a split.
func ComputeSplits(amount float64, splitType models.SplitType, participants []string, shares []models.Split) ([]models.Split, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("expense amount must be positive, got %.2f", amount)
	}

	switch splitType {
	case models.SplitEqual:
		if len(participants) == 0 {
			return nil, fmt.Errorf("equal split requires at least one participant")
		}
		share := Round2(amount / float64(len(participants)))
		splits := make([]models.Split, len(participants))
		for i, userID := range participants {
			splits[i] = models.Split{UserID: userID, Amount: share}
		}
		return absorbRemainder(amount, splits), nil

	case models.SplitPercentage:
		if len(shares) == 0 {
			return nil, fmt.Errorf("percentage split requires shares")
		}
		totalPct := 0.0
		for _, s := range shares {
			if s.Amount < 0 {
				return nil, fmt.Errorf("percentage for %s must not be negative", s.UserID)
			}
			totalPct += s.Amount
		}
		if math.Abs(totalPct-100) > Epsilon {
			return nil, fmt.Errorf("percentages must sum to 100, got %.2f", totalPct)
		}
		splits := make([]models.Split, len(shares))
		for i, s := range shares {
			splits[i] = models.Split{UserID: s.UserID, Amount: Round2(amount * s.Amount / 100)}
		}
		return absorbRemainder(amount, splits), nil

	case models.SplitCustom:
		if len(shares) == 0 {
			return nil, fmt.Errorf("custom split requires shares")
		}
		total := 0.0
		for _, s := range shares {
			if s.Amount < 0 {
				return nil, fmt.Errorf("share for %s must not be negative", s.UserID)
			}
			total = Round2(total + s.Amount)
		}
		if math.Abs(total-amount) > Epsilon {
			return nil, fmt.Errorf("custom shares sum to %.2f, expense amount is %.2f", total, amount)
		}
		splits := make([]models.Split, len(shares))
		copy(splits, shares)
		return splits, nil

	default:
		return nil, fmt.Errorf("unknown split type: %s", splitType)
	}
}

// absorbRemainder folds the cent-level rounding remainder into the first split
// so the shares sum exactly to the expense amount.
func absorbRemainder(amount float64, splits []models.Split) []models.Split {
	total := 0.0
	for _, s := range splits {
		total = Round2(total + s.Amount)
	}
	remainder := Round2(amount - total)
	if remainder != 0 && len(splits) > 0 {
		splits[0].Amount = Round2(splits[0].Amount + remainder)
	}
	return splits
}
