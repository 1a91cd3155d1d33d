// Package calculator implements the pure money math of the ledger engine:
// per-participant expense splits, the net-balance fold, and the greedy
// debt-simplification heuristic. Everything here is deterministic, performs no
// I/O, and is safe for concurrent use.
package calculator

import "math"

// Epsilon is the monetary threshold below which a balance is treated as
// settled. Amounts are rounded to cents after every arithmetic step so binary
// floating point never accumulates visible drift.
const Epsilon = 0.01

// Round2 rounds a monetary amount to 2 decimal places.
func Round2(amount float64) float64 {
	return math.Round(amount*100) / 100
}
