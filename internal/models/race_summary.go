package models

import (
	"github.com/shopspring/decimal"
)

// RaceSummary aggregates all simulated bets for one race, plus the running
// totals at the point the race entered the ledger. Cumulative fields are
// always recomputed by folding the ledger in order, never stored as mutable
// counters.
type RaceSummary struct {
	RaceName         string          `json:"race_name"`
	RaceProfit       decimal.Decimal `json:"race_profit"`
	CumulativeProfit decimal.Decimal `json:"cumulative_profit"`
	TotalCapital     decimal.Decimal `json:"total_capital"`
	BetsPlaced       int             `json:"bets_placed"`
	BetsWon          int             `json:"bets_won"`
	WinRate          float64         `json:"win_rate"`
}

// CapitalPoint is one step of the capital-over-race series derived from the
// ledger, in race-processing order.
type CapitalPoint struct {
	RaceName         string
	TotalCapital     decimal.Decimal
	CumulativeProfit decimal.Decimal
}

// WinRate divides wins by placed bets, returning 0 rather than NaN when no
// bets were placed.
func WinRate(won, placed int) float64 {
	if placed <= 0 {
		return 0
	}
	return float64(won) / float64(placed)
}
