package models

import (
	"github.com/shopspring/decimal"
)

// Outcome represents the settled result of a simulated bet.
type Outcome string

const (
	OutcomeWin  Outcome = "WIN"
	OutcomeLoss Outcome = "LOSS"
)

// SimulatedBet is the join of one Recommendation with its matching RaceResult.
// Created once per matched pair, never mutated after creation.
type SimulatedBet struct {
	RaceName             string          `json:"race_name"`
	Driver               string          `json:"driver"`
	Odds                 decimal.Decimal `json:"quote"`
	PredictedProbability float64         `json:"predicted_probability"`
	ExpectedValue        float64         `json:"ev"`
	ActualPosition       int             `json:"actual_position"`
	Stake                decimal.Decimal `json:"bet_amount"`
	Outcome              Outcome         `json:"outcome"`
	ProfitLoss           decimal.Decimal `json:"profit_loss"`
	SuccessThreshold     int             `json:"success_threshold"`
}

// Key returns the (race, driver) identity of the bet.
func (b SimulatedBet) Key() BetKey {
	return BetKey{RaceName: b.RaceName, Driver: b.Driver}
}

// Won reports whether the bet settled as a win.
func (b SimulatedBet) Won() bool {
	return b.Outcome == OutcomeWin
}

// ROI returns profit relative to stake, 0 for a zero stake.
func (b SimulatedBet) ROI() float64 {
	if b.Stake.IsZero() {
		return 0
	}
	roi, _ := b.ProfitLoss.Div(b.Stake).Float64()
	return roi
}

// ParseOutcome maps a persisted outcome string back to an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	switch Outcome(s) {
	case OutcomeWin:
		return OutcomeWin, nil
	case OutcomeLoss:
		return OutcomeLoss, nil
	default:
		return "", ErrInvalidOutcome
	}
}
