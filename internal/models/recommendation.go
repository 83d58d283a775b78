package models

import (
	"github.com/shopspring/decimal"
)

// Recommendation is a proposed bet on a driver for a race, produced by the
// upstream prediction model. Immutable once loaded.
type Recommendation struct {
	RaceName             string          `json:"race_name" validate:"required"`
	Driver               string          `json:"driver" validate:"required"`
	Odds                 decimal.Decimal `json:"odds"`
	PredictedProbability float64         `json:"predicted_probability" validate:"gte=0,lte=1"`
	ExpectedValue        float64         `json:"expected_value"`
	Stake                decimal.Decimal `json:"stake"`
}

// Key returns the (race, driver) identity used for matching against results.
func (r Recommendation) Key() BetKey {
	return BetKey{RaceName: r.RaceName, Driver: r.Driver}
}

// Validate checks field constraints that the loader cannot express in CSV
// parsing alone.
func (r Recommendation) Validate() error {
	if r.RaceName == "" {
		return ErrMissingRaceName
	}
	if r.Driver == "" {
		return ErrMissingDriver
	}
	if r.Odds.LessThan(decimal.NewFromInt(1)) {
		return ErrInvalidOdds
	}
	if r.PredictedProbability < 0 || r.PredictedProbability > 1 {
		return ErrInvalidProbability
	}
	return nil
}

// BetKey identifies a bet by (race, driver). One recommendation and one
// result may exist per key.
type BetKey struct {
	RaceName string
	Driver   string
}
