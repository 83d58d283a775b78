// Package simulation computes bet outcomes and race aggregates from
// recommendations and race results.
package simulation

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/grid-better/internal/models"
)

// Engine matches recommendations to results and settles the resulting bets.
// It holds no domain state; all persistence is delegated to the ledger store.
type Engine struct {
	logger *logrus.Logger
}

// Stats counts the non-fatal outcomes of a simulation batch.
type Stats struct {
	Matched                  int
	UnmatchedRecommendations int
	IgnoredResults           int
	SkippedInvalidOdds       int
}

// NewEngine creates a simulation engine.
func NewEngine(logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{logger: logger}
}

// Simulate pairs recommendations with results on (race, driver), settles each
// matched pair against the success threshold and returns the simulated bets
// with the race aggregate. Recommendations with no result are counted as
// unmatched; results with no recommendation are ignored (no bet was proposed).
// A recommendation with odds below 1.0 is skipped, not fatal to the batch.
func (e *Engine) Simulate(recs []models.Recommendation, results []models.RaceResult, successThreshold int, stakeAmount decimal.Decimal) ([]models.SimulatedBet, models.RaceSummary, Stats, error) {
	if successThreshold < 1 {
		return nil, models.RaceSummary{}, Stats{}, fmt.Errorf("success threshold must be >= 1, got %d", successThreshold)
	}
	if !stakeAmount.IsPositive() {
		return nil, models.RaceSummary{}, Stats{}, fmt.Errorf("stake amount must be positive, got %s", stakeAmount)
	}

	resultByKey := make(map[models.BetKey]models.RaceResult, len(results))
	for _, result := range results {
		resultByKey[result.Key()] = result
	}

	var (
		bets  []models.SimulatedBet
		stats Stats
	)

	matched := make(map[models.BetKey]struct{})
	for _, rec := range recs {
		result, ok := resultByKey[rec.Key()]
		if !ok {
			stats.UnmatchedRecommendations++
			e.logger.WithFields(logrus.Fields{"race": rec.RaceName, "driver": rec.Driver}).Debug("No result for recommendation")
			continue
		}
		if rec.Odds.LessThan(decimal.NewFromInt(1)) {
			stats.SkippedInvalidOdds++
			e.logger.WithFields(logrus.Fields{"race": rec.RaceName, "driver": rec.Driver, "odds": rec.Odds}).Warn("Skipping recommendation with odds below 1.0")
			continue
		}
		// At most one bet per (race, driver) pair may ever be settled.
		if _, done := matched[rec.Key()]; done {
			e.logger.WithFields(logrus.Fields{"race": rec.RaceName, "driver": rec.Driver}).Warn("Duplicate recommendation for an already settled pair, skipping")
			continue
		}

		matched[rec.Key()] = struct{}{}
		stats.Matched++
		bets = append(bets, settleBet(rec, result, successThreshold, stakeAmount))
	}

	stats.IgnoredResults = len(results) - len(matched)
	summary := summarize(bets)

	return bets, summary, stats, nil
}

// settleBet settles one matched pair. WIN pays stake*odds - stake, LOSS costs
// the stake. A non-finisher never satisfies the threshold.
func settleBet(rec models.Recommendation, result models.RaceResult, successThreshold int, stakeAmount decimal.Decimal) models.SimulatedBet {
	stake := rec.Stake
	if !stake.IsPositive() {
		stake = stakeAmount
	}

	outcome := models.OutcomeLoss
	profit := stake.Neg()
	if result.DidFinish() && result.Position <= successThreshold {
		outcome = models.OutcomeWin
		profit = stake.Mul(rec.Odds).Sub(stake)
	}

	return models.SimulatedBet{
		RaceName:             rec.RaceName,
		Driver:               rec.Driver,
		Odds:                 rec.Odds,
		PredictedProbability: rec.PredictedProbability,
		ExpectedValue:        rec.ExpectedValue,
		ActualPosition:       result.Position,
		Stake:                stake,
		Outcome:              outcome,
		ProfitLoss:           profit,
		SuccessThreshold:     successThreshold,
	}
}

// summarize aggregates a batch of settled bets. Cumulative fields are filled
// later by the ledger fold; only the per-race figures are known here.
func summarize(bets []models.SimulatedBet) models.RaceSummary {
	summary := models.RaceSummary{
		RaceProfit: decimal.Zero,
	}

	raceName := ""
	singleRace := true
	for _, bet := range bets {
		if raceName == "" {
			raceName = bet.RaceName
		} else if bet.RaceName != raceName {
			singleRace = false
		}
		summary.RaceProfit = summary.RaceProfit.Add(bet.ProfitLoss)
		summary.BetsPlaced++
		if bet.Won() {
			summary.BetsWon++
		}
	}

	if singleRace {
		summary.RaceName = raceName
	}
	summary.WinRate = models.WinRate(summary.BetsWon, summary.BetsPlaced)
	return summary
}
