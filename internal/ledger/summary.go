package ledger

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/yourusername/grid-better/internal/models"
)

var summaryColumns = []string{
	"race_name", "race_profit", "cumulative_profit", "total_capital",
	"bets_placed", "bets_won", "win_rate",
}

// BuildSummaries folds the ordered ledger into the per-race summary stream
// and the capital-over-race series. Races appear in first-insertion order;
// cumulative profit and capital are derived from the fold alone, so they can
// never drift from the underlying entries.
func BuildSummaries(bets []models.SimulatedBet, startingCapital decimal.Decimal) ([]models.RaceSummary, []models.CapitalPoint) {
	order := make([]string, 0)
	byRace := make(map[string]*models.RaceSummary)

	for _, bet := range bets {
		summary, ok := byRace[bet.RaceName]
		if !ok {
			summary = &models.RaceSummary{RaceName: bet.RaceName, RaceProfit: decimal.Zero}
			byRace[bet.RaceName] = summary
			order = append(order, bet.RaceName)
		}
		summary.RaceProfit = summary.RaceProfit.Add(bet.ProfitLoss)
		summary.BetsPlaced++
		if bet.Won() {
			summary.BetsWon++
		}
	}

	cumulative := decimal.Zero
	summaries := make([]models.RaceSummary, 0, len(order))
	series := make([]models.CapitalPoint, 0, len(order))
	for _, race := range order {
		summary := byRace[race]
		cumulative = cumulative.Add(summary.RaceProfit)
		summary.CumulativeProfit = cumulative
		summary.TotalCapital = startingCapital.Add(cumulative)
		summary.WinRate = models.WinRate(summary.BetsWon, summary.BetsPlaced)

		summaries = append(summaries, *summary)
		series = append(series, models.CapitalPoint{
			RaceName:         race,
			TotalCapital:     summary.TotalCapital,
			CumulativeProfit: cumulative,
		})
	}

	return summaries, series
}

// WriteSummaries rewrites the summary file from scratch with one row per race.
func WriteSummaries(path string, summaries []models.RaceSummary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create summary directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(summaryColumns); err != nil {
		return fmt.Errorf("failed to write summary header: %w", err)
	}
	for _, summary := range summaries {
		row := []string{
			summary.RaceName,
			summary.RaceProfit.StringFixed(2),
			summary.CumulativeProfit.StringFixed(2),
			summary.TotalCapital.StringFixed(2),
			strconv.Itoa(summary.BetsPlaced),
			strconv.Itoa(summary.BetsWon),
			strconv.FormatFloat(summary.WinRate, 'f', 4, 64),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush summary file: %w", err)
	}
	return nil
}
