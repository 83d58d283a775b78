// Package chart renders the capital-over-race series for external consumption.
package chart

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/shopspring/decimal"

	"github.com/yourusername/grid-better/internal/models"
)

// WriteCapitalChart renders total capital by race-processing order as a
// standalone HTML line chart. Regenerated in full after every persist so the
// chart always reflects the whole ledger.
func WriteCapitalChart(path string, series []models.CapitalPoint, startingCapital decimal.Decimal) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create chart directory: %w", err)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "1200px",
			Height: "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Betting Simulation - Total Capital Over Time",
			Subtitle: fmt.Sprintf("Starting capital %s", startingCapital.StringFixed(2)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)

	races := make([]string, 0, len(series))
	capital := make([]opts.LineData, 0, len(series))
	baseline := make([]opts.LineData, 0, len(series))
	start, _ := startingCapital.Float64()
	for _, point := range series {
		races = append(races, point.RaceName)
		value, _ := point.TotalCapital.Float64()
		capital = append(capital, opts.LineData{Value: value})
		baseline = append(baseline, opts.LineData{Value: start})
	}

	line.SetXAxis(races)
	line.AddSeries("Total Capital", capital, charts.WithLineStyleOpts(opts.LineStyle{Width: 2}))
	line.AddSeries("Starting Capital", baseline, charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"}))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()

	if err := line.Render(f); err != nil {
		return fmt.Errorf("failed to render capital chart: %w", err)
	}
	return nil
}
