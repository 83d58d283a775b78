package simulation

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/grid-better/internal/models"
)

func bet(race, driver string, outcome models.Outcome, profit string) models.SimulatedBet {
	return models.SimulatedBet{
		RaceName:         race,
		Driver:           driver,
		Stake:            decimal.NewFromInt(10),
		Outcome:          outcome,
		ProfitLoss:       decimal.RequireFromString(profit),
		SuccessThreshold: 3,
	}
}

func TestBuildReport(t *testing.T) {
	bets := []models.SimulatedBet{
		bet("Bahrain GP", "VER", models.OutcomeWin, "8"),
		bet("Bahrain GP", "HAM", models.OutcomeLoss, "-10"),
		bet("Saudi Arabia GP", "VER", models.OutcomeWin, "12"),
		bet("Saudi Arabia GP", "LEC", models.OutcomeLoss, "-10"),
		bet("Australia GP", "LEC", models.OutcomeLoss, "-10"),
	}

	report := BuildReport(bets, decimal.NewFromInt(10))

	assert.Equal(t, 5, report.TotalBets)
	assert.Equal(t, 2, report.WinningBets)
	assert.InDelta(t, 0.4, report.WinRate, 1e-9)
	assert.True(t, report.TotalProfit.Equal(decimal.NewFromInt(-10)))
	// ROI = -10 / (5 * 10)
	assert.InDelta(t, -0.2, report.ROI, 1e-9)

	assert.Equal(t, "Saudi Arabia GP", report.BestRace)
	assert.True(t, report.BestRaceProfit.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, "Australia GP", report.WorstRace)
	assert.True(t, report.WorstRaceProfit.Equal(decimal.NewFromInt(-10)))

	require.Len(t, report.Drivers, 3)
	assert.Equal(t, "VER", report.Drivers[0].Driver)
	assert.True(t, report.Drivers[0].Profit.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, 1.0, report.Drivers[0].WinRate)
	assert.Equal(t, "LEC", report.Drivers[2].Driver)
}

func TestBuildReportEmptyLedger(t *testing.T) {
	report := BuildReport(nil, decimal.NewFromInt(10))
	assert.Equal(t, 0, report.TotalBets)
	assert.Equal(t, 0.0, report.WinRate)
	assert.Equal(t, 0.0, report.ROI)
	assert.Empty(t, report.BestRace)
}

func TestRenderConsole(t *testing.T) {
	bets := []models.SimulatedBet{
		bet("Bahrain GP", "VER", models.OutcomeWin, "8"),
		bet("Bahrain GP", "HAM", models.OutcomeLoss, "-10"),
	}
	report := BuildReport(bets, decimal.NewFromInt(10))

	var out bytes.Buffer
	report.RenderConsole(&out)

	rendered := out.String()
	assert.Contains(t, rendered, "Performance Report")
	assert.Contains(t, rendered, "VER")
	assert.Contains(t, rendered, "Bahrain GP")
}
