package simulation

import (
	"fmt"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"github.com/yourusername/grid-better/internal/models"
)

// DriverStats aggregates ledger performance for one driver.
type DriverStats struct {
	Driver  string
	Bets    int
	Wins    int
	Profit  decimal.Decimal
	WinRate float64
}

// Report is the performance report derived purely from the ledger. It has no
// side effects and can be recomputed at any time.
type Report struct {
	TotalBets       int
	WinningBets     int
	WinRate         float64
	TotalProfit     decimal.Decimal
	ROI             float64
	BestRace        string
	BestRaceProfit  decimal.Decimal
	WorstRace       string
	WorstRaceProfit decimal.Decimal
	Drivers         []DriverStats
}

// BuildReport computes the performance report over all ledger bets.
// ROI is totalProfit / (betsPlaced * stakeAmount).
func BuildReport(bets []models.SimulatedBet, stakeAmount decimal.Decimal) Report {
	report := Report{TotalProfit: decimal.Zero}

	raceProfit := make(map[string]decimal.Decimal)
	raceOrder := make([]string, 0)
	driverStats := make(map[string]*DriverStats)

	for _, bet := range bets {
		report.TotalBets++
		if bet.Won() {
			report.WinningBets++
		}
		report.TotalProfit = report.TotalProfit.Add(bet.ProfitLoss)

		if _, seen := raceProfit[bet.RaceName]; !seen {
			raceOrder = append(raceOrder, bet.RaceName)
			raceProfit[bet.RaceName] = decimal.Zero
		}
		raceProfit[bet.RaceName] = raceProfit[bet.RaceName].Add(bet.ProfitLoss)

		stats, ok := driverStats[bet.Driver]
		if !ok {
			stats = &DriverStats{Driver: bet.Driver, Profit: decimal.Zero}
			driverStats[bet.Driver] = stats
		}
		stats.Bets++
		if bet.Won() {
			stats.Wins++
		}
		stats.Profit = stats.Profit.Add(bet.ProfitLoss)
	}

	report.WinRate = models.WinRate(report.WinningBets, report.TotalBets)

	if report.TotalBets > 0 && stakeAmount.IsPositive() {
		turnover := stakeAmount.Mul(decimal.NewFromInt(int64(report.TotalBets)))
		roi, _ := report.TotalProfit.Div(turnover).Float64()
		report.ROI = roi
	}

	for _, race := range raceOrder {
		profit := raceProfit[race]
		if report.BestRace == "" || profit.GreaterThan(report.BestRaceProfit) {
			report.BestRace = race
			report.BestRaceProfit = profit
		}
		if report.WorstRace == "" || profit.LessThan(report.WorstRaceProfit) {
			report.WorstRace = race
			report.WorstRaceProfit = profit
		}
	}

	report.Drivers = make([]DriverStats, 0, len(driverStats))
	for _, stats := range driverStats {
		stats.WinRate = models.WinRate(stats.Wins, stats.Bets)
		report.Drivers = append(report.Drivers, *stats)
	}
	sort.Slice(report.Drivers, func(i, j int) bool {
		if !report.Drivers[i].Profit.Equal(report.Drivers[j].Profit) {
			return report.Drivers[i].Profit.GreaterThan(report.Drivers[j].Profit)
		}
		return report.Drivers[i].Driver < report.Drivers[j].Driver
	})

	return report
}

// RenderConsole writes the report as console tables.
func (r Report) RenderConsole(w io.Writer) {
	fmt.Fprintln(w, "Betting Simulation Performance Report")
	fmt.Fprintln(w, "=====================================")

	overall := tablewriter.NewWriter(w)
	overall.Header("Total Bets", "Wins", "Win Rate", "Total P/L", "ROI")
	overall.Append(
		fmt.Sprintf("%d", r.TotalBets),
		fmt.Sprintf("%d", r.WinningBets),
		fmt.Sprintf("%.1f%%", r.WinRate*100),
		r.TotalProfit.StringFixed(2),
		fmt.Sprintf("%.1f%%", r.ROI*100),
	)
	overall.Render()

	if r.BestRace != "" {
		fmt.Fprintf(w, "Best race:  %s (%s)\n", r.BestRace, r.BestRaceProfit.StringFixed(2))
		fmt.Fprintf(w, "Worst race: %s (%s)\n", r.WorstRace, r.WorstRaceProfit.StringFixed(2))
	}

	if len(r.Drivers) == 0 {
		return
	}

	fmt.Fprintln(w, "\nDriver performance:")
	drivers := tablewriter.NewWriter(w)
	drivers.Header("Driver", "Bets", "Wins", "Win Rate", "P/L")
	for _, stats := range r.Drivers {
		drivers.Append(
			stats.Driver,
			fmt.Sprintf("%d", stats.Bets),
			fmt.Sprintf("%d", stats.Wins),
			fmt.Sprintf("%.1f%%", stats.WinRate*100),
			stats.Profit.StringFixed(2),
		)
	}
	drivers.Render()
}
