// Package main provides the race evaluation CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/grid-better/internal/config"
	"github.com/yourusername/grid-better/internal/evaluator"
	"github.com/yourusername/grid-better/internal/ledger"
	"github.com/yourusername/grid-better/internal/loader"
	applogger "github.com/yourusername/grid-better/internal/logger"
	"github.com/yourusername/grid-better/internal/metrics"
	"github.com/yourusername/grid-better/internal/models"
	"github.com/yourusername/grid-better/internal/scheduler"
	"github.com/yourusername/grid-better/internal/simulation"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile      string
	intervalSeconds int
	recsFile        string
	resultsFile     string

	log   *logrus.Logger
	cfg   *config.Config
	store *ledger.Store
	orch  *evaluator.Orchestrator
	sched *scheduler.Scheduler
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config/config.yaml", "Path to configuration file")
	watchCmd.Flags().IntVarP(&intervalSeconds, "interval", "i", 0, "Poll interval in seconds (overrides config)")
	simulateCmd.Flags().StringVar(&recsFile, "recommendations", "", "Recommendations file (overrides config)")
	simulateCmd.Flags().StringVar(&resultsFile, "results", "", "Race results file")
	_ = simulateCmd.MarkFlagRequired("results")

	rootCmd.AddCommand(checkCmd, watchCmd, reportCmd, simulateCmd, versionCmd)
}

var rootCmd = &cobra.Command{
	Use:   "evaluator",
	Short: "Automated race bet evaluation pipeline",
	Long: `Watches a drop directory for race result files, simulates the outcome of
previously issued betting recommendations and maintains an append-only
performance ledger.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	SilenceUsage: true,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run a single check for new race result files",
	RunE: func(cmd *cobra.Command, args []string) error {
		processed, err := sched.RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Single check completed. Processed %d races.\n", processed)
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Continuously monitor the watch directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if cfg.Metrics.Enabled {
			go func() {
				if err := metrics.Serve(ctx, cfg.Metrics.Address); err != nil {
					log.Errorf("Metrics listener failed: %v", err)
				}
			}()
		}

		interval := cfg.Evaluator.PollInterval()
		if intervalSeconds > 0 {
			interval = time.Duration(intervalSeconds) * time.Second
		}
		return sched.Start(ctx, interval)
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the performance report derived from the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		bets, err := store.Read()
		if err != nil {
			return err
		}
		if len(bets) == 0 {
			fmt.Println("Ledger is empty, nothing to report.")
			return nil
		}
		report := simulation.BuildReport(bets, decimal.NewFromFloat(cfg.Simulation.BetAmount))
		report.RenderConsole(os.Stdout)
		return nil
	},
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate recommendations against a results file without touching the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSimulate(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("evaluator %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}

func setup() error {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	log = applogger.NewLogger(cfg.App.LogLevel)
	metrics.InitRegistry()

	store = ledger.NewStore(cfg.Evaluator.LedgerFile, log)
	csvLoader := loader.NewCSVLoader(log)
	cachedRecs := loader.NewCachedRecommendationLoader(csvLoader, 5*time.Minute)

	orch, err = evaluator.New(cfg.Evaluator, cfg.Simulation, store, cachedRecs, csvLoader, log)
	if err != nil {
		return err
	}
	sched = scheduler.NewScheduler(orch, log)
	return nil
}

// runSimulate runs the engine over full recommendation and result files,
// race by race, and prints the performance report. The ledger is not touched.
func runSimulate(_ context.Context) error {
	csvLoader := loader.NewCSVLoader(log)

	recsPath := cfg.Evaluator.RecommendationsFile
	if recsFile != "" {
		recsPath = recsFile
	}
	recommendations, err := csvLoader.LoadRecommendations(recsPath)
	if err != nil {
		return err
	}
	if len(recommendations) == 0 {
		return fmt.Errorf("%w: %s", models.ErrNoRecommendations, recsPath)
	}
	results, err := csvLoader.LoadRaceResults(resultsFile)
	if err != nil {
		return err
	}

	order := make([]string, 0)
	resultsByRace := make(map[string][]models.RaceResult)
	for _, result := range results {
		if _, seen := resultsByRace[result.RaceName]; !seen {
			order = append(order, result.RaceName)
		}
		resultsByRace[result.RaceName] = append(resultsByRace[result.RaceName], result)
	}
	recsByRace := make(map[string][]models.Recommendation)
	for _, rec := range recommendations {
		recsByRace[rec.RaceName] = append(recsByRace[rec.RaceName], rec)
	}

	engine := simulation.NewEngine(log)
	stake := decimal.NewFromFloat(cfg.Simulation.BetAmount)

	var bets []models.SimulatedBet
	for _, race := range order {
		raceBets, summary, _, err := engine.Simulate(recsByRace[race], resultsByRace[race], cfg.Simulation.SuccessThreshold, stake)
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"race": race, "bets": len(raceBets), "profit": summary.RaceProfit.StringFixed(2)}).Info("Simulated race")
		bets = append(bets, raceBets...)
	}

	report := simulation.BuildReport(bets, stake)
	report.RenderConsole(os.Stdout)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
