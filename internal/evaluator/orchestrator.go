// Package evaluator discovers, validates and drives simulation of newly
// arriving race result files.
package evaluator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/grid-better/internal/chart"
	"github.com/yourusername/grid-better/internal/config"
	"github.com/yourusername/grid-better/internal/ledger"
	"github.com/yourusername/grid-better/internal/metrics"
	"github.com/yourusername/grid-better/internal/models"
	"github.com/yourusername/grid-better/internal/simulation"
)

// RecommendationSource yields the current betting recommendations.
type RecommendationSource interface {
	LoadRecommendations(path string) ([]models.Recommendation, error)
}

// ResultLoader parses a race result batch from a candidate file.
type ResultLoader interface {
	LoadRaceResults(path string) ([]models.RaceResult, error)
}

// LedgerStore is the persistence contract the orchestrator depends on.
type LedgerStore interface {
	Append(bets []models.SimulatedBet) error
	Read() ([]models.SimulatedBet, error)
	ProcessedRaces() (map[string]struct{}, error)
}

// Orchestrator runs the per-file state machine:
// SCAN -> VALIDATE -> MATCH -> SIMULATE -> PERSIST -> ARCHIVE.
// One candidate file is processed fully before the next; exactly one
// orchestrator instance may run against a given ledger at a time.
type Orchestrator struct {
	cfg      config.EvaluatorConfig
	sim      config.SimulationConfig
	engine   *simulation.Engine
	store    LedgerStore
	recs     RecommendationSource
	results  ResultLoader
	scanner  *FileScanner
	notifier Notifier
	logger   *logrus.Logger
	clock    func() time.Time
}

// Option customizes orchestrator construction.
type Option func(*Orchestrator)

// WithClock injects a clock, used by tests.
func WithClock(clock func() time.Time) Option {
	return func(o *Orchestrator) { o.clock = clock }
}

// WithNotifier replaces the default log notifier.
func WithNotifier(notifier Notifier) Option {
	return func(o *Orchestrator) { o.notifier = notifier }
}

// WithScanner replaces the default file scanner.
func WithScanner(scanner *FileScanner) Option {
	return func(o *Orchestrator) { o.scanner = scanner }
}

// New creates an orchestrator over the given collaborators.
func New(cfg config.EvaluatorConfig, sim config.SimulationConfig, store LedgerStore, recs RecommendationSource, results ResultLoader, logger *logrus.Logger, options ...Option) (*Orchestrator, error) {
	if store == nil {
		return nil, fmt.Errorf("ledger store is required")
	}
	if recs == nil {
		return nil, fmt.Errorf("recommendation source is required")
	}
	if results == nil {
		return nil, fmt.Errorf("result loader is required")
	}
	if logger == nil {
		logger = logrus.New()
	}

	o := &Orchestrator{
		cfg:     cfg,
		sim:     sim,
		engine:  simulation.NewEngine(logger),
		store:   store,
		recs:    recs,
		results: results,
		logger:  logger,
		clock:   time.Now,
	}
	for _, option := range options {
		option(o)
	}
	if o.scanner == nil {
		o.scanner = NewFileScanner(cfg.WatchDirectory, cfg.FilePatterns, cfg.MinFileAge(), o.clock, logger)
	}
	if o.notifier == nil {
		o.notifier = NewLogNotifier(logger)
	}

	return o, nil
}

// RunOnce executes one full scan pass and returns the number of races
// simulated. Per-file errors are logged and scanning continues; ledger
// failures are fatal to the run and leave the offending source file
// unarchived for the next run to retry.
func (o *Orchestrator) RunOnce(ctx context.Context) (int, error) {
	started := o.clock()
	defer func() {
		metrics.RunDuration.Observe(o.clock().Sub(started).Seconds())
		metrics.LastRunTimestamp.Set(float64(o.clock().Unix()))
	}()

	// The processed-race set is derived from the ledger on every run; a
	// corrupt ledger must fail here, before any file is touched.
	processedRaces, err := o.store.ProcessedRaces()
	if err != nil {
		return 0, fmt.Errorf("failed to load processed races: %w", err)
	}

	candidates, err := o.scanner.Scan()
	if err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		o.logger.Debug("No new race result files found")
		return 0, nil
	}

	metrics.FilesScannedTotal.Add(float64(len(candidates)))
	o.logger.WithField("candidates", len(candidates)).Info("Found candidate result files")

	racesProcessed := 0
	for _, candidate := range candidates {
		// Cancellation takes effect between files, never mid-file.
		if err := ctx.Err(); err != nil {
			return racesProcessed, err
		}

		count, err := o.processFile(candidate, processedRaces)
		racesProcessed += count
		if err != nil {
			if models.IsValidationError(err) {
				metrics.FilesRejectedTotal.Inc()
				metrics.ValidationErrorsTotal.Inc()
				o.logger.WithField("file", candidate.Name).Errorf("Rejected result file: %v", err)
				continue
			}
			if models.IsPersistenceError(err) {
				return racesProcessed, err
			}
			o.logger.WithField("file", candidate.Name).Errorf("Failed to process result file: %v", err)
			continue
		}
	}

	return racesProcessed, nil
}

// processFile takes one candidate through VALIDATE -> MATCH -> SIMULATE ->
// PERSIST -> ARCHIVE. It returns the number of races simulated from the file.
func (o *Orchestrator) processFile(candidate Candidate, processedRaces map[string]struct{}) (int, error) {
	o.logger.WithField("file", candidate.Name).Info("Processing race result file")

	// VALIDATE
	results, err := o.results.LoadRaceResults(candidate.Path)
	if err != nil {
		return 0, err
	}

	// MATCH: group by race, drop races already in the ledger. Re-dropping a
	// processed file is a no-op, not an error.
	raceOrder, resultsByRace := groupByRace(results)
	newRaces := make([]string, 0, len(raceOrder))
	for _, race := range raceOrder {
		if _, done := processedRaces[race]; done {
			o.logger.WithFields(logrus.Fields{"file": candidate.Name, "race": race}).Info("Race already processed, skipping rows")
			continue
		}
		newRaces = append(newRaces, race)
	}

	if len(newRaces) == 0 {
		// Fully handled: everything in the file is already in the ledger.
		if err := o.archive(candidate); err != nil {
			return 0, err
		}
		return 0, nil
	}

	recommendations, err := o.recs.LoadRecommendations(o.cfg.RecommendationsFile)
	if err != nil {
		return 0, fmt.Errorf("failed to load recommendations: %w", err)
	}
	recsByRace := groupRecommendations(recommendations)

	// SIMULATE each new race against its recommendations.
	stake := decimal.NewFromFloat(o.sim.BetAmount)
	var (
		bets    []models.SimulatedBet
		records []ProcessingRecord
	)
	for _, race := range newRaces {
		raceBets, summary, stats, err := o.engine.Simulate(recsByRace[race], resultsByRace[race], o.sim.SuccessThreshold, stake)
		if err != nil {
			return 0, err
		}
		if stats.SkippedInvalidOdds > 0 {
			metrics.ValidationErrorsTotal.Add(float64(stats.SkippedInvalidOdds))
		}
		o.logger.WithFields(logrus.Fields{
			"race":      race,
			"bets":      len(raceBets),
			"unmatched": stats.UnmatchedRecommendations,
			"profit":    summary.RaceProfit.StringFixed(2),
		}).Info("Simulated race")

		bets = append(bets, raceBets...)
		records = append(records, ProcessingRecord{
			ID:            uuid.New(),
			RaceName:      race,
			BetsProcessed: len(raceBets),
			ProfitDelta:   summary.RaceProfit,
			ProcessedAt:   o.clock(),
		})
	}

	// PERSIST: append to the ledger and regenerate the derived outputs. Any
	// storage failure leaves the file unarchived so the next run retries;
	// already-appended races are then skipped by the idempotency filter.
	if len(bets) > 0 {
		if err := o.persist(bets); err != nil {
			return 0, err
		}
		for _, race := range newRaces {
			processedRaces[race] = struct{}{}
		}
		metrics.BetsSimulatedTotal.Add(float64(len(bets)))
	}
	metrics.RacesProcessedTotal.Add(float64(len(newRaces)))

	for _, record := range records {
		o.notifier.Notify(record)
	}

	// ARCHIVE
	if err := o.archive(candidate); err != nil {
		return len(newRaces), err
	}

	return len(newRaces), nil
}

func (o *Orchestrator) persist(bets []models.SimulatedBet) error {
	if err := o.store.Append(bets); err != nil {
		return models.NewPersistenceError("append", err)
	}

	all, err := o.store.Read()
	if err != nil {
		return models.NewPersistenceError("read", err)
	}

	startingCapital := decimal.NewFromFloat(o.sim.StartingCapital)
	summaries, series := ledger.BuildSummaries(all, startingCapital)

	if err := ledger.WriteSummaries(o.cfg.SummaryFile, summaries); err != nil {
		return models.NewPersistenceError("summary", err)
	}
	if err := chart.WriteCapitalChart(o.cfg.ChartFile, series, startingCapital); err != nil {
		return models.NewPersistenceError("chart", err)
	}

	if len(series) > 0 {
		last := series[len(series)-1]
		capital, _ := last.TotalCapital.Float64()
		profit, _ := last.CumulativeProfit.Float64()
		metrics.CurrentCapital.Set(capital)
		metrics.CumulativeProfit.Set(profit)
	}

	return nil
}

// archive moves a handled file out of the watch directory so subsequent scans
// never reconsider it. The archived name carries the processing timestamp.
func (o *Orchestrator) archive(candidate Candidate) error {
	if err := os.MkdirAll(o.cfg.ArchiveDirectory, 0o755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	archivedName := fmt.Sprintf("%s_%s", o.clock().Format("20060102_150405"), candidate.Name)
	archivedPath := filepath.Join(o.cfg.ArchiveDirectory, archivedName)
	if err := os.Rename(candidate.Path, archivedPath); err != nil {
		return fmt.Errorf("failed to archive %s: %w", candidate.Name, err)
	}

	metrics.FilesArchivedTotal.Inc()
	o.logger.WithFields(logrus.Fields{"file": candidate.Name, "archived": archivedPath}).Info("Archived result file")
	return nil
}

// groupByRace splits results by race, preserving first-appearance order.
func groupByRace(results []models.RaceResult) ([]string, map[string][]models.RaceResult) {
	order := make([]string, 0)
	byRace := make(map[string][]models.RaceResult)
	for _, result := range results {
		if _, seen := byRace[result.RaceName]; !seen {
			order = append(order, result.RaceName)
		}
		byRace[result.RaceName] = append(byRace[result.RaceName], result)
	}
	return order, byRace
}

func groupRecommendations(recs []models.Recommendation) map[string][]models.Recommendation {
	byRace := make(map[string][]models.Recommendation)
	for _, rec := range recs {
		byRace[rec.RaceName] = append(byRace[rec.RaceName], rec)
	}
	return byRace
}
