package evaluator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/grid-better/internal/config"
	"github.com/yourusername/grid-better/internal/ledger"
	"github.com/yourusername/grid-better/internal/loader"
	"github.com/yourusername/grid-better/internal/models"
)

const recommendationsCSV = `driver,odds,predicted_probability,expected_value,race_name
VER,1.8,0.65,0.17,Bahrain GP
HAM,3.2,0.25,-0.2,Bahrain GP
NOR,2.5,0.4,0.0,Saudi Arabia GP
`

type testHarness struct {
	orchestrator *Orchestrator
	store        *ledger.Store
	cfg          config.EvaluatorConfig
}

type recordingNotifier struct {
	records []ProcessingRecord
}

func (n *recordingNotifier) Notify(record ProcessingRecord) {
	n.records = append(n.records, record)
}

func newHarness(t *testing.T, options ...Option) *testHarness {
	t.Helper()

	root := t.TempDir()
	recsPath := filepath.Join(root, "recommendations.csv")
	require.NoError(t, os.WriteFile(recsPath, []byte(recommendationsCSV), 0o644))

	cfg := config.EvaluatorConfig{
		WatchDirectory:      filepath.Join(root, "incoming"),
		ArchiveDirectory:    filepath.Join(root, "archive"),
		RecommendationsFile: recsPath,
		LedgerFile:          filepath.Join(root, "ledger.csv"),
		SummaryFile:         filepath.Join(root, "summary.csv"),
		FilePatterns:        []string{"*results*.csv"},
		MinFileAgeSeconds:   0,
		PollIntervalSeconds: 60,
	}
	sim := config.SimulationConfig{BetAmount: 10, StartingCapital: 1000, SuccessThreshold: 3}

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	store := ledger.NewStore(cfg.LedgerFile, logger)
	csvLoader := loader.NewCSVLoader(logger)

	orchestrator, err := New(cfg, sim, store, csvLoader, csvLoader, logger, options...)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(cfg.WatchDirectory, 0o755))
	return &testHarness{orchestrator: orchestrator, store: store, cfg: cfg}
}

func (h *testHarness) dropFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(h.cfg.WatchDirectory, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func (h *testHarness) archivedFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(h.cfg.ArchiveDirectory)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func TestRunOnceProcessesResultFile(t *testing.T) {
	h := newHarness(t)
	h.dropFile(t, "bahrain_results.csv", `driver,actual_position,race_name
VER,1,Bahrain GP
HAM,5,Bahrain GP
`)

	count, err := h.orchestrator.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	bets, err := h.store.Read()
	require.NoError(t, err)
	require.Len(t, bets, 2)
	assert.Equal(t, "VER", bets[0].Driver)
	assert.Equal(t, models.OutcomeWin, bets[0].Outcome)
	assert.Equal(t, "8", bets[0].ProfitLoss.String())
	assert.Equal(t, models.OutcomeLoss, bets[1].Outcome)
	assert.Equal(t, "-10", bets[1].ProfitLoss.String())

	// file is archived out of the watch directory
	watch, err := os.ReadDir(h.cfg.WatchDirectory)
	require.NoError(t, err)
	assert.Empty(t, watch)
	archived := h.archivedFiles(t)
	require.Len(t, archived, 1)
	assert.Contains(t, archived[0], "bahrain_results.csv")

	// summary stream is regenerated
	_, err = os.Stat(h.cfg.SummaryFile)
	assert.NoError(t, err)
}

func TestRunOnceEmptyWatchDirectory(t *testing.T) {
	h := newHarness(t)

	count, err := h.orchestrator.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRunOnceIsIdempotent(t *testing.T) {
	h := newHarness(t)
	results := `driver,actual_position,race_name
VER,1,Bahrain GP
HAM,5,Bahrain GP
`
	h.dropFile(t, "bahrain_results.csv", results)

	count, err := h.orchestrator.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, count)
	first, err := h.store.Read()
	require.NoError(t, err)

	// re-dropping the same races is a no-op: archived, nothing appended
	h.dropFile(t, "bahrain_results.csv", results)
	count, err = h.orchestrator.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	second, err := h.store.Read()
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, h.archivedFiles(t), 2)
}

func TestRunOnceSkipsInvalidFileAndContinues(t *testing.T) {
	h := newHarness(t)
	h.dropFile(t, "a_results.csv", `driver,race_name
VER,Bahrain GP
`)
	h.dropFile(t, "b_results.csv", `driver,actual_position,race_name
NOR,2,Saudi Arabia GP
`)

	count, err := h.orchestrator.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// the invalid file stays put for inspection, the valid one is archived
	_, err = os.Stat(filepath.Join(h.cfg.WatchDirectory, "a_results.csv"))
	assert.NoError(t, err)
	archived := h.archivedFiles(t)
	require.Len(t, archived, 1)
	assert.Contains(t, archived[0], "b_results.csv")
}

func TestRunOncePartialRaceConsumption(t *testing.T) {
	h := newHarness(t)
	h.dropFile(t, "bahrain_results.csv", `driver,actual_position,race_name
VER,1,Bahrain GP
`)
	count, err := h.orchestrator.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, count)

	// a later file mixing a processed race with a fresh one only adds the
	// fresh race's bets
	h.dropFile(t, "weekend_results.csv", `driver,actual_position,race_name
VER,3,Bahrain GP
NOR,2,Saudi Arabia GP
`)
	count, err = h.orchestrator.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	races, err := h.store.ProcessedRaces()
	require.NoError(t, err)
	assert.Len(t, races, 2)

	bets, err := h.store.Read()
	require.NoError(t, err)
	require.Len(t, bets, 2)
	assert.Equal(t, "Saudi Arabia GP", bets[1].RaceName)
	assert.Equal(t, models.OutcomeWin, bets[1].Outcome)
}

func TestRunOnceDuplicateRecommendationsYieldOneLedgerEntry(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(h.cfg.RecommendationsFile, []byte(`driver,odds,predicted_probability,expected_value,race_name
VER,1.8,0.65,0.17,Bahrain GP
HAM,3.2,0.25,-0.2,Bahrain GP
VER,2.0,0.6,0.2,Bahrain GP
`), 0o644))
	h.dropFile(t, "bahrain_results.csv", `driver,actual_position,race_name
VER,1,Bahrain GP
HAM,5,Bahrain GP
`)

	count, err := h.orchestrator.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	bets, err := h.store.Read()
	require.NoError(t, err)

	// every (race, driver) pair appears at most once in the ledger
	pairs := make(map[models.BetKey]int)
	for _, bet := range bets {
		pairs[bet.Key()]++
	}
	require.Len(t, bets, 2)
	for pair, n := range pairs {
		assert.Equalf(t, 1, n, "pair %s/%s appears %d times", pair.RaceName, pair.Driver, n)
	}

	// the later VER row is the one settled
	assert.Equal(t, "VER", bets[0].Driver)
	assert.Equal(t, "2", bets[0].Odds.String())
	assert.Equal(t, "10", bets[0].ProfitLoss.String())
}

func TestRunOnceUnmatchedResultsProduceNoBets(t *testing.T) {
	h := newHarness(t)
	h.dropFile(t, "monaco_results.csv", `driver,actual_position,race_name
LEC,1,Monaco GP
`)

	count, err := h.orchestrator.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	bets, err := h.store.Read()
	require.NoError(t, err)
	assert.Empty(t, bets)
	assert.Len(t, h.archivedFiles(t), 1)
}

func TestRunOnceEmitsProcessingRecords(t *testing.T) {
	notifier := &recordingNotifier{}
	h := newHarness(t, WithNotifier(notifier))
	h.dropFile(t, "bahrain_results.csv", `driver,actual_position,race_name
VER,1,Bahrain GP
HAM,5,Bahrain GP
`)

	_, err := h.orchestrator.RunOnce(context.Background())
	require.NoError(t, err)

	require.Len(t, notifier.records, 1)
	record := notifier.records[0]
	assert.Equal(t, "Bahrain GP", record.RaceName)
	assert.Equal(t, 2, record.BetsProcessed)
	assert.Equal(t, "-2", record.ProfitDelta.String())
	assert.False(t, record.ProcessedAt.IsZero())
}

func TestRunOnceCorruptLedgerIsFatal(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(h.cfg.LedgerFile, []byte("garbage header\n"), 0o644))
	h.dropFile(t, "bahrain_results.csv", `driver,actual_position,race_name
VER,1,Bahrain GP
`)

	_, err := h.orchestrator.RunOnce(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrCorruptLedger)

	// no file is touched when the ledger cannot be trusted
	_, err = os.Stat(filepath.Join(h.cfg.WatchDirectory, "bahrain_results.csv"))
	assert.NoError(t, err)
}

func TestRunOnceHonoursCancellation(t *testing.T) {
	h := newHarness(t)
	h.dropFile(t, "bahrain_results.csv", `driver,actual_position,race_name
VER,1,Bahrain GP
`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	count, err := h.orchestrator.RunOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, count)

	bets, readErr := h.store.Read()
	require.NoError(t, readErr)
	assert.Empty(t, bets)
}

func TestNewRequiresCollaborators(t *testing.T) {
	logger := logrus.New()
	csvLoader := loader.NewCSVLoader(logger)
	store := ledger.NewStore(filepath.Join(t.TempDir(), "ledger.csv"), logger)

	_, err := New(config.EvaluatorConfig{}, config.SimulationConfig{}, nil, csvLoader, csvLoader, logger)
	assert.Error(t, err)

	_, err = New(config.EvaluatorConfig{}, config.SimulationConfig{}, store, nil, csvLoader, logger)
	assert.Error(t, err)

	_, err = New(config.EvaluatorConfig{}, config.SimulationConfig{}, store, csvLoader, nil, logger)
	assert.Error(t, err)
}
