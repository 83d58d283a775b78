package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "grid-better", cfg.App.Name)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, "data/incoming_results", cfg.Evaluator.WatchDirectory)
	assert.Equal(t, "data/archive", cfg.Evaluator.ArchiveDirectory)
	assert.Equal(t, []string{"*results*.csv", "*race_results*.csv", "*actual*.csv"}, cfg.Evaluator.FilePatterns)
	assert.Equal(t, 30, cfg.Evaluator.MinFileAgeSeconds)
	assert.Equal(t, 10.0, cfg.Simulation.BetAmount)
	assert.Equal(t, 1000.0, cfg.Simulation.StartingCapital)
	assert.Equal(t, 3, cfg.Simulation.SuccessThreshold)
	assert.False(t, cfg.Metrics.Enabled)

	require.NoError(t, Validate(cfg))
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  log_level: debug
evaluator:
  watch_directory: /tmp/incoming
  min_file_age_seconds: 5
simulation:
  bet_amount: 25.5
  success_threshold: 1
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "/tmp/incoming", cfg.Evaluator.WatchDirectory)
	assert.Equal(t, 25.5, cfg.Simulation.BetAmount)
	assert.Equal(t, 1, cfg.Simulation.SuccessThreshold)
	// unset keys keep their defaults
	assert.Equal(t, "data/archive", cfg.Evaluator.ArchiveDirectory)
	assert.Equal(t, 1000.0, cfg.Simulation.StartingCapital)

	assert.Equal(t, 5*time.Second, cfg.Evaluator.MinFileAge())
}

func TestLoadExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("DATA_ROOT", "/srv/grid")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
evaluator:
  watch_directory: ${DATA_ROOT}/incoming
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/grid/incoming", cfg.Evaluator.WatchDirectory)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func validConfig() *Config {
	return &Config{
		App: AppConfig{Name: "grid-better", LogLevel: "info"},
		Evaluator: EvaluatorConfig{
			WatchDirectory:      "data/incoming_results",
			ArchiveDirectory:    "data/archive",
			RecommendationsFile: "data/live/betting_recommendations.csv",
			LedgerFile:          "data/processed/bet_simulation_log.csv",
			SummaryFile:         "data/processed/bet_simulation_log_summary.csv",
			FilePatterns:        []string{"*results*.csv"},
			MinFileAgeSeconds:   30,
			PollIntervalSeconds: 300,
		},
		Simulation: SimulationConfig{BetAmount: 10, StartingCapital: 1000, SuccessThreshold: 3},
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.App.LogLevel = "verbose" }},
		{"zero bet amount", func(c *Config) { c.Simulation.BetAmount = 0 }},
		{"negative starting capital", func(c *Config) { c.Simulation.StartingCapital = -100 }},
		{"zero success threshold", func(c *Config) { c.Simulation.SuccessThreshold = 0 }},
		{"no file patterns", func(c *Config) { c.Evaluator.FilePatterns = nil }},
		{"pattern with path separator", func(c *Config) { c.Evaluator.FilePatterns = []string{"sub/*.csv"} }},
		{"missing ledger file", func(c *Config) { c.Evaluator.LedgerFile = "" }},
		{"zero poll interval", func(c *Config) { c.Evaluator.PollIntervalSeconds = 0 }},
		{"watch equals archive", func(c *Config) {
			c.Evaluator.ArchiveDirectory = c.Evaluator.WatchDirectory
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	assert.NoError(t, Validate(validConfig()))
}
