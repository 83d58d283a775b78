// Package config provides configuration management for the Grid Better evaluator.
package config

import (
	"time"
)

// Config represents the complete resolved application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Evaluator  EvaluatorConfig  `mapstructure:"evaluator" validate:"required"`
	Simulation SimulationConfig `mapstructure:"simulation" validate:"required"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// AppConfig represents application-level configuration.
type AppConfig struct {
	Name     string `mapstructure:"name" validate:"required"`
	LogLevel string `mapstructure:"log_level" validate:"required,loglevel"`
}

// EvaluatorConfig configures file discovery, matching inputs and output
// locations for the evaluation orchestrator.
type EvaluatorConfig struct {
	WatchDirectory      string   `mapstructure:"watch_directory" validate:"required"`
	ArchiveDirectory    string   `mapstructure:"archive_directory" validate:"required"`
	RecommendationsFile string   `mapstructure:"recommendations_file" validate:"required"`
	LedgerFile          string   `mapstructure:"ledger_file" validate:"required"`
	SummaryFile         string   `mapstructure:"summary_file" validate:"required"`
	ChartFile           string   `mapstructure:"chart_file"`
	FilePatterns        []string `mapstructure:"file_patterns" validate:"required,min=1"`
	MinFileAgeSeconds   int      `mapstructure:"min_file_age_seconds" validate:"gte=0"`
	PollIntervalSeconds int      `mapstructure:"poll_interval_seconds" validate:"gt=0"`
}

// SimulationConfig configures the bet simulation parameters.
type SimulationConfig struct {
	BetAmount        float64 `mapstructure:"bet_amount" validate:"gt=0"`
	StartingCapital  float64 `mapstructure:"starting_capital" validate:"gt=0"`
	SuccessThreshold int     `mapstructure:"success_threshold" validate:"gt=0"`
}

// MetricsConfig configures the optional Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address" validate:"required_if=Enabled true"`
}

// MinFileAge returns the minimum last-modified age before a candidate file is
// considered fully written.
func (c EvaluatorConfig) MinFileAge() time.Duration {
	return time.Duration(c.MinFileAgeSeconds) * time.Second
}

// PollInterval returns the continuous-mode check interval.
func (c EvaluatorConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}
