// Package config provides configuration management for the Grid Better evaluator.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load reads and parses the configuration from file and environment variables.
// Environment variable placeholders in the YAML file (${VAR_NAME}) are
// expanded, and missing optional keys fall back to defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v.SetConfigType("yaml")
	v.SetEnvPrefix("GRID_BETTER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	data, err := os.ReadFile(configPath)
	if err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	// If the file doesn't exist, continue with defaults and environment variables

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "grid-better")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("evaluator.watch_directory", "data/incoming_results")
	v.SetDefault("evaluator.archive_directory", "data/archive")
	v.SetDefault("evaluator.recommendations_file", "data/live/betting_recommendations.csv")
	v.SetDefault("evaluator.ledger_file", "data/processed/bet_simulation_log.csv")
	v.SetDefault("evaluator.summary_file", "data/processed/bet_simulation_log_summary.csv")
	v.SetDefault("evaluator.chart_file", "data/processed/profit_over_time.html")
	v.SetDefault("evaluator.file_patterns", []string{"*results*.csv", "*race_results*.csv", "*actual*.csv"})
	v.SetDefault("evaluator.min_file_age_seconds", 30)
	v.SetDefault("evaluator.poll_interval_seconds", 300)
	v.SetDefault("simulation.bet_amount", 10.0)
	v.SetDefault("simulation.starting_capital", 1000.0)
	v.SetDefault("simulation.success_threshold", 3)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.address", ":9090")
}
