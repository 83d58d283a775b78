// Package metrics provides the centralized Prometheus metrics registry for
// the evaluation pipeline.
package metrics

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	FilesScannedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "grid_better",
		Name:      "files_scanned_total",
		Help:      "Total number of candidate result files discovered",
	})
	FilesRejectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "grid_better",
		Name:      "files_rejected_total",
		Help:      "Total number of result files rejected during validation",
	})
	FilesArchivedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "grid_better",
		Name:      "files_archived_total",
		Help:      "Total number of result files moved to the archive",
	})
	RacesProcessedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "grid_better",
		Name:      "races_processed_total",
		Help:      "Total number of races simulated and persisted",
	})
	BetsSimulatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "grid_better",
		Name:      "bets_simulated_total",
		Help:      "Total number of simulated bets appended to the ledger",
	})
	ValidationErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "grid_better",
		Name:      "validation_errors_total",
		Help:      "Total number of validation errors across files and rows",
	})
)

// Gauge metrics
var (
	CurrentCapital = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "grid_better",
		Name:      "current_capital",
		Help:      "Current simulated capital in currency units",
	})
	CumulativeProfit = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "grid_better",
		Name:      "cumulative_profit",
		Help:      "Cumulative simulated profit across all processed races",
	})
	LastRunTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "grid_better",
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix timestamp of the last completed evaluation run",
	})
)

// Histogram metrics
var (
	RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "grid_better",
		Name:      "run_duration_seconds",
		Help:      "Duration of single evaluation runs in seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(FilesScannedTotal)
		registry.MustRegister(FilesRejectedTotal)
		registry.MustRegister(FilesArchivedTotal)
		registry.MustRegister(RacesProcessedTotal)
		registry.MustRegister(BetsSimulatedTotal)
		registry.MustRegister(ValidationErrorsTotal)

		registry.MustRegister(CurrentCapital)
		registry.MustRegister(CumulativeProfit)
		registry.MustRegister(LastRunTimestamp)

		registry.MustRegister(RunDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// Serve exposes the metrics handler plus a liveness endpoint on addr. It
// blocks until ctx is cancelled or the listener fails, so callers run it in a
// goroutine. Cancellation drains in-flight scrapes before returning.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
