// Package scheduler drives the evaluation orchestrator once or on a fixed
// interval. It holds no domain state.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Runner is one full evaluation pass returning the count of races processed.
type Runner interface {
	RunOnce(ctx context.Context) (int, error)
}

// Scheduler wraps a Runner with single-check and continuous modes.
type Scheduler struct {
	cron      *cron.Cron
	runner    Runner
	logger    *logrus.Logger
	mu        sync.RWMutex
	isRunning bool
}

// NewScheduler creates a scheduler around the given runner.
func NewScheduler(runner Runner, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Scheduler{runner: runner, logger: logger}
}

// RunOnce performs a single check and returns the number of races processed.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	return s.runner.RunOnce(ctx)
}

// Start runs continuous monitoring: an immediate check, then one check per
// interval until ctx is cancelled. A fatal run error is logged and the next
// tick retries; cancellation takes effect between runs, so an in-flight file
// is never left half-processed.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is already running")
	}
	if interval < time.Second {
		interval = time.Second
	}

	cronLogger := cron.PrintfLogger(s.logger)
	s.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger)),
	)

	job := func() {
		if ctx.Err() != nil {
			return
		}
		processed, err := s.runner.RunOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Errorf("Evaluation run failed, retrying next interval: %v", err)
			return
		}
		if processed > 0 {
			s.logger.WithField("races", processed).Info("Evaluation run completed")
		}
	}

	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), job); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to schedule evaluation job: %w", err)
	}

	s.isRunning = true
	s.mu.Unlock()

	s.logger.WithField("interval", interval).Info("Starting continuous monitoring")

	// First check runs immediately; cron fires the rest.
	job()
	s.cron.Start()

	<-ctx.Done()
	<-s.cron.Stop().Done()

	s.mu.Lock()
	s.isRunning = false
	s.mu.Unlock()

	s.logger.Info("Continuous monitoring stopped")
	return nil
}

// IsRunning reports whether continuous mode is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}
