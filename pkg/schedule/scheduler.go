// Package schedule runs the engine repeatedly on a cron schedule, for
// long-lived deployments (e.g. a nightly trim of a mounted phone folder).
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Runner is one engine pass. Errors are logged, not fatal: a failed nightly
// run should not kill the daemon.
type Runner func(ctx context.Context) error

// Scheduler triggers a Runner on a cron expression.
type Scheduler struct {
	expr    string
	run     Runner
	cron    *cron.Cron
	logger  *slog.Logger
	mu      sync.Mutex
	running bool
}

// New creates a scheduler for the given standard 5-field cron expression.
func New(expr string, run Runner) *Scheduler {
	return &Scheduler{
		expr:   expr,
		run:    run,
		cron:   cron.New(),
		logger: slog.Default().With("component", "schedule"),
	}
}

// Start validates the expression and begins scheduling. The scheduler stops
// itself when ctx is cancelled.
//
// Common expressions:
//   - "0 3 * * *"   - daily at 3 AM
//   - "0 */6 * * *" - every 6 hours
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if _, err := cron.ParseStandard(s.expr); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.expr, err)
	}
	if _, err := s.cron.AddFunc(s.expr, func() { s.runOnce(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule run: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("scheduler started", "schedule", s.expr)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop halts scheduling. A run already in progress finishes on its own.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.cron.Stop()
	s.running = false
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runOnce(ctx context.Context) {
	s.logger.Info("starting scheduled run")
	if err := s.run(ctx); err != nil {
		s.logger.Error("scheduled run failed", "error", err)
		return
	}
	s.logger.Info("scheduled run completed")
}
