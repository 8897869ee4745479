package usecase

import (
	"context"
	"log/slog"
	"time"

	"NewsReconciler/internal/ports"
)

// Scheduler wires the daily driver with the reconciliation pipeline. Fatal
// pipeline errors are surfaced through Wait so the process can terminate
// instead of silently retrying tomorrow with the same malformed data.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	logger   *slog.Logger
	fatal    chan error
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		driver:   driver,
		pipeline: pipeline,
		logger:   logger,
		fatal:    make(chan error, 1),
	}
}

// Start registers the pipeline with the provided scheduler driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if err := s.pipeline.ProcessAll(ctx); err != nil {
			select {
			case s.fatal <- err:
			default:
			}
			return
		}
		s.logger.Info("daily run completed", "trigger", trigger)
	}

	return s.driver.Start(ctx, job)
}

// Wait blocks until a run fails fatally or the context ends.
func (s *Scheduler) Wait(ctx context.Context) error {
	select {
	case err := <-s.fatal:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Stop(ctx)
}
