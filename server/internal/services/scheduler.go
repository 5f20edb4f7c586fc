package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Scheduler periodically re-runs normalization and aggregation so repairs reach
// the store without waiting for a reader.
type Scheduler struct {
	log      *zap.Logger
	results  *ResultsService
	interval time.Duration
}

func NewScheduler(log *zap.Logger, results *ResultsService, interval time.Duration) *Scheduler {
	return &Scheduler{
		log:      log,
		results:  results,
		interval: interval,
	}
}

// Start runs the scheduler in a goroutine until ctx is cancelled. A zero
// interval disables it. The returned channel closes when the loop exits.
func (s *Scheduler) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	if s.interval <= 0 {
		s.log.Info("Refresh scheduler disabled")
		close(done)
		return done
	}

	s.log.Info("Starting refresh scheduler...", zap.Duration("interval", s.interval))
	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.log.Info("Refresh scheduler stopped")
				return
			case <-ticker.C:
				s.runRefresh(ctx)
			}
		}
	}()
	return done
}

func (s *Scheduler) runRefresh(ctx context.Context) {
	report, err := s.results.Statistics(ctx)
	if err != nil {
		s.log.Error("Refresh failed", zap.Error(err))
		return
	}

	fields := []zap.Field{
		zap.Int("sessions", report.SessionCount),
		zap.Float64("successRate", report.SuccessRate),
	}
	if report.AutonomyRate != nil {
		fields = append(fields, zap.Float64("autonomyRate", *report.AutonomyRate))
	}
	if report.AdoptionScore != nil {
		fields = append(fields, zap.Float64("adoptionScore", *report.AdoptionScore))
	}
	s.log.Debug("Refreshed results", fields...)
}
