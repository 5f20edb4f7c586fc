package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"testons-go/server/internal/metrics"
	"testons-go/server/internal/migration"
	"testons-go/server/internal/models"
	"testons-go/server/internal/repository"
	"testons-go/server/internal/sentiment"
	"testons-go/server/internal/telemetry"
)

// ResultsService loads sessions, repairs them against the current protocol
// and derives the report. Repairs are written back; concurrent edits resolve
// as last write wins.
type ResultsService struct {
	store   repository.Store
	log     *zap.Logger
	seed    *models.Protocol
	metrics *telemetry.Metrics
}

// NewResultsService builds the service. seed may be nil; when set it populates
// an empty store's protocol. tm may be nil.
func NewResultsService(store repository.Store, log *zap.Logger, seed *models.Protocol, tm *telemetry.Metrics) *ResultsService {
	return &ResultsService{store: store, log: log, seed: seed, metrics: tm}
}

// Protocol returns the stored protocol, seeding it on first use.
func (s *ResultsService) Protocol(ctx context.Context) (models.Protocol, error) {
	tasks, err := s.store.GetProtocolTasks(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		tasks, err = s.seedProtocol(ctx)
	}
	if err != nil {
		s.storeError("get_protocol")
		return models.Protocol{}, fmt.Errorf("failed to load protocol tasks: %w", err)
	}

	sections, err := s.store.GetProtocolSections(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		sections, err = []models.ProtocolSection{}, nil
	}
	if err != nil {
		s.storeError("get_sections")
		return models.Protocol{}, fmt.Errorf("failed to load protocol sections: %w", err)
	}

	ts, err := s.store.GetProtocolTimestamp(ctx)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.storeError("get_timestamp")
		return models.Protocol{}, fmt.Errorf("failed to load protocol timestamp: %w", err)
	}

	return models.Protocol{Tasks: tasks, Sections: sections, UpdatedAt: ts}, nil
}

func (s *ResultsService) seedProtocol(ctx context.Context) ([]models.TaskDefinition, error) {
	if s.seed == nil {
		return []models.TaskDefinition{}, nil
	}
	if err := s.store.SetProtocolTasks(ctx, s.seed.Tasks); err != nil {
		return nil, err
	}
	if err := s.store.SetProtocolSections(ctx, s.seed.Sections); err != nil {
		return nil, err
	}
	s.log.Info("Seeded protocol from file", zap.Int("tasks", len(s.seed.Tasks)), zap.Int("sections", len(s.seed.Sections)))
	return s.seed.Tasks, nil
}

// Sessions returns every session normalized against the protocol.
func (s *ResultsService) Sessions(ctx context.Context) ([]models.TestSession, models.Protocol, error) {
	protocol, err := s.Protocol(ctx)
	if err != nil {
		return nil, models.Protocol{}, err
	}
	stored, err := s.store.ListSessions(ctx)
	if err != nil {
		s.storeError("list_sessions")
		return nil, models.Protocol{}, fmt.Errorf("failed to list sessions: %w", err)
	}

	for _, session := range stored {
		if session.DroppedTasks > 0 {
			s.storeError("decode_task")
			s.log.Warn("Session has unreadable task entries", zap.String("sessionID", session.ID), zap.Int("dropped", session.DroppedTasks))
		}
	}

	res := migration.Normalize(stored, protocol.Tasks)
	if res.Changed {
		s.writeBack(ctx, res)
	}
	return res.Sessions, protocol, nil
}

// writeBack persists repaired sessions. A failed write is logged and retried on
// the next pass; the repaired copy is still served. Sessions that lost task
// entries while decoding are left untouched in the store.
func (s *ResultsService) writeBack(ctx context.Context, res migration.Result) {
	repaired := make(map[string]bool, len(res.Repaired))
	for _, id := range res.Repaired {
		repaired[id] = true
	}
	written := 0
	for _, session := range res.Sessions {
		if !repaired[session.ID] || session.DroppedTasks > 0 {
			continue
		}
		if err := s.store.SaveSession(ctx, session); err != nil {
			s.storeError("save_session")
			s.log.Error("Failed to write back normalized session", zap.String("sessionID", session.ID), zap.Error(err))
			continue
		}
		written++
	}
	if s.metrics != nil {
		s.metrics.SessionsRepaired.Add(float64(written))
	}
	s.log.Info("Normalized sessions written back", zap.Int("repaired", len(res.Repaired)), zap.Int("written", written))
}

// Statistics runs a full pass and returns the report.
func (s *ResultsService) Statistics(ctx context.Context) (metrics.Report, error) {
	start := time.Now()
	sessions, protocol, err := s.Sessions(ctx)
	if err != nil {
		return metrics.Report{}, err
	}
	report := metrics.ComputeStatistics(sessions, protocol.Tasks)
	if s.metrics != nil {
		s.metrics.RefreshDuration.Observe(time.Since(start).Seconds())
		s.metrics.SessionCount.Set(float64(report.SessionCount))
		s.metrics.SuccessRate.Set(report.SuccessRate)
	}
	return report, nil
}

// Verbatims returns the sentiment-bucketed quotes of every session.
func (s *ResultsService) Verbatims(ctx context.Context) (sentiment.Verbatims, error) {
	sessions, protocol, err := s.Sessions(ctx)
	if err != nil {
		return sentiment.Verbatims{}, err
	}
	return sentiment.CollectVerbatims(sessions, protocol.Tasks), nil
}

func (s *ResultsService) storeError(op string) {
	if s.metrics != nil {
		s.metrics.StoreErrors.WithLabelValues(op).Inc()
	}
}
