package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"avatarhost/internal/assets"
)

// Service manages session lifecycle and load reporting.
type Service struct {
	logger *slog.Logger
	repo   Repository
}

// NewService constructs a Service.
func NewService(logger *slog.Logger, repo Repository) *Service {
	return &Service{logger: logger, repo: repo}
}

// Create registers a new session with its scene configuration.
func (s *Service) Create(ctx context.Context, cfg Config) (Session, error) {
	sess := Session{
		ID:        uuid.New(),
		Config:    cfg,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return Session{}, fmt.Errorf("persist session: %w", err)
	}
	s.logger.Info("session created", slog.String("session_id", sess.ID.String()))
	return sess, nil
}

// RecordOutcome persists one asset load outcome for the session. Reporting
// is best-effort: a storage failure is logged, never surfaced to the scene.
func (s *Service) RecordOutcome(ctx context.Context, id uuid.UUID, out assets.Outcome) {
	report := LoadReport{
		SessionID:   id,
		AssetName:   out.Name,
		Succeeded:   out.Succeeded,
		SourceIndex: out.SourceIndex,
		CreatedAt:   time.Now().UTC(),
	}
	if out.Err != nil {
		report.Error = out.Err.Error()
	}
	if err := s.repo.AddLoadReport(ctx, report); err != nil {
		s.logger.Warn("failed to record load outcome",
			slog.String("session_id", id.String()),
			slog.String("asset", out.Name),
			slog.String("error", err.Error()),
		)
	}
}

// Get fetches a single session by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Session, error) {
	return s.repo.GetByID(ctx, id)
}

// Report fetches the session and its load history.
func (s *Service) Report(ctx context.Context, id uuid.UUID) (Report, error) {
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Report{}, err
	}
	loads, err := s.repo.ListLoadReports(ctx, id)
	if err != nil {
		return Report{}, fmt.Errorf("list load reports: %w", err)
	}
	return Report{Session: sess, Loads: loads}, nil
}
