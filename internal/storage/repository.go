package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"avatarhost/internal/session"
)

// SessionRepository persists sessions and load reports in PostgreSQL.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new repository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a session row.
func (r *SessionRepository) Create(ctx context.Context, s session.Session) error {
	const insertSession = `
		INSERT INTO sessions (
			id, show_platform, camera_distance, camera_height, created_at
		) VALUES ($1,$2,$3,$4,$5)
	`
	if _, err := r.db.ExecContext(ctx, insertSession,
		s.ID,
		s.Config.ShowPlatform,
		s.Config.CameraDistance,
		s.Config.CameraHeight,
		s.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetByID fetches one session.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (session.Session, error) {
	const query = `
		SELECT id, show_platform, camera_distance, camera_height, created_at
		FROM sessions
		WHERE id = $1
	`
	var s session.Session
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID,
		&s.Config.ShowPlatform,
		&s.Config.CameraDistance,
		&s.Config.CameraHeight,
		&s.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Session{}, session.ErrNotFound
	}
	if err != nil {
		return session.Session{}, fmt.Errorf("select session: %w", err)
	}
	return s, nil
}

// AddLoadReport appends one asset load outcome.
func (r *SessionRepository) AddLoadReport(ctx context.Context, report session.LoadReport) error {
	const insertReport = `
		INSERT INTO load_reports (
			session_id, asset_name, succeeded, source_index, error, created_at
		) VALUES ($1,$2,$3,$4,$5,$6)
	`
	if _, err := r.db.ExecContext(ctx, insertReport,
		report.SessionID,
		report.AssetName,
		report.Succeeded,
		report.SourceIndex,
		report.Error,
		report.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert load report: %w", err)
	}
	return nil
}

// ListLoadReports returns a session's load history in insertion order.
func (r *SessionRepository) ListLoadReports(ctx context.Context, sessionID uuid.UUID) ([]session.LoadReport, error) {
	const query = `
		SELECT session_id, asset_name, succeeded, source_index, error, created_at
		FROM load_reports
		WHERE session_id = $1
		ORDER BY created_at, asset_name
	`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("select load reports: %w", err)
	}
	defer rows.Close()

	var reports []session.LoadReport
	for rows.Next() {
		var rep session.LoadReport
		if err := rows.Scan(
			&rep.SessionID,
			&rep.AssetName,
			&rep.Succeeded,
			&rep.SourceIndex,
			&rep.Error,
			&rep.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan load report: %w", err)
		}
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate load reports: %w", err)
	}
	return reports, nil
}
