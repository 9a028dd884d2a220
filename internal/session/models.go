package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound signals a missing session.
var ErrNotFound = errors.New("session not found")

// Config is the caller-supplied scene configuration for one session.
type Config struct {
	ShowPlatform   bool
	CameraDistance float64
	CameraHeight   float64
}

// Session is one avatar presentation session. Nothing about the loaded
// assets themselves is stored, only what happened while loading them.
type Session struct {
	ID        uuid.UUID
	Config    Config
	CreatedAt time.Time
}

// LoadReport records the outcome of one asset resolution within a session.
type LoadReport struct {
	SessionID   uuid.UUID
	AssetName   string
	Succeeded   bool
	SourceIndex int
	Error       string
	CreatedAt   time.Time
}

// Report is the session summary handed back to callers.
type Report struct {
	Session Session
	Loads   []LoadReport
}

// Repository defines the persistence layer contract.
type Repository interface {
	Create(ctx context.Context, s Session) error
	GetByID(ctx context.Context, id uuid.UUID) (Session, error)
	AddLoadReport(ctx context.Context, r LoadReport) error
	ListLoadReports(ctx context.Context, sessionID uuid.UUID) ([]LoadReport, error)
}
