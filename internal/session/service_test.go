package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"avatarhost/internal/assets"
)

type fakeRepo struct {
	sessions map[uuid.UUID]Session
	reports  []LoadReport
	addErr   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{sessions: map[uuid.UUID]Session{}}
}

func (f *fakeRepo) Create(_ context.Context, s Session) error {
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return s, nil
}

func (f *fakeRepo) AddLoadReport(_ context.Context, r LoadReport) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.reports = append(f.reports, r)
	return nil
}

func (f *fakeRepo) ListLoadReports(_ context.Context, id uuid.UUID) ([]LoadReport, error) {
	var out []LoadReport
	for _, r := range f.reports {
		if r.SessionID == id {
			out = append(out, r)
		}
	}
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServiceCreateAndReport(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(testLogger(), repo)

	sess, err := svc.Create(context.Background(), Config{ShowPlatform: true, CameraDistance: 3, CameraHeight: 1.2})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, sess.ID)

	svc.RecordOutcome(context.Background(), sess.ID, assets.Outcome{
		Name: "avatar", Succeeded: true, SourceIndex: 0,
	})
	svc.RecordOutcome(context.Background(), sess.ID, assets.Outcome{
		Name: "talk-clip", SourceIndex: -1, Err: errors.New("all asset sources exhausted"),
	})

	report, err := svc.Report(context.Background(), sess.ID)
	require.NoError(t, err)
	require.Len(t, report.Loads, 2)
	require.True(t, report.Loads[0].Succeeded)
	require.Equal(t, "all asset sources exhausted", report.Loads[1].Error)
}

func TestServiceRecordOutcomeSwallowsStorageFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.addErr = errors.New("db down")
	svc := NewService(testLogger(), repo)

	sess, err := svc.Create(context.Background(), Config{})
	require.NoError(t, err)

	// must not panic or surface: reporting is best-effort
	svc.RecordOutcome(context.Background(), sess.ID, assets.Outcome{Name: "avatar"})

	report, err := svc.Report(context.Background(), sess.ID)
	require.NoError(t, err)
	require.Empty(t, report.Loads)
}

func TestServiceReportUnknownSession(t *testing.T) {
	svc := NewService(testLogger(), newFakeRepo())
	_, err := svc.Report(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}
