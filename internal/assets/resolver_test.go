package assets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type logRecorder struct {
	mu    sync.Mutex
	lines []string
}

func (l *logRecorder) logf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func (l *logRecorder) count(substr string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int
	for _, line := range l.lines {
		if strings.Contains(line, substr) {
			n++
		}
	}
	return n
}

func acceptAll([]byte) error { return nil }

func TestLoadStopsAtFirstSuccess(t *testing.T) {
	var hits []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/a":
			hits = append(hits, 0)
			w.Write([]byte("payload-a"))
		case "/b":
			hits = append(hits, 1)
			w.Write([]byte("payload-b"))
		}
	}))
	defer srv.Close()

	rec := &logRecorder{}
	r := NewResolver(srv.Client(), rec.logf)

	var got string
	out := r.Load(context.Background(), Request{
		Name:          "hero",
		Kind:          KindModel,
		CandidateURLs: []string{srv.URL + "/a", srv.URL + "/b"},
	}, func(data []byte) error {
		got = string(data)
		return nil
	})

	require.True(t, out.Succeeded)
	require.Equal(t, 0, out.SourceIndex)
	require.Equal(t, "payload-a", got)
	require.Equal(t, []int{0}, hits)
}

func TestLoadFallsBackToLastCandidate(t *testing.T) {
	var order []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, r.URL.Path)
		if r.URL.Path != "/third" {
			http.Error(w, "gone", http.StatusNotFound)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	r := NewResolver(srv.Client(), nil)
	out := r.Load(context.Background(), Request{
		Name:          "talk-clip",
		Kind:          KindAnimation,
		CandidateURLs: []string{srv.URL + "/first", srv.URL + "/second", srv.URL + "/third"},
	}, acceptAll)

	require.True(t, out.Succeeded)
	require.Equal(t, 2, out.SourceIndex)
	require.Equal(t, []string{"/first", "/second", "/third"}, order)
}

func TestLoadExhaustsAllCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	rec := &logRecorder{}
	r := NewResolver(srv.Client(), rec.logf)
	out := r.Load(context.Background(), Request{
		Name:          "hero",
		Kind:          KindModel,
		CandidateURLs: []string{srv.URL + "/a", srv.URL + "/b", srv.URL + "/c"},
	}, acceptAll)

	require.False(t, out.Succeeded)
	require.Equal(t, -1, out.SourceIndex)
	require.ErrorIs(t, out.Err, ErrAllSourcesExhausted)
	require.Equal(t, 3, rec.count("failed"))
}

func TestLoadTreatsDecodeFailureAsFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			w.Write([]byte("garbage"))
			return
		}
		w.Write([]byte("good"))
	}))
	defer srv.Close()

	r := NewResolver(srv.Client(), nil)
	out := r.Load(context.Background(), Request{
		Name:          "hero",
		Kind:          KindModel,
		CandidateURLs: []string{srv.URL + "/bad", srv.URL + "/good"},
	}, func(data []byte) error {
		if string(data) == "garbage" {
			return errors.New("unparseable")
		}
		return nil
	})

	require.True(t, out.Succeeded)
	require.Equal(t, 1, out.SourceIndex)
}

func TestLoadRejectsEmptyCandidates(t *testing.T) {
	r := NewResolver(nil, nil)
	out := r.Load(context.Background(), Request{Name: "hero"}, acceptAll)
	require.False(t, out.Succeeded)
	require.ErrorIs(t, out.Err, ErrNoCandidates)
}

func TestLoadLogsProgressWhenSizeKnown(t *testing.T) {
	payload := strings.Repeat("x", 64*1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", fmt.Sprint(len(payload)))
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	rec := &logRecorder{}
	r := NewResolver(srv.Client(), rec.logf)
	out := r.Load(context.Background(), Request{
		Name:          "hero",
		Kind:          KindModel,
		CandidateURLs: []string{srv.URL},
	}, acceptAll)

	require.True(t, out.Succeeded)
	require.Equal(t, 1, rec.count("100%"))
}
