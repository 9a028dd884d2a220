package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"avatarhost/internal/bridge"
)

const (
	// DefaultMaxAttempts bounds remounts for one logical session.
	DefaultMaxAttempts = 3

	// DefaultReadyTimeout is how long the host waits for a ready message
	// before treating the session as ready anyway. Availability over
	// correctness: a degraded session beats a stuck one.
	DefaultReadyTimeout = 8 * time.Second
)

// Status is what a caller should show for the session.
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	// StatusStillLoading means retry attempts are exhausted; the caller
	// keeps a persistent loading indicator instead of a hard error.
	StatusStillLoading Status = "still_loading"
)

// MountFunc creates a fresh render runtime and returns the host side of
// its bridge. Called once at start and once per retry; tearing down the
// previous connection is the only cancellation the system has.
type MountFunc func(ctx context.Context) (bridge.Conn, error)

// Host supervises one mounted render context: it consumes runtime
// messages, relays them to the caller, and remounts after fatal errors up
// to a session-wide attempt bound.
type Host struct {
	logger       *slog.Logger
	mount        MountFunc
	maxAttempts  int
	readyTimeout time.Duration
	onReady      func()
	onError      func(error)
	forward      func(bridge.Message)

	mu       sync.Mutex
	conn     bridge.Conn
	attempts int
	status   Status
	notified bool
}

// Option configures a Host.
type Option func(*Host)

// WithMaxAttempts overrides the remount bound.
func WithMaxAttempts(n int) Option {
	return func(h *Host) { h.maxAttempts = n }
}

// WithReadyTimeout overrides the ready fallback window.
func WithReadyTimeout(d time.Duration) Option {
	return func(h *Host) { h.readyTimeout = d }
}

// WithReadyHandler registers the readiness callback; delivered at most once
// per session, whether from a real ready message or the fallback timer.
func WithReadyHandler(fn func()) Option {
	return func(h *Host) { h.onReady = fn }
}

// WithErrorHandler registers the callback that receives errors once the
// attempt bound is exhausted.
func WithErrorHandler(fn func(error)) Option {
	return func(h *Host) { h.onError = fn }
}

// WithForward registers a sink relaying every runtime message outward,
// e.g. to a websocket peer.
func WithForward(fn func(bridge.Message)) Option {
	return func(h *Host) { h.forward = fn }
}

// New builds a supervisor around a mount factory.
func New(logger *slog.Logger, mount MountFunc, opts ...Option) *Host {
	h := &Host{
		logger:       logger,
		mount:        mount,
		maxAttempts:  DefaultMaxAttempts,
		readyTimeout: DefaultReadyTimeout,
		status:       StatusLoading,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run mounts the runtime and supervises it until the context is cancelled.
// The attempt counter persists across remounts; it never resets within one
// session.
func (h *Host) Run(ctx context.Context) error {
	readyFallback := time.After(h.readyTimeout)

	for {
		conn, err := h.mount(ctx)
		if err != nil {
			return fmt.Errorf("mount render context: %w", err)
		}
		h.setConn(conn)

		remount := h.serve(ctx, conn, readyFallback)
		conn.Close()
		if !remount {
			return nil
		}
		h.logger.Info("remounting render context",
			slog.Int("attempt", h.Attempts()),
			slog.Int("max_attempts", h.maxAttempts),
		)
	}
}

// serve consumes one mount's messages. Returns true when a remount should
// follow.
func (h *Host) serve(ctx context.Context, conn bridge.Conn, readyFallback <-chan time.Time) bool {
	msgs := make(chan bridge.Message)
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			m, err := conn.Receive()
			if err != nil {
				return
			}
			select {
			case msgs <- m:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-closed:
			return false
		case <-readyFallback:
			h.logger.Warn("no ready message within timeout, treating session as ready")
			h.deliverReady()
		case m := <-msgs:
			if remount, done := h.handle(m); done {
				return remount
			}
		}
	}
}

// handle processes one runtime message; done reports whether the current
// mount should stop being served.
func (h *Host) handle(m bridge.Message) (remount, done bool) {
	switch m.Type {
	case bridge.TypeReady:
		h.mu.Lock()
		h.status = StatusReady
		h.mu.Unlock()
		h.deliverReady()
		h.relay(m)
	case bridge.TypeLog:
		h.logger.Info("render context", slog.String("event", m.Message))
		h.relay(m)
	case bridge.TypeError:
		h.relay(m)
		h.mu.Lock()
		if h.attempts < h.maxAttempts {
			h.attempts++
			h.mu.Unlock()
			return true, true
		}
		h.status = StatusStillLoading
		h.mu.Unlock()
		h.logger.Error("render context failed after retries", slog.String("error", m.Message))
		if h.onError != nil {
			h.onError(errors.New(m.Message))
		}
	}
	return false, false
}

func (h *Host) deliverReady() {
	h.mu.Lock()
	if h.notified {
		h.mu.Unlock()
		return
	}
	h.notified = true
	h.mu.Unlock()
	if h.onReady != nil {
		h.onReady()
	}
}

func (h *Host) relay(m bridge.Message) {
	if h.forward != nil {
		h.forward(m)
	}
}

func (h *Host) setConn(conn bridge.Conn) {
	h.mu.Lock()
	h.conn = conn
	h.mu.Unlock()
}

// SetAudioPlaying forwards the playback signal to the current mount.
func (h *Host) SetAudioPlaying(playing bool, samples []float64) error {
	h.mu.Lock()
	conn := h.conn
	h.mu.Unlock()
	if conn == nil {
		return errors.New("no mounted render context")
	}
	return conn.Send(bridge.AudioState(playing, samples))
}

// Attempts reports how many remounts have been used.
func (h *Host) Attempts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attempts
}

// Status reports what the caller should display.
func (h *Host) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}
