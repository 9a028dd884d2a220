package scene

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"avatarhost/internal/anim"
	"avatarhost/internal/assets"
	"avatarhost/internal/avatar"
	"avatarhost/internal/bridge"
)

// DefaultFrameInterval approximates a 30fps animation loop.
const DefaultFrameInterval = 33 * time.Millisecond

// Manifest lists the assets a scene needs. The avatar model is required;
// everything else degrades gracefully when it cannot be loaded.
type Manifest struct {
	Avatar      assets.Request
	TalkingClip *assets.Request
	IdleClip    *assets.Request
	Prop        *assets.Request
}

// Observer receives load outcomes as they happen, e.g. for persistence.
type Observer func(assets.Outcome)

// Runtime is the embedded rendering context: it bootstraps the scene over
// the asset resolver, owns the animation state, and talks to its host over
// one bridge connection. One Runtime serves one mount; a remount builds a
// fresh one.
type Runtime struct {
	logger        *slog.Logger
	resolver      *assets.Resolver
	conn          bridge.Conn
	observer      Observer
	frameInterval time.Duration

	controller *anim.Controller
	model      *avatar.Model
	targets    []*avatar.MorphTarget
	prop       *avatar.Model
}

// Option tweaks runtime construction.
type Option func(*Runtime)

// WithFrameInterval overrides the frame loop period (tests shorten it).
func WithFrameInterval(d time.Duration) Option {
	return func(r *Runtime) { r.frameInterval = d }
}

// WithObserver registers a load-outcome callback.
func WithObserver(fn Observer) Option {
	return func(r *Runtime) { r.observer = fn }
}

// NewRuntime wires a runtime to its bridge connection. Asset fetches go
// through the given HTTP client (nil for a default), and every resolver
// event is relayed across the bridge as a log message.
func NewRuntime(logger *slog.Logger, client *http.Client, conn bridge.Conn, opts ...Option) *Runtime {
	r := &Runtime{
		logger:        logger,
		conn:          conn,
		frameInterval: DefaultFrameInterval,
	}
	r.resolver = assets.NewResolver(client, r.logf)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run bootstraps the scene and, on success, drives the frame loop until the
// context is cancelled or the bridge closes. Only an avatar-model failure
// is fatal; it is reported as a bridge error and returned. Ready is emitted
// exactly once, after all loads have settled.
func (r *Runtime) Run(ctx context.Context, m Manifest) error {
	if err := r.bootstrap(ctx, m); err != nil {
		r.conn.Send(bridge.Errorf("scene bootstrap failed: %v", err))
		return err
	}

	r.conn.Send(bridge.Ready())
	r.logf("scene ready: %d morph targets", len(r.targets))

	return r.loop(ctx)
}

func (r *Runtime) bootstrap(ctx context.Context, m Manifest) error {
	// 1. avatar model, required
	var model *avatar.Model
	out := r.resolver.Load(ctx, m.Avatar, func(data []byte) error {
		decoded, err := avatar.DecodeModel(data)
		if err != nil {
			return err
		}
		model = decoded
		return nil
	})
	r.observe(out)
	if !out.Succeeded {
		return fmt.Errorf("load avatar: %w", out.Err)
	}
	r.model = model

	// 2. morph capability probe
	r.targets = avatar.ProbeMorphTargets(model)
	r.logf("avatar %q: %d driveable morph channels", model.Name, len(r.targets))

	// 3-4. clips, optional; idle starts playing as the resting state
	talking := r.loadClip(ctx, m.TalkingClip)
	idle := r.loadClip(ctx, m.IdleClip)

	// 5. platform prop, optional, never fatal
	if m.Prop != nil {
		out := r.resolver.Load(ctx, *m.Prop, func(data []byte) error {
			decoded, err := avatar.DecodeModel(data)
			if err != nil {
				return err
			}
			r.prop = decoded
			return nil
		})
		r.observe(out)
		if !out.Succeeded {
			r.logf("continuing without platform prop: %v", out.Err)
		}
	}

	r.controller = anim.NewController(idle, talking, r.targets)
	return nil
}

func (r *Runtime) loadClip(ctx context.Context, req *assets.Request) *avatar.Clip {
	if req == nil {
		return nil
	}
	var clip *avatar.Clip
	out := r.resolver.Load(ctx, *req, func(data []byte) error {
		decoded, err := avatar.DecodeClip(data)
		if err != nil {
			return err
		}
		clip = decoded
		return nil
	})
	r.observe(out)
	if !out.Succeeded {
		r.logf("continuing without clip %q: %v", req.Name, out.Err)
		return nil
	}
	return clip
}

// loop owns all animation state: inbound messages and frame ticks are
// serialized through one select, so morph targets see a single writer.
func (r *Runtime) loop(ctx context.Context) error {
	msgs := make(chan bridge.Message)
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			m, err := r.conn.Receive()
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

	ticker := time.NewTicker(r.frameInterval)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-closed:
			return nil
		case m := <-msgs:
			if m.Type == bridge.TypeAudioState {
				prev := r.controller.State()
				r.controller.SetAudioPlaying(m.IsPlaying)
				if now := r.controller.State(); now != prev {
					r.logf("animation state: %s -> %s", prev, now)
				}
			}
		case now := <-ticker.C:
			r.controller.Advance(now.Sub(last))
			last = now
		}
	}
}

// Controller exposes animation state for in-process renderers and tests.
func (r *Runtime) Controller() *anim.Controller {
	return r.controller
}

// Prop exposes the loaded platform prop, nil when absent.
func (r *Runtime) Prop() *avatar.Model {
	return r.prop
}

// MorphTargets exposes the probed morph set.
func (r *Runtime) MorphTargets() []*avatar.MorphTarget {
	return r.targets
}

func (r *Runtime) observe(out assets.Outcome) {
	if r.observer != nil {
		r.observer(out)
	}
}

// logf reports an event both to the local logger and across the bridge.
func (r *Runtime) logf(format string, args ...any) {
	r.logger.Info(fmt.Sprintf(format, args...))
	r.conn.Send(bridge.Logf(format, args...))
}
