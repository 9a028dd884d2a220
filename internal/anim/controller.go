package anim

import (
	"time"

	"avatarhost/internal/avatar"
)

// State is the logical animation state. Exactly one is active at a time,
// even when a clip is missing and the transition is morph-only.
type State int

const (
	StateIdle State = iota
	StateTalking
)

func (s State) String() string {
	if s == StateTalking {
		return "talking"
	}
	return "idle"
}

// Crossfade windows are asymmetric: starting to talk snaps in quickly,
// stopping reads calmer with a longer fade.
const (
	FadeInDuration  = 300 * time.Millisecond
	FadeOutDuration = 500 * time.Millisecond
)

// action is one playable clip with its current blend weight.
type action struct {
	clip    *avatar.Clip
	weight  float64
	playing bool
}

// Controller is the Idle/Talking state machine. It owns the clip blend
// weights and the lip-sync engine, and is driven from a single frame loop.
type Controller struct {
	state   State
	idle    *action
	talking *action
	lips    *LipSync

	fadeElapsed  float64
	fadeDuration float64
}

// NewController builds the state machine. Either clip may be nil; the
// corresponding transition then degrades to a pure morph-target effect.
// When an idle clip is present it starts playing immediately as the
// resting state.
func NewController(idle, talking *avatar.Clip, targets []*avatar.MorphTarget) *Controller {
	c := &Controller{
		state: StateIdle,
		lips:  NewLipSync(targets),
	}
	if idle != nil {
		c.idle = &action{clip: idle, weight: 1, playing: true}
	}
	if talking != nil {
		c.talking = &action{clip: talking}
	}
	return c
}

// SetAudioPlaying feeds the playback signal in. Transitions trigger on
// edges only; a signal that matches the current logical state is a no-op.
func (c *Controller) SetAudioPlaying(playing bool) {
	switch {
	case playing && c.state == StateIdle:
		c.state = StateTalking
		c.lips.Reset()
		c.beginFade(FadeInDuration, c.talking)
	case !playing && c.state == StateTalking:
		c.state = StateIdle
		c.beginFade(FadeOutDuration, c.idle)
	}
}

func (c *Controller) beginFade(window time.Duration, incoming *action) {
	c.fadeElapsed = 0
	c.fadeDuration = window.Seconds()
	if incoming != nil {
		incoming.playing = true
	}
}

// Advance steps the crossfade and the morph influences by one frame.
func (c *Controller) Advance(dt time.Duration) {
	c.advanceFade(dt.Seconds())
	if c.state == StateTalking {
		c.lips.Advance(dt.Seconds())
	} else {
		c.lips.Decay()
	}
}

func (c *Controller) advanceFade(dt float64) {
	if c.fadeDuration == 0 {
		return
	}
	c.fadeElapsed += dt
	progress := c.fadeElapsed / c.fadeDuration
	if progress >= 1 {
		progress = 1
		c.fadeDuration = 0
	}
	var in, out *action
	if c.state == StateTalking {
		in, out = c.talking, c.idle
	} else {
		in, out = c.idle, c.talking
	}
	if in != nil {
		in.weight = progress
	}
	if out != nil {
		out.weight = 1 - progress
		if progress == 1 {
			out.playing = false
		}
	}
}

// State reports the current logical state.
func (c *Controller) State() State {
	return c.state
}

// Weights reports the current idle and talking blend weights for the
// renderer. A missing clip reports zero.
func (c *Controller) Weights() (idle, talking float64) {
	if c.idle != nil {
		idle = c.idle.weight
	}
	if c.talking != nil {
		talking = c.talking.weight
	}
	return idle, talking
}

// Fading reports whether a crossfade is still in progress.
func (c *Controller) Fading() bool {
	return c.fadeDuration != 0
}

// Lips exposes the lip-sync engine for inspection.
func (c *Controller) Lips() *LipSync {
	return c.lips
}
