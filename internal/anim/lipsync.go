package anim

import (
	"math"

	"avatarhost/internal/avatar"
)

// Lip sync is a procedural approximation: influence is a pure function of
// elapsed talking time, never of the audio signal, so playback is fully
// reproducible. Smile channels track the mouth at reduced strength.
const (
	influenceGain  = 0.7
	smileScale     = 0.3
	restingDecay   = 0.9
	primaryRate    = 8.0
	secondaryRate  = 12.0
	secondaryPhase = 1.0
	secondaryGain  = 0.3
	accentRate     = 4.0
	accentGain     = 0.2
)

// Influence maps elapsed talking time in seconds to a mouth-open influence
// in [0,1].
func Influence(t float64) float64 {
	primary := 0.5 + 0.5*math.Sin(primaryRate*t)
	secondary := secondaryGain * math.Sin(secondaryRate*t+secondaryPhase)
	accent := accentGain * math.Sin(accentRate*t)
	v := influenceGain * (primary + secondary + accent)
	return math.Min(1, math.Max(0, v))
}

// LipSync drives the morph targets discovered at avatar load time. It is
// owned by the frame loop goroutine; nothing else mutates the targets.
type LipSync struct {
	targets []*avatar.MorphTarget
	elapsed float64
}

// NewLipSync wires the engine to a probed morph target set. An empty set is
// fine; Advance and Decay become no-ops.
func NewLipSync(targets []*avatar.MorphTarget) *LipSync {
	return &LipSync{targets: targets}
}

// Reset zeroes the talking-time accumulator. Called on every transition
// into the talking state.
func (l *LipSync) Reset() {
	l.elapsed = 0
}

// Advance accumulates talking time and writes the current influence into
// every driveable channel. Called once per frame while talking.
func (l *LipSync) Advance(dt float64) {
	l.elapsed += dt
	v := Influence(l.elapsed)
	for _, t := range l.targets {
		switch t.Role {
		case avatar.RoleSmile:
			t.Influence = smileScale * v
		default:
			t.Influence = v
		}
	}
}

// Decay relaxes every influence toward zero. Called once per frame while
// not talking; the value approaches but never exactly reaches zero.
func (l *LipSync) Decay() {
	for _, t := range l.targets {
		t.Influence *= restingDecay
	}
}

// Elapsed reports accumulated talking time in seconds.
func (l *LipSync) Elapsed() float64 {
	return l.elapsed
}
