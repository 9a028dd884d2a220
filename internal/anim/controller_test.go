package anim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"avatarhost/internal/avatar"
)

func clips() (idle, talking *avatar.Clip) {
	return &avatar.Clip{Name: "idle", DurationSeconds: 4},
		&avatar.Clip{Name: "talk", DurationSeconds: 2}
}

func TestControllerStartsIdleWithIdleClipPlaying(t *testing.T) {
	idle, talking := clips()
	c := NewController(idle, talking, nil)

	require.Equal(t, StateIdle, c.State())
	idleW, talkingW := c.Weights()
	require.Equal(t, 1.0, idleW)
	require.Zero(t, talkingW)
}

func TestCrossfadeToTalkingCompletesOverWindow(t *testing.T) {
	idle, talking := clips()
	c := NewController(idle, talking, mouthTargets())

	c.SetAudioPlaying(true)
	require.Equal(t, StateTalking, c.State())

	c.Advance(150 * time.Millisecond)
	idleW, talkingW := c.Weights()
	require.InDelta(t, 0.5, talkingW, 1e-9)
	require.InDelta(t, 0.5, idleW, 1e-9)
	require.True(t, c.Fading())

	c.Advance(150 * time.Millisecond)
	idleW, talkingW = c.Weights()
	require.Equal(t, 1.0, talkingW)
	require.Zero(t, idleW)
	require.False(t, c.Fading())
}

func TestStopFadeIsSlower(t *testing.T) {
	idle, talking := clips()
	c := NewController(idle, talking, nil)

	c.SetAudioPlaying(true)
	c.Advance(FadeInDuration)

	c.SetAudioPlaying(false)
	require.Equal(t, StateIdle, c.State())

	c.Advance(250 * time.Millisecond)
	idleW, talkingW := c.Weights()
	require.InDelta(t, 0.5, idleW, 1e-9)
	require.InDelta(t, 0.5, talkingW, 1e-9)

	c.Advance(250 * time.Millisecond)
	idleW, talkingW = c.Weights()
	require.Equal(t, 1.0, idleW)
	require.Zero(t, talkingW)
}

func TestReentrantTriggerIsNoOp(t *testing.T) {
	idle, talking := clips()
	c := NewController(idle, talking, mouthTargets())

	c.SetAudioPlaying(true)
	c.Advance(FadeInDuration)
	require.False(t, c.Fading())

	// second rising edge while already talking must not restart the fade
	// or reset the talking-time accumulator
	c.Advance(100 * time.Millisecond)
	elapsed := c.Lips().Elapsed()
	c.SetAudioPlaying(true)
	require.Equal(t, StateTalking, c.State())
	require.False(t, c.Fading())
	require.Equal(t, elapsed, c.Lips().Elapsed())
}

func TestTalkingResetsAccumulatorOnEachStart(t *testing.T) {
	c := NewController(nil, nil, mouthTargets())

	c.SetAudioPlaying(true)
	c.Advance(400 * time.Millisecond)
	require.Positive(t, c.Lips().Elapsed())

	c.SetAudioPlaying(false)
	c.SetAudioPlaying(true)
	require.Zero(t, c.Lips().Elapsed())
}

func TestMissingClipsStillTrackLogicalState(t *testing.T) {
	targets := mouthTargets()
	c := NewController(nil, nil, targets)

	c.SetAudioPlaying(true)
	c.Advance(50 * time.Millisecond)
	require.Equal(t, StateTalking, c.State())
	require.Positive(t, targets[0].Influence)

	idleW, talkingW := c.Weights()
	require.Zero(t, idleW)
	require.Zero(t, talkingW)

	c.SetAudioPlaying(false)
	peak := targets[0].Influence
	c.Advance(33 * time.Millisecond)
	require.Less(t, targets[0].Influence, peak)
}
