package tts

import (
	"context"
	"errors"
)

// ErrEmptyAudio signals a synthesis call that produced no audio bytes.
var ErrEmptyAudio = errors.New("tts returned empty audio")

// Clip is one synthesized utterance. DurationMs is metadata the provider
// may or may not supply; zero means unknown and callers fall back to an
// estimate.
type Clip struct {
	Audio      []byte
	DurationMs int64
}

// Client synthesizes narration text into audio.
type Client interface {
	Synthesize(ctx context.Context, text string) (Clip, error)
}
