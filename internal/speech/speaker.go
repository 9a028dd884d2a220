package speech

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"avatarhost/internal/tts"
)

// syntheticCompletionDelay stands in for the audio-finished event when
// playback cannot report one (synthesis failed or duration is estimated
// with no real player attached).
const syntheticCompletionDelay = 500 * time.Millisecond

// Utterance is one spoken narration: synthesized audio plus the subtitle
// schedule paced against its duration. It owns its completion event and a
// guard that makes subtitle pacing start at most once, however the
// duration-ready and completion callbacks race.
type Utterance struct {
	Text      string
	Audio     []byte
	Duration  time.Duration
	Estimated bool
	Chunks    []Timing

	mu      sync.Mutex
	started bool
	done    chan struct{}
	once    sync.Once
}

// Done is closed when audio playback finishes (or its synthetic stand-in
// fires).
func (u *Utterance) Done() <-chan struct{} {
	return u.done
}

// Complete signals the end of audio playback. Safe to call more than once
// and from any exit path.
func (u *Utterance) Complete() {
	u.once.Do(func() { close(u.done) })
}

// start flips the at-most-once pacing guard.
func (u *Utterance) start() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.started {
		return false
	}
	u.started = true
	return true
}

// Pace displays the subtitle chunks on schedule: each chunk shows for its
// computed share of the audio duration followed by a short gap, and the
// final chunk holds until completion. Returns false when pacing had
// already started for this utterance.
func (u *Utterance) Pace(ctx context.Context, display func(string)) bool {
	if !u.start() {
		return false
	}

	for _, chunk := range u.Chunks {
		display(chunk.Text)
		if chunk.HoldToEnd {
			select {
			case <-u.done:
			case <-ctx.Done():
			}
			return true
		}
		select {
		case <-time.After(chunk.Display):
		case <-ctx.Done():
			return true
		}
		if chunk.Gap > 0 {
			select {
			case <-time.After(chunk.Gap):
			case <-ctx.Done():
				return true
			}
		}
	}
	return true
}

// Speaker turns narration text into paced utterances. It keeps exactly one
// utterance live: speaking again releases the previous one's audio handle
// by completing it first.
type Speaker struct {
	logger *slog.Logger
	tts    tts.Client

	mu      sync.Mutex
	current *Utterance

	completionDelay time.Duration
}

// SpeakerOption tweaks speaker behavior.
type SpeakerOption func(*Speaker)

// WithCompletionDelay overrides the synthetic completion delay (tests
// shorten it).
func WithCompletionDelay(d time.Duration) SpeakerOption {
	return func(s *Speaker) { s.completionDelay = d }
}

// NewSpeaker wires a speaker to a TTS client.
func NewSpeaker(logger *slog.Logger, client tts.Client, opts ...SpeakerOption) *Speaker {
	s := &Speaker{
		logger:          logger,
		tts:             client,
		completionDelay: syntheticCompletionDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Speak synthesizes the text and builds its subtitle schedule. Synthesis
// failure degrades to estimated pacing with a synthetic completion signal;
// the subtitles are always paced against whichever duration source exists.
func (s *Speaker) Speak(ctx context.Context, text string) (*Utterance, error) {
	u := &Utterance{
		Text: text,
		done: make(chan struct{}),
	}

	clip, err := s.tts.Synthesize(ctx, text)
	switch {
	case err != nil:
		s.logger.Warn("tts synthesis failed, pacing against estimate",
			slog.String("error", err.Error()))
		u.Duration = EstimateDuration(text)
		u.Estimated = true
	case clip.DurationMs <= 0:
		u.Audio = clip.Audio
		u.Duration = EstimateDuration(text)
		u.Estimated = true
	default:
		u.Audio = clip.Audio
		u.Duration = time.Duration(clip.DurationMs) * time.Millisecond
	}

	u.Chunks = Schedule(Chunk(text), u.Duration)

	if u.Estimated {
		// no real playback completion will arrive
		time.AfterFunc(s.completionDelay, u.Complete)
	}

	s.mu.Lock()
	if s.current != nil {
		// release the previous audio handle before owning a new one
		s.current.Complete()
	}
	s.current = u
	s.mu.Unlock()

	s.logger.Info("utterance prepared",
		slog.Int("chunks", len(u.Chunks)),
		slog.Bool("estimated", u.Estimated),
		slog.String("duration", fmt.Sprint(u.Duration)),
	)
	return u, nil
}

// Current reports the live utterance, if any.
func (s *Speaker) Current() *Utterance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
