package tts

import "context"

// StubClient simulates synthesis for development and tests. Output is
// deterministic: the audio bytes echo the text and the duration follows
// the same chars-to-milliseconds rate the subtitle estimator uses.
type StubClient struct{}

// NewStubClient constructs StubClient.
func NewStubClient() *StubClient {
	return &StubClient{}
}

// Synthesize returns placeholder audio with a synthetic duration.
func (s *StubClient) Synthesize(ctx context.Context, text string) (Clip, error) {
	return Clip{
		Audio:      []byte("stub-audio:" + text),
		DurationMs: int64(len(text)) * 50,
	}, nil
}
