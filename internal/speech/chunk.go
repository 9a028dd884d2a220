package speech

import (
	"strings"
	"time"
)

const (
	// MaxChunkLen bounds one on-screen subtitle chunk.
	MaxChunkLen = 50

	// InterChunkGap is the blank beat between consecutive chunks.
	InterChunkGap = 100 * time.Millisecond

	// estimateMsPerChar drives the fallback duration model when the audio
	// subsystem cannot report a measured duration.
	estimateMsPerChar = 50
)

// Chunk splits narration text into display chunks by greedy word packing:
// words are appended until the next one would push the chunk past
// MaxChunkLen. A single word longer than the bound gets its own chunk.
func Chunk(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var b strings.Builder
	for _, word := range words {
		if b.Len() > 0 && b.Len()+1+len(word) > MaxChunkLen {
			chunks = append(chunks, b.String())
			b.Reset()
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(word)
	}
	if b.Len() > 0 {
		chunks = append(chunks, b.String())
	}
	return chunks
}

// Timing is one chunk with its display pacing. The final chunk carries
// HoldToEnd instead of a gap: it stays on screen until audio completion.
type Timing struct {
	Text      string
	Words     int
	Display   time.Duration
	Gap       time.Duration
	HoldToEnd bool
}

// Schedule paces chunks against a total audio duration: each chunk shows
// for total·(w/W) where w is its word count and W the overall word count.
func Schedule(chunks []string, total time.Duration) []Timing {
	if len(chunks) == 0 {
		return nil
	}

	var totalWords int
	counts := make([]int, len(chunks))
	for i, c := range chunks {
		counts[i] = len(strings.Fields(c))
		totalWords += counts[i]
	}

	timings := make([]Timing, len(chunks))
	for i, c := range chunks {
		t := Timing{
			Text:    c,
			Words:   counts[i],
			Display: time.Duration(float64(total) * float64(counts[i]) / float64(totalWords)),
		}
		if i == len(chunks)-1 {
			t.HoldToEnd = true
		} else {
			t.Gap = InterChunkGap
		}
		timings[i] = t
	}
	return timings
}

// EstimateDuration approximates how long synthesized audio for the text
// would run, for when measured duration metadata is unavailable.
func EstimateDuration(text string) time.Duration {
	return time.Duration(len(text)) * estimateMsPerChar * time.Millisecond
}
