package speech

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestChunkPacksGreedily(t *testing.T) {
	text := "Welcome to the observatory where the night sky opens up above the valley"
	chunks := Chunk(text)

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		require.LessOrEqual(t, len(c), MaxChunkLen)
	}
	require.Equal(t, strings.Fields(text), strings.Fields(strings.Join(chunks, " ")))
}

func TestChunkShortTextSingleChunk(t *testing.T) {
	require.Equal(t, []string{"a b c d e f g h i j"}, Chunk("a b c d e f g h i j"))
}

func TestChunkOverlongWordGetsOwnChunk(t *testing.T) {
	long := strings.Repeat("x", 60)
	chunks := Chunk("short " + long + " tail")
	require.Equal(t, []string{"short", long, "tail"}, chunks)
}

func TestChunkEmptyText(t *testing.T) {
	require.Nil(t, Chunk("   "))
	require.Nil(t, Chunk(""))
}

func TestScheduleSplitsProportionally(t *testing.T) {
	chunks := []string{"a b c d e", "f g h i j"}
	total := 1000 * time.Millisecond

	timings := Schedule(chunks, total)
	require.Len(t, timings, 2)

	var sum time.Duration
	for _, tm := range timings {
		sum += tm.Display
		require.Equal(t, 5, tm.Words)
		require.InDelta(t, float64(500*time.Millisecond), float64(tm.Display), float64(time.Millisecond))
	}
	require.InDelta(t, float64(total), float64(sum), float64(2*time.Millisecond))

	require.Equal(t, InterChunkGap, timings[0].Gap)
	require.False(t, timings[0].HoldToEnd)
	require.Zero(t, timings[1].Gap)
	require.True(t, timings[1].HoldToEnd)
}

func TestScheduleWordProportionalUnevenChunks(t *testing.T) {
	timings := Schedule([]string{"one two three", "four"}, 1*time.Second)
	require.Len(t, timings, 2)
	require.Equal(t, 750*time.Millisecond, timings[0].Display)
	require.Equal(t, 250*time.Millisecond, timings[1].Display)
}

func TestEstimateDuration(t *testing.T) {
	require.Equal(t, 500*time.Millisecond, EstimateDuration("0123456789"))
	require.Zero(t, EstimateDuration(""))
}
