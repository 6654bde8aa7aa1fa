package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evolve/internal/domain"
)

// wordTokenizer maps each whitespace-separated word to one token.
type wordTokenizer struct {
	vocab map[string]int
	words []string
}

func newWordTokenizer() *wordTokenizer {
	return &wordTokenizer{vocab: map[string]int{}}
}

func (w *wordTokenizer) Encode(text string) []int {
	fields := strings.Fields(text)
	out := make([]int, len(fields))
	for i, f := range fields {
		id, ok := w.vocab[f]
		if !ok {
			id = len(w.words)
			w.vocab[f] = id
			w.words = append(w.words, f)
		}
		out[i] = id
	}
	return out
}

func (w *wordTokenizer) Decode(tokens []int) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = w.words[t]
	}
	return strings.Join(parts, " ")
}

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "w" + strings.Repeat("x", i%7) + string(rune('a'+i%26))
	}
	return strings.Join(parts, " ")
}

func TestNewTokenChunker_RejectsBadWindow(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
	}{
		{"overlap equals size", 10, 10},
		{"overlap exceeds size", 10, 11},
		{"negative overlap", 10, -1},
		{"zero size", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTokenChunker(newWordTokenizer(), tt.size, tt.overlap)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
		})
	}
}

func TestTokenChunker_Empty(t *testing.T) {
	c, err := NewTokenChunker(newWordTokenizer(), 4, 1)
	require.NoError(t, err)
	assert.Empty(t, c.Split(""))
	assert.Empty(t, c.Split("   \n\t"))
	assert.Empty(t, c.Chunk(""))
}

func TestTokenChunker_ShortTextIsOneChunk(t *testing.T) {
	c, err := NewTokenChunker(newWordTokenizer(), 1000, 200)
	require.NoError(t, err)

	got := c.Split("root chakra grounding survival safety")
	require.Len(t, got, 1)
	assert.Equal(t, "root chakra grounding survival safety", got[0])
}

func TestTokenChunker_CountFormula(t *testing.T) {
	tok := newWordTokenizer()
	tests := []struct {
		size, overlap, n int
	}{
		{4, 2, 10},
		{4, 2, 5},
		{4, 0, 8},
		{4, 0, 9},
		{5, 1, 1},
		{5, 3, 2},
		{10, 9, 25},
		{1000, 200, 2500},
	}
	for _, tt := range tests {
		c, err := NewTokenChunker(tok, tt.size, tt.overlap)
		require.NoError(t, err)
		got := c.Split(words(tt.n))
		step := tt.size - tt.overlap
		want := (tt.n - tt.overlap + step - 1) / step
		if want < 1 {
			want = 1
		}
		assert.Len(t, got, want, "size=%d overlap=%d n=%d", tt.size, tt.overlap, tt.n)
		assert.Equal(t, want, c.Count(tt.n))
	}
}

func TestTokenChunker_NoTrailingOverlapOnlyChunk(t *testing.T) {
	c, err := NewTokenChunker(newWordTokenizer(), 10, 4)
	require.NoError(t, err)

	windows := c.Windows(words(10))
	require.Len(t, windows, 1)
	assert.Len(t, windows[0], 10)

	windows = c.Windows(words(16))
	require.Len(t, windows, 2)
	assert.Len(t, windows[1], 10)
}

func TestTokenChunker_AdjacentWindowsShareOverlap(t *testing.T) {
	c, err := NewTokenChunker(newWordTokenizer(), 6, 2)
	require.NoError(t, err)

	windows := c.Windows(words(23))
	require.Greater(t, len(windows), 2)
	for i := 0; i+1 < len(windows); i++ {
		prev, next := windows[i], windows[i+1]
		assert.Len(t, prev, 6)
		assert.Equal(t, prev[len(prev)-2:], next[:2], "window %d", i)
	}
	last := windows[len(windows)-1]
	assert.LessOrEqual(t, len(last), 6)
}

func TestTokenChunker_ChunkMetadata(t *testing.T) {
	c, err := NewTokenChunker(newWordTokenizer(), 3, 1)
	require.NoError(t, err)

	chunks := c.Chunk("a b c d e f g")
	require.Len(t, chunks, 3)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
		assert.Equal(t, 3, ch.Total)
	}
	assert.Equal(t, "a b c", chunks[0].Text)
	assert.Equal(t, "c d e", chunks[1].Text)
	assert.Equal(t, "e f g", chunks[2].Text)
}
