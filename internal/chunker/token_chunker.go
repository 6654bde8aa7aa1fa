package chunker

import (
	"evolve/internal/domain"
)

// TokenChunker splits text into overlapping windows of model tokens.
// Each window is decoded back to text on its own, so whitespace at window
// edges may be renormalised; adjacent windows share exactly overlap tokens.
type TokenChunker struct {
	tokenizer domain.Tokenizer
	chunkSize int
	overlap   int
}

// NewTokenChunker validates the window parameters. overlap must satisfy
// 0 <= overlap < chunkSize, otherwise the window would never advance.
func NewTokenChunker(tokenizer domain.Tokenizer, chunkSize, overlap int) (*TokenChunker, error) {
	if tokenizer == nil {
		return nil, domain.NewError(domain.KindInvalidConfig, "tokenizer is required", nil)
	}
	if chunkSize <= 0 {
		return nil, domain.NewError(domain.KindInvalidConfig, "chunk size must be positive", nil).
			WithDetail("chunk_size", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, domain.NewError(domain.KindInvalidConfig, "overlap must be in [0, chunk size)", nil).
			WithDetail("chunk_size", chunkSize).
			WithDetail("overlap", overlap)
	}
	return &TokenChunker{tokenizer: tokenizer, chunkSize: chunkSize, overlap: overlap}, nil
}

// Windows returns the token windows of text. The last window is the first
// one that reaches the end of the token stream, so no window is wholly
// contained in its predecessor.
func (c *TokenChunker) Windows(text string) [][]int {
	tokens := c.tokenizer.Encode(text)
	if len(tokens) == 0 {
		return nil
	}
	step := c.chunkSize - c.overlap
	var windows [][]int
	for start := 0; start < len(tokens); start += step {
		end := start + c.chunkSize
		if end > len(tokens) {
			end = len(tokens)
		}
		windows = append(windows, tokens[start:end])
		// Stopping here, rather than at start >= len(tokens), drops the
		// trailing overlap-only chunk; this keeps the chunk count formula.
		if end == len(tokens) {
			break
		}
	}
	return windows
}

// Count returns how many chunks Split would produce for n tokens:
// 0 for n == 0, otherwise max(1, ceil((n-overlap)/(size-overlap))).
func (c *TokenChunker) Count(n int) int {
	if n <= 0 {
		return 0
	}
	if n <= c.chunkSize {
		return 1
	}
	step := c.chunkSize - c.overlap
	return (n - c.overlap + step - 1) / step
}

// Split returns the decoded text of each window, in document order.
func (c *TokenChunker) Split(text string) []string {
	windows := c.Windows(text)
	out := make([]string, len(windows))
	for i, w := range windows {
		out[i] = c.tokenizer.Decode(w)
	}
	return out
}

// Chunk is Split with position metadata attached.
func (c *TokenChunker) Chunk(text string) []domain.Chunk {
	texts := c.Split(text)
	chunks := make([]domain.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = domain.Chunk{Text: t, Index: i, Total: len(texts)}
	}
	return chunks
}
