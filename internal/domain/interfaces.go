package domain

import "context"

// Tokenizer converts text to model-specific token ids and back.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

// Embedder converts free text into a fixed-dimension vector.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator produces text from a prompt.
type Generator interface {
	Name() string
	Model() string
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// VectorStore persists vectors and supports filtered similarity search.
// A nil filter means no restriction.
type VectorStore interface {
	Upsert(ctx context.Context, vectors []Vector) error
	Query(ctx context.Context, vector []float32, topK int, filter map[string]any, includeMetadata bool) ([]Match, error)
	Stats(ctx context.Context) (StoreStats, error)
}
