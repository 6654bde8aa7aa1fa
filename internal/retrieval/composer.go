// Package retrieval turns a question embedding plus request filters into a
// ranked list of stored chunks.
package retrieval

import (
	"context"

	"go.uber.org/zap"

	"evolve/internal/domain"
	"evolve/internal/logging"
)

// ProgramLevelKey is the metadata field the program level filters on.
const ProgramLevelKey = "program_level"

// DefaultTopK is used when a request does not ask for a positive top_k.
const DefaultTopK = 5

// BuildFilter copies extra and sets program_level when one is given,
// overriding any program_level already in extra. An empty result is nil,
// which stores read as "no restriction".
func BuildFilter(programLevel string, extra map[string]any) map[string]any {
	filter := make(map[string]any, len(extra)+1)
	for k, v := range extra {
		filter[k] = v
	}
	if programLevel != "" {
		filter[ProgramLevelKey] = programLevel
	}
	if len(filter) == 0 {
		return nil
	}
	return filter
}

// Composer issues filtered similarity queries.
type Composer struct {
	store domain.VectorStore
	topK  int
	log   *zap.Logger
}

func NewComposer(store domain.VectorStore, defaultTopK int, log *zap.Logger) *Composer {
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	return &Composer{store: store, topK: defaultTopK, log: logging.OrNop(log)}
}

// Retrieve returns matches ranked by descending score. Metadata is always
// requested since the answer prompt needs chunk text and titles.
func (c *Composer) Retrieve(ctx context.Context, embedding []float32, topK int, programLevel string, extra map[string]any) ([]domain.Match, error) {
	if topK <= 0 {
		topK = c.topK
	}
	filter := BuildFilter(programLevel, extra)
	matches, err := c.store.Query(ctx, embedding, topK, filter, true)
	if err != nil {
		return nil, err
	}
	c.log.Debug("retrieved matches",
		zap.Int("top_k", topK),
		zap.Any("filter", filter),
		zap.Int("matches", len(matches)))
	return matches, nil
}
