package vectorstore

import (
	"context"
	"fmt"
	"time"

	"evolve/internal/domain"
)

// Storage persists vectors and supports filtered similarity search.
type Storage = domain.VectorStore

// Guarded bounds every store call by a timeout and reports failures as
// domain store errors.
type Guarded struct {
	inner   Storage
	name    string
	timeout time.Duration
}

// Guard wraps s. A zero timeout leaves the caller's deadline in charge.
func Guard(s Storage, name string, timeout time.Duration) *Guarded {
	return &Guarded{inner: s, name: name, timeout: timeout}
}

func (g *Guarded) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout > 0 {
		return context.WithTimeout(ctx, g.timeout)
	}
	return ctx, func() {}
}

func (g *Guarded) Upsert(ctx context.Context, vectors []domain.Vector) error {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()
	if err := g.inner.Upsert(ctx, vectors); err != nil {
		return domain.NewError(domain.KindStore, fmt.Sprintf("%s upsert failed", g.name), err).
			WithDetail("vectors", len(vectors))
	}
	return nil
}

func (g *Guarded) Query(ctx context.Context, vector []float32, topK int, filter map[string]any, includeMetadata bool) ([]domain.Match, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()
	matches, err := g.inner.Query(ctx, vector, topK, filter, includeMetadata)
	if err != nil {
		return nil, domain.NewError(domain.KindStore, fmt.Sprintf("%s query failed", g.name), err)
	}
	return matches, nil
}

func (g *Guarded) Stats(ctx context.Context) (domain.StoreStats, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()
	stats, err := g.inner.Stats(ctx)
	if err != nil {
		return domain.StoreStats{}, domain.NewError(domain.KindStore, fmt.Sprintf("%s stats failed", g.name), err)
	}
	return stats, nil
}
