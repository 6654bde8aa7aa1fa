// Package embedding holds the embedding adapters and the guard that applies
// the pipeline's timeout and error policy to any of them.
package embedding

import (
	"context"
	"fmt"
	"time"

	"evolve/internal/domain"
)

// Embedder converts free text into a fixed-dimension vector.
type Embedder = domain.Embedder

// Guarded bounds every Embed call by a timeout, checks the returned
// dimension and reports failures as domain embedding errors.
type Guarded struct {
	inner   Embedder
	timeout time.Duration
}

// Guard wraps e. A zero timeout leaves the caller's deadline in charge.
func Guard(e Embedder, timeout time.Duration) *Guarded {
	return &Guarded{inner: e, timeout: timeout}
}

func (g *Guarded) Name() string   { return g.inner.Name() }
func (g *Guarded) Dimension() int { return g.inner.Dimension() }

func (g *Guarded) Embed(ctx context.Context, text string) ([]float32, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	vec, err := g.inner.Embed(ctx, text)
	if err != nil {
		return nil, domain.NewError(domain.KindEmbedding, fmt.Sprintf("%s embedding failed", g.inner.Name()), err)
	}
	if dim := g.inner.Dimension(); dim > 0 && len(vec) != dim {
		return nil, domain.NewError(domain.KindEmbedding,
			fmt.Sprintf("%s returned %d dimensions, want %d", g.inner.Name(), len(vec), dim), nil)
	}
	return vec, nil
}
