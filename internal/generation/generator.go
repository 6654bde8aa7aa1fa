// Package generation wraps text-generation backends.
package generation

import (
	"context"
	"fmt"
	"time"

	"evolve/internal/domain"
)

// Generator produces text from a prompt.
type Generator = domain.Generator

// Guarded bounds each Generate call by a timeout and reports failures as
// domain generation errors.
type Guarded struct {
	inner   Generator
	timeout time.Duration
}

// Guard wraps g. A zero timeout leaves the caller's deadline in charge.
func Guard(g Generator, timeout time.Duration) *Guarded {
	return &Guarded{inner: g, timeout: timeout}
}

func (g *Guarded) Name() string  { return g.inner.Name() }
func (g *Guarded) Model() string { return g.inner.Model() }

func (g *Guarded) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	out, err := g.inner.Generate(ctx, prompt, maxTokens)
	if err != nil {
		return "", domain.NewError(domain.KindGeneration, fmt.Sprintf("%s generation failed", g.inner.Name()), err)
	}
	return out, nil
}
