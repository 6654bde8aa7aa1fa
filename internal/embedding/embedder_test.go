package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evolve/internal/domain"
)

type stubEmbedder struct {
	dim   int
	vec   []float32
	err   error
	delay time.Duration
}

func (s stubEmbedder) Name() string   { return "stub" }
func (s stubEmbedder) Dimension() int { return s.dim }

func (s stubEmbedder) Embed(ctx context.Context, _ string) ([]float32, error) {
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.delay):
		}
	}
	return s.vec, s.err
}

func TestGuard_PassesThrough(t *testing.T) {
	g := Guard(stubEmbedder{dim: 2, vec: []float32{1, 0}}, time.Second)

	v, err := g.Embed(context.Background(), "x")

	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, v)
	assert.Equal(t, "stub", g.Name())
	assert.Equal(t, 2, g.Dimension())
}

func TestGuard_KindsErrors(t *testing.T) {
	_, err := Guard(stubEmbedder{dim: 2, err: errors.New("quota")}, 0).Embed(context.Background(), "x")
	assert.True(t, errors.Is(err, domain.ErrEmbedding))

	_, err = Guard(stubEmbedder{dim: 3, vec: []float32{1}}, 0).Embed(context.Background(), "x")
	assert.True(t, errors.Is(err, domain.ErrEmbedding))
}

func TestGuard_Timeout(t *testing.T) {
	g := Guard(stubEmbedder{dim: 1, vec: []float32{1}, delay: time.Second}, 10*time.Millisecond)

	_, err := g.Embed(context.Background(), "x")

	assert.True(t, errors.Is(err, domain.ErrEmbedding))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
