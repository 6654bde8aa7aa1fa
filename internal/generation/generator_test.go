package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evolve/internal/domain"
)

type stubGenerator struct {
	out   string
	err   error
	delay time.Duration
}

func (s stubGenerator) Name() string  { return "stub" }
func (s stubGenerator) Model() string { return "stub-1" }

func (s stubGenerator) Generate(ctx context.Context, _ string, _ int) (string, error) {
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.delay):
		}
	}
	return s.out, s.err
}

func TestGuard_PassesThrough(t *testing.T) {
	g := Guard(stubGenerator{out: "answer"}, time.Second)

	out, err := g.Generate(context.Background(), "p", 10)

	require.NoError(t, err)
	assert.Equal(t, "answer", out)
	assert.Equal(t, "stub-1", g.Model())
}

func TestGuard_KindsErrorsAndTimeouts(t *testing.T) {
	_, err := Guard(stubGenerator{err: errors.New("overloaded")}, 0).Generate(context.Background(), "p", 10)
	assert.True(t, errors.Is(err, domain.ErrGeneration))

	_, err = Guard(stubGenerator{delay: time.Second}, 10*time.Millisecond).Generate(context.Background(), "p", 10)
	assert.True(t, errors.Is(err, domain.ErrGeneration))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
