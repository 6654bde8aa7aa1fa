package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"evolve/internal/domain"
)

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Zero(t, Cosine([]float32{1}, []float32{1, 0}))
	assert.Zero(t, Cosine([]float32{0, 0}, []float32{1, 0}))
	assert.Zero(t, Cosine(nil, nil))
}

func TestTopK(t *testing.T) {
	matches := []domain.Match{
		{ID: "b", Score: 0.5},
		{ID: "a", Score: 0.5},
		{ID: "c", Score: 0.9},
		{ID: "d", Score: 0.1},
	}

	got := TopK(matches, 3)

	ids := make([]string, len(got))
	for i, m := range got {
		ids[i] = m.ID
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
	assert.Len(t, TopK([]domain.Match{{ID: "x"}}, 5), 1)
}
