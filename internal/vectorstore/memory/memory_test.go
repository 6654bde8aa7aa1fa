package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evolve/internal/domain"
)

func seed(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(2)
	require.NoError(t, err)
	require.NoError(t, s.Upsert(context.Background(), []domain.Vector{
		{ID: "a", Values: []float32{1, 0}, Metadata: domain.Metadata{Title: "A", ProgramLevel: "beginner", Tags: []string{"heart"}}},
		{ID: "b", Values: []float32{0.9, 0.1}, Metadata: domain.Metadata{Title: "B", ProgramLevel: "advanced"}},
		{ID: "c", Values: []float32{0, 1}, Metadata: domain.Metadata{Title: "C", ProgramLevel: "beginner"}},
	}))
	return s
}

func TestNewStorage_RejectsBadDimension(t *testing.T) {
	_, err := NewStorage(0)
	assert.Error(t, err)
}

func TestQuery_RanksByCosine(t *testing.T) {
	s := seed(t)

	got, err := s.Query(context.Background(), []float32{1, 0}, 2, nil, true)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, "A", got[0].Metadata.Title)
	assert.GreaterOrEqual(t, got[0].Score, got[1].Score)
}

func TestQuery_Filter(t *testing.T) {
	s := seed(t)

	got, err := s.Query(context.Background(), []float32{1, 0}, 5, map[string]any{"program_level": "beginner"}, false)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
	assert.Empty(t, got[0].Metadata.Title)

	got, err = s.Query(context.Background(), []float32{1, 0}, 5, map[string]any{"tags": map[string]any{"$in": []string{"heart"}}}, true)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestQuery_Errors(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	_, err := s.Query(ctx, []float32{1, 0}, 0, nil, false)
	assert.Error(t, err)
	_, err = s.Query(ctx, []float32{1}, 1, nil, false)
	assert.Error(t, err)
	_, err = s.Query(ctx, []float32{1, 0}, 1, map[string]any{"x": map[string]any{"$gt": 1}}, false)
	assert.Error(t, err)
}

func TestUpsert_ReplacesAndValidatesBatch(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []domain.Vector{{ID: "a", Values: []float32{0, 1}, Metadata: domain.Metadata{Title: "A2"}}}))
	err := s.Upsert(ctx, []domain.Vector{
		{ID: "d", Values: []float32{1, 1}},
		{ID: "e", Values: []float32{1}},
	})
	assert.Error(t, err)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalVectorCount)
	assert.Equal(t, 2, stats.Dimension)
	assert.Equal(t, 3, stats.Namespaces[""].VectorCount)

	got, err := s.Query(ctx, []float32{0, 1}, 1, nil, true)
	require.NoError(t, err)
	assert.Equal(t, "A2", got[0].Metadata.Title)

	s.Clear()
	stats, _ = s.Stats(ctx)
	assert.Zero(t, stats.TotalVectorCount)
}
