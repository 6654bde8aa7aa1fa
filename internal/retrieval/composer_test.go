package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evolve/internal/domain"
)

type recordingStore struct {
	filter          map[string]any
	topK            int
	includeMetadata bool
	matches         []domain.Match
	err             error
}

func (r *recordingStore) Upsert(context.Context, []domain.Vector) error { return nil }

func (r *recordingStore) Query(_ context.Context, _ []float32, topK int, filter map[string]any, includeMetadata bool) ([]domain.Match, error) {
	r.topK, r.filter, r.includeMetadata = topK, filter, includeMetadata
	return r.matches, r.err
}

func (r *recordingStore) Stats(context.Context) (domain.StoreStats, error) {
	return domain.StoreStats{}, nil
}

func TestBuildFilter(t *testing.T) {
	tests := []struct {
		name  string
		level string
		extra map[string]any
		want  map[string]any
	}{
		{"empty is nil", "", nil, nil},
		{"empty extra is nil", "", map[string]any{}, nil},
		{"level only", "beginner", nil, map[string]any{"program_level": "beginner"}},
		{"extra only", "", map[string]any{"title": "X"}, map[string]any{"title": "X"}},
		{"request level wins", "beginner", map[string]any{"program_level": "advanced", "title": "X"},
			map[string]any{"program_level": "beginner", "title": "X"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildFilter(tt.level, tt.extra))
		})
	}
}

func TestBuildFilter_DoesNotMutateExtra(t *testing.T) {
	extra := map[string]any{"program_level": "advanced"}

	BuildFilter("beginner", extra)

	assert.Equal(t, "advanced", extra["program_level"])
}

func TestRetrieve(t *testing.T) {
	store := &recordingStore{matches: []domain.Match{{ID: "a", Score: 0.9}}}
	c := NewComposer(store, 0, nil)

	got, err := c.Retrieve(context.Background(), []float32{1}, 0, "advanced", nil)

	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, DefaultTopK, store.topK)
	assert.True(t, store.includeMetadata)
	assert.Equal(t, map[string]any{"program_level": "advanced"}, store.filter)

	_, err = c.Retrieve(context.Background(), []float32{1}, 3, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, store.topK)
	assert.Nil(t, store.filter)
}

func TestRetrieve_PropagatesStoreError(t *testing.T) {
	boom := domain.NewError(domain.KindStore, "down", nil)
	c := NewComposer(&recordingStore{err: boom}, 5, nil)

	_, err := c.Retrieve(context.Background(), []float32{1}, 0, "", nil)

	assert.True(t, errors.Is(err, domain.ErrStore))
}
