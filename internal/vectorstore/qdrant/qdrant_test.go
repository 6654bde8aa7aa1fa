package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evolve/internal/domain"
)

func newTestStorage(t *testing.T, h http.HandlerFunc) *Storage {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	s, err := NewStorage(Config{URL: srv.URL, APIKey: "secret", Collection: "evolve", Dimension: 2})
	require.NoError(t, err)
	return s
}

func TestNewStorage_Validates(t *testing.T) {
	_, err := NewStorage(Config{Collection: "c", Dimension: 2})
	assert.Error(t, err)
	_, err = NewStorage(Config{URL: "http://x", Collection: "c"})
	assert.Error(t, err)
}

func TestPointID_Deterministic(t *testing.T) {
	assert.Equal(t, PointID("My_Doc_0"), PointID("My_Doc_0"))
	assert.NotEqual(t, PointID("My_Doc_0"), PointID("My_Doc_1"))
	assert.Len(t, PointID("x"), 36)
}

func TestInit_ToleratesExistingCollection(t *testing.T) {
	s := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/collections/evolve", r.URL.Path)
		w.WriteHeader(http.StatusConflict)
	})

	assert.NoError(t, s.Init(context.Background()))
}

func TestUpsert_SendsPayloadWithVectorID(t *testing.T) {
	var body struct {
		Points []struct {
			ID      string         `json:"id"`
			Vector  []float32      `json:"vector"`
			Payload map[string]any `json:"payload"`
		} `json:"points"`
	}
	s := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/evolve/points", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusOK)
	})

	err := s.Upsert(context.Background(), []domain.Vector{
		{ID: "My_Doc_0", Values: []float32{1, 0}, Metadata: domain.Metadata{Title: "My Doc", Tags: []string{"heart"}}},
	})

	require.NoError(t, err)
	require.Len(t, body.Points, 1)
	assert.Equal(t, PointID("My_Doc_0"), body.Points[0].ID)
	assert.Equal(t, "My_Doc_0", body.Points[0].Payload["vector_id"])
	assert.Equal(t, "My Doc", body.Points[0].Payload["title"])
}

func TestUpsert_RejectsWrongDimension(t *testing.T) {
	s := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	assert.Error(t, s.Upsert(context.Background(), []domain.Vector{{ID: "a", Values: []float32{1}}}))
}

func TestQuery_TranslatesFilterAndMapsResults(t *testing.T) {
	var req map[string]any
	s := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/evolve/points/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_, _ = w.Write([]byte(`{"result":[{"score":0.8,"payload":{"vector_id":"My_Doc_1","title":"My Doc","tags":["heart"],"chunk_index":1}}]}`))
	})

	got, err := s.Query(context.Background(), []float32{1, 0}, 3,
		map[string]any{"program_level": "advanced", "tags": map[string]any{"$nin": []string{"crown"}}}, true)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "My_Doc_1", got[0].ID)
	assert.InDelta(t, 0.8, got[0].Score, 1e-9)
	assert.Equal(t, "My Doc", got[0].Metadata.Title)
	assert.Equal(t, 1, got[0].Metadata.ChunkIndex)
	assert.Equal(t, []string{"heart"}, got[0].Metadata.Tags)

	assert.EqualValues(t, 3, req["limit"])
	filter := req["filter"].(map[string]any)
	assert.Equal(t, []any{map[string]any{"key": "program_level", "match": map[string]any{"value": "advanced"}}}, filter["must"])
	assert.Equal(t, []any{map[string]any{"key": "tags", "match": map[string]any{"any": []any{"crown"}}}}, filter["must_not"])
}

func TestQuery_NoFilterOmitsClause(t *testing.T) {
	var req map[string]any
	s := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_, _ = w.Write([]byte(`{"result":[]}`))
	})

	got, err := s.Query(context.Background(), []float32{1, 0}, 1, nil, false)

	require.NoError(t, err)
	assert.Empty(t, got)
	_, has := req["filter"]
	assert.False(t, has)
}

func TestStats(t *testing.T) {
	s := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"result":{"points_count":7}}`))
	})

	stats, err := s.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 7, stats.TotalVectorCount)
	assert.Equal(t, 2, stats.Dimension)
	assert.Equal(t, 7, stats.Namespaces["evolve"].VectorCount)
}

func TestServerErrorSurfaces(t *testing.T) {
	s := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := s.Stats(context.Background())
	assert.Error(t, err)
}
