package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"evolve/internal/domain"
	"evolve/internal/vectorstore"
)

type record struct {
	values  []float32
	meta    domain.Metadata
	payload map[string]any
}

// Storage is a simple in-memory vector store using brute-force cosine similarity.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	records   map[string]record
}

// NewStorage creates an empty store accepting vectors of the given dimension.
func NewStorage(dimension int) (*Storage, error) {
	if dimension <= 0 {
		return nil, errors.New("invalid dimension")
	}
	return &Storage{dimension: dimension, records: make(map[string]record)}, nil
}

// Upsert inserts or replaces vectors by id. The batch is validated before
// anything is written.
func (s *Storage) Upsert(ctx context.Context, vectors []domain.Vector) error {
	for _, v := range vectors {
		if v.ID == "" {
			return errors.New("vector id is required")
		}
		if len(v.Values) != s.dimension {
			return fmt.Errorf("vector %s: dimension %d, want %d", v.ID, len(v.Values), s.dimension)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		values := make([]float32, len(v.Values))
		copy(values, v.Values)
		s.records[v.ID] = record{values: values, meta: v.Metadata, payload: v.Metadata.ToMap()}
	}
	return nil
}

// Query ranks every stored vector that passes filter by cosine similarity.
func (s *Storage) Query(ctx context.Context, vector []float32, topK int, filter map[string]any, includeMetadata bool) ([]domain.Match, error) {
	if topK <= 0 {
		return nil, errors.New("top_k must be positive")
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("query dimension %d, want %d", len(vector), s.dimension)
	}
	if err := vectorstore.ValidateFilter(filter); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := make([]domain.Match, 0, len(s.records))
	for id, r := range s.records {
		if !vectorstore.Matches(r.payload, filter) {
			continue
		}
		m := domain.Match{ID: id, Score: vectorstore.Cosine(vector, r.values)}
		if includeMetadata {
			m.Metadata = r.meta
		}
		matches = append(matches, m)
	}
	return vectorstore.TopK(matches, topK), nil
}

// Stats reports the number of stored vectors in the default namespace.
func (s *Storage) Stats(ctx context.Context) (domain.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.records)
	return domain.StoreStats{
		TotalVectorCount: n,
		Dimension:        s.dimension,
		Namespaces:       map[string]domain.NamespaceStats{"": {VectorCount: n}},
	}, nil
}

// Clear drops every stored vector.
func (s *Storage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]record)
}
