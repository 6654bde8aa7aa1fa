package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"evolve/internal/domain"
	"evolve/internal/vectorstore"
)

// idField keeps the caller's vector id, since Qdrant point ids must be UUIDs.
const idField = "vector_id"

// pointNamespace seeds the name-based UUIDs derived from vector ids.
var pointNamespace = uuid.MustParse("6f1c2a52-8d0e-4c55-9a77-0f5b8c7d2e11")

// Storage is a minimal REST client to Qdrant.
// It assumes cosine distance and creates the collection if missing.
type Storage struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Dimension  int
	Timeout    time.Duration
}

func NewStorage(cfg Config) (*Storage, error) {
	if cfg.URL == "" || cfg.Collection == "" {
		return nil, errors.New("qdrant url and collection are required")
	}
	if cfg.Dimension <= 0 {
		return nil, errors.New("invalid dimension")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Storage{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

// PointID maps a vector id onto the UUID stored in Qdrant.
func PointID(id string) string {
	return uuid.NewSHA1(pointNamespace, []byte(id)).String()
}

// Init creates the collection. An existing collection is not an error.
func (s *Storage) Init(ctx context.Context) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.dimension,
			"distance": "Cosine",
		},
	}
	status, err := s.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", s.collection), body, nil)
	if err != nil && status != http.StatusConflict {
		return err
	}
	return nil
}

func (s *Storage) Upsert(ctx context.Context, vectors []domain.Vector) error {
	points := make([]map[string]any, len(vectors))
	for i, v := range vectors {
		if len(v.Values) != s.dimension {
			return fmt.Errorf("vector %s: dimension %d, want %d", v.ID, len(v.Values), s.dimension)
		}
		payload := v.Metadata.ToMap()
		payload[idField] = v.ID
		points[i] = map[string]any{
			"id":      PointID(v.ID),
			"vector":  v.Values,
			"payload": payload,
		}
	}
	body := map[string]any{"points": points}
	_, err := s.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/points?wait=true", s.collection), body, nil)
	return err
}

func (s *Storage) Query(ctx context.Context, vector []float32, topK int, filter map[string]any, includeMetadata bool) ([]domain.Match, error) {
	if topK <= 0 {
		return nil, errors.New("top_k must be positive")
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	if len(filter) > 0 {
		qf, err := translateFilter(filter)
		if err != nil {
			return nil, err
		}
		req["filter"] = qf
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if _, err := s.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/search", s.collection), req, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.Match, 0, len(resp.Result))
	for _, r := range resp.Result {
		m := domain.Match{Score: r.Score}
		if v, ok := r.Payload[idField].(string); ok {
			m.ID = v
		}
		if includeMetadata {
			m.Metadata = domain.MetadataFromMap(r.Payload)
		}
		results = append(results, m)
	}
	return results, nil
}

func (s *Storage) Stats(ctx context.Context) (domain.StoreStats, error) {
	var resp struct {
		Result struct {
			PointsCount int `json:"points_count"`
		} `json:"result"`
	}
	if _, err := s.do(ctx, http.MethodGet, fmt.Sprintf("/collections/%s", s.collection), nil, &resp); err != nil {
		return domain.StoreStats{}, err
	}
	return domain.StoreStats{
		TotalVectorCount: resp.Result.PointsCount,
		Dimension:        s.dimension,
		Namespaces:       map[string]domain.NamespaceStats{s.collection: {VectorCount: resp.Result.PointsCount}},
	}, nil
}

// Clear drops the collection. Best-effort.
func (s *Storage) Clear(ctx context.Context) error {
	_, _ = s.do(ctx, http.MethodDelete, fmt.Sprintf("/collections/%s", s.collection), nil, nil)
	return nil
}

// translateFilter maps the store-neutral filter onto Qdrant's must/must_not clauses.
func translateFilter(filter map[string]any) (map[string]any, error) {
	if err := vectorstore.ValidateFilter(filter); err != nil {
		return nil, err
	}
	var must, mustNot []map[string]any
	for _, key := range vectorstore.FilterKeys(filter) {
		cond := filter[key]
		ops, isOps := cond.(map[string]any)
		if !isOps {
			must = append(must, matchValue(key, cond))
			continue
		}
		for _, op := range vectorstore.FilterKeys(ops) {
			arg := ops[op]
			switch op {
			case "$eq":
				must = append(must, matchValue(key, arg))
			case "$ne":
				mustNot = append(mustNot, matchValue(key, arg))
			case "$in":
				must = append(must, matchAny(key, arg))
			case "$nin":
				mustNot = append(mustNot, matchAny(key, arg))
			}
		}
	}
	out := map[string]any{}
	if len(must) > 0 {
		out["must"] = must
	}
	if len(mustNot) > 0 {
		out["must_not"] = mustNot
	}
	return out, nil
}

func matchValue(key string, value any) map[string]any {
	return map[string]any{"key": key, "match": map[string]any{"value": value}}
}

func matchAny(key string, values any) map[string]any {
	return map[string]any{"key": key, "match": map[string]any{"any": values}}
}

func (s *Storage) do(ctx context.Context, method, path string, body any, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.url+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("qdrant %s %s failed: %s", method, path, resp.Status)
	}
	if out != nil {
		dec := json.NewDecoder(resp.Body)
		return resp.StatusCode, dec.Decode(out)
	}
	return resp.StatusCode, nil
}
