// Package pinecone is a REST client for a Pinecone serverless index.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"evolve/internal/domain"
	"evolve/internal/vectorstore"
)

const (
	apiVersion        = "2024-10"
	defaultControlURL = "https://api.pinecone.io"
	categoriesField   = "detected_categories"
)

// Storage talks to one index's data plane.
type Storage struct {
	controlURL string
	host       string
	apiKey     string
	indexName  string
	namespace  string
	dimension  int
	client     *http.Client
}

type Config struct {
	// Host is the index data-plane URL. When empty it is resolved from
	// IndexName through the control plane by EnsureIndex.
	Host       string
	ControlURL string
	APIKeyEnv  string
	APIKey     string
	IndexName  string
	Namespace  string
	Dimension  int
	Timeout    time.Duration
}

func NewStorage(cfg Config) (*Storage, error) {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Host == "" && cfg.IndexName == "" {
		return nil, errors.New("pinecone host or index name is required")
	}
	if cfg.Dimension <= 0 {
		return nil, errors.New("invalid dimension")
	}
	if cfg.ControlURL == "" {
		cfg.ControlURL = defaultControlURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Storage{
		controlURL: strings.TrimRight(cfg.ControlURL, "/"),
		host:       normalizeHost(cfg.Host),
		apiKey:     key,
		indexName:  cfg.IndexName,
		namespace:  cfg.Namespace,
		dimension:  cfg.Dimension,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

// IndexName returns the configured index name.
func (s *Storage) IndexName() string { return s.indexName }

func normalizeHost(h string) string {
	h = strings.TrimRight(h, "/")
	if h != "" && !strings.HasPrefix(h, "http://") && !strings.HasPrefix(h, "https://") {
		h = "https://" + h
	}
	return h
}

type indexDescription struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Host      string `json:"host"`
}

// EnsureIndex creates the serverless index if it does not exist and
// resolves the data-plane host. It is a no-op when Host was configured.
func (s *Storage) EnsureIndex(ctx context.Context) error {
	if s.host != "" {
		return nil
	}
	var desc indexDescription
	status, err := s.do(ctx, http.MethodGet, s.controlURL+"/indexes/"+s.indexName, nil, &desc)
	if status == http.StatusNotFound {
		body := map[string]any{
			"name":      s.indexName,
			"dimension": s.dimension,
			"metric":    "cosine",
			"spec": map[string]any{
				"serverless": map[string]any{"cloud": "aws", "region": "us-east-1"},
			},
		}
		_, err = s.do(ctx, http.MethodPost, s.controlURL+"/indexes", body, &desc)
	}
	if err != nil {
		return err
	}
	if desc.Host == "" {
		return fmt.Errorf("pinecone index %s has no host yet", s.indexName)
	}
	if desc.Dimension != 0 && desc.Dimension != s.dimension {
		return fmt.Errorf("pinecone index %s has dimension %d, want %d", s.indexName, desc.Dimension, s.dimension)
	}
	s.host = normalizeHost(desc.Host)
	return nil
}

// upsertBatchSize keeps each request under Pinecone's 2MB / 1000 vector cap
// at 1536 dimensions with full chunk text in metadata.
const upsertBatchSize = 100

type pcVector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (s *Storage) Upsert(ctx context.Context, vectors []domain.Vector) error {
	if s.host == "" {
		return errors.New("pinecone host not resolved")
	}
	batch := make([]pcVector, len(vectors))
	for i, v := range vectors {
		if len(v.Values) != s.dimension {
			return fmt.Errorf("vector %s: dimension %d, want %d", v.ID, len(v.Values), s.dimension)
		}
		meta, err := encodeMetadata(v.Metadata)
		if err != nil {
			return err
		}
		batch[i] = pcVector{ID: v.ID, Values: v.Values, Metadata: meta}
	}
	for start := 0; start < len(batch); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(batch))
		body := map[string]any{"vectors": batch[start:end]}
		if s.namespace != "" {
			body["namespace"] = s.namespace
		}
		if _, err := s.do(ctx, http.MethodPost, s.host+"/vectors/upsert", body, nil); err != nil {
			return fmt.Errorf("upsert vectors %d-%d: %w", start, end-1, err)
		}
	}
	return nil
}

func (s *Storage) Query(ctx context.Context, vector []float32, topK int, filter map[string]any, includeMetadata bool) ([]domain.Match, error) {
	if s.host == "" {
		return nil, errors.New("pinecone host not resolved")
	}
	if topK <= 0 {
		return nil, errors.New("top_k must be positive")
	}
	body := map[string]any{
		"vector":          vector,
		"topK":            topK,
		"includeMetadata": includeMetadata,
		"includeValues":   false,
	}
	if len(filter) > 0 {
		if err := vectorstore.ValidateFilter(filter); err != nil {
			return nil, err
		}
		body["filter"] = filter
	}
	if s.namespace != "" {
		body["namespace"] = s.namespace
	}
	var resp struct {
		Matches []struct {
			ID       string         `json:"id"`
			Score    float64        `json:"score"`
			Metadata map[string]any `json:"metadata"`
		} `json:"matches"`
	}
	if _, err := s.do(ctx, http.MethodPost, s.host+"/query", body, &resp); err != nil {
		return nil, err
	}
	out := make([]domain.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		match := domain.Match{ID: m.ID, Score: m.Score}
		if includeMetadata {
			match.Metadata = decodeMetadata(m.Metadata)
		}
		out = append(out, match)
	}
	return out, nil
}

func (s *Storage) Stats(ctx context.Context) (domain.StoreStats, error) {
	if s.host == "" {
		return domain.StoreStats{}, errors.New("pinecone host not resolved")
	}
	var resp struct {
		Namespaces map[string]struct {
			VectorCount int `json:"vectorCount"`
		} `json:"namespaces"`
		Dimension        int `json:"dimension"`
		TotalVectorCount int `json:"totalVectorCount"`
	}
	if _, err := s.do(ctx, http.MethodPost, s.host+"/describe_index_stats", map[string]any{}, &resp); err != nil {
		return domain.StoreStats{}, err
	}
	stats := domain.StoreStats{
		TotalVectorCount: resp.TotalVectorCount,
		Dimension:        resp.Dimension,
		Namespaces:       make(map[string]domain.NamespaceStats, len(resp.Namespaces)),
	}
	for name, ns := range resp.Namespaces {
		stats.Namespaces[name] = domain.NamespaceStats{VectorCount: ns.VectorCount}
	}
	return stats, nil
}

// encodeMetadata flattens the record into Pinecone's value types: nested
// objects are not allowed, so detected categories travel as a JSON string.
func encodeMetadata(m domain.Metadata) (map[string]any, error) {
	payload := m.ToMap()
	cats, err := json.Marshal(payload[categoriesField])
	if err != nil {
		return nil, err
	}
	payload[categoriesField] = string(cats)
	return payload, nil
}

func decodeMetadata(payload map[string]any) domain.Metadata {
	if raw, ok := payload[categoriesField].(string); ok {
		var cats map[string][]string
		if err := json.Unmarshal([]byte(raw), &cats); err == nil {
			payload[categoriesField] = cats
		} else {
			delete(payload, categoriesField)
		}
	}
	return domain.MetadataFromMap(payload)
}

func (s *Storage) do(ctx context.Context, method, url string, body any, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Api-Key", s.apiKey)
	req.Header.Set("X-Pinecone-API-Version", apiVersion)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("pinecone %s %s failed: %s: %s", method, url, resp.Status, bytes.TrimSpace(msg))
	}
	if out != nil {
		return resp.StatusCode, json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode, nil
}
