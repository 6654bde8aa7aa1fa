package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, url string, retries int) *Client {
	t.Helper()
	c, err := NewClient(Config{BaseURL: url, APIKey: "test-key", Model: "m", Dimension: 3, MaxRetries: retries})
	require.NoError(t, err)
	return c
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{APIKeyEnv: "EVOLVE_TEST_MISSING_KEY", Dimension: 3})
	assert.Error(t, err)

	_, err = NewClient(Config{APIKey: "k"})
	assert.Error(t, err)

	t.Setenv("EVOLVE_TEST_KEY", "from-env")
	c, err := NewClient(Config{APIKeyEnv: "EVOLVE_TEST_KEY", Dimension: 3})
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.apiKey)
	assert.Equal(t, "https://api.openai.com/v1", c.baseURL)
	assert.Equal(t, "openai", c.Name())
	assert.Equal(t, 3, c.Dimension())
}

func TestClient_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var body embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body.Input)
		assert.Equal(t, "m", body.Model)
		assert.Equal(t, 3, body.Dimensions)
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3]}]}`))
	}))
	defer srv.Close()

	v, err := newTestClient(t, srv.URL, 0).Embed(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, v)
}

func TestClient_RetriesRateLimit(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"embedding":[1,0,0]}]}`))
	}))
	defer srv.Close()

	v, err := newTestClient(t, srv.URL, 2).Embed(context.Background(), "x")

	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, v)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"bad request", http.StatusBadRequest, `{"error":"bad"}`},
		{"server error without retries", http.StatusInternalServerError, ``},
		{"empty data", http.StatusOK, `{"data":[]}`},
		{"not json", http.StatusOK, `<html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv.URL, 0).Embed(context.Background(), "x")
			assert.Error(t, err)
		})
	}
}
