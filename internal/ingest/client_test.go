package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evolve/internal/service"
)

func TestClient_Upload(t *testing.T) {
	var got service.UploadRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"status":"success","message":"ok","chunks_created":3,"vectors_uploaded":3}`))
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL+"/").Upload(context.Background(), service.UploadRequest{
		Text: "t", Title: "Doc", Source: "doc.md", ProgramLevel: "beginner",
	})

	require.NoError(t, err)
	assert.Equal(t, 3, res.ChunksCreated)
	assert.Equal(t, "Doc", got.Title)
	assert.Equal(t, "doc.md", got.Source)
}

func TestClient_UploadErrorCarriesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"embedding","message":"quota exceeded"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Upload(context.Background(), service.UploadRequest{Text: "t", Title: "Doc"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "quota exceeded")
}

func healthServer(t *testing.T, status string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_ = json.NewEncoder(w).Encode(service.HealthReport{Status: status, Error: "index gone"})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Health(t *testing.T) {
	assert.NoError(t, NewClient(healthServer(t, "healthy").URL).Health(context.Background()))

	err := NewClient(healthServer(t, "unhealthy").URL).Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index gone")
}

func TestClient_HealthUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	assert.Error(t, NewClient(url).Health(context.Background()))
}
