// Package httpapi exposes the upload and query pipelines over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"evolve/internal/logging"
	"evolve/internal/service"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// API is the subset of service.Service the handlers need.
type API interface {
	Upload(ctx context.Context, req service.UploadRequest) (service.UploadResult, error)
	Query(ctx context.Context, req service.QueryRequest) (service.QueryResult, error)
	Health(ctx context.Context) service.HealthReport
	Stats(ctx context.Context) (service.StatsReport, error)
	Services() map[string]bool
}

type RouterConfig struct {
	Timeout        time.Duration
	AllowedOrigins []string
}

// NewRouter builds the chi router with the middleware stack and routes.
func NewRouter(api API, cfg RouterConfig, log *zap.Logger) http.Handler {
	log = logging.OrNop(log)
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	h := &handlers{api: api, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/", h.root)
	r.Get("/health", h.health)
	r.Get("/stats", h.stats)
	r.Post("/upload", h.upload)
	r.Post("/query", h.query)
	return r
}

type handlers struct {
	api API
	log *zap.Logger
}

func (h *handlers) write(w http.ResponseWriter, data any) {
	if err := WriteJSON(w, http.StatusOK, data); err != nil {
		h.log.Error("failed to write response", zap.Error(err))
	}
}

func (h *handlers) root(w http.ResponseWriter, r *http.Request) {
	h.write(w, map[string]any{
		"status":   "Evolve Consciousness Engine Online",
		"version":  Version,
		"services": h.api.Services(),
	})
}

// health answers 200 even when unhealthy; the body carries the status.
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	h.write(w, h.api.Health(r.Context()))
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.api.Stats(r.Context())
	if err != nil {
		WriteError(w, err, h.log)
		return
	}
	h.write(w, stats)
}

func (h *handlers) upload(w http.ResponseWriter, r *http.Request) {
	var req service.UploadRequest
	if err := decodeAndValidate(r, &req); err != nil {
		WriteError(w, err, h.log)
		return
	}
	res, err := h.api.Upload(r.Context(), req)
	if err != nil {
		WriteError(w, err, h.log)
		return
	}
	h.write(w, res)
}

func (h *handlers) query(w http.ResponseWriter, r *http.Request) {
	var req service.QueryRequest
	if err := decodeAndValidate(r, &req); err != nil {
		WriteError(w, err, h.log)
		return
	}
	res, err := h.api.Query(r.Context(), req)
	if err != nil {
		WriteError(w, err, h.log)
		return
	}
	h.write(w, res)
}
