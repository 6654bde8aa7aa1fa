package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"evolve/internal/domain"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// WriteJSON writes data with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(data)
}

// StatusFor maps an error kind to an HTTP status. Only validation problems
// are the caller's fault.
func StatusFor(err error) int {
	if domain.KindOf(err) == domain.KindValidation {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// WriteError renders err as an ErrorResponse.
func WriteError(w http.ResponseWriter, err error, log *zap.Logger) {
	status := StatusFor(err)
	resp := ErrorResponse{Error: "internal_error", Message: err.Error()}
	var de *domain.Error
	if errors.As(err, &de) {
		resp.Error = string(de.Kind)
		resp.Details = de.Details
	}
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err), zap.String("kind", resp.Error))
	}
	if werr := WriteJSON(w, status, resp); werr != nil {
		log.Error("failed to write error response", zap.Error(werr))
	}
}
