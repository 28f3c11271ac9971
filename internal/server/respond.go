package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	slidecap "github.com/alnah/go-slidecap"
	"github.com/alnah/go-slidecap/internal/hints"
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg, details string) {
	writeJSON(w, code, errorResponse{Error: msg, Details: details})
}

// classify maps a capture error to status, message and details.
func (s *Server) classify(err error) (int, string, string) {
	switch {
	case slidecap.IsValidationError(err):
		return http.StatusBadRequest, "Invalid request", err.Error()
	case errors.Is(err, slidecap.ErrUnknownCategory):
		return http.StatusNotFound, "Unknown category", err.Error()
	case errors.Is(err, slidecap.ErrContainerNotFound):
		return http.StatusNotFound, "Slides container not found",
			withHint(err, hints.ForContainerNotFound(s.cfg.ContainerSelector))
	case errors.Is(err, slidecap.ErrPoolClosed):
		return http.StatusServiceUnavailable, "Service is shutting down", ""
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusInternalServerError, "Capture timed out", withHint(err, hints.ForTimeout())
	case errors.Is(err, slidecap.ErrBrowserLaunch), errors.Is(err, slidecap.ErrBrowserConnect):
		return http.StatusInternalServerError, "Failed to start browser", withHint(err, hints.ForBrowserLaunch())
	case errors.Is(err, slidecap.ErrPageLoad):
		return http.StatusInternalServerError, "Failed to load slides page",
			withHint(err, hints.ForTargetUnreachable(s.cfg.BaseURL))
	default:
		return http.StatusInternalServerError, "Failed to generate screenshots", err.Error()
	}
}

// withHint appends a plain hint to the error text.
func withHint(err error, hint string) string {
	if h := hints.Plain(hint); h != "" {
		return err.Error() + " (hint: " + h + ")"
	}
	return err.Error()
}
