// Package respond centralizes JSON serialization and the mapping of
// domain errors to HTTP status codes. Handlers and middleware never pick
// status codes themselves.
package respond

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/user/tenant-gateway/internal/domain"
)

// CorrelationHeader carries the request correlation id end to end.
const CorrelationHeader = "X-Correlation-Id"

// ErrorBody is the wire shape of every error response.
type ErrorBody struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	Detail        string `json:"detail,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Writer writes API responses. In development mode error responses carry
// diagnostic detail; in production they never do.
type Writer struct {
	logger      *slog.Logger
	development bool
}

func NewWriter(logger *slog.Logger, development bool) *Writer {
	return &Writer{logger: logger, development: development}
}

// StatusFor maps a domain error to its HTTP status code. Unmapped errors
// default to 500.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrTenantNotFound):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// messageFor returns the client-safe message for an error. Internals are
// never echoed outside development mode.
func messageFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "The request is invalid."
	case errors.Is(err, domain.ErrUnauthenticated):
		return "Authentication is required."
	case errors.Is(err, domain.ErrForbidden):
		return "You are not allowed to perform this action."
	case errors.Is(err, domain.ErrNotFound):
		return "The requested resource does not exist."
	case errors.Is(err, domain.ErrConflict):
		return "The resource was modified by another request."
	case errors.Is(err, domain.ErrTenantNotFound):
		return "The requested tenant is unknown."
	case errors.Is(err, domain.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return "The service is temporarily unavailable."
	default:
		return "An internal error occurred."
	}
}

// JSON writes v with the given status code.
func (w *Writer) JSON(rw http.ResponseWriter, status int, v interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(rw).Encode(v); err != nil {
		w.logger.Error("failed to encode response", "error", err)
	}
}

// Error writes the mapped error response for err.
func (w *Writer) Error(rw http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)

	code := domain.ErrorCode(err)
	if errors.Is(err, context.DeadlineExceeded) {
		code = "timeout"
	}

	body := ErrorBody{
		Code:          code,
		Message:       messageFor(err),
		CorrelationID: r.Header.Get(CorrelationHeader),
	}
	if w.development {
		body.Detail = err.Error()
	}

	if status >= http.StatusInternalServerError {
		w.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}

	w.JSON(rw, status, body)
}
