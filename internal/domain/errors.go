package domain

import "errors"

// Sentinel errors for the whole application. Handlers translate these into
// HTTP status codes at the API boundary; nothing below the boundary knows
// about HTTP.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("concurrency conflict")
	ErrTenantNotFound  = errors.New("tenant not found")
	ErrUnavailable     = errors.New("upstream unavailable")
)

// ErrorCode returns the stable, machine-readable code for a domain error.
// Unknown errors map to "internal".
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrTenantNotFound):
		return "tenant_not_found"
	case errors.Is(err, ErrUnavailable):
		return "upstream_unavailable"
	default:
		return "internal"
	}
}
