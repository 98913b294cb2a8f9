package usecase

import "errors"

// Error kinds surfaced by the roster pipeline. The HTTP layer maps input
// and credential failures to client statuses and collapses the rest into a
// bare 500; the kinds stay distinct for logging.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrUpstreamFetch         = errors.New("upstream fetch failed")
	ErrTokenRefresh          = errors.New("token refresh failed")
	ErrParse                 = errors.New("malformed upstream document")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
