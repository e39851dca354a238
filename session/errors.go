package session

import "errors"

// Client-facing resolution failures. All of them surface as unauthorized; the
// distinction is kept for logs and metrics only.
var (
	ErrMissingRefreshToken = errors.New("missing refresh token")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrRevokedRefreshToken means the refresh token was manually invalidated
	// by a session version bump.
	ErrRevokedRefreshToken = errors.New("refresh token revoked")
	ErrInvalidAccessToken  = errors.New("invalid access token")
)

// Reason labels used in logs and metrics.
const (
	ReasonMissingRefresh = "missing_refresh"
	ReasonInvalidRefresh = "invalid_refresh"
	ReasonRevokedRefresh = "revoked_refresh"
	ReasonInvalidAccess  = "invalid_access"
	ReasonInternal       = "internal"
)

// IsUnauthorized reports whether err is one of the client-facing resolution failures.
func IsUnauthorized(err error) bool {
	switch {
	case errors.Is(err, ErrMissingRefreshToken),
		errors.Is(err, ErrInvalidRefreshToken),
		errors.Is(err, ErrRevokedRefreshToken),
		errors.Is(err, ErrInvalidAccessToken):
		return true
	}
	return false
}

// Reason maps err to a short label. Anything that is not a client-facing
// failure is internal.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrMissingRefreshToken):
		return ReasonMissingRefresh
	case errors.Is(err, ErrInvalidRefreshToken):
		return ReasonInvalidRefresh
	case errors.Is(err, ErrRevokedRefreshToken):
		return ReasonRevokedRefresh
	case errors.Is(err, ErrInvalidAccessToken):
		return ReasonInvalidAccess
	}
	return ReasonInternal
}
