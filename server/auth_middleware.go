package server

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-session-server/session"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeySession stores the resolved *session.Session
const ContextKeySession ContextKey = "session"

// SessionFromContext returns the session stored by RequireSession.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(ContextKeySession).(*session.Session)
	return sess, ok && sess != nil
}

// RequireSession resolves the session cookies. Rotated tokens are written back
// before the handler runs; any resolution failure ends the request with 401.
func (s *Server) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.resolveSession(w, r)
		if !ok {
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ContextKeySession, sess)))
	}
}

// resolveSession writes the failure response itself and reports false when
// the request is not authenticated.
func (s *Server) resolveSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	access, refresh := tokenCookies(r)
	sess, err := s.auth.Resolve(r.Context(), access, refresh)
	if err != nil {
		s.writeSessionError(w, err)
		return nil, false
	}
	if sess.Rotated() {
		s.SetTokenCookies(w, r, sess.NewTokens)
	}
	return sess, true
}

func (s *Server) writeSessionError(w http.ResponseWriter, err error) {
	if session.IsUnauthorized(err) {
		log.Debug().Str("reason", session.Reason(err)).Msg("unauthorized session")
		writeJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	log.Err(err).Msg("session resolution failed")
	writeJSONError(w, "internal_error", http.StatusInternalServerError)
}

// hasAdminKey reports whether the request carries the configured revoke admin
// key as a bearer token. An unset key disables the check.
func (s *Server) hasAdminKey(r *http.Request) bool {
	key := s.config.GetRevokeAdminKey()
	if key == "" {
		return false
	}
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(parts[1])), []byte(key)) == 1
}
