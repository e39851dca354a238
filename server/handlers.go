package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jrsteele09/go-session-server/auth"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"
	maxBodyBytes    = 1 << 20
)

// LoginRequest is the body of POST /session.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionInfo is the body of GET /session.
type SessionInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// LoginHandler checks credentials and sets both token cookies.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err := dec.Decode(&req); err != nil {
			writeJSONError(w, "invalid_request", http.StatusBadRequest)
			return
		}

		result, err := s.auth.Login(r.Context(), req.Username, req.Password)
		switch {
		case err == nil:
		case errors.Is(err, auth.ErrInvalidRequest):
			writeJSONError(w, "invalid_request", http.StatusBadRequest)
			return
		case errors.Is(err, auth.ErrUserNotFound):
			writeJSONError(w, "user_not_found", http.StatusNotFound)
			return
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeJSONError(w, "invalid_credentials", http.StatusUnauthorized)
			return
		default:
			log.Err(err).Msg("login failed")
			writeJSONError(w, "internal_error", http.StatusInternalServerError)
			return
		}

		s.SetTokenCookies(w, r, result.Tokens)
		w.WriteHeader(http.StatusNoContent)
	}
}

// SessionInfoHandler returns the user behind the session. Runs behind RequireSession.
func (s *Server) SessionInfoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFromContext(r.Context())
		if !ok {
			writeJSONError(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		user, err := s.auth.CurrentUser(r.Context(), sess)
		if err != nil {
			s.writeSessionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, SessionInfo{ID: user.ID, Username: user.Username})
	}
}

// LogoutHandler clears both cookies. Outstanding tokens stay valid until they
// expire; use the revoke route to end them server side.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.ClearTokenCookies(w, r)
		w.WriteHeader(http.StatusNoContent)
	}
}

// RevokeHandler bumps the target user's session version. The caller must hold
// a session for that user, or present the admin key.
func (s *Server) RevokeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.PathValue("id")

		if !s.hasAdminKey(r) {
			sess, ok := s.resolveSession(w, r)
			if !ok {
				return
			}
			if !auth.CanRevoke(sess, userID) {
				writeJSONError(w, "forbidden", http.StatusForbidden)
				return
			}
		}

		if err := s.auth.Revoke(r.Context(), userID); err != nil {
			if errors.Is(err, auth.ErrInvalidRequest) {
				writeJSONError(w, "invalid_request", http.StatusBadRequest)
				return
			}
			log.Err(err).Str("user_id", userID).Msg("revoke failed")
			writeJSONError(w, "internal_error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeJSONError writes {"error": code}. Session failures always use the same
// code so clients cannot tell revocation from expiry.
func writeJSONError(w http.ResponseWriter, errorCode string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{"error": errorCode})
}
