package server

import (
	"net/http"
	"time"

	"github.com/jrsteele09/go-session-server/internal/utils"
	"github.com/jrsteele09/go-session-server/token"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

func (s *Server) newCookie(r *http.Request, name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
}

// SetTokenCookies writes both tokens of pair with Max-Age equal to their lifetimes.
func (s *Server) SetTokenCookies(w http.ResponseWriter, r *http.Request, pair *token.Pair) {
	codec := s.auth.Codec()
	http.SetCookie(w, s.newCookie(r, AccessTokenCookie, pair.AccessToken, maxAgeSeconds(codec.AccessTTL())))
	http.SetCookie(w, s.newCookie(r, RefreshTokenCookie, pair.RefreshToken, maxAgeSeconds(codec.RefreshTTL())))
}

// ClearTokenCookies expires both cookies on the client.
func (s *Server) ClearTokenCookies(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, s.newCookie(r, AccessTokenCookie, "", -1))
	http.SetCookie(w, s.newCookie(r, RefreshTokenCookie, "", -1))
}

// tokenCookies returns the access and refresh cookie values, nil when absent or empty.
func tokenCookies(r *http.Request) (access, refresh *string) {
	return cookieValue(r, AccessTokenCookie), cookieValue(r, RefreshTokenCookie)
}

func cookieValue(r *http.Request, name string) *string {
	c, err := r.Cookie(name)
	if err != nil {
		return nil
	}
	return utils.NonZeroPtr(c.Value)
}

func maxAgeSeconds(d time.Duration) int {
	return int(d / time.Second)
}
