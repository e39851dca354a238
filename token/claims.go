package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Values of the typ claim. A token is only accepted by the verifier for its own kind.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// AccessClaims authorise a request for the subject until exp.
type AccessClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// RefreshClaims resume a session while Version still matches the subject's
// current session version.
type RefreshClaims struct {
	Type    string `json:"typ"`
	Version uint64 `json:"version"`
	jwt.RegisteredClaims
}

// Pair is the result of one issuance. The access token always expires before
// the refresh token.
type Pair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

func (c *AccessClaims) UserID() string {
	return c.Subject
}

func (c *RefreshClaims) UserID() string {
	return c.Subject
}
