// Package session decides, per request, whether the presented cookies
// authenticate a user and whether a fresh token pair must be handed back.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/jrsteele09/go-session-server/internal/utils"
	"github.com/jrsteele09/go-session-server/token"
	"github.com/jrsteele09/go-session-server/users"
	"github.com/rs/zerolog"
)

// Outcome labels for a successful resolution.
const (
	OutcomeAccessValid = "access_valid"
	OutcomeRotated     = "rotated"
)

// Codec is the part of token.Codec the resolver needs.
type Codec interface {
	Issue(userID string, sessionVersion uint64) (*token.Pair, error)
	VerifyAccess(raw string) (*token.AccessClaims, error)
	VerifyRefresh(raw string) (*token.RefreshClaims, error)
}

// UserLookup is the read side of the credential store.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*users.User, error)
}

// Session is an authenticated request. NewTokens is set only when the pair was
// rotated and must be written back to the client.
type Session struct {
	UserID    string
	NewTokens *token.Pair
}

// Rotated reports whether the resolution issued a new pair.
func (s *Session) Rotated() bool {
	return s != nil && s.NewTokens != nil
}

func (s *Session) Outcome() string {
	if s.Rotated() {
		return OutcomeRotated
	}
	return OutcomeAccessValid
}

type Resolver struct {
	codec  Codec
	users  UserLookup
	logger zerolog.Logger
}

type ResolverOption func(*Resolver)

// WithLogger sets the logger for rotation and rejection events. Token
// material is never logged.
func WithLogger(l zerolog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = l
	}
}

func NewResolver(codec Codec, lookup UserLookup, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		codec:  codec,
		users:  lookup,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve authenticates a request from its access and refresh cookies. A nil
// or empty value means the cookie was absent.
//
// A valid access token wins without touching the store. An expired or absent
// access token falls through to the refresh token, which must verify and
// carry the subject's current session version; a new pair is then issued.
// An access token that is present but invalid for any reason other than
// expiry is rejected outright.
func (r *Resolver) Resolve(ctx context.Context, accessToken, refreshToken *string) (*Session, error) {
	if raw := utils.Value(accessToken); raw != "" {
		claims, err := r.codec.VerifyAccess(raw)
		if err == nil {
			return &Session{UserID: claims.Subject}, nil
		}
		if !errors.Is(err, token.ErrTokenExpired) {
			return nil, r.reject(ErrInvalidAccessToken, err)
		}
	}
	return r.rotate(ctx, utils.Value(refreshToken))
}

func (r *Resolver) rotate(ctx context.Context, rawRefresh string) (*Session, error) {
	if rawRefresh == "" {
		return nil, r.reject(ErrMissingRefreshToken, nil)
	}

	claims, err := r.codec.VerifyRefresh(rawRefresh)
	if err != nil {
		return nil, r.reject(ErrInvalidRefreshToken, err)
	}

	user, err := r.users.GetByID(ctx, claims.Subject)
	if errors.Is(err, users.ErrUserNotFound) {
		return nil, r.reject(ErrInvalidRefreshToken, err)
	}
	if err != nil {
		return nil, fmt.Errorf("[Resolver rotate] loading user: %w", err)
	}

	if claims.Version != user.SessionVersion {
		r.logger.Debug().
			Str("user_id", user.ID).
			Uint64("token_version", claims.Version).
			Uint64("current_version", user.SessionVersion).
			Msg("refresh token version is stale")
		return nil, r.reject(ErrRevokedRefreshToken, nil)
	}

	pair, err := r.codec.Issue(user.ID, user.SessionVersion)
	if err != nil {
		return nil, fmt.Errorf("[Resolver rotate] issuing tokens: %w", err)
	}

	r.logger.Debug().Str("user_id", user.ID).Msg("session rotated")
	return &Session{UserID: user.ID, NewTokens: pair}, nil
}

func (r *Resolver) reject(kind error, cause error) error {
	evt := r.logger.Debug().Str("reason", Reason(kind))
	if cause != nil {
		evt = evt.AnErr("cause", cause)
	}
	evt.Msg("session rejected")
	return kind
}
