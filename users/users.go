package users

import (
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-session-server/internal/errors"
	"github.com/jrsteele09/go-session-server/internal/ids"
	"github.com/jrsteele09/go-session-server/users/password"
)

// InitialSessionVersion is the session version of a newly created user.
const InitialSessionVersion uint64 = 1

type User struct {
	ID             string    `json:"id"`                   // Opaque unique identifier
	Username       string    `json:"username"`             // Unique login name
	PasswordHash   string    `json:"-"`                    // Encoded password hash - never serialize
	SessionVersion uint64    `json:"-"`                    // Bumped to revoke every outstanding refresh token
	CreatedAt      time.Time `json:"created_at,omitempty"` // Set by persistent stores
}

type userOptions struct {
	id     string
	hasher password.Hasher
	now    func() time.Time
}

type UserOption func(*userOptions)

// WithID sets a fixed identifier instead of generating a ULID.
func WithID(id string) UserOption {
	return func(o *userOptions) {
		o.id = id
	}
}

// WithHasher overrides the default Argon2id hasher.
func WithHasher(h password.Hasher) UserOption {
	return func(o *userOptions) {
		o.hasher = h
	}
}

func WithCreatedAt(now func() time.Time) UserOption {
	return func(o *userOptions) {
		o.now = now
	}
}

// NewUser builds a user with a hashed password and the initial session version.
func NewUser(username, plainPassword string, opts ...UserOption) (*User, error) {
	o := userOptions{
		hasher: password.Argon2id{Params: password.DefaultArgon2idParams()},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidRequest, "username is required")
	}

	hash, err := o.hasher.Hash(plainPassword)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[users NewUser] hashing password")
	}

	id := o.id
	if id == "" {
		if id, err = ids.NewULID(o.now()); err != nil {
			return nil, apperrors.Wrapf(err, "[users NewUser] generating id")
		}
	}

	return &User{
		ID:             id,
		Username:       username,
		PasswordHash:   hash,
		SessionVersion: InitialSessionVersion,
		CreatedAt:      o.now().UTC(),
	}, nil
}

// CheckPassword reports whether candidate matches the stored hash.
func (u *User) CheckPassword(candidate string) bool {
	if u == nil || u.PasswordHash == "" {
		return false
	}
	return password.Verify(u.PasswordHash, candidate)
}

// Clone returns a copy that shares nothing with u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
