package users

import (
	"context"

	apperrors "github.com/jrsteele09/go-session-server/internal/errors"
)

var (
	ErrUserNotFound = apperrors.ErrUserNotFound
	ErrUserExists   = apperrors.ErrUserExists
)

// UserRepo is the credential store. Implementations return copies of their
// records, serialise writers, and make a completed BumpSessionVersion visible
// to every later read.
type UserRepo interface {
	// GetByID returns ErrUserNotFound when no user has the id.
	GetByID(ctx context.Context, id string) (*User, error)
	// GetByUsername returns ErrUserNotFound when no user has the username.
	GetByUsername(ctx context.Context, username string) (*User, error)
	// Add stores a new user, failing with ErrUserExists on a duplicate id or username.
	Add(ctx context.Context, user *User) error
	// BumpSessionVersion increments the user's session version. Unknown ids are a no-op.
	BumpSessionVersion(ctx context.Context, id string) error
}
