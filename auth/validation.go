package auth

import (
	"strings"

	apperrors "github.com/jrsteele09/go-session-server/internal/errors"
	"github.com/jrsteele09/go-session-server/users/password"
)

const maxUsernameLength = 255

// Validator checks request input before it reaches the store.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateLoginRequest checks the presence and size of login credentials. It
// does not apply the password policy, so existing users with older passwords
// can still log in.
func (v *Validator) ValidateLoginRequest(username, plainPassword string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return apperrors.Wrapf(ErrInvalidRequest, "username is required")
	}
	if len(username) > maxUsernameLength {
		return apperrors.Wrapf(ErrInvalidRequest, "username is too long")
	}
	if plainPassword == "" {
		return apperrors.Wrapf(ErrInvalidRequest, "password is required")
	}
	if len(plainPassword) > password.MaxLength {
		return apperrors.Wrapf(ErrInvalidRequest, "password is too long")
	}
	return nil
}

// ValidateUserID checks a user id taken from a request path.
func (v *Validator) ValidateUserID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperrors.Wrapf(ErrInvalidRequest, "user id is required")
	}
	if strings.ContainsAny(id, "/ \t\r\n") {
		return apperrors.Wrapf(ErrInvalidRequest, "invalid user id")
	}
	return nil
}
