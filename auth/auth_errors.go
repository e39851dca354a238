package auth

import (
	apperrors "github.com/jrsteele09/go-session-server/internal/errors"
)

var (
	ErrUserNotFound       = apperrors.ErrUserNotFound
	ErrInvalidCredentials = apperrors.ErrInvalidCredentials
	ErrInvalidRequest     = apperrors.ErrInvalidRequest
	ErrForbidden          = apperrors.ErrForbidden
)
