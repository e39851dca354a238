package token

import "github.com/pkg/errors"

var (
	// ErrTokenExpired is returned by VerifyAccess only when the token is
	// otherwise valid and its exp has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMalformed covers every other verification failure.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrEncoding means a pair could not be signed. It is an internal failure.
	ErrEncoding = errors.New("token encoding failed")
	// ErrInvalidConfig is returned by NewCodec.
	ErrInvalidConfig = errors.New("invalid token codec configuration")
)
