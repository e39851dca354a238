// Package password hashes and verifies stored user passwords.
//
// Two encodings are understood: PHC-style argon2id strings
// ($argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt>$<key>) and bcrypt strings.
// Verify picks the algorithm from the stored hash, so either can be the
// configured default for new hashes without invalidating existing users.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const argon2Version = 19 // argon2.Version is 0x13

var (
	ErrInvalidHash      = errors.New("invalid password hash")
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
)

const (
	MinLength = 8
	MaxLength = 256
)

// Argon2idParams are the Argon2id cost parameters. MemoryKiB is in KiB as required by argon2.IDKey.
type Argon2idParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2idParams follows the RFC 9106 second recommended option.
func DefaultArgon2idParams() Argon2idParams {
	return Argon2idParams{
		MemoryKiB:   64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Hasher produces an encoded hash for a new password.
type Hasher interface {
	Hash(password string) (string, error)
}

// Argon2id hashes with the given parameters.
type Argon2id struct {
	Params Argon2idParams
}

func (a Argon2id) Hash(password string) (string, error) {
	return HashArgon2id(password, a.Params)
}

// Bcrypt hashes with the given cost (bcrypt.DefaultCost when zero).
type Bcrypt struct {
	Cost int
}

func (b Bcrypt) Hash(password string) (string, error) {
	return HashBcrypt(password, b.Cost)
}

// NewHasher returns the hasher registered under name ("argon2id" or "bcrypt").
func NewHasher(name string) (Hasher, error) {
	switch strings.ToLower(name) {
	case "", "argon2id":
		return Argon2id{Params: DefaultArgon2idParams()}, nil
	case "bcrypt":
		return Bcrypt{Cost: bcrypt.DefaultCost}, nil
	default:
		return nil, fmt.Errorf("unknown password hasher %q", name)
	}
}

func checkLength(password string) error {
	if len(password) < MinLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxLength {
		return ErrPasswordTooLong
	}
	return nil
}

// HashArgon2id returns a PHC-style Argon2id hash string.
func HashArgon2id(password string, p Argon2idParams) (string, error) {
	if err := checkLength(password); err != nil {
		return "", err
	}

	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, p.Iterations, p.MemoryKiB, p.Parallelism, p.KeyLength)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Version,
		p.MemoryKiB,
		p.Iterations,
		p.Parallelism,
		b64.EncodeToString(salt),
		b64.EncodeToString(key),
	), nil
}

// HashBcrypt returns a bcrypt hash string.
func HashBcrypt(password string, cost int) (string, error) {
	if err := checkLength(password); err != nil {
		return "", err
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether password matches the encoded hash. Malformed or
// unsupported hashes never match.
func Verify(encoded, password string) bool {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		ok, err := verifyArgon2id(encoded, password)
		return err == nil && ok
	case strings.HasPrefix(encoded, "$2a$"), strings.HasPrefix(encoded, "$2b$"), strings.HasPrefix(encoded, "$2y$"):
		return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password)) == nil
	default:
		return false
	}
}

func verifyArgon2id(encoded, password string) (bool, error) {
	params, salt, expected, err := decodeArgon2id(encoded)
	if err != nil {
		return false, err
	}
	if !withinReasonableBounds(params) {
		return false, ErrInvalidHash
	}

	key := argon2.IDKey([]byte(password), salt, params.Iterations, params.MemoryKiB, params.Parallelism, uint32(len(expected))) // #nosec G115 -- bounded by withinReasonableBounds
	return subtle.ConstantTimeCompare(key, expected) == 1, nil
}

// withinReasonableBounds refuses stored hashes whose cost would make a single
// verification pathological.
func withinReasonableBounds(p Argon2idParams) bool {
	limits := DefaultArgon2idParams()
	switch {
	case p.MemoryKiB > limits.MemoryKiB*4:
		return false
	case p.Iterations > limits.Iterations*4:
		return false
	case p.SaltLength < 8 || p.SaltLength > 64:
		return false
	case p.KeyLength < 16 || p.KeyLength > 128:
		return false
	}
	return true
}

func decodeArgon2id(encoded string) (Argon2idParams, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2Version) {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	var mem, it, par uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &it, &par); err != nil {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	if mem == 0 || it == 0 || par == 0 || par > 255 {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	return Argon2idParams{
		MemoryKiB:   mem,
		Iterations:  it,
		Parallelism: uint8(par),
		SaltLength:  uint32(len(salt)), // #nosec G115 -- bounded by the encoded string
		KeyLength:   uint32(len(key)),  // #nosec G115 -- bounded by the encoded string
	}, salt, key, nil
}
