package config

import "strings"

const (
	passwordHasherVar = "PASSWORD_HASHER"
	revokeAdminKeyVar = "REVOKE_ADMIN_KEY"

	HasherArgon2id = "argon2id"
	HasherBcrypt   = "bcrypt"
)

type SecurityConfig interface {
	GetPasswordHasher() string
	GetRevokeAdminKey() string
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetPasswordHasher names the algorithm used for newly stored password hashes.
// Stored hashes of either kind always verify.
func (Security) GetPasswordHasher() string {
	switch h := strings.ToLower(GetEnv(passwordHasherVar, HasherArgon2id)); h {
	case HasherBcrypt:
		return h
	default:
		return HasherArgon2id
	}
}

// GetRevokeAdminKey returns the bearer key that may revoke any user's sessions.
// Empty disables admin revocation; users can still revoke their own sessions.
func (Security) GetRevokeAdminKey() string {
	return GetEnv(revokeAdminKeyVar, "")
}
