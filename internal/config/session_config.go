package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	signingKeyVar = "SESSION_SIGNING_KEY"
	issuerVar     = "SESSION_ISSUER"
	accessTTLVar  = "ACCESS_TOKEN_TTL"
	refreshTTLVar = "REFRESH_TOKEN_TTL"

	DefaultIssuer     = "handrolled-auth-api"
	DefaultAccessTTL  = 5 * time.Minute
	DefaultRefreshTTL = 30 * 24 * time.Hour

	minSigningKeyLen = 32
)

type SessionConfig interface {
	GetSigningKey() string
	GetIssuer() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
}

type Session struct{}

var _ SessionConfig = Session{}

var (
	devKeyOnce sync.Once
	devKey     string
)

// GetSigningKey returns the symmetric token signing key. When unset in DEV a random
// key is generated once per process, so tokens do not survive a restart.
func (Session) GetSigningKey() string {
	if key := GetEnv(signingKeyVar, ""); key != "" {
		return key
	}
	if (EnvVars{}).GetEnv() != EnvDev {
		return ""
	}
	devKeyOnce.Do(func() {
		b := make([]byte, minSigningKeyLen)
		if _, err := rand.Read(b); err != nil {
			panic("config: failed to generate development signing key: " + err.Error())
		}
		devKey = hex.EncodeToString(b)
		log.Warn().Msgf("%s not set, using an ephemeral development key", signingKeyVar)
	})
	return devKey
}

func (Session) GetIssuer() string {
	return GetEnv(issuerVar, DefaultIssuer)
}

func (Session) GetAccessTokenTTL() time.Duration {
	return GetDurationEnv(accessTTLVar, DefaultAccessTTL)
}

func (Session) GetRefreshTokenTTL() time.Duration {
	return GetDurationEnv(refreshTTLVar, DefaultRefreshTTL)
}

func validateSession(c SessionConfig) error {
	key := c.GetSigningKey()
	if key == "" {
		return fmt.Errorf("[config Validate] %s is required", signingKeyVar)
	}
	if len(key) < minSigningKeyLen {
		return fmt.Errorf("[config Validate] %s must be at least %d bytes", signingKeyVar, minSigningKeyLen)
	}
	if c.GetAccessTokenTTL() >= c.GetRefreshTokenTTL() {
		return fmt.Errorf("[config Validate] %s (%s) must be shorter than %s (%s)",
			accessTTLVar, c.GetAccessTokenTTL(), refreshTTLVar, c.GetRefreshTokenTTL())
	}
	return nil
}
