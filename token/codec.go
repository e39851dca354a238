package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Config holds the codec parameters. RefreshTTL must exceed AccessTTL by at
// least a second since exp is carried with second precision.
type Config struct {
	SigningKey []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Codec issues and verifies access and refresh tokens. It is safe for
// concurrent use and never consults the credential store.
type Codec struct {
	signer     Signer
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	nowFunc    func() time.Time
	newID      func() string
}

type CodecOption func(*Codec)

func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

// WithSigner replaces the HMAC signer built from Config.SigningKey.
func WithSigner(s Signer) CodecOption {
	return func(c *Codec) {
		c.signer = s
	}
}

func NewCodec(cfg Config, opts ...CodecOption) (*Codec, error) {
	c := &Codec{
		issuer:     strings.TrimSpace(cfg.Issuer),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		nowFunc:    time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.signer == nil {
		if len(cfg.SigningKey) == 0 {
			return nil, errors.Wrap(ErrInvalidConfig, "signing key is required")
		}
		c.signer = NewHMACSigner(cfg.SigningKey)
	}

	switch {
	case c.issuer == "":
		return nil, errors.Wrap(ErrInvalidConfig, "issuer is required")
	case c.accessTTL <= 0 || c.refreshTTL <= 0:
		return nil, errors.Wrap(ErrInvalidConfig, "token lifetimes must be positive")
	case c.refreshTTL-c.accessTTL < time.Second:
		return nil, errors.Wrap(ErrInvalidConfig, "refresh lifetime must exceed access lifetime by at least one second")
	}
	return c, nil
}

func (c *Codec) AccessTTL() time.Duration {
	return c.accessTTL
}

func (c *Codec) RefreshTTL() time.Duration {
	return c.refreshTTL
}

func (c *Codec) Issuer() string {
	return c.issuer
}

// Issue signs a new access/refresh pair for userID at sessionVersion.
func (c *Codec) Issue(userID string, sessionVersion uint64) (*Pair, error) {
	if userID == "" {
		return nil, errors.Wrap(ErrEncoding, "empty subject")
	}

	now := c.nowFunc()
	issuedAt := jwt.NewNumericDate(now)
	accessExp := ceilSecond(now.Add(c.accessTTL))
	refreshExp := ceilSecond(now.Add(c.refreshTTL))

	access, err := c.signer.Sign(&AccessClaims{
		Type: TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   userID,
			IssuedAt:  issuedAt,
			ExpiresAt: jwt.NewNumericDate(accessExp),
			ID:        c.newID(),
		},
	})
	if err != nil {
		return nil, errors.Wrap(ErrEncoding, err.Error())
	}

	refresh, err := c.signer.Sign(&RefreshClaims{
		Type:    TypeRefresh,
		Version: sessionVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   userID,
			IssuedAt:  issuedAt,
			ExpiresAt: jwt.NewNumericDate(refreshExp),
			ID:        c.newID(),
		},
	})
	if err != nil {
		return nil, errors.Wrap(ErrEncoding, err.Error())
	}

	return &Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// VerifyAccess returns ErrTokenExpired when the only fault is an elapsed exp,
// and ErrTokenMalformed for anything else.
func (c *Codec) VerifyAccess(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	_, err := c.parser().ParseWithClaims(raw, claims, c.signer.GetVerificationKey)
	if err != nil {
		if onlyExpired(err) && claims.Type == TypeAccess && claims.Subject != "" {
			return nil, errors.Wrap(ErrTokenExpired, "access token")
		}
		return nil, errors.Wrap(ErrTokenMalformed, err.Error())
	}
	if claims.Type != TypeAccess {
		return nil, errors.Wrap(ErrTokenMalformed, "not an access token")
	}
	if claims.Subject == "" {
		return nil, errors.Wrap(ErrTokenMalformed, "missing subject")
	}
	return claims, nil
}

// VerifyRefresh fails with ErrTokenMalformed for every fault, expiry included.
func (c *Codec) VerifyRefresh(raw string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if _, err := c.parser().ParseWithClaims(raw, claims, c.signer.GetVerificationKey); err != nil {
		return nil, errors.Wrap(ErrTokenMalformed, err.Error())
	}
	switch {
	case claims.Type != TypeRefresh:
		return nil, errors.Wrap(ErrTokenMalformed, "not a refresh token")
	case claims.Subject == "":
		return nil, errors.Wrap(ErrTokenMalformed, "missing subject")
	case claims.Version == 0:
		return nil, errors.Wrap(ErrTokenMalformed, "missing version")
	}
	return claims, nil
}

func (c *Codec) parser() *jwt.Parser {
	return jwt.NewParser(
		jwt.WithValidMethods([]string{c.signer.GetSigningMethod().Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.nowFunc),
	)
}

// onlyExpired reports whether err carries ErrTokenExpired and no other
// verification fault. The signature is checked before any claim, so an
// expired token with a bad signature never reports ErrTokenExpired.
func onlyExpired(err error) bool {
	if !errors.Is(err, jwt.ErrTokenExpired) {
		return false
	}
	for _, other := range []error{
		jwt.ErrTokenMalformed,
		jwt.ErrTokenUnverifiable,
		jwt.ErrTokenSignatureInvalid,
		jwt.ErrTokenInvalidIssuer,
		jwt.ErrTokenRequiredClaimMissing,
		jwt.ErrTokenNotValidYet,
		jwt.ErrTokenUsedBeforeIssued,
	} {
		if errors.Is(err, other) {
			return false
		}
	}
	return true
}

// ceilSecond rounds t up to a whole second so a token never expires before its full lifetime.
func ceilSecond(t time.Time) time.Time {
	truncated := t.Truncate(time.Second)
	if truncated.Equal(t) {
		return t
	}
	return truncated.Add(time.Second)
}
