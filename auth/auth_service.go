package auth

import (
	"context"
	"strings"
	"time"

	"github.com/jrsteele09/go-session-server/session"
	"github.com/jrsteele09/go-session-server/token"
	"github.com/jrsteele09/go-session-server/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Metrics receives login, resolution and revocation outcomes.
type Metrics interface {
	ObserveLogin(outcome string)
	ObserveResolution(outcome string)
	ObserveRevocation()
}

// Login outcomes reported to Metrics.
const (
	LoginSucceeded       = "success"
	LoginUnknownUser     = "unknown_user"
	LoginBadPassword     = "bad_password"
	LoginInvalidRequest  = "invalid_request"
	LoginInternalFailure = "internal"
)

// LoginResult is returned by a successful Login.
type LoginResult struct {
	User   *users.User
	Tokens *token.Pair
}

// Service is the session-facing API used by the HTTP handlers: it logs users
// in, resolves sessions from cookies and revokes a user's sessions.
type Service struct {
	users     users.UserRepo
	codec     *token.Codec
	resolver  *session.Resolver
	validator *Validator
	metrics   Metrics
	logger    zerolog.Logger
	nowTime   func() time.Time // nowTime function (injectable for testing)
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

func WithMetrics(m Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger sets the logger used by the service and its resolver.
func WithLogger(l zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService wires the store and codec together. The codec's clock is the
// source of truth for token times; WithNowTime only affects service-level
// timestamps such as the last login log line.
func NewService(userRepo users.UserRepo, codec *token.Codec, options ...ServiceOption) (*Service, error) {
	if userRepo == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if codec == nil {
		return nil, errors.New("[NewService] token codec is required")
	}

	s := &Service{
		users:     userRepo,
		codec:     codec,
		validator: NewValidator(),
		metrics:   nopMetrics{},
		logger:    zerolog.Nop(),
		nowTime:   time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	s.resolver = session.NewResolver(codec, userRepo, session.WithLogger(s.logger))
	return s, nil
}

// Codec exposes the token codec, e.g. for cookie lifetimes.
func (s *Service) Codec() *token.Codec {
	return s.codec
}

// Login checks the credentials and issues a fresh pair at the user's current
// session version.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if err := s.validator.ValidateLoginRequest(username, password); err != nil {
		s.metrics.ObserveLogin(LoginInvalidRequest)
		return nil, err
	}
	username = strings.TrimSpace(username)

	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, users.ErrUserNotFound) {
		s.metrics.ObserveLogin(LoginUnknownUser)
		return nil, ErrUserNotFound
	}
	if err != nil {
		s.metrics.ObserveLogin(LoginInternalFailure)
		return nil, errors.Wrap(err, "[Service.Login] GetByUsername")
	}

	if !user.CheckPassword(password) {
		s.metrics.ObserveLogin(LoginBadPassword)
		return nil, ErrInvalidCredentials
	}

	pair, err := s.codec.Issue(user.ID, user.SessionVersion)
	if err != nil {
		s.metrics.ObserveLogin(LoginInternalFailure)
		return nil, errors.Wrap(err, "[Service.Login] Issue")
	}

	s.metrics.ObserveLogin(LoginSucceeded)
	s.logger.Info().Str("user_id", user.ID).Time("at", s.nowTime()).Msg("user logged in")
	return &LoginResult{User: user, Tokens: pair}, nil
}

// Resolve authenticates a request from its cookies. See session.Resolver.
func (s *Service) Resolve(ctx context.Context, accessToken, refreshToken *string) (*session.Session, error) {
	sess, err := s.resolver.Resolve(ctx, accessToken, refreshToken)
	if err != nil {
		s.metrics.ObserveResolution(session.Reason(err))
		return nil, err
	}
	s.metrics.ObserveResolution(sess.Outcome())
	return sess, nil
}

// CurrentUser loads the user behind a resolved session. A user that no longer
// exists invalidates the session.
func (s *Service) CurrentUser(ctx context.Context, sess *session.Session) (*users.User, error) {
	if sess == nil || sess.UserID == "" {
		return nil, session.ErrInvalidAccessToken
	}
	user, err := s.users.GetByID(ctx, sess.UserID)
	if errors.Is(err, users.ErrUserNotFound) {
		return nil, session.ErrInvalidAccessToken
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Service.CurrentUser] GetByID")
	}
	return user, nil
}

// Revoke invalidates every refresh token issued to userID so far. Access
// tokens already handed out stay valid until they expire.
func (s *Service) Revoke(ctx context.Context, userID string) error {
	if err := s.validator.ValidateUserID(userID); err != nil {
		return err
	}
	if err := s.users.BumpSessionVersion(ctx, userID); err != nil {
		return errors.Wrap(err, "[Service.Revoke] BumpSessionVersion")
	}
	s.metrics.ObserveRevocation()
	s.logger.Info().Str("user_id", userID).Time("at", s.nowTime()).Msg("sessions revoked")
	return nil
}

// CanRevoke reports whether the holder of sess may revoke userID's sessions.
// Users may only revoke their own.
func CanRevoke(sess *session.Session, userID string) bool {
	return sess != nil && sess.UserID != "" && sess.UserID == userID
}

type nopMetrics struct{}

func (nopMetrics) ObserveLogin(string)      {}
func (nopMetrics) ObserveResolution(string) {}
func (nopMetrics) ObserveRevocation()       {}
