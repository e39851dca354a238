package auth_test

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-session-server/auth"
	"github.com/jrsteele09/go-session-server/internal/utils"
	"github.com/jrsteele09/go-session-server/session"
	"github.com/jrsteele09/go-session-server/token"
	"github.com/jrsteele09/go-session-server/users"
	"github.com/jrsteele09/go-session-server/users/inmemory"
	"github.com/jrsteele09/go-session-server/users/password"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	issuer           = "handrolled-auth-api"
	testUserID       = "12345"
	testUsername     = "JJ"
	testUserPassword = "passw0rd"
	accessTTL        = 5 * time.Minute
)

// testFixture holds all test dependencies
type testFixture struct {
	now      time.Time
	userRepo *inmemory.UserRepo
	codec    *token.Codec
	metrics  *recordingMetrics
	logs     *bytes.Buffer
	service  *auth.Service
}

// setupTestFixture creates a new test fixture with all dependencies
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		now:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		userRepo: inmemory.NewUserRepo(),
		metrics:  &recordingMetrics{},
		logs:     &bytes.Buffer{},
	}
	nowFunc := func() time.Time { return f.now }

	codec, err := token.NewCodec(token.Config{
		SigningKey: []byte("0123456789abcdef0123456789abcdef"),
		Issuer:     issuer,
		AccessTTL:  accessTTL,
		RefreshTTL: 30 * 24 * time.Hour,
	}, token.WithNowFunc(nowFunc))
	require.NoError(t, err)
	f.codec = codec

	f.service, err = auth.NewService(f.userRepo, codec,
		auth.WithNowTime(nowFunc),
		auth.WithMetrics(f.metrics),
		auth.WithLogger(zerolog.New(f.logs)),
	)
	require.NoError(t, err)

	f.addUser(t, testUserID, testUsername, testUserPassword)
	return f
}

func (f *testFixture) addUser(t *testing.T, id, username, pw string) *users.User {
	t.Helper()
	u, err := users.NewUser(username, pw,
		users.WithID(id),
		users.WithHasher(password.Bcrypt{Cost: bcrypt.MinCost}),
	)
	require.NoError(t, err)
	require.NoError(t, f.userRepo.Add(context.Background(), u))
	return u
}

func TestNewService_Validation(t *testing.T) {
	f := setupTestFixture(t)

	_, err := auth.NewService(nil, f.codec)
	require.Error(t, err)

	_, err = auth.NewService(f.userRepo, nil)
	require.Error(t, err)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := setupTestFixture(t)

		result, err := f.service.Login(ctx, testUsername, testUserPassword)
		require.NoError(t, err)
		require.Equal(t, testUserID, result.User.ID)

		access, err := f.codec.VerifyAccess(result.Tokens.AccessToken)
		require.NoError(t, err)
		require.Equal(t, testUserID, access.Subject)

		refresh, err := f.codec.VerifyRefresh(result.Tokens.RefreshToken)
		require.NoError(t, err)
		require.Equal(t, users.InitialSessionVersion, refresh.Version)
		require.Equal(t, []string{auth.LoginSucceeded}, f.metrics.logins)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.service.Login(ctx, "nobody", testUserPassword)
		require.ErrorIs(t, err, auth.ErrUserNotFound)
		require.Equal(t, []string{auth.LoginUnknownUser}, f.metrics.logins)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.service.Login(ctx, testUsername, "wr0ng-password")
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
		require.Equal(t, []string{auth.LoginBadPassword}, f.metrics.logins)
	})

	t.Run("missing fields", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.service.Login(ctx, "", testUserPassword)
		require.ErrorIs(t, err, auth.ErrInvalidRequest)
		_, err = f.service.Login(ctx, testUsername, "")
		require.ErrorIs(t, err, auth.ErrInvalidRequest)
	})

	t.Run("login issues at the current session version", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.userRepo.BumpSessionVersion(ctx, testUserID))

		result, err := f.service.Login(ctx, testUsername, testUserPassword)
		require.NoError(t, err)
		refresh, err := f.codec.VerifyRefresh(result.Tokens.RefreshToken)
		require.NoError(t, err)
		require.Equal(t, uint64(2), refresh.Version)
	})
}

func TestLogin_TwoLoginsGiveDistinctValidPairs(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)

	first, err := f.service.Login(ctx, testUsername, testUserPassword)
	require.NoError(t, err)
	second, err := f.service.Login(ctx, testUsername, testUserPassword)
	require.NoError(t, err)

	require.NotEqual(t, first.Tokens.AccessToken, second.Tokens.AccessToken)
	require.NotEqual(t, first.Tokens.RefreshToken, second.Tokens.RefreshToken)

	for _, pair := range []*token.Pair{first.Tokens, second.Tokens} {
		sess, err := f.service.Resolve(ctx, &pair.AccessToken, &pair.RefreshToken)
		require.NoError(t, err)
		require.Equal(t, testUserID, sess.UserID)
	}
}

func TestResolveAndRevoke(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)

	login, err := f.service.Login(ctx, testUsername, testUserPassword)
	require.NoError(t, err)
	pair := login.Tokens

	sess, err := f.service.Resolve(ctx, &pair.AccessToken, &pair.RefreshToken)
	require.NoError(t, err)
	require.False(t, sess.Rotated())

	f.now = f.now.Add(accessTTL)
	sess, err = f.service.Resolve(ctx, &pair.AccessToken, &pair.RefreshToken)
	require.NoError(t, err)
	require.True(t, sess.Rotated())

	require.NoError(t, f.service.Revoke(ctx, testUserID))
	_, err = f.service.Resolve(ctx, &pair.AccessToken, &pair.RefreshToken)
	require.ErrorIs(t, err, session.ErrRevokedRefreshToken)

	// the rotated pair carried the old version too
	_, err = f.service.Resolve(ctx, nil, &sess.NewTokens.RefreshToken)
	require.ErrorIs(t, err, session.ErrRevokedRefreshToken)

	require.Equal(t, []string{
		session.OutcomeAccessValid,
		session.OutcomeRotated,
		session.ReasonRevokedRefresh,
		session.ReasonRevokedRefresh,
	}, f.metrics.resolutions)
	require.Equal(t, 1, f.metrics.revocations)
	require.Contains(t, f.logs.String(), "sessions revoked")
}

func TestRevoke_Validation(t *testing.T) {
	f := setupTestFixture(t)
	require.ErrorIs(t, f.service.Revoke(context.Background(), ""), auth.ErrInvalidRequest)

	// unknown ids are accepted and change nothing
	require.NoError(t, f.service.Revoke(context.Background(), "ghost"))
}

func TestCurrentUser(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)

	u, err := f.service.CurrentUser(ctx, &session.Session{UserID: testUserID})
	require.NoError(t, err)
	require.Equal(t, testUsername, u.Username)

	_, err = f.service.CurrentUser(ctx, &session.Session{UserID: "ghost"})
	require.ErrorIs(t, err, session.ErrInvalidAccessToken)

	_, err = f.service.CurrentUser(ctx, nil)
	require.ErrorIs(t, err, session.ErrInvalidAccessToken)
}

func TestCanRevoke(t *testing.T) {
	require.True(t, auth.CanRevoke(&session.Session{UserID: "a"}, "a"))
	require.False(t, auth.CanRevoke(&session.Session{UserID: "a"}, "b"))
	require.False(t, auth.CanRevoke(nil, "a"))
	require.False(t, auth.CanRevoke(&session.Session{}, ""))
}

func TestResolve_AbsentCookies(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.service.Resolve(context.Background(), utils.NonZeroPtr(""), nil)
	require.ErrorIs(t, err, session.ErrMissingRefreshToken)
	require.Equal(t, []string{session.ReasonMissingRefresh}, f.metrics.resolutions)
}

type recordingMetrics struct {
	mu          sync.Mutex
	logins      []string
	resolutions []string
	revocations int
}

func (m *recordingMetrics) ObserveLogin(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logins = append(m.logins, outcome)
}

func (m *recordingMetrics) ObserveResolution(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolutions = append(m.resolutions, outcome)
}

func (m *recordingMetrics) ObserveRevocation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revocations++
}
