package users_test

import (
	"testing"
	"time"

	apperrors "github.com/jrsteele09/go-session-server/internal/errors"
	"github.com/jrsteele09/go-session-server/users"
	"github.com/jrsteele09/go-session-server/users/password"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewUser(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	u, err := users.NewUser(" JJ ", "passw0rd",
		users.WithHasher(password.Bcrypt{Cost: bcrypt.MinCost}),
		users.WithCreatedAt(func() time.Time { return created }),
	)
	require.NoError(t, err)
	require.Equal(t, "JJ", u.Username)
	require.Len(t, u.ID, 26)
	require.Equal(t, users.InitialSessionVersion, u.SessionVersion)
	require.Equal(t, created, u.CreatedAt)
	require.NotEqual(t, "passw0rd", u.PasswordHash)

	require.True(t, u.CheckPassword("passw0rd"))
	require.False(t, u.CheckPassword("wrong-password"))
}

func TestNewUser_DefaultHasherIsArgon2id(t *testing.T) {
	u, err := users.NewUser("JJ", "passw0rd", users.WithID("12345"))
	require.NoError(t, err)
	require.Equal(t, "12345", u.ID)
	require.Contains(t, u.PasswordHash, "$argon2id$")
	require.True(t, u.CheckPassword("passw0rd"))
}

func TestNewUser_Invalid(t *testing.T) {
	_, err := users.NewUser("  ", "passw0rd")
	require.ErrorIs(t, err, apperrors.ErrInvalidRequest)

	_, err = users.NewUser("JJ", "short")
	require.ErrorIs(t, err, password.ErrPasswordTooShort)
}

func TestCheckPassword_NoHash(t *testing.T) {
	var nilUser *users.User
	require.False(t, nilUser.CheckPassword("anything"))
	require.False(t, (&users.User{}).CheckPassword(""))
}

func TestClone(t *testing.T) {
	u := &users.User{ID: "1", Username: "JJ", SessionVersion: 3}
	c := u.Clone()
	c.SessionVersion = 4
	require.Equal(t, uint64(3), u.SessionVersion)
}
