// Package repotest holds the behaviour every users.UserRepo driver must share.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-session-server/users"
	"github.com/stretchr/testify/require"
)

// Run exercises newRepo against the UserRepo contract. newRepo must return an
// empty store for every call.
func Run(t *testing.T, newRepo func(t *testing.T) users.UserRepo) {
	t.Helper()
	ctx := context.Background()

	fixture := func() *users.User {
		return &users.User{
			ID:             "12345",
			Username:       "JJ",
			PasswordHash:   "$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$a2V5",
			SessionVersion: 1,
			CreatedAt:      time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		}
	}

	t.Run("add and get", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Add(ctx, fixture()))

		byID, err := repo.GetByID(ctx, "12345")
		require.NoError(t, err)
		require.Equal(t, "JJ", byID.Username)
		require.Equal(t, fixture().PasswordHash, byID.PasswordHash)
		require.Equal(t, uint64(1), byID.SessionVersion)

		byName, err := repo.GetByUsername(ctx, "JJ")
		require.NoError(t, err)
		require.Equal(t, "12345", byName.ID)
	})

	t.Run("not found", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetByID(ctx, "missing")
		require.ErrorIs(t, err, users.ErrUserNotFound)
		_, err = repo.GetByUsername(ctx, "missing")
		require.ErrorIs(t, err, users.ErrUserNotFound)
	})

	t.Run("duplicate id or username", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Add(ctx, fixture()))

		dupID := fixture()
		dupID.Username = "someone-else"
		require.ErrorIs(t, repo.Add(ctx, dupID), users.ErrUserExists)

		dupName := fixture()
		dupName.ID = "67890"
		require.ErrorIs(t, repo.Add(ctx, dupName), users.ErrUserExists)

		_, err := repo.GetByID(ctx, "67890")
		require.ErrorIs(t, err, users.ErrUserNotFound)
	})

	t.Run("bump is monotonic and visible", func(t *testing.T) {
		repo := newRepo(t)
		u := fixture()
		u.SessionVersion = 3
		require.NoError(t, repo.Add(ctx, u))

		require.NoError(t, repo.BumpSessionVersion(ctx, "12345"))
		got, err := repo.GetByID(ctx, "12345")
		require.NoError(t, err)
		require.Equal(t, uint64(4), got.SessionVersion)

		require.NoError(t, repo.BumpSessionVersion(ctx, "12345"))
		got, err = repo.GetByUsername(ctx, "JJ")
		require.NoError(t, err)
		require.Equal(t, uint64(5), got.SessionVersion)
	})

	t.Run("bump unknown id is a no-op", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.BumpSessionVersion(ctx, "ghost"))
		_, err := repo.GetByID(ctx, "ghost")
		require.ErrorIs(t, err, users.ErrUserNotFound)
	})

	t.Run("returned users are copies", func(t *testing.T) {
		repo := newRepo(t)
		u := fixture()
		require.NoError(t, repo.Add(ctx, u))
		u.SessionVersion = 99

		got, err := repo.GetByID(ctx, "12345")
		require.NoError(t, err)
		got.SessionVersion = 42
		got.Username = "mutated"

		again, err := repo.GetByID(ctx, "12345")
		require.NoError(t, err)
		require.Equal(t, uint64(1), again.SessionVersion)
		require.Equal(t, "JJ", again.Username)
	})
}
