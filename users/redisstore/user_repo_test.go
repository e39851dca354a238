package redisstore_test

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-session-server/users"
	"github.com/jrsteele09/go-session-server/users/redisstore"
	"github.com/jrsteele09/go-session-server/users/repotest"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*redisstore.UserRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	repo, err := redisstore.Dial(context.Background(), redisstore.Options{Addr: mr.Addr(), Prefix: "test:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo, mr
}

func TestUserRepo_Contract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) users.UserRepo {
		repo, _ := newTestRepo(t)
		return repo
	})
}

func TestUserRepo_KeyLayout(t *testing.T) {
	ctx := context.Background()
	repo, mr := newTestRepo(t)

	require.NoError(t, repo.Add(ctx, &users.User{ID: "12345", Username: "JJ", PasswordHash: "h", SessionVersion: 3}))
	require.True(t, mr.Exists("test:user:12345"))
	require.Equal(t, "3", mr.HGet("test:user:12345", "session_version"))

	id, err := mr.Get("test:username:JJ")
	require.NoError(t, err)
	require.Equal(t, "12345", id)

	require.NoError(t, repo.BumpSessionVersion(ctx, "12345"))
	require.Equal(t, "4", mr.HGet("test:user:12345", "session_version"))
}

func TestUserRepo_BumpUnknownCreatesNothing(t *testing.T) {
	repo, mr := newTestRepo(t)
	require.NoError(t, repo.BumpSessionVersion(context.Background(), "ghost"))
	require.False(t, mr.Exists("test:user:ghost"))
}

func TestUserRepo_CorruptRecord(t *testing.T) {
	repo, mr := newTestRepo(t)
	mr.HSet("test:user:bad", "id", "bad", "username", "bad", "session_version", "not-a-number")

	_, err := repo.GetByID(context.Background(), "bad")
	require.Error(t, err)
	require.NotErrorIs(t, err, users.ErrUserNotFound)
}

func TestDial_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := redisstore.Dial(context.Background(), redisstore.Options{Addr: addr})
	require.Error(t, err)

	_, err = redisstore.Dial(context.Background(), redisstore.Options{})
	require.Error(t, err)
}
