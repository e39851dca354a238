package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-session-server/internal/config"
	"github.com/jrsteele09/go-session-server/internal/storage"
	"github.com/jrsteele09/go-session-server/users"
	"github.com/jrsteele09/go-session-server/users/inmemory"
	"github.com/jrsteele09/go-session-server/users/password"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testHasher = password.Bcrypt{Cost: bcrypt.MinCost}

func TestNew_Memory(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	store, err := storage.New(context.Background(), config.New())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.Equal(t, config.DriverMemory, store.Driver)
	require.IsType(t, &inmemory.UserRepo{}, store.Users)
}

func TestNew_SQLite(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "nested", "users.db"))

	store, err := storage.New(context.Background(), config.New())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Users.Add(context.Background(), &users.User{ID: "1", Username: "JJ", PasswordHash: "h", SessionVersion: 1}))
	_, err = store.Users.GetByID(context.Background(), "1")
	require.NoError(t, err)
}

func TestNew_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("REDIS_ADDR", mr.Addr())

	store, err := storage.New(context.Background(), config.New())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.Equal(t, config.DriverRedis, store.Driver)
}

func TestNew_Unsupported(t *testing.T) {
	t.Setenv("STORE_DRIVER", "cassandra")
	_, err := storage.New(context.Background(), config.New())
	require.Error(t, err)
}

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`users:
  - id: "12345"
    username: JJ
    password: passw0rd
  - username: alex
    password: correct-horse
`), 0o600))

	seeds, err := storage.LoadSeedFile(path)
	require.NoError(t, err)
	require.Equal(t, []storage.SeedUser{
		{ID: "12345", Username: "JJ", Password: "passw0rd"},
		{Username: "alex", Password: "correct-horse"},
	}, seeds)
}

func TestLoadSeedFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	_, err := storage.LoadSeedFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("users:\n  - username: JJ\n"), 0o600))
	_, err = storage.LoadSeedFile(bad)
	require.ErrorContains(t, err, "username and password are required")
}

func TestSeed_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := inmemory.NewUserRepo()

	added, err := storage.Seed(ctx, repo, testHasher, storage.DevSeedUsers)
	require.NoError(t, err)
	require.Equal(t, 1, added)

	require.NoError(t, repo.BumpSessionVersion(ctx, "12345"))

	added, err = storage.Seed(ctx, repo, testHasher, storage.DevSeedUsers)
	require.NoError(t, err)
	require.Equal(t, 0, added)

	u, err := repo.GetByUsername(ctx, "JJ")
	require.NoError(t, err)
	require.Equal(t, "12345", u.ID)
	require.Equal(t, uint64(2), u.SessionVersion)
	require.True(t, u.CheckPassword("passw0rd"))
}

func TestSeed_GeneratesIDs(t *testing.T) {
	ctx := context.Background()
	repo := inmemory.NewUserRepo()

	_, err := storage.Seed(ctx, repo, testHasher, []storage.SeedUser{{Username: "alex", Password: "correct-horse"}})
	require.NoError(t, err)

	u, err := repo.GetByUsername(ctx, "alex")
	require.NoError(t, err)
	require.Len(t, u.ID, 26)
}
