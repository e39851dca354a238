package storage

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jrsteele09/go-session-server/users"
	"github.com/jrsteele09/go-session-server/users/password"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// SeedUser is one entry of a seed file.
type SeedUser struct {
	ID       string `yaml:"id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type seedFile struct {
	Users []SeedUser `yaml:"users"`
}

// DevSeedUsers is used in DEV when no seed file is configured.
var DevSeedUsers = []SeedUser{
	{ID: "12345", Username: "JJ", Password: "passw0rd"},
}

// LoadSeedFile reads a YAML document of the form
//
//	users:
//	  - id: "12345"
//	    username: JJ
//	    password: passw0rd
func LoadSeedFile(path string) ([]SeedUser, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- operator supplied path
	if err != nil {
		return nil, fmt.Errorf("[storage LoadSeedFile] %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("[storage LoadSeedFile] parsing %s: %w", path, err)
	}
	for i, u := range f.Users {
		if u.Username == "" || u.Password == "" {
			return nil, fmt.Errorf("[storage LoadSeedFile] entry %d: username and password are required", i)
		}
	}
	return f.Users, nil
}

// Seed adds every seed user that is not already present. Existing users are
// left untouched, so restarting never resets a session version.
func Seed(ctx context.Context, repo users.UserRepo, hasher password.Hasher, seeds []SeedUser) (int, error) {
	added := 0
	for _, s := range seeds {
		if _, err := repo.GetByUsername(ctx, s.Username); err == nil {
			continue
		} else if !errors.Is(err, users.ErrUserNotFound) {
			return added, fmt.Errorf("[storage Seed] looking up %s: %w", s.Username, err)
		}

		opts := []users.UserOption{users.WithHasher(hasher)}
		if s.ID != "" {
			opts = append(opts, users.WithID(s.ID))
		}
		u, err := users.NewUser(s.Username, s.Password, opts...)
		if err != nil {
			return added, fmt.Errorf("[storage Seed] %s: %w", s.Username, err)
		}

		err = repo.Add(ctx, u)
		if errors.Is(err, users.ErrUserExists) {
			log.Warn().Str("username", s.Username).Msg("seed user id already taken, skipping")
			continue
		}
		if err != nil {
			return added, fmt.Errorf("[storage Seed] adding %s: %w", s.Username, err)
		}
		added++
	}
	return added, nil
}
