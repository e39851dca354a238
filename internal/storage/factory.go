// Package storage builds the credential store selected by configuration.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jrsteele09/go-session-server/internal/config"
	"github.com/jrsteele09/go-session-server/users"
	"github.com/jrsteele09/go-session-server/users/inmemory"
	"github.com/jrsteele09/go-session-server/users/pgstore"
	"github.com/jrsteele09/go-session-server/users/redisstore"
	"github.com/jrsteele09/go-session-server/users/sqlstore"
)

// Store is an opened credential store and the function that releases it.
type Store struct {
	Driver string
	Users  users.UserRepo
	close  func() error
}

func (s *Store) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}

// New opens the store for cfg's driver. An empty driver selects memory.
func New(ctx context.Context, cfg config.StorageConfig) (*Store, error) {
	driver := cfg.GetStoreDriver()
	if driver == "" {
		driver = config.DriverMemory
	}

	switch driver {
	case config.DriverMemory:
		return &Store{Driver: driver, Users: inmemory.NewUserRepo()}, nil

	case config.DriverSQLite:
		path := cfg.GetSQLitePath()
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("[storage New] creating %s: %w", dir, err)
			}
		}
		repo, err := sqlstore.Open(path)
		if err != nil {
			return nil, err
		}
		return &Store{Driver: driver, Users: repo, close: repo.Close}, nil

	case config.DriverRedis:
		repo, err := redisstore.Dial(ctx, redisstore.Options{
			Addr:     cfg.GetRedisAddr(),
			Password: cfg.GetRedisPassword(),
			DB:       cfg.GetRedisDB(),
			Prefix:   cfg.GetRedisPrefix(),
		})
		if err != nil {
			return nil, err
		}
		return &Store{Driver: driver, Users: repo, close: repo.Close}, nil

	case config.DriverPostgres:
		pool, err := pgstore.Connect(ctx, cfg.GetDatabaseURL())
		if err != nil {
			return nil, err
		}
		repo, err := pgstore.New(pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return &Store{Driver: driver, Users: repo, close: func() error {
			pool.Close()
			return nil
		}}, nil

	default:
		return nil, fmt.Errorf("unsupported store driver: %s", driver)
	}
}
