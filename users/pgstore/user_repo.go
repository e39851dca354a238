// Package pgstore is a PostgreSQL users.UserRepo over a pgx pool.
//
// The pool is owned by the caller; Close on the repo does not close it.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jrsteele09/go-session-server/users"
)

var _ users.UserRepo = (*UserRepo)(nil)

const DefaultSchema = "public"

var identRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

type UserRepo struct {
	pool   *pgxpool.Pool
	schema string
}

type Option func(*UserRepo) error

// WithSchema places the users table in schema instead of DefaultSchema.
func WithSchema(schema string) Option {
	return func(ur *UserRepo) error {
		schema = strings.TrimSpace(schema)
		if !identRe.MatchString(schema) {
			return fmt.Errorf("pgstore: invalid schema identifier %q", schema)
		}
		ur.schema = schema
		return nil
	}
}

func New(pool *pgxpool.Pool, opts ...Option) (*UserRepo, error) {
	ur := &UserRepo{pool: pool, schema: DefaultSchema}
	for _, opt := range opts {
		if err := opt(ur); err != nil {
			return nil, err
		}
	}
	if ur.pool == nil {
		return nil, fmt.Errorf("pgstore: nil pool")
	}
	return ur, nil
}

// Connect opens a pool for databaseURL and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("[pgstore Connect] parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("[pgstore Connect] %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("[pgstore Connect] ping: %w", err)
	}
	return pool, nil
}

func (ur *UserRepo) table() string {
	return pgx.Identifier{ur.schema, "users"}.Sanitize()
}

// EnsureSchema creates the users table when it does not exist.
func (ur *UserRepo) EnsureSchema(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS ` + ur.table() + ` (
	id              TEXT PRIMARY KEY,
	username        TEXT NOT NULL UNIQUE,
	password_hash   TEXT NOT NULL,
	session_version BIGINT NOT NULL DEFAULT 1 CHECK (session_version >= 1),
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	if _, err := ur.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("[pgstore EnsureSchema] %w", err)
	}
	return nil
}

func (ur *UserRepo) Add(ctx context.Context, user *users.User) error {
	if user == nil || user.ID == "" || user.Username == "" {
		return fmt.Errorf("[pgstore Add] user id and username are required")
	}
	created := user.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	_, err := ur.pool.Exec(ctx,
		`INSERT INTO `+ur.table()+` (id, username, password_hash, session_version, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Username, user.PasswordHash, int64(user.SessionVersion), created, // #nosec G115 -- versions start at 1 and grow by one
	)
	if isUniqueViolation(err) {
		return users.ErrUserExists
	}
	if err != nil {
		return fmt.Errorf("[pgstore Add] %w", err)
	}
	return nil
}

func (ur *UserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	return ur.selectOne(ctx, "id", id)
}

func (ur *UserRepo) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	return ur.selectOne(ctx, "username", username)
}

func (ur *UserRepo) selectOne(ctx context.Context, column, value string) (*users.User, error) {
	var (
		u       users.User
		version int64
	)
	err := ur.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, session_version, created_at FROM `+ur.table()+
			` WHERE `+pgx.Identifier{column}.Sanitize()+` = $1`,
		value,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &version, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, users.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[pgstore selectOne] %w", err)
	}
	u.SessionVersion = uint64(version) // #nosec G115 -- CHECK constraint keeps it positive
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

// BumpSessionVersion increments the counter in one UPDATE; row locking makes
// concurrent bumps serialise.
func (ur *UserRepo) BumpSessionVersion(ctx context.Context, id string) error {
	_, err := ur.pool.Exec(ctx,
		`UPDATE `+ur.table()+` SET session_version = session_version + 1 WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("[pgstore BumpSessionVersion] %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" // unique_violation
}
