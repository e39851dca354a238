// Package redisstore is a go-redis backed users.UserRepo.
//
// Each user is a hash at <prefix>user:<id> with a <prefix>username:<name>
// string pointing back at the id. Writes run as Lua scripts so the existence
// check and the write are one atomic step on the server.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jrsteele09/go-session-server/users"
	"github.com/redis/go-redis/v9"
)

var _ users.UserRepo = (*UserRepo)(nil)

const DefaultPrefix = "session:"

const (
	fieldID             = "id"
	fieldUsername       = "username"
	fieldPasswordHash   = "password_hash"
	fieldSessionVersion = "session_version"
	fieldCreatedAt      = "created_at"
)

var addScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 or redis.call('EXISTS', KEYS[2]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], 'id', ARGV[1], 'username', ARGV[2], 'password_hash', ARGV[3], 'session_version', ARGV[4], 'created_at', ARGV[5])
redis.call('SET', KEYS[2], ARGV[1])
return 1
`)

var bumpScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
return redis.call('HINCRBY', KEYS[1], 'session_version', 1)
`)

type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type UserRepo struct {
	client *redis.Client
	prefix string
}

// Dial connects to redis and checks the connection with a PING.
func Dial(ctx context.Context, opts Options) (*UserRepo, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return New(client, opts.Prefix), nil
}

// New wraps an existing client. An empty prefix uses DefaultPrefix.
func New(client *redis.Client, prefix string) *UserRepo {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &UserRepo{client: client, prefix: prefix}
}

func (ur *UserRepo) userKey(id string) string {
	return ur.prefix + "user:" + id
}

func (ur *UserRepo) usernameKey(username string) string {
	return ur.prefix + "username:" + username
}

func (ur *UserRepo) Add(ctx context.Context, user *users.User) error {
	if user == nil || user.ID == "" || user.Username == "" {
		return fmt.Errorf("[redisstore Add] user id and username are required")
	}
	created := user.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	added, err := addScript.Run(ctx, ur.client,
		[]string{ur.userKey(user.ID), ur.usernameKey(user.Username)},
		user.ID,
		user.Username,
		user.PasswordHash,
		strconv.FormatUint(user.SessionVersion, 10),
		created.UTC().Format(time.RFC3339Nano),
	).Int64()
	if err != nil {
		return fmt.Errorf("[redisstore Add] %w", err)
	}
	if added == 0 {
		return users.ErrUserExists
	}
	return nil
}

func (ur *UserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	fields, err := ur.client.HGetAll(ctx, ur.userKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("[redisstore GetByID] %w", err)
	}
	if len(fields) == 0 {
		return nil, users.ErrUserNotFound
	}
	return decodeUser(fields)
}

func (ur *UserRepo) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	id, err := ur.client.Get(ctx, ur.usernameKey(username)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, users.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[redisstore GetByUsername] %w", err)
	}
	return ur.GetByID(ctx, id)
}

func (ur *UserRepo) BumpSessionVersion(ctx context.Context, id string) error {
	if err := bumpScript.Run(ctx, ur.client, []string{ur.userKey(id)}).Err(); err != nil {
		return fmt.Errorf("[redisstore BumpSessionVersion] %w", err)
	}
	return nil
}

func (ur *UserRepo) Close() error {
	return ur.client.Close()
}

func decodeUser(fields map[string]string) (*users.User, error) {
	version, err := strconv.ParseUint(fields[fieldSessionVersion], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("[redisstore decodeUser] session_version: %w", err)
	}
	u := &users.User{
		ID:             fields[fieldID],
		Username:       fields[fieldUsername],
		PasswordHash:   fields[fieldPasswordHash],
		SessionVersion: version,
	}
	if raw := fields[fieldCreatedAt]; raw != "" {
		if u.CreatedAt, err = time.Parse(time.RFC3339Nano, raw); err != nil {
			return nil, fmt.Errorf("[redisstore decodeUser] created_at: %w", err)
		}
	}
	return u, nil
}
