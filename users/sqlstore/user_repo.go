// Package sqlstore is a gorm-backed users.UserRepo, used with SQLite.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/go-session-server/users"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ users.UserRepo = (*UserRepo)(nil)

// userRecord is the persisted row. Usernames and ids are unique.
type userRecord struct {
	ID             string `gorm:"primaryKey;size:64"`
	Username       string `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash   string `gorm:"not null"`
	SessionVersion uint64 `gorm:"not null;default:1"`
	CreatedAt      time.Time
}

func (userRecord) TableName() string {
	return "users"
}

func (r *userRecord) toUser() *users.User {
	return &users.User{
		ID:             r.ID,
		Username:       r.Username,
		PasswordHash:   r.PasswordHash,
		SessionVersion: r.SessionVersion,
		CreatedAt:      r.CreatedAt.UTC(),
	}
}

type UserRepo struct {
	db *gorm.DB
}

// Open opens the SQLite database at path and migrates it.
func Open(path string) (*UserRepo, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("[sqlstore Open] opening %s: %w", path, err)
	}
	return New(db)
}

// New wraps an existing gorm handle and migrates the users table.
func New(db *gorm.DB) (*UserRepo, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore requires a database handle")
	}
	if err := db.AutoMigrate(&userRecord{}); err != nil {
		return nil, fmt.Errorf("[sqlstore New] auto migrate: %w", err)
	}
	return &UserRepo{db: db}, nil
}

func (ur *UserRepo) Add(ctx context.Context, user *users.User) error {
	if user == nil || user.ID == "" || user.Username == "" {
		return fmt.Errorf("[sqlstore Add] user id and username are required")
	}

	record := &userRecord{
		ID:             user.ID,
		Username:       user.Username,
		PasswordHash:   user.PasswordHash,
		SessionVersion: user.SessionVersion,
		CreatedAt:      user.CreatedAt,
	}

	err := ur.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&userRecord{}).
			Where("id = ? OR username = ?", user.ID, user.Username).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return users.ErrUserExists
		}
		return tx.Create(record).Error
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, users.ErrUserExists), errors.Is(err, gorm.ErrDuplicatedKey):
		return users.ErrUserExists
	default:
		return fmt.Errorf("[sqlstore Add] %w", err)
	}
}

func (ur *UserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	return ur.first(ctx, "id = ?", id)
}

func (ur *UserRepo) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	return ur.first(ctx, "username = ?", username)
}

func (ur *UserRepo) first(ctx context.Context, query string, arg string) (*users.User, error) {
	var record userRecord
	err := ur.db.WithContext(ctx).Where(query, arg).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, users.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[sqlstore first] %w", err)
	}
	return record.toUser(), nil
}

// BumpSessionVersion increments the counter in a single UPDATE statement.
func (ur *UserRepo) BumpSessionVersion(ctx context.Context, id string) error {
	err := ur.db.WithContext(ctx).
		Model(&userRecord{}).
		Where("id = ?", id).
		UpdateColumn("session_version", gorm.Expr("session_version + ?", 1)).Error
	if err != nil {
		return fmt.Errorf("[sqlstore BumpSessionVersion] %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (ur *UserRepo) Close() error {
	sqlDB, err := ur.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
