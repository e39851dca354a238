// Package inmemory is a process-local users.UserRepo.
package inmemory

import (
	"context"
	"sync"

	apperrors "github.com/jrsteele09/go-session-server/internal/errors"
	"github.com/jrsteele09/go-session-server/users"
)

var _ users.UserRepo = (*UserRepo)(nil)

type UserRepo struct {
	users       map[string]*users.User
	usernameIDs map[string]string // username to user id
	lock        sync.RWMutex
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		users:       make(map[string]*users.User),
		usernameIDs: make(map[string]string),
	}
}

func (ur *UserRepo) Add(_ context.Context, user *users.User) error {
	if user == nil || user.ID == "" || user.Username == "" {
		return apperrors.Wrapf(apperrors.ErrInvalidRequest, "user id and username are required")
	}

	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, ok := ur.users[user.ID]; ok {
		return users.ErrUserExists
	}
	if _, ok := ur.usernameIDs[user.Username]; ok {
		return users.ErrUserExists
	}

	ur.users[user.ID] = user.Clone()
	ur.usernameIDs[user.Username] = user.ID
	return nil
}

func (ur *UserRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	u, ok := ur.users[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return u.Clone(), nil
}

func (ur *UserRepo) GetByUsername(_ context.Context, username string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.usernameIDs[username]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return ur.users[id].Clone(), nil
}

func (ur *UserRepo) BumpSessionVersion(_ context.Context, id string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if u, ok := ur.users[id]; ok {
		u.SessionVersion++
	}
	return nil
}
