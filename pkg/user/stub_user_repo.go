package user

import (
	"context"
	"sync"
)

// StubRepository is an in-memory Repository used in tests.
type StubRepository struct {
	mu     sync.RWMutex
	users  map[string]User // uid -> user
	nextId int
}

func NewStubRepository() *StubRepository {
	return &StubRepository{users: make(map[string]User)}
}

func (r *StubRepository) CreateUser(ctx context.Context, user User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextId++
	user.Id = r.nextId
	r.users[user.Uid] = user
	return user, nil
}

func (r *StubRepository) GetUserByUid(ctx context.Context, uid string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[uid]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (r *StubRepository) IsUsernameTaken(ctx context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}
