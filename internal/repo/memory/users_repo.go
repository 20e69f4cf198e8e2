package memory

import (
	"context"
	"sync"

	"github.com/geocoder89/civicchain/internal/domain/user"
)

// UsersRepo is an in-process credential store. The mutex makes the
// check-and-insert on email atomic.
type UsersRepo struct {
	mu      sync.RWMutex
	byID    map[string]user.User
	byEmail map[string]string
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		byID:    make(map[string]user.User),
		byEmail: make(map[string]string),
	}
}

func (r *UsersRepo) FindByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return clone(r.byID[id]), nil
}

func (r *UsersRepo) Insert(_ context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[u.Email]; exists {
		return user.User{}, user.ErrDuplicateUser
	}

	stored := clone(u)
	r.byID[u.ID] = stored
	r.byEmail[u.Email] = u.ID

	return clone(stored), nil
}

func (r *UsersRepo) UpdateVerified(_ context.Context, id string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	u.Verified = true
	r.byID[id] = u

	return clone(u), nil
}

func (r *UsersRepo) Ping(context.Context) error {
	return nil
}

// clone copies the profile so callers never share memory with the store.
func clone(u user.User) user.User {
	if u.Profile != nil {
		p := *u.Profile
		if p.Address != nil {
			addr := *p.Address
			p.Address = &addr
		}
		u.Profile = &p
	}
	return u
}
