package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jhoicas/Accesos-api/internal/domain"
	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo usuarios en memoria.
type UserRepo struct{ s *Store }

func cloneUser(u *entity.User) *entity.User {
	c := *u
	return &c
}

// Create inserta el usuario; el email es único sin distinguir mayúsculas.
func (r *UserRepo) Create(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return domain.ErrEmailAlreadyExists
		}
	}
	if _, ok := r.s.users[user.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.users[user.ID] = cloneUser(user)
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if u, ok := r.s.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r *UserRepo) GetInBusiness(_ context.Context, businessID, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if u, ok := r.s.users[id]; ok && u.BusinessID == businessID {
		return cloneUser(u), nil
	}
	return nil, nil
}

func (r *UserRepo) Update(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.s.users[user.ID] = cloneUser(user)
	return nil
}

func (r *UserRepo) RecordLoginAttempt(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.users[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	c := cloneUser(cur)
	c.FailedAttempts = user.FailedAttempts
	c.LockedUntil = user.LockedUntil
	c.LastLoginAt = user.LastLoginAt
	c.UpdatedAt = user.UpdatedAt
	r.s.users[user.ID] = c
	return nil
}

func (r *UserRepo) ListByBusiness(_ context.Context, businessID string, limit, offset int) ([]*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []*entity.User
	for _, u := range r.s.users {
		if u.BusinessID == businessID {
			list = append(list, cloneUser(u))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return page(list, limit, offset), nil
}

func (r *UserRepo) CountActiveByBusiness(_ context.Context, businessID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, u := range r.s.users {
		if u.BusinessID == businessID && u.IsActive {
			n++
		}
	}
	return n, nil
}
