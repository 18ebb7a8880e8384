package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Accesos-api/internal/domain"
	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
)

var (
	_ repository.BranchRepository       = (*BranchRepo)(nil)
	_ repository.BranchAccessRepository = (*BranchAccessRepo)(nil)
)

// BranchRepo sucursales en memoria.
type BranchRepo struct{ s *Store }

func (r *BranchRepo) Create(_ context.Context, b *entity.Branch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.branches[b.ID]; ok {
		return domain.ErrDuplicate
	}
	c := *b
	r.s.branches[b.ID] = &c
	return nil
}

func (r *BranchRepo) GetByID(_ context.Context, businessID, id string) (*entity.Branch, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if b, ok := r.s.branches[id]; ok && b.BusinessID == businessID {
		c := *b
		return &c, nil
	}
	return nil, nil
}

func (r *BranchRepo) ListByBusiness(_ context.Context, businessID string, limit, offset int) ([]*entity.Branch, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []*entity.Branch
	for _, b := range r.s.branches {
		if b.BusinessID == businessID {
			c := *b
			list = append(list, &c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return page(list, limit, offset), nil
}

func (r *BranchRepo) CountActiveByBusiness(_ context.Context, businessID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, b := range r.s.branches {
		if b.BusinessID == businessID && b.IsActive {
			n++
		}
	}
	return n, nil
}

// BranchAccessRepo concesiones de sucursal en memoria.
type BranchAccessRepo struct{ s *Store }

func (r *BranchAccessRepo) Grant(_ context.Context, a *entity.BranchAccess) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := accessKey{a.UserID, a.BranchID}
	c := *a
	if existing, ok := r.s.access[key]; ok {
		c.ID = existing.ID
		c.CreatedAt = existing.CreatedAt
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if c.IsDefault {
		for k, other := range r.s.access {
			if k.userID == a.UserID && k.branchID != a.BranchID && other.IsDefault {
				cleared := *other
				cleared.IsDefault = false
				r.s.access[k] = &cleared
			}
		}
	}
	r.s.access[key] = &c
	return nil
}

func (r *BranchAccessRepo) Revoke(_ context.Context, userID, branchID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := accessKey{userID, branchID}
	if _, ok := r.s.access[key]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.access, key)
	return nil
}

func (r *BranchAccessRepo) Get(_ context.Context, userID, branchID string) (*entity.BranchAccess, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if a, ok := r.s.access[accessKey{userID, branchID}]; ok {
		c := *a
		return &c, nil
	}
	return nil, nil
}

func (r *BranchAccessRepo) GetDefault(_ context.Context, userID string) (*entity.BranchAccess, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for k, a := range r.s.access {
		if k.userID == userID && a.IsDefault {
			c := *a
			return &c, nil
		}
	}
	return nil, nil
}

func (r *BranchAccessRepo) ListByUser(_ context.Context, userID string) ([]*entity.BranchAccess, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []*entity.BranchAccess
	for k, a := range r.s.access {
		if k.userID == userID {
			c := *a
			list = append(list, &c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}
