package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
)

var _ repository.PermissionOverrideRepository = (*PermissionRepo)(nil)

// PermissionRepo overrides de permisos en memoria.
type PermissionRepo struct{ s *Store }

func (r *PermissionRepo) Get(_ context.Context, userID, module string) (*entity.PermissionOverride, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if o, ok := r.s.overrides[overrideKey{userID, module}]; ok {
		c := *o
		return &c, nil
	}
	return nil, nil
}

func (r *PermissionRepo) ListByUser(_ context.Context, userID string) ([]*entity.PermissionOverride, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []*entity.PermissionOverride
	for k, o := range r.s.overrides {
		if k.userID == userID {
			c := *o
			list = append(list, &c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Module < list[j].Module })
	return list, nil
}

func (r *PermissionRepo) Upsert(_ context.Context, o *entity.PermissionOverride) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := overrideKey{o.UserID, o.Module}
	c := *o
	if existing, ok := r.s.overrides[key]; ok {
		c.ID = existing.ID
		c.CreatedAt = existing.CreatedAt
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	r.s.overrides[key] = &c
	return nil
}

func (r *PermissionRepo) Delete(_ context.Context, userID, module string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.overrides, overrideKey{userID, module})
	return nil
}
