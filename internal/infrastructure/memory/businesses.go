package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/Accesos-api/internal/domain"
	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
)

var _ repository.BusinessRepository = (*BusinessRepo)(nil)

// BusinessRepo negocios en memoria.
type BusinessRepo struct{ s *Store }

func (r *BusinessRepo) Create(_ context.Context, b *entity.Business) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.businesses {
		if b.TaxID != "" && existing.TaxID == b.TaxID {
			return domain.ErrDuplicate
		}
	}
	c := *b
	r.s.businesses[b.ID] = &c
	return nil
}

func (r *BusinessRepo) GetByID(_ context.Context, id string) (*entity.Business, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if b, ok := r.s.businesses[id]; ok {
		c := *b
		return &c, nil
	}
	return nil, nil
}

func (r *BusinessRepo) Update(_ context.Context, b *entity.Business) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.businesses[b.ID]; !ok {
		return domain.ErrNotFound
	}
	c := *b
	r.s.businesses[b.ID] = &c
	return nil
}

func (r *BusinessRepo) List(_ context.Context, limit, offset int) ([]*entity.Business, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	list := make([]*entity.Business, 0, len(r.s.businesses))
	for _, b := range r.s.businesses {
		c := *b
		list = append(list, &c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return page(list, limit, offset), nil
}
