package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
)

var _ repository.PlanRepository = (*PlanRepo)(nil)

// PlanRepo catálogo de planes en memoria.
type PlanRepo struct{ s *Store }

// Put agrega o reemplaza un plan (equivale al seed del catálogo).
func (r *PlanRepo) Put(p *entity.Plan) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *p
	c.Features = append([]string(nil), p.Features...)
	r.s.plans[p.ID] = &c
}

func (r *PlanRepo) GetByID(_ context.Context, id string) (*entity.Plan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if p, ok := r.s.plans[id]; ok {
		c := *p
		c.Features = append([]string(nil), p.Features...)
		return &c, nil
	}
	return nil, nil
}

func (r *PlanRepo) ListActive(_ context.Context) ([]*entity.Plan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []*entity.Plan
	for _, p := range r.s.plans {
		if p.IsActive {
			c := *p
			list = append(list, &c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].PriceMonthly.LessThan(list[j].PriceMonthly) })
	return list, nil
}
