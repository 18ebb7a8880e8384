package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/Accesos-api/internal/domain"
	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
)

var _ repository.SubscriptionRepository = (*SubscriptionRepo)(nil)

// SubscriptionRepo suscripciones en memoria.
type SubscriptionRepo struct{ s *Store }

func (r *SubscriptionRepo) Create(_ context.Context, sub *entity.Subscription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.subs[sub.ID]; ok {
		return domain.ErrDuplicate
	}
	c := *sub
	r.s.subs[sub.ID] = &c
	return nil
}

func (r *SubscriptionRepo) GetByID(_ context.Context, id string) (*entity.Subscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if sub, ok := r.s.subs[id]; ok {
		c := *sub
		return &c, nil
	}
	return nil, nil
}

func (r *SubscriptionRepo) ListByBusiness(_ context.Context, businessID string) ([]*entity.Subscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []*entity.Subscription
	for _, sub := range r.s.subs {
		if sub.BusinessID == businessID {
			c := *sub
			list = append(list, &c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (r *SubscriptionRepo) UpdateStatus(_ context.Context, id string, status entity.SubscriptionStatus, endDate, updatedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub, ok := r.s.subs[id]
	if !ok {
		return domain.ErrNotFound
	}
	c := *sub
	c.Status = status
	c.EndDate = endDate
	c.UpdatedAt = updatedAt
	r.s.subs[id] = &c
	return nil
}

func (r *SubscriptionRepo) ExpireIfLapsed(_ context.Context, id string, now time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub, ok := r.s.subs[id]
	if !ok || !lapsed(sub, now) {
		return false, nil
	}
	c := *sub
	c.Status = entity.SubscriptionExpired
	c.UpdatedAt = now
	r.s.subs[id] = &c
	return true, nil
}

func lapsed(sub *entity.Subscription, now time.Time) bool {
	return (sub.Status == entity.SubscriptionActive || sub.Status == entity.SubscriptionTrial) && sub.EndDate.Before(now)
}

func (r *SubscriptionRepo) ListLapsed(_ context.Context, now time.Time) ([]*entity.Subscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []*entity.Subscription
	for _, sub := range r.s.subs {
		if lapsed(sub, now) {
			c := *sub
			list = append(list, &c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].EndDate.Before(list[j].EndDate) })
	return list, nil
}
