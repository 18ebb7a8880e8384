package memory

import (
	"context"

	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

// AuditRepo bitácora en memoria (solo inserción).
type AuditRepo struct{ s *Store }

func (r *AuditRepo) Append(_ context.Context, e *entity.AuditEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *e
	r.s.audit = append(r.s.audit, &c)
	return nil
}

// ListByBusiness devuelve las entradas más recientes primero.
func (r *AuditRepo) ListByBusiness(_ context.Context, businessID string, f repository.AuditFilter) ([]*entity.AuditEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []*entity.AuditEntry
	for i := len(r.s.audit) - 1; i >= 0; i-- {
		e := r.s.audit[i]
		if e.BusinessID != businessID {
			continue
		}
		if f.ActorID != "" && e.ActorID != f.ActorID {
			continue
		}
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		if f.EntityType != "" && e.EntityType != f.EntityType {
			continue
		}
		if f.From != nil && e.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && e.CreatedAt.After(*f.To) {
			continue
		}
		c := *e
		list = append(list, &c)
	}
	return page(list, f.Limit, f.Offset), nil
}

// All devuelve una copia de toda la bitácora en orden de inserción.
func (r *AuditRepo) All() []*entity.AuditEntry {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.AuditEntry, len(r.s.audit))
	for i, e := range r.s.audit {
		c := *e
		out[i] = &c
	}
	return out
}
