package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
)

var _ repository.UsageCounter = (*UsageCounter)(nil)

// UsageCounter cuenta usuarios y sucursales activos desde el store;
// productos y órdenes se fijan con SetUsage.
type UsageCounter struct{ s *Store }

// SetUsage fija el uso de un recurso que este servicio no almacena.
func (c *UsageCounter) SetUsage(businessID string, r entity.Resource, n int) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if c.s.usage[businessID] == nil {
		c.s.usage[businessID] = map[entity.Resource]int{}
	}
	c.s.usage[businessID][r] = n
}

func (c *UsageCounter) Count(ctx context.Context, businessID string, r entity.Resource) (int, error) {
	switch r {
	case entity.ResourceUsers:
		return c.s.Users().CountActiveByBusiness(ctx, businessID)
	case entity.ResourceBranches:
		return c.s.Branches().CountActiveByBusiness(ctx, businessID)
	case entity.ResourceProducts, entity.ResourceOrders:
		c.s.mu.RLock()
		defer c.s.mu.RUnlock()
		return c.s.usage[businessID][r], nil
	default:
		return 0, fmt.Errorf("usage: recurso desconocido %q", r)
	}
}
