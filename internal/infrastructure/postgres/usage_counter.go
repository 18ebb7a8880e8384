package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
)

var _ repository.UsageCounter = (*UsageCounter)(nil)

// usageQueries conteo de cada recurso. products y orders pertenecen a otros módulos de la
// plataforma; aquí solo se cuentan. Las órdenes se cuentan por mes calendario.
var usageQueries = map[entity.Resource]string{
	entity.ResourceUsers:    `SELECT count(*) FROM users WHERE business_id = $1 AND is_active`,
	entity.ResourceBranches: `SELECT count(*) FROM branches WHERE business_id = $1 AND is_active`,
	entity.ResourceProducts: `SELECT count(*) FROM products WHERE business_id = $1 AND is_active`,
	entity.ResourceOrders:   `SELECT count(*) FROM orders WHERE business_id = $1 AND created_at >= date_trunc('month', now())`,
}

// UsageCounter uso actual de los recursos con techo.
type UsageCounter struct {
	q Querier
}

// NewUsageCounter construye el contador.
func NewUsageCounter(q Querier) *UsageCounter {
	return &UsageCounter{q: q}
}

// Count devuelve el uso actual de r en businessID.
func (c *UsageCounter) Count(ctx context.Context, businessID string, r entity.Resource) (int, error) {
	query, ok := usageQueries[r]
	if !ok {
		return 0, fmt.Errorf("usage: recurso desconocido %q", r)
	}
	var n int
	if err := c.q.QueryRow(ctx, query, businessID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", r, err)
	}
	return n, nil
}
