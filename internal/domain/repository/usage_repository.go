package repository

import (
	"context"

	"github.com/jhoicas/Accesos-api/internal/domain/entity"
)

// UsageCounter cuenta el uso actual de un recurso con techo en el plan.
type UsageCounter interface {
	Count(ctx context.Context, businessID string, r entity.Resource) (int, error)
}
