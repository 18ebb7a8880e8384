package repository

import (
	"context"

	"github.com/jhoicas/Accesos-api/internal/domain/entity"
)

// PlanRepository catálogo de planes (no pertenece a ningún negocio).
type PlanRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Plan, error)
	ListActive(ctx context.Context) ([]*entity.Plan, error)
}
