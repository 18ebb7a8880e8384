package repository

import (
	"context"

	"github.com/jhoicas/Accesos-api/internal/domain/entity"
)

// BusinessRepository define el puerto de persistencia para Business.
type BusinessRepository interface {
	Create(ctx context.Context, business *entity.Business) error
	GetByID(ctx context.Context, id string) (*entity.Business, error)
	Update(ctx context.Context, business *entity.Business) error
	List(ctx context.Context, limit, offset int) ([]*entity.Business, error)
}
