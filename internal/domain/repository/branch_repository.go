package repository

import (
	"context"

	"github.com/jhoicas/Accesos-api/internal/domain/entity"
)

// BranchRepository persistencia de sucursales; siempre acotada por negocio.
type BranchRepository interface {
	Create(ctx context.Context, branch *entity.Branch) error
	GetByID(ctx context.Context, businessID, id string) (*entity.Branch, error)
	ListByBusiness(ctx context.Context, businessID string, limit, offset int) ([]*entity.Branch, error)
	CountActiveByBusiness(ctx context.Context, businessID string) (int, error)
}

// BranchAccessRepository persistencia de concesiones de acceso a sucursales.
type BranchAccessRepository interface {
	// Grant inserta o actualiza la concesión (única por usuario y sucursal). Si IsDefault,
	// desmarca cualquier otra concesión por defecto del usuario.
	Grant(ctx context.Context, access *entity.BranchAccess) error
	Revoke(ctx context.Context, userID, branchID string) error
	Get(ctx context.Context, userID, branchID string) (*entity.BranchAccess, error)
	GetDefault(ctx context.Context, userID string) (*entity.BranchAccess, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.BranchAccess, error)
}
