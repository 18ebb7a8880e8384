package repository

import (
	"context"

	"github.com/jhoicas/Accesos-api/internal/domain/entity"
)

// PermissionOverrideRepository overrides de permisos por usuario y módulo.
type PermissionOverrideRepository interface {
	Get(ctx context.Context, userID, module string) (*entity.PermissionOverride, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.PermissionOverride, error)
	Upsert(ctx context.Context, o *entity.PermissionOverride) error
	Delete(ctx context.Context, userID, module string) error
}
