package usecase

import (
	"context"
	"fmt"

	"github.com/jhoicas/Accesos-api/internal/domain"
	"github.com/jhoicas/Accesos-api/internal/domain/access"
	"github.com/jhoicas/Accesos-api/internal/domain/entity"
)

// Entitlements pre-comprobaciones del plan con el bypass de superadmin ya aplicado
// (lo implementa *authz.Guard).
type Entitlements interface {
	RequireFeature(ctx context.Context, tc access.TenantContext, feature string) error
	WithinLimit(ctx context.Context, tc access.TenantContext, r entity.Resource) error
}

func requireBusiness(tc access.TenantContext) (string, error) {
	if tc.BusinessID() == "" {
		return "", fmt.Errorf("business_id requerido: %w", domain.ErrInvalidInput)
	}
	return tc.BusinessID(), nil
}
