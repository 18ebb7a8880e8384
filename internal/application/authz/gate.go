// Package authz decide si el actor de un contexto puede ejecutar una operación:
// rol mínimo, módulo (con overrides por usuario) y derechos del plan.
package authz

import (
	"context"
	"fmt"

	"github.com/jhoicas/Accesos-api/internal/domain"
	"github.com/jhoicas/Accesos-api/internal/domain/access"
	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
)

// Origen de una decisión sobre un módulo.
const (
	SourceRole     = "role"
	SourceOverride = "override"
)

// ModulePermission decisión efectiva sobre un módulo.
type ModulePermission struct {
	Module  string
	Allowed bool
	Source  string
}

// Gate aplica la jerarquía de roles y los permisos por módulo.
type Gate struct {
	overrides repository.PermissionOverrideRepository
}

// NewGate construye el gate.
func NewGate(overrides repository.PermissionOverrideRepository) *Gate {
	return &Gate{overrides: overrides}
}

// RequireRole pasa si el rol del actor es al menos min.
func (g *Gate) RequireRole(tc access.TenantContext, min entity.Role) error {
	if !access.AtLeast(tc.Role(), min) {
		return domain.ErrForbidden
	}
	return nil
}

// RequireModule pasa si el override del actor para module lo concede o, sin override,
// si su rol lo permite por defecto. Un módulo desconocido se deniega igual que uno prohibido.
func (g *Gate) RequireModule(ctx context.Context, tc access.TenantContext, module string) error {
	if !entity.IsKnownModule(module) {
		return domain.ErrForbidden
	}
	o, err := g.overrides.Get(ctx, tc.ActorID(), module)
	if err != nil {
		return fmt.Errorf("consultar override de permisos: %w", err)
	}
	if !access.Effective(tc.Role(), module, o) {
		return domain.ErrForbidden
	}
	return nil
}

// EffectivePermissions tabla de todos los módulos para user, indicando si decide el rol o un override.
// El llamador es responsable de haber cargado user dentro del negocio correcto.
func (g *Gate) EffectivePermissions(ctx context.Context, user *entity.User) ([]ModulePermission, error) {
	overrides, err := g.overrides.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("listar overrides: %w", err)
	}
	byModule := make(map[string]*entity.PermissionOverride, len(overrides))
	for _, o := range overrides {
		byModule[o.Module] = o
	}
	out := make([]ModulePermission, 0, len(entity.Modules))
	for _, m := range entity.Modules {
		o := byModule[m]
		p := ModulePermission{Module: m, Allowed: access.Effective(user.Role, m, o), Source: SourceRole}
		if o != nil {
			p.Source = SourceOverride
		}
		out = append(out, p)
	}
	return out, nil
}
