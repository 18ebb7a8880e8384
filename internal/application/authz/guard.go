package authz

import (
	"context"
	"errors"

	"github.com/jhoicas/Accesos-api/internal/application/tenancy"
	"github.com/jhoicas/Accesos-api/internal/domain"
	"github.com/jhoicas/Accesos-api/internal/domain/access"
	"github.com/jhoicas/Accesos-api/internal/domain/entity"
)

// EntitlementChecker derechos del plan vigente (lo implementa *subscription.Validator).
type EntitlementChecker interface {
	CheckFeature(ctx context.Context, businessID, feature string) error
	CheckLimit(ctx context.Context, businessID string, r entity.Resource) error
}

// DenialObserver recibe cada denegación con su motivo (métricas).
type DenialObserver interface {
	ObserveDenial(reason string)
}

// Requirement lo que una operación exige. Los campos vacíos no se comprueban.
type Requirement struct {
	MinRole entity.Role
	Module  string
	Feature string

	// Tomados de la petición; el resolutor de tenant los valida.
	BusinessID string
	BranchID   string
}

// Guard comprobación compuesta que cada handler invoca al inicio:
// contexto de tenant → rol → módulo → funcionalidad del plan.
// Es el único lugar donde se aplica el bypass de derechos del superadmin.
type Guard struct {
	resolver     *tenancy.Resolver
	gate         *Gate
	entitlements EntitlementChecker
	observer     DenialObserver
}

// NewGuard construye el guard. observer puede ser nil.
func NewGuard(resolver *tenancy.Resolver, gate *Gate, entitlements EntitlementChecker, observer DenialObserver) *Guard {
	return &Guard{resolver: resolver, gate: gate, entitlements: entitlements, observer: observer}
}

// Gate devuelve el gate de roles y módulos.
func (g *Guard) Gate() *Gate { return g.gate }

// Authorize resuelve el contexto de principal y aplica req. Devuelve el contexto inmutable
// que el handler debe pasar a los casos de uso.
func (g *Guard) Authorize(ctx context.Context, principal *entity.User, req Requirement) (access.TenantContext, error) {
	tc, err := g.resolver.Resolve(ctx, principal, tenancy.Request{BusinessID: req.BusinessID, BranchID: req.BranchID})
	if err != nil {
		return access.TenantContext{}, g.deny(err)
	}
	if req.MinRole != "" {
		if err := g.gate.RequireRole(tc, req.MinRole); err != nil {
			return access.TenantContext{}, g.deny(err)
		}
	}
	if req.Module != "" {
		if err := g.gate.RequireModule(ctx, tc, req.Module); err != nil {
			return access.TenantContext{}, g.deny(err)
		}
	}
	if req.Feature != "" {
		if err := g.RequireFeature(ctx, tc, req.Feature); err != nil {
			return access.TenantContext{}, err
		}
	}
	return tc, nil
}

// RequireFeature comprueba que el plan del negocio de tc incluya feature. Superadmin siempre pasa.
func (g *Guard) RequireFeature(ctx context.Context, tc access.TenantContext, feature string) error {
	if tc.IsSuperadmin() {
		return nil
	}
	return g.deny(g.entitlements.CheckFeature(ctx, tc.BusinessID(), feature))
}

// WithinLimit comprueba que el negocio de tc pueda crear otro r. Superadmin siempre pasa.
func (g *Guard) WithinLimit(ctx context.Context, tc access.TenantContext, r entity.Resource) error {
	if tc.IsSuperadmin() {
		return nil
	}
	return g.deny(g.entitlements.CheckLimit(ctx, tc.BusinessID(), r))
}

func (g *Guard) deny(err error) error {
	if err == nil || g.observer == nil {
		return err
	}
	if reason := DenialReason(err); reason != "" {
		g.observer.ObserveDenial(reason)
	}
	return err
}

// DenialReason clasifica una denegación para métricas; "" si err no es una denegación.
func DenialReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, domain.ErrAccountDisabled), errors.Is(err, domain.ErrAccountLocked):
		return "account_disabled"
	case errors.Is(err, domain.ErrAccountUnapproved):
		return "account_unapproved"
	case errors.Is(err, domain.ErrBranchAccessDenied):
		return "branch_access_denied"
	case errors.Is(err, domain.ErrTenantMismatch):
		return "tenant_mismatch"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrNoActiveSubscription):
		return "no_active_subscription"
	case errors.Is(err, domain.ErrFeatureNotInPlan):
		return "feature_not_in_plan"
	case errors.Is(err, domain.ErrLimitExceeded):
		return "limit_exceeded"
	default:
		return ""
	}
}
