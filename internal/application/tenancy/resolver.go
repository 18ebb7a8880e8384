// Package tenancy resuelve el negocio y la sucursal activos de cada petición.
package tenancy

import (
	"context"

	"github.com/jhoicas/Accesos-api/internal/domain"
	"github.com/jhoicas/Accesos-api/internal/domain/access"
	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
)

// Request lo que la ruta o el cliente piden: negocio implícito en la ruta y sucursal explícita.
// Ambos son opcionales y ninguno se usa sin validar.
type Request struct {
	BusinessID string
	BranchID   string
}

// Resolver construye el access.TenantContext de la petición.
type Resolver struct {
	branches repository.BranchRepository
	grants   repository.BranchAccessRepository
}

// NewResolver construye el resolutor.
func NewResolver(branches repository.BranchRepository, grants repository.BranchAccessRepository) *Resolver {
	return &Resolver{branches: branches, grants: grants}
}

// Resolve determina (negocio, sucursal) para principal.
//
// Negocio: un superadmin opera sobre el negocio que indique la ruta (o ninguno, operación
// multi-tenant); cualquier otro rol opera siempre sobre su propio negocio y una ruta que
// apunte a otro devuelve ErrTenantMismatch.
//
// Sucursal: (a) la pedida explícitamente, si hay concesión y pertenece al negocio;
// (b) la sucursal por defecto del usuario; (c) ninguna.
func (r *Resolver) Resolve(ctx context.Context, principal *entity.User, req Request) (access.TenantContext, error) {
	if principal == nil {
		return access.TenantContext{}, domain.ErrUnauthenticated
	}

	var businessID string
	if principal.IsSuperadmin() {
		businessID = req.BusinessID
		if businessID == "" {
			businessID = principal.BusinessID
		}
	} else {
		if principal.BusinessID == "" {
			return access.TenantContext{}, domain.ErrForbidden
		}
		if req.BusinessID != "" && req.BusinessID != principal.BusinessID {
			return access.TenantContext{}, domain.ErrTenantMismatch
		}
		businessID = principal.BusinessID
	}

	branchID, err := r.resolveBranch(ctx, principal, businessID, req.BranchID)
	if err != nil {
		return access.TenantContext{}, err
	}
	return access.NewTenantContext(principal, businessID, branchID), nil
}

func (r *Resolver) resolveBranch(ctx context.Context, principal *entity.User, businessID, requested string) (string, error) {
	if requested != "" {
		if businessID == "" {
			return "", domain.ErrBranchAccessDenied
		}
		grant, err := r.grants.Get(ctx, principal.ID, requested)
		if err != nil {
			return "", err
		}
		if grant == nil {
			return "", domain.ErrBranchAccessDenied
		}
		ok, err := r.activeBranchOf(ctx, businessID, requested)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", domain.ErrBranchAccessDenied
		}
		return requested, nil
	}

	if businessID == "" {
		return "", nil
	}
	def, err := r.grants.GetDefault(ctx, principal.ID)
	if err != nil {
		return "", err
	}
	if def == nil {
		return "", nil
	}
	// Una sucursal por defecto desactivada o de otro negocio se ignora.
	ok, err := r.activeBranchOf(ctx, businessID, def.BranchID)
	if err != nil || !ok {
		return "", err
	}
	return def.BranchID, nil
}

func (r *Resolver) activeBranchOf(ctx context.Context, businessID, branchID string) (bool, error) {
	b, err := r.branches.GetByID(ctx, businessID, branchID)
	if err != nil {
		return false, err
	}
	return b != nil && b.IsActive, nil
}
