package access

import "github.com/jhoicas/Accesos-api/internal/domain/entity"

// TenantContext contexto resuelto de una petición: quién actúa, en qué negocio y en qué sucursal.
// Es un valor inmutable; se construye una vez y se pasa como argumento explícito.
type TenantContext struct {
	actorID    string
	role       entity.Role
	businessID string
	branchID   string
}

// NewTenantContext construye el contexto. Solo el resolutor de tenant debería llamarlo
// con datos validados.
func NewTenantContext(actor *entity.User, businessID, branchID string) TenantContext {
	return TenantContext{
		actorID:    actor.ID,
		role:       actor.Role,
		businessID: businessID,
		branchID:   branchID,
	}
}

// ActorID id del usuario que actúa.
func (c TenantContext) ActorID() string { return c.actorID }

// Role rol del usuario que actúa.
func (c TenantContext) Role() entity.Role { return c.role }

// BusinessID negocio activo; vacío solo en operaciones de plataforma (superadmin).
func (c TenantContext) BusinessID() string { return c.businessID }

// BranchID sucursal activa; vacío si no hay ninguna.
func (c TenantContext) BranchID() string { return c.branchID }

// HasBranch informa si hay sucursal activa.
func (c TenantContext) HasBranch() bool { return c.branchID != "" }

// IsSuperadmin informa si el actor es administrador de plataforma.
func (c TenantContext) IsSuperadmin() bool { return c.role == entity.RoleSuperadmin }

// IsCrossTenant informa si el contexto no está ligado a ningún negocio.
func (c TenantContext) IsCrossTenant() bool { return c.businessID == "" }

// CanSee informa si una entidad del negocio businessID es visible en este contexto.
func (c TenantContext) CanSee(businessID string) bool {
	if c.IsCrossTenant() {
		return c.IsSuperadmin()
	}
	return c.businessID == businessID
}
