// Package access contiene las reglas puras de autorización: jerarquía de roles,
// permisos por defecto de cada rol y el contexto de tenant inmutable de una petición.
package access

import "github.com/jhoicas/Accesos-api/internal/domain/entity"

// Rank devuelve la posición del rol en el orden total staff < manager < admin < superadmin.
// Un rol desconocido tiene rango 0 y no satisface ningún mínimo.
func Rank(r entity.Role) int {
	switch r {
	case entity.RoleStaff:
		return 1
	case entity.RoleManager:
		return 2
	case entity.RoleAdmin:
		return 3
	case entity.RoleSuperadmin:
		return 4
	default:
		return 0
	}
}

// AtLeast informa si have cumple el rol mínimo required.
func AtLeast(have, required entity.Role) bool {
	rank := Rank(have)
	return rank > 0 && rank >= Rank(required)
}

// Outranks informa si actor tiene un rol estrictamente superior a target. Es la regla para
// modificar a otro usuario: rol, estado, aprobación u overrides.
func Outranks(actor, target entity.Role) bool {
	return Rank(actor) > Rank(target)
}

// roleModuleDefaults tabla estática rol → módulos permitidos.
var roleModuleDefaults = map[entity.Role]map[string]bool{
	entity.RoleStaff: set(
		entity.ModuleInventory, entity.ModuleSales, entity.ModuleCRM,
	),
	entity.RoleManager: set(
		entity.ModuleInventory, entity.ModuleSales, entity.ModuleCRM, entity.ModuleInvoicing,
		entity.ModuleHR, entity.ModuleReports, entity.ModuleBranches, entity.ModuleUsers,
	),
	entity.RoleAdmin:      set(entity.Modules...),
	entity.RoleSuperadmin: set(entity.Modules...),
}

// DefaultAllows informa si el rol permite el módulo cuando no hay override.
func DefaultAllows(r entity.Role, module string) bool {
	return roleModuleDefaults[r][module]
}

// Effective resuelve la decisión final: un override presente es autoritativo,
// en su ausencia decide la tabla del rol.
func Effective(r entity.Role, module string, override *entity.PermissionOverride) bool {
	if override != nil {
		return override.Granted
	}
	return DefaultAllows(r, module)
}

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}
