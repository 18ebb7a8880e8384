package entity

import "time"

// Business representa un negocio/tenant del sistema (límite de aislamiento multi-tenant).
type Business struct {
	ID             string
	Name           string
	TaxID          string
	Address        string
	Phone          string
	Email          string
	IsActive       bool
	ApprovalStatus ApprovalStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Módulos funcionales del sistema (usados por el gate de roles y los overrides de permisos).
const (
	ModuleInventory     = "inventory"
	ModuleSales         = "sales"
	ModuleCRM           = "crm"
	ModuleInvoicing     = "invoicing"
	ModuleHR            = "hr"
	ModulePayroll       = "payroll"
	ModuleReports       = "reports"
	ModuleBranches      = "branches"
	ModuleUsers         = "users"
	ModuleSettings      = "settings"
	ModuleSubscriptions = "subscriptions"
	ModuleAudit         = "audit"
)

// Modules lista ordenada de todos los módulos conocidos.
var Modules = []string{
	ModuleInventory, ModuleSales, ModuleCRM, ModuleInvoicing, ModuleHR, ModulePayroll,
	ModuleReports, ModuleBranches, ModuleUsers, ModuleSettings, ModuleSubscriptions, ModuleAudit,
}

// IsKnownModule informa si name es un módulo válido.
func IsKnownModule(name string) bool {
	for _, m := range Modules {
		if m == name {
			return true
		}
	}
	return false
}
