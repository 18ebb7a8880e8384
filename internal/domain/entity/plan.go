package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PlanType nivel comercial del plan.
type PlanType string

const (
	PlanFree         PlanType = "free"
	PlanBasic        PlanType = "basic"
	PlanProfessional PlanType = "professional"
	PlanEnterprise   PlanType = "enterprise"
)

// ParsePlanType traduce el valor almacenado a PlanType.
func ParsePlanType(s string) (PlanType, error) {
	switch p := PlanType(strings.ToLower(strings.TrimSpace(s))); p {
	case PlanFree, PlanBasic, PlanProfessional, PlanEnterprise:
		return p, nil
	default:
		return "", fmt.Errorf("tipo de plan desconocido %q", s)
	}
}

// UnlimitedCeiling a partir de este valor un techo se considera ilimitado
// (así se aprovisionan los planes ilimitados).
const UnlimitedCeiling = 999999

// Resource recurso con techo numérico en el plan.
type Resource string

const (
	ResourceUsers    Resource = "users"
	ResourceProducts Resource = "products"
	ResourceOrders   Resource = "orders"
	ResourceBranches Resource = "branches"
)

// Resources todos los recursos con techo.
var Resources = []Resource{ResourceUsers, ResourceProducts, ResourceOrders, ResourceBranches}

// ParseResource valida el nombre de un recurso.
func ParseResource(s string) (Resource, error) {
	switch r := Resource(strings.ToLower(strings.TrimSpace(s))); r {
	case ResourceUsers, ResourceProducts, ResourceOrders, ResourceBranches:
		return r, nil
	default:
		return "", fmt.Errorf("recurso desconocido %q", s)
	}
}

// Funcionalidades del plan que el propio núcleo de acceso consulta.
const (
	FeatureMultiBranch = "multi_branch"
	FeatureAuditLogs   = "audit_logs"
)

// Plan define techos numéricos y funcionalidades habilitadas.
type Plan struct {
	ID           string
	Name         string
	PlanType     PlanType
	PriceMonthly decimal.Decimal
	Currency     string
	MaxUsers     int
	MaxProducts  int
	MaxOrders    int
	MaxBranches  int
	Features     []string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Ceiling devuelve el techo configurado para el recurso.
func (p *Plan) Ceiling(r Resource) int {
	switch r {
	case ResourceUsers:
		return p.MaxUsers
	case ResourceProducts:
		return p.MaxProducts
	case ResourceOrders:
		return p.MaxOrders
	case ResourceBranches:
		return p.MaxBranches
	default:
		return 0
	}
}

// IsUnlimited informa si el techo del recurso se trata como ilimitado.
func (p *Plan) IsUnlimited(r Resource) bool {
	return p.Ceiling(r) >= UnlimitedCeiling
}

// HasFeature informa si el plan habilita feature. La comparación distingue mayúsculas;
// enterprise habilita todas las funcionalidades aunque la lista esté vacía.
func (p *Plan) HasFeature(feature string) bool {
	if p.PlanType == PlanEnterprise {
		return true
	}
	for _, f := range p.Features {
		if f == feature {
			return true
		}
	}
	return false
}
