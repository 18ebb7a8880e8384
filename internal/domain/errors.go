package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrConflict           = errors.New("conflicto con el estado actual")

	// Identidad y acceso.
	ErrUnauthenticated    = errors.New("credencial ausente, inválida o expirada")
	ErrAccountDisabled    = errors.New("cuenta desactivada")
	ErrAccountUnapproved  = errors.New("cuenta pendiente de aprobación o rechazada")
	ErrAccountLocked      = errors.New("cuenta bloqueada temporalmente")
	ErrBranchAccessDenied = errors.New("sin acceso a la sucursal")
	ErrForbidden          = errors.New("acceso denegado")
	// ErrTenantMismatch referencia fuera del negocio del contexto; las búsquedas acotadas por negocio
	// lo devuelven también para ids inexistentes. El mapeo HTTP lo trata igual que ErrForbidden.
	ErrTenantMismatch = errors.New("referencia a otro negocio")

	// Suscripción y derechos del plan.
	ErrNoActiveSubscription = errors.New("no hay suscripción activa")
	ErrFeatureNotInPlan     = errors.New("el plan no incluye la funcionalidad")
	ErrLimitExceeded        = errors.New("límite del plan alcanzado")
	ErrInvalidTransition    = errors.New("transición de estado no permitida")
)

// FeatureNotInPlanError detalla qué funcionalidad falta en el plan vigente.
type FeatureNotInPlanError struct {
	Feature string
	Plan    string
}

func (e *FeatureNotInPlanError) Error() string {
	return fmt.Sprintf("el plan %q no incluye la funcionalidad %q", e.Plan, e.Feature)
}

// Is permite errors.Is(err, ErrFeatureNotInPlan).
func (e *FeatureNotInPlanError) Is(target error) bool { return target == ErrFeatureNotInPlan }

// LimitExceededError indica que el uso actual alcanzó el techo del plan.
type LimitExceededError struct {
	Resource string
	Current  int
	Ceiling  int
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("límite de %s alcanzado (%d/%d)", e.Resource, e.Current, e.Ceiling)
}

// Is permite errors.Is(err, ErrLimitExceeded).
func (e *LimitExceededError) Is(target error) bool { return target == ErrLimitExceeded }

// IsEntitlementError informa si err pertenece a la familia de suscripción (requiere mejorar el plan).
func IsEntitlementError(err error) bool {
	return errors.Is(err, ErrNoActiveSubscription) ||
		errors.Is(err, ErrFeatureNotInPlan) ||
		errors.Is(err, ErrLimitExceeded)
}
