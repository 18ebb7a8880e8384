// Package subscription evalúa los derechos del plan vigente de un negocio y
// gestiona el ciclo de vida de sus suscripciones.
package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Accesos-api/internal/domain"
	"github.com/jhoicas/Accesos-api/internal/domain/entitlement"
	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
	"github.com/jhoicas/Accesos-api/pkg/logger"
)

// Entitlement suscripción vigente y su plan.
type Entitlement struct {
	Subscription *entity.Subscription
	Plan         *entity.Plan
}

// UsageReport uso de todos los recursos con techo frente al plan vigente.
type UsageReport struct {
	Entitlement
	Lines []entitlement.UsageLine
}

// Validator decide si el plan vigente de un negocio permite una funcionalidad o un volumen.
// No conoce roles (el bypass de superadmin lo aplica authz.Guard) y nunca modifica estado.
type Validator struct {
	subs  repository.SubscriptionRepository
	plans repository.PlanRepository
	usage repository.UsageCounter
	log   *logger.Logger
	now   func() time.Time
}

// NewValidator construye el validador. plans suele ser la caché de planes.
func NewValidator(subs repository.SubscriptionRepository, plans repository.PlanRepository, usage repository.UsageCounter, log *logger.Logger) *Validator {
	if log == nil {
		log = logger.Nop()
	}
	return &Validator{subs: subs, plans: plans, usage: usage, log: log.Named("entitlements"), now: time.Now}
}

// WithClock reemplaza el reloj (tests).
func (v *Validator) WithClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

// Current devuelve la suscripción vigente y su plan, o domain.ErrNoActiveSubscription.
func (v *Validator) Current(ctx context.Context, businessID string) (*Entitlement, error) {
	if businessID == "" {
		return nil, domain.ErrNoActiveSubscription
	}
	subs, err := v.subs.ListByBusiness(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("listar suscripciones: %w", err)
	}
	sel := entitlement.SelectCurrent(subs, businessID, v.now())
	if sel.Current == nil {
		return nil, domain.ErrNoActiveSubscription
	}
	if sel.Qualifying > 1 {
		v.log.Warn().
			Str("business_id", businessID).
			Int("vigentes", sel.Qualifying).
			Str("elegida", sel.Current.ID).
			Msg("inconsistencia: más de una suscripción vigente")
	}
	plan, err := v.plans.GetByID(ctx, sel.Current.PlanID)
	if err != nil {
		return nil, fmt.Errorf("obtener plan: %w", err)
	}
	if plan == nil {
		v.log.Error().
			Str("business_id", businessID).
			Str("subscription_id", sel.Current.ID).
			Str("plan_id", sel.Current.PlanID).
			Msg("la suscripción vigente apunta a un plan inexistente")
		return nil, domain.ErrNoActiveSubscription
	}
	return &Entitlement{Subscription: sel.Current, Plan: plan}, nil
}

// CheckFeature nil si el plan vigente incluye feature.
func (v *Validator) CheckFeature(ctx context.Context, businessID, feature string) error {
	ent, err := v.Current(ctx, businessID)
	if err != nil {
		return err
	}
	return entitlement.CheckFeature(ent.Plan, feature)
}

// CheckLimit nil si el uso actual de r está por debajo del techo del plan vigente.
// Es una comprobación de lectura: dos altas concurrentes pueden superar el techo en uno.
func (v *Validator) CheckLimit(ctx context.Context, businessID string, r entity.Resource) error {
	ent, err := v.Current(ctx, businessID)
	if err != nil {
		return err
	}
	if ent.Plan.IsUnlimited(r) {
		return nil
	}
	current, err := v.usage.Count(ctx, businessID, r)
	if err != nil {
		return fmt.Errorf("contar uso de %s: %w", r, err)
	}
	return entitlement.CheckLimit(ent.Plan, r, current)
}

// Usage reporte de uso de todos los recursos.
func (v *Validator) Usage(ctx context.Context, businessID string) (*UsageReport, error) {
	ent, err := v.Current(ctx, businessID)
	if err != nil {
		return nil, err
	}
	report := &UsageReport{Entitlement: *ent}
	for _, r := range entity.Resources {
		n, err := v.usage.Count(ctx, businessID, r)
		if err != nil {
			return nil, fmt.Errorf("contar uso de %s: %w", r, err)
		}
		report.Lines = append(report.Lines, entitlement.Usage(ent.Plan, r, n))
	}
	return report, nil
}
