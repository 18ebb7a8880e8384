// Package entitlement evalúa, sin efectos secundarios, qué otorga la suscripción vigente de un negocio.
package entitlement

import (
	"sort"
	"time"

	"github.com/jhoicas/Accesos-api/internal/domain"
	"github.com/jhoicas/Accesos-api/internal/domain/entity"
)

// Selection resultado de elegir la suscripción vigente.
type Selection struct {
	Current *entity.Subscription
	// Qualifying cuántas suscripciones cumplían el filtro; >1 indica inconsistencia de datos.
	Qualifying int
}

// SelectCurrent elige la suscripción vigente de businessID en now: estado active o trial,
// end_date >= now y, si hay varias, la modificada más recientemente. No asume que haya una sola.
func SelectCurrent(subs []*entity.Subscription, businessID string, now time.Time) Selection {
	var candidates []*entity.Subscription
	for _, s := range subs {
		if s == nil || s.BusinessID != businessID {
			continue
		}
		if s.Grants(now) {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return Selection{}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		ci, cj := candidates[i].LastChange(), candidates[j].LastChange()
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		// desempate determinista
		return candidates[i].ID > candidates[j].ID
	})
	return Selection{Current: candidates[0], Qualifying: len(candidates)}
}

// CheckFeature devuelve nil si el plan habilita feature, o *domain.FeatureNotInPlanError.
func CheckFeature(plan *entity.Plan, feature string) error {
	if plan.HasFeature(feature) {
		return nil
	}
	return &domain.FeatureNotInPlanError{Feature: feature, Plan: plan.Name}
}

// CheckLimit compara el uso actual contra el techo del plan. Deniega cuando current >= techo,
// salvo que el techo sea ilimitado.
func CheckLimit(plan *entity.Plan, r entity.Resource, current int) error {
	if plan.IsUnlimited(r) {
		return nil
	}
	ceiling := plan.Ceiling(r)
	if current >= ceiling {
		return &domain.LimitExceededError{Resource: string(r), Current: current, Ceiling: ceiling}
	}
	return nil
}

// UsageLine uso de un recurso frente al techo del plan.
type UsageLine struct {
	Resource  entity.Resource
	Current   int
	Ceiling   int
	Unlimited bool
	Remaining int // -1 si es ilimitado
}

// Usage arma la línea de uso de un recurso.
func Usage(plan *entity.Plan, r entity.Resource, current int) UsageLine {
	line := UsageLine{Resource: r, Current: current, Ceiling: plan.Ceiling(r), Unlimited: plan.IsUnlimited(r)}
	if line.Unlimited {
		line.Remaining = -1
		return line
	}
	line.Remaining = line.Ceiling - current
	if line.Remaining < 0 {
		line.Remaining = 0
	}
	return line
}
