package entity

import (
	"fmt"
	"strings"
	"time"
)

// SubscriptionStatus estado de una suscripción.
type SubscriptionStatus string

const (
	SubscriptionPending   SubscriptionStatus = "pending"
	SubscriptionTrial     SubscriptionStatus = "trial"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// ParseSubscriptionStatus traduce el valor almacenado (sin importar mayúsculas) a SubscriptionStatus.
func ParseSubscriptionStatus(s string) (SubscriptionStatus, error) {
	switch st := SubscriptionStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case SubscriptionPending, SubscriptionTrial, SubscriptionActive, SubscriptionExpired, SubscriptionCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("estado de suscripción desconocido %q", s)
	}
}

// Transiciones permitidas: pending→active⇄expired, active→cancelled (terminal), trial→active|expired.
var subscriptionTransitions = map[SubscriptionStatus][]SubscriptionStatus{
	SubscriptionPending: {SubscriptionActive},
	SubscriptionActive:  {SubscriptionExpired, SubscriptionCancelled},
	SubscriptionExpired: {SubscriptionActive},
	SubscriptionTrial:   {SubscriptionActive, SubscriptionExpired},
}

// CanTransition informa si from→to es una transición válida.
func CanTransition(from, to SubscriptionStatus) bool {
	for _, s := range subscriptionTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Subscription vincula un negocio a un plan durante [StartDate, EndDate).
type Subscription struct {
	ID         string
	BusinessID string
	PlanID     string
	Status     SubscriptionStatus
	StartDate  time.Time
	EndDate    time.Time
	AutoRenew  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Grants informa si la suscripción otorga derechos en now: estado active o trial y sin vencer.
func (s *Subscription) Grants(now time.Time) bool {
	if s.Status != SubscriptionActive && s.Status != SubscriptionTrial {
		return false
	}
	return !s.EndDate.Before(now)
}

// LastChange instante usado para desempatar entre varias suscripciones vigentes.
func (s *Subscription) LastChange() time.Time {
	if s.UpdatedAt.After(s.CreatedAt) {
		return s.UpdatedAt
	}
	return s.CreatedAt
}
