package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlanResponse salida de un plan del catálogo.
type PlanResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	PlanType     string          `json:"plan_type"`
	PriceMonthly decimal.Decimal `json:"price_monthly"`
	Currency     string          `json:"currency"`
	MaxUsers     int             `json:"max_users"`
	MaxProducts  int             `json:"max_products"`
	MaxOrders    int             `json:"max_orders"`
	MaxBranches  int             `json:"max_branches"`
	Features     []string        `json:"features"`
}

// SubscriptionResponse salida de una suscripción.
type SubscriptionResponse struct {
	ID         string    `json:"id"`
	BusinessID string    `json:"business_id"`
	PlanID     string    `json:"plan_id"`
	Status     string    `json:"status"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	AutoRenew  bool      `json:"auto_renew"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CurrentSubscriptionResponse suscripción vigente y su plan.
type CurrentSubscriptionResponse struct {
	Subscription SubscriptionResponse `json:"subscription"`
	Plan         PlanResponse         `json:"plan"`
}

// UsageLineResponse uso de un recurso. Remaining = -1 si es ilimitado.
type UsageLineResponse struct {
	Resource  string `json:"resource"`
	Current   int    `json:"current"`
	Ceiling   int    `json:"ceiling"`
	Unlimited bool   `json:"unlimited"`
	Remaining int    `json:"remaining"`
}

// UsageResponse reporte de uso frente al plan vigente.
type UsageResponse struct {
	Subscription SubscriptionResponse `json:"subscription"`
	Plan         PlanResponse         `json:"plan"`
	Usage        []UsageLineResponse  `json:"usage"`
}

// FeatureCheckResponse resultado de consultar una funcionalidad.
type FeatureCheckResponse struct {
	Feature string `json:"feature"`
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// CreateSubscriptionRequest alta de suscripción (plataforma).
type CreateSubscriptionRequest struct {
	BusinessID   string     `json:"business_id" validate:"required"`
	PlanID       string     `json:"plan_id" validate:"required"`
	Status       string     `json:"status" validate:"omitempty,oneof=pending trial active"`
	StartDate    *time.Time `json:"start_date"`
	DurationDays int        `json:"duration_days" validate:"omitempty,min=1,max=3660"`
	AutoRenew    bool       `json:"auto_renew"`
}

// TransitionSubscriptionRequest cambio de estado de una suscripción.
type TransitionSubscriptionRequest struct {
	Status  string     `json:"status" validate:"required,oneof=pending trial active expired cancelled"`
	EndDate *time.Time `json:"end_date"`
}
