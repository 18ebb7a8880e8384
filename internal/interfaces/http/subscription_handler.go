package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Accesos-api/internal/application/authz"
	"github.com/jhoicas/Accesos-api/internal/application/dto"
	"github.com/jhoicas/Accesos-api/internal/application/subscription"
	"github.com/jhoicas/Accesos-api/internal/domain"
)

// SubscriptionHandler maneja el catálogo de planes y la suscripción del negocio.
type SubscriptionHandler struct {
	svc       *subscription.Service
	validator *subscription.Validator
	guard     *authz.Guard
}

// NewSubscriptionHandler construye el handler.
func NewSubscriptionHandler(svc *subscription.Service, validator *subscription.Validator, guard *authz.Guard) *SubscriptionHandler {
	return &SubscriptionHandler{svc: svc, validator: validator, guard: guard}
}

// Plans godoc
// @Summary      Catálogo de planes
// @Tags         subscriptions
// @Produce      json
// @Success      200  {array}  dto.PlanResponse
// @Router       /api/plans [get]
func (h *SubscriptionHandler) Plans(c *fiber.Ctx) error {
	out, err := h.svc.ListPlans(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Current godoc
// @Summary      Suscripción vigente del negocio
// @Tags         subscriptions
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.CurrentSubscriptionResponse
// @Failure      403  {object}  dto.ErrorResponse  "requires_subscription=true si no hay suscripción vigente"
// @Router       /api/subscription [get]
func (h *SubscriptionHandler) Current(c *fiber.Ctx) error {
	tc, err := tenant(c)
	if err != nil {
		return writeError(c, err)
	}
	ent, err := h.validator.Current(c.UserContext(), tc.BusinessID())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.CurrentSubscriptionResponse{
		Subscription: subscription.ToSubscriptionResponse(ent.Subscription),
		Plan:         subscription.ToPlanResponse(ent.Plan),
	})
}

// Usage godoc
// @Summary      Uso frente al plan
// @Tags         subscriptions
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.UsageResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/subscription/usage [get]
func (h *SubscriptionHandler) Usage(c *fiber.Ctx) error {
	tc, err := tenant(c)
	if err != nil {
		return writeError(c, err)
	}
	report, err := h.validator.Usage(c.UserContext(), tc.BusinessID())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(subscription.ToUsageResponse(report))
}

// Feature godoc
// @Summary      Consultar una funcionalidad del plan
// @Description  Responde 200 en ambos casos; allowed=false trae el motivo.
// @Tags         subscriptions
// @Security     Bearer
// @Produce      json
// @Param        feature  path  string  true  "Funcionalidad"
// @Success      200  {object}  dto.FeatureCheckResponse
// @Router       /api/subscription/features/{feature} [get]
func (h *SubscriptionHandler) Feature(c *fiber.Ctx) error {
	tc, err := tenant(c)
	if err != nil {
		return writeError(c, err)
	}
	feature := c.Params("feature")
	err = h.guard.RequireFeature(c.UserContext(), tc, feature)
	if err != nil && !domain.IsEntitlementError(err) {
		return writeError(c, err)
	}
	return c.JSON(dto.FeatureCheckResponse{Feature: feature, Allowed: err == nil, Reason: authz.DenialReason(err)})
}

// History godoc
// @Summary      Historial de suscripciones del negocio
// @Tags         subscriptions
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.SubscriptionResponse
// @Router       /api/subscription/history [get]
func (h *SubscriptionHandler) History(c *fiber.Ctx) error {
	tc, err := tenant(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.svc.ListByBusiness(c.UserContext(), tc)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear suscripción (plataforma)
// @Tags         admin
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSubscriptionRequest  true  "Negocio, plan y vigencia"
// @Success      201   {object}  dto.SubscriptionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/admin/subscriptions [post]
func (h *SubscriptionHandler) Create(c *fiber.Ctx) error {
	tc, err := tenant(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.CreateSubscriptionRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.svc.Create(c.UserContext(), tc, in, requestMeta(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Transition godoc
// @Summary      Cambiar estado de una suscripción (plataforma)
// @Tags         admin
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                             true  "ID de la suscripción"
// @Param        body  body  dto.TransitionSubscriptionRequest  true  "Nuevo estado"
// @Success      200   {object}  dto.SubscriptionResponse
// @Failure      409   {object}  dto.ErrorResponse  "transición no permitida"
// @Router       /api/admin/subscriptions/{id}/status [put]
func (h *SubscriptionHandler) Transition(c *fiber.Ctx) error {
	tc, err := tenant(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.TransitionSubscriptionRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.svc.Transition(c.UserContext(), tc, c.Params("id"), in, requestMeta(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
