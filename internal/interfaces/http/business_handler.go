package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Accesos-api/internal/application/dto"
	"github.com/jhoicas/Accesos-api/internal/application/usecase"
)

// BusinessHandler maneja el negocio del contexto y su aprobación por la plataforma.
type BusinessHandler struct {
	uc *usecase.BusinessUseCase
}

// NewBusinessHandler construye el handler.
func NewBusinessHandler(uc *usecase.BusinessUseCase) *BusinessHandler {
	return &BusinessHandler{uc: uc}
}

// Current godoc
// @Summary      Negocio actual
// @Tags         business
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.BusinessResponse
// @Router       /api/business [get]
func (h *BusinessHandler) Current(c *fiber.Ctx) error {
	tc, err := tenant(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Current(c.UserContext(), tc)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar datos del negocio
// @Tags         business
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.UpdateBusinessRequest  true  "Datos editables"
// @Success      200   {object}  dto.BusinessResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/business [put]
func (h *BusinessHandler) Update(c *fiber.Ctx) error {
	tc, err := tenant(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.UpdateBusinessRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Update(c.UserContext(), tc, in, requestMeta(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar negocios (plataforma)
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200     {object}  dto.BusinessListResponse
// @Failure      403     {object}  dto.ErrorResponse
// @Router       /api/admin/businesses [get]
func (h *BusinessHandler) List(c *fiber.Ctx) error {
	tc, err := tenant(c)
	if err != nil {
		return writeError(c, err)
	}
	page, err := bindPage(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.List(c.UserContext(), tc, page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Approve godoc
// @Summary      Aprobar negocio (plataforma)
// @Description  También aprueba a sus administradores pendientes.
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del negocio"
// @Success      200  {object}  dto.BusinessResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/admin/businesses/{id}/approve [post]
func (h *BusinessHandler) Approve(c *fiber.Ctx) error {
	tc, err := tenant(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Approve(c.UserContext(), tc, c.Params("id"), requestMeta(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Reject godoc
// @Summary      Rechazar negocio (plataforma)
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del negocio"
// @Success      200  {object}  dto.BusinessResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/admin/businesses/{id}/reject [post]
func (h *BusinessHandler) Reject(c *fiber.Ctx) error {
	tc, err := tenant(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Reject(c.UserContext(), tc, c.Params("id"), requestMeta(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
