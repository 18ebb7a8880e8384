package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Accesos-api/internal/application/dto"
	"github.com/jhoicas/Accesos-api/internal/application/usecase"
)

// BranchHandler maneja sucursales y concesiones de acceso a ellas.
type BranchHandler struct {
	uc *usecase.BranchUseCase
}

// NewBranchHandler construye el handler.
func NewBranchHandler(uc *usecase.BranchUseCase) *BranchHandler {
	return &BranchHandler{uc: uc}
}

// List godoc
// @Summary      Listar sucursales
// @Tags         branches
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200     {object}  dto.BranchListResponse
// @Failure      403     {object}  dto.ErrorResponse
// @Router       /api/branches [get]
func (h *BranchHandler) List(c *fiber.Ctx) error {
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

// GetByID godoc
// @Summary      Obtener sucursal
// @Description  Una sucursal de otro negocio responde 403, igual que una inexistente.
// @Tags         branches
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sucursal"
// @Success      200  {object}  dto.BranchResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/branches/{id} [get]
func (h *BranchHandler) GetByID(c *fiber.Ctx) error {
	tc, err := tenant(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.GetByID(c.UserContext(), tc, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear sucursal
// @Description  Cuenta contra max_branches; desde la segunda exige la funcionalidad multi_branch.
// @Tags         branches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateBranchRequest  true  "Datos de la sucursal"
// @Success      201   {object}  dto.BranchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/branches [post]
func (h *BranchHandler) Create(c *fiber.Ctx) error {
	tc, err := tenant(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.CreateBranchRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), tc, in, requestMeta(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GrantAccess godoc
// @Summary      Conceder acceso a una sucursal
// @Tags         branches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                        true  "ID de la sucursal"
// @Param        body  body  dto.GrantBranchAccessRequest  true  "Usuario y si queda por defecto"
// @Success      201   {object}  dto.BranchAccessResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/branches/{id}/access [post]
func (h *BranchHandler) GrantAccess(c *fiber.Ctx) error {
	tc, err := tenant(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.GrantBranchAccessRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.GrantAccess(c.UserContext(), tc, c.Params("id"), in, requestMeta(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// RevokeAccess godoc
// @Summary      Revocar acceso a una sucursal
// @Tags         branches
// @Security     Bearer
// @Param        id      path  string  true  "ID de la sucursal"
// @Param        userID  path  string  true  "ID del usuario"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/branches/{id}/access/{userID} [delete]
func (h *BranchHandler) RevokeAccess(c *fiber.Ctx) error {
	tc, err := tenant(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.RevokeAccess(c.UserContext(), tc, c.Params("id"), c.Params("userID"), requestMeta(c)); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetDefault godoc
// @Summary      Marcar sucursal por defecto
// @Description  Solo sobre una sucursal a la que el propio usuario tiene acceso.
// @Tags         branches
// @Security     Bearer
// @Param        id   path  string  true  "ID de la sucursal"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/branches/{id}/default [put]
func (h *BranchHandler) SetDefault(c *fiber.Ctx) error {
	tc, err := tenant(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.SetDefault(c.UserContext(), tc, c.Params("id"), requestMeta(c)); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MyAccess godoc
// @Summary      Sucursales del usuario autenticado
// @Tags         branches
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.BranchAccessResponse
// @Router       /api/branches/mine [get]
func (h *BranchHandler) MyAccess(c *fiber.Ctx) error {
	tc, err := tenant(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.ListMyAccess(c.UserContext(), tc)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
