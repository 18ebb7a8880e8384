package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Accesos-api/internal/application/dto"
	"github.com/jhoicas/Accesos-api/internal/application/usecase"
)

// PermissionHandler maneja los overrides de módulos por usuario.
type PermissionHandler struct {
	uc *usecase.PermissionUseCase
}

// NewPermissionHandler construye el handler.
func NewPermissionHandler(uc *usecase.PermissionUseCase) *PermissionHandler {
	return &PermissionHandler{uc: uc}
}

// Effective godoc
// @Summary      Permisos efectivos de un usuario
// @Description  Por módulo: si está permitido y si lo decide el rol o un override.
// @Tags         permissions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del usuario"
// @Success      200  {object}  dto.EffectivePermissionsResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/users/{id}/permissions [get]
func (h *PermissionHandler) Effective(c *fiber.Ctx) error {
	tc, err := tenant(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Effective(c.UserContext(), tc, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Upsert godoc
// @Summary      Conceder o denegar un módulo
// @Tags         permissions
// @Security     Bearer
// @Accept       json
// @Param        id      path  string                       true  "ID del usuario"
// @Param        module  path  string                       true  "Módulo"
// @Param        body    body  dto.UpsertPermissionRequest  true  "granted"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/users/{id}/permissions/{module} [put]
func (h *PermissionHandler) Upsert(c *fiber.Ctx) error {
	tc, err := tenant(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.UpsertPermissionRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	if err := h.uc.Upsert(c.UserContext(), tc, c.Params("id"), c.Params("module"), *in.Granted, requestMeta(c)); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Delete godoc
// @Summary      Quitar un override
// @Description  El módulo vuelve a decidirse por el rol del usuario.
// @Tags         permissions
// @Security     Bearer
// @Param        id      path  string  true  "ID del usuario"
// @Param        module  path  string  true  "Módulo"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/users/{id}/permissions/{module} [delete]
func (h *PermissionHandler) Delete(c *fiber.Ctx) error {
	tc, err := tenant(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.Delete(c.UserContext(), tc, c.Params("id"), c.Params("module"), requestMeta(c)); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
