package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Accesos-api/internal/application/dto"
	"github.com/jhoicas/Accesos-api/internal/domain/access"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

var (
	errInvalidBody   = errors.New("cuerpo inválido")
	errMissingTenant = errors.New("contexto de tenant ausente")
)

// bindBody decodifica el cuerpo JSON en out y lo valida con sus tags.
func bindBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return errInvalidBody
	}
	return validate.Struct(out)
}

// bindPage lee limit/offset del query string.
func bindPage(c *fiber.Ctx) (dto.PageRequest, error) {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return page, errInvalidBody
	}
	if err := validate.Struct(page); err != nil {
		return page, err
	}
	page.DefaultPage()
	return page, nil
}

// tenant devuelve el contexto que dejó RequireAccess. Una ruta registrada sin él
// es un error de programación y termina en 500.
func tenant(c *fiber.Ctx) (access.TenantContext, error) {
	tc, ok := GetTenantContext(c)
	if !ok {
		return access.TenantContext{}, errMissingTenant
	}
	return tc, nil
}
