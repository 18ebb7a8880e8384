package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Accesos-api/internal/application/authz"
	"github.com/jhoicas/Accesos-api/internal/domain"
)

// RequireAccess devuelve un middleware Fiber que resuelve el contexto de tenant del
// principal y aplica req (rol mínimo, módulo y funcionalidad del plan). Debe usarse
// DESPUÉS de AuthMiddleware.
//
// La sucursal se toma del query param branch_id; el negocio, del path param businessID
// cuando la ruta lo declara. El contexto resultante queda en c.Locals para el handler.
func RequireAccess(guard *authz.Guard, req authz.Requirement) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal := GetPrincipal(c)
		if principal == nil {
			return writeError(c, domain.ErrUnauthenticated)
		}
		r := req
		r.BranchID = c.Query("branch_id")
		r.BusinessID = c.Params("businessID")
		tc, err := guard.Authorize(c.UserContext(), principal, r)
		if err != nil {
			return writeError(c, err)
		}
		c.Locals(LocalTenantContext, tc)
		return c.Next()
	}
}
