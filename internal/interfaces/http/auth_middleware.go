package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/jhoicas/Accesos-api/internal/application/audit"
	"github.com/jhoicas/Accesos-api/internal/application/auth"
	"github.com/jhoicas/Accesos-api/internal/domain"
	"github.com/jhoicas/Accesos-api/internal/domain/access"
	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/pkg/logger"
)

// Locals keys que comparten los middlewares y los handlers.
const (
	LocalPrincipal     = "principal"
	LocalTenantContext = "tenant_context"
	LocalRequestID     = "requestid"
	LocalLogger        = "logger"
)

// AuthMiddleware valida el Bearer Token y carga el usuario que representa en c.Locals.
// El usuario se relee en cada petición, así un rol o un estado cambiados aplican de inmediato.
func AuthMiddleware(identity *auth.IdentityResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return writeError(c, domain.ErrUnauthenticated)
		}
		user, err := identity.Resolve(c.UserContext(), token)
		if err != nil {
			return writeError(c, err)
		}
		c.Locals(LocalPrincipal, user)
		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// GetPrincipal devuelve el usuario autenticado (después de AuthMiddleware).
func GetPrincipal(c *fiber.Ctx) *entity.User {
	u, _ := c.Locals(LocalPrincipal).(*entity.User)
	return u
}

// GetTenantContext devuelve el contexto resuelto por RequireAccess.
func GetTenantContext(c *fiber.Ctx) (access.TenantContext, bool) {
	tc, ok := c.Locals(LocalTenantContext).(access.TenantContext)
	return tc, ok
}

// RequestID middleware que asigna X-Request-ID (uuid si el cliente no lo envía).
func RequestID() fiber.Handler {
	return requestid.New(requestid.Config{ContextKey: LocalRequestID})
}

// RequestLogger deja en c.Locals un logger con el request_id de la petición.
func RequestLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid, _ := c.Locals(LocalRequestID).(string)
		c.Locals(LocalLogger, logger.NewFromZerolog(log.With().Str("request_id", rid).Logger()))
		return c.Next()
	}
}

func requestLogger(c *fiber.Ctx) *logger.Logger {
	if l, ok := c.Locals(LocalLogger).(*logger.Logger); ok {
		return l
	}
	return logger.Nop()
}

// requestMeta datos de la petición que se guardan en la bitácora.
func requestMeta(c *fiber.Ctx) audit.RequestMeta {
	rid, _ := c.Locals(LocalRequestID).(string)
	return audit.RequestMeta{
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
		RequestID: rid,
	}
}
