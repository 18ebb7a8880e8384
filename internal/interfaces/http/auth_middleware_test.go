package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Accesos-api/internal/application/auth"
	"github.com/jhoicas/Accesos-api/internal/application/authz"
	"github.com/jhoicas/Accesos-api/internal/application/subscription"
	"github.com/jhoicas/Accesos-api/internal/application/tenancy"
	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/Accesos-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/Accesos-api/pkg/jwt"
	"github.com/jhoicas/Accesos-api/pkg/logger"
)

// buildTestApp construye una aplicación Fiber mínima con:
//   - AuthMiddleware para resolver el usuario del token
//   - RequireAccess con el requisito indicado
//   - Un handler dummy que devuelve 200 y el contexto resuelto si pasa los middlewares
func buildTestApp(t *testing.T, req authz.Requirement) (*fiber.App, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()
	lockedUntil := time.Now().Add(time.Hour)
	for _, u := range []*entity.User{
		{ID: "admin", BusinessID: "b1", Role: entity.RoleAdmin, IsActive: true, ApprovalStatus: entity.ApprovalApproved},
		{ID: "staff", BusinessID: "b1", Role: entity.RoleStaff, IsActive: true, ApprovalStatus: entity.ApprovalApproved},
		{ID: "pending", BusinessID: "b1", Role: entity.RoleAdmin, IsActive: true, ApprovalStatus: entity.ApprovalPending},
		{ID: "rejected", BusinessID: "b1", Role: entity.RoleAdmin, IsActive: true, ApprovalStatus: entity.ApprovalRejected},
		{ID: "locked", BusinessID: "b1", Role: entity.RoleStaff, IsActive: true, ApprovalStatus: entity.ApprovalApproved, LockedUntil: &lockedUntil},
	} {
		u.Email = u.ID + "@accesos.co"
		require.NoError(t, store.Users().Create(ctx, u))
	}

	validator := subscription.NewValidator(store.Subscriptions(), store.Plans(), store.Usage(), logger.Nop())
	guard := authz.NewGuard(tenancy.NewResolver(store.Branches(), store.BranchAccess()), authz.NewGate(store.Permissions()), validator, nil)
	identity := auth.NewIdentityResolver(store.Users(), auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: 60, Issuer: testIssuer})

	app := fiber.New(fiber.Config{
		// Silenciar errores internos en los tests
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Get("/protected",
		apphttp.AuthMiddleware(identity),
		apphttp.RequireAccess(guard, req),
		func(c *fiber.Ctx) error {
			tc, ok := apphttp.GetTenantContext(c)
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"ok":          ok,
				"user_id":     apphttp.GetPrincipal(c).ID,
				"business_id": tc.BusinessID(),
				"role":        string(tc.Role()),
			})
		},
	)
	return app, store
}

// doRequest lanza una petición GET /protected y devuelve status y cuerpo.
func doRequest(t *testing.T, app *fiber.App, authHeader string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests AuthMiddleware
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthMiddleware_CargaPrincipalYContexto(t *testing.T) {
	app, _ := buildTestApp(t, authz.Requirement{})
	status, body := doRequest(t, app, "Bearer "+tokenFor(t, "admin"))

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "admin", body["user_id"])
	assert.Equal(t, "b1", body["business_id"])
	assert.Equal(t, "admin", body["role"])
}

// El esquema Bearer no distingue mayúsculas.
func TestAuthMiddleware_EsquemaInsensible(t *testing.T) {
	app, _ := buildTestApp(t, authz.Requirement{})
	status, _ := doRequest(t, app, "bearer "+tokenFor(t, "admin"))
	assert.Equal(t, http.StatusOK, status)
}

func TestAuthMiddleware_CredencialesInvalidas_Retorna401(t *testing.T) {
	app, _ := buildTestApp(t, authz.Requirement{})
	expired, err := pkgjwt.Generate(testJWTSecret, "admin", "b1", "admin", testIssuer, -1)
	require.NoError(t, err)
	otherSecret, err := pkgjwt.Generate("otro-secret-completamente-distinto", "admin", "b1", "admin", testIssuer, 60)
	require.NoError(t, err)
	otherIssuer, err := pkgjwt.Generate(testJWTSecret, "admin", "b1", "admin", "otro-emisor", 60)
	require.NoError(t, err)

	cases := map[string]string{
		"sin header":          "",
		"esquema basic":       "Basic YWxhZGRpbjpvcGVuc2VzYW1l",
		"bearer vacío":        "Bearer ",
		"token malformado":    "Bearer token.invalido.aqui",
		"token expirado":      "Bearer " + expired,
		"secret incorrecto":   "Bearer " + otherSecret,
		"emisor incorrecto":   "Bearer " + otherIssuer,
		"usuario inexistente": "Bearer " + tokenFor(t, "fantasma"),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			status, body := doRequest(t, app, header)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, apphttp.CodeUnauthenticated, body["code"])
		})
	}
}

func TestAuthMiddleware_CuentaBloqueada_Retorna401(t *testing.T) {
	app, _ := buildTestApp(t, authz.Requirement{})
	status, body := doRequest(t, app, "Bearer "+tokenFor(t, "locked"))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, apphttp.CodeAccountLocked, body["code"])
}

// Pendiente o rechazada: identidad válida pero sin acceso a rutas que no sean de auth.
func TestAuthMiddleware_CuentaNoAprobada_Retorna403(t *testing.T) {
	app, _ := buildTestApp(t, authz.Requirement{})
	for _, id := range []string{"pending", "rejected"} {
		status, body := doRequest(t, app, "Bearer "+tokenFor(t, id))
		assert.Equal(t, http.StatusForbidden, status, id)
		assert.Equal(t, apphttp.CodeAccountUnapproved, body["code"], id)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests RequireAccess
// ──────────────────────────────────────────────────────────────────────────────

func TestRequireAccess_RolInsuficiente_Retorna403(t *testing.T) {
	app, _ := buildTestApp(t, authz.Requirement{MinRole: entity.RoleAdmin})

	status, _ := doRequest(t, app, "Bearer "+tokenFor(t, "admin"))
	assert.Equal(t, http.StatusOK, status, "admin debe poder acceder a ruta restringida a admin")

	status, body := doRequest(t, app, "Bearer "+tokenFor(t, "staff"))
	assert.Equal(t, http.StatusForbidden, status, "staff no debe poder acceder a ruta restringida a admin")
	assert.Equal(t, apphttp.CodeForbidden, body["code"])
}

func TestRequireAccess_OverrideDenegadoPrevaleceSobreRol(t *testing.T) {
	app, store := buildTestApp(t, authz.Requirement{Module: entity.ModuleSales})

	status, _ := doRequest(t, app, "Bearer "+tokenFor(t, "staff"))
	require.Equal(t, http.StatusOK, status)

	require.NoError(t, store.Permissions().Upsert(context.Background(), &entity.PermissionOverride{
		UserID: "staff", Module: entity.ModuleSales, Granted: false,
	}))
	status, _ = doRequest(t, app, "Bearer "+tokenFor(t, "staff"))
	assert.Equal(t, http.StatusForbidden, status)
}

func TestRequireAccess_ModuloDesconocido_Retorna403(t *testing.T) {
	app, _ := buildTestApp(t, authz.Requirement{Module: "no-existe"})
	status, _ := doRequest(t, app, "Bearer "+tokenFor(t, "admin"))
	assert.Equal(t, http.StatusForbidden, status)
}
