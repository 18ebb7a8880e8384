package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Accesos-api/internal/application/audit"
	"github.com/jhoicas/Accesos-api/internal/application/auth"
	"github.com/jhoicas/Accesos-api/internal/application/authz"
	"github.com/jhoicas/Accesos-api/internal/application/subscription"
	"github.com/jhoicas/Accesos-api/internal/application/usecase"
	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Identity      *auth.IdentityResolver
	Guard         *authz.Guard
	AuthUC        *auth.AuthUseCase
	UserUC        *usecase.UserUseCase
	BranchUC      *usecase.BranchUseCase
	PermissionUC  *usecase.PermissionUseCase
	BusinessUC    *usecase.BusinessUseCase
	Subscriptions *subscription.Service
	Validator     *subscription.Validator
	Recorder      *audit.Recorder
	Log           *logger.Logger
}

// Router registra las rutas de la API. Cada ruta protegida declara lo que exige
// (rol mínimo, módulo, funcionalidad del plan) y RequireAccess lo aplica antes del handler.
func Router(app *fiber.App, deps RouterDeps) {
	need := func(req authz.Requirement) fiber.Handler { return RequireAccess(deps.Guard, req) }
	authenticated := need(authz.Requirement{})
	superadmin := need(authz.Requirement{MinRole: entity.RoleSuperadmin})

	authHandler := NewAuthHandler(deps.AuthUC)
	userHandler := NewUserHandler(deps.UserUC)
	branchHandler := NewBranchHandler(deps.BranchUC)
	permissionHandler := NewPermissionHandler(deps.PermissionUC)
	businessHandler := NewBusinessHandler(deps.BusinessUC)
	subscriptionHandler := NewSubscriptionHandler(deps.Subscriptions, deps.Validator, deps.Guard)
	auditHandler := NewAuditHandler(deps.Recorder)

	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	api := app.Group("/api", RequestLogger(log.Named("http")))

	// Público
	api.Post("/auth/register", authHandler.Register)
	api.Post("/auth/login", authHandler.Login)
	api.Get("/plans", subscriptionHandler.Plans)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.Identity))
	protected.Post("/auth/logout", authenticated, authHandler.Logout)
	protected.Get("/me", authenticated, authHandler.Me)

	business := protected.Group("/business")
	business.Get("/", need(authz.Requirement{MinRole: entity.RoleStaff}), businessHandler.Current)
	business.Put("/", need(authz.Requirement{MinRole: entity.RoleAdmin, Module: entity.ModuleSettings}), businessHandler.Update)

	manageUsers := need(authz.Requirement{MinRole: entity.RoleManager, Module: entity.ModuleUsers})
	adminUsers := need(authz.Requirement{MinRole: entity.RoleAdmin, Module: entity.ModuleUsers})
	users := protected.Group("/users")
	users.Get("/", manageUsers, userHandler.List)
	users.Post("/", manageUsers, userHandler.Create)
	users.Get("/:id", manageUsers, userHandler.GetByID)
	users.Post("/:id/approve", adminUsers, userHandler.Approve)
	users.Post("/:id/reject", adminUsers, userHandler.Reject)
	users.Put("/:id/role", adminUsers, userHandler.ChangeRole)
	users.Put("/:id/active", adminUsers, userHandler.SetActive)
	users.Get("/:id/permissions", adminUsers, permissionHandler.Effective)
	users.Put("/:id/permissions/:module", adminUsers, permissionHandler.Upsert)
	users.Delete("/:id/permissions/:module", adminUsers, permissionHandler.Delete)

	viewBranches := need(authz.Requirement{Module: entity.ModuleBranches})
	adminBranches := need(authz.Requirement{MinRole: entity.RoleAdmin, Module: entity.ModuleBranches})
	branches := protected.Group("/branches")
	branches.Get("/mine", authenticated, branchHandler.MyAccess)
	branches.Get("/", viewBranches, branchHandler.List)
	branches.Post("/", adminBranches, branchHandler.Create)
	branches.Get("/:id", viewBranches, branchHandler.GetByID)
	branches.Post("/:id/access", adminBranches, branchHandler.GrantAccess)
	branches.Delete("/:id/access/:userID", adminBranches, branchHandler.RevokeAccess)
	branches.Put("/:id/default", authenticated, branchHandler.SetDefault)

	billing := need(authz.Requirement{MinRole: entity.RoleAdmin, Module: entity.ModuleSubscriptions})
	sub := protected.Group("/subscription")
	sub.Get("/", authenticated, subscriptionHandler.Current)
	sub.Get("/usage", billing, subscriptionHandler.Usage)
	sub.Get("/history", billing, subscriptionHandler.History)
	sub.Get("/features/:feature", authenticated, subscriptionHandler.Feature)

	protected.Get("/audit", need(authz.Requirement{
		MinRole: entity.RoleAdmin, Module: entity.ModuleAudit, Feature: entity.FeatureAuditLogs,
	}), auditHandler.List)

	// Plataforma (superadmin)
	admin := protected.Group("/admin")
	admin.Get("/businesses", superadmin, businessHandler.List)
	admin.Post("/businesses/:id/approve", superadmin, businessHandler.Approve)
	admin.Post("/businesses/:id/reject", superadmin, businessHandler.Reject)
	admin.Get("/businesses/:businessID/subscriptions", superadmin, subscriptionHandler.History)
	admin.Get("/businesses/:businessID/audit", need(authz.Requirement{
		MinRole: entity.RoleSuperadmin, Feature: entity.FeatureAuditLogs,
	}), auditHandler.List)
	admin.Post("/subscriptions", superadmin, subscriptionHandler.Create)
	admin.Put("/subscriptions/:id/status", superadmin, subscriptionHandler.Transition)
}
