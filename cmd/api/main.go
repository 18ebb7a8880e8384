package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	_ "github.com/jhoicas/Accesos-api/docs"
	"github.com/jhoicas/Accesos-api/internal/application/audit"
	"github.com/jhoicas/Accesos-api/internal/application/auth"
	"github.com/jhoicas/Accesos-api/internal/application/authz"
	"github.com/jhoicas/Accesos-api/internal/application/subscription"
	"github.com/jhoicas/Accesos-api/internal/application/tenancy"
	"github.com/jhoicas/Accesos-api/internal/application/usecase"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
	"github.com/jhoicas/Accesos-api/internal/infrastructure/cache"
	"github.com/jhoicas/Accesos-api/internal/infrastructure/metrics"
	"github.com/jhoicas/Accesos-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Accesos-api/internal/interfaces/http"
	"github.com/jhoicas/Accesos-api/pkg/config"
	"github.com/jhoicas/Accesos-api/pkg/logger"
)

// @title                       Accesos API
// @version                     1.0
// @description                 Identidad, contexto de negocio, roles y suscripciones de la plataforma.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
// @description                 "Bearer {token}"
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:        cfg.App.Env,
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.DB.AutoMigrate {
		if err := postgres.ApplySchema(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("aplicar esquema")
		}
		log.Info().Msg("esquema aplicado")
	}

	userRepo := postgres.NewUserRepository(pool)
	businessRepo := postgres.NewBusinessRepository(pool)
	branchRepo := postgres.NewBranchRepository(pool)
	grantRepo := postgres.NewBranchAccessRepository(pool)
	subscriptionRepo := postgres.NewSubscriptionRepository(pool)
	permissionRepo := postgres.NewPermissionRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)
	usageCounter := postgres.NewUsageCounter(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Catálogo de planes: Redis delante de PostgreSQL solo si REDIS_URL está definido.
	var planRepo repository.PlanRepository = postgres.NewPlanRepository(pool)
	if cfg.Redis.URL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			log.Warn().Err(err).Msg("redis no disponible, planes sin caché")
		} else {
			defer client.Close()
			planRepo = cache.NewPlanCache(planRepo, client, cfg.Redis.PlanCacheTTL, log)
		}
	}

	m := metrics.NewMetrics(nil)
	recorder := audit.NewRecorder(auditRepo, log, m.AuditWriteFailures)
	validator := subscription.NewValidator(subscriptionRepo, planRepo, usageCounter, log)
	subscriptionSvc := subscription.NewService(txRunner, subscriptionRepo, planRepo, businessRepo, recorder, log)

	gate := authz.NewGate(permissionRepo)
	guard := authz.NewGuard(tenancy.NewResolver(branchRepo, grantRepo), gate, validator, m)

	jwtCfg := auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}
	identity := auth.NewIdentityResolver(userRepo, jwtCfg)
	authUC := auth.NewAuthUseCase(txRunner, userRepo, recorder, jwtCfg, auth.LockoutPolicy{
		MaxAttempts: cfg.Security.LoginMaxAttempts,
		LockFor:     cfg.Security.LoginLock,
	})
	userUC := usecase.NewUserUseCase(txRunner, userRepo, guard, recorder)
	branchUC := usecase.NewBranchUseCase(txRunner, branchRepo, grantRepo, userRepo, guard, recorder)
	permissionUC := usecase.NewPermissionUseCase(txRunner, userRepo, gate, recorder)
	businessUC := usecase.NewBusinessUseCase(txRunner, businessRepo, userRepo, recorder)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestID())
	app.Use(m.Middleware())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Accesos API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Identity:      identity,
		Guard:         guard,
		AuthUC:        authUC,
		UserUC:        userUC,
		BranchUC:      branchUC,
		PermissionUC:  permissionUC,
		BusinessUC:    businessUC,
		Subscriptions: subscriptionSvc,
		Validator:     validator,
		Recorder:      recorder,
		Log:           log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
