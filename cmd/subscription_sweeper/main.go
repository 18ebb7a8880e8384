// Comando subscription_sweeper: pasa a expired las suscripciones active/trial cuyo end_date ya pasó.
// Con SWEEPER_RUN_ONCE=true hace una pasada y termina (cron del sistema, Kubernetes CronJob);
// si no, queda en ejecución con SWEEPER_SCHEDULE (por defecto @every 1h).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jhoicas/Accesos-api/internal/application/audit"
	"github.com/jhoicas/Accesos-api/internal/application/subscription"
	"github.com/jhoicas/Accesos-api/internal/infrastructure/metrics"
	"github.com/jhoicas/Accesos-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Accesos-api/pkg/config"
	"github.com/jhoicas/Accesos-api/pkg/logger"
)

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

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	m := metrics.NewMetrics(nil)
	recorder := audit.NewRecorder(postgres.NewAuditRepository(pool), log, m.AuditWriteFailures)
	svc := subscription.NewService(
		postgres.NewTxRunner(pool),
		postgres.NewSubscriptionRepository(pool),
		postgres.NewPlanRepository(pool),
		postgres.NewBusinessRepository(pool),
		recorder,
		log,
	)
	sweeper := subscription.NewSweeper(svc, m.SubscriptionsExpired, log)

	if cfg.Sweeper.RunOnce {
		runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()
		if _, err := sweeper.RunOnce(runCtx); err != nil {
			log.Fatal().Err(err).Msg("barrido de suscripciones")
		}
		return
	}

	if err := sweeper.Start(cfg.Sweeper.Schedule); err != nil {
		log.Fatal().Err(err).Msg("programar barrido")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, esperando la corrida en curso...")
	select {
	case <-sweeper.Stop().Done():
	case <-time.After(30 * time.Second):
		log.Warn().Msg("la corrida en curso no terminó a tiempo")
	}
	log.Info().Msg("barrido detenido")
}
