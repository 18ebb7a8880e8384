// seed_plans carga el catálogo de planes de suscripción desde un CSV.
//
// Uso: go run ./cmd/seed_plans [-latin1] [-out ruta.sql] [-apply] [planes.csv]
// Por defecto lee plans.csv del directorio actual y escribe el SQL en stdout.
// Con -apply además hace upsert en la base configurada e invalida la caché de planes en Redis.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jhoicas/Accesos-api/internal/infrastructure/cache"
	"github.com/jhoicas/Accesos-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Accesos-api/pkg/config"
	"github.com/jhoicas/Accesos-api/pkg/logger"
)

func main() {
	latin1 := flag.Bool("latin1", false, "el CSV viene en ISO-8859-1")
	outPath := flag.String("out", "", "archivo SQL de salida (vacío = stdout)")
	apply := flag.Bool("apply", false, "aplicar el catálogo en la base de datos")
	flag.Parse()

	csvPath := "plans.csv"
	if flag.NArg() > 0 {
		csvPath = flag.Arg(0)
	}
	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	plans, err := readCatalog(f, *latin1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer catálogo: %v\n", err)
		os.Exit(1)
	}

	var out io.Writer = os.Stdout
	if *outPath != "" {
		file, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
			os.Exit(1)
		}
		defer file.Close()
		out = file
	}
	if err := writeSQL(out, plans); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	if !*apply {
		fmt.Fprintf(os.Stderr, "Generados %d planes\n", len(plans))
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if err := postgres.ApplySchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("aplicar esquema")
	}

	repo := postgres.NewPlanRepository(pool)
	ids := make([]string, 0, len(plans))
	for _, p := range plans {
		if err := repo.Upsert(ctx, p); err != nil {
			log.Fatal().Err(err).Str("plan_id", p.ID).Msg("guardar plan")
		}
		ids = append(ids, p.ID)
	}
	log.Info().Int("planes", len(plans)).Msg("catálogo aplicado")

	if cfg.Redis.URL == "" {
		return
	}
	client, err := cache.NewRedisClient(ctx, cfg.Redis.URL)
	if err != nil {
		log.Warn().Err(err).Msg("redis no disponible, la caché expirará por TTL")
		return
	}
	defer client.Close()
	if err := cache.NewPlanCache(repo, client, cfg.Redis.PlanCacheTTL, log).Invalidate(ctx, ids...); err != nil {
		log.Warn().Err(err).Msg("invalidar caché de planes")
	}
}
