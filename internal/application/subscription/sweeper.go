package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jhoicas/Accesos-api/pkg/logger"
)

// ExpiredCounter acumula suscripciones vencidas (prometheus.Counter lo cumple).
type ExpiredCounter interface {
	Add(float64)
}

// Sweeper ejecuta SweepExpired periódicamente según una expresión cron.
// Una corrida que no ha terminado no se solapa con la siguiente.
type Sweeper struct {
	svc     *Service
	cron    *cron.Cron
	counter ExpiredCounter
	timeout time.Duration
	log     *logger.Logger
}

// NewSweeper construye el programador. counter puede ser nil.
func NewSweeper(svc *Service, counter ExpiredCounter, log *logger.Logger) *Sweeper {
	if log == nil {
		log = logger.Nop()
	}
	return &Sweeper{
		svc:     svc,
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		counter: counter,
		timeout: 5 * time.Minute,
		log:     log.Named("sweeper"),
	}
}

// RunOnce una pasada del barrido.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	start := time.Now()
	n, err := s.svc.SweepExpired(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("barrido de suscripciones")
		return 0, err
	}
	if s.counter != nil && n > 0 {
		s.counter.Add(float64(n))
	}
	s.log.Info().Int("vencidas", n).Dur("duracion", time.Since(start)).Msg("barrido completado")
	return n, nil
}

// Start programa el barrido con schedule (formato cron de 5 campos o @every) y arranca el cron.
func (s *Sweeper) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		_, _ = s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("programar barrido %q: %w", schedule, err)
	}
	s.cron.Start()
	s.log.Info().Str("schedule", schedule).Msg("barrido programado")
	return nil
}

// Stop detiene el cron; el contexto devuelto se cierra cuando termina la corrida en curso.
func (s *Sweeper) Stop() context.Context {
	return s.cron.Stop()
}
