package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Accesos-api/internal/application/audit"
	"github.com/jhoicas/Accesos-api/internal/application/dto"
	"github.com/jhoicas/Accesos-api/internal/domain"
	"github.com/jhoicas/Accesos-api/internal/domain/access"
	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
	"github.com/jhoicas/Accesos-api/pkg/logger"
)

// defaultDuration vigencia de una suscripción creada sin duración explícita.
const defaultDuration = 30 * 24 * time.Hour

// Service casos de uso del ciclo de vida de suscripciones (alta, transición, vencimiento).
type Service struct {
	tx         repository.TxRunner
	subs       repository.SubscriptionRepository
	plans      repository.PlanRepository
	businesses repository.BusinessRepository
	recorder   *audit.Recorder
	log        *logger.Logger
	now        func() time.Time
}

// NewService construye el servicio.
func NewService(
	tx repository.TxRunner,
	subs repository.SubscriptionRepository,
	plans repository.PlanRepository,
	businesses repository.BusinessRepository,
	recorder *audit.Recorder,
	log *logger.Logger,
) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		tx: tx, subs: subs, plans: plans, businesses: businesses,
		recorder: recorder, log: log.Named("subscriptions"), now: time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ListPlans catálogo público de planes activos.
func (s *Service) ListPlans(ctx context.Context) ([]dto.PlanResponse, error) {
	plans, err := s.plans.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PlanResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, ToPlanResponse(p))
	}
	return out, nil
}

// Create da de alta una suscripción para un negocio (operación de plataforma).
func (s *Service) Create(ctx context.Context, tc access.TenantContext, in dto.CreateSubscriptionRequest, meta audit.RequestMeta) (*dto.SubscriptionResponse, error) {
	status := entity.SubscriptionPending
	if in.Status != "" {
		st, err := entity.ParseSubscriptionStatus(in.Status)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, domain.ErrInvalidInput)
		}
		status = st
	}
	switch status {
	case entity.SubscriptionPending, entity.SubscriptionTrial, entity.SubscriptionActive:
	default:
		return nil, fmt.Errorf("una suscripción nueva no puede nacer %s: %w", status, domain.ErrInvalidInput)
	}

	business, err := s.businesses.GetByID(ctx, in.BusinessID)
	if err != nil {
		return nil, err
	}
	if business == nil {
		return nil, domain.ErrNotFound
	}
	if !tc.CanSee(business.ID) {
		return nil, domain.ErrTenantMismatch
	}
	plan, err := s.plans.GetByID(ctx, in.PlanID)
	if err != nil {
		return nil, err
	}
	if plan == nil || !plan.IsActive {
		return nil, fmt.Errorf("plan %s no disponible: %w", in.PlanID, domain.ErrInvalidInput)
	}

	now := s.now().UTC()
	start := now
	if in.StartDate != nil {
		start = in.StartDate.UTC()
	}
	duration := defaultDuration
	if in.DurationDays > 0 {
		duration = time.Duration(in.DurationDays) * 24 * time.Hour
	}
	sub := &entity.Subscription{
		ID:         uuid.New().String(),
		BusinessID: business.ID,
		PlanID:     plan.ID,
		Status:     status,
		StartDate:  start,
		EndDate:    start.Add(duration),
		AutoRenew:  in.AutoRenew,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.tx.Run(ctx, func(repos repository.TxRepositories) error {
		return repos.Subscriptions.Create(ctx, sub)
	}); err != nil {
		return nil, err
	}

	out := ToSubscriptionResponse(sub)
	s.recorder.Record(ctx, access.NewTenantContext(actorOf(tc), business.ID, ""), audit.Event{
		Action:     entity.AuditCreate,
		EntityType: "subscription",
		EntityID:   sub.ID,
		After:      subscriptionSnapshot(sub),
		Request:    meta,
	})
	return &out, nil
}

// Transition cambia el estado de una suscripción según la máquina de estados.
// endDate opcional reemplaza la fecha de fin (renovación).
func (s *Service) Transition(ctx context.Context, tc access.TenantContext, id string, in dto.TransitionSubscriptionRequest, meta audit.RequestMeta) (*dto.SubscriptionResponse, error) {
	to, err := entity.ParseSubscriptionStatus(in.Status)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrInvalidInput)
	}

	var before, after entity.Subscription
	err = s.tx.Run(ctx, func(repos repository.TxRepositories) error {
		sub, err := repos.Subscriptions.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if sub == nil {
			return domain.ErrNotFound
		}
		if !tc.CanSee(sub.BusinessID) {
			return domain.ErrTenantMismatch
		}
		if !entity.CanTransition(sub.Status, to) {
			return fmt.Errorf("%s → %s: %w", sub.Status, to, domain.ErrInvalidTransition)
		}
		before = *sub
		after = *sub
		after.Status = to
		after.UpdatedAt = s.now().UTC()
		if in.EndDate != nil {
			if !in.EndDate.After(sub.StartDate) {
				return fmt.Errorf("end_date debe ser posterior a start_date: %w", domain.ErrInvalidInput)
			}
			after.EndDate = in.EndDate.UTC()
		}
		return repos.Subscriptions.UpdateStatus(ctx, id, after.Status, after.EndDate, after.UpdatedAt)
	})
	if err != nil {
		return nil, err
	}

	out := ToSubscriptionResponse(&after)
	s.recorder.Record(ctx, access.NewTenantContext(actorOf(tc), after.BusinessID, ""), audit.Event{
		Action:     entity.AuditUpdate,
		EntityType: "subscription",
		EntityID:   id,
		Before:     subscriptionSnapshot(&before),
		After:      subscriptionSnapshot(&after),
		Request:    meta,
	})
	return &out, nil
}

// ListByBusiness historial de suscripciones del negocio del contexto.
func (s *Service) ListByBusiness(ctx context.Context, tc access.TenantContext) ([]dto.SubscriptionResponse, error) {
	if tc.BusinessID() == "" {
		return nil, fmt.Errorf("business_id requerido: %w", domain.ErrInvalidInput)
	}
	subs, err := s.subs.ListByBusiness(ctx, tc.BusinessID())
	if err != nil {
		return nil, err
	}
	out := make([]dto.SubscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		out = append(out, ToSubscriptionResponse(sub))
	}
	return out, nil
}

// SweepExpired pasa a expired las suscripciones active/trial cuyo end_date ya pasó.
// Lo ejecuta el job periódico, nunca una petición. La escritura vuelve a comprobar estado y
// fecha, así que una cancelación o renovación confirmada después del listado se respeta.
// Devuelve cuántas se vencieron.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	now := s.now().UTC()
	lapsed, err := s.subs.ListLapsed(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("listar suscripciones vencidas: %w", err)
	}
	expired := 0
	for _, sub := range lapsed {
		var changed bool
		err := s.tx.Run(ctx, func(repos repository.TxRepositories) error {
			var err error
			changed, err = repos.Subscriptions.ExpireIfLapsed(ctx, sub.ID, now)
			return err
		})
		if err != nil {
			s.log.Error().Err(err).Str("subscription_id", sub.ID).Msg("no se pudo vencer la suscripción")
			continue
		}
		if !changed {
			s.log.Debug().Str("subscription_id", sub.ID).Msg("la suscripción cambió antes de vencerla")
			continue
		}
		expired++
		s.log.Info().
			Str("subscription_id", sub.ID).
			Str("business_id", sub.BusinessID).
			Str("desde", string(sub.Status)).
			Time("end_date", sub.EndDate).
			Msg("suscripción vencida")
	}
	return expired, nil
}

func actorOf(tc access.TenantContext) *entity.User {
	return &entity.User{ID: tc.ActorID(), Role: tc.Role()}
}

func subscriptionSnapshot(s *entity.Subscription) map[string]any {
	return map[string]any{
		"plan_id":    s.PlanID,
		"status":     string(s.Status),
		"start_date": s.StartDate,
		"end_date":   s.EndDate,
		"auto_renew": s.AutoRenew,
	}
}
