// Package audit registra la bitácora de acciones que modifican estado.
package audit

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Accesos-api/internal/domain"
	"github.com/jhoicas/Accesos-api/internal/domain/access"
	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
	"github.com/jhoicas/Accesos-api/pkg/logger"
)

// FailureCounter canal operativo donde se cuentan las escrituras fallidas (ej. prometheus.Counter).
type FailureCounter interface {
	Inc()
}

// RequestMeta metadatos de la petición que originó la acción.
type RequestMeta struct {
	IPAddress string
	UserAgent string
	RequestID string
}

// Event acción a registrar. Before y After son instantáneas opcionales.
type Event struct {
	Action     entity.AuditAction
	EntityType string
	EntityID   string
	Before     map[string]any
	After      map[string]any
	Request    RequestMeta
}

// Recorder agrega entradas a la bitácora. Record nunca devuelve error ni entra en pánico:
// un fallo de escritura se registra en el log y en los contadores, y se descarta.
type Recorder struct {
	repo     repository.AuditRepository
	log      *logger.Logger
	counter  FailureCounter
	failures atomic.Int64
	now      func() time.Time
}

// NewRecorder construye el recorder. counter puede ser nil.
func NewRecorder(repo repository.AuditRepository, log *logger.Logger, counter FailureCounter) *Recorder {
	if log == nil {
		log = logger.Nop()
	}
	return &Recorder{repo: repo, log: log.Named("audit"), counter: counter, now: time.Now}
}

// Record agrega una entrada para el actor y el negocio/sucursal de tc.
// Debe llamarse después del commit de la operación que describe.
func (r *Recorder) Record(ctx context.Context, tc access.TenantContext, ev Event) {
	defer func() {
		if p := recover(); p != nil {
			r.fail(ev, fmt.Errorf("panic en bitácora: %v", p))
		}
	}()

	if _, err := entity.ParseAuditAction(string(ev.Action)); err != nil {
		r.fail(ev, err)
		return
	}
	entry := &entity.AuditEntry{
		ID:         uuid.New().String(),
		ActorID:    tc.ActorID(),
		BusinessID: tc.BusinessID(),
		BranchID:   tc.BranchID(),
		Action:     ev.Action,
		EntityType: ev.EntityType,
		EntityID:   ev.EntityID,
		OldValues:  ev.Before,
		NewValues:  ev.After,
		IPAddress:  ev.Request.IPAddress,
		UserAgent:  ev.Request.UserAgent,
		RequestID:  ev.Request.RequestID,
		CreatedAt:  r.now().UTC(),
	}
	if err := r.repo.Append(ctx, entry); err != nil {
		r.fail(ev, err)
	}
}

// FailedWrites cantidad de escrituras descartadas desde el arranque.
func (r *Recorder) FailedWrites() int64 {
	return r.failures.Load()
}

func (r *Recorder) fail(ev Event, err error) {
	r.failures.Add(1)
	if r.counter != nil {
		r.counter.Inc()
	}
	r.log.Error().Err(err).
		Str("action", string(ev.Action)).
		Str("entity_type", ev.EntityType).
		Str("entity_id", ev.EntityID).
		Msg("no se pudo registrar la entrada de auditoría")
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// List consulta la bitácora del negocio del contexto.
func (r *Recorder) List(ctx context.Context, tc access.TenantContext, f repository.AuditFilter) ([]*entity.AuditEntry, error) {
	if tc.BusinessID() == "" {
		return nil, fmt.Errorf("audit: business_id requerido: %w", domain.ErrInvalidInput)
	}
	if f.Limit <= 0 || f.Limit > maxListLimit {
		f.Limit = defaultListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return r.repo.ListByBusiness(ctx, tc.BusinessID(), f)
}
