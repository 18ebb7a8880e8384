package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Accesos-api/internal/domain/entity"
)

// AuditFilter filtros de consulta de la bitácora.
type AuditFilter struct {
	ActorID    string
	Action     entity.AuditAction
	EntityType string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// AuditRepository bitácora de solo inserción: no expone Update ni Delete.
type AuditRepository interface {
	Append(ctx context.Context, e *entity.AuditEntry) error
	ListByBusiness(ctx context.Context, businessID string, f AuditFilter) ([]*entity.AuditEntry, error)
}
