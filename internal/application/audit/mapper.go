package audit

import (
	"fmt"
	"time"

	"github.com/jhoicas/Accesos-api/internal/application/dto"
	"github.com/jhoicas/Accesos-api/internal/domain"
	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
)

// FilterFromQuery convierte los parámetros de consulta en un filtro de repositorio.
func FilterFromQuery(q dto.AuditQuery) (repository.AuditFilter, error) {
	f := repository.AuditFilter{ActorID: q.ActorID, EntityType: q.EntityType, Limit: q.Limit, Offset: q.Offset}
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if q.Action != "" {
		a, err := entity.ParseAuditAction(q.Action)
		if err != nil {
			return f, fmt.Errorf("%v: %w", err, domain.ErrInvalidInput)
		}
		f.Action = a
	}
	var err error
	if f.From, err = parseTime(q.From); err != nil {
		return f, err
	}
	if f.To, err = parseTime(q.To); err != nil {
		return f, err
	}
	return f, nil
}

func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("fecha %q: %w", s, domain.ErrInvalidInput)
	}
	return &t, nil
}

// ToEntryResponse convierte una entrada de bitácora al DTO.
func ToEntryResponse(e *entity.AuditEntry) dto.AuditEntryResponse {
	return dto.AuditEntryResponse{
		ID:         e.ID,
		ActorID:    e.ActorID,
		BusinessID: e.BusinessID,
		BranchID:   e.BranchID,
		Action:     string(e.Action),
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		OldValues:  e.OldValues,
		NewValues:  e.NewValues,
		IPAddress:  e.IPAddress,
		UserAgent:  e.UserAgent,
		RequestID:  e.RequestID,
		CreatedAt:  e.CreatedAt,
	}
}
