package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

const auditColumns = `id, actor_id, business_id, branch_id, action, entity_type, entity_id,
	old_values, new_values, ip_address, user_agent, request_id, created_at`

// AuditRepo bitácora de solo inserción (tabla audit_logs). Before/after se guardan como JSONB.
type AuditRepo struct {
	q Querier
}

// NewAuditRepository construye el adaptador.
func NewAuditRepository(q Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

// Append inserta una entrada.
func (r *AuditRepo) Append(ctx context.Context, e *entity.AuditEntry) error {
	oldValues, err := marshalValues(e.OldValues)
	if err != nil {
		return fmt.Errorf("marshal old_values: %w", err)
	}
	newValues, err := marshalValues(e.NewValues)
	if err != nil {
		return fmt.Errorf("marshal new_values: %w", err)
	}
	query := `INSERT INTO audit_logs (` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err = r.q.Exec(ctx, query,
		e.ID, nullString(e.ActorID), nullString(e.BusinessID), nullString(e.BranchID), string(e.Action),
		e.EntityType, e.EntityID, oldValues, newValues, e.IPAddress, e.UserAgent, e.RequestID, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListByBusiness entradas del negocio, las más recientes primero.
func (r *AuditRepo) ListByBusiness(ctx context.Context, businessID string, f repository.AuditFilter) ([]*entity.AuditEntry, error) {
	where := []string{"business_id = $1"}
	args := []any{businessID}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.ActorID != "" {
		add("actor_id = $%d", f.ActorID)
	}
	if f.Action != "" {
		add("action = $%d", string(f.Action))
	}
	if f.EntityType != "" {
		add("entity_type = $%d", f.EntityType)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}
	args = append(args, f.Limit, f.Offset)
	query := `SELECT ` + auditColumns + ` FROM audit_logs WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()
	var list []*entity.AuditEntry
	for rows.Next() {
		e, err := scanAudit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func marshalValues(v map[string]any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func scanAudit(row pgx.Row) (*entity.AuditEntry, error) {
	var (
		e                           entity.AuditEntry
		actorID, businessID, branch *string
		action                      string
		oldValues, newValues        []byte
	)
	if err := row.Scan(
		&e.ID, &actorID, &businessID, &branch, &action, &e.EntityType, &e.EntityID,
		&oldValues, &newValues, &e.IPAddress, &e.UserAgent, &e.RequestID, &e.CreatedAt,
	); err != nil {
		return nil, err
	}
	e.ActorID = derefString(actorID)
	e.BusinessID = derefString(businessID)
	e.BranchID = derefString(branch)
	e.Action = entity.AuditAction(action)
	if len(oldValues) > 0 {
		if err := json.Unmarshal(oldValues, &e.OldValues); err != nil {
			return nil, err
		}
	}
	if len(newValues) > 0 {
		if err := json.Unmarshal(newValues, &e.NewValues); err != nil {
			return nil, err
		}
	}
	return &e, nil
}
