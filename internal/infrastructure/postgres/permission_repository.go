package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
)

var _ repository.PermissionOverrideRepository = (*PermissionRepo)(nil)

const permissionColumns = `id, user_id, module, granted, granted_by, created_at, updated_at`

// PermissionRepo overrides de permisos (tabla user_permissions).
type PermissionRepo struct {
	q Querier
}

// NewPermissionRepository construye el adaptador.
func NewPermissionRepository(q Querier) *PermissionRepo {
	return &PermissionRepo{q: q}
}

// Get override de userID para module; nil si no hay.
func (r *PermissionRepo) Get(ctx context.Context, userID, module string) (*entity.PermissionOverride, error) {
	query := `SELECT ` + permissionColumns + ` FROM user_permissions WHERE user_id = $1 AND module = $2`
	o, err := scanOverride(r.q.QueryRow(ctx, query, userID, module))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get permission override: %w", err)
	}
	return o, nil
}

// ListByUser overrides del usuario.
func (r *PermissionRepo) ListByUser(ctx context.Context, userID string) ([]*entity.PermissionOverride, error) {
	rows, err := r.q.Query(ctx, `SELECT `+permissionColumns+` FROM user_permissions WHERE user_id = $1 ORDER BY module`, userID)
	if err != nil {
		return nil, fmt.Errorf("list permission overrides: %w", err)
	}
	defer rows.Close()
	var list []*entity.PermissionOverride
	for rows.Next() {
		o, err := scanOverride(rows)
		if err != nil {
			return nil, fmt.Errorf("scan permission override: %w", err)
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

// Upsert crea o reemplaza el override (único por usuario y módulo).
func (r *PermissionRepo) Upsert(ctx context.Context, o *entity.PermissionOverride) error {
	query := `
		INSERT INTO user_permissions (` + permissionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, module) DO UPDATE
			SET granted = EXCLUDED.granted, granted_by = EXCLUDED.granted_by, updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query, o.ID, o.UserID, o.Module, o.Granted, nullString(o.GrantedBy), o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert permission override: %w", err)
	}
	return nil
}

// Delete elimina el override si existe.
func (r *PermissionRepo) Delete(ctx context.Context, userID, module string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM user_permissions WHERE user_id = $1 AND module = $2`, userID, module); err != nil {
		return fmt.Errorf("delete permission override: %w", err)
	}
	return nil
}

func scanOverride(row pgx.Row) (*entity.PermissionOverride, error) {
	var (
		o         entity.PermissionOverride
		grantedBy *string
	)
	if err := row.Scan(&o.ID, &o.UserID, &o.Module, &o.Granted, &grantedBy, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.GrantedBy = derefString(grantedBy)
	return &o, nil
}
