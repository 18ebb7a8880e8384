package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Accesos-api/internal/domain"
	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
)

var _ repository.BranchAccessRepository = (*BranchAccessRepo)(nil)

const branchAccessColumns = `id, user_id, branch_id, is_default, granted_by, created_at`

// BranchAccessRepo concesiones de sucursal (tabla user_branch_access).
type BranchAccessRepo struct {
	q Querier
}

// NewBranchAccessRepository construye el adaptador.
func NewBranchAccessRepository(q Querier) *BranchAccessRepo {
	return &BranchAccessRepo{q: q}
}

// Grant inserta o actualiza la concesión. Si es por defecto, desmarca primero las demás del usuario
// para respetar el índice único parcial (user_id) WHERE is_default. Debe ejecutarse dentro de una
// transacción cuando IsDefault es true.
func (r *BranchAccessRepo) Grant(ctx context.Context, a *entity.BranchAccess) error {
	if a.IsDefault {
		if _, err := r.q.Exec(ctx,
			`UPDATE user_branch_access SET is_default = false WHERE user_id = $1 AND branch_id <> $2 AND is_default`,
			a.UserID, a.BranchID); err != nil {
			return fmt.Errorf("clear default branch: %w", err)
		}
	}
	query := `
		INSERT INTO user_branch_access (` + branchAccessColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, branch_id) DO UPDATE SET is_default = EXCLUDED.is_default, granted_by = EXCLUDED.granted_by`
	_, err := r.q.Exec(ctx, query, a.ID, a.UserID, a.BranchID, a.IsDefault, nullString(a.GrantedBy), a.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("grant branch access: %w", err)
	}
	return nil
}

// Revoke elimina la concesión; ErrNotFound si no existía.
func (r *BranchAccessRepo) Revoke(ctx context.Context, userID, branchID string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM user_branch_access WHERE user_id = $1 AND branch_id = $2`, userID, branchID)
	if err != nil {
		return fmt.Errorf("revoke branch access: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Get concesión de userID sobre branchID.
func (r *BranchAccessRepo) Get(ctx context.Context, userID, branchID string) (*entity.BranchAccess, error) {
	query := `SELECT ` + branchAccessColumns + ` FROM user_branch_access WHERE user_id = $1 AND branch_id = $2`
	return r.one(ctx, "get branch access", query, userID, branchID)
}

// GetDefault concesión marcada por defecto del usuario.
func (r *BranchAccessRepo) GetDefault(ctx context.Context, userID string) (*entity.BranchAccess, error) {
	query := `SELECT ` + branchAccessColumns + ` FROM user_branch_access WHERE user_id = $1 AND is_default`
	return r.one(ctx, "get default branch", query, userID)
}

// ListByUser concesiones del usuario.
func (r *BranchAccessRepo) ListByUser(ctx context.Context, userID string) ([]*entity.BranchAccess, error) {
	query := `SELECT ` + branchAccessColumns + ` FROM user_branch_access WHERE user_id = $1 ORDER BY created_at`
	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list branch access: %w", err)
	}
	defer rows.Close()
	var list []*entity.BranchAccess
	for rows.Next() {
		a, err := scanBranchAccess(rows)
		if err != nil {
			return nil, fmt.Errorf("scan branch access: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func (r *BranchAccessRepo) one(ctx context.Context, op, query string, args ...any) (*entity.BranchAccess, error) {
	a, err := scanBranchAccess(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

func scanBranchAccess(row pgx.Row) (*entity.BranchAccess, error) {
	var (
		a         entity.BranchAccess
		grantedBy *string
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.BranchID, &a.IsDefault, &grantedBy, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.GrantedBy = derefString(grantedBy)
	return &a, nil
}
