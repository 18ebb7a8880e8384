package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Accesos-api/internal/domain"
	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

const userColumns = `id, business_id, email, password_hash, name, role, is_active, approval_status,
	failed_attempts, locked_until, last_login_at, created_at, updated_at`

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

// Create persiste un nuevo usuario.
func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		user.ID, nullString(user.BusinessID), strings.ToLower(user.Email), user.PasswordHash, user.Name,
		string(user.Role), user.IsActive, string(user.ApprovalStatus),
		user.FailedAttempts, user.LockedUntil, user.LastLoginAt, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID obtiene un usuario por ID (sin acotar por negocio; solo para autenticación).
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.one(ctx, "get user by id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail obtiene un usuario por email sin distinguir mayúsculas.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.one(ctx, "get user by email", `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1) LIMIT 1`, email)
}

// GetInBusiness obtiene un usuario solo si pertenece a businessID.
func (r *UserRepo) GetInBusiness(ctx context.Context, businessID, id string) (*entity.User, error) {
	return r.one(ctx, "get user in business",
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND business_id = $2`, id, businessID)
}

// Update actualiza un usuario.
func (r *UserRepo) Update(ctx context.Context, user *entity.User) error {
	query := `
		UPDATE users SET email = $2, password_hash = $3, name = $4, role = $5, is_active = $6,
			approval_status = $7, failed_attempts = $8, locked_until = $9, last_login_at = $10, updated_at = $11
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		user.ID, strings.ToLower(user.Email), user.PasswordHash, user.Name, string(user.Role), user.IsActive,
		string(user.ApprovalStatus), user.FailedAttempts, user.LockedUntil, user.LastLoginAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailAlreadyExists
		}
		return fmt.Errorf("update user: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// RecordLoginAttempt persiste solo el estado de login (intentos, bloqueo, último acceso).
func (r *UserRepo) RecordLoginAttempt(ctx context.Context, user *entity.User) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE users SET failed_attempts = $2, locked_until = $3, last_login_at = $4, updated_at = $5 WHERE id = $1`,
		user.ID, user.FailedAttempts, user.LockedUntil, user.LastLoginAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("record login attempt: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ListByBusiness lista usuarios del negocio con paginación.
func (r *UserRepo) ListByBusiness(ctx context.Context, businessID string, limit, offset int) ([]*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE business_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, businessID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	var list []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// CountActiveByBusiness usuarios activos del negocio (uso frente a max_users).
func (r *UserRepo) CountActiveByBusiness(ctx context.Context, businessID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM users WHERE business_id = $1 AND is_active`, businessID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *UserRepo) one(ctx context.Context, op, query string, args ...any) (*entity.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var (
		u                    entity.User
		businessID           *string
		role, approvalStatus string
	)
	if err := row.Scan(
		&u.ID, &businessID, &u.Email, &u.PasswordHash, &u.Name, &role, &u.IsActive, &approvalStatus,
		&u.FailedAttempts, &u.LockedUntil, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	var err error
	u.BusinessID = derefString(businessID)
	if u.Role, err = entity.ParseRole(role); err != nil {
		return nil, err
	}
	if u.ApprovalStatus, err = entity.ParseApprovalStatus(approvalStatus); err != nil {
		return nil, err
	}
	return &u, nil
}
