package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Accesos-api/internal/domain"
	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
)

// Asegura que BusinessRepo implementa repository.BusinessRepository.
var _ repository.BusinessRepository = (*BusinessRepo)(nil)

const businessColumns = `id, name, tax_id, address, phone, email, is_active, approval_status, created_at, updated_at`

// BusinessRepo implementación del puerto BusinessRepository sobre PostgreSQL.
type BusinessRepo struct {
	q Querier
}

// NewBusinessRepository construye el adaptador de persistencia para negocios.
func NewBusinessRepository(q Querier) *BusinessRepo {
	return &BusinessRepo{q: q}
}

// Create persiste un nuevo negocio. El NIT es único cuando está presente.
func (r *BusinessRepo) Create(ctx context.Context, b *entity.Business) error {
	query := `
		INSERT INTO businesses (` + businessColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		b.ID, b.Name, nullString(b.TaxID), b.Address, b.Phone, b.Email, b.IsActive,
		string(b.ApprovalStatus), b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert business: %w", err)
	}
	return nil
}

// GetByID obtiene un negocio por ID.
func (r *BusinessRepo) GetByID(ctx context.Context, id string) (*entity.Business, error) {
	b, err := scanBusiness(r.q.QueryRow(ctx, `SELECT `+businessColumns+` FROM businesses WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get business: %w", err)
	}
	return b, nil
}

// Update actualiza un negocio existente.
func (r *BusinessRepo) Update(ctx context.Context, b *entity.Business) error {
	query := `
		UPDATE businesses SET name = $2, tax_id = $3, address = $4, phone = $5, email = $6,
			is_active = $7, approval_status = $8, updated_at = $9
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		b.ID, b.Name, nullString(b.TaxID), b.Address, b.Phone, b.Email, b.IsActive,
		string(b.ApprovalStatus), b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update business: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List devuelve negocios con paginación.
func (r *BusinessRepo) List(ctx context.Context, limit, offset int) ([]*entity.Business, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+businessColumns+` FROM businesses ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	defer rows.Close()

	var list []*entity.Business
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, fmt.Errorf("scan business: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

func scanBusiness(row pgx.Row) (*entity.Business, error) {
	var (
		b      entity.Business
		taxID  *string
		status string
	)
	if err := row.Scan(&b.ID, &b.Name, &taxID, &b.Address, &b.Phone, &b.Email, &b.IsActive, &status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.TaxID = derefString(taxID)
	var err error
	if b.ApprovalStatus, err = entity.ParseApprovalStatus(status); err != nil {
		return nil, err
	}
	return &b, nil
}
