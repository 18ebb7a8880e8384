package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
)

var _ repository.PlanRepository = (*PlanRepo)(nil)

const planColumns = `id, name, plan_type, price_monthly, currency, max_users, max_products, max_orders,
	max_branches, features, is_active, created_at, updated_at`

// PlanRepo catálogo de planes (tabla subscription_plans). Solo lectura para el servicio.
type PlanRepo struct {
	q Querier
}

// NewPlanRepository construye el adaptador.
func NewPlanRepository(q Querier) *PlanRepo {
	return &PlanRepo{q: q}
}

// GetByID obtiene un plan por ID, activo o no.
func (r *PlanRepo) GetByID(ctx context.Context, id string) (*entity.Plan, error) {
	p, err := scanPlan(r.q.QueryRow(ctx, `SELECT `+planColumns+` FROM subscription_plans WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return p, nil
}

// ListActive planes contratables ordenados por precio.
func (r *PlanRepo) ListActive(ctx context.Context) ([]*entity.Plan, error) {
	rows, err := r.q.Query(ctx, `SELECT `+planColumns+` FROM subscription_plans WHERE is_active ORDER BY price_monthly, name`)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()
	var list []*entity.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Upsert crea o actualiza un plan del catálogo por ID (aprovisionamiento, no lo usa la API).
func (r *PlanRepo) Upsert(ctx context.Context, p *entity.Plan) error {
	features := p.Features
	if features == nil {
		features = []string{}
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO subscription_plans (id, name, plan_type, price_monthly, currency, max_users, max_products,
			max_orders, max_branches, features, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, plan_type = EXCLUDED.plan_type, price_monthly = EXCLUDED.price_monthly,
			currency = EXCLUDED.currency, max_users = EXCLUDED.max_users, max_products = EXCLUDED.max_products,
			max_orders = EXCLUDED.max_orders, max_branches = EXCLUDED.max_branches,
			features = EXCLUDED.features, is_active = EXCLUDED.is_active, updated_at = now()`,
		p.ID, p.Name, string(p.PlanType), p.PriceMonthly, p.Currency, p.MaxUsers, p.MaxProducts,
		p.MaxOrders, p.MaxBranches, features, p.IsActive,
	)
	if err != nil {
		return fmt.Errorf("upsert plan: %w", err)
	}
	return nil
}

func scanPlan(row pgx.Row) (*entity.Plan, error) {
	var (
		p        entity.Plan
		planType string
	)
	if err := row.Scan(
		&p.ID, &p.Name, &planType, &p.PriceMonthly, &p.Currency, &p.MaxUsers, &p.MaxProducts, &p.MaxOrders,
		&p.MaxBranches, &p.Features, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	var err error
	if p.PlanType, err = entity.ParsePlanType(planType); err != nil {
		return nil, err
	}
	return &p, nil
}
