package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Accesos-api/internal/domain"
	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
)

var _ repository.SubscriptionRepository = (*SubscriptionRepo)(nil)

const subscriptionColumns = `id, business_id, plan_id, status, start_date, end_date, auto_renew, created_at, updated_at`

// SubscriptionRepo suscripciones sobre PostgreSQL.
type SubscriptionRepo struct {
	q Querier
}

// NewSubscriptionRepository construye el adaptador.
func NewSubscriptionRepository(q Querier) *SubscriptionRepo {
	return &SubscriptionRepo{q: q}
}

// Create persiste una suscripción.
func (r *SubscriptionRepo) Create(ctx context.Context, s *entity.Subscription) error {
	query := `INSERT INTO subscriptions (` + subscriptionColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.BusinessID, s.PlanID, string(s.Status), s.StartDate, s.EndDate, s.AutoRenew, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

// GetByID obtiene una suscripción por ID.
func (r *SubscriptionRepo) GetByID(ctx context.Context, id string) (*entity.Subscription, error) {
	s, err := scanSubscription(r.q.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return s, nil
}

// ListByBusiness todas las suscripciones del negocio, las más recientes primero.
func (r *SubscriptionRepo) ListByBusiness(ctx context.Context, businessID string) ([]*entity.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE business_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, "list subscriptions", query, businessID)
}

// UpdateStatus modifica estado y fecha de fin.
func (r *SubscriptionRepo) UpdateStatus(ctx context.Context, id string, status entity.SubscriptionStatus, endDate, updatedAt time.Time) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE subscriptions SET status = $2, end_date = $3, updated_at = $4 WHERE id = $1`,
		id, string(status), endDate, updatedAt)
	if err != nil {
		return fmt.Errorf("update subscription status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ExpireIfLapsed vence la suscripción en una sola sentencia condicionada al estado y la fecha vigentes.
func (r *SubscriptionRepo) ExpireIfLapsed(ctx context.Context, id string, now time.Time) (bool, error) {
	cmd, err := r.q.Exec(ctx,
		`UPDATE subscriptions SET status = 'expired', updated_at = $2
		WHERE id = $1 AND status IN ('active', 'trial') AND end_date < $2`,
		id, now)
	if err != nil {
		return false, fmt.Errorf("expire subscription: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

// ListLapsed suscripciones active/trial con end_date anterior a now.
func (r *SubscriptionRepo) ListLapsed(ctx context.Context, now time.Time) ([]*entity.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
		WHERE status IN ('active', 'trial') AND end_date < $1 ORDER BY end_date`
	return r.list(ctx, "list lapsed subscriptions", query, now)
}

func (r *SubscriptionRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.Subscription, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var list []*entity.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func scanSubscription(row pgx.Row) (*entity.Subscription, error) {
	var (
		s      entity.Subscription
		status string
	)
	if err := row.Scan(&s.ID, &s.BusinessID, &s.PlanID, &status, &s.StartDate, &s.EndDate, &s.AutoRenew, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if s.Status, err = entity.ParseSubscriptionStatus(status); err != nil {
		return nil, err
	}
	return &s, nil
}
