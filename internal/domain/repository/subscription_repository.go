package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Accesos-api/internal/domain/entity"
)

// SubscriptionRepository persistencia de suscripciones.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *entity.Subscription) error
	GetByID(ctx context.Context, id string) (*entity.Subscription, error)
	ListByBusiness(ctx context.Context, businessID string) ([]*entity.Subscription, error)
	// UpdateStatus solo modifica estado y fecha de fin; el resto de la fila es inmutable.
	UpdateStatus(ctx context.Context, id string, status entity.SubscriptionStatus, endDate time.Time, updatedAt time.Time) error
	// ExpireIfLapsed pasa a expired la suscripción solo si sigue active/trial con end_date anterior
	// a now al momento de escribir. Devuelve false si entretanto cambió (cancelada, renovada).
	ExpireIfLapsed(ctx context.Context, id string, now time.Time) (bool, error)
	// ListLapsed devuelve suscripciones active/trial cuyo end_date ya pasó en now.
	ListLapsed(ctx context.Context, now time.Time) ([]*entity.Subscription, error)
}
