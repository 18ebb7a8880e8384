package repository

import (
	"context"

	"github.com/jhoicas/Accesos-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
// Toda consulta de usuarios de un negocio recibe businessID; GetByID y GetByEmail existen
// solo para autenticación, donde todavía no hay tenant resuelto.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetInBusiness(ctx context.Context, businessID, id string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	// RecordLoginAttempt escribe solo failed_attempts, locked_until, last_login_at y updated_at,
	// sin pisar rol, estado ni aprobación que un administrador haya cambiado entretanto.
	RecordLoginAttempt(ctx context.Context, user *entity.User) error
	ListByBusiness(ctx context.Context, businessID string, limit, offset int) ([]*entity.User, error)
	CountActiveByBusiness(ctx context.Context, businessID string) (int, error)
}
