package auth

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/Accesos-api/internal/domain"
	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
	"github.com/jhoicas/Accesos-api/pkg/jwt"
)

// IdentityResolver traduce una credencial bearer al usuario que representa.
// El usuario se vuelve a leer en cada llamada: rol y estado pueden haber cambiado
// desde que se emitió el token.
type IdentityResolver struct {
	users  repository.UserRepository
	jwtCfg JWTConfig
	now    func() time.Time
}

// NewIdentityResolver construye el resolutor de identidad.
func NewIdentityResolver(users repository.UserRepository, jwtCfg JWTConfig) *IdentityResolver {
	return &IdentityResolver{users: users, jwtCfg: jwtCfg, now: time.Now}
}

// Resolve valida firma, expiración y emisor del token y devuelve el usuario.
//   - token ausente, malformado, expirado o de un usuario inexistente → ErrUnauthenticated
//   - cuenta desactivada → ErrAccountDisabled; bloqueada → ErrAccountLocked
//   - aprobación pendiente o rechazada → ErrAccountUnapproved
func (r *IdentityResolver) Resolve(ctx context.Context, token string) (*entity.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	claims, err := jwt.Parse(r.jwtCfg.Secret, r.jwtCfg.Issuer, token)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}
	user, err := r.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}
	if !user.IsActive {
		return nil, domain.ErrAccountDisabled
	}
	if user.IsLocked(r.now()) {
		return nil, domain.ErrAccountLocked
	}
	if !user.IsApproved() {
		return nil, domain.ErrAccountUnapproved
	}
	return user, nil
}
