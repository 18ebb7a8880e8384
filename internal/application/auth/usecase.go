package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Accesos-api/internal/application/audit"
	"github.com/jhoicas/Accesos-api/internal/application/dto"
	"github.com/jhoicas/Accesos-api/internal/domain"
	"github.com/jhoicas/Accesos-api/internal/domain/access"
	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
	"github.com/jhoicas/Accesos-api/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// LockoutPolicy bloqueo temporal tras intentos fallidos de login.
type LockoutPolicy struct {
	MaxAttempts int
	LockFor     time.Duration
}

// AuthUseCase casos de uso de autenticación: registro, login y logout.
type AuthUseCase struct {
	tx       repository.TxRunner
	userRepo repository.UserRepository
	jwtCfg   JWTConfig
	lockout  LockoutPolicy
	recorder *audit.Recorder
	now      func() time.Time
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(tx repository.TxRunner, userRepo repository.UserRepository, recorder *audit.Recorder, jwtCfg JWTConfig, lockout LockoutPolicy) *AuthUseCase {
	return &AuthUseCase{tx: tx, userRepo: userRepo, jwtCfg: jwtCfg, lockout: lockout, recorder: recorder, now: time.Now}
}

// Register crea el negocio y su administrador en una sola transacción. Ambos quedan
// pendientes de aprobación por la plataforma. Devuelve ErrEmailAlreadyExists si el email ya existe.
func (uc *AuthUseCase) Register(ctx context.Context, in dto.RegisterRequest, meta audit.RequestMeta) (*dto.RegisterResponse, error) {
	email := normalizeEmail(in.Email)
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := uc.now().UTC()
	business := &entity.Business{
		ID:             uuid.New().String(),
		Name:           strings.TrimSpace(in.BusinessName),
		TaxID:          strings.TrimSpace(in.TaxID),
		Phone:          in.Phone,
		Email:          email,
		IsActive:       true,
		ApprovalStatus: entity.ApprovalPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = email
	}
	user := &entity.User{
		ID:             uuid.New().String(),
		BusinessID:     business.ID,
		Email:          email,
		PasswordHash:   string(hash),
		Name:           name,
		Role:           entity.RoleAdmin,
		IsActive:       true,
		ApprovalStatus: entity.ApprovalPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = uc.tx.Run(ctx, func(repos repository.TxRepositories) error {
		existing, err := repos.Users.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrEmailAlreadyExists
		}
		if err := repos.Businesses.Create(ctx, business); err != nil {
			return err
		}
		return repos.Users.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	uc.recorder.Record(ctx, access.NewTenantContext(user, business.ID, ""), audit.Event{
		Action:     entity.AuditCreate,
		EntityType: "business",
		EntityID:   business.ID,
		After:      map[string]any{"name": business.Name, "admin_email": user.Email},
		Request:    meta,
	})
	return &dto.RegisterResponse{Business: ToBusinessResponse(business), User: ToUserResponse(user)}, nil
}

// Login verifica email/password, aplica el bloqueo por intentos fallidos y genera el JWT.
// Mientras la clave no se verifique la respuesta es siempre ErrUnauthenticated: ni un email
// inexistente ni una cuenta bloqueada se distinguen de un password incorrecto.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest, meta audit.RequestMeta) (*dto.LoginResponse, error) {
	user, err := uc.userRepo.GetByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(in.Password))
		return nil, domain.ErrUnauthenticated
	}
	now := uc.now().UTC()
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		if !user.IsLocked(now) {
			user.RegisterFailedLogin(now, uc.lockout.MaxAttempts, uc.lockout.LockFor)
			if err := uc.userRepo.RecordLoginAttempt(ctx, user); err != nil {
				return nil, err
			}
		}
		return nil, domain.ErrUnauthenticated
	}
	if user.IsLocked(now) {
		return nil, domain.ErrAccountLocked
	}
	if !user.IsActive {
		return nil, domain.ErrAccountDisabled
	}
	if !user.IsApproved() {
		return nil, domain.ErrAccountUnapproved
	}

	user.RegisterSuccessfulLogin(now)
	if err := uc.userRepo.RecordLoginAttempt(ctx, user); err != nil {
		return nil, err
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.BusinessID, string(user.Role), uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}

	uc.recorder.Record(ctx, access.NewTenantContext(user, user.BusinessID, ""), audit.Event{
		Action:     entity.AuditLogin,
		EntityType: "user",
		EntityID:   user.ID,
		Request:    meta,
	})
	return &dto.LoginResponse{Token: token, User: ToUserResponse(user)}, nil
}

// Logout registra el cierre de sesión. El token es stateless y expira por sí solo.
func (uc *AuthUseCase) Logout(ctx context.Context, tc access.TenantContext, meta audit.RequestMeta) {
	uc.recorder.Record(ctx, tc, audit.Event{
		Action:     entity.AuditLogout,
		EntityType: "user",
		EntityID:   tc.ActorID(),
		Request:    meta,
	})
}

// dummyHash hash con el costo por defecto para que un email inexistente tarde lo mismo que uno real.
var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("accesos-sin-usuario"), bcrypt.DefaultCost)
	return h
})

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ToUserResponse convierte un usuario al DTO (sin hash de password).
func ToUserResponse(u *entity.User) dto.UserResponse {
	return dto.UserResponse{
		ID:             u.ID,
		BusinessID:     u.BusinessID,
		Email:          u.Email,
		Name:           u.Name,
		Role:           string(u.Role),
		IsActive:       u.IsActive,
		ApprovalStatus: string(u.ApprovalStatus),
		LastLoginAt:    u.LastLoginAt,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// ToBusinessResponse convierte un negocio al DTO.
func ToBusinessResponse(b *entity.Business) dto.BusinessResponse {
	return dto.BusinessResponse{
		ID:             b.ID,
		Name:           b.Name,
		TaxID:          b.TaxID,
		Address:        b.Address,
		Phone:          b.Phone,
		Email:          b.Email,
		IsActive:       b.IsActive,
		ApprovalStatus: string(b.ApprovalStatus),
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}
