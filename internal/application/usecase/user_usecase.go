package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Accesos-api/internal/application/audit"
	"github.com/jhoicas/Accesos-api/internal/application/auth"
	"github.com/jhoicas/Accesos-api/internal/application/dto"
	"github.com/jhoicas/Accesos-api/internal/domain"
	"github.com/jhoicas/Accesos-api/internal/domain/access"
	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
)

// UserUseCase administración de usuarios dentro de un negocio.
type UserUseCase struct {
	tx           repository.TxRunner
	repo         repository.UserRepository
	entitlements Entitlements
	recorder     *audit.Recorder
	now          func() time.Time
}

// NewUserUseCase construye el caso de uso con el puerto de persistencia.
func NewUserUseCase(tx repository.TxRunner, repo repository.UserRepository, entitlements Entitlements, recorder *audit.Recorder) *UserUseCase {
	return &UserUseCase{tx: tx, repo: repo, entitlements: entitlements, recorder: recorder, now: time.Now}
}

// List usuarios del negocio del contexto.
func (uc *UserUseCase) List(ctx context.Context, tc access.TenantContext, page dto.PageRequest) (*dto.UserListResponse, error) {
	businessID, err := requireBusiness(tc)
	if err != nil {
		return nil, err
	}
	page.DefaultPage()
	users, err := uc.repo.ListByBusiness(ctx, businessID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := &dto.UserListResponse{Items: make([]dto.UserResponse, 0, len(users)), Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}}
	for _, u := range users {
		out.Items = append(out.Items, auth.ToUserResponse(u))
	}
	return out, nil
}

// GetByID usuario del negocio del contexto.
func (uc *UserUseCase) GetByID(ctx context.Context, tc access.TenantContext, id string) (*dto.UserResponse, error) {
	u, err := uc.load(ctx, tc, id)
	if err != nil {
		return nil, err
	}
	out := auth.ToUserResponse(u)
	return &out, nil
}

// Create da de alta un usuario aprobado en el negocio. Respeta el techo max_users y
// no permite crear un rol superior al del actor.
func (uc *UserUseCase) Create(ctx context.Context, tc access.TenantContext, in dto.CreateUserRequest, meta audit.RequestMeta) (*dto.UserResponse, error) {
	businessID, err := requireBusiness(tc)
	if err != nil {
		return nil, err
	}
	role, err := uc.assignableRole(tc, in.Role)
	if err != nil {
		return nil, err
	}
	if err := uc.entitlements.WithinLimit(ctx, tc, entity.ResourceUsers); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := uc.now().UTC()
	user := &entity.User{
		ID:             uuid.New().String(),
		BusinessID:     businessID,
		Email:          strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash:   string(hash),
		Name:           strings.TrimSpace(in.Name),
		Role:           role,
		IsActive:       true,
		ApprovalStatus: entity.ApprovalApproved,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.tx.Run(ctx, func(repos repository.TxRepositories) error {
		existing, err := repos.Users.GetByEmail(ctx, user.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrEmailAlreadyExists
		}
		return repos.Users.Create(ctx, user)
	}); err != nil {
		return nil, err
	}
	uc.recorder.Record(ctx, tc, audit.Event{
		Action:     entity.AuditCreate,
		EntityType: "user",
		EntityID:   user.ID,
		After:      userSnapshot(user),
		Request:    meta,
	})
	out := auth.ToUserResponse(user)
	return &out, nil
}

// Approve aprueba una cuenta pendiente.
func (uc *UserUseCase) Approve(ctx context.Context, tc access.TenantContext, id string, meta audit.RequestMeta) (*dto.UserResponse, error) {
	return uc.setApproval(ctx, tc, id, entity.ApprovalApproved, entity.AuditApprove, meta)
}

// Reject rechaza una cuenta.
func (uc *UserUseCase) Reject(ctx context.Context, tc access.TenantContext, id string, meta audit.RequestMeta) (*dto.UserResponse, error) {
	return uc.setApproval(ctx, tc, id, entity.ApprovalRejected, entity.AuditReject, meta)
}

func (uc *UserUseCase) setApproval(ctx context.Context, tc access.TenantContext, id string, status entity.ApprovalStatus, action entity.AuditAction, meta audit.RequestMeta) (*dto.UserResponse, error) {
	if id == tc.ActorID() {
		return nil, domain.ErrForbidden
	}
	return uc.mutate(ctx, tc, id, action, meta, func(u *entity.User) error {
		if !access.Outranks(tc.Role(), u.Role) {
			return domain.ErrForbidden
		}
		u.ApprovalStatus = status
		return nil
	})
}

// ChangeRole cambia el rol de otro usuario del negocio; nunca por encima del rol del actor.
func (uc *UserUseCase) ChangeRole(ctx context.Context, tc access.TenantContext, id string, in dto.ChangeRoleRequest, meta audit.RequestMeta) (*dto.UserResponse, error) {
	if id == tc.ActorID() {
		return nil, domain.ErrForbidden
	}
	role, err := uc.assignableRole(tc, in.Role)
	if err != nil {
		return nil, err
	}
	return uc.mutate(ctx, tc, id, entity.AuditPermissionChange, meta, func(u *entity.User) error {
		if !access.Outranks(tc.Role(), u.Role) {
			return domain.ErrForbidden
		}
		u.Role = role
		return nil
	})
}

// SetActive activa o desactiva (baja lógica) una cuenta del negocio.
func (uc *UserUseCase) SetActive(ctx context.Context, tc access.TenantContext, id string, active bool, meta audit.RequestMeta) (*dto.UserResponse, error) {
	if id == tc.ActorID() {
		return nil, domain.ErrForbidden
	}
	if active {
		if err := uc.entitlements.WithinLimit(ctx, tc, entity.ResourceUsers); err != nil {
			return nil, err
		}
	}
	return uc.mutate(ctx, tc, id, entity.AuditUpdate, meta, func(u *entity.User) error {
		if !access.Outranks(tc.Role(), u.Role) {
			return domain.ErrForbidden
		}
		u.IsActive = active
		return nil
	})
}

func (uc *UserUseCase) mutate(ctx context.Context, tc access.TenantContext, id string, action entity.AuditAction, meta audit.RequestMeta, change func(u *entity.User) error) (*dto.UserResponse, error) {
	businessID, err := requireBusiness(tc)
	if err != nil {
		return nil, err
	}
	var before, after entity.User
	err = uc.tx.Run(ctx, func(repos repository.TxRepositories) error {
		u, err := repos.Users.GetInBusiness(ctx, businessID, id)
		if err != nil {
			return err
		}
		if u == nil {
			return domain.ErrTenantMismatch
		}
		before = *u
		if err := change(u); err != nil {
			return err
		}
		u.UpdatedAt = uc.now().UTC()
		after = *u
		return repos.Users.Update(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	uc.recorder.Record(ctx, tc, audit.Event{
		Action:     action,
		EntityType: "user",
		EntityID:   id,
		Before:     userSnapshot(&before),
		After:      userSnapshot(&after),
		Request:    meta,
	})
	out := auth.ToUserResponse(&after)
	return &out, nil
}

func (uc *UserUseCase) assignableRole(tc access.TenantContext, raw string) (entity.Role, error) {
	role, err := entity.ParseRole(raw)
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, domain.ErrInvalidInput)
	}
	if role == entity.RoleSuperadmin || !access.AtLeast(tc.Role(), role) {
		return "", domain.ErrForbidden
	}
	return role, nil
}

func (uc *UserUseCase) load(ctx context.Context, tc access.TenantContext, id string) (*entity.User, error) {
	businessID, err := requireBusiness(tc)
	if err != nil {
		return nil, err
	}
	u, err := uc.repo.GetInBusiness(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrTenantMismatch
	}
	return u, nil
}

func userSnapshot(u *entity.User) map[string]any {
	return map[string]any{
		"email":           u.Email,
		"role":            string(u.Role),
		"is_active":       u.IsActive,
		"approval_status": string(u.ApprovalStatus),
	}
}
