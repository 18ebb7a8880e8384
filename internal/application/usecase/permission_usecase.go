package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Accesos-api/internal/application/audit"
	"github.com/jhoicas/Accesos-api/internal/application/authz"
	"github.com/jhoicas/Accesos-api/internal/application/dto"
	"github.com/jhoicas/Accesos-api/internal/domain"
	"github.com/jhoicas/Accesos-api/internal/domain/access"
	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
)

// PermissionUseCase overrides de permisos por usuario y módulo.
type PermissionUseCase struct {
	tx       repository.TxRunner
	users    repository.UserRepository
	gate     *authz.Gate
	recorder *audit.Recorder
	now      func() time.Time
}

// NewPermissionUseCase construye el caso de uso.
func NewPermissionUseCase(tx repository.TxRunner, users repository.UserRepository, gate *authz.Gate, recorder *audit.Recorder) *PermissionUseCase {
	return &PermissionUseCase{tx: tx, users: users, gate: gate, recorder: recorder, now: time.Now}
}

// Effective permisos efectivos de un usuario del negocio del contexto.
func (uc *PermissionUseCase) Effective(ctx context.Context, tc access.TenantContext, userID string) (*dto.EffectivePermissionsResponse, error) {
	u, err := uc.target(ctx, tc, userID, access.AtLeast)
	if err != nil {
		return nil, err
	}
	perms, err := uc.gate.EffectivePermissions(ctx, u)
	if err != nil {
		return nil, err
	}
	out := &dto.EffectivePermissionsResponse{UserID: u.ID, Role: string(u.Role)}
	for _, p := range perms {
		out.Modules = append(out.Modules, dto.ModulePermissionResponse{Module: p.Module, Allowed: p.Allowed, Source: p.Source})
	}
	return out, nil
}

// Upsert concede o deniega explícitamente un módulo a un usuario.
func (uc *PermissionUseCase) Upsert(ctx context.Context, tc access.TenantContext, userID, module string, granted bool, meta audit.RequestMeta) error {
	if !entity.IsKnownModule(module) {
		return domain.ErrInvalidInput
	}
	if _, err := uc.target(ctx, tc, userID, access.Outranks); err != nil {
		return err
	}
	var previous *entity.PermissionOverride
	now := uc.now().UTC()
	err := uc.tx.Run(ctx, func(repos repository.TxRepositories) error {
		var err error
		previous, err = repos.Permissions.Get(ctx, userID, module)
		if err != nil {
			return err
		}
		return repos.Permissions.Upsert(ctx, &entity.PermissionOverride{
			ID:        uuid.New().String(),
			UserID:    userID,
			Module:    module,
			Granted:   granted,
			GrantedBy: tc.ActorID(),
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
	if err != nil {
		return err
	}
	uc.recorder.Record(ctx, tc, audit.Event{
		Action:     entity.AuditPermissionChange,
		EntityType: "permission_override",
		EntityID:   userID + ":" + module,
		Before:     overrideSnapshot(previous),
		After:      map[string]any{"module": module, "granted": granted},
		Request:    meta,
	})
	return nil
}

// Delete elimina el override; el módulo vuelve a decidirse por el rol.
func (uc *PermissionUseCase) Delete(ctx context.Context, tc access.TenantContext, userID, module string, meta audit.RequestMeta) error {
	if _, err := uc.target(ctx, tc, userID, access.Outranks); err != nil {
		return err
	}
	var previous *entity.PermissionOverride
	err := uc.tx.Run(ctx, func(repos repository.TxRepositories) error {
		var err error
		previous, err = repos.Permissions.Get(ctx, userID, module)
		if err != nil {
			return err
		}
		if previous == nil {
			return domain.ErrNotFound
		}
		return repos.Permissions.Delete(ctx, userID, module)
	})
	if err != nil {
		return err
	}
	uc.recorder.Record(ctx, tc, audit.Event{
		Action:     entity.AuditPermissionChange,
		EntityType: "permission_override",
		EntityID:   userID + ":" + module,
		Before:     overrideSnapshot(previous),
		Request:    meta,
	})
	return nil
}

// target carga el usuario dentro del negocio del contexto y exige allowed(rol del actor, rol del
// usuario): AtLeast para consultar, Outranks para modificar.
func (uc *PermissionUseCase) target(ctx context.Context, tc access.TenantContext, userID string, allowed func(actor, target entity.Role) bool) (*entity.User, error) {
	businessID, err := requireBusiness(tc)
	if err != nil {
		return nil, err
	}
	u, err := uc.users.GetInBusiness(ctx, businessID, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrTenantMismatch
	}
	if !allowed(tc.Role(), u.Role) {
		return nil, domain.ErrForbidden
	}
	return u, nil
}

func overrideSnapshot(o *entity.PermissionOverride) map[string]any {
	if o == nil {
		return nil
	}
	return map[string]any{"module": o.Module, "granted": o.Granted}
}
