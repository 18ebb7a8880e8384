package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/Accesos-api/internal/application/audit"
	"github.com/jhoicas/Accesos-api/internal/application/auth"
	"github.com/jhoicas/Accesos-api/internal/application/dto"
	"github.com/jhoicas/Accesos-api/internal/domain"
	"github.com/jhoicas/Accesos-api/internal/domain/access"
	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
)

// BusinessUseCase datos del negocio y su aprobación por la plataforma.
type BusinessUseCase struct {
	tx       repository.TxRunner
	repo     repository.BusinessRepository
	users    repository.UserRepository
	recorder *audit.Recorder
	now      func() time.Time
}

// NewBusinessUseCase construye el caso de uso.
func NewBusinessUseCase(tx repository.TxRunner, repo repository.BusinessRepository, users repository.UserRepository, recorder *audit.Recorder) *BusinessUseCase {
	return &BusinessUseCase{tx: tx, repo: repo, users: users, recorder: recorder, now: time.Now}
}

// Current negocio del contexto.
func (uc *BusinessUseCase) Current(ctx context.Context, tc access.TenantContext) (*dto.BusinessResponse, error) {
	businessID, err := requireBusiness(tc)
	if err != nil {
		return nil, err
	}
	b, err := uc.repo.GetByID(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrNotFound
	}
	out := auth.ToBusinessResponse(b)
	return &out, nil
}

// Update modifica los datos del negocio del contexto.
func (uc *BusinessUseCase) Update(ctx context.Context, tc access.TenantContext, in dto.UpdateBusinessRequest, meta audit.RequestMeta) (*dto.BusinessResponse, error) {
	businessID, err := requireBusiness(tc)
	if err != nil {
		return nil, err
	}
	var before, after entity.Business
	err = uc.tx.Run(ctx, func(repos repository.TxRepositories) error {
		b, err := repos.Businesses.GetByID(ctx, businessID)
		if err != nil {
			return err
		}
		if b == nil {
			return domain.ErrNotFound
		}
		before = *b
		b.Name = strings.TrimSpace(in.Name)
		b.Address = in.Address
		b.Phone = in.Phone
		b.Email = in.Email
		b.UpdatedAt = uc.now().UTC()
		after = *b
		return repos.Businesses.Update(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	uc.recorder.Record(ctx, tc, audit.Event{
		Action:     entity.AuditSettingsUpdate,
		EntityType: "business",
		EntityID:   businessID,
		Before:     businessSnapshot(&before),
		After:      businessSnapshot(&after),
		Request:    meta,
	})
	out := auth.ToBusinessResponse(&after)
	return &out, nil
}

// List todos los negocios (operación de plataforma).
func (uc *BusinessUseCase) List(ctx context.Context, tc access.TenantContext, page dto.PageRequest) (*dto.BusinessListResponse, error) {
	if !tc.IsSuperadmin() {
		return nil, domain.ErrForbidden
	}
	page.DefaultPage()
	list, err := uc.repo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := &dto.BusinessListResponse{Items: make([]dto.BusinessResponse, 0, len(list)), Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}}
	for _, b := range list {
		out.Items = append(out.Items, auth.ToBusinessResponse(b))
	}
	return out, nil
}

// Approve aprueba un negocio y a sus administradores pendientes.
func (uc *BusinessUseCase) Approve(ctx context.Context, tc access.TenantContext, id string, meta audit.RequestMeta) (*dto.BusinessResponse, error) {
	return uc.setApproval(ctx, tc, id, entity.ApprovalApproved, entity.AuditApprove, meta)
}

// Reject rechaza un negocio y a sus administradores pendientes.
func (uc *BusinessUseCase) Reject(ctx context.Context, tc access.TenantContext, id string, meta audit.RequestMeta) (*dto.BusinessResponse, error) {
	return uc.setApproval(ctx, tc, id, entity.ApprovalRejected, entity.AuditReject, meta)
}

func (uc *BusinessUseCase) setApproval(ctx context.Context, tc access.TenantContext, id string, status entity.ApprovalStatus, action entity.AuditAction, meta audit.RequestMeta) (*dto.BusinessResponse, error) {
	if !tc.IsSuperadmin() {
		return nil, domain.ErrForbidden
	}
	var before, after entity.Business
	now := uc.now().UTC()
	err := uc.tx.Run(ctx, func(repos repository.TxRepositories) error {
		b, err := repos.Businesses.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if b == nil {
			return domain.ErrNotFound
		}
		before = *b
		b.ApprovalStatus = status
		b.UpdatedAt = now
		after = *b
		if err := repos.Businesses.Update(ctx, b); err != nil {
			return err
		}
		admins, err := repos.Users.ListByBusiness(ctx, id, 1000, 0)
		if err != nil {
			return err
		}
		for _, u := range admins {
			if u.Role != entity.RoleAdmin || u.ApprovalStatus != entity.ApprovalPending {
				continue
			}
			u.ApprovalStatus = status
			u.UpdatedAt = now
			if err := repos.Users.Update(ctx, u); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.recorder.Record(ctx, access.NewTenantContext(&entity.User{ID: tc.ActorID(), Role: tc.Role()}, id, ""), audit.Event{
		Action:     action,
		EntityType: "business",
		EntityID:   id,
		Before:     businessSnapshot(&before),
		After:      businessSnapshot(&after),
		Request:    meta,
	})
	out := auth.ToBusinessResponse(&after)
	return &out, nil
}

func businessSnapshot(b *entity.Business) map[string]any {
	return map[string]any{
		"name":            b.Name,
		"address":         b.Address,
		"phone":           b.Phone,
		"email":           b.Email,
		"approval_status": string(b.ApprovalStatus),
	}
}
