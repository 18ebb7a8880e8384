package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Accesos-api/internal/application/audit"
	"github.com/jhoicas/Accesos-api/internal/application/dto"
	"github.com/jhoicas/Accesos-api/internal/domain"
	"github.com/jhoicas/Accesos-api/internal/domain/access"
	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
)

// BranchUseCase sucursales del negocio y concesiones de acceso.
type BranchUseCase struct {
	tx           repository.TxRunner
	branches     repository.BranchRepository
	grants       repository.BranchAccessRepository
	users        repository.UserRepository
	entitlements Entitlements
	recorder     *audit.Recorder
	now          func() time.Time
}

// NewBranchUseCase construye el caso de uso.
func NewBranchUseCase(
	tx repository.TxRunner,
	branches repository.BranchRepository,
	grants repository.BranchAccessRepository,
	users repository.UserRepository,
	entitlements Entitlements,
	recorder *audit.Recorder,
) *BranchUseCase {
	return &BranchUseCase{
		tx: tx, branches: branches, grants: grants, users: users,
		entitlements: entitlements, recorder: recorder, now: time.Now,
	}
}

// List sucursales del negocio del contexto.
func (uc *BranchUseCase) List(ctx context.Context, tc access.TenantContext, page dto.PageRequest) (*dto.BranchListResponse, error) {
	businessID, err := requireBusiness(tc)
	if err != nil {
		return nil, err
	}
	page.DefaultPage()
	list, err := uc.branches.ListByBusiness(ctx, businessID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := &dto.BranchListResponse{Items: make([]dto.BranchResponse, 0, len(list)), Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}}
	for _, b := range list {
		out.Items = append(out.Items, toBranchResponse(b))
	}
	return out, nil
}

// GetByID sucursal del negocio del contexto. Una sucursal de otro negocio y una inexistente
// producen el mismo ErrTenantMismatch.
func (uc *BranchUseCase) GetByID(ctx context.Context, tc access.TenantContext, id string) (*dto.BranchResponse, error) {
	businessID, err := requireBusiness(tc)
	if err != nil {
		return nil, err
	}
	b, err := uc.branches.GetByID(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrTenantMismatch
	}
	out := toBranchResponse(b)
	return &out, nil
}

// Create da de alta una sucursal. Comprueba el techo max_branches y, a partir de la segunda,
// la funcionalidad multi_branch. El creador (si no es superadmin) recibe acceso a la sucursal,
// por defecto si es la primera que tiene.
func (uc *BranchUseCase) Create(ctx context.Context, tc access.TenantContext, in dto.CreateBranchRequest, meta audit.RequestMeta) (*dto.BranchResponse, error) {
	businessID, err := requireBusiness(tc)
	if err != nil {
		return nil, err
	}
	if err := uc.entitlements.WithinLimit(ctx, tc, entity.ResourceBranches); err != nil {
		return nil, err
	}
	existing, err := uc.branches.CountActiveByBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if existing >= 1 {
		if err := uc.entitlements.RequireFeature(ctx, tc, entity.FeatureMultiBranch); err != nil {
			return nil, err
		}
	}

	now := uc.now().UTC()
	branch := &entity.Branch{
		ID:         uuid.New().String(),
		BusinessID: businessID,
		Name:       strings.TrimSpace(in.Name),
		Address:    in.Address,
		Phone:      in.Phone,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err = uc.tx.Run(ctx, func(repos repository.TxRepositories) error {
		if err := repos.Branches.Create(ctx, branch); err != nil {
			return err
		}
		if tc.IsSuperadmin() {
			return nil
		}
		def, err := repos.BranchAccess.GetDefault(ctx, tc.ActorID())
		if err != nil {
			return err
		}
		return repos.BranchAccess.Grant(ctx, &entity.BranchAccess{
			ID:        uuid.New().String(),
			UserID:    tc.ActorID(),
			BranchID:  branch.ID,
			IsDefault: def == nil,
			GrantedBy: tc.ActorID(),
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	out := toBranchResponse(branch)
	uc.recorder.Record(ctx, tc, audit.Event{
		Action:     entity.AuditCreate,
		EntityType: "branch",
		EntityID:   branch.ID,
		After:      map[string]any{"name": branch.Name, "address": branch.Address},
		Request:    meta,
	})
	return &out, nil
}

// GrantAccess concede a un usuario del negocio acceso a una sucursal del negocio.
func (uc *BranchUseCase) GrantAccess(ctx context.Context, tc access.TenantContext, branchID string, in dto.GrantBranchAccessRequest, meta audit.RequestMeta) (*dto.BranchAccessResponse, error) {
	businessID, err := requireBusiness(tc)
	if err != nil {
		return nil, err
	}
	if err := uc.ensureBranchAndUser(ctx, businessID, branchID, in.UserID); err != nil {
		return nil, err
	}
	grant := &entity.BranchAccess{
		ID:        uuid.New().String(),
		UserID:    in.UserID,
		BranchID:  branchID,
		IsDefault: in.IsDefault,
		GrantedBy: tc.ActorID(),
		CreatedAt: uc.now().UTC(),
	}
	if err := uc.tx.Run(ctx, func(repos repository.TxRepositories) error {
		return repos.BranchAccess.Grant(ctx, grant)
	}); err != nil {
		return nil, err
	}
	uc.recorder.Record(ctx, tc, audit.Event{
		Action:     entity.AuditPermissionChange,
		EntityType: "branch_access",
		EntityID:   branchID,
		After:      map[string]any{"user_id": in.UserID, "granted": true, "is_default": in.IsDefault},
		Request:    meta,
	})
	out := toBranchAccessResponse(grant)
	return &out, nil
}

// RevokeAccess retira el acceso de un usuario a una sucursal.
func (uc *BranchUseCase) RevokeAccess(ctx context.Context, tc access.TenantContext, branchID, userID string, meta audit.RequestMeta) error {
	businessID, err := requireBusiness(tc)
	if err != nil {
		return err
	}
	if err := uc.ensureBranchAndUser(ctx, businessID, branchID, userID); err != nil {
		return err
	}
	if err := uc.tx.Run(ctx, func(repos repository.TxRepositories) error {
		return repos.BranchAccess.Revoke(ctx, userID, branchID)
	}); err != nil {
		return err
	}
	uc.recorder.Record(ctx, tc, audit.Event{
		Action:     entity.AuditPermissionChange,
		EntityType: "branch_access",
		EntityID:   branchID,
		Before:     map[string]any{"user_id": userID, "granted": true},
		After:      map[string]any{"user_id": userID, "granted": false},
		Request:    meta,
	})
	return nil
}

// SetDefault marca como predeterminada, para el propio actor, una sucursal a la que ya tiene acceso.
func (uc *BranchUseCase) SetDefault(ctx context.Context, tc access.TenantContext, branchID string, meta audit.RequestMeta) error {
	businessID, err := requireBusiness(tc)
	if err != nil {
		return err
	}
	b, err := uc.branches.GetByID(ctx, businessID, branchID)
	if err != nil {
		return err
	}
	if b == nil || !b.IsActive {
		return domain.ErrBranchAccessDenied
	}
	err = uc.tx.Run(ctx, func(repos repository.TxRepositories) error {
		grant, err := repos.BranchAccess.Get(ctx, tc.ActorID(), branchID)
		if err != nil {
			return err
		}
		if grant == nil {
			return domain.ErrBranchAccessDenied
		}
		grant.IsDefault = true
		return repos.BranchAccess.Grant(ctx, grant)
	})
	if err != nil {
		return err
	}
	uc.recorder.Record(ctx, tc, audit.Event{
		Action:     entity.AuditSettingsUpdate,
		EntityType: "branch_access",
		EntityID:   branchID,
		After:      map[string]any{"is_default": true},
		Request:    meta,
	})
	return nil
}

// ListMyAccess sucursales a las que el actor tiene acceso.
func (uc *BranchUseCase) ListMyAccess(ctx context.Context, tc access.TenantContext) ([]dto.BranchAccessResponse, error) {
	grants, err := uc.grants.ListByUser(ctx, tc.ActorID())
	if err != nil {
		return nil, err
	}
	out := make([]dto.BranchAccessResponse, 0, len(grants))
	for _, g := range grants {
		b, err := uc.branches.GetByID(ctx, tc.BusinessID(), g.BranchID)
		if err != nil {
			return nil, err
		}
		if b == nil {
			continue
		}
		out = append(out, toBranchAccessResponse(g))
	}
	return out, nil
}

func (uc *BranchUseCase) ensureBranchAndUser(ctx context.Context, businessID, branchID, userID string) error {
	b, err := uc.branches.GetByID(ctx, businessID, branchID)
	if err != nil {
		return err
	}
	if b == nil {
		return domain.ErrTenantMismatch
	}
	u, err := uc.users.GetInBusiness(ctx, businessID, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return domain.ErrTenantMismatch
	}
	return nil
}

func toBranchResponse(b *entity.Branch) dto.BranchResponse {
	return dto.BranchResponse{
		ID:         b.ID,
		BusinessID: b.BusinessID,
		Name:       b.Name,
		Address:    b.Address,
		Phone:      b.Phone,
		IsActive:   b.IsActive,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func toBranchAccessResponse(g *entity.BranchAccess) dto.BranchAccessResponse {
	return dto.BranchAccessResponse{
		UserID:    g.UserID,
		BranchID:  g.BranchID,
		IsDefault: g.IsDefault,
		GrantedBy: g.GrantedBy,
		CreatedAt: g.CreatedAt,
	}
}
