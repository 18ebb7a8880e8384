package tenancy_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Accesos-api/internal/application/tenancy"
	"github.com/jhoicas/Accesos-api/internal/domain"
	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/infrastructure/memory"
)

type fixture struct {
	store    *memory.Store
	resolver *tenancy.Resolver
	staff    *entity.User
	root     *entity.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	now := time.Now()
	for _, b := range []*entity.Branch{
		{ID: "br1", BusinessID: "b1", Name: "Centro", IsActive: true, CreatedAt: now},
		{ID: "br2", BusinessID: "b1", Name: "Norte", IsActive: true, CreatedAt: now},
		{ID: "br3", BusinessID: "b2", Name: "Otro negocio", IsActive: true, CreatedAt: now},
		{ID: "br4", BusinessID: "b1", Name: "Cerrada", IsActive: false, CreatedAt: now},
	} {
		require.NoError(t, store.Branches().Create(ctx, b))
	}
	staff := &entity.User{ID: "u1", BusinessID: "b1", Role: entity.RoleStaff, IsActive: true, ApprovalStatus: entity.ApprovalApproved}
	root := &entity.User{ID: "root", Role: entity.RoleSuperadmin, IsActive: true, ApprovalStatus: entity.ApprovalApproved}
	return fixture{
		store:    store,
		resolver: tenancy.NewResolver(store.Branches(), store.BranchAccess()),
		staff:    staff,
		root:     root,
	}
}

func (f fixture) grant(t *testing.T, userID, branchID string, isDefault bool) {
	t.Helper()
	require.NoError(t, f.store.BranchAccess().Grant(context.Background(), &entity.BranchAccess{
		UserID: userID, BranchID: branchID, IsDefault: isDefault,
	}))
}

func TestResolve_NegocioDelUsuarioSinSucursal(t *testing.T) {
	f := newFixture(t)
	tc, err := f.resolver.Resolve(context.Background(), f.staff, tenancy.Request{})
	require.NoError(t, err)
	assert.Equal(t, "b1", tc.BusinessID())
	assert.False(t, tc.HasBranch())
	assert.Equal(t, "u1", tc.ActorID())
}

func TestResolve_SucursalExplicitaConConcesion(t *testing.T) {
	f := newFixture(t)
	f.grant(t, "u1", "br2", false)
	tc, err := f.resolver.Resolve(context.Background(), f.staff, tenancy.Request{BranchID: "br2"})
	require.NoError(t, err)
	assert.Equal(t, "br2", tc.BranchID())
}

// Para todo par (usuario, sucursal) sin concesión, pedir esa sucursal falla.
func TestResolve_SinConcesionSiempreDeniega(t *testing.T) {
	f := newFixture(t)
	f.grant(t, "u1", "br1", true)
	for _, branch := range []string{"br2", "br3", "br4", "no-existe"} {
		_, err := f.resolver.Resolve(context.Background(), f.staff, tenancy.Request{BranchID: branch})
		assert.ErrorIs(t, err, domain.ErrBranchAccessDenied, "sucursal %s", branch)
	}
}

func TestResolve_ConcesionASucursalDeOtroNegocio(t *testing.T) {
	f := newFixture(t)
	f.grant(t, "u1", "br3", false)
	_, err := f.resolver.Resolve(context.Background(), f.staff, tenancy.Request{BranchID: "br3"})
	assert.ErrorIs(t, err, domain.ErrBranchAccessDenied)
}

func TestResolve_SucursalPorDefecto(t *testing.T) {
	f := newFixture(t)
	f.grant(t, "u1", "br2", false)
	f.grant(t, "u1", "br1", true)
	tc, err := f.resolver.Resolve(context.Background(), f.staff, tenancy.Request{})
	require.NoError(t, err)
	assert.Equal(t, "br1", tc.BranchID())
}

func TestResolve_PorDefectoInactivaSeIgnora(t *testing.T) {
	f := newFixture(t)
	f.grant(t, "u1", "br4", true)
	tc, err := f.resolver.Resolve(context.Background(), f.staff, tenancy.Request{})
	require.NoError(t, err)
	assert.False(t, tc.HasBranch())
}

func TestResolve_RutaDeOtroNegocio(t *testing.T) {
	f := newFixture(t)
	_, err := f.resolver.Resolve(context.Background(), f.staff, tenancy.Request{BusinessID: "b2"})
	assert.ErrorIs(t, err, domain.ErrTenantMismatch)

	tc, err := f.resolver.Resolve(context.Background(), f.staff, tenancy.Request{BusinessID: "b1"})
	require.NoError(t, err)
	assert.Equal(t, "b1", tc.BusinessID())
}

func TestResolve_NoSuperadminSinNegocio(t *testing.T) {
	f := newFixture(t)
	orphan := &entity.User{ID: "u9", Role: entity.RoleAdmin}
	_, err := f.resolver.Resolve(context.Background(), orphan, tenancy.Request{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestResolve_SuperadminMultiTenant(t *testing.T) {
	f := newFixture(t)
	tc, err := f.resolver.Resolve(context.Background(), f.root, tenancy.Request{})
	require.NoError(t, err)
	assert.True(t, tc.IsCrossTenant())

	tc, err = f.resolver.Resolve(context.Background(), f.root, tenancy.Request{BusinessID: "b2"})
	require.NoError(t, err)
	assert.Equal(t, "b2", tc.BusinessID())
}

func TestResolve_SuperadminTambienNecesitaConcesion(t *testing.T) {
	f := newFixture(t)
	_, err := f.resolver.Resolve(context.Background(), f.root, tenancy.Request{BusinessID: "b1", BranchID: "br1"})
	assert.ErrorIs(t, err, domain.ErrBranchAccessDenied)

	f.grant(t, "root", "br1", false)
	tc, err := f.resolver.Resolve(context.Background(), f.root, tenancy.Request{BusinessID: "b1", BranchID: "br1"})
	require.NoError(t, err)
	assert.Equal(t, "br1", tc.BranchID())

	_, err = f.resolver.Resolve(context.Background(), f.root, tenancy.Request{BranchID: "br1"})
	assert.ErrorIs(t, err, domain.ErrBranchAccessDenied, "sin negocio no hay sucursal válida")
}
