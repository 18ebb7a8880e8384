package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Accesos-api/internal/application/audit"
	"github.com/jhoicas/Accesos-api/internal/application/authz"
	"github.com/jhoicas/Accesos-api/internal/application/dto"
	"github.com/jhoicas/Accesos-api/internal/application/subscription"
	"github.com/jhoicas/Accesos-api/internal/application/tenancy"
	"github.com/jhoicas/Accesos-api/internal/application/usecase"
	"github.com/jhoicas/Accesos-api/internal/domain"
	"github.com/jhoicas/Accesos-api/internal/domain/access"
	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
	"github.com/jhoicas/Accesos-api/internal/infrastructure/memory"
	"github.com/jhoicas/Accesos-api/pkg/logger"
)

type fixture struct {
	store       *memory.Store
	guard       *authz.Guard
	recorder    *audit.Recorder
	branches    *usecase.BranchUseCase
	users       *usecase.UserUseCase
	permissions *usecase.PermissionUseCase
	businesses  *usecase.BusinessUseCase
}

func newFixture(t *testing.T, counter repository.UsageCounter) fixture {
	t.Helper()
	store := memory.NewStore()
	if counter == nil {
		counter = store.Usage()
	}
	store.Plans().Put(&entity.Plan{
		ID: "pro", Name: "Profesional", PlanType: entity.PlanProfessional, IsActive: true,
		MaxUsers: 3, MaxProducts: 1000, MaxOrders: 1000, MaxBranches: 3,
		Features: []string{"inventory", "multi_branch"},
	})
	store.Plans().Put(&entity.Plan{
		ID: "basic", Name: "Básico", PlanType: entity.PlanBasic, IsActive: true,
		MaxUsers: 3, MaxBranches: 5, Features: []string{"inventory"},
	})
	ctx := context.Background()
	require.NoError(t, store.Businesses().Create(ctx, &entity.Business{ID: "b1", Name: "Tienda Uno", IsActive: true, ApprovalStatus: entity.ApprovalApproved}))
	require.NoError(t, store.Businesses().Create(ctx, &entity.Business{ID: "b2", Name: "Tienda Dos", IsActive: true, ApprovalStatus: entity.ApprovalPending}))
	require.NoError(t, store.Users().Create(ctx, &entity.User{ID: "admin1", BusinessID: "b1", Email: "admin@uno.co", Role: entity.RoleAdmin, IsActive: true, ApprovalStatus: entity.ApprovalApproved}))
	require.NoError(t, store.Users().Create(ctx, &entity.User{ID: "staff1", BusinessID: "b1", Email: "staff@uno.co", Role: entity.RoleStaff, IsActive: true, ApprovalStatus: entity.ApprovalApproved}))
	require.NoError(t, store.Users().Create(ctx, &entity.User{ID: "admin2", BusinessID: "b2", Email: "admin@dos.co", Role: entity.RoleAdmin, IsActive: true, ApprovalStatus: entity.ApprovalPending}))

	rec := audit.NewRecorder(store.Audit(), logger.Nop(), nil)
	validator := subscription.NewValidator(store.Subscriptions(), store.Plans(), counter, logger.Nop())
	gate := authz.NewGate(store.Permissions())
	guard := authz.NewGuard(tenancy.NewResolver(store.Branches(), store.BranchAccess()), gate, validator, nil)
	tx := store.TxRunner()
	return fixture{
		store:       store,
		guard:       guard,
		recorder:    rec,
		branches:    usecase.NewBranchUseCase(tx, store.Branches(), store.BranchAccess(), store.Users(), guard, rec),
		users:       usecase.NewUserUseCase(tx, store.Users(), guard, rec),
		permissions: usecase.NewPermissionUseCase(tx, store.Users(), gate, rec),
		businesses:  usecase.NewBusinessUseCase(tx, store.Businesses(), store.Users(), rec),
	}
}

func (f fixture) subscribe(t *testing.T, businessID, planID string) {
	t.Helper()
	require.NoError(t, f.store.Subscriptions().Create(context.Background(), &entity.Subscription{
		ID: "sub-" + businessID, BusinessID: businessID, PlanID: planID, Status: entity.SubscriptionActive,
		StartDate: time.Now().AddDate(0, -1, 0), EndDate: time.Now().AddDate(0, 1, 0),
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}))
}

func (f fixture) branch(t *testing.T, id, businessID string) {
	t.Helper()
	require.NoError(t, f.store.Branches().Create(context.Background(), &entity.Branch{
		ID: id, BusinessID: businessID, Name: "Sucursal " + id, IsActive: true, CreatedAt: time.Now(),
	}))
}

func ctxFor(id string, role entity.Role, businessID string) access.TenantContext {
	return access.NewTenantContext(&entity.User{ID: id, Role: role, BusinessID: businessID}, businessID, "")
}

var admin1 = ctxFor("admin1", entity.RoleAdmin, "b1")

func TestBranchCreate_PrimeraSucursalConAccesoPorDefecto(t *testing.T) {
	f := newFixture(t, nil)
	f.subscribe(t, "b1", "basic")
	out, err := f.branches.Create(context.Background(), admin1, dto.CreateBranchRequest{Name: " Centro "}, audit.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "Centro", out.Name)
	assert.Equal(t, "b1", out.BusinessID)

	def, err := f.store.BranchAccess().GetDefault(context.Background(), "admin1")
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, out.ID, def.BranchID)

	entries := f.store.Audit().All()
	require.Len(t, entries, 1)
	assert.Equal(t, "branch", entries[0].EntityType)
}

func TestBranchCreate_SegundaRequiereMultiBranch(t *testing.T) {
	f := newFixture(t, nil)
	f.subscribe(t, "b1", "basic")
	f.branch(t, "br1", "b1")
	_, err := f.branches.Create(context.Background(), admin1, dto.CreateBranchRequest{Name: "Norte"}, audit.RequestMeta{})
	assert.ErrorIs(t, err, domain.ErrFeatureNotInPlan)
	assert.Empty(t, f.store.Audit().All(), "una operación rechazada no se audita")
}

func TestBranchCreate_TechoAlcanzado(t *testing.T) {
	f := newFixture(t, nil)
	f.subscribe(t, "b1", "pro")
	for _, id := range []string{"br1", "br2", "br3"} {
		f.branch(t, id, "b1")
	}
	_, err := f.branches.Create(context.Background(), admin1, dto.CreateBranchRequest{Name: "Cuarta"}, audit.RequestMeta{})
	var le *domain.LimitExceededError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 3, le.Current)
	assert.Equal(t, 3, le.Ceiling)
}

func TestBranchCreate_SinSuscripcion(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.branches.Create(context.Background(), admin1, dto.CreateBranchRequest{Name: "Centro"}, audit.RequestMeta{})
	assert.ErrorIs(t, err, domain.ErrNoActiveSubscription)
}

func TestBranchCreate_SuperadminSinSuscripcion(t *testing.T) {
	f := newFixture(t, nil)
	f.branch(t, "br1", "b2")
	root := access.NewTenantContext(&entity.User{ID: "root", Role: entity.RoleSuperadmin}, "b2", "")
	out, err := f.branches.Create(context.Background(), root, dto.CreateBranchRequest{Name: "Plataforma"}, audit.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "b2", out.BusinessID)
	grants, err := f.store.BranchAccess().ListByUser(context.Background(), "root")
	require.NoError(t, err)
	assert.Empty(t, grants)
}

// Los listados y lecturas nunca devuelven entidades de otro negocio.
func TestTenantScoping(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.branch(t, "br1", "b1")
	f.branch(t, "br2", "b2")

	list, err := f.branches.List(ctx, admin1, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "b1", list.Items[0].BusinessID)

	_, err = f.branches.GetByID(ctx, admin1, "br2")
	assert.ErrorIs(t, err, domain.ErrTenantMismatch)
	_, err = f.branches.GetByID(ctx, admin1, "no-existe")
	assert.ErrorIs(t, err, domain.ErrTenantMismatch, "inexistente y ajena son indistinguibles")

	users, err := f.users.List(ctx, admin1, dto.PageRequest{})
	require.NoError(t, err)
	for _, u := range users.Items {
		assert.Equal(t, "b1", u.BusinessID)
	}
	_, err = f.users.GetByID(ctx, admin1, "admin2")
	assert.ErrorIs(t, err, domain.ErrTenantMismatch)

	_, err = f.users.Approve(ctx, admin1, "admin2", audit.RequestMeta{})
	assert.ErrorIs(t, err, domain.ErrTenantMismatch)

	_, err = f.branches.GrantAccess(ctx, admin1, "br1", dto.GrantBranchAccessRequest{UserID: "admin2"}, audit.RequestMeta{})
	assert.ErrorIs(t, err, domain.ErrTenantMismatch)

	err = f.permissions.Upsert(ctx, admin1, "admin2", entity.ModuleSales, true, audit.RequestMeta{})
	assert.ErrorIs(t, err, domain.ErrTenantMismatch)
	assert.Empty(t, f.store.Audit().All())
}

// Dos altas concurrentes que leen el mismo uso (techo - 1) superan el techo en uno, nunca más.
func TestBranchCreate_CarreraSuperaElTechoEnUnoComoMaximo(t *testing.T) {
	var barrier sync.WaitGroup
	barrier.Add(2)
	f := newFixture(t, nil)
	racy := newFixtureWithStore(f, &barrierCounter{inner: f.store.Usage(), barrier: &barrier})
	racy.subscribe(t, "b1", "pro")
	racy.branch(t, "br1", "b1")
	racy.branch(t, "br2", "b1")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = racy.branches.Create(context.Background(), admin1, dto.CreateBranchRequest{Name: "Nueva"}, audit.RequestMeta{})
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	n, err := racy.store.Branches().CountActiveByBusiness(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, 4, n, "ambas altas pasaron la comprobación")
	assert.LessOrEqual(t, n, 3+1)

	// sin carrera, la siguiente alta se rechaza
	_, err = f.branches.Create(context.Background(), admin1, dto.CreateBranchRequest{Name: "Quinta"}, audit.RequestMeta{})
	assert.ErrorIs(t, err, domain.ErrLimitExceeded)
}

type barrierCounter struct {
	inner   repository.UsageCounter
	barrier *sync.WaitGroup
}

func (b *barrierCounter) Count(ctx context.Context, businessID string, r entity.Resource) (int, error) {
	n, err := b.inner.Count(ctx, businessID, r)
	b.barrier.Done()
	b.barrier.Wait()
	return n, err
}

// newFixtureWithStore reutiliza el store de f con un contador de uso distinto.
func newFixtureWithStore(f fixture, counter repository.UsageCounter) fixture {
	validator := subscription.NewValidator(f.store.Subscriptions(), f.store.Plans(), counter, logger.Nop())
	gate := authz.NewGate(f.store.Permissions())
	guard := authz.NewGuard(tenancy.NewResolver(f.store.Branches(), f.store.BranchAccess()), gate, validator, nil)
	f.guard = guard
	f.branches = usecase.NewBranchUseCase(f.store.TxRunner(), f.store.Branches(), f.store.BranchAccess(), f.store.Users(), guard, f.recorder)
	return f
}

func TestBranchAccess_ConcederRevocarYDefecto(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.branch(t, "br1", "b1")
	f.branch(t, "br2", "b1")

	_, err := f.branches.GrantAccess(ctx, admin1, "br1", dto.GrantBranchAccessRequest{UserID: "staff1", IsDefault: true}, audit.RequestMeta{})
	require.NoError(t, err)
	_, err = f.branches.GrantAccess(ctx, admin1, "br2", dto.GrantBranchAccessRequest{UserID: "staff1"}, audit.RequestMeta{})
	require.NoError(t, err)

	staff := ctxFor("staff1", entity.RoleStaff, "b1")
	require.NoError(t, f.branches.SetDefault(ctx, staff, "br2", audit.RequestMeta{}))
	def, err := f.store.BranchAccess().GetDefault(ctx, "staff1")
	require.NoError(t, err)
	assert.Equal(t, "br2", def.BranchID)

	mine, err := f.branches.ListMyAccess(ctx, staff)
	require.NoError(t, err)
	defaults := 0
	for _, g := range mine {
		if g.IsDefault {
			defaults++
		}
	}
	assert.Len(t, mine, 2)
	assert.Equal(t, 1, defaults, "a lo sumo una sucursal por defecto")

	require.NoError(t, f.branches.RevokeAccess(ctx, admin1, "br2", "staff1", audit.RequestMeta{}))
	assert.ErrorIs(t, f.branches.SetDefault(ctx, staff, "br2", audit.RequestMeta{}), domain.ErrBranchAccessDenied)
}

func TestUserCreate_LimiteYRoles(t *testing.T) {
	f := newFixture(t, nil)
	f.subscribe(t, "b1", "pro")
	ctx := context.Background()

	out, err := f.users.Create(ctx, admin1, dto.CreateUserRequest{Email: "Nuevo@Uno.co", Password: "clave-segura-1", Name: "Nuevo", Role: "manager"}, audit.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "nuevo@uno.co", out.Email)
	assert.Equal(t, "approved", out.ApprovalStatus)

	_, err = f.users.Create(ctx, admin1, dto.CreateUserRequest{Email: "otro@uno.co", Password: "clave-segura-1", Name: "Otro", Role: "staff"}, audit.RequestMeta{})
	assert.ErrorIs(t, err, domain.ErrLimitExceeded, "max_users=3 ya alcanzado")

	manager := ctxFor(out.ID, entity.RoleManager, "b1")
	_, err = f.users.Create(ctx, manager, dto.CreateUserRequest{Email: "x@uno.co", Password: "clave-segura-1", Name: "X", Role: "admin"}, audit.RequestMeta{})
	assert.ErrorIs(t, err, domain.ErrForbidden, "nadie crea un rol superior al propio")

	_, err = f.users.Create(ctx, admin1, dto.CreateUserRequest{Email: "x@uno.co", Password: "clave-segura-1", Name: "X", Role: "superadmin"}, audit.RequestMeta{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUserCreate_EmailDuplicado(t *testing.T) {
	f := newFixture(t, nil)
	f.subscribe(t, "b1", "basic")
	_, err := f.users.Create(context.Background(), admin1, dto.CreateUserRequest{Email: "STAFF@uno.co", Password: "clave-segura-1", Name: "X", Role: "staff"}, audit.RequestMeta{})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestUser_AprobarCambiarRolYDesactivar(t *testing.T) {
	f := newFixture(t, nil)
	f.subscribe(t, "b1", "basic")
	ctx := context.Background()
	require.NoError(t, f.store.Users().Create(ctx, &entity.User{ID: "pend", BusinessID: "b1", Email: "p@uno.co", Role: entity.RoleStaff, IsActive: true, ApprovalStatus: entity.ApprovalPending}))

	out, err := f.users.Approve(ctx, admin1, "pend", audit.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "approved", out.ApprovalStatus)

	out, err = f.users.ChangeRole(ctx, admin1, "pend", dto.ChangeRoleRequest{Role: "manager"}, audit.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "manager", out.Role)

	_, err = f.users.ChangeRole(ctx, admin1, "admin1", dto.ChangeRoleRequest{Role: "staff"}, audit.RequestMeta{})
	assert.ErrorIs(t, err, domain.ErrForbidden, "nadie cambia su propio rol")

	out, err = f.users.SetActive(ctx, admin1, "pend", false, audit.RequestMeta{})
	require.NoError(t, err)
	assert.False(t, out.IsActive)

	entries := f.store.Audit().All()
	require.Len(t, entries, 3)
	assert.Equal(t, entity.AuditApprove, entries[0].Action)
	assert.Equal(t, entity.AuditPermissionChange, entries[1].Action)
	assert.Equal(t, "staff", entries[1].OldValues["role"])
	assert.Equal(t, "manager", entries[1].NewValues["role"])
	assert.Equal(t, entity.AuditUpdate, entries[2].Action)
}

func TestPermissions_OverrideYEfectivos(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.permissions.Upsert(ctx, admin1, "staff1", entity.ModuleSales, false, audit.RequestMeta{}))
	staff := ctxFor("staff1", entity.RoleStaff, "b1")
	assert.ErrorIs(t, f.guard.Gate().RequireModule(ctx, staff, entity.ModuleSales), domain.ErrForbidden)

	eff, err := f.permissions.Effective(ctx, admin1, "staff1")
	require.NoError(t, err)
	for _, m := range eff.Modules {
		if m.Module == entity.ModuleSales {
			assert.False(t, m.Allowed)
			assert.Equal(t, "override", m.Source)
		}
	}

	require.NoError(t, f.permissions.Delete(ctx, admin1, "staff1", entity.ModuleSales, audit.RequestMeta{}))
	assert.NoError(t, f.guard.Gate().RequireModule(ctx, staff, entity.ModuleSales))
	assert.ErrorIs(t, f.permissions.Delete(ctx, admin1, "staff1", entity.ModuleSales, audit.RequestMeta{}), domain.ErrNotFound)

	assert.ErrorIs(t, f.permissions.Upsert(ctx, admin1, "staff1", "nomina_extra", true, audit.RequestMeta{}), domain.ErrInvalidInput)

	entries := f.store.Audit().All()
	require.Len(t, entries, 2)
	assert.Nil(t, entries[0].OldValues)
	assert.Equal(t, false, entries[1].OldValues["granted"])
}

func TestPermissions_NoSobreRolSuperior(t *testing.T) {
	f := newFixture(t, nil)
	staff := ctxFor("staff1", entity.RoleStaff, "b1")
	err := f.permissions.Upsert(context.Background(), staff, "admin1", entity.ModuleUsers, false, audit.RequestMeta{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// Un par con el mismo rol puede consultar los permisos, pero no modificar rol, estado ni overrides.
func TestPermissions_NoSobreRolIgual(t *testing.T) {
	f := newFixture(t, nil)
	f.subscribe(t, "b1", "basic")
	ctx := context.Background()
	require.NoError(t, f.store.Users().Create(ctx, &entity.User{ID: "admin1b", BusinessID: "b1", Email: "admin2@uno.co", Role: entity.RoleAdmin, IsActive: true, ApprovalStatus: entity.ApprovalApproved}))

	_, err := f.users.ChangeRole(ctx, admin1, "admin1b", dto.ChangeRoleRequest{Role: "staff"}, audit.RequestMeta{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.users.SetActive(ctx, admin1, "admin1b", false, audit.RequestMeta{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.users.Reject(ctx, admin1, "admin1b", audit.RequestMeta{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, f.permissions.Upsert(ctx, admin1, "admin1b", entity.ModuleUsers, false, audit.RequestMeta{}), domain.ErrForbidden)
	assert.ErrorIs(t, f.permissions.Delete(ctx, admin1, "admin1b", entity.ModuleUsers, audit.RequestMeta{}), domain.ErrForbidden)

	peer, err := f.store.Users().GetByID(ctx, "admin1b")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, peer.Role)
	assert.True(t, peer.IsActive)
	assert.Equal(t, entity.ApprovalApproved, peer.ApprovalStatus)
	assert.Empty(t, f.store.Audit().All())

	_, err = f.permissions.Effective(ctx, admin1, "admin1b")
	assert.NoError(t, err, "consultar a un par sí está permitido")

	staffA := ctxFor("staff1", entity.RoleStaff, "b1")
	require.NoError(t, f.store.Users().Create(ctx, &entity.User{ID: "staff2", BusinessID: "b1", Email: "staff2@uno.co", Role: entity.RoleStaff, IsActive: true, ApprovalStatus: entity.ApprovalApproved}))
	assert.ErrorIs(t, f.permissions.Upsert(ctx, staffA, "staff2", entity.ModuleSales, true, audit.RequestMeta{}), domain.ErrForbidden)
}

// Si la operación falla dentro de la transacción no queda nada confirmado ni auditado.
func TestTransaccion_FalloNoDejaEstadoParcial(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.users.ChangeRole(ctx, ctxFor("mgr", entity.RoleManager, "b1"), "admin1", dto.ChangeRoleRequest{Role: "staff"}, audit.RequestMeta{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	admin, err := f.store.Users().GetByID(ctx, "admin1")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, admin.Role)
	assert.Empty(t, f.store.Audit().All())
}

func TestBusiness_AprobacionDePlataforma(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	root := access.NewTenantContext(&entity.User{ID: "root", Role: entity.RoleSuperadmin}, "", "")

	_, err := f.businesses.Approve(ctx, admin1, "b2", audit.RequestMeta{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	out, err := f.businesses.Approve(ctx, root, "b2", audit.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "approved", out.ApprovalStatus)
	adm, err := f.store.Users().GetByID(ctx, "admin2")
	require.NoError(t, err)
	assert.Equal(t, entity.ApprovalApproved, adm.ApprovalStatus)

	entries := f.store.Audit().All()
	require.Len(t, entries, 1)
	assert.Equal(t, "b2", entries[0].BusinessID)

	list, err := f.businesses.List(ctx, root, dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)

	cur, err := f.businesses.Current(ctx, admin1)
	require.NoError(t, err)
	assert.Equal(t, "Tienda Uno", cur.Name)
}
