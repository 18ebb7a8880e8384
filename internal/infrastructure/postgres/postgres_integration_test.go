//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/jhoicas/Accesos-api/internal/domain"
	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
	"github.com/jhoicas/Accesos-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Accesos-api/pkg/config"
)

func newPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("accesos_test"),
		tcpostgres.WithUsername("accesos"),
		tcpostgres.WithPassword("accesos_test"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(ctr) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.ApplySchema(ctx, pool))
	require.NoError(t, postgres.ApplySchema(ctx, pool), "el esquema es idempotente")
	return pool
}

type seed struct {
	businessA, businessB string
	adminA, adminB       string
	branchA, branchB     string
}

func seedTenants(t *testing.T, pool *pgxpool.Pool) seed {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	s := seed{
		businessA: uuid.NewString(), businessB: uuid.NewString(),
		adminA: uuid.NewString(), adminB: uuid.NewString(),
		branchA: uuid.NewString(), branchB: uuid.NewString(),
	}
	businesses := postgres.NewBusinessRepository(pool)
	users := postgres.NewUserRepository(pool)
	branches := postgres.NewBranchRepository(pool)
	for _, b := range []struct{ id, name, nit string }{{s.businessA, "Tienda A", "900-A"}, {s.businessB, "Tienda B", "900-B"}} {
		require.NoError(t, businesses.Create(ctx, &entity.Business{
			ID: b.id, Name: b.name, TaxID: b.nit, IsActive: true, ApprovalStatus: entity.ApprovalApproved, CreatedAt: now, UpdatedAt: now,
		}))
	}
	for _, u := range []struct{ id, business, email string }{{s.adminA, s.businessA, "a@a.co"}, {s.adminB, s.businessB, "b@b.co"}} {
		require.NoError(t, users.Create(ctx, &entity.User{
			ID: u.id, BusinessID: u.business, Email: u.email, PasswordHash: "x", Name: "Admin",
			Role: entity.RoleAdmin, IsActive: true, ApprovalStatus: entity.ApprovalApproved, CreatedAt: now, UpdatedAt: now,
		}))
	}
	for _, b := range []struct{ id, business string }{{s.branchA, s.businessA}, {s.branchB, s.businessB}} {
		require.NoError(t, branches.Create(ctx, &entity.Branch{ID: b.id, BusinessID: b.business, Name: "Centro", IsActive: true, CreatedAt: now, UpdatedAt: now}))
	}
	return s
}

// Ninguna consulta acotada por negocio devuelve filas de otro negocio.
func TestTenantScoping(t *testing.T) {
	pool := newPool(t)
	s := seedTenants(t, pool)
	ctx := context.Background()
	users := postgres.NewUserRepository(pool)
	branches := postgres.NewBranchRepository(pool)

	u, err := users.GetInBusiness(ctx, s.businessA, s.adminB)
	require.NoError(t, err)
	assert.Nil(t, u)

	b, err := branches.GetByID(ctx, s.businessA, s.branchB)
	require.NoError(t, err)
	assert.Nil(t, b)

	list, err := users.ListByBusiness(ctx, s.businessA, 50, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, s.adminA, list[0].ID)

	bl, err := branches.ListByBusiness(ctx, s.businessB, 50, 0)
	require.NoError(t, err)
	require.Len(t, bl, 1)
	assert.Equal(t, s.businessB, bl[0].BusinessID)
}

func TestUserRepo_EmailUnicoSinMayusculas(t *testing.T) {
	pool := newPool(t)
	s := seedTenants(t, pool)
	ctx := context.Background()
	users := postgres.NewUserRepository(pool)

	err := users.Create(ctx, &entity.User{
		ID: uuid.NewString(), BusinessID: s.businessA, Email: "A@A.CO", PasswordHash: "x",
		Role: entity.RoleStaff, IsActive: true, ApprovalStatus: entity.ApprovalApproved,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)

	u, err := users.GetByEmail(ctx, "A@a.co")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, s.adminA, u.ID)
	assert.Equal(t, entity.RoleAdmin, u.Role)
}

// El registro de un login no pisa rol ni estado que un administrador cambió entretanto.
func TestUserRepo_RecordLoginAttemptSoloCamposDeLogin(t *testing.T) {
	pool := newPool(t)
	s := seedTenants(t, pool)
	ctx := context.Background()
	users := postgres.NewUserRepository(pool)

	stale, err := users.GetByID(ctx, s.adminA)
	require.NoError(t, err)
	fresh := *stale
	fresh.IsActive = false
	fresh.Role = entity.RoleManager
	require.NoError(t, users.Update(ctx, &fresh))

	until := time.Now().UTC().Add(time.Hour).Truncate(time.Microsecond)
	stale.FailedAttempts = 0
	stale.LockedUntil = &until
	require.NoError(t, users.RecordLoginAttempt(ctx, stale))

	u, err := users.GetByID(ctx, s.adminA)
	require.NoError(t, err)
	assert.False(t, u.IsActive)
	assert.Equal(t, entity.RoleManager, u.Role)
	require.NotNil(t, u.LockedUntil)
	assert.True(t, u.LockedUntil.Equal(until))

	missing := *stale
	missing.ID = uuid.NewString()
	assert.ErrorIs(t, users.RecordLoginAttempt(ctx, &missing), domain.ErrUserNotFound)
}

func TestBranchAccess_UnaSolaPorDefecto(t *testing.T) {
	pool := newPool(t)
	s := seedTenants(t, pool)
	ctx := context.Background()
	second := uuid.NewString()
	require.NoError(t, postgres.NewBranchRepository(pool).Create(ctx, &entity.Branch{
		ID: second, BusinessID: s.businessA, Name: "Norte", IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}))
	tx := postgres.NewTxRunner(pool)
	grant := func(branchID string) {
		require.NoError(t, tx.Run(ctx, func(repos repository.TxRepositories) error {
			return repos.BranchAccess.Grant(ctx, &entity.BranchAccess{
				ID: uuid.NewString(), UserID: s.adminA, BranchID: branchID, IsDefault: true, GrantedBy: s.adminA, CreatedAt: time.Now(),
			})
		}))
	}
	grant(s.branchA)
	grant(second)

	grants := postgres.NewBranchAccessRepository(pool)
	def, err := grants.GetDefault(ctx, s.adminA)
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, second, def.BranchID)
	all, err := grants.ListByUser(ctx, s.adminA)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, grants.Revoke(ctx, s.adminA, s.branchA))
	assert.ErrorIs(t, grants.Revoke(ctx, s.adminA, s.branchA), domain.ErrNotFound)
}

func TestTxRunner_RollbackNoDejaEstadoParcial(t *testing.T) {
	pool := newPool(t)
	s := seedTenants(t, pool)
	ctx := context.Background()
	boom := errors.New("boom")
	newID := uuid.NewString()

	err := postgres.NewTxRunner(pool).Run(ctx, func(repos repository.TxRepositories) error {
		u, err := repos.Users.GetByID(ctx, s.adminA)
		if err != nil {
			return err
		}
		u.Role = entity.RoleStaff
		if err := repos.Users.Update(ctx, u); err != nil {
			return err
		}
		if err := repos.Branches.Create(ctx, &entity.Branch{ID: newID, BusinessID: s.businessA, Name: "X", IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	u, err := postgres.NewUserRepository(pool).GetByID(ctx, s.adminA)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, u.Role)
	b, err := postgres.NewBranchRepository(pool).GetByID(ctx, s.businessA, newID)
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestPlansSubscriptionsYUso(t *testing.T) {
	pool := newPool(t)
	s := seedTenants(t, pool)
	ctx := context.Background()
	_, err := pool.Exec(ctx, `
		INSERT INTO subscription_plans (id, name, plan_type, price_monthly, currency, max_users, max_products, max_orders, max_branches, features)
		VALUES ('pro', 'Profesional', 'professional', 149900.50, 'COP', 10, 5000, 999999, 3, ARRAY['inventory', 'multi_branch'])`)
	require.NoError(t, err)

	plan, err := postgres.NewPlanRepository(pool).GetByID(ctx, "pro")
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.True(t, plan.PriceMonthly.Equal(decimal.RequireFromString("149900.50")))
	assert.Equal(t, []string{"inventory", "multi_branch"}, plan.Features)
	assert.True(t, plan.IsUnlimited(entity.ResourceOrders))

	subs := postgres.NewSubscriptionRepository(pool)
	now := time.Now().UTC().Truncate(time.Microsecond)
	lapsed := &entity.Subscription{ID: uuid.NewString(), BusinessID: s.businessA, PlanID: "pro", Status: entity.SubscriptionActive,
		StartDate: now.AddDate(0, -2, 0), EndDate: now.AddDate(0, 0, -1), CreatedAt: now, UpdatedAt: now}
	current := &entity.Subscription{ID: uuid.NewString(), BusinessID: s.businessA, PlanID: "pro", Status: entity.SubscriptionTrial,
		StartDate: now, EndDate: now.AddDate(0, 0, 14), CreatedAt: now, UpdatedAt: now}
	require.NoError(t, subs.Create(ctx, lapsed))
	require.NoError(t, subs.Create(ctx, current))

	list, err := subs.ListLapsed(ctx, now)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, lapsed.ID, list[0].ID)
	ok, err := subs.ExpireIfLapsed(ctx, current.ID, now)
	require.NoError(t, err)
	assert.False(t, ok, "una suscripción vigente no se vence")
	ok, err = subs.ExpireIfLapsed(ctx, lapsed.ID, now)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = subs.ExpireIfLapsed(ctx, lapsed.ID, now)
	require.NoError(t, err)
	assert.False(t, ok, "expired ya no es active/trial")
	got, err := subs.GetByID(ctx, lapsed.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SubscriptionExpired, got.Status)
	assert.True(t, got.EndDate.Equal(lapsed.EndDate))
	list, err = subs.ListLapsed(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = pool.Exec(ctx, `INSERT INTO products (id, business_id, name) VALUES ($1, $2, 'p1'), ($3, $2, 'p2')`,
		uuid.NewString(), s.businessA, uuid.NewString())
	require.NoError(t, err)
	usage := postgres.NewUsageCounter(pool)
	n, err := usage.Count(ctx, s.businessA, entity.ResourceProducts)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = usage.Count(ctx, s.businessB, entity.ResourceProducts)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = usage.Count(ctx, s.businessA, entity.ResourceBranches)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAuditRepo_JSONYFiltros(t *testing.T) {
	pool := newPool(t)
	s := seedTenants(t, pool)
	ctx := context.Background()
	repo := postgres.NewAuditRepository(pool)
	base := time.Now().UTC().Truncate(time.Microsecond)
	for i, action := range []entity.AuditAction{entity.AuditCreate, entity.AuditPermissionChange, entity.AuditLogin} {
		require.NoError(t, repo.Append(ctx, &entity.AuditEntry{
			ID: uuid.NewString(), ActorID: s.adminA, BusinessID: s.businessA, Action: action,
			EntityType: "user", EntityID: s.adminA,
			OldValues: map[string]any{"role": "staff"}, NewValues: map[string]any{"role": "manager"},
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, repo.Append(ctx, &entity.AuditEntry{
		ID: uuid.NewString(), ActorID: s.adminB, BusinessID: s.businessB, Action: entity.AuditLogin, CreatedAt: base,
	}))

	all, err := repo.ListByBusiness(ctx, s.businessA, repository.AuditFilter{Limit: 50})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, entity.AuditLogin, all[0].Action, "más recientes primero")
	assert.Equal(t, "manager", all[0].NewValues["role"])

	filtered, err := repo.ListByBusiness(ctx, s.businessA, repository.AuditFilter{Action: entity.AuditPermissionChange, Limit: 50})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "staff", filtered[0].OldValues["role"])

	from := base.Add(time.Second)
	recent, err := repo.ListByBusiness(ctx, s.businessA, repository.AuditFilter{From: &from, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}
