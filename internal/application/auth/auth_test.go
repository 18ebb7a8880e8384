package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Accesos-api/internal/application/audit"
	"github.com/jhoicas/Accesos-api/internal/application/auth"
	"github.com/jhoicas/Accesos-api/internal/application/dto"
	"github.com/jhoicas/Accesos-api/internal/domain"
	"github.com/jhoicas/Accesos-api/internal/domain/access"
	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/infrastructure/memory"
	"github.com/jhoicas/Accesos-api/pkg/jwt"
	"github.com/jhoicas/Accesos-api/pkg/logger"
)

var jwtCfg = auth.JWTConfig{Secret: "test-secret-key-for-unit-tests", ExpMinutes: 60, Issuer: "accesos-test"}

func seedUser(t *testing.T, store *memory.Store, mutate func(u *entity.User)) *entity.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("clave-segura-1"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &entity.User{
		ID: "u1", BusinessID: "b1", Email: "ana@tienda.co", PasswordHash: string(hash), Name: "Ana",
		Role: entity.RoleStaff, IsActive: true, ApprovalStatus: entity.ApprovalApproved,
	}
	if mutate != nil {
		mutate(u)
	}
	require.NoError(t, store.Users().Create(context.Background(), u))
	return u
}

func token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := jwt.Generate(jwtCfg.Secret, userID, "b1", "staff", jwtCfg.Issuer, 5)
	require.NoError(t, err)
	return tok
}

func newAuth(store *memory.Store) *auth.AuthUseCase {
	rec := audit.NewRecorder(store.Audit(), logger.Nop(), nil)
	return auth.NewAuthUseCase(store.TxRunner(), store.Users(), rec, jwtCfg, auth.LockoutPolicy{MaxAttempts: 3, LockFor: 15 * time.Minute})
}

func TestResolve_UsuarioValido(t *testing.T) {
	store := memory.NewStore()
	seedUser(t, store, nil)
	r := auth.NewIdentityResolver(store.Users(), jwtCfg)
	u, err := r.Resolve(context.Background(), token(t, "u1"))
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
}

func TestResolve_RelecturaDelUsuario(t *testing.T) {
	store := memory.NewStore()
	seedUser(t, store, nil)
	r := auth.NewIdentityResolver(store.Users(), jwtCfg)
	tok := token(t, "u1")

	// el token dice staff; el rol vigente es el almacenado
	u, err := store.Users().GetByID(context.Background(), "u1")
	require.NoError(t, err)
	u.Role = entity.RoleManager
	require.NoError(t, store.Users().Update(context.Background(), u))

	got, err := r.Resolve(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleManager, got.Role)

	u.IsActive = false
	require.NoError(t, store.Users().Update(context.Background(), u))
	_, err = r.Resolve(context.Background(), tok)
	assert.ErrorIs(t, err, domain.ErrAccountDisabled)
}

func TestResolve_Fallos(t *testing.T) {
	store := memory.NewStore()
	seedUser(t, store, nil)
	seedUser(t, store, func(u *entity.User) { u.ID = "pend"; u.Email = "p@x.co"; u.ApprovalStatus = entity.ApprovalPending })
	seedUser(t, store, func(u *entity.User) { u.ID = "rej"; u.Email = "r@x.co"; u.ApprovalStatus = entity.ApprovalRejected })
	seedUser(t, store, func(u *entity.User) {
		until := time.Now().Add(time.Hour)
		u.ID = "lock"
		u.Email = "l@x.co"
		u.LockedUntil = &until
	})
	r := auth.NewIdentityResolver(store.Users(), jwtCfg)
	ctx := context.Background()

	expired, err := jwt.Generate(jwtCfg.Secret, "u1", "b1", "staff", jwtCfg.Issuer, -1)
	require.NoError(t, err)
	otherIssuer, err := jwt.Generate(jwtCfg.Secret, "u1", "b1", "staff", "otro", 5)
	require.NoError(t, err)

	cases := map[string]struct {
		token string
		want  error
	}{
		"vacío":       {"", domain.ErrUnauthenticated},
		"malformado":  {"abc.def.ghi", domain.ErrUnauthenticated},
		"expirado":    {expired, domain.ErrUnauthenticated},
		"otro emisor": {otherIssuer, domain.ErrUnauthenticated},
		"inexistente": {token(t, "fantasma"), domain.ErrUnauthenticated},
		"pendiente":   {token(t, "pend"), domain.ErrAccountUnapproved},
		"rechazado":   {token(t, "rej"), domain.ErrAccountUnapproved},
		"bloqueado":   {token(t, "lock"), domain.ErrAccountLocked},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := r.Resolve(ctx, tc.token)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestRegister_CreaNegocioYAdminPendientes(t *testing.T) {
	store := memory.NewStore()
	uc := newAuth(store)
	out, err := uc.Register(context.Background(), dto.RegisterRequest{
		BusinessName: "Ferretería Sol", Email: " Dueno@Sol.co ", Password: "clave-segura-1",
	}, audit.RequestMeta{IPAddress: "1.2.3.4"})
	require.NoError(t, err)
	assert.Equal(t, "admin", out.User.Role)
	assert.Equal(t, "pending", out.User.ApprovalStatus)
	assert.Equal(t, "pending", out.Business.ApprovalStatus)
	assert.Equal(t, "dueno@sol.co", out.User.Email)
	assert.Equal(t, out.Business.ID, out.User.BusinessID)

	_, err = uc.Register(context.Background(), dto.RegisterRequest{
		BusinessName: "Otra", Email: "dueno@sol.co", Password: "clave-segura-1",
	}, audit.RequestMeta{})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)

	list, err := store.Businesses().List(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1, "el segundo registro no deja un negocio huérfano")
	assert.Len(t, store.Audit().All(), 1)
}

func TestLogin_Exitoso(t *testing.T) {
	store := memory.NewStore()
	seedUser(t, store, nil)
	out, err := newAuth(store).Login(context.Background(), dto.LoginRequest{Email: "ANA@tienda.co", Password: "clave-segura-1"}, audit.RequestMeta{})
	require.NoError(t, err)
	require.NotEmpty(t, out.Token)
	assert.NotNil(t, out.User.LastLoginAt)

	claims, err := jwt.Parse(jwtCfg.Secret, jwtCfg.Issuer, out.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)

	entries := store.Audit().All()
	require.Len(t, entries, 1)
	assert.Equal(t, entity.AuditLogin, entries[0].Action)
}

func TestLogin_CredencialesGenericas(t *testing.T) {
	store := memory.NewStore()
	seedUser(t, store, nil)
	uc := newAuth(store)
	_, errNoUser := uc.Login(context.Background(), dto.LoginRequest{Email: "nadie@x.co", Password: "x"}, audit.RequestMeta{})
	_, errBadPass := uc.Login(context.Background(), dto.LoginRequest{Email: "ana@tienda.co", Password: "x"}, audit.RequestMeta{})
	assert.ErrorIs(t, errNoUser, domain.ErrUnauthenticated)
	assert.ErrorIs(t, errBadPass, domain.ErrUnauthenticated)
}

func TestLogin_BloqueoTrasIntentosFallidos(t *testing.T) {
	store := memory.NewStore()
	seedUser(t, store, nil)
	uc := newAuth(store)
	ctx := context.Background()
	bad := dto.LoginRequest{Email: "ana@tienda.co", Password: "incorrecta"}

	for i := 0; i < 4; i++ {
		_, err := uc.Login(ctx, bad, audit.RequestMeta{})
		assert.ErrorIs(t, err, domain.ErrUnauthenticated, "intento %d", i+1)
	}
	u, err := store.Users().GetByID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, u.LockedUntil)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "ana@tienda.co", Password: "clave-segura-1"}, audit.RequestMeta{})
	assert.ErrorIs(t, err, domain.ErrAccountLocked, "ni la clave correcta entra mientras dura el bloqueo")
}

// Con clave incorrecta, un email registrado y uno inexistente responden igual antes y después del bloqueo.
func TestLogin_BloqueoNoRevelaCuentas(t *testing.T) {
	store := memory.NewStore()
	seedUser(t, store, nil)
	uc := newAuth(store)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, errExisting := uc.Login(ctx, dto.LoginRequest{Email: "ana@tienda.co", Password: "incorrecta"}, audit.RequestMeta{})
		_, errUnknown := uc.Login(ctx, dto.LoginRequest{Email: "nadie@tienda.co", Password: "incorrecta"}, audit.RequestMeta{})
		assert.Equal(t, errUnknown, errExisting, "intento %d", i+1)
	}
}

// deactivatingUsers desactiva la cuenta justo después de leerla, como un administrador concurrente.
type deactivatingUsers struct {
	*memory.UserRepo
}

func (r deactivatingUsers) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, err := r.UserRepo.GetByEmail(ctx, email)
	if err != nil || u == nil {
		return u, err
	}
	stored := *u
	stored.IsActive = false
	stored.Role = entity.RoleManager
	if err := r.UserRepo.Update(ctx, &stored); err != nil {
		return nil, err
	}
	return u, nil
}

func TestLogin_NoPisaCambiosDeAdministrador(t *testing.T) {
	store := memory.NewStore()
	seedUser(t, store, nil)
	rec := audit.NewRecorder(store.Audit(), logger.Nop(), nil)
	uc := auth.NewAuthUseCase(store.TxRunner(), deactivatingUsers{store.Users()}, rec, jwtCfg, auth.LockoutPolicy{MaxAttempts: 3, LockFor: 15 * time.Minute})
	ctx := context.Background()

	_, err := uc.Login(ctx, dto.LoginRequest{Email: "ana@tienda.co", Password: "incorrecta"}, audit.RequestMeta{})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	u, err := store.Users().GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, u.IsActive)
	assert.Equal(t, entity.RoleManager, u.Role)
	assert.Equal(t, 1, u.FailedAttempts)
}

func TestLogin_CuentaPendiente(t *testing.T) {
	store := memory.NewStore()
	seedUser(t, store, func(u *entity.User) { u.ApprovalStatus = entity.ApprovalPending })
	_, err := newAuth(store).Login(context.Background(), dto.LoginRequest{Email: "ana@tienda.co", Password: "clave-segura-1"}, audit.RequestMeta{})
	assert.ErrorIs(t, err, domain.ErrAccountUnapproved)
}

func TestLogout_Auditado(t *testing.T) {
	store := memory.NewStore()
	u := seedUser(t, store, nil)
	newAuth(store).Logout(context.Background(), access.NewTenantContext(u, "b1", ""), audit.RequestMeta{RequestID: "r1"})
	entries := store.Audit().All()
	require.Len(t, entries, 1)
	assert.Equal(t, entity.AuditLogout, entries[0].Action)
	assert.Equal(t, "r1", entries[0].RequestID)
}
