package audit_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Accesos-api/internal/application/audit"
	"github.com/jhoicas/Accesos-api/internal/domain"
	"github.com/jhoicas/Accesos-api/internal/domain/access"
	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
	"github.com/jhoicas/Accesos-api/internal/infrastructure/memory"
	"github.com/jhoicas/Accesos-api/pkg/logger"
)

type failingRepo struct {
	repository.AuditRepository
	panics bool
}

func (f failingRepo) Append(context.Context, *entity.AuditEntry) error {
	if f.panics {
		panic("disco lleno")
	}
	return errors.New("conexión cerrada")
}

type countingCounter struct{ n int }

func (c *countingCounter) Inc() { c.n++ }

func adminContext() access.TenantContext {
	return access.NewTenantContext(&entity.User{ID: "u1", Role: entity.RoleAdmin, BusinessID: "b1"}, "b1", "br1")
}

func TestRecord_AgregaEntradaConContexto(t *testing.T) {
	store := memory.NewStore()
	rec := audit.NewRecorder(store.Audit(), logger.Nop(), nil)

	rec.Record(context.Background(), adminContext(), audit.Event{
		Action:     entity.AuditUpdate,
		EntityType: "branch",
		EntityID:   "br1",
		Before:     map[string]any{"name": "Centro"},
		After:      map[string]any{"name": "Centro Norte"},
		Request:    audit.RequestMeta{IPAddress: "10.0.0.1", RequestID: "req-1"},
	})

	all := store.Audit().All()
	require.Len(t, all, 1)
	e := all[0]
	assert.Equal(t, "u1", e.ActorID)
	assert.Equal(t, "b1", e.BusinessID)
	assert.Equal(t, "br1", e.BranchID)
	assert.Equal(t, entity.AuditUpdate, e.Action)
	assert.Equal(t, "Centro", e.OldValues["name"])
	assert.Equal(t, "req-1", e.RequestID)
	assert.NotEmpty(t, e.ID)
	assert.Zero(t, rec.FailedWrites())
}

func TestRecord_FalloSeTragaYSeCuenta(t *testing.T) {
	counter := &countingCounter{}
	rec := audit.NewRecorder(failingRepo{}, logger.Nop(), counter)

	assert.NotPanics(t, func() {
		rec.Record(context.Background(), adminContext(), audit.Event{Action: entity.AuditCreate, EntityType: "user"})
		rec.Record(context.Background(), adminContext(), audit.Event{Action: entity.AuditDelete, EntityType: "user"})
	})
	assert.Equal(t, int64(2), rec.FailedWrites())
	assert.Equal(t, 2, counter.n)
}

func TestRecord_PanicDelRepositorioNoEscapa(t *testing.T) {
	rec := audit.NewRecorder(failingRepo{panics: true}, logger.Nop(), nil)
	assert.NotPanics(t, func() {
		rec.Record(context.Background(), adminContext(), audit.Event{Action: entity.AuditLogin})
	})
	assert.Equal(t, int64(1), rec.FailedWrites())
}

func TestRecord_AccionFueraDeTaxonomia(t *testing.T) {
	store := memory.NewStore()
	rec := audit.NewRecorder(store.Audit(), logger.Nop(), nil)
	rec.Record(context.Background(), adminContext(), audit.Event{Action: "export"})
	assert.Empty(t, store.Audit().All())
	assert.Equal(t, int64(1), rec.FailedWrites())
}

func TestList_AcotadaAlNegocio(t *testing.T) {
	store := memory.NewStore()
	rec := audit.NewRecorder(store.Audit(), logger.Nop(), nil)
	ctx := context.Background()
	other := access.NewTenantContext(&entity.User{ID: "u2", Role: entity.RoleAdmin, BusinessID: "b2"}, "b2", "")

	rec.Record(ctx, adminContext(), audit.Event{Action: entity.AuditCreate, EntityType: "branch"})
	rec.Record(ctx, other, audit.Event{Action: entity.AuditCreate, EntityType: "branch"})

	list, err := rec.List(ctx, adminContext(), repository.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b1", list[0].BusinessID)

	root := access.NewTenantContext(&entity.User{ID: "s", Role: entity.RoleSuperadmin}, "", "")
	_, err = rec.List(ctx, root, repository.AuditFilter{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
