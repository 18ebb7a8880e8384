package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
	"github.com/jhoicas/Accesos-api/internal/infrastructure/memory"
)

func runCreate(ctx context.Context, store *memory.Store, fail error) error {
	return store.TxRunner().Run(ctx, func(repos repository.TxRepositories) error {
		if err := repos.Users.Create(ctx, &entity.User{ID: "u1", BusinessID: "b1", Email: "ana@tienda.co", Role: entity.RoleStaff}); err != nil {
			return err
		}
		return fail
	})
}

func TestTxRunner_ErrorRestaura(t *testing.T) {
	store := memory.NewStore()
	boom := errors.New("boom")
	assert.ErrorIs(t, runCreate(context.Background(), store, boom), boom)

	u, err := store.Users().GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestTxRunner_ContextoCanceladoRestaura(t *testing.T) {
	store := memory.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, runCreate(ctx, store, nil), context.Canceled)

	u, err := store.Users().GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, u, "sin estado parcial tras la cancelación")
}

func TestTxRunner_Confirma(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, runCreate(context.Background(), store, nil))

	u, err := store.Users().GetByID(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "b1", u.BusinessID)
}
