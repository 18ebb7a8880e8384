package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Accesos-api/pkg/config"
)

func TestNewPoolConfig(t *testing.T) {
	cfg, err := newPoolConfig(config.DBConfig{
		Host: "db.interno", Port: 5433, User: "accesos", Password: "p@ss/word", DBName: "accesos", SSLMode: "disable",
	})
	require.NoError(t, err)
	assert.Equal(t, "db.interno", cfg.ConnConfig.Host)
	assert.Equal(t, uint16(5433), cfg.ConnConfig.Port)
	assert.Equal(t, "p@ss/word", cfg.ConnConfig.Password)
	assert.Equal(t, int32(25), cfg.MaxConns)
	assert.NotNil(t, cfg.AfterConnect)

	cfg, err = newPoolConfig(config.DBConfig{
		DatabaseURL: "postgres://u:p@remoto:5432/otra?sslmode=disable", Host: "ignorado", MaxConns: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "remoto", cfg.ConnConfig.Host)
	assert.Equal(t, "otra", cfg.ConnConfig.Database)
	assert.Equal(t, int32(1), cfg.MaxConns)
	assert.Equal(t, int32(1), cfg.MinConns)

	_, err = newPoolConfig(config.DBConfig{DatabaseURL: "postgres://%zz"})
	assert.Error(t, err)
}
