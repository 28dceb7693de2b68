package database

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectPing()
		assert.NoError(t, HealthCheck(context.Background(), mock))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unhealthy", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectPing().WillReturnError(errors.New("connection refused"))
		err = HealthCheck(context.Background(), mock)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database unhealthy")
	})
}

func TestDefaultPoolConfig(t *testing.T) {
	cfg := DefaultPoolConfig("postgres://localhost/vendaval")
	assert.Equal(t, "postgres://localhost/vendaval", cfg.DSN)
	assert.Greater(t, cfg.MaxConns, cfg.MinConns)
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "000001_init.up.sql")
	assert.Contains(t, names, "000001_init.down.sql")
}
