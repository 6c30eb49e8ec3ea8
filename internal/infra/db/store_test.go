package db

import (
	"context"
	"testing"

	"github.com/Spok95/candle-bot/internal/storage"
	"github.com/Spok95/candle-bot/internal/storage/storagetest"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// startPostgres поднимает контейнер на весь тест; между подтестами таблицы чистятся.
func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("candles"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err, "starting postgres container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminating postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestStoreContract(t *testing.T) {
	if testing.Short() {
		t.Skip("postgres container is skipped in -short mode")
	}
	ctx := context.Background()
	dsn := startPostgres(t)

	s, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	// повторный прогон миграций ничего не ломает
	require.NoError(t, RunMigrations(ctx, dsn))

	storagetest.Run(t, func(t *testing.T) storage.Store {
		_, err := s.pool.Exec(ctx, `TRUNCATE candles, materials, dialog_states RESTART IDENTITY`)
		require.NoError(t, err)
		return s
	})
}
