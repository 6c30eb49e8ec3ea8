package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Spok95/candle-bot/internal/domain/materials"
	"github.com/Spok95/candle-bot/internal/storage"
	"github.com/Spok95/candle-bot/internal/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "candles.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store { return openTemp(t) })
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "candles.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = s.Materials().Insert(ctx, materials.Material{
		Name: "Soja", Category: materials.CategoryWax, Quantity: 1000, Unit: materials.UnitG, Price: 40,
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// миграции второй раз не применяются, данные на месте
	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	list, err := s.Materials().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Soja", list[0].Name)
}

func TestTimeLayoutSortsAsText(t *testing.T) {
	t.Parallel()

	a, err := parseTime("2026-09-01T10:00:00.000000000Z")
	require.NoError(t, err)
	b := a.Add(1500) // 1.5 µs
	assert.Less(t, formatTime(a), formatTime(b))
	back, err := parseTime(formatTime(b))
	require.NoError(t, err)
	assert.True(t, back.Equal(b))
}
