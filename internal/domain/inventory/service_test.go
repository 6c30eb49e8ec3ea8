package inventory_test

import (
	"context"
	"testing"

	"github.com/Spok95/candle-bot/internal/domain/inventory"
	"github.com/Spok95/candle-bot/internal/domain/materials"
	"github.com/Spok95/candle-bot/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService() (*inventory.Service, *memory.Store) {
	s := memory.New()
	return inventory.NewService(s.Materials(), s), s
}

func TestAddMaterial_Validation(t *testing.T) {
	t.Parallel()

	svc, _ := newService()
	ctx := context.Background()
	cases := map[string]materials.Material{
		"empty name":     {Name: "  ", Category: materials.CategoryWax, Unit: materials.UnitG},
		"negative qty":   {Name: "Soja", Category: materials.CategoryWax, Unit: materials.UnitG, Quantity: -1},
		"negative price": {Name: "Soja", Category: materials.CategoryWax, Unit: materials.UnitG, Price: -1},
		"unknown unit":   {Name: "Soja", Category: materials.CategoryWax, Unit: "kg"},
		"unknown cat":    {Name: "Soja", Category: "glass", Unit: materials.UnitG},
	}
	for name, m := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := svc.AddMaterial(ctx, m)
			assert.ErrorIs(t, err, inventory.ErrInvalidMaterial)
		})
	}
}

func TestAddMaterial_LegacyUnitAndTrim(t *testing.T) {
	t.Parallel()

	svc, store := newService()
	ctx := context.Background()

	m, merged, err := svc.AddMaterial(ctx, materials.Material{
		Name: " Puszka 100ml ", Category: materials.CategoryContainer, Unit: "szt", Quantity: 4, Price: 8,
	})
	require.NoError(t, err)
	assert.False(t, merged)
	assert.Equal(t, "Puszka 100ml", m.Name)
	assert.Equal(t, materials.UnitPcs, m.Unit)

	got, err := store.Materials().FindByName(ctx, "Puszka 100ml")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, materials.UnitPcs, got.Unit)
}

func TestConsume(t *testing.T) {
	t.Parallel()

	svc, store := newService()
	ctx := context.Background()
	m, _, err := svc.AddMaterial(ctx, materials.Material{
		Name: "Knot", Category: materials.CategoryWick, Unit: materials.UnitM, Quantity: 3, Price: 10,
	})
	require.NoError(t, err)

	_, err = svc.Consume(ctx, m.ID, 0)
	assert.Error(t, err)

	_, err = svc.Consume(ctx, 999, 1)
	assert.ErrorIs(t, err, materials.ErrNotFound)

	adj, err := svc.Consume(ctx, m.ID, 1)
	require.NoError(t, err)
	assert.InDelta(t, 2, adj.After.Quantity, 1e-9)
	assert.InDelta(t, 6.67, adj.After.Price, 1e-9)

	// остаток меньше списания — запись удаляется
	adj, err = svc.Consume(ctx, m.ID, 5)
	require.NoError(t, err)
	assert.True(t, adj.Delete)
	got, err := store.Materials().GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPreferences(t *testing.T) {
	t.Parallel()

	svc, store := newService()
	ctx := context.Background()
	jar, _, err := svc.AddMaterial(ctx, materials.Material{Name: "Słoik 200ml", Category: materials.CategoryContainer, Unit: materials.UnitPcs, Quantity: 1, Price: 2})
	require.NoError(t, err)
	oil, _, err := svc.AddMaterial(ctx, materials.Material{Name: "Wanilia", Category: materials.CategoryFragrance, Unit: materials.UnitG, Quantity: 100, Price: 10})
	require.NoError(t, err)

	require.NoError(t, svc.SetPreferredWick(ctx, jar.ID, " ECO 6 "))
	assert.ErrorIs(t, svc.SetPreferredWick(ctx, oil.ID, "ECO 6"), inventory.ErrInvalidMaterial)

	conc := 7.5
	require.NoError(t, svc.SetPreferredConcentration(ctx, oil.ID, &conc))
	bad := 120.0
	assert.ErrorIs(t, svc.SetPreferredConcentration(ctx, oil.ID, &bad), inventory.ErrInvalidMaterial)
	assert.ErrorIs(t, svc.SetPreferredConcentration(ctx, jar.ID, &conc), inventory.ErrInvalidMaterial)
	assert.ErrorIs(t, svc.SetPreferredWick(ctx, 999, "x"), materials.ErrNotFound)

	gotJar, err := store.Materials().GetByID(ctx, jar.ID)
	require.NoError(t, err)
	assert.Equal(t, "ECO 6", gotJar.PreferredWickName)
	gotOil, err := store.Materials().GetByID(ctx, oil.ID)
	require.NoError(t, err)
	require.NotNil(t, gotOil.PreferredConcentration)
	assert.InDelta(t, 7.5, *gotOil.PreferredConcentration, 1e-9)

	require.NoError(t, svc.SetPreferredConcentration(ctx, oil.ID, nil))
	gotOil, err = store.Materials().GetByID(ctx, oil.ID)
	require.NoError(t, err)
	assert.Nil(t, gotOil.PreferredConcentration)
}

func TestApply_EmptyPlanIsNoop(t *testing.T) {
	t.Parallel()

	svc, _ := newService()
	ids, err := svc.Apply(context.Background(), inventory.Plan{})
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDeleteMaterial(t *testing.T) {
	t.Parallel()

	svc, _ := newService()
	ctx := context.Background()
	m, _, err := svc.AddMaterial(ctx, materials.Material{Name: "Soja", Category: materials.CategoryWax, Unit: materials.UnitG, Quantity: 1, Price: 1})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteMaterial(ctx, m.ID))
	assert.ErrorIs(t, svc.DeleteMaterial(ctx, m.ID), materials.ErrNotFound)
}

func TestExclusive(t *testing.T) {
	t.Parallel()

	svc, _ := newService()
	called := false
	err := svc.Exclusive(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	// повторный вход не блокируется: замок отпущен
	boom := assert.AnError
	assert.ErrorIs(t, svc.Exclusive(context.Background(), func(context.Context) error { return boom }), boom)
}
