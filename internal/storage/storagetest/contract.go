// Package storagetest — общий набор проверок для всех реализаций storage.Store.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/Spok95/candle-bot/internal/dialog"
	"github.com/Spok95/candle-bot/internal/domain/candles"
	"github.com/Spok95/candle-bot/internal/domain/inventory"
	"github.com/Spok95/candle-bot/internal/domain/materials"
	"github.com/Spok95/candle-bot/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory отдаёт пустое хранилище; закрытие — через t.Cleanup на стороне фабрики.
type Factory func(t *testing.T) storage.Store

func Run(t *testing.T, newStore Factory) {
	t.Run("materials crud", func(t *testing.T) { testMaterialsCRUD(t, newStore(t)) })
	t.Run("materials preferences", func(t *testing.T) { testMaterialPreferences(t, newStore(t)) })
	t.Run("materials not found", func(t *testing.T) { testMaterialsNotFound(t, newStore(t)) })
	t.Run("candles", func(t *testing.T) { testCandles(t, newStore(t)) })
	t.Run("candles burn time", func(t *testing.T) { testBurnTime(t, newStore(t)) })
	t.Run("apply plan", func(t *testing.T) { testApplyPlan(t, newStore(t)) })
	t.Run("apply stale plan", func(t *testing.T) { testApplyStalePlan(t, newStore(t)) })
	t.Run("restore", func(t *testing.T) { testRestore(t, newStore(t)) })
	t.Run("dialogs", func(t *testing.T) { testDialogs(t, newStore(t)) })
	t.Run("service add merges", func(t *testing.T) { testServiceMerge(t, newStore(t)) })
}

func wax(qty, price float64) materials.Material {
	return materials.Material{Name: "Soja", Category: materials.CategoryWax, Quantity: qty, Unit: materials.UnitG, Price: price}
}

func jar(qty, price float64) materials.Material {
	return materials.Material{Name: "Słoik 200ml", Category: materials.CategoryContainer, Quantity: qty, Unit: materials.UnitPcs, Price: price}
}

func testMaterialsCRUD(t *testing.T, s storage.Store) {
	ctx := context.Background()
	ms := s.Materials()

	waxID, err := ms.Insert(ctx, wax(1000, 40))
	require.NoError(t, err)
	jarID, err := ms.Insert(ctx, jar(5, 10))
	require.NoError(t, err)
	assert.NotEqual(t, waxID, jarID)

	got, err := ms.GetByID(ctx, waxID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Soja", got.Name)
	assert.Equal(t, materials.CategoryWax, got.Category)
	assert.Equal(t, materials.UnitG, got.Unit)
	assert.InDelta(t, 1000, got.Quantity, 1e-9)
	assert.InDelta(t, 40, got.Price, 1e-9)

	byName, err := ms.FindByName(ctx, "Słoik 200ml")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, jarID, byName.ID)

	list, err := ms.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Soja", list[0].Name)
	assert.Equal(t, "Słoik 200ml", list[1].Name)

	got.Quantity, got.Price = 500, 20
	require.NoError(t, ms.Update(ctx, *got))
	got, err = ms.GetByID(ctx, waxID)
	require.NoError(t, err)
	assert.InDelta(t, 500, got.Quantity, 1e-9)
	assert.InDelta(t, 20, got.Price, 1e-9)

	require.NoError(t, ms.Delete(ctx, waxID))
	got, err = ms.GetByID(ctx, waxID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func testMaterialPreferences(t *testing.T, s storage.Store) {
	ctx := context.Background()
	ms := s.Materials()

	conc := 8.5
	id, err := ms.Insert(ctx, materials.Material{
		Name: "Wanilia", Category: materials.CategoryFragrance, Quantity: 100, Unit: materials.UnitG, Price: 30,
		PreferredConcentration: &conc,
	})
	require.NoError(t, err)

	got, err := ms.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.PreferredConcentration)
	assert.InDelta(t, 8.5, *got.PreferredConcentration, 1e-9)

	got.PreferredConcentration = nil
	require.NoError(t, ms.Update(ctx, *got))
	got, err = ms.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got.PreferredConcentration)

	j := jar(1, 1)
	j.PreferredWickName = "ECO 6"
	jid, err := ms.Insert(ctx, j)
	require.NoError(t, err)
	gotJar, err := ms.GetByID(ctx, jid)
	require.NoError(t, err)
	assert.Equal(t, "ECO 6", gotJar.PreferredWickName)
}

func testMaterialsNotFound(t *testing.T, s storage.Store) {
	ctx := context.Background()
	ms := s.Materials()

	got, err := ms.GetByID(ctx, 404)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ms.FindByName(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, got)

	m := wax(1, 1)
	m.ID = 404
	assert.ErrorIs(t, ms.Update(ctx, m), materials.ErrNotFound)
	assert.ErrorIs(t, ms.Delete(ctx, 404), materials.ErrNotFound)
}

func candle(batch string, created time.Time) candles.Candle {
	return candles.Candle{
		BatchID:       batch,
		ContainerName: "Słoik 200ml",
		WaxName:       "Soja",
		FragranceName: "Wanilia",
		Concentration: 10,
		Capacity:      200,
		Cost:          10.05,
		Recipient:     "Ania",
		CreatedAt:     created,
		ReadyAt:       created.Add(14 * 24 * time.Hour),
	}
}

func testCandles(t *testing.T, s storage.Store) {
	ctx := context.Background()
	cs := s.Candles()
	t0 := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	oldID, err := cs.Insert(ctx, candle("b1", t0))
	require.NoError(t, err)
	newID1, err := cs.Insert(ctx, candle("b2", t0.Add(time.Hour)))
	require.NoError(t, err)
	newID2, err := cs.Insert(ctx, candle("b2", t0.Add(time.Hour)))
	require.NoError(t, err)

	list, err := cs.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int64{newID2, newID1, oldID}, []int64{list[0].ID, list[1].ID, list[2].ID})

	batch, err := cs.ListBatch(ctx, "b2")
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, newID1, batch[0].ID)

	got, err := cs.GetByID(ctx, oldID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Wanilia", got.FragranceName)
	assert.InDelta(t, 10.05, got.Cost, 1e-9)
	assert.True(t, got.CreatedAt.Equal(t0), "created_at %v", got.CreatedAt)
	assert.True(t, got.ReadyAt.Equal(t0.Add(14*24*time.Hour)), "ready_at %v", got.ReadyAt)

	got.Recipient = "Ola"
	require.NoError(t, cs.Update(ctx, *got))
	got, err = cs.GetByID(ctx, oldID)
	require.NoError(t, err)
	assert.Equal(t, "Ola", got.Recipient)

	require.NoError(t, cs.Delete(ctx, oldID))
	got, err = cs.GetByID(ctx, oldID)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, cs.Delete(ctx, oldID), candles.ErrNotFound)

	missing := candle("x", t0)
	missing.ID = 9999
	assert.ErrorIs(t, cs.Update(ctx, missing), candles.ErrNotFound)
}

func testBurnTime(t *testing.T, s storage.Store) {
	ctx := context.Background()
	cs := s.Candles()

	id, err := cs.Insert(ctx, candle("b", time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	require.NoError(t, cs.IncrementBurnTime(ctx, id, 30))
	require.NoError(t, cs.IncrementBurnTime(ctx, id, 15))
	got, err := cs.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 45, got.BurnMinutes)

	require.NoError(t, cs.IncrementBurnTime(ctx, id, -100))
	got, err = cs.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, got.BurnMinutes)

	require.NoError(t, cs.SetBurnTime(ctx, id, 120))
	got, err = cs.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 120, got.BurnMinutes)

	assert.ErrorIs(t, cs.IncrementBurnTime(ctx, 9999, 1), candles.ErrNotFound)
	assert.ErrorIs(t, cs.SetBurnTime(ctx, 9999, 1), candles.ErrNotFound)
}

func seedPlan(t *testing.T, s storage.Store) (inventory.Plan, int64, int64) {
	ctx := context.Background()
	ms := s.Materials()

	waxID, err := ms.Insert(ctx, wax(1000, 40))
	require.NoError(t, err)
	jarID, err := ms.Insert(ctx, jar(2, 4))
	require.NoError(t, err)

	w, err := ms.GetByID(ctx, waxID)
	require.NoError(t, err)
	j, err := ms.GetByID(ctx, jarID)
	require.NoError(t, err)

	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	plan := inventory.Plan{
		BatchID: "batch-1",
		Adjustments: []inventory.Adjustment{
			inventory.NewAdjustment("wax", *w, 315),
			inventory.NewAdjustment("container", *j, 2),
		},
		Candles: []candles.Candle{candle("batch-1", now), candle("batch-1", now)},
	}
	return plan, waxID, jarID
}

func testApplyPlan(t *testing.T, s storage.Store) {
	ctx := context.Background()
	plan, waxID, jarID := seedPlan(t, s)

	ids, err := s.ApplyPlan(ctx, plan)
	require.NoError(t, err)
	require.Len(t, ids, 2)

	w, err := s.Materials().GetByID(ctx, waxID)
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.InDelta(t, 685, w.Quantity, 1e-9)
	assert.InDelta(t, 27.4, w.Price, 1e-9)

	// две ёмкости из двух — запись удалена
	j, err := s.Materials().GetByID(ctx, jarID)
	require.NoError(t, err)
	assert.Nil(t, j)

	batch, err := s.Candles().ListBatch(ctx, "batch-1")
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.ElementsMatch(t, ids, []int64{batch[0].ID, batch[1].ID})

	// свечи одной партии живут независимо
	require.NoError(t, s.Candles().IncrementBurnTime(ctx, ids[0], 30))
	other, err := s.Candles().GetByID(ctx, ids[1])
	require.NoError(t, err)
	require.NotNil(t, other)
	assert.Equal(t, 0, other.BurnMinutes)

	require.NoError(t, s.Candles().Delete(ctx, ids[1]))
	gone, err := s.Candles().GetByID(ctx, ids[1])
	require.NoError(t, err)
	assert.Nil(t, gone)

	first, err := s.Candles().GetByID(ctx, ids[0])
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 30, first.BurnMinutes)
	assert.Equal(t, "batch-1", first.BatchID)

	batch, err = s.Candles().ListBatch(ctx, "batch-1")
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, ids[0], batch[0].ID)
}

func testApplyStalePlan(t *testing.T, s storage.Store) {
	ctx := context.Background()
	plan, waxID, jarID := seedPlan(t, s)

	// остаток ёмкостей поменялся после расчёта
	j, err := s.Materials().GetByID(ctx, jarID)
	require.NoError(t, err)
	j.Quantity = 3
	require.NoError(t, s.Materials().Update(ctx, *j))

	_, err = s.ApplyPlan(ctx, plan)
	require.ErrorIs(t, err, inventory.ErrStalePlan)

	// ничего не записано, воск на месте
	w, err := s.Materials().GetByID(ctx, waxID)
	require.NoError(t, err)
	assert.InDelta(t, 1000, w.Quantity, 1e-9)
	list, err := s.Candles().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testRestore(t *testing.T, s storage.Store) {
	ctx := context.Background()
	_, err := s.Materials().Insert(ctx, wax(1, 1))
	require.NoError(t, err)
	_, err = s.Candles().Insert(ctx, candle("old", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	j := jar(7, 14)
	j.ID = 42
	c := candle("restored", time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	c.ID = 17
	c.BurnMinutes = 90
	require.NoError(t, s.Restore(ctx, []materials.Material{j}, []candles.Candle{c}))

	ms, err := s.Materials().List(ctx)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, int64(42), ms[0].ID)
	assert.Equal(t, "Słoik 200ml", ms[0].Name)

	cs, err := s.Candles().List(ctx)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, int64(17), cs[0].ID)
	assert.Equal(t, 90, cs[0].BurnMinutes)

	// новые записи не конфликтуют с восстановленными id
	id, err := s.Materials().Insert(ctx, wax(1, 1))
	require.NoError(t, err)
	assert.NotEqual(t, int64(42), id)
	cid, err := s.Candles().Insert(ctx, candle("new", time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.NotEqual(t, int64(17), cid)
}

func testDialogs(t *testing.T, s storage.Store) {
	ctx := context.Background()
	ds := s.Dialogs()

	it, err := ds.Get(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, dialog.StateIdle, it.State)
	assert.Empty(t, it.Payload)

	require.NoError(t, ds.Set(ctx, 100, dialog.StateCalc, dialog.Payload{"wax": int64(3), "conc": "5.0"}))
	it, err = ds.Get(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, dialog.StateCalc, it.State)
	assert.Equal(t, "5.0", it.Payload["conc"])
	wid, ok := dialog.GetInt64(it.Payload, "wax")
	assert.True(t, ok)
	assert.Equal(t, int64(3), wid)

	require.NoError(t, ds.Reset(ctx, 100))
	it, err = ds.Get(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, dialog.StateIdle, it.State)
}

func testServiceMerge(t *testing.T, s storage.Store) {
	ctx := context.Background()
	svc := inventory.NewService(s.Materials(), s)

	first, merged, err := svc.AddMaterial(ctx, wax(500, 20))
	require.NoError(t, err)
	assert.False(t, merged)

	second, merged, err := svc.AddMaterial(ctx, wax(500, 30))
	require.NoError(t, err)
	assert.True(t, merged)
	assert.Equal(t, first.ID, second.ID)

	got, err := s.Materials().GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.InDelta(t, 1000, got.Quantity, 1e-9)
	assert.InDelta(t, 50, got.Price, 1e-9)

	adj, err := svc.Consume(ctx, first.ID, 250)
	require.NoError(t, err)
	assert.False(t, adj.Delete)
	got, err = s.Materials().GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.InDelta(t, 750, got.Quantity, 1e-9)
	assert.InDelta(t, 37.5, got.Price, 1e-9)
}
