package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/Spok95/candle-bot/internal/dialog"
	"github.com/Spok95/candle-bot/internal/domain/candles"
	"github.com/Spok95/candle-bot/internal/domain/inventory"
	"github.com/Spok95/candle-bot/internal/domain/materials"
	"github.com/Spok95/candle-bot/internal/recipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStock() []materials.Material {
	conc := 7.5
	return []materials.Material{
		{ID: 1, Name: "Słoik 200ml", Category: materials.CategoryContainer, Quantity: 3, Unit: materials.UnitPcs, Price: 6, PreferredWickName: "ECO 6"},
		{ID: 2, Name: "Soja", Category: materials.CategoryWax, Quantity: 1000, Unit: materials.UnitG, Price: 40},
		{ID: 3, Name: "Wanilia", Category: materials.CategoryFragrance, Quantity: 200, Unit: materials.UnitG, Price: 20, PreferredConcentration: &conc},
		{ID: 4, Name: "ECO 6", Category: materials.CategoryWick, Quantity: 10, Unit: materials.UnitPcs, Price: 5},
	}
}

// roundTrip payload так, как он вернётся из хранилища
func roundTrip(t *testing.T, p dialog.Payload) dialog.Payload {
	t.Helper()
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	return dialog.Decode(1, string(dialog.StateCalc), raw).Payload
}

func TestSelectionFromPayload_Defaults(t *testing.T) {
	t.Parallel()

	sel := selectionFromPayload(dialog.Payload{}, testStock())
	assert.Nil(t, sel.Container)
	assert.Nil(t, sel.Wax)
	assert.Equal(t, recipe.DefaultConcentration, sel.Concentration)
	assert.Equal(t, recipe.DefaultWickLength, sel.WickLength)
	assert.Equal(t, recipe.DefaultCount, sel.Count)
}

func TestSelectionFromPayload_AfterJSON(t *testing.T) {
	t.Parallel()

	p := roundTrip(t, dialog.Payload{
		dialog.KeyContainer:     int64(1),
		dialog.KeyWax:           int64(2),
		dialog.KeyCount:         int64(4),
		dialog.KeyConcentration: "8,5",
		dialog.KeyRecipient:     "Ola",
	})
	sel := selectionFromPayload(p, testStock())
	require.NotNil(t, sel.Container)
	require.NotNil(t, sel.Wax)
	assert.Equal(t, "Słoik 200ml", sel.Container.Name)
	assert.Equal(t, "Soja", sel.Wax.Name)
	assert.Equal(t, 4, sel.Count)
	assert.Equal(t, "8,5", sel.Concentration)
	assert.Equal(t, "Ola", sel.Recipient)
}

func TestSelectionFromPayload_GoneMaterialIsUnselected(t *testing.T) {
	t.Parallel()

	p := dialog.Payload{dialog.KeyContainer: int64(1), dialog.KeyWax: int64(99)}
	sel := selectionFromPayload(p, testStock())
	assert.NotNil(t, sel.Container)
	assert.Nil(t, sel.Wax)
}

func TestApplyPick_Preferences(t *testing.T) {
	t.Parallel()

	stock := testStock()
	p := dialog.Payload{}

	applyPick(p, dialog.KeyContainer, &stock[0], stock)
	wick, ok := dialog.GetInt64(p, dialog.KeyWick)
	require.True(t, ok, "preferred wick is filled in")
	assert.EqualValues(t, 4, wick)

	applyPick(p, dialog.KeyFragrance, &stock[2], stock)
	conc, _ := dialog.GetString(p, dialog.KeyConcentration)
	assert.Equal(t, "7.5", conc)

	// ручной выбор фитиля не перетирается новой ёмкостью
	other := materials.Material{ID: 5, Name: "Knot", Category: materials.CategoryWick, Quantity: 2, Unit: materials.UnitM, Price: 4}
	stock = append(stock, other)
	applyPick(p, dialog.KeyWick, &stock[4], stock)
	applyPick(p, dialog.KeyContainer, &stock[0], stock)
	wick, _ = dialog.GetInt64(p, dialog.KeyWick)
	assert.EqualValues(t, 5, wick)

	applyPick(p, dialog.KeyFragrance, nil, stock)
	_, ok = p[dialog.KeyFragrance]
	assert.False(t, ok)
}

func TestFormatBreakdown(t *testing.T) {
	t.Parallel()

	stock := testStock()
	sel := recipe.NewSelection()
	sel.Container = &stock[0]
	sel.Wax = &stock[1]
	sel.Fragrance = &stock[2]
	sel.Concentration = "10"
	e := recipe.NewEngine(recipe.DefaultParams())
	br := e.Evaluate(sel)

	text := formatBreakdown(sel, br, nil)
	assert.Contains(t, text, "Себестоимость свечи: 10.05")
	assert.Contains(t, text, "заливка 175 мл: воск 157.5 g, отдушка 17.5 g")
	assert.NotContains(t, text, "Сохранить нельзя")

	sel.Count = 7
	br = e.Evaluate(sel)
	text = formatBreakdown(sel, br, e.Shortfalls(sel, br))
	assert.Contains(t, text, "Сохранить нельзя")
	assert.Contains(t, text, "ёмкости")

	empty := formatBreakdown(recipe.NewSelection(), recipe.Breakdown{Count: 1}, nil)
	assert.Contains(t, empty, "Выберите ёмкость")
}

func TestLowStockLines(t *testing.T) {
	t.Parallel()

	wax := materials.Material{ID: 2, Name: "Soja", Quantity: 30, Unit: materials.UnitG, Price: 3}
	jar := materials.Material{ID: 1, Name: "Słoik 200ml", Quantity: 1, Unit: materials.UnitPcs, Price: 2}
	oil := materials.Material{ID: 3, Name: "Wanilia", Quantity: 100, Unit: materials.UnitG, Price: 10}
	plan := inventory.Plan{Adjustments: []inventory.Adjustment{
		inventory.NewAdjustment("wax", wax, 15),
		inventory.NewAdjustment("container", jar, 1),
		inventory.NewAdjustment("fragrance", oil, 10),
	}}

	lines := lowStockLines(plan, materials.DefaultThresholds())
	require.Len(t, lines, 2)
	assert.Equal(t, "«Soja»: осталось 15 g", lines[0])
	assert.Contains(t, lines[1], "Słoik 200ml")
	assert.Contains(t, lines[1], "закончился")
}

func TestMaterialLabel(t *testing.T) {
	t.Parallel()

	low := materials.DefaultThresholds()
	assert.Equal(t, "Soja — 1000 g", materialLabel(materials.Material{Name: "Soja", Quantity: 1000, Unit: materials.UnitG}, low))
	assert.Equal(t, "⚠️ Knot — 0.25 m", materialLabel(materials.Material{Name: "Knot", Quantity: 0.25, Unit: materials.UnitM}, low))
}

func TestCandleCard_Readiness(t *testing.T) {
	t.Parallel()

	made := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := candles.Candle{
		ID: 7, BatchID: "b-1", ContainerName: "Słoik 200ml", WaxName: "Soja",
		CreatedAt: made, ReadyAt: made.Add(14 * 24 * time.Hour), Cost: 10.049,
	}
	text := candleCard(c, made.Add(24*time.Hour), time.UTC)
	assert.Contains(t, text, "Зажигать с 15.03.2026")
	assert.Contains(t, text, "Себестоимость: 10.05")

	text = candleCard(c, made.Add(15*24*time.Hour), time.UTC)
	assert.Contains(t, text, "Готова к зажиганию")
}

func TestCommitInFlight(t *testing.T) {
	t.Parallel()

	b := &Bot{inFlight: map[int64]bool{}}
	require.True(t, b.beginCommit(1))
	assert.False(t, b.beginCommit(1), "second press while saving is rejected")
	assert.True(t, b.beginCommit(2), "other chats are independent")
	b.endCommit(1)
	assert.True(t, b.beginCommit(1))
}

func TestAllowed(t *testing.T) {
	t.Parallel()

	open := &Bot{}
	assert.True(t, open.allowed(42))

	locked := &Bot{adminChat: 7}
	assert.True(t, locked.allowed(7))
	assert.False(t, locked.allowed(42))
}

func TestCallbackHelpers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"12", "30"}, callbackArgs("cand:burn:12:30", "cand:burn:"))
	assert.Nil(t, callbackArgs("cand:burn:", "cand:burn:"))
	assert.EqualValues(t, 12, parseID("12"))
	assert.Zero(t, parseID("x"))

	v, ok := parseAmount(" 2,5 ")
	require.True(t, ok)
	assert.InDelta(t, 2.5, v, 1e-9)
	_, ok = parseAmount("12abc")
	assert.False(t, ok)
}

type brokenDialogs struct{}

func (brokenDialogs) Get(context.Context, int64) (*dialog.Item, error) {
	return nil, errors.New("db down")
}
func (brokenDialogs) Set(context.Context, int64, dialog.State, dialog.Payload) error {
	return errors.New("db down")
}
func (brokenDialogs) Reset(context.Context, int64) error { return errors.New("db down") }

func TestDialogStateErrorsAreLogged(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	b := &Bot{log: slog.New(slog.NewJSONHandler(&buf, nil)), states: brokenDialogs{}}
	ctx := context.Background()

	assert.False(t, b.setState(ctx, 5, dialog.StateCalc, dialog.Payload{}))
	assert.Contains(t, buf.String(), "set dialog state")
	assert.Contains(t, buf.String(), `"chat_id":5`)

	buf.Reset()
	b.resetState(ctx, 5)
	assert.Contains(t, buf.String(), "reset dialog state")

	// чтение при ошибке отдаёт пустой диалог
	st := b.state(ctx, 5)
	require.NotNil(t, st)
	assert.Equal(t, dialog.StateIdle, st.State)
	assert.NotNil(t, st.Payload)
}

