package recipe

import (
	"errors"
	"testing"
	"time"

	"github.com/Spok95/candle-bot/internal/domain/materials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mat(id int64, name string, cat materials.Category, qty float64, unit materials.Unit, price float64) *materials.Material {
	return &materials.Material{ID: id, Name: name, Category: cat, Quantity: qty, Unit: unit, Price: price}
}

// базовый рецепт: 200 ml, воск 0.04/g, отдушка 0.1/g при 10%
func baseSelection() Selection {
	sel := NewSelection()
	sel.Container = mat(1, "Słoik 200ml", materials.CategoryContainer, 1, materials.UnitPcs, 2.00)
	sel.Wax = mat(2, "Soja", materials.CategoryWax, 1000, materials.UnitG, 40)
	sel.Fragrance = mat(3, "Wanilia", materials.CategoryFragrance, 200, materials.UnitG, 20)
	sel.Concentration = "10"
	return sel
}

func TestEvaluate_BaseRecipe(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultParams())
	b := e.Evaluate(baseSelection())

	require.True(t, b.Complete())
	assert.InDelta(t, 200, b.Capacity, 1e-9)
	assert.InDelta(t, 175, b.FillBase, 1e-9)
	assert.InDelta(t, 0.1, b.FragranceFraction, 1e-9)
	assert.InDelta(t, 17.5, b.FragrancePerCandle, 1e-9)
	assert.InDelta(t, 157.5, b.WaxPerCandle, 1e-9)

	assert.InDelta(t, 2.00, b.Costs.Container, 1e-9)
	assert.InDelta(t, 6.30, b.Costs.Wax, 1e-9)
	assert.InDelta(t, 1.75, b.Costs.Fragrance, 1e-9)
	assert.Zero(t, b.Costs.Wick)
	assert.Zero(t, b.Costs.Dye)
	assert.InDelta(t, 10.05, b.CostPerCandle, 1e-9)
	assert.InDelta(t, 10.05, b.TotalCost, 1e-9)

	assert.InDelta(t, 1, b.Consumption.Containers, 1e-9)
	assert.InDelta(t, 157.5, b.Consumption.Wax, 1e-9)
	assert.InDelta(t, 17.5, b.Consumption.Fragrance, 1e-9)

	assert.True(t, e.Feasible(baseSelection(), b))
	assert.Empty(t, e.Shortfalls(baseSelection(), b))
}

func TestEvaluate_ConcentrationAsFraction(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultParams())
	percent := baseSelection()
	fraction := baseSelection()
	fraction.Concentration = "0,1"

	assert.InDelta(t, e.Evaluate(percent).CostPerCandle, e.Evaluate(fraction).CostPerCandle, 1e-9)
}

func TestEvaluate_NoFragranceIgnoresConcentration(t *testing.T) {
	t.Parallel()

	sel := baseSelection()
	sel.Fragrance = nil
	b := NewEngine(DefaultParams()).Evaluate(sel)

	assert.Zero(t, b.FragranceFraction)
	assert.InDelta(t, 175, b.WaxPerCandle, 1e-9)
	assert.Zero(t, b.Consumption.Fragrance)
}

func TestEvaluate_IncompleteIsZero(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultParams())
	cases := map[string]func(s *Selection){
		"no container": func(s *Selection) { s.Container = nil },
		"no wax":       func(s *Selection) { s.Wax = nil },
		"no capacity":  func(s *Selection) { s.Container.Name = "Słoik duży" },
		"zero count":   func(s *Selection) { s.Count = 0 },
		"negative":     func(s *Selection) { s.Count = -2 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			sel := baseSelection()
			mutate(&sel)
			b := e.Evaluate(sel)
			assert.False(t, b.Complete())
			assert.Zero(t, b.TotalCost)
			assert.Zero(t, b.CostPerCandle)
			assert.Equal(t, Consumption{}, b.Consumption)
			assert.False(t, e.Feasible(sel, b))
		})
	}
}

func TestEvaluate_UnparseableConcentrationIsZero(t *testing.T) {
	t.Parallel()

	sel := baseSelection()
	sel.Concentration = "abc"
	b := NewEngine(DefaultParams()).Evaluate(sel)

	require.True(t, b.Complete())
	assert.Zero(t, b.FragranceFraction)
	assert.InDelta(t, 175, b.WaxPerCandle, 1e-9)
}

func TestEvaluate_WickByMeter(t *testing.T) {
	t.Parallel()

	sel := baseSelection()
	sel.Wick = mat(4, "Bawełna", materials.CategoryWick, 10, materials.UnitM, 5)
	sel.WickLength = "0,15"
	sel.Count = 2
	sel.Container.Quantity = 5
	b := NewEngine(DefaultParams()).Evaluate(sel)

	assert.InDelta(t, 0.15, b.WickLength, 1e-9)
	assert.InDelta(t, 0.5*0.15+DefaultWickSurcharge, b.Costs.Wick, 1e-9)
	assert.InDelta(t, 0.30, b.Consumption.Wick, 1e-9)
}

func TestEvaluate_WickByPiece(t *testing.T) {
	t.Parallel()

	sel := baseSelection()
	sel.Wick = mat(4, "Drewniany", materials.CategoryWick, 100, materials.UnitPcs, 10)
	sel.WickLength = "5" // для штучного фитиля длина не важна
	b := NewEngine(DefaultParams()).Evaluate(sel)

	assert.InDelta(t, 0.1+DefaultWickSurcharge, b.Costs.Wick, 1e-9)
	assert.InDelta(t, 1, b.Consumption.Wick, 1e-9)
}

func TestEvaluate_WickOtherUnitCountsPerCandle(t *testing.T) {
	t.Parallel()

	sel := baseSelection()
	sel.Wick = mat(4, "Knot", materials.CategoryWick, 1, materials.UnitG, 3)
	sel.Container.Quantity = 5
	sel.Count = 3
	e := NewEngine(DefaultParams())
	b := e.Evaluate(sel)

	assert.InDelta(t, DefaultWickSurcharge, b.Costs.Wick, 1e-9)
	assert.InDelta(t, 3, b.Consumption.Wick, 1e-9)

	sf := e.Shortfalls(sel, b)
	require.Len(t, sf, 1)
	assert.Equal(t, "wick", sf[0].Component)
	assert.InDelta(t, 2, sf[0].Missing(), 1e-9)
}

func TestEvaluate_Dye(t *testing.T) {
	t.Parallel()

	sel := baseSelection()
	sel.Dye = mat(5, "Czerwony", materials.CategoryDye, 10, materials.UnitG, 20)
	b := NewEngine(DefaultParams()).Evaluate(sel)

	assert.InDelta(t, 0.1, b.Costs.Dye, 1e-9)
	assert.InDelta(t, DefaultDyePerCandle, b.Consumption.Dye, 1e-9)
	assert.InDelta(t, 10.15, b.CostPerCandle, 1e-9)
}

func TestEvaluate_CustomParams(t *testing.T) {
	t.Parallel()

	p := DefaultParams()
	p.FillFraction = 0.9
	p.WickSurcharge = 0
	sel := baseSelection()
	sel.Wick = mat(4, "Drewniany", materials.CategoryWick, 100, materials.UnitPcs, 10)
	b := NewEngine(p).Evaluate(sel)

	assert.InDelta(t, 180, b.FillBase, 1e-9)
	assert.InDelta(t, 0.1, b.Costs.Wick, 1e-9)
}

func TestEvaluate_ScalesWithCount(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultParams())
	one := baseSelection()
	one.Wick = mat(4, "Bawełna", materials.CategoryWick, 10, materials.UnitM, 5)
	one.Dye = mat(5, "Czerwony", materials.CategoryDye, 10, materials.UnitG, 20)
	b1 := e.Evaluate(one)

	for _, k := range []int{2, 3, 7} {
		sel := baseSelection()
		sel.Wick = one.Wick
		sel.Dye = one.Dye
		sel.Count = k
		bk := e.Evaluate(sel)
		n := float64(k)

		assert.InDelta(t, b1.CostPerCandle, bk.CostPerCandle, 1e-9)
		assert.InDelta(t, b1.TotalCost*n, bk.TotalCost, 1e-9)
		assert.InDelta(t, b1.Consumption.Containers*n, bk.Consumption.Containers, 1e-9)
		assert.InDelta(t, b1.Consumption.Wax*n, bk.Consumption.Wax, 1e-9)
		assert.InDelta(t, b1.Consumption.Fragrance*n, bk.Consumption.Fragrance, 1e-9)
		assert.InDelta(t, b1.Consumption.Wick*n, bk.Consumption.Wick, 1e-9)
		assert.InDelta(t, b1.Consumption.Dye*n, bk.Consumption.Dye, 1e-9)
	}
}

func TestEvaluate_DoesNotTouchSelection(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultParams())
	sel := baseSelection()
	before := *sel.Wax

	first := e.Evaluate(sel)
	second := e.Evaluate(sel)

	assert.Equal(t, first, second)
	assert.Equal(t, before, *sel.Wax)
}

func TestFeasible_NotEnoughWax(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultParams())
	sel := baseSelection()
	sel.Wax.Quantity = 100
	sel.Wax.Price = 4
	b := e.Evaluate(sel)

	assert.False(t, e.Feasible(sel, b))
	sf := e.Shortfalls(sel, b)
	require.Len(t, sf, 1)
	assert.Equal(t, "wax", sf[0].Component)
	assert.Equal(t, "Soja", sf[0].MaterialName)
	assert.InDelta(t, 100, sf[0].Have, 1e-9)
	assert.InDelta(t, 157.5, sf[0].Need, 1e-9)
	assert.InDelta(t, 57.5, sf[0].Missing(), 1e-9)
	assert.Contains(t, sf[0].String(), "Soja")
	assert.Contains(t, sf[0].String(), "57.5")
}

func TestFeasible_OnePerComponent(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultParams())
	sel := baseSelection()
	sel.Count = 3 // одна ёмкость на складе
	sel.Fragrance.Quantity = 10
	b := e.Evaluate(sel)

	sf := e.Shortfalls(sel, b)
	require.Len(t, sf, 2)
	assert.Equal(t, "container", sf[0].Component)
	assert.Equal(t, "fragrance", sf[1].Component)
}

func TestFeasible_SameMaterialTwiceIsSummed(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultParams())
	sel := baseSelection()
	// воск же и как краситель: 157.5 + 0.05 > 157.5
	sel.Wax.Quantity = 157.5
	sel.Dye = sel.Wax
	b := e.Evaluate(sel)

	sf := e.Shortfalls(sel, b)
	require.Len(t, sf, 1)
	assert.Equal(t, "wax+dye", sf[0].Component)
	assert.InDelta(t, 157.55, sf[0].Need, 1e-9)
}

func TestCommit_NotFeasible(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultParams())
	sel := baseSelection()
	sel.Wax.Quantity = 100
	plan, err := e.Commit(sel, e.Evaluate(sel))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFeasible))
	var se *ShortfallError
	require.True(t, errors.As(err, &se))
	assert.Len(t, se.Shortfalls, 1)
	assert.True(t, plan.Empty())
}

func TestCommit_Incomplete(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultParams())
	sel := baseSelection()
	sel.Wax = nil
	_, err := e.Commit(sel, e.Evaluate(sel))

	assert.ErrorIs(t, err, ErrIncomplete)
}

func TestCommit_BatchOfThree(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	e := NewEngine(DefaultParams())
	e.now = func() time.Time { return now }

	sel := baseSelection()
	sel.Container.Quantity = 10
	sel.Container.Price = 20
	sel.Count = 3
	sel.Recipient = "  Ania "
	b := e.Evaluate(sel)

	plan, err := e.Commit(sel, b)
	require.NoError(t, err)
	require.NotEmpty(t, plan.BatchID)

	require.Len(t, plan.Candles, 3)
	for _, c := range plan.Candles {
		assert.Equal(t, plan.BatchID, c.BatchID)
		assert.Equal(t, "Słoik 200ml", c.ContainerName)
		assert.Equal(t, "Soja", c.WaxName)
		assert.Equal(t, "Wanilia", c.FragranceName)
		assert.Empty(t, c.WickName)
		assert.InDelta(t, 10, c.Concentration, 1e-9, "stored in percent")
		assert.InDelta(t, 200, c.Capacity, 1e-9)
		assert.InDelta(t, 10.05, c.Cost, 1e-9)
		assert.Equal(t, "Ania", c.Recipient)
		assert.Equal(t, now, c.CreatedAt)
		assert.Equal(t, now.Add(14*24*time.Hour), c.ReadyAt)
		assert.False(t, c.Ready(now))
		assert.True(t, c.Ready(c.ReadyAt))
	}

	require.Len(t, plan.Adjustments, 3)
	byComponent := map[string]materials.Material{}
	for _, a := range plan.Adjustments {
		assert.False(t, a.Delete, a.Component)
		byComponent[a.Component] = a.After
	}
	assert.InDelta(t, 7, byComponent["container"].Quantity, 1e-9)
	assert.InDelta(t, 14, byComponent["container"].Price, 1e-9)
	assert.InDelta(t, 527.5, byComponent["wax"].Quantity, 1e-9)
	assert.InDelta(t, 21.1, byComponent["wax"].Price, 1e-9)
	assert.InDelta(t, 147.5, byComponent["fragrance"].Quantity, 1e-9)
	assert.InDelta(t, 14.75, byComponent["fragrance"].Price, 1e-9)

	// сам выбор не изменился
	assert.InDelta(t, 1000, sel.Wax.Quantity, 1e-9)
}

func TestCommit_ExactStockDeletesMaterial(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultParams())
	sel := baseSelection() // одна ёмкость на одну свечу
	plan, err := e.Commit(sel, e.Evaluate(sel))
	require.NoError(t, err)

	var container *bool
	for _, a := range plan.Adjustments {
		if a.Component == "container" {
			container = &a.Delete
		}
	}
	require.NotNil(t, container)
	assert.True(t, *container)
}

func TestCommit_FreshBatchIDs(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultParams())
	sel := baseSelection()
	b := e.Evaluate(sel)

	p1, err := e.Commit(sel, b)
	require.NoError(t, err)
	p2, err := e.Commit(sel, b)
	require.NoError(t, err)
	assert.NotEqual(t, p1.BatchID, p2.BatchID)
}

func TestSelection_Preferences(t *testing.T) {
	t.Parallel()

	conc := 7.5
	wicks := []materials.Material{
		*mat(10, "ECO 4", materials.CategoryWick, 50, materials.UnitPcs, 10),
		*mat(11, "ECO 6", materials.CategoryWick, 50, materials.UnitPcs, 12),
	}
	container := mat(1, "Słoik 200ml", materials.CategoryContainer, 5, materials.UnitPcs, 10)
	container.PreferredWickName = "ECO 6"
	fragrance := mat(3, "Wanilia", materials.CategoryFragrance, 200, materials.UnitG, 20)
	fragrance.PreferredConcentration = &conc

	sel := NewSelection()
	sel.SetContainer(container, wicks)
	require.NotNil(t, sel.Wick)
	assert.Equal(t, int64(11), sel.Wick.ID)

	sel.SetFragrance(fragrance)
	assert.Equal(t, "7.5", sel.Concentration)

	// уже выбранный фитиль не перетирается
	sel.Wick = &wicks[0]
	sel.SetContainer(container, wicks)
	assert.Equal(t, int64(10), sel.Wick.ID)
}

func TestParseNumber(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.15, ParseNumber("0,15"), 1e-9)
	assert.InDelta(t, 5, ParseNumber(" 5.0 "), 1e-9)
	assert.Zero(t, ParseNumber(""))
	assert.Zero(t, ParseNumber("pięć"))
	assert.Equal(t, 3, ParseCount("3"))
	assert.Zero(t, ParseCount("3.5"))
}

func TestCommit_ConcentrationStoredInPercent(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultParams())
	for _, in := range []string{"10", "0.1", "0,1"} {
		sel := baseSelection()
		sel.Concentration = in
		plan, err := e.Commit(sel, e.Evaluate(sel))
		require.NoError(t, err, in)
		require.Len(t, plan.Candles, 1)
		assert.InDelta(t, 10, plan.Candles[0].Concentration, 1e-9, in)
	}
}
