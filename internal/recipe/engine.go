package recipe

import (
	"time"

	"github.com/Spok95/candle-bot/internal/domain/materials"
)

// Consumption — расход на всю партию, в единицах материала.
type Consumption struct {
	Containers float64
	Wax        float64
	Fragrance  float64
	Wick       float64
	Dye        float64
}

// Costs — стоимость компонентов на одну свечу.
type Costs struct {
	Container float64
	Wax       float64
	Fragrance float64
	Wick      float64
	Dye       float64
}

type Breakdown struct {
	Count              int
	Capacity           float64
	FillBase           float64
	FragranceFraction  float64
	FragrancePerCandle float64
	WaxPerCandle       float64
	WickLength         float64

	Costs         Costs
	CostPerCandle float64
	TotalCost     float64
	Consumption   Consumption
}

// Complete false, если данных для расчёта не хватило и всё обнулено.
func (b Breakdown) Complete() bool {
	return b.Count > 0 && b.FillBase > 0
}

type Engine struct {
	params Params
	now    func() time.Time
}

func NewEngine(p Params) *Engine {
	return &Engine{params: p, now: time.Now}
}

func (e *Engine) Params() Params { return e.params }

// Evaluate считает расход и себестоимость партии. Чистая функция от выбора:
// склад не читает и не меняет, вызывается на каждое изменение ввода.
func (e *Engine) Evaluate(sel Selection) Breakdown {
	if sel.Container == nil || sel.Wax == nil || sel.Count <= 0 {
		return Breakdown{Count: sel.Count}
	}
	capacity := materials.ExtractCapacity(sel.Container.Name)
	if capacity <= 0 {
		return Breakdown{Count: sel.Count}
	}

	b := Breakdown{Count: sel.Count, Capacity: capacity}
	b.FillBase = capacity * e.params.FillFraction

	if sel.Fragrance != nil {
		b.FragranceFraction = fragranceFraction(ParseNumber(sel.Concentration))
	}
	b.FragrancePerCandle = b.FillBase * b.FragranceFraction
	b.WaxPerCandle = b.FillBase - b.FragrancePerCandle

	n := float64(sel.Count)

	b.Costs.Container = materials.UnitPrice(sel.Container)
	b.Costs.Wax = materials.UnitPrice(sel.Wax) * b.WaxPerCandle
	if sel.Fragrance != nil {
		b.Costs.Fragrance = materials.UnitPrice(sel.Fragrance) * b.FragrancePerCandle
	}
	if sel.Wick != nil {
		switch sel.Wick.Unit {
		case materials.UnitM:
			b.WickLength = wickLength(sel.WickLength)
			b.Costs.Wick = materials.UnitPrice(sel.Wick) * b.WickLength
			b.Consumption.Wick = b.WickLength * n
		case materials.UnitPcs:
			b.Costs.Wick = materials.UnitPrice(sel.Wick)
			b.Consumption.Wick = n
		default:
			// цена не считается, но фитиль списывается по штуке на свечу
			b.Consumption.Wick = n
		}
		b.Costs.Wick += e.params.WickSurcharge
	}
	if sel.Dye != nil {
		b.Costs.Dye = materials.UnitPrice(sel.Dye) * e.params.DyePerCandle
		b.Consumption.Dye = e.params.DyePerCandle * n
	}

	b.CostPerCandle = b.Costs.Container + b.Costs.Wax + b.Costs.Fragrance + b.Costs.Wick + b.Costs.Dye
	b.TotalCost = b.CostPerCandle * n

	b.Consumption.Containers = n
	b.Consumption.Wax = b.WaxPerCandle * n
	if sel.Fragrance != nil {
		b.Consumption.Fragrance = b.FragrancePerCandle * n
	}
	return b
}

// fragranceFraction: 10 и 0.1 — это одинаково 10%.
func fragranceFraction(conc float64) float64 {
	f := conc
	if conc > 1 {
		f = conc / 100
	}
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

func wickLength(s string) float64 {
	l := ParseNumber(s)
	if l < 0 {
		return 0
	}
	return l
}
