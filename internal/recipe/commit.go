package recipe

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Spok95/candle-bot/internal/domain/candles"
	"github.com/Spok95/candle-bot/internal/domain/inventory"
	"github.com/Spok95/candle-bot/internal/domain/materials"
	"github.com/google/uuid"
)

var (
	ErrIncomplete  = errors.New("recipe: container, wax and a positive count are required")
	ErrNotFeasible = errors.New("recipe: not enough stock")
)

// погрешность float при сравнении остатка с расходом
const epsilon = 1e-9

type Shortfall struct {
	Component    string
	MaterialName string
	Have         float64
	Need         float64
	Unit         materials.Unit
}

func (s Shortfall) Missing() float64 { return s.Need - s.Have }

func (s Shortfall) String() string {
	return fmt.Sprintf("Не хватает %s «%s»: есть %s %s, нужно %s %s (ещё %s %s)",
		componentTitle(s.Component), s.MaterialName,
		fmtAmount(s.Have), s.Unit, fmtAmount(s.Need), s.Unit, fmtAmount(s.Missing()), s.Unit)
}

// ShortfallError возвращается из Commit; errors.Is(err, ErrNotFeasible) == true.
type ShortfallError struct {
	Shortfalls []Shortfall
}

func (e *ShortfallError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("%s %q: have %.2f, need %.2f", s.Component, s.MaterialName, s.Have, s.Need))
	}
	return ErrNotFeasible.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ShortfallError) Unwrap() error { return ErrNotFeasible }

// usage — сколько одного материала уходит на партию.
// Один и тот же материал в двух ролях складывается в одну запись.
type usage struct {
	component string
	material  materials.Material
	need      float64
}

func usages(sel Selection, b Breakdown) []usage {
	items := []struct {
		component string
		m         *materials.Material
		need      float64
	}{
		{"container", sel.Container, b.Consumption.Containers},
		{"wax", sel.Wax, b.Consumption.Wax},
		{"fragrance", sel.Fragrance, b.Consumption.Fragrance},
		{"wick", sel.Wick, b.Consumption.Wick},
		{"dye", sel.Dye, b.Consumption.Dye},
	}

	var out []usage
	for _, it := range items {
		if it.m == nil || it.need <= 0 {
			continue
		}
		merged := false
		if it.m.ID != 0 {
			for i := range out {
				if out[i].material.ID == it.m.ID {
					out[i].component += "+" + it.component
					out[i].need += it.need
					merged = true
					break
				}
			}
		}
		if !merged {
			out = append(out, usage{component: it.component, material: *it.m, need: it.need})
		}
	}
	return out
}

// Feasible хватает ли склада на партию. Неполный расчёт не сохраняется никогда.
func (e *Engine) Feasible(sel Selection, b Breakdown) bool {
	if !b.Complete() {
		return false
	}
	return len(e.Shortfalls(sel, b)) == 0
}

// Shortfalls по одной записи на каждый материал, которого не хватает.
func (e *Engine) Shortfalls(sel Selection, b Breakdown) []Shortfall {
	var out []Shortfall
	for _, u := range usages(sel, b) {
		if u.material.Quantity+epsilon >= u.need {
			continue
		}
		out = append(out, Shortfall{
			Component:    u.component,
			MaterialName: u.material.Name,
			Have:         u.material.Quantity,
			Need:         u.need,
			Unit:         u.material.Unit,
		})
	}
	return out
}

// Commit превращает расчёт в план: списания и Count записей свечей с общим BatchID.
// Сам ничего не пишет; план применяет inventory.Service.
func (e *Engine) Commit(sel Selection, b Breakdown) (inventory.Plan, error) {
	if !b.Complete() || sel.Container == nil || sel.Wax == nil {
		return inventory.Plan{}, ErrIncomplete
	}
	if sf := e.Shortfalls(sel, b); len(sf) > 0 {
		return inventory.Plan{}, &ShortfallError{Shortfalls: sf}
	}

	plan := inventory.Plan{BatchID: uuid.NewString()}
	for _, u := range usages(sel, b) {
		amount := u.need
		// остаток чуть меньше расхода из-за float — списываем всё
		if amount > u.material.Quantity {
			amount = u.material.Quantity
		}
		plan.Adjustments = append(plan.Adjustments, inventory.NewAdjustment(u.component, u.material, amount))
	}

	now := e.now()
	proto := candles.Candle{
		BatchID:       plan.BatchID,
		ContainerName: sel.Container.Name,
		WaxName:       sel.Wax.Name,
		Capacity:      b.Capacity,
		Cost:          b.CostPerCandle,
		Recipient:     strings.TrimSpace(sel.Recipient),
		CreatedAt:     now,
		ReadyAt:       now.Add(e.params.ReadyAfter),
	}
	if sel.Fragrance != nil {
		proto.FragranceName = sel.Fragrance.Name
		// в процентах, как бы ни была введена концентрация
		proto.Concentration = b.FragranceFraction * 100
	}
	if sel.Wick != nil {
		proto.WickName = sel.Wick.Name
	}
	if sel.Dye != nil {
		proto.DyeName = sel.Dye.Name
	}

	plan.Candles = make([]candles.Candle, b.Count)
	for i := range plan.Candles {
		plan.Candles[i] = proto
	}
	return plan, nil
}

func componentTitle(component string) string {
	titles := map[string]string{
		"container": "ёмкости",
		"wax":       "воска",
		"fragrance": "отдушки",
		"wick":      "фитиля",
		"dye":       "красителя",
	}
	parts := strings.Split(component, "+")
	for i, p := range parts {
		if t, ok := titles[p]; ok {
			parts[i] = t
		}
	}
	return strings.Join(parts, "/")
}

func fmtAmount(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
