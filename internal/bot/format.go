package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/Spok95/candle-bot/internal/domain/candles"
	"github.com/Spok95/candle-bot/internal/domain/inventory"
	"github.com/Spok95/candle-bot/internal/domain/materials"
	"github.com/Spok95/candle-bot/internal/recipe"
)

// fmtQty 12.50 -> "12.5", 3.00 -> "3".
func fmtQty(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", materials.Round2(v))
}

func nameOr(m *materials.Material) string {
	if m == nil {
		return "—"
	}
	return m.Name
}

// materialLabel строка материала в списке; ⚠️ — остаток ниже порога.
func materialLabel(m materials.Material, low materials.Thresholds) string {
	mark := ""
	if low.IsLow(m) {
		mark = "⚠️ "
	}
	return fmt.Sprintf("%s%s — %s %s", mark, m.Name, fmtQty(m.Quantity), m.Unit)
}

func materialCard(m materials.Material, low materials.Thresholds) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\nКатегория: %s\n", m.Name, m.Category.Title())
	fmt.Fprintf(&sb, "Остаток: %s %s\n", fmtQty(m.Quantity), m.Unit)
	fmt.Fprintf(&sb, "Стоимость остатка: %s\n", money(m.Price))
	fmt.Fprintf(&sb, "Цена за %s: %.4f\n", m.Unit, materials.UnitPrice(&m))
	switch m.Category {
	case materials.CategoryContainer:
		if c := materials.ExtractCapacity(m.Name); c > 0 {
			fmt.Fprintf(&sb, "Объём: %s мл\n", fmtQty(c))
		} else {
			sb.WriteString("Объём не найден в названии, в расчёте ёмкость не участвует\n")
		}
		wick := m.PreferredWickName
		if wick == "" {
			wick = "—"
		}
		fmt.Fprintf(&sb, "Фитиль по умолчанию: %s\n", wick)
	case materials.CategoryFragrance:
		conc := "—"
		if m.PreferredConcentration != nil {
			conc = fmtQty(*m.PreferredConcentration) + "%"
		}
		fmt.Fprintf(&sb, "Концентрация по умолчанию: %s\n", conc)
	}
	if low.IsLow(m) {
		sb.WriteString("⚠️ Заканчивается\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatBreakdown экран калькулятора: выбор, расход и себестоимость.
func formatBreakdown(sel recipe.Selection, b recipe.Breakdown, shortfalls []recipe.Shortfall) string {
	var sb strings.Builder
	sb.WriteString("🕯 Расчёт партии\n\n")
	fmt.Fprintf(&sb, "Ёмкость: %s\n", nameOr(sel.Container))
	fmt.Fprintf(&sb, "Воск: %s\n", nameOr(sel.Wax))
	if sel.Fragrance != nil {
		fmt.Fprintf(&sb, "Отдушка: %s, %s%%\n", sel.Fragrance.Name, sel.Concentration)
	} else {
		sb.WriteString("Отдушка: —\n")
	}
	fmt.Fprintf(&sb, "Фитиль: %s\n", nameOr(sel.Wick))
	fmt.Fprintf(&sb, "Краситель: %s\n", nameOr(sel.Dye))
	fmt.Fprintf(&sb, "Количество: %d\n", sel.Count)
	if r := strings.TrimSpace(sel.Recipient); r != "" {
		fmt.Fprintf(&sb, "Для кого: %s\n", r)
	}

	if !b.Complete() {
		sb.WriteString("\nВыберите ёмкость с объёмом в названии и воск, укажите количество больше нуля.")
		return sb.String()
	}

	sb.WriteString("\nНа одну свечу:\n")
	fmt.Fprintf(&sb, "• заливка %s мл: воск %s %s", fmtQty(b.FillBase), fmtQty(b.WaxPerCandle), sel.Wax.Unit)
	if sel.Fragrance != nil {
		fmt.Fprintf(&sb, ", отдушка %s %s", fmtQty(b.FragrancePerCandle), sel.Fragrance.Unit)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "• ёмкость %s\n", money(b.Costs.Container))
	fmt.Fprintf(&sb, "• воск %s\n", money(b.Costs.Wax))
	if sel.Fragrance != nil {
		fmt.Fprintf(&sb, "• отдушка %s\n", money(b.Costs.Fragrance))
	}
	if sel.Wick != nil {
		if sel.Wick.Unit == materials.UnitM {
			fmt.Fprintf(&sb, "• фитиль %s м: %s\n", fmtQty(b.WickLength), money(b.Costs.Wick))
		} else {
			fmt.Fprintf(&sb, "• фитиль %s\n", money(b.Costs.Wick))
		}
	}
	if sel.Dye != nil {
		fmt.Fprintf(&sb, "• краситель %s\n", money(b.Costs.Dye))
	}
	fmt.Fprintf(&sb, "\nСебестоимость свечи: %s\n", money(b.CostPerCandle))
	fmt.Fprintf(&sb, "Итого за партию: %s", money(b.TotalCost))

	if len(shortfalls) > 0 {
		sb.WriteString("\n\n⚠️ Сохранить нельзя:")
		for _, s := range shortfalls {
			sb.WriteString("\n" + s.String())
		}
	}
	return sb.String()
}

// lowStockLines что после списания закончилось или опустилось ниже порога.
func lowStockLines(plan inventory.Plan, low materials.Thresholds) []string {
	var out []string
	for _, a := range plan.Adjustments {
		switch {
		case a.Delete:
			out = append(out, fmt.Sprintf("«%s» закончился, позиция удалена со склада", a.Before.Name))
		case low.IsLow(a.After):
			out = append(out, fmt.Sprintf("«%s»: осталось %s %s", a.After.Name, fmtQty(a.After.Quantity), a.After.Unit))
		}
	}
	return out
}

func candleLabel(c candles.Candle, loc *time.Location) string {
	s := fmt.Sprintf("#%d %s", c.ID, c.ContainerName)
	if c.FragranceName != "" {
		s += " · " + c.FragranceName
	}
	if c.Recipient != "" {
		s += " → " + c.Recipient
	}
	return s + " · " + c.CreatedAt.In(loc).Format("02.01")
}

func candleCard(c candles.Candle, now time.Time, loc *time.Location) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Свеча #%d\n", c.ID)
	fmt.Fprintf(&sb, "Ёмкость: %s", c.ContainerName)
	if c.Capacity > 0 {
		fmt.Fprintf(&sb, " (%s мл)", fmtQty(c.Capacity))
	}
	fmt.Fprintf(&sb, "\nВоск: %s\n", c.WaxName)
	if c.FragranceName != "" {
		fmt.Fprintf(&sb, "Отдушка: %s, %s%%\n", c.FragranceName, fmtQty(c.Concentration))
	}
	if c.WickName != "" {
		fmt.Fprintf(&sb, "Фитиль: %s\n", c.WickName)
	}
	if c.DyeName != "" {
		fmt.Fprintf(&sb, "Краситель: %s\n", c.DyeName)
	}
	if c.Recipient != "" {
		fmt.Fprintf(&sb, "Для кого: %s\n", c.Recipient)
	}
	fmt.Fprintf(&sb, "Себестоимость: %s\n", money(c.Cost))
	fmt.Fprintf(&sb, "Сделана: %s\n", c.CreatedAt.In(loc).Format("02.01.2006 15:04"))
	if c.Ready(now) {
		sb.WriteString("✅ Готова к зажиганию\n")
	} else {
		fmt.Fprintf(&sb, "⏳ Зажигать с %s\n", c.ReadyAt.In(loc).Format("02.01.2006"))
	}
	fmt.Fprintf(&sb, "Горела: %d мин\n", c.BurnMinutes)
	fmt.Fprintf(&sb, "Партия: %s", c.BatchID)
	return sb.String()
}
