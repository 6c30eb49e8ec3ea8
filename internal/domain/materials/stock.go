package materials

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var capacityRe = regexp.MustCompile(`[0-9.]+`)

// UnitPrice цена за единицу (g / ml / pcs / m). При нулевом остатке — 0.
func UnitPrice(m *Material) float64 {
	if m == nil || m.Quantity <= 0 {
		return 0
	}
	return m.Price / m.Quantity
}

// ExtractCapacity достаёт объём ёмкости из названия: первая группа цифр с точкой.
// "Słoik 200ml" -> 200. Если числа нет или оно кривое ("1.2.3", "200.") — 0.
func ExtractCapacity(name string) float64 {
	s := capacityRe.FindString(name)
	if s == "" || strings.HasSuffix(s, ".") {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// MergeAdd повторное добавление материала с тем же именем: количество и сумма
// складываются (пользователь вводит сумму за партию, а не цену за единицу).
func MergeAdd(existing, incoming Material) Material {
	out := existing
	out.Quantity = existing.Quantity + incoming.Quantity
	out.Price = existing.Price + incoming.Price
	if incoming.PreferredWickName != "" {
		out.PreferredWickName = incoming.PreferredWickName
	}
	if incoming.PreferredConcentration != nil {
		v := *incoming.PreferredConcentration
		out.PreferredConcentration = &v
	}
	return out
}

// Decrement списывает amount. Второе значение = true, если позиция израсходована
// полностью и её нужно удалить. Цена пересчитывается по цене за единицу до списания.
func Decrement(m Material, amount float64) (Material, bool) {
	if amount >= m.Quantity {
		return m, true
	}
	perUnit := UnitPrice(&m)
	out := m
	out.Quantity = m.Quantity - amount
	out.Price = Round2(out.Quantity * perUnit)
	return out, false
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Thresholds — порог «мало» по единице измерения. Единицы без порога не сигналят.
type Thresholds map[Unit]float64

func DefaultThresholds() Thresholds {
	return Thresholds{UnitG: 20, UnitMl: 20, UnitPcs: 1, UnitM: 0.5}
}

// IsLow остаток ниже порога своей единицы.
func (t Thresholds) IsLow(m Material) bool {
	thr, ok := t[m.Unit]
	return ok && m.Quantity < thr
}
