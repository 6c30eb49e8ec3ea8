package inventory

import (
	"github.com/Spok95/candle-bot/internal/domain/candles"
	"github.com/Spok95/candle-bot/internal/domain/materials"
)

// Adjustment — списание одного материала. Before нужен для проверки, что остаток
// не изменился с момента расчёта.
type Adjustment struct {
	Component string // container|wax|fragrance|wick|dye|manual
	Amount    float64
	Before    materials.Material
	After     materials.Material
	Delete    bool
}

// Plan — всё, что нужно записать за одно сохранение: списания и новые свечи.
// Применяется целиком или не применяется вовсе.
type Plan struct {
	BatchID     string
	Adjustments []Adjustment
	Candles     []candles.Candle
}

func (p Plan) Empty() bool {
	return len(p.Adjustments) == 0 && len(p.Candles) == 0
}

// NewAdjustment строит списание по правилам materials.Decrement.
func NewAdjustment(component string, m materials.Material, amount float64) Adjustment {
	after, deleted := materials.Decrement(m, amount)
	return Adjustment{
		Component: component,
		Amount:    amount,
		Before:    m,
		After:     after,
		Delete:    deleted,
	}
}
