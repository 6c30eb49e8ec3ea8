package recipe

import "time"

// Params — константы расчёта. Значения по умолчанию взяты из практики;
// в проде переопределяются секцией recipe конфига.
type Params struct {
	FillFraction  float64       // доля объёма ёмкости, которую занимает воск+отдушка
	WickSurcharge float64       // доплата за фитиль на свечу (держатель, работа)
	DyePerCandle  float64       // расход красителя на свечу
	ReadyAfter    time.Duration // сколько свеча отстаивается до первого зажигания
}

const (
	DefaultFillFraction  = 0.875
	DefaultWickSurcharge = 0.10
	DefaultDyePerCandle  = 0.05
	DefaultReadyAfter    = 14 * 24 * time.Hour

	// значения полей нового рецепта
	DefaultConcentration = "5.0"
	DefaultWickLength    = "0.15"
	DefaultCount         = 1
)

func DefaultParams() Params {
	return Params{
		FillFraction:  DefaultFillFraction,
		WickSurcharge: DefaultWickSurcharge,
		DyePerCandle:  DefaultDyePerCandle,
		ReadyAfter:    DefaultReadyAfter,
	}
}
