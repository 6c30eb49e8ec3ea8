package candles

import "time"

// Candle — готовая свеча. Названия материалов хранятся строками: после
// сохранения запись не зависит от дальнейшей судьбы материала на складе.
type Candle struct {
	ID      int64
	BatchID string // общий для всех свечей одной варки

	ContainerName string
	WaxName       string
	FragranceName string
	WickName      string
	DyeName       string

	Concentration float64 // в процентах: 5.0 == 5%
	Capacity      float64 // ml, из названия ёмкости
	Cost          float64 // себестоимость одной свечи
	Recipient     string

	CreatedAt   time.Time
	ReadyAt     time.Time // можно зажигать
	BurnMinutes int
}

// Ready свеча отстоялась и её можно зажигать.
func (c Candle) Ready(now time.Time) bool {
	return !now.Before(c.ReadyAt)
}
