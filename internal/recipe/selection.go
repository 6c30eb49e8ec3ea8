package recipe

import (
	"strconv"
	"strings"

	"github.com/Spok95/candle-bot/internal/domain/materials"
)

// Selection — то, что пользователь набрал в калькуляторе.
// Числовые поля остаются текстом: пока человек печатает, там может быть что угодно.
type Selection struct {
	Container *materials.Material
	Wax       *materials.Material
	Fragrance *materials.Material
	Wick      *materials.Material
	Dye       *materials.Material

	Concentration string // "5.0" == 5%, "0.05" тоже 5%
	WickLength    string // метры, только для фитиля в m
	Count         int
	Recipient     string
}

func NewSelection() Selection {
	return Selection{
		Concentration: DefaultConcentration,
		WickLength:    DefaultWickLength,
		Count:         DefaultCount,
	}
}

// SetContainer выбирает ёмкость и, если фитиль ещё не выбран, подставляет
// фитиль по умолчанию из карточки ёмкости.
func (s *Selection) SetContainer(c *materials.Material, wicks []materials.Material) {
	s.Container = c
	if c == nil || s.Wick != nil || c.PreferredWickName == "" {
		return
	}
	for i := range wicks {
		if wicks[i].Name == c.PreferredWickName {
			w := wicks[i]
			s.Wick = &w
			return
		}
	}
}

// SetFragrance выбирает отдушку и подставляет её концентрацию по умолчанию.
func (s *Selection) SetFragrance(f *materials.Material) {
	s.Fragrance = f
	if f != nil && f.PreferredConcentration != nil {
		s.Concentration = strconv.FormatFloat(*f.PreferredConcentration, 'f', -1, 64)
	}
}

// ParseNumber разбирает число из поля ввода; запятая допускается как разделитель.
// Всё, что не число, — 0.
func ParseNumber(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseCount количество свечей; мусор — 0.
func ParseCount(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}
