package materials

import (
	"strings"
	"time"
)

type Unit string

const (
	UnitPcs Unit = "pcs"
	UnitG   Unit = "g"
	UnitMl  Unit = "ml"
	UnitM   Unit = "m"
)

// ParseUnit принимает и старое обозначение штук "szt".
func ParseUnit(s string) (Unit, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pcs", "szt", "шт":
		return UnitPcs, true
	case "g", "г":
		return UnitG, true
	case "ml", "мл":
		return UnitMl, true
	case "m", "м":
		return UnitM, true
	}
	return "", false
}

type Category string

const (
	CategoryWax       Category = "wax"
	CategoryFragrance Category = "fragrance"
	CategoryWick      Category = "wick"
	CategoryContainer Category = "container"
	CategoryDye       Category = "dye"
	CategoryOther     Category = "other"
)

var Categories = []Category{
	CategoryContainer,
	CategoryWax,
	CategoryFragrance,
	CategoryWick,
	CategoryDye,
	CategoryOther,
}

func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// Title — подпись категории для интерфейса бота
func (c Category) Title() string {
	switch c {
	case CategoryWax:
		return "Воск"
	case CategoryFragrance:
		return "Отдушка"
	case CategoryWick:
		return "Фитиль"
	case CategoryContainer:
		return "Ёмкость"
	case CategoryDye:
		return "Краситель"
	default:
		return "Прочее"
	}
}

// DefaultUnit единица измерения, которую предлагаем при создании материала.
func (c Category) DefaultUnit() Unit {
	switch c {
	case CategoryContainer, CategoryWick:
		return UnitPcs
	case CategoryFragrance:
		return UnitMl
	default:
		return UnitG
	}
}

type Material struct {
	ID       int64
	Name     string
	Category Category
	Quantity float64 // остаток
	Unit     Unit
	Price    float64 // сколько заплачено за весь текущий остаток

	PreferredWickName      string   // только для ёмкостей
	PreferredConcentration *float64 // только для отдушек, в процентах

	CreatedAt time.Time
	UpdatedAt time.Time
}
