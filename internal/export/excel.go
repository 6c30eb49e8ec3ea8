package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Spok95/candle-bot/internal/domain/candles"
	"github.com/Spok95/candle-bot/internal/domain/materials"
	"github.com/Spok95/candle-bot/internal/recipe"
	"github.com/xuri/excelize/v2"
)

var ErrBadSheet = errors.New("export: unexpected spreadsheet layout")

var materialHeader = []any{
	"id", "name", "category", "quantity", "unit", "price",
	"unit_price", "preferred_wick", "preferred_concentration", "low",
}

// колонки, без которых импорт невозможен
var importColumns = []string{"name", "category", "quantity", "unit", "price"}

var candleHeader = []any{
	"id", "batch_id", "created", "ready", "container", "wax", "fragrance", "concentration",
	"wick", "dye", "capacity", "cost", "recipient", "burn_minutes",
}

func writeSheet(w io.Writer, header []any, rows [][]any) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("freezing header: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// MaterialsXLSX выгрузка склада. Тот же файл можно исправить и загрузить обратно.
func MaterialsXLSX(w io.Writer, ms []materials.Material, low materials.Thresholds) error {
	rows := make([][]any, 0, len(ms))
	for _, m := range ms {
		conc := ""
		if m.PreferredConcentration != nil {
			conc = fmt.Sprint(*m.PreferredConcentration)
		}
		mark := ""
		if low.IsLow(m) {
			mark = "мало"
		}
		rows = append(rows, []any{
			m.ID, m.Name, string(m.Category), m.Quantity, string(m.Unit), m.Price,
			materials.Round2(materials.UnitPrice(&m)), m.PreferredWickName, conc, mark,
		})
	}
	return writeSheet(w, materialHeader, rows)
}

func CandlesXLSX(w io.Writer, cs []candles.Candle, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	rows := make([][]any, 0, len(cs))
	for _, c := range cs {
		rows = append(rows, []any{
			c.ID, c.BatchID,
			c.CreatedAt.In(loc).Format("2006-01-02 15:04"), c.ReadyAt.In(loc).Format("2006-01-02"),
			c.ContainerName, c.WaxName, c.FragranceName, c.Concentration,
			c.WickName, c.DyeName, c.Capacity, materials.Round2(c.Cost), c.Recipient, c.BurnMinutes,
		})
	}
	return writeSheet(w, candleHeader, rows)
}

// RowError — строка файла, которую не удалось разобрать.
type RowError struct {
	Row int // номер строки в Excel, с 1
	Err string
}

func (e RowError) String() string { return fmt.Sprintf("строка %d: %s", e.Row, e.Err) }

// ParseMaterialsXLSX читает материалы из первого листа. Колонки ищутся по
// заголовку, порядок не важен. Плохие строки не роняют импорт, а
// возвращаются списком.
func ParseMaterialsXLSX(data []byte) ([]materials.Material, []RowError, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("reading rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%w: empty sheet", ErrBadSheet)
	}

	col := map[string]int{}
	for i, h := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range importColumns {
		if _, ok := col[name]; !ok {
			return nil, nil, fmt.Errorf("%w: missing column %q", ErrBadSheet, name)
		}
	}
	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var (
		out []materials.Material
		bad []RowError
	)
	for i, row := range rows[1:] {
		line := i + 2
		name := cell(row, "name")
		if name == "" {
			// пустые строки в конце листа — норма
			continue
		}
		cat, ok := materials.ParseCategory(cell(row, "category"))
		if !ok {
			bad = append(bad, RowError{Row: line, Err: fmt.Sprintf("неизвестная категория %q", cell(row, "category"))})
			continue
		}
		unit, ok := materials.ParseUnit(cell(row, "unit"))
		if !ok {
			unit = cat.DefaultUnit()
		}
		qty, qerr := parseCellNumber(cell(row, "quantity"))
		price, perr := parseCellNumber(cell(row, "price"))
		if qerr != nil || perr != nil || qty < 0 || price < 0 {
			bad = append(bad, RowError{Row: line, Err: "количество и цена — неотрицательные числа"})
			continue
		}

		m := materials.Material{Name: name, Category: cat, Quantity: qty, Unit: unit, Price: price}
		m.PreferredWickName = cell(row, "preferred_wick")
		if s := cell(row, "preferred_concentration"); s != "" {
			v := recipe.ParseNumber(s)
			m.PreferredConcentration = &v
		}
		out = append(out, m)
	}
	return out, bad, nil
}

func parseCellNumber(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return v, nil
}
