package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Spok95/candle-bot/internal/domain/candles"
	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"
)

var ErrNoLabels = errors.New("export: no candles to label")

// LabelInfo — то, что зашито в QR-код этикетки.
type LabelInfo struct {
	CandleID  int64   `json:"id"`
	BatchID   string  `json:"batch"`
	Container string  `json:"container"`
	Fragrance string  `json:"fragrance,omitempty"`
	Conc      float64 `json:"conc,omitempty"`
	Made      string  `json:"made"`
	Ready     string  `json:"ready"`
	Recipient string  `json:"for,omitempty"`
}

// labelSheet — раскладка листа наклеек.
type labelSheet struct {
	size                  string
	marginTop, marginLeft float64
	width, height         float64
	cols, rows            int
}

var labelSheets = map[string]labelSheet{
	// L7160: 3×7, 63.5×38.1 mm
	"A4": {size: "A4", marginTop: 15.1, marginLeft: 7.2, width: 63.5, height: 38.1, cols: 3, rows: 7},
	// 5163: 2×5, 101.6×50.8 mm
	"LETTER": {size: "Letter", marginTop: 12.7, marginLeft: 4.8, width: 101.6, height: 50.8, cols: 2, rows: 5},
}

const (
	labelQRSize  = 24.0
	labelPadding = 2.0
	labelDate    = "2006-01-02"
)

type LabelOptions struct {
	Page     string // A4 | Letter
	Location *time.Location
}

func NewLabelInfo(c candles.Candle, loc *time.Location) LabelInfo {
	if loc == nil {
		loc = time.UTC
	}
	return LabelInfo{
		CandleID:  c.ID,
		BatchID:   c.BatchID,
		Container: c.ContainerName,
		Fragrance: c.FragranceName,
		Conc:      c.Concentration,
		Made:      c.CreatedAt.In(loc).Format(labelDate),
		Ready:     c.ReadyAt.In(loc).Format(labelDate),
		Recipient: c.Recipient,
	}
}

func sheetFor(page string) labelSheet {
	if s, ok := labelSheets[strings.ToUpper(page)]; ok {
		return s
	}
	return labelSheets["A4"]
}

// LabelPages сколько листов уйдёт на n наклеек.
func LabelPages(n int, page string) int {
	s := sheetFor(page)
	per := s.cols * s.rows
	return (n + per - 1) / per
}

// Labels рисует PDF с наклейками по одной на свечу.
func Labels(w io.Writer, cs []candles.Candle, opts LabelOptions) error {
	if len(cs) == 0 {
		return ErrNoLabels
	}
	sheet := sheetFor(opts.Page)
	perPage := sheet.cols * sheet.rows

	pdf := fpdf.New("P", "mm", sheet.size, "")
	pdf.SetAutoPageBreak(false, 0)
	// встроенные шрифты однобайтовые; диакритика вне cp1252 теряется, в QR всё в UTF-8
	tr := pdf.UnicodeTranslatorFromDescriptor("cp1252")

	for i, c := range cs {
		if i%perPage == 0 {
			pdf.AddPage()
		}
		pos := i % perPage
		x := sheet.marginLeft + float64(pos%sheet.cols)*sheet.width
		y := sheet.marginTop + float64(pos/sheet.cols)*sheet.height

		if err := renderLabel(pdf, tr, sheet, x, y, NewLabelInfo(c, opts.Location)); err != nil {
			return fmt.Errorf("rendering label for candle %d: %w", c.ID, err)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing labels pdf: %w", err)
	}
	return nil
}

func renderLabel(pdf *fpdf.Fpdf, tr func(string) string, sheet labelSheet, x, y float64, info LabelInfo) error {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, sheet.width, sheet.height, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal label info: %w", err)
	}
	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("generate qr code: %w", err)
	}
	imgName := fmt.Sprintf("qr_%d_%s", info.CandleID, info.BatchID)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qr := min(labelQRSize, sheet.height-2*labelPadding)
	pdf.ImageOptions(imgName, x+sheet.width-qr-labelPadding, y+(sheet.height-qr)/2, qr, qr,
		false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := sheet.width - qr - 3*labelPadding
	line := func(dy, size float64, style, text string) {
		pdf.SetFont("Helvetica", style, size)
		pdf.SetXY(textX, y+labelPadding+dy)
		pdf.CellFormat(textW, size*0.45, fit(pdf, tr(text), textW), "", 0, "L", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)
	line(0, 9, "B", info.Container)
	if info.Fragrance != "" {
		line(5, 7, "", fmt.Sprintf("%s %g%%", info.Fragrance, info.Conc))
	}
	line(10, 7, "", "Made: "+info.Made)
	line(14, 7, "B", "Light after: "+info.Ready)
	if info.Recipient != "" {
		line(19, 7, "I", "For: "+info.Recipient)
	}
	pdf.SetTextColor(120, 120, 120)
	line(sheet.height-2*labelPadding-3, 5, "", fmt.Sprintf("#%d", info.CandleID))
	pdf.SetTextColor(0, 0, 0)
	return nil
}

// fit обрезает строку под ширину ячейки.
func fit(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}
