package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"agrovet/internal/ratios"
	"agrovet/pkg/models"
)

// SheetName is the worksheet holding the report.
const SheetName = "Relatório"

// XLSX renders the report as a workbook with one sheet. chartPNG is placed
// next to the tables when non-empty.
func XLSX(report models.Report, chartPNG []byte) ([]byte, error) {
	const op = "XLSX"

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("%s: failed to name sheet: %w", op, err)
	}

	w := &sheetWriter{f: f, sheet: SheetName}
	if err := w.styles(); err != nil {
		return nil, fmt.Errorf("%s: failed to create styles: %w", op, err)
	}

	w.title("Relatório reprodutivo")
	w.row()
	w.pair("Fazenda", report.Record.FarmName)
	w.pair("Data", report.Record.DateString())
	w.row()

	w.header("Contagem", "Valor")
	for _, c := range report.Record.Counts() {
		w.pair(c.Label, c.Value)
	}
	w.row()

	w.header("Indicador", "%")
	for _, v := range report.Ratios.Values() {
		w.percent(v.Label, ratios.Round2(v.Value))
	}

	if report.Record.Notes != "" {
		w.row()
		w.header("Observações", "")
		w.pair(report.Record.Notes, "")
	}

	if w.err != nil {
		return nil, fmt.Errorf("%s: failed to write cells: %w", op, w.err)
	}

	if err := f.SetColWidth(SheetName, "A", "A", 32); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := f.SetColWidth(SheetName, "B", "B", 14); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(chartPNG) > 0 {
		err := f.AddPictureFromBytes(SheetName, "D3", &excelize.Picture{
			Extension: ".png",
			File:      chartPNG,
			Format: &excelize.GraphicOptions{
				AltText: "Indicadores reprodutivos",
				ScaleX:  0.6,
				ScaleY:  0.6,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("%s: failed to add chart: %w", op, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to write workbook: %w", op, err)
	}
	return buf.Bytes(), nil
}

// sheetWriter appends rows top to bottom and keeps the first error.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	next  int
	err   error

	bold    int
	heading int
	decimal int
}

func (w *sheetWriter) styles() error {
	var err error
	if w.bold, err = w.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return err
	}
	if w.heading, err = w.f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	}); err != nil {
		return err
	}
	if w.decimal, err = w.f.NewStyle(&excelize.Style{NumFmt: 2}); err != nil {
		return err
	}
	return nil
}

func (w *sheetWriter) row() int {
	w.next++
	return w.next
}

func (w *sheetWriter) set(col, row int, v interface{}, style int) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetCellValue(w.sheet, cell, v); err != nil {
		w.err = err
		return
	}
	if style != 0 {
		w.err = w.f.SetCellStyle(w.sheet, cell, cell, style)
	}
}

func (w *sheetWriter) title(text string) {
	w.set(1, w.row(), text, w.heading)
}

func (w *sheetWriter) header(a, b string) {
	r := w.row()
	w.set(1, r, a, w.bold)
	if b != "" {
		w.set(2, r, b, w.bold)
	}
}

func (w *sheetWriter) pair(label string, v interface{}) {
	r := w.row()
	w.set(1, r, label, 0)
	if s, ok := v.(string); ok && s == "" {
		return
	}
	w.set(2, r, v, 0)
}

func (w *sheetWriter) percent(label string, v float64) {
	r := w.row()
	w.set(1, r, label, 0)
	w.set(2, r, v, w.decimal)
}
