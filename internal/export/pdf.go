package export

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/go-pdf/fpdf"

	"agrovet/internal/ratios"
	"agrovet/pkg/models"
)

const (
	pdfFont      = "Helvetica"
	labelWidth   = 110.0
	valueWidth   = 40.0
	rowHeight    = 7.0
	chartWidthMM = 170.0
)

// PDF renders the report as an A4 document: title, farm and date, the counts
// and ratios tables, the chart when present, notes and page numbers.
func PDF(report models.Report, chartPNG []byte) ([]byte, error) {
	const op = "PDF"

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	title := "Relatório reprodutivo"
	if report.Record.FarmName != "" {
		title += " - " + report.Record.FarmName
	}
	pdf.SetTitle(title, true)
	pdf.SetCreator("agrovet", true)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(pdfFont, "I", 8)
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("Página %d/{nb}", pdf.PageNo())), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont(pdfFont, "B", 16)
	pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")

	pdf.SetFont(pdfFont, "", 11)
	pdf.CellFormat(0, rowHeight, tr("Fazenda: "+report.Record.FarmName), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, rowHeight, tr("Data: "+report.Record.DateString()), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	counts := report.Record.Counts()
	countRows := make([][2]string, len(counts))
	for i, c := range counts {
		countRows[i] = [2]string{c.Label, strconv.Itoa(c.Value)}
	}
	table(pdf, tr, "Contagem", "Valor", countRows)
	pdf.Ln(4)

	values := report.Ratios.Values()
	ratioRows := make([][2]string, len(values))
	for i, v := range values {
		ratioRows[i] = [2]string{v.Label, strconv.FormatFloat(ratios.Round2(v.Value), 'f', 2, 64)}
	}
	table(pdf, tr, "Indicador", "%", ratioRows)
	pdf.Ln(6)

	if len(chartPNG) > 0 {
		opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		pdf.RegisterImageOptionsReader("chart", opts, bytes.NewReader(chartPNG))
		pdf.ImageOptions("chart", pdf.GetX(), pdf.GetY(), chartWidthMM, 0, true, opts, 0, "")
		pdf.Ln(4)
	}

	if report.Record.Notes != "" {
		pdf.SetFont(pdfFont, "B", 12)
		pdf.CellFormat(0, rowHeight, tr("Observações"), "", 1, "L", false, 0, "")
		pdf.SetFont(pdfFont, "", 11)
		pdf.MultiCell(0, 6, tr(report.Record.Notes), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%s: failed to write PDF: %w", op, err)
	}
	return buf.Bytes(), nil
}

func table(pdf *fpdf.Fpdf, tr func(string) string, labelHeader, valueHeader string, rows [][2]string) {
	pdf.SetFont(pdfFont, "B", 11)
	pdf.SetFillColor(230, 236, 228)
	pdf.CellFormat(labelWidth, rowHeight, tr(labelHeader), "1", 0, "L", true, 0, "")
	pdf.CellFormat(valueWidth, rowHeight, tr(valueHeader), "1", 1, "R", true, 0, "")

	pdf.SetFont(pdfFont, "", 11)
	for _, r := range rows {
		pdf.CellFormat(labelWidth, rowHeight, tr(r[0]), "1", 0, "L", false, 0, "")
		pdf.CellFormat(valueWidth, rowHeight, r[1], "1", 1, "R", false, 0, "")
	}
}
