// Package export renders farm reports and document metrics as downloadable
// files: CSV for extracted metrics, XLSX and PDF for farm records.
package export

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"agrovet/internal/chart"
	"agrovet/internal/logger"
	"agrovet/internal/metrics"
	"agrovet/pkg/models"
	"agrovet/pkg/services"
)

// Exporter implements services.ReportExporter.
type Exporter struct {
	chart chart.Options
	log   zerolog.Logger
}

var _ services.ReportExporter = (*Exporter)(nil)

// NewExporter creates an exporter that draws charts with the given options.
func NewExporter(opts chart.Options) *Exporter {
	return &Exporter{
		chart: opts,
		log:   logger.WithComponent("export"),
	}
}

// Export renders the chart PNG, the XLSX workbook and the PDF of a report.
func (e *Exporter) Export(ctx context.Context, report models.Report) ([]services.Artifact, error) {
	const op = "Export"

	base := FileBase(report.Record)

	png, err := chart.RenderRatios(report.Ratios, e.chart)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	xlsx, err := XLSX(report, png)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pdf, err := PDF(report, png)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	artifacts := []services.Artifact{
		{FileName: base + ".xlsx", MIMEType: services.MIMEXLSX, Data: xlsx},
		{FileName: base + ".pdf", MIMEType: services.MIMEPDF, Data: pdf},
		{FileName: base + "_grafico.png", MIMEType: services.MIMEPNG, Data: png},
	}

	e.log.Info().
		Str("farm", report.Record.FarmName).
		Str("date", report.Record.DateString()).
		Int("xlsx_bytes", len(xlsx)).
		Int("pdf_bytes", len(pdf)).
		Msg("Report exported")

	return artifacts, nil
}

// ExportFormat renders a single report file. The chart is drawn for every
// format since the workbook and the PDF embed it.
func (e *Exporter) ExportFormat(ctx context.Context, report models.Report, mimeType string) (services.Artifact, error) {
	const op = "ExportFormat"

	base := FileBase(report.Record)

	png, err := chart.RenderRatios(report.Ratios, e.chart)
	if err != nil {
		return services.Artifact{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := ctx.Err(); err != nil {
		return services.Artifact{}, fmt.Errorf("%s: %w", op, err)
	}

	var a services.Artifact
	switch mimeType {
	case services.MIMEPNG:
		a = services.Artifact{FileName: base + "_grafico.png", MIMEType: mimeType, Data: png}
	case services.MIMEXLSX:
		data, err := XLSX(report, png)
		if err != nil {
			return services.Artifact{}, fmt.Errorf("%s: %w", op, err)
		}
		a = services.Artifact{FileName: base + ".xlsx", MIMEType: mimeType, Data: data}
	case services.MIMEPDF:
		data, err := PDF(report, png)
		if err != nil {
			return services.Artifact{}, fmt.Errorf("%s: %w", op, err)
		}
		a = services.Artifact{FileName: base + ".pdf", MIMEType: mimeType, Data: data}
	default:
		return services.Artifact{}, fmt.Errorf("%s: %w: %s", op, services.ErrUnknownFormat, mimeType)
	}

	e.log.Info().
		Str("farm", report.Record.FarmName).
		Str("file", a.FileName).
		Int("bytes", len(a.Data)).
		Msg("Report file exported")

	return a, nil
}

// ExportMetrics renders a metric set as the CSV download.
func (e *Exporter) ExportMetrics(set metrics.Set) (services.Artifact, error) {
	data, err := MetricsCSV(set)
	if err != nil {
		return services.Artifact{}, err
	}
	return services.Artifact{FileName: MetricsFileName, MIMEType: services.MIMECSV, Data: data}, nil
}

// FileBase builds an ASCII file name stem from the farm name and date,
// e.g. "agrovet_fazenda_sao_joao_2024-03-01".
func FileBase(r models.FarmRecord) string {
	// A chain keeps state between calls, so every call builds its own.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	name, _, err := transform.String(stripMarks, r.FarmName)
	if err != nil {
		name = r.FarmName
	}

	var b strings.Builder
	lastSep := true
	for _, c := range strings.ToLower(name) {
		if c < unicode.MaxASCII && (unicode.IsLetter(c) || unicode.IsDigit(c)) {
			b.WriteRune(c)
			lastSep = false
			continue
		}
		if !lastSep {
			b.WriteByte('_')
			lastSep = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "_")

	parts := []string{"agrovet"}
	if slug != "" {
		parts = append(parts, slug)
	}
	if d := r.DateString(); d != "" {
		parts = append(parts, d)
	}
	return strings.Join(parts, "_")
}
