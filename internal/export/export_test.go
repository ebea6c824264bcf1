package export_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/xuri/excelize/v2"

	"agrovet/internal/chart"
	"agrovet/internal/export"
	"agrovet/internal/metrics"
	"agrovet/internal/ratios"
	"agrovet/pkg/models"
	"agrovet/pkg/services"
)

func sampleReport(t *testing.T) models.Report {
	t.Helper()
	rec := models.FarmRecord{
		FarmName:          "Fazenda São João",
		Date:              time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		TotalDams:         120,
		EligibleDams:      90,
		Inseminated:       80,
		Pregnant:          72,
		PositiveDiagnoses: 65,
		ExpectedCalvings:  70,
		ActualCalvings:    68,
		GestationalLosses: 6,
		RepeatServices:    15,
		Notes:             "Lote de novilhas com escore corporal baixo.",
	}
	r, err := ratios.Calculate(rec)
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}
	return models.Report{Record: rec, Ratios: r}
}

func TestMetricsCSV(t *testing.T) {
	set := metrics.NewSet(
		metrics.Entry{Key: metrics.PregnancyRate, Value: 52.4},
		metrics.Entry{Key: metrics.TotalInseminations, Value: 230},
		metrics.Entry{Key: metrics.CalvingsPerCowPerYear, Value: 0.89},
	)

	data, err := export.MetricsCSV(set)
	if err != nil {
		t.Fatalf("MetricsCSV() error = %v", err)
	}
	want := "pregnancy_rate,total_inseminations,calvings_per_cow_per_year\n52.4,230,0.89\n"
	if string(data) != want {
		t.Errorf("MetricsCSV() = %q, want %q", data, want)
	}

	back, err := export.ReadMetricsCSV(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadMetricsCSV() error = %v", err)
	}
	got, orig := back.Entries(), set.Entries()
	if len(got) != len(orig) {
		t.Fatalf("ReadMetricsCSV() = %v, want %v", got, orig)
	}
	for i := range orig {
		if got[i] != orig[i] {
			t.Errorf("entry %d = %v, want %v", i, got[i], orig[i])
		}
	}
}

func TestMetricsCSVErrors(t *testing.T) {
	if _, err := export.MetricsCSV(metrics.Set{}); !errors.Is(err, metrics.ErrNoMetrics) {
		t.Errorf("MetricsCSV(empty) error = %v, want ErrNoMetrics", err)
	}

	tests := []struct {
		name string
		data string
	}{
		{name: "unknown column", data: "milk_yield\n30\n"},
		{name: "bad value", data: "pregnancy_rate\nabc\n"},
		{name: "header only", data: "pregnancy_rate\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := export.ReadMetricsCSV(strings.NewReader(tt.data)); err == nil {
				t.Error("ReadMetricsCSV() error = nil")
			}
		})
	}
}

func TestXLSX(t *testing.T) {
	report := sampleReport(t)
	png, err := chart.RenderRatios(report.Ratios, chart.Options{Width: 600, Height: 300})
	if err != nil {
		t.Fatal(err)
	}

	data, err := export.XLSX(report, png)
	if err != nil {
		t.Fatalf("XLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	cells := map[string]string{
		"A1":  "Relatório reprodutivo",
		"B3":  "Fazenda São João",
		"B4":  "2024-03-01",
		"A6":  "Contagem",
		"B7":  "120",
		"A17": "Indicador",
		"A18": "Taxa de serviço",
		"B18": "88.89",
		"B24": "8.33",
		"A27": "Lote de novilhas com escore corporal baixo.",
	}
	for cell, want := range cells {
		got, err := f.GetCellValue(export.SheetName, cell, excelize.Options{RawCellValue: true})
		if err != nil {
			t.Fatalf("GetCellValue(%s) error = %v", cell, err)
		}
		if got != want {
			t.Errorf("%s = %q, want %q", cell, got, want)
		}
	}

	pics, err := f.GetPictures(export.SheetName, "D3")
	if err != nil {
		t.Fatalf("GetPictures() error = %v", err)
	}
	if len(pics) != 1 {
		t.Errorf("chart pictures = %d, want 1", len(pics))
	}
}

func TestPDF(t *testing.T) {
	data, err := export.PDF(sampleReport(t), nil)
	if err != nil {
		t.Fatalf("PDF() error = %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("PDF() output starts with %q", data[:8])
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		t.Fatalf("PageCount() error = %v", err)
	}
	if n != 1 {
		t.Errorf("PageCount() = %d, want 1", n)
	}
}

func TestExporter(t *testing.T) {
	e := export.NewExporter(chart.Options{Width: 600, Height: 300})

	artifacts, err := e.Export(context.Background(), sampleReport(t))
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	want := map[string]string{
		services.MIMEXLSX: "agrovet_fazenda_sao_joao_2024-03-01.xlsx",
		services.MIMEPDF:  "agrovet_fazenda_sao_joao_2024-03-01.pdf",
		services.MIMEPNG:  "agrovet_fazenda_sao_joao_2024-03-01_grafico.png",
	}
	for mime, name := range want {
		a, ok := services.Find(artifacts, mime)
		if !ok {
			t.Errorf("no %s artifact", mime)
			continue
		}
		if a.FileName != name || len(a.Data) == 0 {
			t.Errorf("%s artifact = %q (%d bytes), want %q", mime, a.FileName, len(a.Data), name)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Export(ctx, sampleReport(t)); !errors.Is(err, context.Canceled) {
		t.Errorf("Export(canceled) error = %v", err)
	}
}

func TestExportMetrics(t *testing.T) {
	a, err := export.NewExporter(chart.Options{}).ExportMetrics(metrics.NewSet(metrics.Entry{Key: metrics.TotalCalvings, Value: 31}))
	if err != nil {
		t.Fatalf("ExportMetrics() error = %v", err)
	}
	if a.FileName != export.MetricsFileName || a.MIMEType != services.MIMECSV {
		t.Errorf("ExportMetrics() = %q %q", a.FileName, a.MIMEType)
	}
}

func TestFileBase(t *testing.T) {
	tests := []struct {
		rec  models.FarmRecord
		want string
	}{
		{rec: models.FarmRecord{FarmName: "Fazenda São João"}, want: "agrovet_fazenda_sao_joao"},
		{rec: models.FarmRecord{FarmName: "  Sítio 3 Irmãos!! ", Date: time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)}, want: "agrovet_sitio_3_irmaos_2023-12-31"},
		{rec: models.FarmRecord{}, want: "agrovet"},
	}
	for _, tt := range tests {
		if got := export.FileBase(tt.rec); got != tt.want {
			t.Errorf("FileBase(%q) = %q, want %q", tt.rec.FarmName, got, tt.want)
		}
	}
}

func TestFileBaseConcurrent(t *testing.T) {
	records := []models.FarmRecord{
		{FarmName: "Fazenda São João"},
		{FarmName: "Sítio Três Corações"},
		{FarmName: "Agropecuária Ipê"},
	}
	want := []string{"agrovet_fazenda_sao_joao", "agrovet_sitio_tres_coracoes", "agrovet_agropecuaria_ipe"}

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				k := (g + i) % len(records)
				if got := export.FileBase(records[k]); got != want[k] {
					errs <- got
					return
				}
			}
		}(g)
	}
	wg.Wait()
	close(errs)

	for got := range errs {
		t.Errorf("FileBase() = %q under concurrent use", got)
	}
}

func TestExportFormat(t *testing.T) {
	e := export.NewExporter(chart.Options{Width: 600, Height: 300})
	report := sampleReport(t)

	tests := []struct {
		mime   string
		name   string
		prefix string
	}{
		{mime: services.MIMEXLSX, name: "agrovet_fazenda_sao_joao_2024-03-01.xlsx", prefix: "PK"},
		{mime: services.MIMEPDF, name: "agrovet_fazenda_sao_joao_2024-03-01.pdf", prefix: "%PDF-"},
		{mime: services.MIMEPNG, name: "agrovet_fazenda_sao_joao_2024-03-01_grafico.png", prefix: "\x89PNG"},
	}
	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			a, err := e.ExportFormat(context.Background(), report, tt.mime)
			if err != nil {
				t.Fatalf("ExportFormat() error = %v", err)
			}
			if a.FileName != tt.name || a.MIMEType != tt.mime || !bytes.HasPrefix(a.Data, []byte(tt.prefix)) {
				t.Errorf("ExportFormat() = %q %q", a.FileName, a.MIMEType)
			}
		})
	}

	if _, err := e.ExportFormat(context.Background(), report, services.MIMECSV); !errors.Is(err, services.ErrUnknownFormat) {
		t.Errorf("ExportFormat(csv) error = %v, want ErrUnknownFormat", err)
	}
}
