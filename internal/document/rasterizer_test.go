package document_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/go-pdf/fpdf"

	"agrovet/internal/document"
)

// scannedPDF builds a PDF with one embedded page image per entry of images
// and blank text-only pages for nil entries.
func scannedPDF(t *testing.T, images ...[]byte) []byte {
	t.Helper()
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	for i, img := range images {
		pdf.AddPage()
		if img == nil {
			pdf.Cell(40, 10, "sem imagem")
			continue
		}
		name := "page" + string(rune('a'+i))
		pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(img))
		pdf.ImageOptions(name, 10, 10, 190, 0, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("build PDF: %v", err)
	}
	return buf.Bytes()
}

func TestPDFImageRasterizer(t *testing.T) {
	data := scannedPDF(t, pngBytes(t), pngBytes(t))

	pages, err := document.NewPDFImageRasterizer(0).Rasterize(context.Background(), bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Rasterize() error = %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("Rasterize() returned %d pages, want 2", len(pages))
	}
	for i, p := range pages {
		if p.Number != i+1 {
			t.Errorf("page %d has number %d", i, p.Number)
		}
		if ct := http.DetectContentType(p.Image); ct != "image/png" && ct != "image/jpeg" {
			t.Errorf("page %d image type = %s", p.Number, ct)
		}
	}
}

func TestPDFImageRasterizerErrors(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		maxPages int
		wantErr  error
	}{
		{name: "text only", data: scannedPDF(t, nil), wantErr: document.ErrNoPageImages},
		{name: "page limit", data: scannedPDF(t, nil, nil, nil), maxPages: 2, wantErr: document.ErrTooManyPages},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := document.NewPDFImageRasterizer(tt.maxPages).Rasterize(context.Background(), bytes.NewReader(tt.data))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Rasterize() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := document.NewPDFImageRasterizer(0).Rasterize(context.Background(), bytes.NewReader([]byte("not a pdf"))); err == nil {
		t.Error("Rasterize() accepted invalid data")
	}
}
