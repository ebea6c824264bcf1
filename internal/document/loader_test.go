package document_test

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"agrovet/internal/document"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	img.SetGray(2, 2, color.Gray{Y: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8)), nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLoad(t *testing.T) {
	pdf := []byte("%PDF-1.4\n%âãÏÓ\n1 0 obj\n<<>>\nendobj\n")

	tests := []struct {
		name     string
		filename string
		data     []byte
		max      int64
		wantKind document.Kind
		wantErr  error
	}{
		{name: "png", filename: "relatorio.png", data: pngBytes(t), wantKind: document.KindPNG},
		{name: "jpeg", filename: "relatorio.jpg", data: jpegBytes(t), wantKind: document.KindJPEG},
		{name: "pdf", filename: "relatorio.pdf", data: pdf, wantKind: document.KindPDF},
		{name: "content wins over extension", filename: "scan.pdf", data: pngBytes(t), wantKind: document.KindPNG},
		{name: "pdf header after junk", filename: "scan.pdf", data: append([]byte("\x00\x01junk"), pdf...), wantKind: document.KindPDF},
		{name: "text file", filename: "notes.txt", data: []byte("taxa de prenhez 50%"), wantErr: document.ErrUnsupportedFormat},
		{name: "text with image extension", filename: "fake.png", data: []byte("hello"), wantErr: document.ErrUnsupportedFormat},
		{name: "empty", filename: "empty.png", data: nil, wantErr: document.ErrEmptyFile},
		{name: "too large", filename: "big.png", data: pngBytes(t), max: 10, wantErr: document.ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := document.Load(tt.filename, bytes.NewReader(tt.data), tt.max)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Load() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if doc.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", doc.Kind, tt.wantKind)
			}
			if doc.Size() != int64(len(tt.data)) {
				t.Errorf("Size() = %d, want %d", doc.Size(), len(tt.data))
			}
		})
	}
}

func TestLoadKeepsBaseName(t *testing.T) {
	doc, err := document.Load("/tmp/uploads/relatorio.png", bytes.NewReader(pngBytes(t)), 0)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Name != "relatorio.png" || doc.MIMEType() != "image/png" {
		t.Errorf("Load() = name %q mime %q", doc.Name, doc.MIMEType())
	}
}

func TestWarningMessage(t *testing.T) {
	err := document.WrapDocumentError("ExtractText", document.ErrRasterizerUnavailable, "scan.pdf")
	if !document.IsWarning(err) {
		t.Fatalf("IsWarning(%v) = false", err)
	}
	if got := document.WarningMessage(err); !strings.Contains(got, "Upload a JPG or PNG image instead") {
		t.Errorf("WarningMessage() = %q", got)
	}
	if document.IsWarning(document.ErrEmptyFile) {
		t.Error("IsWarning(ErrEmptyFile) = true")
	}
}
