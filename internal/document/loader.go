// Package document loads uploaded reports and runs the document pipeline:
// load, OCR, metric extraction, optional completion and KPI derivation.
package document

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Kind is the detected file format of an upload.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindPNG  Kind = "png"
	KindJPEG Kind = "jpeg"
)

// DefaultMaxBytes is the default upload limit (20MB).
const DefaultMaxBytes int64 = 20 * 1024 * 1024

var extensions = map[string]Kind{
	".pdf":  KindPDF,
	".png":  KindPNG,
	".jpg":  KindJPEG,
	".jpeg": KindJPEG,
}

// Document is one loaded upload, held in memory for a single pass.
type Document struct {
	Name string
	Kind Kind
	Data []byte
}

// Size returns the document size in bytes.
func (d *Document) Size() int64 {
	return int64(len(d.Data))
}

// Reader returns a fresh reader over the document bytes.
func (d *Document) Reader() io.ReadSeeker {
	return bytes.NewReader(d.Data)
}

// MIMEType returns the MIME type of the document kind.
func (d *Document) MIMEType() string {
	switch d.Kind {
	case KindPDF:
		return "application/pdf"
	case KindPNG:
		return "image/png"
	default:
		return "image/jpeg"
	}
}

// Load reads an upload and detects its format. A maxBytes of 0 uses DefaultMaxBytes.
func Load(name string, r io.Reader, maxBytes int64) (*Document, error) {
	const op = "Load"

	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, WrapDocumentError(op, err, "failed to read upload")
	}
	if len(data) == 0 {
		return nil, WrapDocumentError(op, ErrEmptyFile, name)
	}
	if int64(len(data)) > maxBytes {
		return nil, WrapDocumentError(op, ErrFileTooLarge, fmt.Sprintf("%s is larger than %d bytes", name, maxBytes))
	}

	kind, err := DetectKind(name, data)
	if err != nil {
		return nil, WrapDocumentError(op, err, name)
	}

	return &Document{Name: filepath.Base(name), Kind: kind, Data: data}, nil
}

// LoadFile loads a document from disk.
func LoadFile(path string, maxBytes int64) (*Document, error) {
	const op = "LoadFile"

	f, err := os.Open(path)
	if err != nil {
		return nil, WrapDocumentError(op, err, "failed to open file")
	}
	defer f.Close()

	return Load(path, f, maxBytes)
}

// DetectKind identifies the format from the leading bytes. The file
// extension decides only when the content is not recognized.
func DetectKind(name string, data []byte) (Kind, error) {
	switch http.DetectContentType(data) {
	case "application/pdf":
		return KindPDF, nil
	case "image/png":
		return KindPNG, nil
	case "image/jpeg":
		return KindJPEG, nil
	}

	ext := strings.ToLower(filepath.Ext(name))
	if kind, ok := extensions[ext]; ok {
		// Some scanners prepend junk before the PDF header.
		if kind == KindPDF && bytes.Contains(data[:min(len(data), 1024)], []byte("%PDF-")) {
			return KindPDF, nil
		}
		return "", fmt.Errorf("%w: content does not match %s extension", ErrUnsupportedFormat, ext)
	}
	return "", ErrUnsupportedFormat
}
