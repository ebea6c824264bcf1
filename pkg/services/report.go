package services

import (
	"context"
	"errors"

	"agrovet/internal/metrics"
	"agrovet/pkg/models"
)

// Common artifact MIME types
const (
	MIMECSV  = "text/csv"
	MIMEXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMEPDF  = "application/pdf"
	MIMEPNG  = "image/png"
)

// ErrUnknownFormat is returned for a MIME type no exporter renders
var ErrUnknownFormat = errors.New("unknown report format")

// ReportExporter turns a farm report into downloadable files
type ReportExporter interface {
	// Export renders every report format for the record and its ratios
	Export(ctx context.Context, report models.Report) ([]Artifact, error)

	// ExportFormat renders only the artifact of the given MIME type
	ExportFormat(ctx context.Context, report models.Report, mimeType string) (Artifact, error)

	// ExportMetrics renders extracted and derived document metrics as CSV
	ExportMetrics(set metrics.Set) (Artifact, error)
}

// Artifact is one rendered file
type Artifact struct {
	FileName string `json:"file_name"`
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"-"`
}

// Find returns the first artifact with the given MIME type
func Find(artifacts []Artifact, mimeType string) (Artifact, bool) {
	for _, a := range artifacts {
		if a.MIMEType == mimeType {
			return a, true
		}
	}
	return Artifact{}, false
}
