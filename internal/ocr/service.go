// Package ocr extracts text from scanned reproductive reports.
//
// Three engines implement OCRService:
//   - tesseract (sub-package ocr/tesseract): local Tesseract through gosseract,
//     Portuguese language data, 300 DPI. This is the default engine.
//   - vision: Google Cloud Vision DOCUMENT_TEXT_DETECTION with a "pt" hint.
//   - documentai: a Google Document AI OCR processor.
//
// Every engine processes raster images. The cloud engines also implement
// PDFProcessor and accept PDF documents directly; the local engine relies on
// a rasterizer to turn each PDF page into an image first.
//
// Credentials for the cloud engines come from the environment:
//   - GOOGLE_APPLICATION_CREDENTIALS: path to a service account JSON file, OR
//   - GOOGLE_CREDENTIALS: inline JSON credentials
//
// Pages are always processed one at a time, in order.
package ocr

import (
	"context"
	"io"
	"strings"
	"time"
)

const (
	// MaxFileSizeBytes is the largest document accepted by the engines (20MB).
	MaxFileSizeBytes = 20 * 1024 * 1024

	// MaxPagesSync is the page limit of synchronous cloud processing.
	MaxPagesSync = 5

	// DefaultLanguage is the Tesseract language of the reports.
	DefaultLanguage = "por"

	// DefaultDPI is the resolution pages are rasterized and recognized at.
	DefaultDPI = 300
)

// Engine names accepted by configuration.
const (
	EngineTesseract  = "tesseract"
	EngineVision     = "vision"
	EngineDocumentAI = "documentai"
)

// Engines lists the known engine names.
var Engines = []string{EngineTesseract, EngineVision, EngineDocumentAI}

// OCRService extracts text from a single raster image (PNG or JPEG).
type OCRService interface {
	// ProcessImage recognizes the text of one image.
	ProcessImage(ctx context.Context, image io.Reader) (*OCRResult, error)

	// Close releases the engine resources.
	Close() error
}

// PDFProcessor is implemented by engines that read PDF documents natively.
type PDFProcessor interface {
	// ProcessPDFWithMetadata recognizes the text of every page of a PDF.
	ProcessPDFWithMetadata(ctx context.Context, pdfData io.Reader) (*OCRResult, error)
}

// Options configures an engine.
type Options struct {
	// Language is the Tesseract language code (e.g. "por").
	Language string

	// LanguageHints are the BCP-47 hints given to cloud engines (e.g. "pt").
	LanguageHints []string

	// DPI is the resolution hint for image recognition.
	DPI int
}

// DefaultOptions returns the options used for Portuguese reports.
func DefaultOptions() Options {
	return Options{
		Language:      DefaultLanguage,
		LanguageHints: []string{"pt"},
		DPI:           DefaultDPI,
	}
}

// OCRResult contains the results of OCR processing with metadata.
type OCRResult struct {
	// Text is the recognized text of all pages; every page is prefixed by a newline.
	Text string `json:"text"`

	// PageCount is the number of pages that were processed.
	PageCount int `json:"page_count"`

	// Confidence is the average confidence score (0.0 to 1.0), 0 when unknown.
	Confidence float32 `json:"confidence"`

	// ProcessedAt is the timestamp when the OCR processing completed.
	ProcessedAt time.Time `json:"processed_at"`

	// LanguageCodes contains the detected languages in the document.
	LanguageCodes []string `json:"language_codes,omitempty"`

	// ProcessingDuration is how long the OCR processing took.
	ProcessingDuration time.Duration `json:"processing_duration"`
}

// JoinPages concatenates page texts, each prefixed by a newline.
func JoinPages(pages []string) string {
	var b strings.Builder
	for _, p := range pages {
		b.WriteString("\n")
		b.WriteString(p)
	}
	return b.String()
}

// Combine merges per-page results in page order.
func Combine(pages []*OCRResult, startedAt time.Time) *OCRResult {
	texts := make([]string, 0, len(pages))
	var confidenceSum float32
	var confidenceCount int
	languageSet := make(map[string]bool)
	var languages []string
	pageCount := 0

	for _, p := range pages {
		if p == nil {
			continue
		}
		texts = append(texts, strings.TrimPrefix(p.Text, "\n"))
		if p.PageCount > 0 {
			pageCount += p.PageCount
		} else {
			pageCount++
		}
		if p.Confidence > 0 {
			confidenceSum += p.Confidence
			confidenceCount++
		}
		for _, lang := range p.LanguageCodes {
			if !languageSet[lang] {
				languageSet[lang] = true
				languages = append(languages, lang)
			}
		}
	}

	result := &OCRResult{
		Text:          JoinPages(texts),
		PageCount:     pageCount,
		LanguageCodes: languages,
		ProcessedAt:   time.Now(),
	}
	if confidenceCount > 0 {
		result.Confidence = confidenceSum / float32(confidenceCount)
	}
	result.ProcessingDuration = result.ProcessedAt.Sub(startedAt)
	return result
}
