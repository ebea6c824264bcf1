// Package tesseract provides the local OCR engine backed by gosseract.
// It lives apart from package ocr so that only binaries selecting it need
// cgo and the Tesseract libraries.
package tesseract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog"

	"agrovet/internal/logger"
	"agrovet/internal/ocr"
)

// Engine implements ocr.OCRService with Tesseract.
type Engine struct {
	language      string
	dpi           int
	clientFactory func() *gosseract.Client
	log           zerolog.Logger
}

// New constructs a Tesseract engine. Empty options fall back to Portuguese at 300 DPI.
func New(opts ocr.Options) *Engine {
	if opts.Language == "" {
		opts.Language = ocr.DefaultLanguage
	}
	if opts.DPI <= 0 {
		opts.DPI = ocr.DefaultDPI
	}
	return &Engine{
		language:      opts.Language,
		dpi:           opts.DPI,
		clientFactory: gosseract.NewClient,
		log:           logger.WithComponent("ocr-tesseract"),
	}
}

// Name returns the engine name.
func (e *Engine) Name() string { return ocr.EngineTesseract }

// ProcessImage recognizes the text of one PNG or JPEG image.
func (e *Engine) ProcessImage(ctx context.Context, image io.Reader) (*ocr.OCRResult, error) {
	const op = "ProcessImage"
	startTime := time.Now()

	data, err := io.ReadAll(image)
	if err != nil {
		return nil, ocr.WrapOCRError(op, err, "failed to read image data")
	}
	if len(data) > ocr.MaxFileSizeBytes {
		return nil, ocr.WrapOCRError(op, ocr.ErrFileTooLarge, fmt.Sprintf("file size: %d bytes", len(data)))
	}
	if ct := http.DetectContentType(data); ct != "image/png" && ct != "image/jpeg" {
		return nil, ocr.WrapOCRError(op, ocr.ErrInvalidImage, fmt.Sprintf("content type: %s", ct))
	}

	select {
	case <-ctx.Done():
		return nil, ocr.WrapOCRError(op, ctx.Err(), "")
	default:
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(e.language); err != nil {
		return nil, ocr.WrapOCRError(op, ocr.ErrOCRFailed, fmt.Sprintf("set language %s: %v", e.language, err))
	}
	if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), strconv.Itoa(e.dpi)); err != nil {
		return nil, ocr.WrapOCRError(op, ocr.ErrOCRFailed, fmt.Sprintf("set dpi: %v", err))
	}
	if err := c.SetImageFromBytes(data); err != nil {
		return nil, ocr.WrapOCRError(op, ocr.ErrInvalidImage, fmt.Sprintf("set image: %v", err))
	}

	text, err := c.Text()
	if err != nil {
		return nil, ocr.WrapOCRError(op, ocr.ErrOCRFailed, fmt.Sprintf("recognize text: %v", err))
	}

	result := &ocr.OCRResult{
		Text:          ocr.JoinPages([]string{strings.TrimSpace(text)}),
		PageCount:     1,
		Confidence:    averageConfidence(c),
		LanguageCodes: []string{e.language},
		ProcessedAt:   time.Now(),
	}
	result.ProcessingDuration = result.ProcessedAt.Sub(startTime)

	e.log.Debug().
		Int("text_length", len(result.Text)).
		Float32("confidence", result.Confidence).
		Dur("duration", result.ProcessingDuration).
		Msg("Image recognized")

	return result, nil
}

// averageConfidence returns the mean word confidence in the 0..1 range.
func averageConfidence(c *gosseract.Client) float32 {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence
	}
	return float32(sum / float64(len(boxes)) / 100.0)
}

// Close is a no-op; clients are created per image.
func (e *Engine) Close() error { return nil }
