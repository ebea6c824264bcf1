package document

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog"
	"golang.org/x/image/tiff"

	"agrovet/internal/logger"
)

// Page is one raster image of a PDF page, PNG or JPEG encoded.
type Page struct {
	Number int
	Image  []byte
}

// Rasterizer turns a PDF into one raster image per page, in page order.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdf io.ReadSeeker) ([]Page, error)
}

// PDFImageRasterizer recovers the scanned image of every page of a PDF.
// Scanner output embeds one full-page image per page; when a page holds
// several images the largest is used. Pages with vector content only are
// skipped.
type PDFImageRasterizer struct {
	conf     *model.Configuration
	maxPages int
	log      zerolog.Logger
}

// NewPDFImageRasterizer creates a rasterizer. maxPages <= 0 means no limit.
func NewPDFImageRasterizer(maxPages int) *PDFImageRasterizer {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFImageRasterizer{
		conf:     conf,
		maxPages: maxPages,
		log:      logger.WithComponent("rasterizer"),
	}
}

// Rasterize extracts the page images of a PDF.
func (r *PDFImageRasterizer) Rasterize(ctx context.Context, pdf io.ReadSeeker) ([]Page, error) {
	const op = "Rasterize"

	pageCount, err := api.PageCount(pdf, r.conf)
	if err != nil {
		return nil, WrapDocumentError(op, err, "failed to read PDF")
	}
	if r.maxPages > 0 && pageCount > r.maxPages {
		return nil, WrapDocumentError(op, ErrTooManyPages, fmt.Sprintf("%d pages, maximum %d", pageCount, r.maxPages))
	}
	if _, err := pdf.Seek(0, io.SeekStart); err != nil {
		return nil, WrapDocumentError(op, err, "failed to rewind PDF")
	}

	best := make(map[int][]byte, pageCount)
	digest := func(img model.Image, _ bool, _ int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := io.ReadAll(img)
		if err != nil {
			return fmt.Errorf("read image %s on page %d: %w", img.Name, img.PageNr, err)
		}
		encoded, err := normalizeImage(img.FileType, data)
		if err != nil {
			r.log.Warn().
				Err(err).
				Int("page", img.PageNr).
				Str("type", img.FileType).
				Msg("Skipping page image")
			return nil
		}
		if len(encoded) > len(best[img.PageNr]) {
			best[img.PageNr] = encoded
		}
		return nil
	}

	if err := api.ExtractImages(pdf, nil, digest, r.conf); err != nil {
		return nil, WrapDocumentError(op, err, "failed to extract page images")
	}
	if len(best) == 0 {
		return nil, WrapDocumentError(op, ErrNoPageImages, fmt.Sprintf("%d pages", pageCount))
	}

	pages := make([]Page, 0, len(best))
	for nr, data := range best {
		pages = append(pages, Page{Number: nr, Image: data})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Number < pages[j].Number })

	if len(pages) < pageCount {
		r.log.Warn().
			Int("pages", pageCount).
			Int("with_images", len(pages)).
			Msg("Some pages have no scanned image and were skipped")
	}

	return pages, nil
}

// normalizeImage keeps PNG and JPEG data and re-encodes TIFF (CCITT fax
// scans) as PNG.
func normalizeImage(fileType string, data []byte) ([]byte, error) {
	switch strings.ToLower(fileType) {
	case "png", "jpg", "jpeg":
		return data, nil
	case "tif", "tiff":
		img, err := tiff.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode tiff: %w", err)
		}
		return encodePNG(img)
	default:
		return nil, fmt.Errorf("unsupported page image type %q", fileType)
	}
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
