package ocr

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/rs/zerolog"

	"agrovet/internal/logger"
)

// VisionOCRService implements OCRService and PDFProcessor using Google Cloud Vision.
type VisionOCRService struct {
	client *vision.ImageAnnotatorClient
	opts   Options
	log    zerolog.Logger
}

// NewVisionOCRService creates a Vision engine with credentials from the environment.
func NewVisionOCRService(ctx context.Context, opts Options) (*VisionOCRService, error) {
	const op = "NewVisionOCRService"

	clientOptions := credentialOptions()
	client, err := vision.NewImageAnnotatorClient(ctx, clientOptions...)
	if err != nil {
		if len(clientOptions) == 0 {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, err, "failed to create Vision client")
	}

	return NewVisionOCRServiceWithClient(client, opts), nil
}

// NewVisionOCRServiceWithClient creates a Vision engine with an explicit client.
func NewVisionOCRServiceWithClient(client *vision.ImageAnnotatorClient, opts Options) *VisionOCRService {
	return &VisionOCRService{
		client: client,
		opts:   opts,
		log:    logger.WithComponent("ocr-vision"),
	}
}

func (g *VisionOCRService) imageContext() *visionpb.ImageContext {
	if len(g.opts.LanguageHints) == 0 {
		return nil
	}
	return &visionpb.ImageContext{LanguageHints: g.opts.LanguageHints}
}

// ProcessImage recognizes the text of one PNG or JPEG image.
func (g *VisionOCRService) ProcessImage(ctx context.Context, image io.Reader) (*OCRResult, error) {
	const op = "ProcessImage"
	startTime := time.Now()

	data, err := io.ReadAll(image)
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to read image data")
	}
	if len(data) > MaxFileSizeBytes {
		return nil, WrapOCRError(op, ErrFileTooLarge, fmt.Sprintf("file size: %d bytes", len(data)))
	}
	if len(data) == 0 {
		return nil, WrapOCRError(op, ErrInvalidImage, "empty image")
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: data},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
				ImageContext: g.imageContext(),
			},
		},
	}

	resp, err := g.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if len(resp.Responses) == 0 {
		return nil, WrapOCRError(op, ErrOCRFailed, "no response from Vision API")
	}

	result, err := collectVisionPages(resp.Responses)
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to process Vision API response")
	}

	result.ProcessedAt = time.Now()
	result.ProcessingDuration = result.ProcessedAt.Sub(startTime)

	g.log.Debug().
		Int("text_length", len(result.Text)).
		Float32("confidence", result.Confidence).
		Msg("Image processed")

	return result, nil
}

// ProcessPDFWithMetadata recognizes every page of a PDF document.
func (g *VisionOCRService) ProcessPDFWithMetadata(ctx context.Context, pdfData io.Reader) (*OCRResult, error) {
	const op = "ProcessPDFWithMetadata"
	startTime := time.Now()

	pdfBytes, err := io.ReadAll(pdfData)
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to read PDF data")
	}
	if len(pdfBytes) > MaxFileSizeBytes {
		return nil, WrapOCRError(op, ErrFileTooLarge, fmt.Sprintf("file size: %d bytes", len(pdfBytes)))
	}
	if len(pdfBytes) < 4 || string(pdfBytes[:4]) != "%PDF" {
		return nil, WrapOCRError(op, ErrInvalidPDF, "missing PDF header")
	}

	req := &visionpb.BatchAnnotateFilesRequest{
		Requests: []*visionpb.AnnotateFileRequest{
			{
				InputConfig: &visionpb.InputConfig{
					Content:  pdfBytes,
					MimeType: "application/pdf",
				},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
				ImageContext: g.imageContext(),
			},
		},
	}

	resp, err := g.client.BatchAnnotateFiles(ctx, req)
	if err != nil {
		return nil, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if len(resp.Responses) == 0 {
		return nil, WrapOCRError(op, ErrOCRFailed, "no response from Vision API")
	}

	fileResp := resp.Responses[0]
	if fileResp.Error != nil {
		return nil, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API error: %s", fileResp.Error.Message))
	}
	if len(fileResp.Responses) > MaxPagesSync {
		return nil, WrapOCRError(op, ErrTooManyPages, fmt.Sprintf("document has %d pages", len(fileResp.Responses)))
	}

	result, err := collectVisionPages(fileResp.Responses)
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to process Vision API response")
	}

	result.ProcessedAt = time.Now()
	result.ProcessingDuration = result.ProcessedAt.Sub(startTime)
	return result, nil
}

// collectVisionPages turns per-page annotations into one result, in page order.
func collectVisionPages(pages []*visionpb.AnnotateImageResponse) (*OCRResult, error) {
	if len(pages) == 0 {
		return nil, ErrEmptyDocument
	}

	texts := make([]string, 0, len(pages))
	var confidenceSum float32
	var confidenceCount int
	languageSet := make(map[string]bool)
	var languages []string

	for pageIdx, page := range pages {
		if page.Error != nil {
			return nil, fmt.Errorf("error processing page %d: %s", pageIdx+1, page.Error.Message)
		}
		annotation := page.FullTextAnnotation
		if annotation == nil {
			texts = append(texts, "")
			continue
		}
		texts = append(texts, annotation.Text)

		for _, p := range annotation.Pages {
			if p.Confidence > 0 {
				confidenceSum += p.Confidence
				confidenceCount++
			}
			if p.Property == nil {
				continue
			}
			for _, lang := range p.Property.DetectedLanguages {
				if lang.LanguageCode != "" && !languageSet[lang.LanguageCode] {
					languageSet[lang.LanguageCode] = true
					languages = append(languages, lang.LanguageCode)
				}
			}
		}
	}

	text := JoinPages(texts)
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}

	result := &OCRResult{
		Text:          text,
		PageCount:     len(pages),
		LanguageCodes: languages,
	}
	if confidenceCount > 0 {
		result.Confidence = confidenceSum / float32(confidenceCount)
	}
	return result, nil
}

// Close closes the underlying Vision client.
func (g *VisionOCRService) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
