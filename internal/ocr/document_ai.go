package ocr

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"agrovet/internal/logger"
)

// DocumentAIConfig identifies the Document AI OCR processor.
type DocumentAIConfig struct {
	ProjectID        string
	Location         string
	ProcessorID      string
	ProcessorVersion string
	Timeout          time.Duration
}

// ProcessorName returns the full resource name of the processor.
func (c DocumentAIConfig) ProcessorName() string {
	if c.ProcessorVersion != "" {
		return fmt.Sprintf("projects/%s/locations/%s/processors/%s/processorVersions/%s",
			c.ProjectID, c.Location, c.ProcessorID, c.ProcessorVersion)
	}
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		c.ProjectID, c.Location, c.ProcessorID)
}

// DocumentAIOCRService implements OCRService and PDFProcessor using a
// Document AI OCR processor.
type DocumentAIOCRService struct {
	client *documentai.DocumentProcessorClient
	config DocumentAIConfig
	log    zerolog.Logger
}

// NewDocumentAIOCRService creates a Document AI engine with credentials from the environment.
func NewDocumentAIOCRService(ctx context.Context, config DocumentAIConfig) (*DocumentAIOCRService, error) {
	const op = "NewDocumentAIOCRService"

	if config.ProjectID == "" || config.ProcessorID == "" {
		return nil, WrapOCRError(op, ErrInvalidConfiguration, "GOOGLE_CLOUD_PROJECT and DOCUMENT_AI_PROCESSOR_ID are required")
	}
	if config.Location == "" {
		config.Location = "us"
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}

	// Regional endpoint, e.g. eu-documentai.googleapis.com
	clientOptions := []option.ClientOption{
		option.WithEndpoint(fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)),
	}
	creds := credentialOptions()
	clientOptions = append(clientOptions, creds...)

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		if len(creds) == 0 {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", config.Location))
	}

	return NewDocumentAIOCRServiceWithClient(client, config), nil
}

// NewDocumentAIOCRServiceWithClient creates a Document AI engine with an explicit client.
func NewDocumentAIOCRServiceWithClient(client *documentai.DocumentProcessorClient, config DocumentAIConfig) *DocumentAIOCRService {
	return &DocumentAIOCRService{
		client: client,
		config: config,
		log:    logger.WithComponent("ocr-documentai"),
	}
}

// ProcessImage recognizes the text of one PNG or JPEG image.
func (p *DocumentAIOCRService) ProcessImage(ctx context.Context, image io.Reader) (*OCRResult, error) {
	const op = "ProcessImage"

	data, err := io.ReadAll(image)
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to read image data")
	}
	mimeType := http.DetectContentType(data)
	if mimeType != "image/png" && mimeType != "image/jpeg" {
		return nil, WrapOCRError(op, ErrInvalidImage, fmt.Sprintf("content type: %s", mimeType))
	}
	return p.process(ctx, op, data, mimeType)
}

// ProcessPDFWithMetadata recognizes every page of a PDF document.
func (p *DocumentAIOCRService) ProcessPDFWithMetadata(ctx context.Context, pdfData io.Reader) (*OCRResult, error) {
	const op = "ProcessPDFWithMetadata"

	data, err := io.ReadAll(pdfData)
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to read PDF data")
	}
	if len(data) < 4 || string(data[:4]) != "%PDF" {
		return nil, WrapOCRError(op, ErrInvalidPDF, "missing PDF header")
	}
	return p.process(ctx, op, data, "application/pdf")
}

func (p *DocumentAIOCRService) process(ctx context.Context, op string, data []byte, mimeType string) (*OCRResult, error) {
	startTime := time.Now()

	if len(data) > MaxFileSizeBytes {
		return nil, WrapOCRError(op, ErrFileTooLarge, fmt.Sprintf("file size: %d bytes", len(data)))
	}

	processCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	req := &documentaipb.ProcessRequest{
		Name: p.config.ProcessorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  data,
				MimeType: mimeType,
			},
		},
	}

	p.log.Debug().
		Str("processor", req.Name).
		Str("mime_type", mimeType).
		Int("bytes", len(data)).
		Msg("Sending document to Document AI")

	resp, err := p.client.ProcessDocument(processCtx, req)
	if err != nil {
		return nil, p.handleProcessingError(op, err)
	}
	if resp.Document == nil {
		return nil, WrapOCRError(op, ErrOCRFailed, "no document in response")
	}

	result, err := documentResult(resp.Document)
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to read Document AI response")
	}

	result.ProcessedAt = time.Now()
	result.ProcessingDuration = result.ProcessedAt.Sub(startTime)
	return result, nil
}

// documentResult splits the document text into pages using the page layout
// anchors, falling back to the full text when no anchors are present.
func documentResult(doc *documentaipb.Document) (*OCRResult, error) {
	if strings.TrimSpace(doc.Text) == "" {
		return nil, ErrEmptyDocument
	}

	var texts []string
	var confidenceSum float32
	var confidenceCount int
	languageSet := make(map[string]bool)
	var languages []string

	for _, page := range doc.Pages {
		if page.Layout != nil {
			if t := anchorText(doc.Text, page.Layout.TextAnchor); t != "" {
				texts = append(texts, t)
			}
			if page.Layout.Confidence > 0 {
				confidenceSum += page.Layout.Confidence
				confidenceCount++
			}
		}
		for _, lang := range page.DetectedLanguages {
			if lang.LanguageCode != "" && !languageSet[lang.LanguageCode] {
				languageSet[lang.LanguageCode] = true
				languages = append(languages, lang.LanguageCode)
			}
		}
	}
	if len(texts) == 0 {
		texts = []string{doc.Text}
	}

	pageCount := len(doc.Pages)
	if pageCount == 0 {
		pageCount = 1
	}

	result := &OCRResult{
		Text:          JoinPages(texts),
		PageCount:     pageCount,
		LanguageCodes: languages,
	}
	if confidenceCount > 0 {
		result.Confidence = confidenceSum / float32(confidenceCount)
	}
	return result, nil
}

func anchorText(text string, anchor *documentaipb.Document_TextAnchor) string {
	if anchor == nil {
		return ""
	}
	var b strings.Builder
	for _, seg := range anchor.TextSegments {
		start, end := int(seg.StartIndex), int(seg.EndIndex)
		if start < 0 || end > len(text) || start >= end {
			continue
		}
		b.WriteString(text[start:end])
	}
	return b.String()
}

// handleProcessingError converts Document AI errors to OCR errors.
func (p *DocumentAIOCRService) handleProcessingError(op string, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "PermissionDenied") || strings.Contains(errStr, "PERMISSION_DENIED"):
		return WrapOCRError(op, ErrMissingCredentials, "insufficient permissions for Document AI")
	case strings.Contains(errStr, "NotFound") || strings.Contains(errStr, "NOT_FOUND"):
		return WrapOCRError(op, ErrInvalidConfiguration, fmt.Sprintf("processor not found: %s", p.config.ProcessorID))
	case strings.Contains(errStr, "InvalidArgument") || strings.Contains(errStr, "INVALID_ARGUMENT"):
		return WrapOCRError(op, ErrInvalidPDF, "document format not supported or corrupted")
	case strings.Contains(errStr, "DeadlineExceeded") || strings.Contains(errStr, "context deadline exceeded"):
		return WrapOCRError(op, context.DeadlineExceeded, "processing timeout")
	case strings.Contains(errStr, "Canceled") || strings.Contains(errStr, "context canceled"):
		return WrapOCRError(op, context.Canceled, "processing canceled")
	default:
		return WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Document AI call failed: %v", err))
	}
}

// Close closes the underlying Document AI client.
func (p *DocumentAIOCRService) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
