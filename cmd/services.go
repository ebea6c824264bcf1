package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"agrovet/internal/completion"
	"agrovet/internal/config"
	"agrovet/internal/document"
	"agrovet/internal/metrics"
	"agrovet/internal/ocr"
	"agrovet/internal/ocr/tesseract"
)

// createContextWithTimeout creates a context with timeout and signal handling.
// A timeout of 0 means no deadline.
func createContextWithTimeout(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	var ctx context.Context
	var cancel context.CancelFunc
	if timeoutSecs > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling processing")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// createOCRService creates the OCR engine selected by OCR_ENGINE.
func createOCRService(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ocr.OCRService, error) {
	opts := ocr.DefaultOptions()
	opts.Language = cfg.OCRLanguage
	opts.DPI = cfg.OCRDPI

	switch cfg.OCREngine {
	case config.EngineTesseract:
		log.Debug().Str("language", opts.Language).Int("dpi", opts.DPI).Msg("Using Tesseract OCR")
		return tesseract.New(opts), nil

	case config.EngineVision:
		if !ocr.HasGoogleCredentials() {
			log.Warn().Msg("No explicit Google credentials, falling back to application default credentials")
		}
		svc, err := ocr.NewVisionOCRService(ctx, opts)
		if err != nil {
			return nil, credentialsError(err, log)
		}
		return svc, nil

	case config.EngineDocumentAI:
		svc, err := ocr.NewDocumentAIOCRService(ctx, ocr.DocumentAIConfig{
			ProjectID:        cfg.GoogleCloudProject,
			Location:         cfg.GoogleCloudLocation,
			ProcessorID:      cfg.DocumentAIProcessorID,
			ProcessorVersion: cfg.DocumentAIProcessorVersion,
		})
		if err != nil {
			return nil, credentialsError(err, log)
		}
		return svc, nil

	default:
		return nil, fmt.Errorf("unknown OCR engine %q", cfg.OCREngine)
	}
}

func credentialsError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Failed to create OCR service")
	if errors.Is(err, ocr.ErrMissingCredentials) {
		return fmt.Errorf("Google Cloud credentials not configured. Please set one of:\n\n" +
			"1. Export GOOGLE_APPLICATION_CREDENTIALS with path to service account JSON:\n" +
			"   export GOOGLE_APPLICATION_CREDENTIALS=/path/to/service-account-key.json\n\n" +
			"2. Export GOOGLE_CREDENTIALS with inline JSON\n\n" +
			"3. Use Application Default Credentials:\n" +
			"   gcloud auth application-default login\n\n" +
			"Or switch to the local engine with OCR_ENGINE=tesseract")
	}
	return fmt.Errorf("failed to create OCR service: %w", err)
}

// pipeline bundles the document processor with the engine it owns.
type pipeline struct {
	processor *document.Processor
	engine    ocr.OCRService
}

func (p *pipeline) Close() error {
	return p.engine.Close()
}

// createPipeline wires OCR, rasterizer, patterns, KPI options and optional
// completion into a document processor.
func createPipeline(ctx context.Context, cfg *config.Config, complete bool, log zerolog.Logger) (*pipeline, error) {
	engine, err := createOCRService(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	parser, err := metrics.NewParserFromFile(cfg.PatternsFile)
	if err != nil {
		engine.Close()
		return nil, fmt.Errorf("failed to load patterns: %w", err)
	}

	pc := document.ProcessorConfig{
		OCR:    engine,
		Parser: parser,
		KPIs:   metrics.KPICalculator{LegacyGap: cfg.KPILegacyGap},
	}
	if cfg.PDFRasterizer {
		pc.Rasterizer = document.NewPDFImageRasterizer(0)
	}

	if complete || cfg.CompletionEnabled {
		svc, err := completion.NewService(cfg.OpenAIAPIKey, completion.Config{
			Model:      cfg.OpenAIModel,
			MaxRetries: cfg.CompletionMaxRetries,
		})
		if err != nil {
			engine.Close()
			return nil, fmt.Errorf("metric completion unavailable: %w", err)
		}
		pc.Completer = svc
		log.Debug().Str("model", cfg.OpenAIModel).Msg("Metric completion enabled")
	}

	return &pipeline{processor: document.NewProcessor(pc), engine: engine}, nil
}

// handleOCRError provides user-friendly error messages for OCR failures
func handleOCRError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("OCR processing failed")

	errStr := err.Error()

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("OCR processing timed out. Try increasing --timeout or processing a smaller file")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("OCR processing was canceled")
	case errors.Is(err, ocr.ErrFileTooLarge):
		return fmt.Errorf("file is too large (maximum 20MB). Try compressing or splitting the file")
	case errors.Is(err, ocr.ErrTooManyPages):
		return fmt.Errorf("PDF has too many pages for synchronous processing (maximum %d). Try splitting it or use OCR_ENGINE=tesseract", ocr.MaxPagesSync)
	case errors.Is(err, ocr.ErrInvalidPDF):
		return fmt.Errorf("invalid or corrupted PDF file. Please check the file integrity")
	case errors.Is(err, ocr.ErrInvalidImage):
		return fmt.Errorf("the image could not be read. Upload a PNG or JPG scan of the report")
	case errors.Is(err, ocr.ErrEmptyDocument):
		return fmt.Errorf("no readable text found in the document. Check the scan quality and resolution")
	case strings.Contains(errStr, "Unauthenticated") ||
		strings.Contains(errStr, "invalid_grant") ||
		strings.Contains(errStr, "transport: per-RPC creds failed"):
		return fmt.Errorf("Google Cloud authentication failed. Check GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS.\n\nOriginal error: %v", err)
	case strings.Contains(errStr, "PERMISSION_DENIED"):
		return fmt.Errorf("permission denied. Please ensure the service account may use the selected OCR API")
	case strings.Contains(errStr, "QUOTA_EXCEEDED") || strings.Contains(errStr, "quota"):
		return fmt.Errorf("OCR API quota exceeded. Check your project quotas in the Google Cloud Console")
	case errors.Is(err, ocr.ErrOCRFailed):
		return fmt.Errorf("OCR processing failed. This may be due to network issues, API quota limits, or service unavailability: %w", err)
	default:
		return fmt.Errorf("OCR processing failed: %w", err)
	}
}

// handleDocumentError translates loader and pipeline errors, delegating OCR
// errors to handleOCRError.
func handleDocumentError(err error, log zerolog.Logger) error {
	switch {
	case document.IsWarning(err):
		log.Warn().Err(err).Msg("Document cannot be processed")
		return errors.New(document.WarningMessage(err))
	case errors.Is(err, document.ErrEmptyFile):
		return fmt.Errorf("the file is empty")
	case errors.Is(err, document.ErrFileTooLarge):
		return fmt.Errorf("the file is too large (maximum 20MB)")
	case errors.Is(err, document.ErrUnsupportedFormat):
		return fmt.Errorf("unsupported file format. Use a PDF, PNG or JPG file")
	case errors.Is(err, document.ErrTooManyPages):
		return fmt.Errorf("the PDF has too many pages")
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("file not found: %w", err)
	default:
		return handleOCRError(err, log)
	}
}
