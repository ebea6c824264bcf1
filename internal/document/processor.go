package document

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"agrovet/internal/logger"
	"agrovet/internal/metrics"
	"agrovet/internal/ocr"
)

// Completer fills indicators the patterns missed. Implementations return only
// keys from missing.
type Completer interface {
	Complete(ctx context.Context, text string, missing []metrics.Key) (metrics.Set, error)
}

// Analysis is the outcome of one pass of the document pipeline.
type Analysis struct {
	Source    string
	Kind      Kind
	OCR       *ocr.OCRResult
	Metrics   metrics.Set // extracted, including completed keys
	KPIs      metrics.Set // derived
	Hints     []metrics.Hint
	Completed []metrics.Key
}

// Combined returns extracted indicators followed by derived ones.
func (a *Analysis) Combined() metrics.Set {
	return a.Metrics.Merge(a.KPIs)
}

// Empty reports whether no indicator was extracted.
func (a *Analysis) Empty() bool {
	return a.Metrics.Len() == 0
}

// ProcessorConfig wires the collaborators of a Processor. Rasterizer and
// Completer are optional.
type ProcessorConfig struct {
	OCR        ocr.OCRService
	Rasterizer Rasterizer
	Parser     *metrics.Parser
	KPIs       metrics.KPICalculator
	Completer  Completer
}

// Processor runs the document pipeline. It holds no per-document state.
type Processor struct {
	ocr        ocr.OCRService
	rasterizer Rasterizer
	parser     *metrics.Parser
	kpis       metrics.KPICalculator
	completer  Completer
	log        zerolog.Logger
}

// NewProcessor creates a pipeline from its collaborators.
func NewProcessor(cfg ProcessorConfig) *Processor {
	parser := cfg.Parser
	if parser == nil {
		parser = metrics.DefaultParser()
	}
	return &Processor{
		ocr:        cfg.OCR,
		rasterizer: cfg.Rasterizer,
		parser:     parser,
		kpis:       cfg.KPIs,
		completer:  cfg.Completer,
		log:        logger.WithComponent("document"),
	}
}

// Process recognizes the document text and analyzes it.
func (p *Processor) Process(ctx context.Context, doc *Document) (*Analysis, error) {
	result, err := p.ExtractText(ctx, doc)
	if err != nil {
		return nil, err
	}

	analysis := p.Analyze(ctx, result.Text)
	analysis.Source = doc.Name
	analysis.Kind = doc.Kind
	analysis.OCR = result
	return analysis, nil
}

// ExtractText runs OCR over every page of the document, one page at a time.
func (p *Processor) ExtractText(ctx context.Context, doc *Document) (*ocr.OCRResult, error) {
	const op = "ExtractText"

	if p.ocr == nil {
		return nil, WrapDocumentError(op, ocr.ErrInvalidConfiguration, "no OCR engine configured")
	}

	log := p.log.With().Str("file", doc.Name).Str("kind", string(doc.Kind)).Logger()

	switch doc.Kind {
	case KindPNG, KindJPEG:
		log.Debug().Msg("Recognizing image")
		return p.ocr.ProcessImage(ctx, bytes.NewReader(doc.Data))

	case KindPDF:
		if native, ok := p.ocr.(ocr.PDFProcessor); ok {
			log.Debug().Msg("Engine reads PDF natively")
			return native.ProcessPDFWithMetadata(ctx, bytes.NewReader(doc.Data))
		}
		if p.rasterizer == nil {
			return nil, WrapDocumentError(op, ErrRasterizerUnavailable, doc.Name)
		}
		return p.recognizePages(ctx, doc, log)

	default:
		return nil, WrapDocumentError(op, ErrUnsupportedFormat, string(doc.Kind))
	}
}

func (p *Processor) recognizePages(ctx context.Context, doc *Document, log zerolog.Logger) (*ocr.OCRResult, error) {
	const op = "recognizePages"
	startTime := time.Now()

	pages, err := p.rasterizer.Rasterize(ctx, doc.Reader())
	if err != nil {
		return nil, err
	}

	results := make([]*ocr.OCRResult, 0, len(pages))
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, WrapDocumentError(op, err, "")
		}
		log.Debug().Int("page", page.Number).Int("bytes", len(page.Image)).Msg("Recognizing page")

		res, err := p.ocr.ProcessImage(ctx, bytes.NewReader(page.Image))
		if errors.Is(err, ocr.ErrEmptyDocument) {
			log.Warn().Int("page", page.Number).Msg("No text recognized on page")
			results = append(results, &ocr.OCRResult{PageCount: 1})
			continue
		}
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	combined := ocr.Combine(results, startTime)
	if strings.TrimSpace(combined.Text) == "" {
		return nil, ocr.WrapOCRError(op, ocr.ErrEmptyDocument, doc.Name)
	}
	return combined, nil
}

// Analyze parses indicators from recognized text, completes missing ones when
// a Completer is configured and derives the KPIs. Completion failures are
// logged and never abort the analysis.
func (p *Processor) Analyze(ctx context.Context, text string) *Analysis {
	extracted := p.parser.Parse(text)
	analysis := &Analysis{Metrics: extracted}

	if p.completer != nil {
		var missing []metrics.Key
		for _, k := range metrics.Keys {
			if !extracted.Has(k) {
				missing = append(missing, k)
			}
		}
		if len(missing) > 0 {
			completed, err := p.completer.Complete(ctx, text, missing)
			if err != nil {
				p.log.Warn().Err(err).Msg("Metric completion failed, keeping pattern results")
			} else {
				var added []metrics.Entry
				for _, e := range completed.Entries() {
					if !extracted.Has(e.Key) && !e.Key.Derived() {
						added = append(added, e)
						analysis.Completed = append(analysis.Completed, e.Key)
					}
				}
				analysis.Metrics = extracted.Merge(metrics.NewSet(added...)).Ordered()
			}
		}
	}

	analysis.KPIs = p.kpis.Compute(analysis.Metrics)
	analysis.Hints = metrics.Hints(text, analysis.Metrics)

	p.log.Info().
		Int("metrics", analysis.Metrics.Len()).
		Int("kpis", analysis.KPIs.Len()).
		Int("completed", len(analysis.Completed)).
		Int("hints", len(analysis.Hints)).
		Msg("Document analyzed")

	return analysis
}
