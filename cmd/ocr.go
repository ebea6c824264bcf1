package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"agrovet/internal/document"
	"agrovet/internal/logger"
	"agrovet/internal/ocr"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr [file]",
	Short: "Extract the raw text of a report with OCR",
	Long: `Recognize the text of a PDF, PNG or JPG report and print it.

The engine is selected with OCR_ENGINE:
  tesseract  - local Tesseract with the Portuguese model (default)
  vision     - Google Cloud Vision document text detection
  documentai - Google Document AI OCR processor

Scanned PDFs are split into their page images and recognized page by page
unless the engine reads PDFs natively. Every page is prefixed by a newline.`,
	Example: `  # Print the text of a scanned report
  agrovet ocr relatorio.pdf

  # Save the text with metadata as JSON
  agrovet ocr relatorio.jpg --json -o result.json`,
	Args: cobra.ExactArgs(1),
	RunE: runOCR,
}

// OCROutput represents the JSON output structure when --json flag is used
type OCROutput struct {
	Text               string    `json:"text"`
	PageCount          int       `json:"page_count,omitempty"`
	Confidence         float32   `json:"confidence,omitempty"`
	LanguageCodes      []string  `json:"language_codes,omitempty"`
	ProcessedAt        time.Time `json:"processed_at,omitempty"`
	ProcessingDuration string    `json:"processing_duration,omitempty"`
	FileName           string    `json:"file_name"`
	FileSize           int64     `json:"file_size"`
}

func init() {
	rootCmd.AddCommand(ocrCmd)

	ocrCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	ocrCmd.Flags().BoolP("metadata", "m", false, "Include metadata in output")
	ocrCmd.Flags().Bool("json", false, "Output as JSON")
	ocrCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
}

func runOCR(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("ocr")

	outputPath, _ := cmd.Flags().GetString("output")
	includeMetadata, _ := cmd.Flags().GetBool("metadata")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg, err := requireConfig()
	if err != nil {
		return err
	}

	path := args[0]
	log.Info().
		Str("file", path).
		Str("engine", cfg.OCREngine).
		Int("timeout", timeoutSecs).
		Msg("Starting OCR processing")

	doc, err := document.LoadFile(path, cfg.MaxUploadBytes)
	if err != nil {
		return handleDocumentError(err, log)
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	p, err := createPipeline(ctx, cfg, false, log)
	if err != nil {
		return err
	}
	defer p.Close()

	result, err := p.processor.ExtractText(ctx, doc)
	if err != nil {
		return handleDocumentError(err, log)
	}

	log.Info().
		Int("page_count", result.PageCount).
		Float32("confidence", result.Confidence).
		Dur("duration", result.ProcessingDuration).
		Int("text_length", len(result.Text)).
		Msg("OCR processing completed successfully")

	return outputResults(result, doc, outputPath, jsonOutput, includeMetadata, log)
}

// outputResults formats and outputs the OCR results
func outputResults(result *ocr.OCRResult, doc *document.Document, outputPath string, jsonOutput, includeMetadata bool, log zerolog.Logger) error {
	var outputData []byte

	if jsonOutput {
		data, err := json.MarshalIndent(OCROutput{
			Text:               result.Text,
			FileName:           doc.Name,
			FileSize:           doc.Size(),
			PageCount:          result.PageCount,
			Confidence:         result.Confidence,
			LanguageCodes:      result.LanguageCodes,
			ProcessedAt:        result.ProcessedAt,
			ProcessingDuration: result.ProcessingDuration.String(),
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
		outputData = data
	} else {
		var output strings.Builder
		if includeMetadata {
			fmt.Fprintf(&output, "=== OCR Results for %s ===\n", doc.Name)
			fmt.Fprintf(&output, "File size: %d bytes\n", doc.Size())
			if result.PageCount > 0 {
				fmt.Fprintf(&output, "Pages processed: %d\n", result.PageCount)
			}
			if result.Confidence > 0 {
				fmt.Fprintf(&output, "Confidence: %.1f%%\n", result.Confidence*100)
			}
			if len(result.LanguageCodes) > 0 {
				fmt.Fprintf(&output, "Languages: %s\n", strings.Join(result.LanguageCodes, ", "))
			}
			fmt.Fprintf(&output, "Processing time: %v\n", result.ProcessingDuration)
			output.WriteString("\n=== Extracted Text ===\n")
		}
		output.WriteString(result.Text)
		output.WriteString("\n")
		outputData = []byte(output.String())
	}

	return writeOutput(outputPath, outputData, log)
}

// writeOutput writes data to path, or to stdout when path is empty.
func writeOutput(path string, data []byte, log zerolog.Logger) error {
	if path == "" {
		if _, err := os.Stdout.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Error().
			Err(err).
			Str("output_file", path).
			Msg("Failed to write output file")
		return fmt.Errorf("failed to write output file: %w", err)
	}

	log.Info().
		Str("output_file", path).
		Int("bytes", len(data)).
		Msg("Output written to file")
	return nil
}
