package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"agrovet/internal/document"
	"agrovet/internal/export"
	"agrovet/internal/logger"
	"agrovet/internal/metrics"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file-or-folder...]",
	Short: "Extract reproductive indicators from scanned reports",
	Long: `Run the document pipeline on one or more reports (PDF, PNG or JPG).

Each file is recognized with OCR, the seven indicators are extracted with
the label patterns (override them with PATTERNS_FILE) and the derived KPIs
are computed:

  gap_pregnancy_vs_conception  conception rate minus pregnancy rate
  calvings_per_cow_per_year    365 / calving interval

Folders are searched recursively. Files are processed in parallel by a pool
of workers; each file is still a single sequential pass.

With --complete (or COMPLETION_ENABLED=true) indicators the patterns missed
are requested from ChatGPT (requires OPENAI_API_KEY).`,
	Example: `  # Print the indicators of one report
  agrovet extract relatorio.pdf

  # Export the indicators as CSV
  agrovet extract relatorio.jpg -o agrovet_metrics.csv

  # Process a folder with 4 workers, one CSV per report in ./out
  agrovet extract ./relatorios --workers 4 -o ./out

  # JSON output with the recognized text
  agrovet extract relatorio.png --json --show-text`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

// ExtractJob is one file handed to a worker
type ExtractJob struct {
	FilePath string
	Index    int
}

// ExtractResult is the outcome of one file
type ExtractResult struct {
	FilePath string
	Index    int
	Analysis *document.Analysis
	Error    error
	Status   string // "success", "warning", "error"
}

// ExtractOutput is the JSON form of one result
type ExtractOutput struct {
	File      string             `json:"file"`
	Status    string             `json:"status"`
	Error     string             `json:"error,omitempty"`
	Warning   string             `json:"warning,omitempty"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
	KPIs      map[string]float64 `json:"kpis,omitempty"`
	Completed []metrics.Key      `json:"completed,omitempty"`
	Hints     []metrics.Hint     `json:"hints,omitempty"`
	Text      string             `json:"text,omitempty"`
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("output", "o", "", "CSV output file, or a folder when several files are given")
	extractCmd.Flags().Bool("json", false, "Output as JSON")
	extractCmd.Flags().Bool("show-text", false, "Include the recognized text")
	extractCmd.Flags().Bool("complete", false, "Ask ChatGPT for indicators the patterns missed")
	extractCmd.Flags().Int("workers", 4, "Number of files processed in parallel")
	extractCmd.Flags().Int("timeout", 600, "Processing timeout in seconds for all files")
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("extract")

	outputPath, _ := cmd.Flags().GetString("output")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	showText, _ := cmd.Flags().GetBool("show-text")
	complete, _ := cmd.Flags().GetBool("complete")
	numWorkers, _ := cmd.Flags().GetInt("workers")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg, err := requireConfig()
	if err != nil {
		return err
	}

	files, err := findReportFiles(args)
	if err != nil {
		return fmt.Errorf("failed to find report files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no PDF, PNG or JPG files found")
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	p, err := createPipeline(ctx, cfg, complete, log)
	if err != nil {
		return err
	}
	defer p.Close()

	if numWorkers < 1 {
		numWorkers = 1
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	log.Info().
		Int("files", len(files)).
		Int("workers", numWorkers).
		Str("engine", cfg.OCREngine).
		Msg("Starting extraction")

	results := processFilesInParallel(ctx, files, p.processor, cfg.MaxUploadBytes, numWorkers, log)

	failed := 0
	for _, r := range results {
		if r.Status == "error" {
			failed++
		}
	}

	if jsonOutput {
		if err := printExtractJSON(os.Stdout, results, showText); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			printAnalysis(os.Stdout, r, showText)
		}
	}

	if outputPath != "" {
		if err := writeMetricsCSVs(results, outputPath, len(files) > 1, log); err != nil {
			return err
		}
	}

	log.Info().
		Int("total", len(results)).
		Int("failed", failed).
		Msg("Extraction completed")

	return extractExitError(results, failed, log)
}

// extractExitError decides the command result. Warnings were already printed
// and end the run successfully.
func extractExitError(results []ExtractResult, failed int, log zerolog.Logger) error {
	if len(results) == 1 && results[0].Status == "error" {
		return handleDocumentError(results[0].Error, log)
	}
	if failed == len(results) {
		return fmt.Errorf("all %d files failed", failed)
	}
	return nil
}

var reportExtensions = map[string]bool{".pdf": true, ".png": true, ".jpg": true, ".jpeg": true}

// findReportFiles expands folders into the report files they contain.
// Files given explicitly are kept whatever their extension.
func findReportFiles(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		err = filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !fi.IsDir() && reportExtensions[strings.ToLower(filepath.Ext(fi.Name()))] {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// processSingleFile loads and analyzes one report
func processSingleFile(ctx context.Context, path string, processor *document.Processor, maxBytes int64) ExtractResult {
	result := ExtractResult{FilePath: path, Status: "error"}

	doc, err := document.LoadFile(path, maxBytes)
	if err != nil {
		result.Error = err
		return result
	}

	analysis, err := processor.Process(ctx, doc)
	if err != nil {
		result.Error = err
		if document.IsWarning(err) {
			result.Status = "warning"
		}
		return result
	}

	result.Analysis = analysis
	result.Status = "success"
	if analysis.Empty() {
		result.Status = "warning"
	}
	return result
}

// processFilesInParallel processes files using a worker pool; results keep
// the input order.
func processFilesInParallel(ctx context.Context, files []string, processor *document.Processor, maxBytes int64, numWorkers int, log zerolog.Logger) []ExtractResult {
	jobs := make(chan ExtractJob, len(files))
	results := make([]ExtractResult, len(files))

	var processedCount int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for job := range jobs {
				log.Debug().
					Int("worker", workerID).
					Str("file", job.FilePath).
					Int("index", job.Index+1).
					Msg("Worker processing file")

				result := processSingleFile(ctx, job.FilePath, processor, maxBytes)
				result.Index = job.Index
				results[job.Index] = result

				mu.Lock()
				processedCount++
				fmt.Fprintf(os.Stderr, "[%d/%d] %s - %s", processedCount, len(files), filepath.Base(job.FilePath), getStatusIcon(result.Status))
				switch {
				case result.Error != nil:
					fmt.Fprintf(os.Stderr, " (%s)", result.Error.Error())
				case result.Analysis != nil:
					fmt.Fprintf(os.Stderr, " (%d indicadores)", result.Analysis.Metrics.Len())
				}
				fmt.Fprintln(os.Stderr)
				mu.Unlock()
			}
		}(w)
	}

	for i, f := range files {
		jobs <- ExtractJob{FilePath: f, Index: i}
	}
	close(jobs)

	wg.Wait()
	return results
}

// getStatusIcon returns a marker for the processing status
func getStatusIcon(status string) string {
	switch status {
	case "success":
		return "✅"
	case "warning":
		return "⚠️"
	case "error":
		return "❌"
	default:
		return "❓"
	}
}

func printAnalysis(w io.Writer, r ExtractResult, showText bool) {
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "%s\n", filepath.Base(r.FilePath))
	fmt.Fprintln(w, strings.Repeat("=", 60))

	if r.Error != nil {
		if document.IsWarning(r.Error) {
			fmt.Fprintf(w, "Aviso: %s\n\n", document.WarningMessage(r.Error))
		} else {
			fmt.Fprintf(w, "Erro: %v\n\n", r.Error)
		}
		return
	}

	a := r.Analysis
	if showText && a.OCR != nil {
		fmt.Fprintln(w, "--- Texto reconhecido ---")
		fmt.Fprintln(w, strings.TrimSpace(a.OCR.Text))
		fmt.Fprintln(w, "-------------------------")
	}

	if a.Empty() {
		fmt.Fprintf(w, "Aviso: %s\n", document.NoMetricsMessage)
	} else {
		printSet(w, "Indicadores extraídos", a.Metrics, a.Completed)
	}
	if a.KPIs.Len() > 0 {
		printSet(w, "Indicadores derivados", a.KPIs, nil)
	}
	for _, h := range a.Hints {
		fmt.Fprintf(w, "Dica: %q parece ser %q (%s)\n", h.Found, h.Expected, h.Key)
	}
	fmt.Fprintln(w)
}

func printSet(w io.Writer, title string, set metrics.Set, completed []metrics.Key) {
	fromModel := make(map[metrics.Key]bool, len(completed))
	for _, k := range completed {
		fromModel[k] = true
	}

	fmt.Fprintf(w, "\n%s\n", title)
	for _, e := range set.Entries() {
		mark := ""
		if fromModel[e.Key] {
			mark = " *"
		}
		fmt.Fprintf(w, "  %-40s %10.2f%s\n", e.Key.Label(), e.Value, mark)
	}
	if len(completed) > 0 {
		fmt.Fprintln(w, "  * completado pelo ChatGPT")
	}
}

func printExtractJSON(w io.Writer, results []ExtractResult, showText bool) error {
	out := make([]ExtractOutput, 0, len(results))
	for _, r := range results {
		o := ExtractOutput{File: r.FilePath, Status: r.Status}
		if r.Error != nil {
			if document.IsWarning(r.Error) {
				o.Warning = document.WarningMessage(r.Error)
			} else {
				o.Error = r.Error.Error()
			}
		}
		if a := r.Analysis; a != nil {
			o.Metrics = a.Metrics.Map()
			o.KPIs = a.KPIs.Map()
			o.Completed = a.Completed
			o.Hints = a.Hints
			if a.Empty() {
				o.Warning = document.NoMetricsMessage
			}
			if showText && a.OCR != nil {
				o.Text = a.OCR.Text
			}
		}
		out = append(out, o)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	return nil
}

// writeMetricsCSVs writes the CSV of every analyzed file. With several files
// outputPath is a folder and each CSV is named after its report.
func writeMetricsCSVs(results []ExtractResult, outputPath string, multiple bool, log zerolog.Logger) error {
	if multiple {
		if err := os.MkdirAll(outputPath, 0o755); err != nil {
			return fmt.Errorf("failed to create output folder: %w", err)
		}
	}

	for _, r := range results {
		if r.Analysis == nil || r.Analysis.Empty() {
			continue
		}
		data, err := export.MetricsCSV(r.Analysis.Combined())
		if err != nil {
			return fmt.Errorf("failed to export %s: %w", r.FilePath, err)
		}

		path := outputPath
		if multiple {
			stem := strings.TrimSuffix(filepath.Base(r.FilePath), filepath.Ext(r.FilePath))
			path = filepath.Join(outputPath, stem+"_metrics.csv")
		}
		if err := writeOutput(path, data, log); err != nil {
			return err
		}
	}
	return nil
}
