package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"agrovet/internal/chart"
	"agrovet/internal/export"
	"agrovet/internal/logger"
	"agrovet/internal/ratios"
	"agrovet/internal/sheets"
	"agrovet/pkg/models"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compute the reproductive ratios of a farm record and export the report",
	Long: `Run the form pipeline on the herd counts of one farm record.

Seven ratios are computed as percentages; a zero denominator yields 0:

  Taxa de serviço          inseminated / eligible dams
  Taxa de prenhez          pregnant / inseminated
  Taxa de concepção        positive diagnoses / inseminated
  Taxa de diagnóstico      positive diagnoses / eligible dams
  Taxa de parição          actual calvings / expected calvings
  Eficiência reprodutiva   pregnant / total dams
  Perda gestacional        gestational losses / pregnant

The report is written as XLSX, PDF and a PNG bar chart into --out-dir.
With --sheet the ratios are appended to the Google Sheet in GOOGLE_SHEET_URL.`,
	Example: `  # Print the ratios and write the report files
  agrovet report --farm "Fazenda Boa Vista" --date 01/03/2024 \
    --total-dams 120 --eligible-dams 90 --inseminated 80 --pregnant 72 \
    --positive-diagnoses 65 --expected-calvings 70 --actual-calvings 68 \
    --gestational-losses 6 --repeat-services 15 --out-dir ./relatorios

  # Only print the ratios as JSON
  agrovet report --farm "Sítio" --eligible-dams 50 --inseminated 40 --json --no-files`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

var countFlags = []struct {
	name  string
	usage string
}{
	{"total-dams", "Total breeding females"},
	{"eligible-dams", "Females eligible for breeding"},
	{"inseminated", "Females inseminated"},
	{"pregnant", "Females confirmed pregnant"},
	{"positive-diagnoses", "Positive pregnancy diagnoses"},
	{"expected-calvings", "Calvings expected"},
	{"actual-calvings", "Calvings that happened"},
	{"gestational-losses", "Pregnancies lost before calving"},
	{"repeat-services", "Females that needed a repeat service"},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("farm", "", "Farm name")
	reportCmd.Flags().String("date", "", "Record date (YYYY-MM-DD or DD/MM/YYYY)")
	reportCmd.Flags().String("notes", "", "Free-text observations")
	for _, f := range countFlags {
		reportCmd.Flags().Int(f.name, 0, f.usage)
	}
	reportCmd.Flags().String("out-dir", ".", "Folder for the XLSX, PDF and chart files")
	reportCmd.Flags().Bool("no-files", false, "Do not write report files")
	reportCmd.Flags().Bool("json", false, "Print the ratios as JSON")
	reportCmd.Flags().Bool("sheet", false, "Append the ratios to the Google Sheet (GOOGLE_SHEET_URL)")
	reportCmd.Flags().Int("timeout", 120, "Timeout in seconds")
}

func runReport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("report")

	farm, _ := cmd.Flags().GetString("farm")
	dateStr, _ := cmd.Flags().GetString("date")
	notes, _ := cmd.Flags().GetString("notes")
	outDir, _ := cmd.Flags().GetString("out-dir")
	noFiles, _ := cmd.Flags().GetBool("no-files")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	toSheet, _ := cmd.Flags().GetBool("sheet")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	counts := make(map[string]int, len(countFlags))
	for _, f := range countFlags {
		counts[f.name], _ = cmd.Flags().GetInt(f.name)
	}

	record := models.FarmRecord{
		FarmName:          farm,
		TotalDams:         counts["total-dams"],
		EligibleDams:      counts["eligible-dams"],
		Inseminated:       counts["inseminated"],
		Pregnant:          counts["pregnant"],
		PositiveDiagnoses: counts["positive-diagnoses"],
		ExpectedCalvings:  counts["expected-calvings"],
		ActualCalvings:    counts["actual-calvings"],
		GestationalLosses: counts["gestational-losses"],
		RepeatServices:    counts["repeat-services"],
		Notes:             notes,
	}
	if dateStr != "" {
		date, err := models.ParseDate(dateStr)
		if err != nil {
			return fmt.Errorf("invalid --date %q: use YYYY-MM-DD or DD/MM/YYYY", dateStr)
		}
		record.Date = date
	}

	r, err := ratios.Calculate(record)
	if err != nil {
		var calcErr *ratios.CalculationError
		if errors.As(err, &calcErr) {
			log.Warn().Err(calcErr.Err).Msg("Ratio calculation failed")
			return errors.New(calcErr.Message)
		}
		return err
	}
	report := models.Report{Record: record, Ratios: r}

	log.Info().
		Str("farm", record.FarmName).
		Str("date", record.DateString()).
		Msg("Ratios computed")

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]interface{}{
			"farm_name": record.FarmName,
			"date":      record.DateString(),
			"ratios":    r,
		}); err != nil {
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
	} else {
		printReport(os.Stdout, report)
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	if !noFiles {
		artifacts, err := export.NewExporter(chart.Options{}).Export(ctx, report)
		if err != nil {
			return fmt.Errorf("failed to export report: %w", err)
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output folder: %w", err)
		}
		for _, a := range artifacts {
			path := filepath.Join(outDir, a.FileName)
			if err := writeOutput(path, a.Data, log); err != nil {
				return err
			}
			if !jsonOutput {
				fmt.Printf("Arquivo: %s\n", path)
			}
		}
	}

	if toSheet {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		if cfg.GoogleSheetURL == "" {
			return fmt.Errorf("GOOGLE_SHEET_URL environment variable is required for --sheet")
		}

		sheetsService, err := sheets.NewSheetsService(ctx, cfg.GoogleSheetURL)
		if err != nil {
			return fmt.Errorf("failed to create Google Sheets service: %w", err)
		}
		if err := sheetsService.AppendReports(ctx, []models.Report{report}, cfg.GoogleSheetWorksheet); err != nil {
			return fmt.Errorf("failed to write to Google Sheet: %w", err)
		}
		if !jsonOutput {
			fmt.Printf("Planilha: %s (%s)\n", cfg.GoogleSheetWorksheet, cfg.GoogleSheetURL)
		}
	}

	return nil
}

func printReport(w io.Writer, report models.Report) {
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintln(w, "                 RELATÓRIO REPRODUTIVO")
	fmt.Fprintln(w, strings.Repeat("=", 60))
	if report.Record.FarmName != "" {
		fmt.Fprintf(w, "Fazenda: %s\n", report.Record.FarmName)
	}
	if d := report.Record.DateString(); d != "" {
		fmt.Fprintf(w, "Data: %s\n", d)
	}
	fmt.Fprintln(w)

	for _, v := range report.Ratios.Values() {
		fmt.Fprintf(w, "  %-30s %8.2f %%\n", v.Label, ratios.Round2(v.Value))
	}
	fmt.Fprintln(w)
}
