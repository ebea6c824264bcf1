package cmd

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"agrovet/internal/chart"
	"agrovet/internal/export"
	"agrovet/internal/logger"
	"agrovet/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the document and farm-record pipelines over HTTP",
	Long: `Start the HTTP API.

Routes:
  GET  /healthz
  POST /api/v1/documents                     multipart "file"; ?format=csv, ?text=true
  POST /api/v1/farm-records                  JSON or form farm record -> ratios
  POST /api/v1/farm-records/report.xlsx      report workbook
  POST /api/v1/farm-records/report.pdf       report PDF
  POST /api/v1/farm-records/chart.png        ratios bar chart

Every response carries an X-Request-ID header. Requests are independent;
nothing is stored between them.`,
	Example: `  agrovet serve --addr :8080`,
	Args:    cobra.NoArgs,
	RunE:    runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default: SERVER_ADDR or :8080)")
	serveCmd.Flags().Bool("complete", false, "Ask ChatGPT for indicators the patterns missed")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	addr, _ := cmd.Flags().GetString("addr")
	complete, _ := cmd.Flags().GetBool("complete")

	cfg, err := requireConfig()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.ServerAddr
	}

	ctx, cancel := createContextWithTimeout(0, log)
	defer cancel()

	p, err := createPipeline(ctx, cfg, complete, log)
	if err != nil {
		return err
	}
	defer p.Close()

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(server.Config{
		Processor:      p.processor,
		Exporter:       export.NewExporter(chart.Options{}),
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	log.Info().
		Str("addr", addr).
		Str("engine", cfg.OCREngine).
		Bool("pdf_rasterizer", cfg.PDFRasterizer).
		Msg("Starting HTTP server")

	if err := srv.Run(ctx, addr); err != nil {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}
