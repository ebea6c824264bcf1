package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"agrovet/internal/config"
	"agrovet/internal/logger"
)

var version = "1.0.0"

var (
	appConfig    *config.Config
	appConfigErr error
)

var rootCmd = &cobra.Command{
	Use:   "agrovet",
	Short: "agrovet - reproductive indicators for dairy and beef herds",
	Long: `agrovet reads scanned veterinary reproductive reports and farm records
and turns them into reproductive-performance indicators.

Document pipeline: a PDF, PNG or JPG report is recognized with OCR, the
indicators are extracted with label patterns and the derived KPIs are
computed. Results can be exported as CSV.

Form pipeline: herd counts of a farm record are turned into seven
percentage ratios and exported as XLSX, PDF and a bar chart.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Debug().
			Str("version", version).
			Msg("agrovet executed without subcommand")

		cmd.Help()
	},
}

// Execute runs the CLI with the configuration loaded at startup. A
// configuration error is reported by the commands that need it.
func Execute(cfg *config.Config, cfgErr error) {
	appConfig, appConfigErr = cfg, cfgErr
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// requireConfig returns the startup configuration or its validation error.
func requireConfig() (*config.Config, error) {
	if appConfigErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", appConfigErr)
	}
	if appConfig == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return appConfig, nil
}
