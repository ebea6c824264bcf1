package main

import (
	"log"

	"github.com/joho/godotenv"

	"agrovet/cmd"
	"agrovet/internal/config"
	"agrovet/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		// Use default logger config if main config fails
		if err := logger.Setup(logger.DefaultConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	} else if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	l := logger.WithComponent("main")
	if cfgErr != nil {
		l.Warn().Err(cfgErr).Msg("Could not load configuration")
	}
	l.Debug().Msg("Starting agrovet")

	cmd.Execute(cfg, cfgErr)

	l.Debug().Msg("agrovet shutdown")
}
