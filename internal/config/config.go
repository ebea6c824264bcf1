package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"agrovet/internal/logger"
	"agrovet/internal/ocr"
)

const (
	EngineTesseract  = ocr.EngineTesseract
	EngineVision     = ocr.EngineVision
	EngineDocumentAI = ocr.EngineDocumentAI
)

type Config struct {
	// OCR Configuration
	OCREngine      string
	OCRLanguage    string
	OCRDPI         int
	PDFRasterizer  bool
	MaxUploadBytes int64

	// Metric extraction
	PatternsFile string
	KPILegacyGap bool

	// OpenAI Configuration (metric completion)
	CompletionEnabled    bool
	OpenAIAPIKey         string
	OpenAIModel          string
	CompletionMaxRetries int

	// Google Cloud Configuration
	GoogleCloudProject         string
	GoogleCloudLocation        string
	DocumentAIProcessorID      string
	DocumentAIProcessorVersion string

	// Google Sheets Configuration
	GoogleSheetURL       string
	GoogleSheetWorksheet string

	// HTTP server
	ServerAddr string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		OCREngine:                  strings.ToLower(getEnv("OCR_ENGINE", EngineTesseract)),
		OCRLanguage:                getEnv("OCR_LANGUAGE", "por"),
		OCRDPI:                     getEnvInt("OCR_DPI", 300),
		PDFRasterizer:              getEnvBool("PDF_RASTERIZER", true),
		MaxUploadBytes:             int64(getEnvInt("MAX_UPLOAD_BYTES", 20*1024*1024)),
		PatternsFile:               getEnv("PATTERNS_FILE", ""),
		KPILegacyGap:               getEnvBool("KPI_LEGACY_GAP", false),
		CompletionEnabled:          getEnvBool("COMPLETION_ENABLED", false),
		OpenAIAPIKey:               getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:                getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		CompletionMaxRetries:       getEnvInt("COMPLETION_MAX_RETRIES", 3),
		GoogleCloudProject:         getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:        getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID:      getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		DocumentAIProcessorVersion: getEnv("DOCUMENT_AI_PROCESSOR_VERSION", ""),
		GoogleSheetURL:             getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet:       getEnv("GOOGLE_SHEET_WORKSHEET", "Indicadores"),
		ServerAddr:                 getEnv("SERVER_ADDR", ":8080"),
		LogLevel:                   getEnv("LOG_LEVEL", "info"),
		LogFormat:                  getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:              getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:                  getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.OCREngine {
	case EngineTesseract, EngineVision:
	case EngineDocumentAI:
		if c.GoogleCloudProject == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT is required for the documentai engine")
		}
		if c.DocumentAIProcessorID == "" {
			return fmt.Errorf("DOCUMENT_AI_PROCESSOR_ID is required for the documentai engine")
		}
	default:
		return fmt.Errorf("unknown OCR_ENGINE %q (use %s, %s or %s)", c.OCREngine, EngineTesseract, EngineVision, EngineDocumentAI)
	}
	if c.OCRDPI <= 0 {
		return fmt.Errorf("OCR_DPI must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if c.CompletionEnabled && c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when COMPLETION_ENABLED is set")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
