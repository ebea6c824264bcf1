package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"OCR_ENGINE", "OCR_DPI", "COMPLETION_ENABLED", "KPI_LEGACY_GAP", "MAX_UPLOAD_BYTES", "PDF_RASTERIZER"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OCREngine != EngineTesseract || cfg.OCRLanguage != "por" || cfg.OCRDPI != 300 {
		t.Errorf("OCR defaults = %s/%s/%d", cfg.OCREngine, cfg.OCRLanguage, cfg.OCRDPI)
	}
	if !cfg.PDFRasterizer || cfg.KPILegacyGap || cfg.CompletionEnabled {
		t.Errorf("flags = rasterizer %v legacy gap %v completion %v", cfg.PDFRasterizer, cfg.KPILegacyGap, cfg.CompletionEnabled)
	}
	if cfg.MaxUploadBytes != 20*1024*1024 {
		t.Errorf("MaxUploadBytes = %d", cfg.MaxUploadBytes)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("OCR_ENGINE", "DocumentAI")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "farm-project")
	t.Setenv("DOCUMENT_AI_PROCESSOR_ID", "abc123")
	t.Setenv("OCR_DPI", "200")
	t.Setenv("KPI_LEGACY_GAP", "true")
	t.Setenv("PDF_RASTERIZER", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OCREngine != EngineDocumentAI || cfg.OCRDPI != 200 || !cfg.KPILegacyGap || cfg.PDFRasterizer {
		t.Errorf("Load() = %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{OCREngine: EngineTesseract, OCRDPI: 300, MaxUploadBytes: 1}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown engine", mutate: func(c *Config) { c.OCREngine = "abbyy" }, wantErr: "unknown OCR_ENGINE"},
		{name: "documentai without project", mutate: func(c *Config) { c.OCREngine = EngineDocumentAI; c.DocumentAIProcessorID = "p" }, wantErr: "GOOGLE_CLOUD_PROJECT"},
		{name: "documentai without processor", mutate: func(c *Config) { c.OCREngine = EngineDocumentAI; c.GoogleCloudProject = "p" }, wantErr: "DOCUMENT_AI_PROCESSOR_ID"},
		{name: "completion without key", mutate: func(c *Config) { c.CompletionEnabled = true }, wantErr: "OPENAI_API_KEY"},
		{name: "completion with key", mutate: func(c *Config) { c.CompletionEnabled = true; c.OpenAIAPIKey = "sk-test" }},
		{name: "zero dpi", mutate: func(c *Config) { c.OCRDPI = 0 }, wantErr: "OCR_DPI"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
