package chart_test

import (
	"bytes"
	"image/png"
	"testing"

	"agrovet/internal/chart"
	"agrovet/pkg/models"
)

func TestYMax(t *testing.T) {
	tests := []struct {
		name   string
		ratios models.Ratios
		want   float64
	}{
		{name: "all zero", ratios: models.Ratios{}, want: 100},
		{name: "below 100", ratios: models.Ratios{PregnancyRate: 88.9, CalvingRate: 97.1}, want: 100},
		{name: "above 100", ratios: models.Ratios{CalvingRate: 120}, want: 132},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := chart.YMax(tt.ratios)
			if got < tt.want-1e-9 || got > tt.want+1e-9 {
				t.Errorf("YMax() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRenderRatios(t *testing.T) {
	r := models.Ratios{
		ServiceRate:            88.89,
		PregnancyRate:          75,
		ConceptionRate:         81.25,
		DiagnosisRate:          72.22,
		CalvingRate:            97.14,
		ReproductiveEfficiency: 60,
		GestationalLossRate:    8.33,
	}

	data, err := chart.RenderRatios(r, chart.Options{Width: 800, Height: 400})
	if err != nil {
		t.Fatalf("RenderRatios() error = %v", err)
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if cfg.Width != 800 || cfg.Height != 400 {
		t.Errorf("image size = %dx%d, want 800x400", cfg.Width, cfg.Height)
	}
}

func TestRenderRatiosZeroRecord(t *testing.T) {
	if _, err := chart.RenderRatios(models.Ratios{}, chart.Options{}); err != nil {
		t.Errorf("RenderRatios() error = %v for an all-zero record", err)
	}
}
