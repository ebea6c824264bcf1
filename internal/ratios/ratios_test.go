package ratios_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"agrovet/internal/ratios"
	"agrovet/pkg/models"
)

func TestCalculateZeroDenominators(t *testing.T) {
	got, err := ratios.Calculate(models.FarmRecord{
		FarmName:          "Sítio Vazio",
		PositiveDiagnoses: 3,
		ActualCalvings:    2,
		GestationalLosses: 1,
	})
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}
	for _, v := range got.Values() {
		if v.Value != 0 {
			t.Errorf("%s = %v, want 0", v.Name, v.Value)
		}
	}
}

func TestCalculateReferenceHerd(t *testing.T) {
	got, err := ratios.Calculate(models.FarmRecord{
		TotalDams:         100,
		EligibleDams:      90,
		Inseminated:       80,
		Pregnant:          60,
		PositiveDiagnoses: 65,
		ExpectedCalvings:  70,
		ActualCalvings:    68,
		GestationalLosses: 5,
	})
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"service_rate", got.ServiceRate, 88.89},
		{"pregnancy_rate", got.PregnancyRate, 75},
		{"conception_rate", got.ConceptionRate, 81.25},
		{"diagnosis_rate", got.DiagnosisRate, 72.22},
		{"calving_rate", got.CalvingRate, 97.14},
		{"reproductive_efficiency", got.ReproductiveEfficiency, 60},
		{"gestational_loss_rate", got.GestationalLossRate, 8.33},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if r := ratios.Round2(tt.got); math.Abs(r-tt.want) > 1e-9 {
				t.Errorf("%s = %v (rounded %v), want %v", tt.name, tt.got, r, tt.want)
			}
		})
	}
}

func TestCalculateNegativeCount(t *testing.T) {
	got, err := ratios.Calculate(models.FarmRecord{TotalDams: 10, Pregnant: -1})
	if err == nil {
		t.Fatalf("Calculate() = %+v, want error", got)
	}

	var calcErr *ratios.CalculationError
	if !errors.As(err, &calcErr) {
		t.Fatalf("error %T is not a *CalculationError", err)
	}
	if !strings.Contains(calcErr.Message, "Prenhes") {
		t.Errorf("message %q does not name the field", calcErr.Message)
	}
	if got != (models.Ratios{}) {
		t.Errorf("partial result returned: %+v", got)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		part, whole int
		want        float64
	}{
		{1, 4, 25},
		{0, 10, 0},
		{5, 0, 0},
		{3, 2, 150},
	}
	for _, tt := range tests {
		if got := ratios.Percent(tt.part, tt.whole); got != tt.want {
			t.Errorf("Percent(%d, %d) = %v, want %v", tt.part, tt.whole, got, tt.want)
		}
	}
}
