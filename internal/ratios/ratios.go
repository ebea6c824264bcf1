// Package ratios computes the reproductive-performance percentages of a farm
// record.
package ratios

import (
	"fmt"
	"math"

	"agrovet/pkg/models"
)

// CalculationError is the single user-facing failure of a ratio calculation.
// No ratio is returned alongside it.
type CalculationError struct {
	Message string
	Err     error
}

func (e *CalculationError) Error() string {
	return e.Message
}

func (e *CalculationError) Unwrap() error {
	return e.Err
}

// Percent returns part/whole*100, or 0 when whole is 0.
func Percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

// Calculate computes all seven ratios of the record.
func Calculate(r models.FarmRecord) (models.Ratios, error) {
	for _, c := range r.Counts() {
		if c.Value < 0 {
			return models.Ratios{}, &CalculationError{
				Message: fmt.Sprintf("Não foi possível calcular os indicadores: %s não pode ser negativo (%d).", c.Label, c.Value),
				Err:     fmt.Errorf("negative count %s: %d", c.Name, c.Value),
			}
		}
	}

	out := models.Ratios{
		ServiceRate:            Percent(r.Inseminated, r.EligibleDams),
		PregnancyRate:          Percent(r.Pregnant, r.Inseminated),
		ConceptionRate:         Percent(r.PositiveDiagnoses, r.Inseminated),
		DiagnosisRate:          Percent(r.PositiveDiagnoses, r.EligibleDams),
		CalvingRate:            Percent(r.ActualCalvings, r.ExpectedCalvings),
		ReproductiveEfficiency: Percent(r.Pregnant, r.TotalDams),
		GestationalLossRate:    Percent(r.GestationalLosses, r.Pregnant),
	}

	for _, v := range out.Values() {
		if math.IsNaN(v.Value) || math.IsInf(v.Value, 0) {
			return models.Ratios{}, &CalculationError{
				Message: "Não foi possível calcular os indicadores: resultado inválido para " + v.Label + ".",
				Err:     fmt.Errorf("non-finite %s", v.Name),
			}
		}
	}

	return out, nil
}

// Round2 rounds a percentage to two decimals for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
