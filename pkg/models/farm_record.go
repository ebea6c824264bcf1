package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical date format of farm records.
const DateLayout = "2006-01-02"

type FarmRecord struct {
	// Identification
	FarmName string    // Farm name as entered by the user
	Date     time.Time // Measurement date

	// Herd counts, all non-negative
	TotalDams         int // Total breeding females in the herd
	EligibleDams      int // Females eligible for breeding in the period
	Inseminated       int // Females inseminated
	Pregnant          int // Females confirmed pregnant
	PositiveDiagnoses int // Positive pregnancy diagnoses
	ExpectedCalvings  int // Calvings expected in the period
	ActualCalvings    int // Calvings that happened
	GestationalLosses int // Pregnancies lost before calving
	RepeatServices    int // Females that needed a repeat service

	Notes string // Free-text observations
}

// Count is one labelled herd count of a record.
type Count struct {
	Name  string
	Label string
	Value int
}

// Counts returns the nine herd counts in form order.
func (r FarmRecord) Counts() []Count {
	return []Count{
		{"total_dams", "Total de matrizes", r.TotalDams},
		{"eligible_dams", "Matrizes aptas", r.EligibleDams},
		{"inseminated", "Inseminadas", r.Inseminated},
		{"pregnant", "Prenhes", r.Pregnant},
		{"positive_diagnoses", "Diagnósticos positivos", r.PositiveDiagnoses},
		{"expected_calvings", "Partos previstos", r.ExpectedCalvings},
		{"actual_calvings", "Partos realizados", r.ActualCalvings},
		{"gestational_losses", "Perdas gestacionais", r.GestationalLosses},
		{"repeat_services", "Repetições de serviço", r.RepeatServices},
	}
}

// DateString formats the record date, empty when unset.
func (r FarmRecord) DateString() string {
	if r.Date.IsZero() {
		return ""
	}
	return r.Date.Format(DateLayout)
}

// ParseDate accepts ISO and Brazilian day-first dates.
func ParseDate(s string) (time.Time, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}

	formats := []string{
		DateLayout,   // YYYY-MM-DD
		"02/01/2006", // DD/MM/YYYY
		"2/1/2006",   // D/M/YYYY
		"02.01.2006", // DD.MM.YYYY
		"02-01-2006", // DD-MM-YYYY
		"02/01/06",   // DD/MM/YY
	}

	for _, format := range formats {
		if date, err := time.Parse(format, cleaned); err == nil {
			return date, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}
