// Package metrics extracts reproductive indicators from OCR text and derives
// the secondary KPIs of the document pipeline.
//
// The set of indicators is closed: seven extracted keys, always reported in
// the order of Keys, and two derived keys reported in the order of DerivedKeys.
// Absent indicators are never represented by a zero value; they are simply
// missing from the Set.
package metrics

import "fmt"

// Key identifies one reproductive indicator.
type Key string

// Extracted indicators.
const (
	PregnancyRate             Key = "pregnancy_rate"
	ConceptionRate            Key = "conception_rate"
	CalvingIntervalDays       Key = "calving_interval_days"
	InseminationsPerPregnancy Key = "inseminations_per_pregnancy"
	TotalInseminations        Key = "total_inseminations"
	TotalCalvings             Key = "total_calvings"
	AbortionRate              Key = "abortion_rate"
)

// Derived indicators.
const (
	GapPregnancyVsConception Key = "gap_pregnancy_vs_conception"
	CalvingsPerCowPerYear    Key = "calvings_per_cow_per_year"
)

// Keys lists the extracted indicators in reporting order.
var Keys = []Key{
	PregnancyRate,
	ConceptionRate,
	CalvingIntervalDays,
	InseminationsPerPregnancy,
	TotalInseminations,
	TotalCalvings,
	AbortionRate,
}

// DerivedKeys lists the derived indicators in reporting order.
var DerivedKeys = []Key{
	GapPregnancyVsConception,
	CalvingsPerCowPerYear,
}

var labels = map[Key]string{
	PregnancyRate:             "Taxa de prenhez (%)",
	ConceptionRate:            "Taxa de concepção (%)",
	CalvingIntervalDays:       "Intervalo entre partos (dias)",
	InseminationsPerPregnancy: "Inseminações por prenhez",
	TotalInseminations:        "Total de IA",
	TotalCalvings:             "Total de partos",
	AbortionRate:              "Taxa de aborto (%)",
	GapPregnancyVsConception:  "Diferença concepção - prenhez (p.p.)",
	CalvingsPerCowPerYear:     "Partos por vaca por ano",
}

// Label returns the human readable Portuguese label of the key.
func (k Key) Label() string {
	if l, ok := labels[k]; ok {
		return l
	}
	return string(k)
}

// Derived reports whether the key is one of DerivedKeys.
func (k Key) Derived() bool {
	return k == GapPregnancyVsConception || k == CalvingsPerCowPerYear
}

// ParseKey resolves an extracted or derived key from its identifier.
func ParseKey(s string) (Key, error) {
	k := Key(s)
	if _, ok := labels[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, s)
	}
	return k, nil
}
