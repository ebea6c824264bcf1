package metrics

// DaysPerYear is the divisor of the calvings per cow per year KPI.
const DaysPerYear = 365.0

// KPICalculator derives secondary indicators from extracted ones.
type KPICalculator struct {
	// LegacyGap computes the pregnancy/conception gap whenever the pregnancy
	// rate is present, counting a missing conception rate as 0 where the
	// first version of the tool failed. When false the gap requires both rates.
	LegacyGap bool
}

// Compute returns 0 to 2 derived indicators, gap first.
func (c KPICalculator) Compute(extracted Set) Set {
	var entries []Entry

	pregnancy, hasPregnancy := extracted.Get(PregnancyRate)
	conception, hasConception := extracted.Get(ConceptionRate)
	if hasPregnancy && (hasConception || c.LegacyGap) {
		entries = append(entries, Entry{Key: GapPregnancyVsConception, Value: conception - pregnancy})
	}

	if interval, ok := extracted.Get(CalvingIntervalDays); ok && interval > 0 {
		entries = append(entries, Entry{Key: CalvingsPerCowPerYear, Value: DaysPerYear / interval})
	}

	return NewSet(entries...)
}

// ComputeKPIs derives indicators with the default calculator.
func ComputeKPIs(extracted Set) Set {
	return KPICalculator{}.Compute(extracted)
}
