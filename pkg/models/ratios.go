package models

// Ratios are the reproductive-performance percentages of one farm record.
// Every field is always set; a zero denominator yields 0.
type Ratios struct {
	ServiceRate            float64 `json:"service_rate"`
	PregnancyRate          float64 `json:"pregnancy_rate"`
	ConceptionRate         float64 `json:"conception_rate"`
	DiagnosisRate          float64 `json:"diagnosis_rate"`
	CalvingRate            float64 `json:"calving_rate"`
	ReproductiveEfficiency float64 `json:"reproductive_efficiency"`
	GestationalLossRate    float64 `json:"gestational_loss_rate"`
}

// RatioValue is one labelled ratio.
type RatioValue struct {
	Name  string  `json:"name"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Values returns the seven ratios in report order.
func (r Ratios) Values() []RatioValue {
	return []RatioValue{
		{"service_rate", "Taxa de serviço", r.ServiceRate},
		{"pregnancy_rate", "Taxa de prenhez", r.PregnancyRate},
		{"conception_rate", "Taxa de concepção", r.ConceptionRate},
		{"diagnosis_rate", "Taxa de diagnóstico", r.DiagnosisRate},
		{"calving_rate", "Taxa de parição", r.CalvingRate},
		{"reproductive_efficiency", "Eficiência reprodutiva", r.ReproductiveEfficiency},
		{"gestational_loss_rate", "Taxa de perda gestacional", r.GestationalLossRate},
	}
}

// Report is the flat record handed to exporters: the farm record and its
// computed ratios.
type Report struct {
	Record FarmRecord
	Ratios Ratios
}
