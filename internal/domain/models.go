package domain

// OptionCatalog holds the selectable values for the prediction form.
// It is populated once per process and treated as read-only afterwards.
type OptionCatalog struct {
	AgeGroups   []string `json:"yasgrup"`
	Departments []string `json:"bolum"`
	ICDCodes    []string `json:"icd"`
}

// IsEmpty reports whether no options were loaded at all.
func (c *OptionCatalog) IsEmpty() bool {
	return len(c.AgeGroups) == 0 && len(c.Departments) == 0 && len(c.ICDCodes) == 0
}

// DefaultCatalog returns the fixed fallback catalog used when no data
// workbook is available or loading fails.
func DefaultCatalog() *OptionCatalog {
	return &OptionCatalog{
		AgeGroups:   []string{"15-25", "25-35", "35-50", "50-65", "65+"},
		Departments: []string{"Dahiliye", "Kardiyoloji", "Genel Cerrahi"},
		ICDCodes:    []string{"I10", "E11", "J18", "K35", "N39"},
	}
}

// PredictionResult is the outcome of one length-of-stay prediction.
// EnsembleEstimate is nil when the model has no ensemble estimate for the
// requested combination; in that case FinalEstimate equals RuleEstimate and
// BlendWeight is not applied.
type PredictionResult struct {
	AgeGroup         string   `json:"yasgrup"`
	Department       string   `json:"bolum"`
	ICDCodes         []string `json:"icd"`
	ICDKey           string   `json:"icd_key"`
	RuleEstimate     float64  `json:"pred_rule"`
	EnsembleEstimate *float64 `json:"pred_xgb_ens"`
	BlendWeight      float64  `json:"blend_weight"`
	FinalEstimate    float64  `json:"pred_final"`
	FinalRounded     int      `json:"pred_final_rounded"`
}
