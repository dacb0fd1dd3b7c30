package domain

import "time"

type PatternType string

const (
	PatternMoodCorrelation   PatternType = "mood_correlation"
	PatternEnergyCorrelation PatternType = "energy_correlation"
	PatternPeriodVariance    PatternType = "period_variance"
	PatternGateVariance      PatternType = "gate_variance"
	PatternThemeAlignment    PatternType = "theme_alignment"
	PatternTemporal          PatternType = "temporal"
	PatternCrossPeriod       PatternType = "cross_period"
	PatternManual            PatternType = "manual"
)

func ValidPatternType(t string) bool {
	switch PatternType(t) {
	case PatternMoodCorrelation, PatternEnergyCorrelation, PatternPeriodVariance,
		PatternGateVariance, PatternThemeAlignment, PatternTemporal,
		PatternCrossPeriod, PatternManual:
		return true
	}
	return false
}

// Pattern is the output of one detector run: a statistically supported
// correlation or group difference, with enough provenance to seed a
// hypothesis. Patterns are ephemeral; only hypotheses survive a cycle.
type Pattern struct {
	Type         PatternType  `json:"type"`
	Confidence   float64      `json:"confidence"` // detector-local estimate
	Description  string       `json:"description"`
	PValue       float64      `json:"p_value"`
	EffectSize   float64      `json:"effect_size"`
	EvidenceType EvidenceType `json:"evidence_type"`
	DataPoints   int          `json:"data_points"`

	// Correlate provenance, zero-valued when not applicable.
	Period    string    `json:"period,omitempty"`
	Gate      int       `json:"gate,omitempty"`
	Line      int       `json:"line,omitempty"`
	MoonPhase MoonPhase `json:"moon_phase,omitempty"`
	Hour      *int      `json:"hour,omitempty"`
	Weekday   *int      `json:"weekday,omitempty"`

	DetectedAt time.Time `json:"detected_at"`
}

// ObservationResult summarizes one observer pass over a batch of entries.
type ObservationResult struct {
	Patterns        []Pattern `json:"patterns"`
	EntriesAnalyzed int       `json:"entries_analyzed"`
	DaysCovered     int       `json:"days_covered"`
	Skipped         []string  `json:"skipped,omitempty"`
}
