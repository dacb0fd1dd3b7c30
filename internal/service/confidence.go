package service

import (
	"math"
	"time"

	"github.com/augurhq/augur/internal/domain"
)

const (
	// DefaultHalfLifeDays is the recency half-life: a piece of evidence this
	// old contributes half its base weight.
	DefaultHalfLifeDays = 30.0
	// DefaultRecencyFloor keeps old evidence from vanishing entirely.
	DefaultRecencyFloor = 0.25

	// DefaultPositionDamping shrinks the marginal contribution of each
	// additional evidence item of the same type.
	DefaultPositionDamping = 0.85
	DefaultPositionFloor   = 0.30

	DefaultSigmoidCenter    = 1.0
	DefaultSigmoidSteepness = 1.5

	DefaultMaxConfidence = 0.99
	DefaultMinConfidence = 0.01
)

// evidenceBaseWeights maps each evidence type to its signed base weight. An
// automatic observation counts for little; an explicit user verdict dominates.
var evidenceBaseWeights = map[domain.EvidenceType]float64{
	domain.EvidencePatternObservation: 0.15,
	domain.EvidenceJournalAnalysis:    0.30,
	domain.EvidenceBehavioralSignal:   0.20,
	domain.EvidenceManualEntry:        0.25,
	domain.EvidenceUserConfirmation:   1.50,
	domain.EvidenceUserRejection:      -2.00,
	domain.EvidenceContradictingEntry: -0.40,
}

var sourceReliability = map[domain.EvidenceSource]float64{
	domain.SourceObserver:        0.70,
	domain.SourceJournalAnalysis: 0.80,
	domain.SourceUser:            1.00,
	domain.SourceExchange:        0.60,
	domain.SourceOperator:        0.90,
}

func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func clampConfidence(p float64) float64 {
	if p < DefaultMinConfidence {
		return DefaultMinConfidence
	}
	if p > DefaultMaxConfidence {
		return DefaultMaxConfidence
	}
	return p
}

// ConfidenceResult is the calculator's aggregate over an evidence list.
type ConfidenceResult struct {
	Confidence        float64 `json:"confidence"`
	RawScore          float64 `json:"raw_score"`
	Positive          int     `json:"positive"`
	Negative          int     `json:"negative"`
	HasContradictions bool    `json:"has_contradictions"`
}

// Calculator converts an evidence sequence into a [0,1] confidence score.
// All methods are pure; the struct only carries tuning knobs.
type Calculator struct {
	HalfLifeDays     float64
	RecencyFloor     float64
	PositionDamping  float64
	PositionFloor    float64
	SigmoidCenter    float64
	SigmoidSteepness float64
}

func NewCalculator() *Calculator {
	return &Calculator{
		HalfLifeDays:     DefaultHalfLifeDays,
		RecencyFloor:     DefaultRecencyFloor,
		PositionDamping:  DefaultPositionDamping,
		PositionFloor:    DefaultPositionFloor,
		SigmoidCenter:    DefaultSigmoidCenter,
		SigmoidSteepness: DefaultSigmoidSteepness,
	}
}

// BaseWeight returns the signed base weight for an evidence type.
func (c *Calculator) BaseWeight(t domain.EvidenceType) float64 {
	if w, ok := evidenceBaseWeights[t]; ok {
		return w
	}
	return 0.10
}

// Reliability returns the multiplier for an evidence source.
func (c *Calculator) Reliability(s domain.EvidenceSource) float64 {
	if r, ok := sourceReliability[s]; ok {
		return r
	}
	return 0.50
}

// recencyFactor decays exponentially with the age of the underlying event,
// floored so old evidence never fully disappears from the score.
func (c *Calculator) recencyFactor(occurredAt, now time.Time) float64 {
	ageDays := now.Sub(occurredAt).Hours() / 24
	if ageDays <= 0 {
		return 1.0
	}
	factor := math.Exp(-math.Ln2 * ageDays / c.HalfLifeDays)
	if factor < c.RecencyFloor {
		return c.RecencyFloor
	}
	return factor
}

// positionFactor damps the nth item of the same evidence type (0-indexed).
func (c *Calculator) positionFactor(sameTypeIndex int) float64 {
	factor := math.Pow(c.PositionDamping, float64(sameTypeIndex))
	if factor < c.PositionFloor {
		return c.PositionFloor
	}
	return factor
}

// ItemWeight computes one record's signed contribution to the raw score.
// sameTypeIndex is how many records of the same type precede this one.
func (c *Calculator) ItemWeight(rec domain.EvidenceRecord, sameTypeIndex int, now time.Time) float64 {
	base := c.BaseWeight(rec.Type)
	reliability := c.Reliability(rec.Source)
	recency := c.recencyFactor(rec.OccurredAt, now)
	position := c.positionFactor(sameTypeIndex)
	return base * reliability * recency * position
}

// Score aggregates an ordered evidence sequence into a bounded confidence.
// The raw weighted sum passes through a logistic transform so the output
// saturates smoothly near 0 and 1.
func (c *Calculator) Score(evidence []domain.EvidenceRecord, now time.Time) ConfidenceResult {
	result := ConfidenceResult{}
	typeCounts := make(map[domain.EvidenceType]int, len(evidence))

	for _, rec := range evidence {
		weight := c.ItemWeight(rec, typeCounts[rec.Type], now)
		typeCounts[rec.Type]++

		result.RawScore += weight
		if weight < 0 {
			result.Negative++
			result.HasContradictions = true
		} else {
			result.Positive++
		}
	}

	result.Confidence = clampConfidence(
		Sigmoid(c.SigmoidSteepness * (result.RawScore - c.SigmoidCenter)))
	return result
}

// InitialConfidence is the one-shot variant used when a detector first
// promotes a pattern, before a full evidence list exists. More data points
// and a larger effect size push the starting score up, but a fresh pattern
// always starts well inside the forming band.
func (c *Calculator) InitialConfidence(baseWeight, reliability float64, dataPoints int, effectSize float64) float64 {
	if dataPoints < 0 {
		dataPoints = 0
	}
	if effectSize < 0 {
		effectSize = -effectSize
	}
	if effectSize > 1 {
		effectSize = 1
	}

	dataFactor := 1 + math.Log1p(float64(dataPoints))/4
	raw := baseWeight * reliability * dataFactor * (0.5 + effectSize)

	return clampConfidence(Sigmoid(c.SigmoidSteepness * (raw - c.SigmoidCenter)))
}
