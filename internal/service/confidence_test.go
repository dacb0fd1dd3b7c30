package service

import (
	"testing"
	"time"

	"github.com/augurhq/augur/internal/domain"
)

func freshEvidence(t domain.EvidenceType, s domain.EvidenceSource, now time.Time) domain.EvidenceRecord {
	return domain.EvidenceRecord{
		Type:       t,
		Source:     s,
		RecordedAt: now,
		OccurredAt: now,
	}
}

func TestCalculator_ScoreBounds(t *testing.T) {
	calc := NewCalculator()
	now := time.Now()

	lists := [][]domain.EvidenceRecord{
		nil,
		{freshEvidence(domain.EvidencePatternObservation, domain.SourceObserver, now)},
		{
			freshEvidence(domain.EvidenceUserConfirmation, domain.SourceUser, now),
			freshEvidence(domain.EvidenceUserConfirmation, domain.SourceUser, now),
			freshEvidence(domain.EvidenceUserConfirmation, domain.SourceUser, now),
			freshEvidence(domain.EvidenceUserConfirmation, domain.SourceUser, now),
		},
		{
			freshEvidence(domain.EvidenceUserRejection, domain.SourceUser, now),
			freshEvidence(domain.EvidenceUserRejection, domain.SourceUser, now),
			freshEvidence(domain.EvidenceContradictingEntry, domain.SourceExchange, now),
		},
	}

	for i, evidence := range lists {
		res := calc.Score(evidence, now)
		if res.Confidence < 0 || res.Confidence > 1 {
			t.Errorf("list %d: confidence %f out of [0,1]", i, res.Confidence)
		}
	}
}

func TestCalculator_PositiveEvidenceIncreases(t *testing.T) {
	calc := NewCalculator()
	now := time.Now()

	evidence := []domain.EvidenceRecord{
		freshEvidence(domain.EvidencePatternObservation, domain.SourceObserver, now),
	}
	before := calc.Score(evidence, now).Confidence

	evidence = append(evidence, freshEvidence(domain.EvidenceUserConfirmation, domain.SourceUser, now))
	after := calc.Score(evidence, now).Confidence

	if after <= before {
		t.Errorf("confidence did not increase: %f -> %f", before, after)
	}
}

func TestCalculator_NegativeEvidenceDecreases(t *testing.T) {
	calc := NewCalculator()
	now := time.Now()

	evidence := []domain.EvidenceRecord{
		freshEvidence(domain.EvidencePatternObservation, domain.SourceObserver, now),
		freshEvidence(domain.EvidenceUserConfirmation, domain.SourceUser, now),
	}
	before := calc.Score(evidence, now)

	evidence = append(evidence, freshEvidence(domain.EvidenceUserRejection, domain.SourceUser, now))
	after := calc.Score(evidence, now)

	if after.Confidence >= before.Confidence {
		t.Errorf("confidence did not decrease: %f -> %f", before.Confidence, after.Confidence)
	}
	if !after.HasContradictions {
		t.Error("expected contradiction flag after negative evidence")
	}
	if before.HasContradictions {
		t.Error("unexpected contradiction flag before negative evidence")
	}
	if after.Negative != 1 || after.Positive != 2 {
		t.Errorf("counts = %d positive, %d negative, want 2/1", after.Positive, after.Negative)
	}
}

func TestCalculator_RecencyDecay(t *testing.T) {
	calc := NewCalculator()
	now := time.Now()

	fresh := freshEvidence(domain.EvidenceJournalAnalysis, domain.SourceJournalAnalysis, now)
	freshWeight := calc.ItemWeight(fresh, 0, now)

	halfLife := fresh
	halfLife.OccurredAt = now.Add(-30 * 24 * time.Hour)
	halfWeight := calc.ItemWeight(halfLife, 0, now)

	diff := halfWeight - freshWeight/2
	if diff < -0.001 || diff > 0.001 {
		t.Errorf("30-day-old weight = %f, want ~%f", halfWeight, freshWeight/2)
	}
}

func TestCalculator_RecencyFloor(t *testing.T) {
	calc := NewCalculator()
	now := time.Now()

	ancient := freshEvidence(domain.EvidenceJournalAnalysis, domain.SourceJournalAnalysis, now)
	ancient.OccurredAt = now.Add(-1000 * 24 * time.Hour)

	weight := calc.ItemWeight(ancient, 0, now)
	expected := calc.BaseWeight(domain.EvidenceJournalAnalysis) *
		calc.Reliability(domain.SourceJournalAnalysis) * DefaultRecencyFloor

	diff := weight - expected
	if diff < -1e-9 || diff > 1e-9 {
		t.Errorf("ancient evidence weight = %f, want floored %f", weight, expected)
	}
}

func TestCalculator_PositionDamping(t *testing.T) {
	calc := NewCalculator()
	now := time.Now()
	rec := freshEvidence(domain.EvidenceJournalAnalysis, domain.SourceJournalAnalysis, now)

	first := calc.ItemWeight(rec, 0, now)
	second := calc.ItemWeight(rec, 1, now)
	tenth := calc.ItemWeight(rec, 9, now)

	diff := second - first*DefaultPositionDamping
	if diff < -1e-9 || diff > 1e-9 {
		t.Errorf("second same-type weight = %f, want %f", second, first*DefaultPositionDamping)
	}

	floor := first * DefaultPositionFloor
	if tenth < floor-1e-9 {
		t.Errorf("tenth same-type weight = %f, below floor %f", tenth, floor)
	}
}

func TestCalculator_RepeatedWeakSignalsSaturate(t *testing.T) {
	calc := NewCalculator()
	now := time.Now()

	var evidence []domain.EvidenceRecord
	for i := 0; i < 50; i++ {
		evidence = append(evidence, freshEvidence(domain.EvidenceBehavioralSignal, domain.SourceExchange, now))
	}

	res := calc.Score(evidence, now)
	if res.Confidence > DefaultMaxConfidence {
		t.Errorf("confidence %f exceeds cap", res.Confidence)
	}
}

func TestCalculator_InitialConfidenceFormingBand(t *testing.T) {
	calc := NewCalculator()

	tests := []struct {
		name       string
		dataPoints int
		effectSize float64
	}{
		{"small weak", 10, 0.2},
		{"large strong", 200, 0.9},
		{"huge", 10000, 1.0},
	}

	base := calc.BaseWeight(domain.EvidencePatternObservation)
	rel := calc.Reliability(domain.SourceObserver)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := calc.InitialConfidence(base, rel, tt.dataPoints, tt.effectSize)
			if conf < 0 || conf > 1 {
				t.Fatalf("initial confidence %f out of [0,1]", conf)
			}
			if conf >= TestingThreshold {
				t.Errorf("observer-seeded initial confidence %f should start forming", conf)
			}
		})
	}
}

func TestCalculator_InitialConfidenceMonotoneInEffect(t *testing.T) {
	calc := NewCalculator()
	base := calc.BaseWeight(domain.EvidencePatternObservation)
	rel := calc.Reliability(domain.SourceObserver)

	weak := calc.InitialConfidence(base, rel, 30, 0.1)
	strong := calc.InitialConfidence(base, rel, 30, 0.9)

	if strong <= weak {
		t.Errorf("stronger effect did not raise initial confidence: %f vs %f", weak, strong)
	}
}
