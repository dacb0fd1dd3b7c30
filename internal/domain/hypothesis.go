package domain

import (
	"time"

	"github.com/google/uuid"
)

type HypothesisStatus string

const (
	StatusForming   HypothesisStatus = "forming"
	StatusTesting   HypothesisStatus = "testing"
	StatusConfirmed HypothesisStatus = "confirmed"
	StatusRejected  HypothesisStatus = "rejected"
	StatusStale     HypothesisStatus = "stale"
)

func ValidHypothesisStatus(s string) bool {
	switch HypothesisStatus(s) {
	case StatusForming, StatusTesting, StatusConfirmed, StatusRejected, StatusStale:
		return true
	}
	return false
}

// Terminal reports whether evidence testing may still mutate a hypothesis in
// this status. Stale is terminal: nothing reintroduces evidence to it.
func (s HypothesisStatus) Terminal() bool {
	return s == StatusConfirmed || s == StatusRejected || s == StatusStale
}

type EvidenceType string

const (
	EvidencePatternObservation EvidenceType = "pattern_observation"
	EvidenceJournalAnalysis    EvidenceType = "journal_analysis"
	EvidenceBehavioralSignal   EvidenceType = "behavioral_signal"
	EvidenceUserConfirmation   EvidenceType = "user_confirmation"
	EvidenceUserRejection      EvidenceType = "user_rejection"
	EvidenceContradictingEntry EvidenceType = "contradicting_entry"
	EvidenceManualEntry        EvidenceType = "manual_entry"
)

func ValidEvidenceType(e string) bool {
	switch EvidenceType(e) {
	case EvidencePatternObservation, EvidenceJournalAnalysis, EvidenceBehavioralSignal,
		EvidenceUserConfirmation, EvidenceUserRejection, EvidenceContradictingEntry,
		EvidenceManualEntry:
		return true
	}
	return false
}

type EvidenceSource string

const (
	SourceObserver        EvidenceSource = "observer"
	SourceJournalAnalysis EvidenceSource = "journal_analysis"
	SourceUser            EvidenceSource = "user"
	SourceExchange        EvidenceSource = "exchange"
	SourceOperator        EvidenceSource = "operator"
)

// EvidenceRecord is one weighted unit of support or contradiction. Records
// are append-only; Position is the ordinal index within the hypothesis.
type EvidenceRecord struct {
	Type        EvidenceType   `json:"type"`
	Source      EvidenceSource `json:"source"`
	Description string         `json:"description"`
	Position    int            `json:"position"`
	RecordedAt  time.Time      `json:"recorded_at"`
	// OccurredAt is when the underlying event happened, which may predate
	// RecordedAt. Recency decay is measured from here.
	OccurredAt      time.Time `json:"occurred_at"`
	EffectiveWeight float64   `json:"effective_weight"` // negative = contradicting
}

// ConfidenceSnapshot is one audit-trail point appended on every rescore.
type ConfidenceSnapshot struct {
	Value      float64   `json:"value"`
	Source     string    `json:"source"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Hypothesis is a candidate belief with an evidence trail and a lifecycle.
// Confidence is always the calculator's output over Evidence, and Status is
// always the resolver's output; neither is ever assigned directly.
type Hypothesis struct {
	ID             uuid.UUID            `json:"id"`
	Type           PatternType          `json:"type"`
	Status         HypothesisStatus     `json:"status"`
	Statement      string               `json:"statement"`
	Category       string               `json:"category,omitempty"`
	Confidence     float64              `json:"confidence"`
	Evidence       []EvidenceRecord     `json:"evidence"`
	History        []ConfidenceSnapshot `json:"history"`
	PeriodEvidence map[string]int       `json:"period_evidence,omitempty"`
	GateEvidence   map[string]int       `json:"gate_evidence,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	LastEvidenceAt time.Time            `json:"last_evidence_at"`
}

// HypothesisUpdate reports one evidence-test mutation for a caller.
type HypothesisUpdate struct {
	ID             uuid.UUID        `json:"id"`
	Statement      string           `json:"statement"`
	OldConfidence  float64          `json:"old_confidence"`
	NewConfidence  float64          `json:"new_confidence"`
	OldStatus      HypothesisStatus `json:"old_status"`
	NewStatus      HypothesisStatus `json:"new_status"`
	EvidenceAdded  EvidenceType     `json:"evidence_added"`
	EvidenceSource EvidenceSource   `json:"evidence_source"`
}
