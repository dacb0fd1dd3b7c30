package service

import (
	"testing"
	"time"

	"github.com/augurhq/augur/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEngine() *Engine {
	return NewEngine(NewCalculator(), zap.NewNop())
}

func moodPattern() domain.Pattern {
	return domain.Pattern{
		Type:         domain.PatternMoodCorrelation,
		Confidence:   0.8,
		Description:  "Mood trends higher with lunar illumination (r=0.90, n=30)",
		PValue:       0.01,
		EffectSize:   0.9,
		EvidenceType: domain.EvidencePatternObservation,
		DataPoints:   30,
		DetectedAt:   time.Now(),
	}
}

func TestResolveStatus(t *testing.T) {
	tests := []struct {
		name           string
		confidence     float64
		contradictions bool
		days           float64
		want           domain.HypothesisStatus
	}{
		{"just above confirmation", 0.86, false, 0, domain.StatusConfirmed},
		{"at confirmation bar stays testing", 0.85, false, 0, domain.StatusTesting},
		{"at testing bar", 0.60, false, 0, domain.StatusTesting},
		{"just below testing bar", 0.59, false, 0, domain.StatusForming},
		{"low with contradiction", 0.19, true, 0, domain.StatusRejected},
		{"low without contradiction", 0.19, false, 0, domain.StatusForming},
		{"stale overrides confirmation", 0.95, false, 61, domain.StatusStale},
		{"stale at exact boundary", 0.50, false, 60, domain.StatusStale},
		{"not yet stale", 0.50, false, 59.9, domain.StatusForming},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveStatus(tt.confidence, tt.contradictions, tt.days)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEngine_GenerateFromPatterns(t *testing.T) {
	e := newTestEngine()

	created := e.GenerateFromPatterns([]domain.Pattern{moodPattern()})
	require.Len(t, created, 1)

	h := created[0]
	assert.Equal(t, domain.StatusForming, h.Status)
	assert.Equal(t, domain.PatternMoodCorrelation, h.Type)
	assert.Equal(t, "celestial", h.Category)
	assert.Greater(t, h.Confidence, 0.0)
	assert.Less(t, h.Confidence, TestingThreshold)
	require.Len(t, h.Evidence, 1)
	assert.Equal(t, domain.SourceObserver, h.Evidence[0].Source)
	require.Len(t, h.History, 1)
	assert.Equal(t, "generation", h.History[0].Source)
}

func TestEngine_GenerateDeduplicates(t *testing.T) {
	e := newTestEngine()

	first := e.GenerateFromPatterns([]domain.Pattern{moodPattern()})
	require.Len(t, first, 1)

	// Same type and statement again, from a later cycle.
	p := moodPattern()
	p.DetectedAt = p.DetectedAt.Add(24 * time.Hour)
	second := e.GenerateFromPatterns([]domain.Pattern{p})
	assert.Empty(t, second)
	assert.Len(t, e.All(), 1)

	// A different statement is a different hypothesis.
	p2 := moodPattern()
	p2.Description = "Mood trends lower with lunar illumination (r=-0.90, n=30)"
	third := e.GenerateFromPatterns([]domain.Pattern{p2})
	assert.Len(t, third, 1)
}

func TestEngine_ConfirmationLifecycle(t *testing.T) {
	e := newTestEngine()
	h := e.GenerateFromPatterns([]domain.Pattern{moodPattern()})[0]
	require.Equal(t, domain.StatusForming, h.Status)

	// First confirmation lifts a freshly seeded hypothesis into testing.
	upd, err := e.UserConfirm(h.ID, "matches my experience")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusForming, upd.OldStatus)
	assert.Equal(t, domain.StatusTesting, upd.NewStatus)
	assert.Greater(t, upd.NewConfidence, upd.OldConfidence)

	// Second confirmation crosses the confirmation bar.
	upd, err = e.UserConfirm(h.ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, upd.NewStatus)
	assert.Greater(t, upd.NewConfidence, ConfirmationThreshold)

	// Confirmed is terminal.
	_, err = e.UserConfirm(h.ID, "")
	assert.ErrorIs(t, err, ErrHypothesisInactive)

	got, err := e.Get(h.ID)
	require.NoError(t, err)
	assert.Len(t, got.Evidence, 3)
	assert.Len(t, got.History, 3)
}

func TestEngine_RejectionLifecycle(t *testing.T) {
	e := newTestEngine()
	h := e.GenerateFromPatterns([]domain.Pattern{moodPattern()})[0]

	upd, err := e.UserConfirm(h.ID, "")
	require.NoError(t, err)
	require.Equal(t, domain.StatusTesting, upd.NewStatus)

	// A rejection from mid-confidence drops straight through the floor.
	upd, err = e.UserReject(h.ID, "never noticed this")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, upd.NewStatus)
	assert.Less(t, upd.NewConfidence, RejectionThreshold)

	_, err = e.UserReject(h.ID, "")
	assert.ErrorIs(t, err, ErrHypothesisInactive)
}

func TestEngine_VerdictUnknownID(t *testing.T) {
	e := newTestEngine()
	_, err := e.UserConfirm(uuid.New(), "")
	assert.ErrorIs(t, err, ErrHypothesisNotFound)
}

func TestEngine_TestEvidenceFanOut(t *testing.T) {
	e := newTestEngine()
	p2 := moodPattern()
	p2.Type = domain.PatternEnergyCorrelation
	p2.Description = "Energy drops with solar activity (r=-0.80, n=30)"
	e.GenerateFromPatterns([]domain.Pattern{moodPattern(), p2})

	updates := e.TestEvidence(domain.EvidenceBehavioralSignal, domain.SourceExchange,
		"User reported high energy", func(*domain.Hypothesis) bool { return true }, nil)
	assert.Len(t, updates, 2)

	// A selective predicate narrows the fan-out.
	updates = e.TestEvidence(domain.EvidenceBehavioralSignal, domain.SourceExchange,
		"User reported high energy",
		func(h *domain.Hypothesis) bool { return h.Type == domain.PatternEnergyCorrelation }, nil)
	assert.Len(t, updates, 1)
}

func TestEngine_CreateManual(t *testing.T) {
	e := newTestEngine()

	h, err := e.CreateManual("Mood dips during mercury retrograde", "celestial")
	require.NoError(t, err)
	assert.Equal(t, domain.PatternManual, h.Type)
	assert.Equal(t, domain.StatusForming, h.Status)
	require.Len(t, h.Evidence, 1)
	assert.Equal(t, domain.SourceOperator, h.Evidence[0].Source)

	_, err = e.CreateManual("Mood dips during mercury retrograde", "celestial")
	assert.ErrorIs(t, err, ErrDuplicateHypothesis)

	_, err = e.CreateManual("", "celestial")
	assert.ErrorIs(t, err, ErrStatementMissing)
}

func TestEngine_StaleRefresh(t *testing.T) {
	e := newTestEngine()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e.SetClock(func() time.Time { return base })

	h := e.GenerateFromPatterns([]domain.Pattern{moodPattern()})[0]

	// 59 days without evidence is still fine.
	e.SetClock(func() time.Time { return base.AddDate(0, 0, 59) })
	assert.Equal(t, 0, e.RefreshStaleStatus())

	// 61 days tips it over, and stale is terminal.
	e.SetClock(func() time.Time { return base.AddDate(0, 0, 61) })
	assert.Equal(t, 1, e.RefreshStaleStatus())

	got, err := e.Get(h.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusStale, got.Status)

	_, err = e.UserConfirm(h.ID, "")
	assert.ErrorIs(t, err, ErrHypothesisInactive)

	// Re-running is a no-op.
	assert.Equal(t, 0, e.RefreshStaleStatus())
}

func TestEngine_Filters(t *testing.T) {
	e := newTestEngine()
	h1 := e.GenerateFromPatterns([]domain.Pattern{moodPattern()})[0]
	_, err := e.CreateManual("Energy peaks on full moons", "celestial")
	require.NoError(t, err)

	_, err = e.UserConfirm(h1.ID, "")
	require.NoError(t, err)
	_, err = e.UserConfirm(h1.ID, "")
	require.NoError(t, err)

	assert.Len(t, e.All(), 2)
	assert.Len(t, e.Active(), 1)
	assert.Len(t, e.Confirmed(), 1)
	assert.Len(t, e.ByStatus(domain.StatusForming), 1)
	assert.Empty(t, e.ByStatus(domain.StatusRejected))
}

func TestEngine_LoadIsAdditive(t *testing.T) {
	e := newTestEngine()
	h := e.GenerateFromPatterns([]domain.Pattern{moodPattern()})[0]

	loaded := &domain.Hypothesis{
		ID:             uuid.New(),
		Type:           domain.PatternManual,
		Status:         domain.StatusTesting,
		Statement:      "Hydrated from the store",
		Confidence:     0.65,
		CreatedAt:      time.Now().Add(-time.Hour),
		UpdatedAt:      time.Now(),
		LastEvidenceAt: time.Now(),
	}
	e.Load([]*domain.Hypothesis{loaded, nil})

	assert.Len(t, e.All(), 2)

	got, err := e.Get(h.ID)
	require.NoError(t, err)
	assert.Equal(t, h.Statement, got.Statement)

	got, err = e.Get(loaded.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hydrated from the store", got.Statement)
}

func TestEngine_CloneIsolation(t *testing.T) {
	e := newTestEngine()
	h := e.GenerateFromPatterns([]domain.Pattern{moodPattern()})[0]

	// Mutating a returned copy must not touch engine state.
	h.Statement = "tampered"
	h.Evidence[0].Description = "tampered"

	got, err := e.Get(h.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "tampered", got.Statement)
	assert.NotEqual(t, "tampered", got.Evidence[0].Description)
}
