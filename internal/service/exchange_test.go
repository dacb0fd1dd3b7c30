package service

import (
	"testing"

	"github.com/augurhq/augur/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExtractEvidence(t *testing.T) {
	svc := NewExchangeService(newTestEngine(), zap.NewNop())

	tests := []struct {
		name    string
		text    string
		signals []string
	}{
		{"positive mood", "honestly I'm feeling great today", []string{"mood_positive"}},
		{"negative mood", "been feeling down all week", []string{"mood_negative"}},
		{"high energy", "I'm so energized this morning", []string{"energy_high"}},
		{"low energy", "completely exhausted after that call", []string{"energy_low"}},
		{"agreement", "yes, that's exactly it", []string{"agreement"}},
		{"disagreement", "hmm, I disagree with that one", []string{"disagreement"}},
		{"mixed", "feeling great but so tired", []string{"mood_positive", "energy_low"}},
		{"neutral", "the weather was fine yesterday", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.ExtractEvidence(tt.text, "")
			require.Len(t, got, len(tt.signals))
			for i, sig := range tt.signals {
				assert.Equal(t, sig, got[i].Signal)
			}
		})
	}
}

func TestExtractEvidence_Types(t *testing.T) {
	svc := NewExchangeService(newTestEngine(), zap.NewNop())

	got := svc.ExtractEvidence("feeling great, and you're right about the moon thing, but no, that's off about mornings", "")
	require.Len(t, got, 3)

	bySignal := make(map[string]domain.EvidenceType)
	for _, e := range got {
		bySignal[e.Signal] = e.Type
	}
	assert.Equal(t, domain.EvidenceBehavioralSignal, bySignal["mood_positive"])
	assert.Equal(t, domain.EvidenceJournalAnalysis, bySignal["agreement"])
	assert.Equal(t, domain.EvidenceContradictingEntry, bySignal["disagreement"])
}

func TestExchange_NoActiveHypotheses(t *testing.T) {
	engine := newTestEngine()
	svc := NewExchangeService(engine, zap.NewNop())

	updates := svc.TestExchange("feeling great today", "")
	assert.Empty(t, updates)
}

func TestExchange_NoSignals(t *testing.T) {
	engine := newTestEngine()
	engine.GenerateFromPatterns([]domain.Pattern{moodPattern()})
	svc := NewExchangeService(engine, zap.NewNop())

	updates := svc.TestExchange("we talked about dinner plans", "")
	assert.Empty(t, updates)

	h := engine.All()[0]
	assert.Len(t, h.Evidence, 1)
}

func TestExchange_FansOutToAllActives(t *testing.T) {
	engine := newTestEngine()
	p2 := moodPattern()
	p2.Type = domain.PatternEnergyCorrelation
	p2.Description = "Energy drops with solar activity (r=-0.80, n=30)"
	engine.GenerateFromPatterns([]domain.Pattern{moodPattern(), p2})
	svc := NewExchangeService(engine, zap.NewNop())

	updates := svc.TestExchange("feeling great today", "")
	require.Len(t, updates, 2)
	for _, u := range updates {
		assert.Equal(t, domain.SourceExchange, u.EvidenceSource)
		assert.Equal(t, domain.EvidenceBehavioralSignal, u.EvidenceAdded)
		assert.Greater(t, u.NewConfidence, u.OldConfidence)
	}

	// Two signals in one turn means two evidence records per hypothesis.
	updates = svc.TestExchange("feeling great but so tired", "")
	assert.Len(t, updates, 4)
}

func TestExchange_DisagreementLowersConfidence(t *testing.T) {
	engine := newTestEngine()
	engine.GenerateFromPatterns([]domain.Pattern{moodPattern()})
	svc := NewExchangeService(engine, zap.NewNop())

	updates := svc.TestExchange("no, I disagree, haven't noticed that at all", "")
	require.NotEmpty(t, updates)
	assert.Less(t, updates[0].NewConfidence, updates[0].OldConfidence)
}
