package service

import (
	"fmt"
	"regexp"

	"github.com/augurhq/augur/internal/domain"
	"go.uber.org/zap"
)

// ExtractedEvidence is one evidence candidate pulled from conversational text.
type ExtractedEvidence struct {
	Type        domain.EvidenceType `json:"type"`
	Description string              `json:"description"`
	Signal      string              `json:"signal"`
}

var (
	moodPositiveRe = regexp.MustCompile(`(?i)\b(feeling (great|good|amazing|wonderful)|in a (great|good) mood|really happy|so happy|uplifted)\b`)
	moodNegativeRe = regexp.MustCompile(`(?i)\b(feeling (down|low|awful|terrible|off)|in a (bad|foul) mood|really sad|depressed|miserable)\b`)
	energyHighRe   = regexp.MustCompile(`(?i)\b(full of energy|so energized|wired|buzzing|can't sit still|very productive)\b`)
	energyLowRe    = regexp.MustCompile(`(?i)\b(exhausted|drained|no energy|so tired|wiped out|burned out|sluggish)\b`)
	agreementRe    = regexp.MustCompile(`(?i)\b(that's (right|true|exactly it)|exactly right|spot on|you're right|so true|definitely noticed that)\b`)
	disagreementRe = regexp.MustCompile(`(?i)\b(that's (wrong|not true|not right)|i disagree|not really|doesn't match|haven't noticed that|no,? that's off)\b`)
)

// ExchangeService feeds ad-hoc evidence from live conversation turns into the
// hypothesis engine. It never returns an error: extraction is best-effort and
// failures are logged and swallowed.
type ExchangeService struct {
	engine *Engine
	logger *zap.Logger
}

func NewExchangeService(engine *Engine, logger *zap.Logger) *ExchangeService {
	return &ExchangeService{engine: engine, logger: logger}
}

// ExtractEvidence scans one exchange for mood and energy language and
// explicit agreement or disagreement, returning zero or more evidence
// descriptors. Only the user's side is scanned: the agent's text says nothing
// about the user's state, so agentText is accepted for call-site symmetry and
// ignored.
func (s *ExchangeService) ExtractEvidence(userText, agentText string) []ExtractedEvidence {
	var out []ExtractedEvidence

	if m := moodPositiveRe.FindString(userText); m != "" {
		out = append(out, ExtractedEvidence{
			Type:        domain.EvidenceBehavioralSignal,
			Description: fmt.Sprintf("User expressed elevated mood: %q", m),
			Signal:      "mood_positive",
		})
	}
	if m := moodNegativeRe.FindString(userText); m != "" {
		out = append(out, ExtractedEvidence{
			Type:        domain.EvidenceBehavioralSignal,
			Description: fmt.Sprintf("User expressed low mood: %q", m),
			Signal:      "mood_negative",
		})
	}
	if m := energyHighRe.FindString(userText); m != "" {
		out = append(out, ExtractedEvidence{
			Type:        domain.EvidenceBehavioralSignal,
			Description: fmt.Sprintf("User expressed high energy: %q", m),
			Signal:      "energy_high",
		})
	}
	if m := energyLowRe.FindString(userText); m != "" {
		out = append(out, ExtractedEvidence{
			Type:        domain.EvidenceBehavioralSignal,
			Description: fmt.Sprintf("User expressed low energy: %q", m),
			Signal:      "energy_low",
		})
	}
	if m := agreementRe.FindString(userText); m != "" {
		out = append(out, ExtractedEvidence{
			Type:        domain.EvidenceJournalAnalysis,
			Description: fmt.Sprintf("User agreed with an observation: %q", m),
			Signal:      "agreement",
		})
	}
	if m := disagreementRe.FindString(userText); m != "" {
		out = append(out, ExtractedEvidence{
			Type:        domain.EvidenceContradictingEntry,
			Description: fmt.Sprintf("User pushed back on an observation: %q", m),
			Signal:      "disagreement",
		})
	}

	return out
}

// TestExchange extracts evidence from one exchange and applies each item to
// every active hypothesis. No topical relevance filtering is done: an item
// either updates all active hypotheses or none.
func (s *ExchangeService) TestExchange(userText, agentText string) []domain.HypothesisUpdate {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("exchange evidence testing panicked", zap.Any("panic", r))
		}
	}()

	if len(s.engine.Active()) == 0 {
		return nil
	}

	extracted := s.ExtractEvidence(userText, agentText)
	if len(extracted) == 0 {
		return nil
	}

	var updates []domain.HypothesisUpdate
	for _, item := range extracted {
		batch := s.engine.TestEvidence(item.Type, domain.SourceExchange, item.Description,
			func(*domain.Hypothesis) bool { return true }, nil)
		updates = append(updates, batch...)
	}

	s.logger.Info("exchange evidence applied",
		zap.Int("extracted", len(extracted)),
		zap.Int("updates", len(updates)))

	return updates
}
