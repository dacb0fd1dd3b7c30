package service

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/augurhq/augur/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrHypothesisNotFound  = errors.New("hypothesis not found")
	ErrHypothesisInactive  = errors.New("hypothesis is no longer accepting evidence")
	ErrDuplicateHypothesis = errors.New("equivalent hypothesis already exists")
	ErrStatementMissing    = errors.New("statement is required")
)

const (
	// ConfirmationThreshold promotes a hypothesis to confirmed above it.
	ConfirmationThreshold = 0.85
	// TestingThreshold separates forming from testing.
	TestingThreshold = 0.60
	// RejectionThreshold rejects below it, but only with a contradiction on
	// record.
	RejectionThreshold = 0.20
	// StaleAfterDays marks a hypothesis stale once this long passes without
	// new evidence. Stale is terminal.
	StaleAfterDays = 60
)

// ResolveStatus maps a confidence reading onto a lifecycle status. Staleness
// overrides everything else. This is the only code path that produces a
// status value.
func ResolveStatus(confidence float64, hasContradictions bool, daysSinceEvidence float64) domain.HypothesisStatus {
	switch {
	case daysSinceEvidence >= StaleAfterDays:
		return domain.StatusStale
	case confidence > ConfirmationThreshold:
		return domain.StatusConfirmed
	case confidence < RejectionThreshold && hasContradictions:
		return domain.StatusRejected
	case confidence >= TestingThreshold:
		return domain.StatusTesting
	default:
		return domain.StatusForming
	}
}

// Engine owns the in-memory hypothesis collection and its lifecycle. Every
// mutation sequence (append evidence, rescore, snapshot, re-resolve) runs
// under one mutex so a concurrent update can never read stale evidence.
type Engine struct {
	mu         sync.Mutex
	hypotheses map[uuid.UUID]*domain.Hypothesis
	calc       *Calculator
	logger     *zap.Logger
	now        func() time.Time
}

func NewEngine(calc *Calculator, logger *zap.Logger) *Engine {
	return &Engine{
		hypotheses: make(map[uuid.UUID]*domain.Hypothesis),
		calc:       calc,
		logger:     logger,
		now:        time.Now,
	}
}

// SetClock overrides the engine's clock. Tests only.
func (e *Engine) SetClock(now func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = now
}

// GenerateFromPatterns turns detector output into hypotheses. A pattern whose
// (type, statement) already exists on a non-rejected hypothesis is skipped.
// Each new hypothesis gets one seed evidence record and an initial confidence
// from the calculator's one-shot formula.
func (e *Engine) GenerateFromPatterns(patterns []domain.Pattern) []*domain.Hypothesis {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	var created []*domain.Hypothesis

	for _, p := range patterns {
		if e.duplicateExistsLocked(p.Type, p.Description) {
			e.logger.Debug("skipping duplicate pattern",
				zap.String("type", string(p.Type)),
				zap.String("statement", p.Description))
			continue
		}

		seed := domain.EvidenceRecord{
			Type:        p.EvidenceType,
			Source:      domain.SourceObserver,
			Description: fmt.Sprintf("Detected with p=%.3f, effect size %.2f over %d entries", p.PValue, p.EffectSize, p.DataPoints),
			Position:    0,
			RecordedAt:  now,
			OccurredAt:  p.DetectedAt,
		}
		seed.EffectiveWeight = e.calc.ItemWeight(seed, 0, now)

		confidence := e.calc.InitialConfidence(
			e.calc.BaseWeight(p.EvidenceType),
			e.calc.Reliability(domain.SourceObserver),
			p.DataPoints,
			p.EffectSize,
		)

		h := &domain.Hypothesis{
			ID:             uuid.New(),
			Type:           p.Type,
			Status:         ResolveStatus(confidence, false, 0),
			Statement:      p.Description,
			Category:       categoryFor(p.Type),
			Confidence:     confidence,
			Evidence:       []domain.EvidenceRecord{seed},
			History:        []domain.ConfidenceSnapshot{{Value: confidence, Source: "generation", RecordedAt: now}},
			CreatedAt:      now,
			UpdatedAt:      now,
			LastEvidenceAt: now,
		}
		recordCorrelates(h, p)

		e.hypotheses[h.ID] = h
		created = append(created, cloneHypothesis(h))

		e.logger.Info("hypothesis generated",
			zap.String("id", h.ID.String()),
			zap.String("type", string(h.Type)),
			zap.Float64("confidence", confidence),
			zap.String("status", string(h.Status)))
	}

	return created
}

// TestEvidence applies one unit of evidence to every forming or testing
// hypothesis the predicate matches. The whole append-rescore-restatus
// sequence per hypothesis runs inside the engine lock.
func (e *Engine) TestEvidence(
	evidenceType domain.EvidenceType,
	source domain.EvidenceSource,
	description string,
	match func(*domain.Hypothesis) bool,
	occurredAt *time.Time,
) []domain.HypothesisUpdate {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	eventTime := now
	if occurredAt != nil {
		eventTime = *occurredAt
	}

	var updates []domain.HypothesisUpdate
	for _, h := range e.sortedLocked() {
		if h.Status.Terminal() {
			continue
		}
		if !match(h) {
			continue
		}

		sameType := 0
		for _, rec := range h.Evidence {
			if rec.Type == evidenceType {
				sameType++
			}
		}

		rec := domain.EvidenceRecord{
			Type:        evidenceType,
			Source:      source,
			Description: description,
			Position:    len(h.Evidence),
			RecordedAt:  now,
			OccurredAt:  eventTime,
		}
		rec.EffectiveWeight = e.calc.ItemWeight(rec, sameType, now)

		oldConfidence := h.Confidence
		oldStatus := h.Status

		h.Evidence = append(h.Evidence, rec)
		res := e.calc.Score(h.Evidence, now)
		h.Confidence = res.Confidence
		h.History = append(h.History, domain.ConfidenceSnapshot{
			Value:      res.Confidence,
			Source:     string(source),
			RecordedAt: now,
		})
		h.Status = ResolveStatus(res.Confidence, res.HasContradictions, 0)
		h.UpdatedAt = now
		h.LastEvidenceAt = now

		updates = append(updates, domain.HypothesisUpdate{
			ID:             h.ID,
			Statement:      h.Statement,
			OldConfidence:  oldConfidence,
			NewConfidence:  h.Confidence,
			OldStatus:      oldStatus,
			NewStatus:      h.Status,
			EvidenceAdded:  evidenceType,
			EvidenceSource: source,
		})

		e.logger.Debug("evidence applied",
			zap.String("id", h.ID.String()),
			zap.String("evidence_type", string(evidenceType)),
			zap.Float64("old_confidence", oldConfidence),
			zap.Float64("new_confidence", h.Confidence),
			zap.String("status", string(h.Status)))
	}

	return updates
}

// UserConfirm applies a strong positive user verdict to one hypothesis.
func (e *Engine) UserConfirm(id uuid.UUID, note string) (*domain.HypothesisUpdate, error) {
	return e.userVerdict(id, domain.EvidenceUserConfirmation, "User confirmed hypothesis", note)
}

// UserReject applies a strong negative user verdict to one hypothesis.
func (e *Engine) UserReject(id uuid.UUID, note string) (*domain.HypothesisUpdate, error) {
	return e.userVerdict(id, domain.EvidenceUserRejection, "User rejected hypothesis", note)
}

func (e *Engine) userVerdict(id uuid.UUID, evidenceType domain.EvidenceType, description, note string) (*domain.HypothesisUpdate, error) {
	if note != "" {
		description = description + ": " + note
	}

	updates := e.TestEvidence(evidenceType, domain.SourceUser, description,
		func(h *domain.Hypothesis) bool { return h.ID == id }, nil)
	if len(updates) == 1 {
		return &updates[0], nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	h, ok := e.hypotheses[id]
	if !ok {
		return nil, ErrHypothesisNotFound
	}
	if h.Status.Terminal() {
		return nil, ErrHypothesisInactive
	}
	return nil, ErrHypothesisNotFound
}

// CreateManual registers an operator-supplied hypothesis through the same
// deduplication path pattern generation uses.
func (e *Engine) CreateManual(statement, category string) (*domain.Hypothesis, error) {
	if statement == "" {
		return nil, ErrStatementMissing
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.duplicateExistsLocked(domain.PatternManual, statement) {
		return nil, ErrDuplicateHypothesis
	}

	now := e.now()
	seed := domain.EvidenceRecord{
		Type:        domain.EvidenceManualEntry,
		Source:      domain.SourceOperator,
		Description: "Manually created hypothesis",
		Position:    0,
		RecordedAt:  now,
		OccurredAt:  now,
	}
	seed.EffectiveWeight = e.calc.ItemWeight(seed, 0, now)

	confidence := e.calc.InitialConfidence(
		e.calc.BaseWeight(domain.EvidenceManualEntry),
		e.calc.Reliability(domain.SourceOperator),
		1, 0.5,
	)

	h := &domain.Hypothesis{
		ID:             uuid.New(),
		Type:           domain.PatternManual,
		Status:         ResolveStatus(confidence, false, 0),
		Statement:      statement,
		Category:       category,
		Confidence:     confidence,
		Evidence:       []domain.EvidenceRecord{seed},
		History:        []domain.ConfidenceSnapshot{{Value: confidence, Source: "manual", RecordedAt: now}},
		CreatedAt:      now,
		UpdatedAt:      now,
		LastEvidenceAt: now,
	}
	e.hypotheses[h.ID] = h

	e.logger.Info("manual hypothesis created",
		zap.String("id", h.ID.String()),
		zap.Float64("confidence", confidence))

	return cloneHypothesis(h), nil
}

// RefreshStaleStatus re-resolves every active hypothesis against wall-clock
// time. This is the only path into the stale status.
func (e *Engine) RefreshStaleStatus() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	transitions := 0

	for _, h := range e.hypotheses {
		if h.Status.Terminal() {
			continue
		}
		days := now.Sub(h.LastEvidenceAt).Hours() / 24
		status := ResolveStatus(h.Confidence, hasContradictions(h), days)
		if status != h.Status {
			e.logger.Info("hypothesis status refreshed",
				zap.String("id", h.ID.String()),
				zap.String("from", string(h.Status)),
				zap.String("to", string(status)),
				zap.Float64("days_since_evidence", days))
			h.Status = status
			h.UpdatedAt = now
			transitions++
		}
	}
	return transitions
}

// Active returns forming and testing hypotheses.
func (e *Engine) Active() []*domain.Hypothesis {
	return e.filter(func(h *domain.Hypothesis) bool { return !h.Status.Terminal() })
}

// Confirmed returns confirmed hypotheses.
func (e *Engine) Confirmed() []*domain.Hypothesis {
	return e.filter(func(h *domain.Hypothesis) bool { return h.Status == domain.StatusConfirmed })
}

// ByStatus returns hypotheses in one status.
func (e *Engine) ByStatus(status domain.HypothesisStatus) []*domain.Hypothesis {
	return e.filter(func(h *domain.Hypothesis) bool { return h.Status == status })
}

// All returns every hypothesis, including terminal ones.
func (e *Engine) All() []*domain.Hypothesis {
	return e.filter(func(*domain.Hypothesis) bool { return true })
}

// Get returns one hypothesis by id.
func (e *Engine) Get(id uuid.UUID) (*domain.Hypothesis, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	h, ok := e.hypotheses[id]
	if !ok {
		return nil, ErrHypothesisNotFound
	}
	return cloneHypothesis(h), nil
}

// Load hydrates persisted hypotheses into the in-memory map. Additive: an
// incoming id that already exists overwrites, everything else is kept.
func (e *Engine) Load(hyps []*domain.Hypothesis) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, h := range hyps {
		if h == nil || h.ID == uuid.Nil {
			continue
		}
		e.hypotheses[h.ID] = cloneHypothesis(h)
	}
	e.logger.Info("hypotheses loaded", zap.Int("count", len(hyps)), zap.Int("total", len(e.hypotheses)))
}

// Reset clears the collection. Tests only.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hypotheses = make(map[uuid.UUID]*domain.Hypothesis)
}

func (e *Engine) filter(keep func(*domain.Hypothesis) bool) []*domain.Hypothesis {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []*domain.Hypothesis
	for _, h := range e.sortedLocked() {
		if keep(h) {
			out = append(out, cloneHypothesis(h))
		}
	}
	return out
}

// sortedLocked returns hypotheses ordered by creation time for deterministic
// iteration. Caller must hold the lock.
func (e *Engine) sortedLocked() []*domain.Hypothesis {
	out := make([]*domain.Hypothesis, 0, len(e.hypotheses))
	for _, h := range e.hypotheses {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (e *Engine) duplicateExistsLocked(t domain.PatternType, statement string) bool {
	for _, h := range e.hypotheses {
		if h.Type == t && h.Statement == statement && h.Status != domain.StatusRejected {
			return true
		}
	}
	return false
}

func hasContradictions(h *domain.Hypothesis) bool {
	for _, rec := range h.Evidence {
		if rec.EffectiveWeight < 0 {
			return true
		}
	}
	return false
}

func recordCorrelates(h *domain.Hypothesis, p domain.Pattern) {
	if p.Period != "" {
		if h.PeriodEvidence == nil {
			h.PeriodEvidence = make(map[string]int)
		}
		h.PeriodEvidence[p.Period]++
	}
	if p.Gate > 0 {
		if h.GateEvidence == nil {
			h.GateEvidence = make(map[string]int)
		}
		key := fmt.Sprintf("%d", p.Gate)
		if p.Line > 0 {
			key = fmt.Sprintf("%d.%d", p.Gate, p.Line)
		}
		h.GateEvidence[key]++
	}
}

func categoryFor(t domain.PatternType) string {
	switch t {
	case domain.PatternMoodCorrelation, domain.PatternEnergyCorrelation:
		return "celestial"
	case domain.PatternPeriodVariance, domain.PatternCrossPeriod:
		return "period"
	case domain.PatternGateVariance, domain.PatternThemeAlignment:
		return "gate"
	case domain.PatternTemporal:
		return "temporal"
	default:
		return "general"
	}
}

func cloneHypothesis(h *domain.Hypothesis) *domain.Hypothesis {
	c := *h
	c.Evidence = append([]domain.EvidenceRecord(nil), h.Evidence...)
	c.History = append([]domain.ConfidenceSnapshot(nil), h.History...)
	if h.PeriodEvidence != nil {
		c.PeriodEvidence = make(map[string]int, len(h.PeriodEvidence))
		for k, v := range h.PeriodEvidence {
			c.PeriodEvidence[k] = v
		}
	}
	if h.GateEvidence != nil {
		c.GateEvidence = make(map[string]int, len(h.GateEvidence))
		for k, v := range h.GateEvidence {
			c.GateEvidence[k] = v
		}
	}
	return &c
}
