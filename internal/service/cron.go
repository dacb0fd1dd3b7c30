package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/augurhq/augur/internal/domain"
	"go.uber.org/zap"
)

const (
	DefaultObserverInterval = 24 * time.Hour
	DefaultLookbackDays     = 90
)

var (
	ErrNoObservationYet       = errors.New("no observation cycle has run yet")
	ErrPatternIndexOutOfRange = errors.New("pattern index out of range")
)

// CycleResult summarizes one observer cycle. A cycle never fails as a whole;
// stage failures are collected into Errors.
type CycleResult struct {
	StartedAt           time.Time `json:"started_at"`
	EntriesAnalyzed     int       `json:"entries_analyzed"`
	DaysCovered         int       `json:"days_covered"`
	PatternsDetected    int       `json:"patterns_detected"`
	HypothesesGenerated int       `json:"hypotheses_generated"`
	StaleTransitions    int       `json:"stale_transitions"`
	ActiveCount         int       `json:"active_count"`
	ConfirmedCount      int       `json:"confirmed_count"`
	Errors              []string  `json:"errors,omitempty"`
}

// ObserverService runs full observe-generate-refresh cycles on a schedule and
// keeps the most recent observation around for the query surface.
type ObserverService struct {
	entries  domain.EntrySource
	hypStore domain.HypothesisStore // optional; nil disables persistence
	observer *Observer
	engine   *Engine
	logger   *zap.Logger

	lookbackDays int
	interval     time.Duration
	stopCh       chan struct{}
	wg           sync.WaitGroup

	mu   sync.Mutex
	last *domain.ObservationResult
}

func NewObserverService(entries domain.EntrySource, observer *Observer, engine *Engine, logger *zap.Logger) *ObserverService {
	return &ObserverService{
		entries:      entries,
		observer:     observer,
		engine:       engine,
		logger:       logger,
		lookbackDays: DefaultLookbackDays,
		interval:     DefaultObserverInterval,
		stopCh:       make(chan struct{}),
	}
}

// SetHypothesisStore enables snapshot persistence after each cycle.
func (s *ObserverService) SetHypothesisStore(store domain.HypothesisStore) {
	s.hypStore = store
}

func (s *ObserverService) SetInterval(d time.Duration) {
	s.interval = d
}

func (s *ObserverService) SetLookbackDays(days int) {
	if days > 0 {
		s.lookbackDays = days
	}
}

// Start runs observer cycles on a periodic schedule in a background goroutine.
func (s *ObserverService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("observer worker started", zap.Duration("interval", s.interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				s.RunCycle(ctx)
				cancel()
			case <-s.stopCh:
				s.logger.Info("observer worker stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the worker.
func (s *ObserverService) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

// RunCycle loads entries, observes, generates hypotheses, refreshes stale
// statuses, and persists changed hypotheses. Every stage degrades into an
// error note in the summary instead of propagating.
func (s *ObserverService) RunCycle(ctx context.Context) *CycleResult {
	result := &CycleResult{StartedAt: time.Now()}

	entries, err := s.loadEntries(ctx)
	if err != nil {
		result.Errors = append(result.Errors, "load entries: "+err.Error())
		s.logger.Error("observer cycle failed to load entries", zap.Error(err))
	}

	observation := s.observer.Observe(entries)
	result.EntriesAnalyzed = observation.EntriesAnalyzed
	result.DaysCovered = observation.DaysCovered
	result.PatternsDetected = len(observation.Patterns)

	s.mu.Lock()
	s.last = &observation
	s.mu.Unlock()

	created := s.engine.GenerateFromPatterns(observation.Patterns)
	result.HypothesesGenerated = len(created)

	result.StaleTransitions = s.engine.RefreshStaleStatus()
	result.ActiveCount = len(s.engine.Active())
	result.ConfirmedCount = len(s.engine.Confirmed())

	if s.hypStore != nil {
		for _, h := range s.engine.All() {
			if err := s.hypStore.Save(ctx, h); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("save hypothesis %s: %v", h.ID, err))
				s.logger.Warn("failed to persist hypothesis",
					zap.String("id", h.ID.String()), zap.Error(err))
			}
		}
	}

	s.logger.Info("observer cycle complete",
		zap.Int("entries", result.EntriesAnalyzed),
		zap.Int("patterns", result.PatternsDetected),
		zap.Int("generated", result.HypothesesGenerated),
		zap.Int("stale_transitions", result.StaleTransitions),
		zap.Int("active", result.ActiveCount),
		zap.Int("confirmed", result.ConfirmedCount),
		zap.Int("errors", len(result.Errors)))

	return result
}

func (s *ObserverService) loadEntries(ctx context.Context) (entries []domain.Entry, err error) {
	if s.entries == nil {
		return nil, errors.New("no entry source configured")
	}
	// The loader is external code; contain a panic the same way a load error
	// is contained.
	defer func() {
		if r := recover(); r != nil {
			entries = nil
			err = fmt.Errorf("entry source panicked: %v", r)
		}
	}()
	return s.entries.LoadRecent(ctx, s.lookbackDays)
}

// LastObservation returns the most recent observation pass.
func (s *ObserverService) LastObservation() (*domain.ObservationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil, ErrNoObservationYet
	}
	out := *s.last
	out.Patterns = append([]domain.Pattern(nil), s.last.Patterns...)
	out.Skipped = append([]string(nil), s.last.Skipped...)
	return &out, nil
}

// PatternAt returns one pattern from the most recent pass by ordinal index.
func (s *ObserverService) PatternAt(index int) (*domain.Pattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil, ErrNoObservationYet
	}
	if index < 0 || index >= len(s.last.Patterns) {
		return nil, ErrPatternIndexOutOfRange
	}
	p := s.last.Patterns[index]
	return &p, nil
}
