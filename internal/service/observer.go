package service

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/augurhq/augur/internal/domain"
	"github.com/augurhq/augur/internal/stats"
	"go.uber.org/zap"
)

const (
	DefaultSignificanceLevel = 0.05

	minCorrelationPairs  = 10
	minVarianceGroups    = 3
	minVarianceGroupSize = 3
	minThemeEntries      = 5
	minTemporalDays      = 14
	minTemporalGroupSize = 3
	minDriftGroupSize    = 5

	themeAlignmentBar = 0.40
)

// gateThemes maps a gate to the note keywords its archetype is expected to
// surface. Gates without an entry are skipped by the alignment detector.
var gateThemes = map[int][]string{
	1:  {"create", "creative", "express", "art", "vision"},
	5:  {"rhythm", "routine", "habit", "pattern", "flow"},
	10: {"self", "identity", "behavior", "authentic"},
	14: {"work", "skill", "resource", "prosper"},
	25: {"spirit", "innocence", "love", "universal"},
	34: {"power", "strength", "busy", "momentum"},
	43: {"insight", "breakthrough", "idea", "knowing"},
	51: {"shock", "initiative", "compete", "courage"},
}

// Observer runs a fixed battery of independent statistical detectors over a
// batch of entries. Detectors that lack data skip with a reason; nothing in
// an observation pass returns an error.
type Observer struct {
	logger *zap.Logger

	// Alpha is the two-tailed significance bar a detector's p-value must
	// clear before a pattern is emitted.
	Alpha float64
}

func NewObserver(logger *zap.Logger) *Observer {
	return &Observer{
		logger: logger,
		Alpha:  DefaultSignificanceLevel,
	}
}

func (o *Observer) Observe(entries []domain.Entry) domain.ObservationResult {
	result := domain.ObservationResult{
		EntriesAnalyzed: len(entries),
		DaysCovered:     daysCovered(entries),
	}
	if len(entries) == 0 {
		result.Skipped = append(result.Skipped, "no entries in window")
		return result
	}

	now := time.Now()

	detectors := []func([]domain.Entry, time.Time) ([]domain.Pattern, []string){
		o.detectMoonMoodCorrelation,
		o.detectSolarEnergyCorrelation,
		o.detectPeriodVariance,
		o.detectGateVariance,
		o.detectThemeAlignment,
		o.detectTemporalSkew,
		o.detectCrossPeriodDrift,
	}

	for _, detect := range detectors {
		patterns, skipped := detect(entries, now)
		result.Patterns = append(result.Patterns, patterns...)
		result.Skipped = append(result.Skipped, skipped...)
	}

	o.logger.Info("observation pass complete",
		zap.Int("entries", result.EntriesAnalyzed),
		zap.Int("days", result.DaysCovered),
		zap.Int("patterns", len(result.Patterns)),
		zap.Int("skipped", len(result.Skipped)))

	return result
}

func daysCovered(entries []domain.Entry) int {
	if len(entries) == 0 {
		return 0
	}
	earliest, latest := entries[0].OccurredAt, entries[0].OccurredAt
	for _, e := range entries[1:] {
		if e.OccurredAt.Before(earliest) {
			earliest = e.OccurredAt
		}
		if e.OccurredAt.After(latest) {
			latest = e.OccurredAt
		}
	}
	return int(latest.Sub(earliest).Hours()/24) + 1
}

// detectorConfidence converts a detector's own p-value and effect size into
// its local confidence estimate. This is an input to the calculator's
// initial-confidence formula, not a replacement for it.
func detectorConfidence(pValue, effectSize float64) float64 {
	conf := (1 - pValue) * math.Min(1, math.Abs(effectSize))
	if conf > 0.95 {
		conf = 0.95
	}
	if conf < 0.05 {
		conf = 0.05
	}
	return conf
}

func (o *Observer) detectMoonMoodCorrelation(entries []domain.Entry, now time.Time) ([]domain.Pattern, []string) {
	var xs, ys []float64
	for _, e := range entries {
		illum, ok := e.MoonPhase.Illumination()
		if !ok || e.Mood == nil {
			continue
		}
		xs = append(xs, illum)
		ys = append(ys, *e.Mood)
	}
	if len(xs) < minCorrelationPairs {
		return nil, []string{fmt.Sprintf("moon/mood correlation: %d paired entries, need %d", len(xs), minCorrelationPairs)}
	}

	res, err := stats.Pearson(xs, ys)
	if err != nil {
		return nil, []string{"moon/mood correlation: " + err.Error()}
	}
	if res.PValue >= o.Alpha {
		return nil, nil
	}

	direction := "higher"
	if res.R < 0 {
		direction = "lower"
	}
	return []domain.Pattern{{
		Type:         domain.PatternMoodCorrelation,
		Confidence:   detectorConfidence(res.PValue, res.R),
		Description:  fmt.Sprintf("Mood trends %s with lunar illumination (r=%.2f, n=%d)", direction, res.R, res.N),
		PValue:       res.PValue,
		EffectSize:   math.Abs(res.R),
		EvidenceType: domain.EvidencePatternObservation,
		DataPoints:   res.N,
		DetectedAt:   now,
	}}, nil
}

func (o *Observer) detectSolarEnergyCorrelation(entries []domain.Entry, now time.Time) ([]domain.Pattern, []string) {
	var xs, ys []float64
	for _, e := range entries {
		if e.SolarActivity == nil || e.Energy == nil {
			continue
		}
		xs = append(xs, *e.SolarActivity)
		ys = append(ys, *e.Energy)
	}
	if len(xs) < minCorrelationPairs {
		return nil, []string{fmt.Sprintf("solar/energy correlation: %d paired entries, need %d", len(xs), minCorrelationPairs)}
	}

	res, err := stats.Pearson(xs, ys)
	if err != nil {
		return nil, []string{"solar/energy correlation: " + err.Error()}
	}
	if res.PValue >= o.Alpha {
		return nil, nil
	}

	direction := "rises"
	if res.R < 0 {
		direction = "drops"
	}
	return []domain.Pattern{{
		Type:         domain.PatternEnergyCorrelation,
		Confidence:   detectorConfidence(res.PValue, res.R),
		Description:  fmt.Sprintf("Energy %s with solar activity (r=%.2f, n=%d)", direction, res.R, res.N),
		PValue:       res.PValue,
		EffectSize:   math.Abs(res.R),
		EvidenceType: domain.EvidencePatternObservation,
		DataPoints:   res.N,
		DetectedAt:   now,
	}}, nil
}

func (o *Observer) detectPeriodVariance(entries []domain.Entry, now time.Time) ([]domain.Pattern, []string) {
	byPeriod := make(map[string][]float64)
	for _, e := range entries {
		if e.Period == "" || e.Mood == nil {
			continue
		}
		byPeriod[e.Period] = append(byPeriod[e.Period], *e.Mood)
	}

	keys, groups := usableGroups(byPeriod, minVarianceGroupSize)
	if len(groups) < minVarianceGroups {
		return nil, []string{fmt.Sprintf("period variance: %d usable periods, need %d", len(groups), minVarianceGroups)}
	}

	res, err := stats.OneWayANOVA(groups)
	if err != nil {
		return nil, []string{"period variance: " + err.Error()}
	}
	if res.PValue >= o.Alpha {
		return nil, nil
	}

	peak := peakGroup(keys, groups)
	return []domain.Pattern{{
		Type:         domain.PatternPeriodVariance,
		Confidence:   detectorConfidence(res.PValue, res.EtaSquared),
		Description:  fmt.Sprintf("Mood differs across periods; highest during %q (F=%.2f, %d periods, n=%d)", peak, res.F, res.Groups, res.N),
		PValue:       res.PValue,
		EffectSize:   res.EtaSquared,
		EvidenceType: domain.EvidencePatternObservation,
		DataPoints:   res.N,
		Period:       peak,
		DetectedAt:   now,
	}}, nil
}

func (o *Observer) detectGateVariance(entries []domain.Entry, now time.Time) ([]domain.Pattern, []string) {
	byGate := make(map[string][]float64)
	gateOf := make(map[string]int)
	for _, e := range entries {
		if e.Gate <= 0 || e.Mood == nil {
			continue
		}
		key := fmt.Sprintf("gate %d", e.Gate)
		byGate[key] = append(byGate[key], *e.Mood)
		gateOf[key] = e.Gate
	}

	keys, groups := usableGroups(byGate, minVarianceGroupSize)
	if len(groups) < minVarianceGroups {
		return nil, []string{fmt.Sprintf("gate variance: %d usable gates, need %d", len(groups), minVarianceGroups)}
	}

	res, err := stats.OneWayANOVA(groups)
	if err != nil {
		return nil, []string{"gate variance: " + err.Error()}
	}
	if res.PValue >= o.Alpha {
		return nil, nil
	}

	peak := peakGroup(keys, groups)
	return []domain.Pattern{{
		Type:         domain.PatternGateVariance,
		Confidence:   detectorConfidence(res.PValue, res.EtaSquared),
		Description:  fmt.Sprintf("Mood differs across gates; highest during %s (F=%.2f, %d gates, n=%d)", peak, res.F, res.Groups, res.N),
		PValue:       res.PValue,
		EffectSize:   res.EtaSquared,
		EvidenceType: domain.EvidencePatternObservation,
		DataPoints:   res.N,
		Gate:         gateOf[peak],
		DetectedAt:   now,
	}}, nil
}

func (o *Observer) detectThemeAlignment(entries []domain.Entry, now time.Time) ([]domain.Pattern, []string) {
	noted := 0
	baselineHits := 0
	byGate := make(map[int][]domain.Entry)
	for _, e := range entries {
		if e.Note == "" {
			continue
		}
		noted++
		if e.Gate > 0 {
			byGate[e.Gate] = append(byGate[e.Gate], e)
		}
	}
	if noted < minCorrelationPairs {
		return nil, []string{fmt.Sprintf("theme alignment: %d noted entries, need %d", noted, minCorrelationPairs)}
	}

	// Baseline: how often any tracked theme shows up in notes regardless of
	// the active gate.
	for _, e := range entries {
		if e.Note == "" {
			continue
		}
		for _, themes := range gateThemes {
			if containsTheme(e.Note, themes) {
				baselineHits++
				break
			}
		}
	}
	baseline := float64(baselineHits) / float64(noted)
	if baseline <= 0 {
		baseline = 1.0 / float64(noted)
	}

	var patterns []domain.Pattern
	var skipped []string

	gates := make([]int, 0, len(byGate))
	for g := range byGate {
		gates = append(gates, g)
	}
	sort.Ints(gates)

	for _, gate := range gates {
		themes, ok := gateThemes[gate]
		if !ok {
			continue
		}
		group := byGate[gate]
		if len(group) < minThemeEntries {
			skipped = append(skipped, fmt.Sprintf("theme alignment gate %d: %d noted entries, need %d", gate, len(group), minThemeEntries))
			continue
		}

		hits := 0
		for _, e := range group {
			if containsTheme(e.Note, themes) {
				hits++
			}
		}
		ratio := float64(hits) / float64(len(group))
		if ratio < themeAlignmentBar || ratio < 1.5*baseline {
			continue
		}

		p := stats.ProportionZTest(hits, len(group), baseline)
		if p >= o.Alpha {
			continue
		}

		patterns = append(patterns, domain.Pattern{
			Type:         domain.PatternThemeAlignment,
			Confidence:   detectorConfidence(p, ratio-baseline),
			Description:  fmt.Sprintf("Notes during gate %d align with its archetype themes (%d/%d vs %.0f%% baseline)", gate, hits, len(group), baseline*100),
			PValue:       p,
			EffectSize:   ratio - baseline,
			EvidenceType: domain.EvidenceJournalAnalysis,
			DataPoints:   len(group),
			Gate:         gate,
			DetectedAt:   now,
		})
	}

	return patterns, skipped
}

func (o *Observer) detectTemporalSkew(entries []domain.Entry, now time.Time) ([]domain.Pattern, []string) {
	if days := daysCovered(entries); days < minTemporalDays {
		return nil, []string{fmt.Sprintf("temporal skew: window covers %d days, need %d", days, minTemporalDays)}
	}

	var patterns []domain.Pattern

	// Day-of-week: each weekday against the rest.
	byDay := make(map[time.Weekday][]float64)
	var allMoods []float64
	for _, e := range entries {
		if e.Mood == nil {
			continue
		}
		byDay[e.Weekday()] = append(byDay[e.Weekday()], *e.Mood)
		allMoods = append(allMoods, *e.Mood)
	}

	if best, ok := o.bestSplit(weekdayGroups(byDay), allMoods); ok {
		day := time.Weekday(best.index)
		wd := best.index
		patterns = append(patterns, domain.Pattern{
			Type:         domain.PatternTemporal,
			Confidence:   detectorConfidence(best.pValue, best.delta/4),
			Description:  fmt.Sprintf("Mood on %ss deviates from the rest of the week (Δ=%.1f, n=%d)", day, best.delta, best.n),
			PValue:       best.pValue,
			EffectSize:   math.Min(1, math.Abs(best.delta)/4),
			EvidenceType: domain.EvidenceBehavioralSignal,
			DataPoints:   best.n,
			Weekday:      &wd,
			DetectedAt:   now,
		})
	}

	// Hour-of-day, bucketed into four six-hour spans.
	byBucket := make(map[int][]float64)
	for _, e := range entries {
		if e.Mood == nil {
			continue
		}
		byBucket[e.Hour()/6] = append(byBucket[e.Hour()/6], *e.Mood)
	}

	if best, ok := o.bestSplit(hourGroups(byBucket), allMoods); ok {
		hour := best.index * 6
		patterns = append(patterns, domain.Pattern{
			Type:         domain.PatternTemporal,
			Confidence:   detectorConfidence(best.pValue, best.delta/4),
			Description:  fmt.Sprintf("Mood in the %02d:00-%02d:59 span deviates from the rest of the day (Δ=%.1f, n=%d)", hour, hour+5, best.delta, best.n),
			PValue:       best.pValue,
			EffectSize:   math.Min(1, math.Abs(best.delta)/4),
			EvidenceType: domain.EvidenceBehavioralSignal,
			DataPoints:   best.n,
			Hour:         &hour,
			DetectedAt:   now,
		})
	}

	return patterns, nil
}

type splitFinding struct {
	index  int
	pValue float64
	delta  float64
	n      int
}

type indexedGroup struct {
	index int
	moods []float64
}

func weekdayGroups(byDay map[time.Weekday][]float64) []indexedGroup {
	groups := make([]indexedGroup, 0, len(byDay))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if moods, ok := byDay[d]; ok {
			groups = append(groups, indexedGroup{index: int(d), moods: moods})
		}
	}
	return groups
}

func hourGroups(byBucket map[int][]float64) []indexedGroup {
	groups := make([]indexedGroup, 0, len(byBucket))
	for b := 0; b < 4; b++ {
		if moods, ok := byBucket[b]; ok {
			groups = append(groups, indexedGroup{index: b, moods: moods})
		}
	}
	return groups
}

// bestSplit tests each group against the union of the others and returns the
// most significant deviation that clears the bar.
func (o *Observer) bestSplit(groups []indexedGroup, all []float64) (splitFinding, bool) {
	best := splitFinding{pValue: 1}
	found := false

	for i, g := range groups {
		if len(g.moods) < minTemporalGroupSize || len(all)-len(g.moods) < minTemporalGroupSize {
			continue
		}

		rest := make([]float64, 0, len(all)-len(g.moods))
		for j, other := range groups {
			if j != i {
				rest = append(rest, other.moods...)
			}
		}

		res, err := stats.WelchT(g.moods, rest)
		if err != nil {
			continue
		}
		if res.PValue < o.Alpha && res.PValue < best.pValue {
			best = splitFinding{
				index:  g.index,
				pValue: res.PValue,
				delta:  stats.Mean(g.moods) - stats.Mean(rest),
				n:      len(g.moods),
			}
			found = true
		}
	}
	return best, found
}

func (o *Observer) detectCrossPeriodDrift(entries []domain.Entry, now time.Time) ([]domain.Pattern, []string) {
	if len(entries) == 0 {
		return nil, nil
	}

	earliest, latest := entries[0].OccurredAt, entries[0].OccurredAt
	for _, e := range entries[1:] {
		if e.OccurredAt.Before(earliest) {
			earliest = e.OccurredAt
		}
		if e.OccurredAt.After(latest) {
			latest = e.OccurredAt
		}
	}
	mid := earliest.Add(latest.Sub(earliest) / 2)

	older := make(map[string][]float64)
	newer := make(map[string][]float64)
	for _, e := range entries {
		if e.Period == "" || e.Mood == nil {
			continue
		}
		if e.OccurredAt.Before(mid) {
			older[e.Period] = append(older[e.Period], *e.Mood)
		} else {
			newer[e.Period] = append(newer[e.Period], *e.Mood)
		}
	}

	var patterns []domain.Pattern
	var skipped []string

	periods := make([]string, 0, len(older))
	for p := range older {
		periods = append(periods, p)
	}
	sort.Strings(periods)

	for _, period := range periods {
		o1, n1 := older[period], newer[period]
		if len(o1) < minDriftGroupSize || len(n1) < minDriftGroupSize {
			skipped = append(skipped, fmt.Sprintf("cross-period drift %q: %d/%d entries per span, need %d", period, len(o1), len(n1), minDriftGroupSize))
			continue
		}

		res, err := stats.WelchT(n1, o1)
		if err != nil || res.PValue >= o.Alpha {
			continue
		}

		delta := stats.Mean(n1) - stats.Mean(o1)
		direction := "improved"
		if delta < 0 {
			direction = "declined"
		}
		patterns = append(patterns, domain.Pattern{
			Type:         domain.PatternCrossPeriod,
			Confidence:   detectorConfidence(res.PValue, delta/4),
			Description:  fmt.Sprintf("Mood during period %q has %s over the window (Δ=%.1f)", period, direction, delta),
			PValue:       res.PValue,
			EffectSize:   math.Min(1, math.Abs(delta)/4),
			EvidenceType: domain.EvidencePatternObservation,
			DataPoints:   len(o1) + len(n1),
			Period:       period,
			DetectedAt:   now,
		})
	}

	return patterns, skipped
}

func usableGroups(byKey map[string][]float64, minSize int) ([]string, [][]float64) {
	keys := make([]string, 0, len(byKey))
	for k, g := range byKey {
		if len(g) >= minSize {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	groups := make([][]float64, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, byKey[k])
	}
	return keys, groups
}

func peakGroup(keys []string, groups [][]float64) string {
	bestKey := ""
	bestMean := math.Inf(-1)
	for i, k := range keys {
		if m := stats.Mean(groups[i]); m > bestMean {
			bestMean = m
			bestKey = k
		}
	}
	return bestKey
}

func containsTheme(note string, themes []string) bool {
	lower := strings.ToLower(note)
	for _, t := range themes {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
