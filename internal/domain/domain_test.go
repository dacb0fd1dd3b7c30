package domain

import (
	"testing"
	"time"
)

func TestHypothesisStatus_Terminal(t *testing.T) {
	terminal := map[HypothesisStatus]bool{
		StatusForming:   false,
		StatusTesting:   false,
		StatusConfirmed: true,
		StatusRejected:  true,
		StatusStale:     true,
	}
	for status, want := range terminal {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
}

func TestValidHypothesisStatus(t *testing.T) {
	for _, s := range []string{"forming", "testing", "confirmed", "rejected", "stale"} {
		if !ValidHypothesisStatus(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	for _, s := range []string{"", "active", "FORMING", "archived"} {
		if ValidHypothesisStatus(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestValidEvidenceType(t *testing.T) {
	if !ValidEvidenceType("user_confirmation") {
		t.Error("expected user_confirmation to be valid")
	}
	if ValidEvidenceType("hunch") {
		t.Error("expected hunch to be invalid")
	}
}

func TestValidPatternType(t *testing.T) {
	if !ValidPatternType("mood_correlation") {
		t.Error("expected mood_correlation to be valid")
	}
	if ValidPatternType("vibes") {
		t.Error("expected vibes to be invalid")
	}
}

func TestMoonPhase_Illumination(t *testing.T) {
	tests := []struct {
		phase MoonPhase
		want  float64
	}{
		{MoonNew, 0.0},
		{MoonWaxingCrescent, 0.25},
		{MoonWaningCrescent, 0.25},
		{MoonFirstQuarter, 0.5},
		{MoonLastQuarter, 0.5},
		{MoonWaxingGibbous, 0.75},
		{MoonWaningGibbous, 0.75},
		{MoonFull, 1.0},
	}
	for _, tt := range tests {
		got, ok := tt.phase.Illumination()
		if !ok {
			t.Errorf("%s: expected a known illumination", tt.phase)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: illumination = %f, want %f", tt.phase, got, tt.want)
		}
	}

	if _, ok := MoonPhase("").Illumination(); ok {
		t.Error("empty phase should have no illumination")
	}
	if _, ok := MoonPhase("blood_moon").Illumination(); ok {
		t.Error("unknown phase should have no illumination")
	}
}

func TestEntry_TimeAccessors(t *testing.T) {
	e := Entry{OccurredAt: time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)}
	if e.Hour() != 14 {
		t.Errorf("Hour() = %d, want 14", e.Hour())
	}
	if e.Weekday() != time.Monday {
		t.Errorf("Weekday() = %s, want Monday", e.Weekday())
	}
}
