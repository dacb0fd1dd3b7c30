package domain

import (
	"time"

	"github.com/google/uuid"
)

// MoonPhase is the eight-bucket lunar phase tag attached to an entry by the
// upstream enrichment pipeline.
type MoonPhase string

const (
	MoonNew            MoonPhase = "new"
	MoonWaxingCrescent MoonPhase = "waxing_crescent"
	MoonFirstQuarter   MoonPhase = "first_quarter"
	MoonWaxingGibbous  MoonPhase = "waxing_gibbous"
	MoonFull           MoonPhase = "full"
	MoonWaningGibbous  MoonPhase = "waning_gibbous"
	MoonLastQuarter    MoonPhase = "last_quarter"
	MoonWaningCrescent MoonPhase = "waning_crescent"
)

func ValidMoonPhase(p string) bool {
	switch MoonPhase(p) {
	case MoonNew, MoonWaxingCrescent, MoonFirstQuarter, MoonWaxingGibbous,
		MoonFull, MoonWaningGibbous, MoonLastQuarter, MoonWaningCrescent:
		return true
	}
	return false
}

// Illumination maps the phase bucket onto a [0,1] brightness signal usable as
// the numeric side of a correlation test.
func (p MoonPhase) Illumination() (float64, bool) {
	switch p {
	case MoonNew:
		return 0.0, true
	case MoonWaxingCrescent, MoonWaningCrescent:
		return 0.25, true
	case MoonFirstQuarter, MoonLastQuarter:
		return 0.5, true
	case MoonWaxingGibbous, MoonWaningGibbous:
		return 0.75, true
	case MoonFull:
		return 1.0, true
	}
	return 0, false
}

// Entry is one timestamped behavioral record with optional contextual tags.
// Entries are produced by the record store and are read-only to this service.
type Entry struct {
	ID            uuid.UUID `json:"id"`
	OccurredAt    time.Time `json:"occurred_at"`
	Mood          *float64  `json:"mood,omitempty"`   // 1-10
	Energy        *float64  `json:"energy,omitempty"` // 1-10
	Note          string    `json:"note,omitempty"`
	Period        string    `json:"period,omitempty"`
	Gate          int       `json:"gate,omitempty"` // 0 means untagged
	Line          int       `json:"line,omitempty"`
	MoonPhase     MoonPhase `json:"moon_phase,omitempty"`
	SolarActivity *float64  `json:"solar_activity,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (e *Entry) Hour() int {
	return e.OccurredAt.Hour()
}

func (e *Entry) Weekday() time.Weekday {
	return e.OccurredAt.Weekday()
}
