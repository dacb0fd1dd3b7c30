package store

import (
	"context"
	"fmt"

	"github.com/augurhq/augur/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EntryStore reads observable entries from the record store. Entries are
// written by the upstream journaling pipeline; this service only reads them.
type EntryStore struct {
	db *pgxpool.Pool
}

func NewEntryStore(db *pgxpool.Pool) *EntryStore {
	return &EntryStore{db: db}
}

func (s *EntryStore) LoadRecent(ctx context.Context, days int) ([]domain.Entry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, occurred_at, mood, energy, note, period, gate, line, moon_phase, solar_activity, created_at
		 FROM entries
		 WHERE occurred_at >= now() - make_interval(days => $1)
		 ORDER BY occurred_at ASC`,
		days,
	)
	if err != nil {
		return nil, fmt.Errorf("load recent entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.Entry
	for rows.Next() {
		var e domain.Entry
		var note, period, moonPhase *string
		var gate, line *int
		if err := rows.Scan(&e.ID, &e.OccurredAt, &e.Mood, &e.Energy, &note, &period, &gate, &line, &moonPhase, &e.SolarActivity, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if note != nil {
			e.Note = *note
		}
		if period != nil {
			e.Period = *period
		}
		if gate != nil {
			e.Gate = *gate
		}
		if line != nil {
			e.Line = *line
		}
		if moonPhase != nil {
			e.MoonPhase = domain.MoonPhase(*moonPhase)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
