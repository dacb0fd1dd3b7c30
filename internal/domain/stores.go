package domain

import (
	"context"

	"github.com/google/uuid"
)

// EntrySource loads recent observable entries from the record store.
type EntrySource interface {
	LoadRecent(ctx context.Context, days int) ([]Entry, error)
}

// HypothesisStore persists hypothesis snapshots. The engine never persists on
// its own; callers hydrate at boot and save after mutations.
type HypothesisStore interface {
	LoadAll(ctx context.Context) ([]*Hypothesis, error)
	Save(ctx context.Context, h *Hypothesis) error
	Delete(ctx context.Context, id uuid.UUID) error
}
