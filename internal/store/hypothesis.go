package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/augurhq/augur/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HypothesisStore persists hypothesis snapshots. Evidence, history, and
// correlate counts live in JSONB columns since they are only ever read back
// whole.
type HypothesisStore struct {
	db *pgxpool.Pool
}

func NewHypothesisStore(db *pgxpool.Pool) *HypothesisStore {
	return &HypothesisStore{db: db}
}

func (s *HypothesisStore) Save(ctx context.Context, h *domain.Hypothesis) error {
	evidence, err := json.Marshal(h.Evidence)
	if err != nil {
		return fmt.Errorf("marshal evidence: %w", err)
	}
	history, err := json.Marshal(h.History)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	periodEvidence, err := json.Marshal(h.PeriodEvidence)
	if err != nil {
		return fmt.Errorf("marshal period evidence: %w", err)
	}
	gateEvidence, err := json.Marshal(h.GateEvidence)
	if err != nil {
		return fmt.Errorf("marshal gate evidence: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO hypotheses (id, type, status, statement, category, confidence,
		                         evidence, history, period_evidence, gate_evidence,
		                         created_at, updated_at, last_evidence_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (id) DO UPDATE SET
		   status = EXCLUDED.status,
		   confidence = EXCLUDED.confidence,
		   evidence = EXCLUDED.evidence,
		   history = EXCLUDED.history,
		   period_evidence = EXCLUDED.period_evidence,
		   gate_evidence = EXCLUDED.gate_evidence,
		   updated_at = EXCLUDED.updated_at,
		   last_evidence_at = EXCLUDED.last_evidence_at`,
		h.ID, h.Type, h.Status, h.Statement, h.Category, h.Confidence,
		evidence, history, periodEvidence, gateEvidence,
		h.CreatedAt, h.UpdatedAt, h.LastEvidenceAt,
	)
	if err != nil {
		return fmt.Errorf("save hypothesis: %w", err)
	}
	return nil
}

func (s *HypothesisStore) LoadAll(ctx context.Context) ([]*domain.Hypothesis, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, type, status, statement, category, confidence,
		        evidence, history, period_evidence, gate_evidence,
		        created_at, updated_at, last_evidence_at
		 FROM hypotheses
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("load hypotheses: %w", err)
	}
	defer rows.Close()

	var hyps []*domain.Hypothesis
	for rows.Next() {
		var h domain.Hypothesis
		var evidence, history, periodEvidence, gateEvidence []byte
		if err := rows.Scan(&h.ID, &h.Type, &h.Status, &h.Statement, &h.Category, &h.Confidence,
			&evidence, &history, &periodEvidence, &gateEvidence,
			&h.CreatedAt, &h.UpdatedAt, &h.LastEvidenceAt); err != nil {
			return nil, fmt.Errorf("scan hypothesis: %w", err)
		}
		if err := json.Unmarshal(evidence, &h.Evidence); err != nil {
			return nil, fmt.Errorf("unmarshal evidence: %w", err)
		}
		if err := json.Unmarshal(history, &h.History); err != nil {
			return nil, fmt.Errorf("unmarshal history: %w", err)
		}
		if len(periodEvidence) > 0 {
			if err := json.Unmarshal(periodEvidence, &h.PeriodEvidence); err != nil {
				return nil, fmt.Errorf("unmarshal period evidence: %w", err)
			}
		}
		if len(gateEvidence) > 0 {
			if err := json.Unmarshal(gateEvidence, &h.GateEvidence); err != nil {
				return nil, fmt.Errorf("unmarshal gate evidence: %w", err)
			}
		}
		hyps = append(hyps, &h)
	}
	return hyps, rows.Err()
}

func (s *HypothesisStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM hypotheses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete hypothesis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
