package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/augurhq/augur/internal/domain"
	"github.com/augurhq/augur/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type HypothesisHandler struct {
	engine *service.Engine
	store  domain.HypothesisStore // optional
	logger *zap.Logger
}

func NewHypothesisHandler(engine *service.Engine, store domain.HypothesisStore, logger *zap.Logger) *HypothesisHandler {
	return &HypothesisHandler{engine: engine, store: store, logger: logger}
}

// List returns hypotheses filtered by status. The default filter is active
// (forming and testing).
func (h *HypothesisHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = "active"
	}

	var hyps []*domain.Hypothesis
	switch status {
	case "active":
		hyps = h.engine.Active()
	case "all":
		hyps = h.engine.All()
	default:
		if !domain.ValidHypothesisStatus(status) {
			writeError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		hyps = h.engine.ByStatus(domain.HypothesisStatus(status))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     status,
		"count":      len(hyps),
		"hypotheses": summarize(hyps),
	})
}

type hypothesisSummary struct {
	ID         uuid.UUID               `json:"id"`
	Type       domain.PatternType      `json:"type"`
	Status     domain.HypothesisStatus `json:"status"`
	Statement  string                  `json:"statement"`
	Category   string                  `json:"category,omitempty"`
	Confidence float64                 `json:"confidence"`
	Evidence   int                     `json:"evidence_count"`
}

func summarize(hyps []*domain.Hypothesis) []hypothesisSummary {
	out := make([]hypothesisSummary, 0, len(hyps))
	for _, h := range hyps {
		out = append(out, hypothesisSummary{
			ID:         h.ID,
			Type:       h.Type,
			Status:     h.Status,
			Statement:  h.Statement,
			Category:   h.Category,
			Confidence: h.Confidence,
			Evidence:   len(h.Evidence),
		})
	}
	return out
}

// GetByID returns the full hypothesis detail: evidence records, confidence
// history, and correlate counts.
func (h *HypothesisHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid hypothesis id")
		return
	}

	hyp, err := h.engine.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "hypothesis not found")
		return
	}

	writeJSON(w, http.StatusOK, hyp)
}

type createHypothesisRequest struct {
	Statement string `json:"statement"`
	Category  string `json:"category,omitempty"`
}

// Create registers an operator-supplied hypothesis. A duplicate is reported
// in the payload, not as an error.
func (h *HypothesisHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createHypothesisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	hyp, err := h.engine.CreateManual(req.Statement, req.Category)
	switch {
	case errors.Is(err, service.ErrStatementMissing):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, service.ErrDuplicateHypothesis):
		writeJSON(w, http.StatusOK, map[string]any{"created": false, "reason": "Duplicate"})
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to create hypothesis")
		return
	}

	h.persist(r, hyp.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"created": true, "hypothesis": hyp})
}

type verdictRequest struct {
	Note string `json:"note,omitempty"`
}

// Confirm applies a strong positive user verdict to one hypothesis.
func (h *HypothesisHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.verdict(w, r, h.engine.UserConfirm)
}

// Reject applies a strong negative user verdict to one hypothesis.
func (h *HypothesisHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.verdict(w, r, h.engine.UserReject)
}

func (h *HypothesisHandler) verdict(w http.ResponseWriter, r *http.Request, apply func(uuid.UUID, string) (*domain.HypothesisUpdate, error)) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid hypothesis id")
		return
	}

	var req verdictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	update, err := apply(id, req.Note)
	switch {
	case errors.Is(err, service.ErrHypothesisNotFound):
		writeError(w, http.StatusNotFound, "hypothesis not found")
		return
	case errors.Is(err, service.ErrHypothesisInactive):
		writeError(w, http.StatusConflict, "hypothesis is no longer accepting evidence")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to apply verdict")
		return
	}

	h.persist(r, id)
	writeJSON(w, http.StatusOK, update)
}

// persist saves one hypothesis snapshot. The in-memory mutation is already
// committed; a save failure is logged and retried by the next cron cycle.
func (h *HypothesisHandler) persist(r *http.Request, id uuid.UUID) {
	if h.store == nil {
		return
	}
	hyp, err := h.engine.Get(id)
	if err != nil {
		return
	}
	if err := h.store.Save(r.Context(), hyp); err != nil {
		h.logger.Warn("failed to persist hypothesis",
			zap.String("id", id.String()), zap.Error(err))
	}
}
