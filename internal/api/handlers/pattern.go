package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/augurhq/augur/internal/service"
	"github.com/go-chi/chi/v5"
)

type PatternHandler struct {
	svc *service.ObserverService
}

func NewPatternHandler(svc *service.ObserverService) *PatternHandler {
	return &PatternHandler{svc: svc}
}

// List returns the most recent observation pass.
func (h *PatternHandler) List(w http.ResponseWriter, r *http.Request) {
	obs, err := h.svc.LastObservation()
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, obs)
}

// GetByIndex returns one pattern from the most recent pass by ordinal index.
func (h *PatternHandler) GetByIndex(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid pattern index")
		return
	}

	p, err := h.svc.PatternAt(index)
	switch {
	case errors.Is(err, service.ErrNoObservationYet):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, service.ErrPatternIndexOutOfRange):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to fetch pattern")
		return
	}

	writeJSON(w, http.StatusOK, p)
}
