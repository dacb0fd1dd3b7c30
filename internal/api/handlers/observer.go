package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/augurhq/augur/internal/service"
)

type ObserverHandler struct {
	observer *service.ObserverService
	exchange *service.ExchangeService
}

func NewObserverHandler(observer *service.ObserverService, exchange *service.ExchangeService) *ObserverHandler {
	return &ObserverHandler{observer: observer, exchange: exchange}
}

// Run triggers one on-demand observer cycle and returns its summary.
func (h *ObserverHandler) Run(w http.ResponseWriter, r *http.Request) {
	result := h.observer.RunCycle(r.Context())
	writeJSON(w, http.StatusOK, result)
}

type exchangeRequest struct {
	UserText  string `json:"user_text"`
	AgentText string `json:"agent_text,omitempty"`
}

// Exchange feeds one conversation turn through evidence extraction.
func (h *ObserverHandler) Exchange(w http.ResponseWriter, r *http.Request) {
	var req exchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserText == "" {
		writeError(w, http.StatusBadRequest, "user_text is required")
		return
	}

	updates := h.exchange.TestExchange(req.UserText, req.AgentText)
	writeJSON(w, http.StatusOK, map[string]any{
		"updates_applied": len(updates),
		"updates":         updates,
	})
}
