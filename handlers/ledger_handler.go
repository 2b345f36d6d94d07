package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"dailyGraceAPI/internal/ledger"
	"dailyGraceAPI/middleware"
	"dailyGraceAPI/services"
)

type LedgerHandler struct {
	ledgerService *services.LedgerService
}

func NewLedgerHandler(ledgerService *services.LedgerService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
	}
}

// GetLedger returns the caller's points/streak/unlock document, creating
// it with defaults on first access.
func (h *LedgerHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	l, err := h.ledgerService.EnsureLedger(ctx, clerkID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load ledger")
		return
	}

	respondWithJSON(w, http.StatusOK, l)
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondLedgerError maps the shared ledger sentinels; handlers fall back
// to their own messages for anything else.
func respondLedgerError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, ledger.ErrInvalidAmount):
		respondWithError(w, http.StatusBadRequest, "Amount must be positive")
	default:
		respondWithError(w, http.StatusInternalServerError, fallback)
	}
}
