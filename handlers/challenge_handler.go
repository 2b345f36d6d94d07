package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"dailyGraceAPI/internal/challenge"
	"dailyGraceAPI/middleware"
	"dailyGraceAPI/services"
)

type ChallengeHandler struct {
	challengeService *services.ChallengeService
	ledgerService    *services.LedgerService
}

func NewChallengeHandler(challengeService *services.ChallengeService, ledgerService *services.LedgerService) *ChallengeHandler {
	return &ChallengeHandler{
		challengeService: challengeService,
		ledgerService:    ledgerService,
	}
}

func (h *ChallengeHandler) ListChallenges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	catalog, progress, err := h.challengeService.ListChallenges(ctx, clerkID)
	if err != nil {
		respondLedgerError(w, err, "Failed to list challenges")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"challenges": catalog,
		"progress":   progress,
	})
}

func (h *ChallengeHandler) StartChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req challenge.StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ChallengeID == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	progress, err := h.challengeService.StartChallenge(ctx, clerkID, req.ChallengeID)
	if err != nil {
		respondLedgerError(w, err, "Failed to start challenge")
		return
	}

	respondWithJSON(w, http.StatusOK, progress)
}

// CompleteDay marks today's devotion done for a challenge. The premium
// policy flag for the completion bonus comes from the caller's ledger.
func (h *ChallengeHandler) CompleteDay(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req challenge.CompleteDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ChallengeID == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	l, err := h.ledgerService.GetLedgerByClerkID(ctx, clerkID)
	if err != nil {
		respondLedgerError(w, err, "Failed to load ledger")
		return
	}

	result, err := h.challengeService.MarkDayComplete(ctx, clerkID, req.ChallengeID, l.IsPremium)
	if err != nil {
		if errors.Is(err, challenge.ErrNotActive) {
			respondWithError(w, http.StatusConflict, "Challenge is not active")
			return
		}
		respondLedgerError(w, err, "Failed to complete day")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}
