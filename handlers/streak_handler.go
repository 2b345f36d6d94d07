package handlers

import (
	"context"
	"net/http"
	"time"

	"dailyGraceAPI/middleware"
	"dailyGraceAPI/services"
)

type StreakHandler struct {
	streakService *services.StreakService
}

func NewStreakHandler(streakService *services.StreakService) *StreakHandler {
	return &StreakHandler{
		streakService: streakService,
	}
}

// RecordActivity marks today as a streak-qualifying day. The UI calls this
// after a journal save or a finished devotion; calling it again on the
// same day is harmless.
func (h *StreakHandler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	result, err := h.streakService.RecordActivity(ctx, clerkID, time.Now())
	if err != nil {
		respondLedgerError(w, err, "Failed to record activity")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}
