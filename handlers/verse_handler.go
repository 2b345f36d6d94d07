package handlers

import (
	"context"
	"net/http"
	"time"

	"dailyGraceAPI/services"
)

type VerseHandler struct {
	verseService *services.VerseService
}

func NewVerseHandler(verseService *services.VerseService) *VerseHandler {
	return &VerseHandler{
		verseService: verseService,
	}
}

func (h *VerseHandler) GetVerseOfTheDay(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	verse, err := h.verseService.GetVerseOfTheDay(ctx)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Verse of the day isn't available")
		return
	}

	respondWithJSON(w, http.StatusOK, verse)
}
