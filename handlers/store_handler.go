package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"dailyGraceAPI/internal/devotional"
	"dailyGraceAPI/internal/ledger"
	"dailyGraceAPI/middleware"
	"dailyGraceAPI/services"
)

type StoreHandler struct {
	unlockService *services.UnlockService
}

func NewStoreHandler(unlockService *services.UnlockService) *StoreHandler {
	return &StoreHandler{
		unlockService: unlockService,
	}
}

func (h *StoreHandler) GetStore(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	store, err := h.unlockService.GetStore(ctx, clerkID)
	if err != nil {
		respondLedgerError(w, err, "Store isn't available")
		return
	}

	respondWithJSON(w, http.StatusOK, store)
}

// PurchaseStoreItem unlocks a series or theme, or spends points on a gift.
// An uncovered balance is a 402 with the current balance, not an error.
func (h *StoreHandler) PurchaseStoreItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req ledger.UnlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ItemID == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.unlockService.PurchaseStoreItem(ctx, clerkID, req.ItemID)
	if err != nil {
		respondLedgerError(w, err, "Purchase failed")
		return
	}

	if !result.Unlocked {
		middleware.CountSpendRejection()
		respondWithJSON(w, http.StatusPaymentRequired, result)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *StoreHandler) PurchaseGift(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req devotional.StoreItem
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PointCost <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ok, err := h.unlockService.PurchaseConsumable(ctx, clerkID, req.PointCost)
	if err != nil {
		respondLedgerError(w, err, "Purchase failed")
		return
	}

	if !ok {
		middleware.CountSpendRejection()
		respondWithError(w, http.StatusPaymentRequired, "Not enough grace points")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"purchased": true})
}

func (h *StoreHandler) SetActiveTheme(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req ledger.SetActiveThemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.unlockService.SetActiveTheme(ctx, clerkID, req.ThemeID); err != nil {
		if errors.Is(err, ledger.ErrNotUnlocked) {
			respondWithError(w, http.StatusForbidden, "Theme is not unlocked")
			return
		}
		respondLedgerError(w, err, "Failed to set theme")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"active_theme_id": req.ThemeID})
}
