package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"dailyGraceAPI/internal/referral"
	"dailyGraceAPI/middleware"
	"dailyGraceAPI/services"
)

type ReferralHandler struct {
	referralService *services.ReferralService
}

func NewReferralHandler(referralService *services.ReferralService) *ReferralHandler {
	return &ReferralHandler{
		referralService: referralService,
	}
}

// ClaimReferral credits the referral bonus to the authenticated new user
// and their referrer. Auth and input validation happen here; the service
// enforces the self-referral, account-age and first-referral-only rules.
func (h *ReferralHandler) ClaimReferral(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req referral.ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ReferrerID == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.referralService.ClaimReferral(ctx, clerkID, req.ReferrerID, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, referral.ErrSelfReferral):
			respondWithError(w, http.StatusBadRequest, "You cannot refer yourself")
		case errors.Is(err, referral.ErrTooOld):
			respondWithError(w, http.StatusForbidden, "Referrals can only be claimed right after signup")
		case errors.Is(err, referral.ErrReferrerNotFound):
			respondWithError(w, http.StatusNotFound, "Referrer not found")
		default:
			respondLedgerError(w, err, "Failed to claim referral")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// GetInviteQR returns the caller's referral deep link as a base64 QR PNG.
func (h *ReferralHandler) GetInviteQR(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	invite, err := h.referralService.GenerateInviteQR(ctx, clerkID)
	if err != nil {
		respondLedgerError(w, err, "Failed to generate invite")
		return
	}

	respondWithJSON(w, http.StatusOK, invite)
}
