package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"dailyGraceAPI/internal/ledger"
	"dailyGraceAPI/internal/referral"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/skip2/go-qrcode"
)

type ReferralService struct {
	db           *pgxpool.Pool
	ledgerSvc    *LedgerService
	notifService *NotificationService
}

func NewReferralService(db *pgxpool.Pool, ledgerSvc *LedgerService, notifService *NotificationService) *ReferralService {
	return &ReferralService{
		db:           db,
		ledgerSvc:    ledgerSvc,
		notifService: notifService,
	}
}

type ReferralInviteResponse struct {
	ReferrerID   string `json:"referrer_id"`
	InviteURL    string `json:"invite_url"`
	QrCodeBase64 string `json:"qr_code_base64"`
}

// ClaimReferral links a freshly created account to its referrer and pays
// the bonus to both sides.
//
// A user whose ledger already carries referred_by (to anyone) gets a
// silent success no-op so client retries cannot double-award. Both balance
// updates and the referred_by write happen in one transaction with both
// rows locked: they commit together or not at all.
func (s *ReferralService) ClaimReferral(ctx context.Context, newUserClerkID string, referrerID string, now time.Time) (*referral.ClaimResult, error) {
	referrerUUID, err := uuid.Parse(referrerID)
	if err != nil {
		return nil, fmt.Errorf("invalid referrer id: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var newUserID uuid.UUID
	var referredBy *string
	var createdAt time.Time
	err = tx.QueryRow(ctx,
		`SELECT user_id, referred_by, created_at FROM user_preferences WHERE clerk_id = $1 FOR UPDATE`,
		newUserClerkID).Scan(&newUserID, &referredBy, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	if newUserID == referrerUUID {
		return nil, referral.ErrSelfReferral
	}
	if now.Sub(createdAt) > referral.ClaimWindow {
		return nil, referral.ErrTooOld
	}
	if referredBy != nil {
		return &referral.ClaimResult{AlreadyLinked: true, ReferredBy: *referredBy}, nil
	}

	var referrerClerkID string
	err = tx.QueryRow(ctx,
		`SELECT clerk_id FROM user_preferences WHERE user_id = $1 FOR UPDATE`,
		referrerUUID).Scan(&referrerClerkID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, referral.ErrReferrerNotFound
		}
		return nil, fmt.Errorf("failed to load referrer: %w", err)
	}

	_, err = tx.Exec(ctx, `
	UPDATE user_preferences
	SET referred_by = $2, total_points = total_points + $3, updated_at = NOW()
	WHERE user_id = $1
	`, newUserID, referrerUUID.String(), referral.BonusPoints)
	if err != nil {
		return nil, fmt.Errorf("failed to link referral: %w", err)
	}

	if err := awardPointsTx(ctx, tx, referrerUUID, referral.BonusPoints); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if s.notifService != nil {
		s.notifService.NotifyReferralBonus(referrerClerkID, referral.BonusPoints)
	}

	return &referral.ClaimResult{
		Claimed:     true,
		ReferredBy:  referrerUUID.String(),
		BonusPoints: referral.BonusPoints,
	}, nil
}

// GenerateInviteQR renders the caller's referral deep link as a QR PNG.
func (s *ReferralService) GenerateInviteQR(ctx context.Context, clerkID string) (*ReferralInviteResponse, error) {
	userID, err := s.ledgerSvc.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	inviteURL := fmt.Sprintf("dailygrace://referral/claim/%s", userID)

	pngBytes, err := qrcode.Encode(inviteURL, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR png: %w", err)
	}

	return &ReferralInviteResponse{
		ReferrerID:   userID.String(),
		InviteURL:    inviteURL,
		QrCodeBase64: base64.StdEncoding.EncodeToString(pngBytes),
	}, nil
}
