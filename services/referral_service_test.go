package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"dailyGraceAPI/internal/referral"
	"dailyGraceAPI/internal/testhelpers"

	"github.com/google/uuid"
)

func TestClaimReferralAwardsBothSidesOnce(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	defer testhelpers.CleanupTestData(t, db)

	ledgerSvc := NewLedgerService(db)
	svc := NewReferralService(db, ledgerSvc, nil)
	ctx := context.Background()

	referrerClerkID := newTestClerkID()
	newUserClerkID := newTestClerkID()
	otherClerkID := newTestClerkID()

	for _, id := range []string{referrerClerkID, newUserClerkID, otherClerkID} {
		if _, err := ledgerSvc.EnsureLedger(ctx, id); err != nil {
			t.Fatalf("Failed to create ledger: %v", err)
		}
	}
	referrerID := mustUserID(t, ledgerSvc, referrerClerkID)

	res, err := svc.ClaimReferral(ctx, newUserClerkID, referrerID.String(), time.Now())
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if !res.Claimed || res.BonusPoints != referral.BonusPoints {
		t.Errorf("Expected claimed with bonus %d, got %+v", referral.BonusPoints, res)
	}

	referrerLedger, err := ledgerSvc.GetLedgerByClerkID(ctx, referrerClerkID)
	if err != nil {
		t.Fatalf("Failed to get referrer ledger: %v", err)
	}
	newUserLedger, err := ledgerSvc.GetLedgerByClerkID(ctx, newUserClerkID)
	if err != nil {
		t.Fatalf("Failed to get new user ledger: %v", err)
	}
	if referrerLedger.TotalPoints != referral.BonusPoints {
		t.Errorf("Referrer balance: expected %d, got %d", referral.BonusPoints, referrerLedger.TotalPoints)
	}
	if newUserLedger.TotalPoints != referral.BonusPoints {
		t.Errorf("New user balance: expected %d, got %d", referral.BonusPoints, newUserLedger.TotalPoints)
	}
	if newUserLedger.ReferredBy == nil || *newUserLedger.ReferredBy != referrerID.String() {
		t.Errorf("referred_by not set: %v", newUserLedger.ReferredBy)
	}

	// A second claim, even naming a different referrer, is a silent no-op.
	otherID := mustUserID(t, ledgerSvc, otherClerkID)
	res, err = svc.ClaimReferral(ctx, newUserClerkID, otherID.String(), time.Now())
	if err != nil {
		t.Fatalf("Repeat claim failed: %v", err)
	}
	if !res.AlreadyLinked || res.Claimed {
		t.Errorf("Expected already-linked no-op, got %+v", res)
	}

	referrerLedger, _ = ledgerSvc.GetLedgerByClerkID(ctx, referrerClerkID)
	newUserLedger, _ = ledgerSvc.GetLedgerByClerkID(ctx, newUserClerkID)
	otherLedger, _ := ledgerSvc.GetLedgerByClerkID(ctx, otherClerkID)
	if referrerLedger.TotalPoints != referral.BonusPoints || newUserLedger.TotalPoints != referral.BonusPoints {
		t.Errorf("Repeat claim moved points: referrer=%d new=%d",
			referrerLedger.TotalPoints, newUserLedger.TotalPoints)
	}
	if otherLedger.TotalPoints != 0 {
		t.Errorf("Repeat claim paid the second referrer: %d", otherLedger.TotalPoints)
	}
}

func TestClaimReferralRejectsSelfReferral(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	defer testhelpers.CleanupTestData(t, db)

	ledgerSvc := NewLedgerService(db)
	svc := NewReferralService(db, ledgerSvc, nil)
	ctx := context.Background()
	clerkID := newTestClerkID()

	if _, err := ledgerSvc.EnsureLedger(ctx, clerkID); err != nil {
		t.Fatalf("Failed to create ledger: %v", err)
	}
	userID := mustUserID(t, ledgerSvc, clerkID)

	if _, err := svc.ClaimReferral(ctx, clerkID, userID.String(), time.Now()); !errors.Is(err, referral.ErrSelfReferral) {
		t.Errorf("Expected ErrSelfReferral, got %v", err)
	}

	l, err := ledgerSvc.GetLedgerByClerkID(ctx, clerkID)
	if err != nil {
		t.Fatalf("Failed to get ledger: %v", err)
	}
	if l.TotalPoints != 0 || l.ReferredBy != nil {
		t.Errorf("Self-referral mutated the ledger: points=%d referred_by=%v", l.TotalPoints, l.ReferredBy)
	}
}

func TestClaimReferralRejectsOldAccounts(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	defer testhelpers.CleanupTestData(t, db)

	ledgerSvc := NewLedgerService(db)
	svc := NewReferralService(db, ledgerSvc, nil)
	ctx := context.Background()

	referrerClerkID := newTestClerkID()
	newUserClerkID := newTestClerkID()
	for _, id := range []string{referrerClerkID, newUserClerkID} {
		if _, err := ledgerSvc.EnsureLedger(ctx, id); err != nil {
			t.Fatalf("Failed to create ledger: %v", err)
		}
	}
	referrerID := mustUserID(t, ledgerSvc, referrerClerkID)

	// Age the account past the claim window.
	_, err := db.Exec(ctx,
		`UPDATE user_preferences SET created_at = NOW() - INTERVAL '10 minutes' WHERE clerk_id = $1`,
		newUserClerkID)
	if err != nil {
		t.Fatalf("Failed to age account: %v", err)
	}

	if _, err := svc.ClaimReferral(ctx, newUserClerkID, referrerID.String(), time.Now()); !errors.Is(err, referral.ErrTooOld) {
		t.Errorf("Expected ErrTooOld, got %v", err)
	}

	referrerLedger, err := ledgerSvc.GetLedgerByClerkID(ctx, referrerClerkID)
	if err != nil {
		t.Fatalf("Failed to get referrer ledger: %v", err)
	}
	if referrerLedger.TotalPoints != 0 {
		t.Errorf("Rejected claim paid the referrer: %d", referrerLedger.TotalPoints)
	}
}

func TestClaimReferralUnknownReferrer(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	defer testhelpers.CleanupTestData(t, db)

	ledgerSvc := NewLedgerService(db)
	svc := NewReferralService(db, ledgerSvc, nil)
	ctx := context.Background()
	newUserClerkID := newTestClerkID()

	if _, err := ledgerSvc.EnsureLedger(ctx, newUserClerkID); err != nil {
		t.Fatalf("Failed to create ledger: %v", err)
	}

	if _, err := svc.ClaimReferral(ctx, newUserClerkID, uuid.NewString(), time.Now()); !errors.Is(err, referral.ErrReferrerNotFound) {
		t.Errorf("Expected ErrReferrerNotFound, got %v", err)
	}

	l, err := ledgerSvc.GetLedgerByClerkID(ctx, newUserClerkID)
	if err != nil {
		t.Fatalf("Failed to get ledger: %v", err)
	}
	if l.ReferredBy != nil || l.TotalPoints != 0 {
		t.Errorf("Failed claim mutated the ledger: %+v", l)
	}
}

func TestGenerateInviteQR(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	defer testhelpers.CleanupTestData(t, db)

	ledgerSvc := NewLedgerService(db)
	svc := NewReferralService(db, ledgerSvc, nil)
	ctx := context.Background()
	clerkID := newTestClerkID()

	if _, err := ledgerSvc.EnsureLedger(ctx, clerkID); err != nil {
		t.Fatalf("Failed to create ledger: %v", err)
	}
	userID := mustUserID(t, ledgerSvc, clerkID)

	resp, err := svc.GenerateInviteQR(ctx, clerkID)
	if err != nil {
		t.Fatalf("Failed to generate invite: %v", err)
	}
	if resp.ReferrerID != userID.String() {
		t.Errorf("Invite carries wrong referrer id: %s", resp.ReferrerID)
	}
	if resp.QrCodeBase64 == "" {
		t.Error("Expected a QR payload")
	}
}
