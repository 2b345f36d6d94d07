package services

import (
	"context"
	"errors"
	"testing"

	"dailyGraceAPI/internal/challenge"
	"dailyGraceAPI/internal/testhelpers"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

func insertTestChallenge(t *testing.T, db *pgxpool.Pool, id string, totalDays int) {
	t.Helper()
	_, err := db.Exec(context.Background(), `
	INSERT INTO challenges (id, name, description, total_days, is_active)
	VALUES ($1, $1, '', $2, true)
	ON CONFLICT (id) DO NOTHING
	`, id, totalDays)
	if err != nil {
		t.Fatalf("Failed to insert challenge: %v", err)
	}
}

func mustUserID(t *testing.T, ledgerSvc *LedgerService, clerkID string) uuid.UUID {
	t.Helper()
	userID, err := ledgerSvc.getUserID(context.Background(), clerkID)
	if err != nil {
		t.Fatalf("Failed to resolve user id: %v", err)
	}
	return userID
}

func TestStartChallengeIsIdempotent(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	defer testhelpers.CleanupTestData(t, db)

	ledgerSvc := NewLedgerService(db)
	svc := NewChallengeService(db, ledgerSvc, nil)
	ctx := context.Background()
	clerkID := newTestClerkID()
	challengeID := "test-" + clerkID + "-ch"

	insertTestChallenge(t, db, challengeID, 3)

	if _, err := ledgerSvc.EnsureLedger(ctx, clerkID); err != nil {
		t.Fatalf("Failed to create ledger: %v", err)
	}

	first, err := svc.StartChallenge(ctx, clerkID, challengeID)
	if err != nil {
		t.Fatalf("Failed to start challenge: %v", err)
	}
	if first.CurrentDay != 1 || first.Status != challenge.StatusActive {
		t.Errorf("New progress should be at day 1 active, got %+v", first)
	}

	second, err := svc.StartChallenge(ctx, clerkID, challengeID)
	if err != nil {
		t.Fatalf("Second start failed: %v", err)
	}
	if !second.StartedAt.Equal(first.StartedAt) {
		t.Errorf("Second start replaced the progress row: %v vs %v", first.StartedAt, second.StartedAt)
	}
}

func TestMarkDayCompleteRunsToCompletion(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	defer testhelpers.CleanupTestData(t, db)

	ledgerSvc := NewLedgerService(db)
	svc := NewChallengeService(db, ledgerSvc, nil)
	ctx := context.Background()
	clerkID := newTestClerkID()
	challengeID := "test-" + clerkID + "-ch"

	insertTestChallenge(t, db, challengeID, 3)

	if _, err := ledgerSvc.EnsureLedger(ctx, clerkID); err != nil {
		t.Fatalf("Failed to create ledger: %v", err)
	}
	if _, err := svc.StartChallenge(ctx, clerkID, challengeID); err != nil {
		t.Fatalf("Failed to start challenge: %v", err)
	}

	for day := 1; day <= 3; day++ {
		res, err := svc.MarkDayComplete(ctx, clerkID, challengeID, false)
		if err != nil {
			t.Fatalf("Day %d failed: %v", day, err)
		}
		if res.JustFinished != (day == 3) {
			t.Errorf("Day %d: JustFinished=%v", day, res.JustFinished)
		}
	}

	p, err := svc.getProgress(ctx, mustUserID(t, ledgerSvc, clerkID), challengeID)
	if err != nil {
		t.Fatalf("Failed to get progress: %v", err)
	}
	if p.Status != challenge.StatusCompleted || len(p.CompletedDays) != 3 {
		t.Errorf("Expected completed with 3 days, got status=%s days=%v", p.Status, p.CompletedDays)
	}

	// The challenge is terminal; further submissions are rejected.
	if _, err := svc.MarkDayComplete(ctx, clerkID, challengeID, false); !errors.Is(err, challenge.ErrNotActive) {
		t.Errorf("Expected ErrNotActive after completion, got %v", err)
	}

	// Non-premium completion never pays the bonus.
	l, err := ledgerSvc.GetLedgerByClerkID(ctx, clerkID)
	if err != nil {
		t.Fatalf("Failed to get ledger: %v", err)
	}
	if l.TotalPoints != 0 {
		t.Errorf("Non-premium completion awarded points: %d", l.TotalPoints)
	}
}

func TestCompletionBonusIsPremiumOnlyAndPaidOnce(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	defer testhelpers.CleanupTestData(t, db)

	ledgerSvc := NewLedgerService(db)
	svc := NewChallengeService(db, ledgerSvc, nil)
	ctx := context.Background()
	clerkID := newTestClerkID()
	challengeID := "test-" + clerkID + "-ch"

	insertTestChallenge(t, db, challengeID, 1)

	if _, err := ledgerSvc.EnsureLedger(ctx, clerkID); err != nil {
		t.Fatalf("Failed to create ledger: %v", err)
	}
	if err := ledgerSvc.SetPremium(ctx, clerkID, true); err != nil {
		t.Fatalf("Failed to set premium: %v", err)
	}
	if _, err := svc.StartChallenge(ctx, clerkID, challengeID); err != nil {
		t.Fatalf("Failed to start challenge: %v", err)
	}

	res, err := svc.MarkDayComplete(ctx, clerkID, challengeID, true)
	if err != nil {
		t.Fatalf("Failed to complete final day: %v", err)
	}
	if !res.JustFinished || !res.BonusAwarded {
		t.Errorf("Expected finish with bonus, got %+v", res)
	}

	l, err := ledgerSvc.GetLedgerByClerkID(ctx, clerkID)
	if err != nil {
		t.Fatalf("Failed to get ledger: %v", err)
	}
	if l.TotalPoints != challenge.CompletionBonusPoints {
		t.Errorf("Expected balance %d after bonus, got %d", challenge.CompletionBonusPoints, l.TotalPoints)
	}

	// A retried completion cannot pay a second bonus.
	if _, err := svc.MarkDayComplete(ctx, clerkID, challengeID, true); !errors.Is(err, challenge.ErrNotActive) {
		t.Errorf("Expected ErrNotActive on retry, got %v", err)
	}
	l, err = ledgerSvc.GetLedgerByClerkID(ctx, clerkID)
	if err != nil {
		t.Fatalf("Failed to get ledger: %v", err)
	}
	if l.TotalPoints != challenge.CompletionBonusPoints {
		t.Errorf("Retry changed the balance: %d", l.TotalPoints)
	}
}

func TestMarkDayCompleteRequiresStart(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	defer testhelpers.CleanupTestData(t, db)

	ledgerSvc := NewLedgerService(db)
	svc := NewChallengeService(db, ledgerSvc, nil)
	ctx := context.Background()
	clerkID := newTestClerkID()
	challengeID := "test-" + clerkID + "-ch"

	insertTestChallenge(t, db, challengeID, 3)

	if _, err := ledgerSvc.EnsureLedger(ctx, clerkID); err != nil {
		t.Fatalf("Failed to create ledger: %v", err)
	}

	if _, err := svc.MarkDayComplete(ctx, clerkID, challengeID, false); err == nil {
		t.Error("Expected error for a challenge that was never started")
	}
}
