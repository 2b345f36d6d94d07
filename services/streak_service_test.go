package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"dailyGraceAPI/internal/ledger"
	"dailyGraceAPI/internal/streak"
	"dailyGraceAPI/internal/testhelpers"
)

func TestRecordActivityTransitions(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	defer testhelpers.CleanupTestData(t, db)

	ledgerSvc := NewLedgerService(db)
	svc := NewStreakService(db, nil)
	ctx := context.Background()
	clerkID := newTestClerkID()

	if _, err := ledgerSvc.EnsureLedger(ctx, clerkID); err != nil {
		t.Fatalf("Failed to create ledger: %v", err)
	}

	day1 := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	res, err := svc.RecordActivity(ctx, clerkID, day1)
	if err != nil {
		t.Fatalf("First activity failed: %v", err)
	}
	if res.Transition != streak.TransitionStarted || res.CurrentStreak != 1 {
		t.Errorf("First activity: expected started streak of 1, got %+v", res)
	}

	// Second action on the same day is a no-op.
	res, err = svc.RecordActivity(ctx, clerkID, day1.Add(9*time.Hour))
	if err != nil {
		t.Fatalf("Same-day activity failed: %v", err)
	}
	if res.Transition != streak.TransitionNoChange || res.CurrentStreak != 1 {
		t.Errorf("Same-day activity: expected no change, got %+v", res)
	}

	res, err = svc.RecordActivity(ctx, clerkID, day1.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("Next-day activity failed: %v", err)
	}
	if res.Transition != streak.TransitionContinued || res.CurrentStreak != 2 {
		t.Errorf("Next-day activity: expected streak of 2, got %+v", res)
	}

	// A gap resets the current streak but keeps the longest.
	res, err = svc.RecordActivity(ctx, clerkID, day1.AddDate(0, 0, 5))
	if err != nil {
		t.Fatalf("Post-gap activity failed: %v", err)
	}
	if res.Transition != streak.TransitionReset || res.CurrentStreak != 1 {
		t.Errorf("Post-gap activity: expected reset to 1, got %+v", res)
	}
	if res.LongestStreak != 2 {
		t.Errorf("Expected longest streak 2 to survive the reset, got %d", res.LongestStreak)
	}

	l, err := ledgerSvc.GetLedgerByClerkID(ctx, clerkID)
	if err != nil {
		t.Fatalf("Failed to get ledger: %v", err)
	}
	if l.CurrentStreak != 1 || l.LongestStreak != 2 {
		t.Errorf("Persisted streak state mismatch: current=%d longest=%d", l.CurrentStreak, l.LongestStreak)
	}
}

func TestRecordActivityUnknownUser(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	defer testhelpers.CleanupTestData(t, db)

	svc := NewStreakService(db, nil)

	if _, err := svc.RecordActivity(context.Background(), newTestClerkID(), time.Now().UTC()); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown user, got %v", err)
	}
}
