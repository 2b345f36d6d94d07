package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dailyGraceAPI/internal/ledger"
	"dailyGraceAPI/internal/streak"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Streak lengths that trigger a celebration push.
var milestoneStreaks = map[int]bool{7: true, 30: true, 100: true, 365: true}

type StreakService struct {
	db           *pgxpool.Pool
	notifService *NotificationService
}

func NewStreakService(db *pgxpool.Pool, notifService *NotificationService) *StreakService {
	return &StreakService{
		db:           db,
		notifService: notifService,
	}
}

// RecordActivity registers one streak-qualifying action (journal save,
// devotion read) for the current UTC day. The row is locked for the
// duration of the transaction so concurrent calls for the same user are
// serialized; a repeated call on the same day changes nothing.
func (s *StreakService) RecordActivity(ctx context.Context, clerkID string, now time.Time) (*streak.Result, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var state streak.State
	query := `
	SELECT current_streak, longest_streak, last_streak_date
	FROM user_preferences
	WHERE clerk_id = $1
	FOR UPDATE
	`
	err = tx.QueryRow(ctx, query, clerkID).Scan(&state.CurrentStreak, &state.LongestStreak, &state.LastDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load streak state: %w", err)
	}

	next, kind := streak.Advance(state, now)
	result := &streak.Result{
		Transition:    kind,
		CurrentStreak: next.CurrentStreak,
		LongestStreak: next.LongestStreak,
	}

	if kind == streak.TransitionNoChange {
		return result, nil
	}

	update := `
	UPDATE user_preferences
	SET current_streak = $2, longest_streak = $3, last_streak_date = $4, updated_at = NOW()
	WHERE clerk_id = $1
	`
	if _, err := tx.Exec(ctx, update, clerkID, next.CurrentStreak, next.LongestStreak, next.LastDate); err != nil {
		return nil, fmt.Errorf("failed to save streak state: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if milestoneStreaks[next.CurrentStreak] && s.notifService != nil {
		s.notifService.NotifyStreakMilestone(clerkID, next.CurrentStreak)
	}

	return result, nil
}
