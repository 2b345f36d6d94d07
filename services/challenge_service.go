package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dailyGraceAPI/internal/challenge"
	"dailyGraceAPI/internal/ledger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChallengeService struct {
	db           *pgxpool.Pool
	ledgerSvc    *LedgerService
	notifService *NotificationService
}

func NewChallengeService(db *pgxpool.Pool, ledgerSvc *LedgerService, notifService *NotificationService) *ChallengeService {
	return &ChallengeService{
		db:           db,
		ledgerSvc:    ledgerSvc,
		notifService: notifService,
	}
}

func (s *ChallengeService) GetChallenge(ctx context.Context, challengeID string) (*challenge.Challenge, error) {
	c := &challenge.Challenge{}
	err := s.db.QueryRow(ctx,
		`SELECT id, name, description, total_days, is_active FROM challenges WHERE id = $1`,
		challengeID).Scan(&c.ID, &c.Name, &c.Description, &c.TotalDays, &c.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("challenge not found")
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	return c, nil
}

// ListChallenges returns the active catalog together with the caller's
// progress rows where they exist.
func (s *ChallengeService) ListChallenges(ctx context.Context, clerkID string) ([]*challenge.Challenge, []*challenge.Progress, error) {
	userID, err := s.ledgerSvc.getUserID(ctx, clerkID)
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, name, description, total_days, is_active FROM challenges WHERE is_active = true ORDER BY total_days ASC`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	defer rows.Close()

	var catalog []*challenge.Challenge
	for rows.Next() {
		c := &challenge.Challenge{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.TotalDays, &c.IsActive); err != nil {
			return nil, nil, err
		}
		catalog = append(catalog, c)
	}
	if err = rows.Err(); err != nil {
		return nil, nil, err
	}

	progressRows, err := s.db.Query(ctx, `
	SELECT user_id, challenge_id, started_at, current_day, completed_days, status, last_day_completed_at
	FROM user_challenge_progress
	WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list progress: %w", err)
	}
	defer progressRows.Close()

	var progress []*challenge.Progress
	for progressRows.Next() {
		p := &challenge.Progress{}
		err := progressRows.Scan(&p.UserID, &p.ChallengeID, &p.StartedAt, &p.CurrentDay,
			&p.CompletedDays, &p.Status, &p.LastDayCompletedAt)
		if err != nil {
			return nil, nil, err
		}
		progress = append(progress, p)
	}
	if err = progressRows.Err(); err != nil {
		return nil, nil, err
	}

	return catalog, progress, nil
}

// StartChallenge creates the progress row at day 1. Starting a challenge
// the user already has is a no-op that returns the existing row.
func (s *ChallengeService) StartChallenge(ctx context.Context, clerkID string, challengeID string) (*challenge.Progress, error) {
	userID, err := s.ledgerSvc.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	c, err := s.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if !c.IsActive {
		return nil, fmt.Errorf("challenge is not open for enrollment")
	}

	insert := `
	INSERT INTO user_challenge_progress (user_id, challenge_id, started_at, current_day, completed_days, status)
	VALUES ($1, $2, NOW(), 1, '{}', $3)
	ON CONFLICT (user_id, challenge_id) DO NOTHING
	`
	if _, err := s.db.Exec(ctx, insert, userID, challengeID, challenge.StatusActive); err != nil {
		return nil, fmt.Errorf("failed to start challenge: %w", err)
	}

	return s.getProgress(ctx, userID, challengeID)
}

func (s *ChallengeService) getProgress(ctx context.Context, userID uuid.UUID, challengeID string) (*challenge.Progress, error) {
	p := &challenge.Progress{}
	err := s.db.QueryRow(ctx, `
	SELECT user_id, challenge_id, started_at, current_day, completed_days, status, last_day_completed_at
	FROM user_challenge_progress
	WHERE user_id = $1 AND challenge_id = $2
	`, userID, challengeID).Scan(&p.UserID, &p.ChallengeID, &p.StartedAt, &p.CurrentDay,
		&p.CompletedDays, &p.Status, &p.LastDayCompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("challenge not started")
		}
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return p, nil
}

// MarkDayComplete records today's devotion for the challenge. The progress
// row is locked for the whole transaction; the day append, the completion
// transition and the premium completion bonus commit together, so a crash
// can never leave a day marked without its award. Re-running the same
// request afterwards hits the already-completed check and changes nothing.
//
// The premium flag is policy the caller supplies: only premium accounts
// receive the completion bonus.
func (s *ChallengeService) MarkDayComplete(ctx context.Context, clerkID string, challengeID string, premium bool) (*challenge.DayResult, error) {
	userID, err := s.ledgerSvc.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	c, err := s.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	p := &challenge.Progress{}
	err = tx.QueryRow(ctx, `
	SELECT user_id, challenge_id, started_at, current_day, completed_days, status, last_day_completed_at
	FROM user_challenge_progress
	WHERE user_id = $1 AND challenge_id = $2
	FOR UPDATE
	`, userID, challengeID).Scan(&p.UserID, &p.ChallengeID, &p.StartedAt, &p.CurrentDay,
		&p.CompletedDays, &p.Status, &p.LastDayCompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("challenge not started")
		}
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}

	res, err := p.CompleteCurrentDay(c.TotalDays, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if res.AlreadyDone {
		return &res, nil
	}

	update := `
	UPDATE user_challenge_progress
	SET current_day = $3, completed_days = $4, status = $5, last_day_completed_at = $6
	WHERE user_id = $1 AND challenge_id = $2
	`
	_, err = tx.Exec(ctx, update, userID, challengeID, p.CurrentDay, p.CompletedDays, p.Status, p.LastDayCompletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save progress: %w", err)
	}

	if res.JustFinished && premium {
		if err := awardPointsTx(ctx, tx, userID, challenge.CompletionBonusPoints); err != nil {
			if errors.Is(err, ledger.ErrNotFound) {
				return nil, ledger.ErrNotFound
			}
			return nil, err
		}
		res.BonusAwarded = true
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if res.JustFinished && s.notifService != nil {
		s.notifService.NotifyChallengeComplete(clerkID, c.Name)
	}

	return &res, nil
}
