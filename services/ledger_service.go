package services

import (
	"context"
	"errors"
	"fmt"

	"dailyGraceAPI/internal/ledger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ledgerColumns = `
	user_id, clerk_id, total_points, unlocked_series_ids, unlocked_theme_ids,
	active_theme_id, current_streak, longest_streak, last_streak_date,
	referred_by, is_premium, created_at, updated_at
`

// LedgerService owns the user_preferences row: creation with defaults on
// first access, reads, and the points currency (award/spend).
type LedgerService struct {
	db *pgxpool.Pool
}

func NewLedgerService(db *pgxpool.Pool) *LedgerService {
	return &LedgerService{db: db}
}

func scanLedger(row pgx.Row) (*ledger.UserLedger, error) {
	l := &ledger.UserLedger{}
	err := row.Scan(
		&l.UserID,
		&l.ClerkID,
		&l.TotalPoints,
		&l.UnlockedSeriesIDs,
		&l.UnlockedThemeIDs,
		&l.ActiveThemeID,
		&l.CurrentStreak,
		&l.LongestStreak,
		&l.LastStreakDate,
		&l.ReferredBy,
		&l.IsPremium,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// EnsureLedger creates the ledger row with defaults if the user has none.
// Concurrent calls are safe: the insert is ON CONFLICT DO NOTHING.
func (s *LedgerService) EnsureLedger(ctx context.Context, clerkID string) (*ledger.UserLedger, error) {
	insert := `
	INSERT INTO user_preferences (user_id, clerk_id)
	VALUES ($1, $2)
	ON CONFLICT (clerk_id) DO NOTHING
	`
	if _, err := s.db.Exec(ctx, insert, uuid.New(), clerkID); err != nil {
		return nil, fmt.Errorf("failed to create ledger: %w", err)
	}

	return s.GetLedgerByClerkID(ctx, clerkID)
}

func (s *LedgerService) GetLedgerByClerkID(ctx context.Context, clerkID string) (*ledger.UserLedger, error) {
	query := `SELECT ` + ledgerColumns + ` FROM user_preferences WHERE clerk_id = $1`

	l, err := scanLedger(s.db.QueryRow(ctx, query, clerkID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ledger: %w", err)
	}
	return l, nil
}

func (s *LedgerService) getUserID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT user_id FROM user_preferences WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ledger.ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return userID, nil
}

// SetPremium syncs the premium-tier policy flag from the auth provider.
func (s *LedgerService) SetPremium(ctx context.Context, clerkID string, premium bool) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE user_preferences SET is_premium = $2, updated_at = NOW() WHERE clerk_id = $1`,
		clerkID, premium)
	if err != nil {
		return fmt.Errorf("failed to set premium flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (s *LedgerService) DeleteLedgerByClerkID(ctx context.Context, clerkID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM user_preferences WHERE clerk_id = $1`, clerkID); err != nil {
		return fmt.Errorf("failed to delete ledger: %w", err)
	}
	return nil
}

// AwardPoints atomically credits the balance and returns the new total.
func (s *LedgerService) AwardPoints(ctx context.Context, clerkID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, ledger.ErrInvalidAmount
	}

	query := `
	UPDATE user_preferences
	SET total_points = total_points + $2, updated_at = NOW()
	WHERE clerk_id = $1
	RETURNING total_points
	`

	var newBalance int
	err := s.db.QueryRow(ctx, query, clerkID, amount).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ledger.ErrNotFound
		}
		return 0, fmt.Errorf("failed to award points: %w", err)
	}
	return newBalance, nil
}

// SpendPoints debits the balance only if it covers the amount. It is a
// single conditional UPDATE, never read-then-write, so two concurrent
// spends can never drive the balance negative. An uncovered spend is a
// normal outcome and returns (false, nil).
func (s *LedgerService) SpendPoints(ctx context.Context, clerkID string, amount int) (bool, error) {
	if amount <= 0 {
		return false, ledger.ErrInvalidAmount
	}

	query := `
	UPDATE user_preferences
	SET total_points = total_points - $2, updated_at = NOW()
	WHERE clerk_id = $1 AND total_points >= $2
	`

	tag, err := s.db.Exec(ctx, query, clerkID, amount)
	if err != nil {
		return false, fmt.Errorf("failed to spend points: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// awardPointsTx credits points inside a caller-owned transaction, keyed by
// internal user id. Used where the award must commit together with other
// writes (challenge completion, referral bonus).
func awardPointsTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int) error {
	if amount <= 0 {
		return ledger.ErrInvalidAmount
	}

	tag, err := tx.Exec(ctx,
		`UPDATE user_preferences SET total_points = total_points + $2, updated_at = NOW() WHERE user_id = $1`,
		userID, amount)
	if err != nil {
		return fmt.Errorf("failed to award points: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}
