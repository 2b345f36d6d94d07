package ledger

import (
	"errors"
	"time"
)

// Collection names for unlockable content.
const (
	CollectionSeries = "series"
	CollectionTheme  = "theme"
)

var (
	ErrInvalidAmount = errors.New("points amount must be positive")
	ErrNotUnlocked   = errors.New("theme is not unlocked")
	ErrNotFound      = errors.New("ledger not found")
)

// UserLedger is the per-user points/streak/unlock document. It is created
// with defaults on first authenticated access and only mutated through the
// ledger services.
type UserLedger struct {
	UserID            string     `json:"id" db:"user_id"`
	ClerkID           string     `json:"clerkId" db:"clerk_id"`
	TotalPoints       int        `json:"totalPoints" db:"total_points"`
	UnlockedSeriesIDs []string   `json:"unlockedSeriesIds" db:"unlocked_series_ids"`
	UnlockedThemeIDs  []string   `json:"unlockedThemeIds" db:"unlocked_theme_ids"`
	ActiveThemeID     *string    `json:"activeThemeId" db:"active_theme_id"`
	CurrentStreak     int        `json:"currentStreak" db:"current_streak"`
	LongestStreak     int        `json:"longestStreak" db:"longest_streak"`
	LastStreakDate    *time.Time `json:"lastStreakDate" db:"last_streak_date"`
	ReferredBy        *string    `json:"referredBy" db:"referred_by"`
	IsPremium         bool       `json:"isPremium" db:"is_premium"`
	CreatedAt         time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time  `json:"updatedAt" db:"updated_at"`
}

type UnlockRequest struct {
	ItemID     string `json:"item_id" validate:"required"`
	Collection string `json:"collection" validate:"required"`
}

type UnlockResponse struct {
	Unlocked   bool `json:"unlocked"`
	NewBalance int  `json:"new_balance"`
}

type GiftRequest struct {
	GiftID string `json:"gift_id" validate:"required"`
}

type SetActiveThemeRequest struct {
	ThemeID *string `json:"theme_id"`
}
