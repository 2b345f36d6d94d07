package notification

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationStreakMilestone   NotificationType = "streak_milestone"
	NotificationStreakRisk        NotificationType = "streak_risk"
	NotificationChallengeComplete NotificationType = "challenge_complete"
	NotificationReferralBonus     NotificationType = "referral_bonus"
	NotificationVerseOfTheDay     NotificationType = "verse_of_the_day"
)

type DeviceToken struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Token     string    `json:"token" db:"token"`
	Platform  string    `json:"platform" db:"platform"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Preferences struct {
	UserID          uuid.UUID `json:"user_id" db:"user_id"`
	PushEnabled     bool      `json:"push_enabled" db:"push_enabled"`
	StreakReminders bool      `json:"streak_reminders" db:"streak_reminders"`
	DailyVersePush  bool      `json:"daily_verse_push" db:"daily_verse_push"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

type UpdatePreferencesRequest struct {
	PushEnabled     *bool `json:"push_enabled,omitempty"`
	StreakReminders *bool `json:"streak_reminders,omitempty"`
	DailyVersePush  *bool `json:"daily_verse_push,omitempty"`
}

type RegisterDeviceRequest struct {
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform" validate:"required,oneof=ios android web"`
}
