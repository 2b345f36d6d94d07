package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"dailyGraceAPI/internal/ledger"
	"dailyGraceAPI/internal/notification"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PushNotificationProvider is implemented by the FCM client and by mocks
// in tests.
type PushNotificationProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

type NotificationService struct {
	db           *pgxpool.Pool
	pushProvider PushNotificationProvider
}

func NewNotificationService(db *pgxpool.Pool) *NotificationService {
	return &NotificationService{db: db}
}

func (s *NotificationService) SetPushProvider(provider PushNotificationProvider) {
	s.pushProvider = provider
}

func (s *NotificationService) getUserID(ctx context.Context, clerkID string) (uuid.UUID, error) {
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

func (s *NotificationService) GetPreferences(ctx context.Context, clerkID string) (*notification.Preferences, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	prefs := &notification.Preferences{}
	query := `
	SELECT user_id, push_enabled, streak_reminders, daily_verse_push, updated_at
	FROM notification_preferences
	WHERE user_id = $1
	`
	err = s.db.QueryRow(ctx, query, userID).Scan(
		&prefs.UserID, &prefs.PushEnabled, &prefs.StreakReminders, &prefs.DailyVersePush, &prefs.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.createDefaultPreferences(ctx, userID)
		}
		return nil, fmt.Errorf("failed to get notification preferences: %w", err)
	}
	return prefs, nil
}

func (s *NotificationService) createDefaultPreferences(ctx context.Context, userID uuid.UUID) (*notification.Preferences, error) {
	prefs := &notification.Preferences{}
	query := `
	INSERT INTO notification_preferences (user_id, push_enabled, streak_reminders, daily_verse_push)
	VALUES ($1, true, true, true)
	ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
	RETURNING user_id, push_enabled, streak_reminders, daily_verse_push, updated_at
	`
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&prefs.UserID, &prefs.PushEnabled, &prefs.StreakReminders, &prefs.DailyVersePush, &prefs.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create default preferences: %w", err)
	}
	return prefs, nil
}

func (s *NotificationService) UpdatePreferences(ctx context.Context, clerkID string, req *notification.UpdatePreferencesRequest) (*notification.Preferences, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	if _, err := s.createDefaultPreferences(ctx, userID); err != nil {
		return nil, err
	}

	prefs := &notification.Preferences{}
	query := `
	UPDATE notification_preferences
	SET
		push_enabled = COALESCE($2, push_enabled),
		streak_reminders = COALESCE($3, streak_reminders),
		daily_verse_push = COALESCE($4, daily_verse_push),
		updated_at = NOW()
	WHERE user_id = $1
	RETURNING user_id, push_enabled, streak_reminders, daily_verse_push, updated_at
	`
	err = s.db.QueryRow(ctx, query, userID, req.PushEnabled, req.StreakReminders, req.DailyVersePush).Scan(
		&prefs.UserID, &prefs.PushEnabled, &prefs.StreakReminders, &prefs.DailyVersePush, &prefs.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update notification preferences: %w", err)
	}
	return prefs, nil
}

func (s *NotificationService) RegisterDevice(ctx context.Context, clerkID string, req notification.RegisterDeviceRequest) error {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO notification_device_tokens (id, user_id, token, platform)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (token) DO UPDATE SET user_id = $2, platform = $4
	`
	if _, err := s.db.Exec(ctx, query, uuid.New(), userID, req.Token, req.Platform); err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

func (s *NotificationService) getDeviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, token, platform, created_at FROM notification_device_tokens WHERE user_id = $1`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []notification.DeviceToken
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.Token, &t.Platform, &t.CreatedAt); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// SendTestNotification pushes a canned message to the caller's devices.
func (s *NotificationService) SendTestNotification(ctx context.Context, clerkID string) error {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}
	if s.pushProvider == nil {
		return fmt.Errorf("push provider not configured")
	}

	tokens, err := s.getDeviceTokens(ctx, userID)
	if err != nil {
		return err
	}
	return s.pushProvider.SendPush(ctx, tokens, "Daily Grace", "Test notification", map[string]any{"type": "test"})
}

// push delivers asynchronously; ledger operations never block on FCM.
func (s *NotificationService) push(clerkID string, notifType notification.NotificationType, title, body string, data map[string]any) {
	if s.pushProvider == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		userID, err := s.getUserID(ctx, clerkID)
		if err != nil {
			log.Printf("Notification: failed to resolve user %s: %v", clerkID, err)
			return
		}

		prefs := &notification.Preferences{PushEnabled: true, StreakReminders: true}
		err = s.db.QueryRow(ctx,
			`SELECT push_enabled, streak_reminders FROM notification_preferences WHERE user_id = $1`,
			userID).Scan(&prefs.PushEnabled, &prefs.StreakReminders)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			log.Printf("Notification: failed to load preferences: %v", err)
			return
		}
		if !prefs.PushEnabled {
			return
		}
		if notifType == notification.NotificationStreakMilestone && !prefs.StreakReminders {
			return
		}

		tokens, err := s.getDeviceTokens(ctx, userID)
		if err != nil {
			log.Printf("Notification: failed to load tokens: %v", err)
			return
		}
		if data == nil {
			data = map[string]any{}
		}
		data["type"] = string(notifType)

		if err := s.pushProvider.SendPush(ctx, tokens, title, body, data); err != nil {
			log.Printf("Notification: push failed for %s: %v", clerkID, err)
		}
	}()
}

func (s *NotificationService) NotifyStreakMilestone(clerkID string, days int) {
	s.push(clerkID, notification.NotificationStreakMilestone,
		"Streak milestone!",
		fmt.Sprintf("You've kept your daily devotion going for %d days.", days),
		map[string]any{"days": days})
}

func (s *NotificationService) NotifyChallengeComplete(clerkID string, challengeName string) {
	s.push(clerkID, notification.NotificationChallengeComplete,
		"Challenge complete!",
		fmt.Sprintf("You finished %s.", challengeName),
		map[string]any{"challenge": challengeName})
}

func (s *NotificationService) NotifyReferralBonus(clerkID string, points int) {
	s.push(clerkID, notification.NotificationReferralBonus,
		"A friend joined Daily Grace",
		fmt.Sprintf("You earned %d grace points for sharing the app.", points),
		map[string]any{"points": points})
}
