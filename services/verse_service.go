package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"dailyGraceAPI/internal/devotional"
	"dailyGraceAPI/internal/streak"

	"github.com/go-co-op/gocron/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VerseService rotates and serves the verse of the day. It reads the
// ledger tables for nothing; the daily job only writes daily_verse.
type VerseService struct {
	db *pgxpool.Pool
}

func NewVerseService(db *pgxpool.Pool) *VerseService {
	return &VerseService{db: db}
}

// GetVerseOfTheDay returns today's verse, rotating on demand if the daily
// job has not run yet.
func (s *VerseService) GetVerseOfTheDay(ctx context.Context) (*devotional.DailyVerse, error) {
	today := streak.Day(time.Now())

	dv, err := s.getDailyVerse(ctx, today)
	if err == nil {
		return dv, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	if err := s.RotateDailyVerse(ctx, today); err != nil {
		return nil, err
	}
	return s.getDailyVerse(ctx, today)
}

func (s *VerseService) getDailyVerse(ctx context.Context, day time.Time) (*devotional.DailyVerse, error) {
	dv := &devotional.DailyVerse{Verse: &devotional.Verse{}}
	query := `
	SELECT d.verse_date, d.verse_id, v.id, v.reference, v.text, v.sort_order
	FROM daily_verse d
	JOIN verses v ON v.id = d.verse_id
	WHERE d.verse_date = $1
	`
	err := s.db.QueryRow(ctx, query, day).Scan(
		&dv.VerseDate, &dv.VerseID,
		&dv.Verse.ID, &dv.Verse.Reference, &dv.Verse.Text, &dv.Verse.SortOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get daily verse: %w", err)
	}
	return dv, nil
}

// RotateDailyVerse picks the verse for the given UTC day by walking the
// catalog in sort order, one verse per day. The insert is ON CONFLICT DO
// NOTHING so a rerun (or a race with the on-demand path) never changes a
// day that is already set.
func (s *VerseService) RotateDailyVerse(ctx context.Context, day time.Time) error {
	day = streak.Day(day)

	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM verses`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count verses: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("verse catalog is empty")
	}

	offset := int(day.Unix()/86400) % count

	var verseID string
	err := s.db.QueryRow(ctx,
		`SELECT id FROM verses ORDER BY sort_order, id OFFSET $1 LIMIT 1`,
		offset).Scan(&verseID)
	if err != nil {
		return fmt.Errorf("failed to pick verse: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO daily_verse (verse_date, verse_id) VALUES ($1, $2) ON CONFLICT (verse_date) DO NOTHING`,
		day, verseID)
	if err != nil {
		return fmt.Errorf("failed to set daily verse: %w", err)
	}
	return nil
}

// StartRotationScheduler rotates the verse shortly after midnight UTC
// every day.
func (s *VerseService) StartRotationScheduler() {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		log.Printf("[Scheduler] Failed to create scheduler: %v", err)
		return
	}
	sched.Start()

	_, err = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 5, 0))),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := s.RotateDailyVerse(ctx, time.Now()); err != nil {
				log.Printf("[Scheduler] Verse rotation failed: %v", err)
				return
			}
			log.Println("[Scheduler] Rotated verse of the day")
		}),
	)
	if err != nil {
		log.Printf("[Scheduler] Failed to schedule verse rotation: %v", err)
	}
}
