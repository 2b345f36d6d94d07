package challenge

import (
	"errors"
	"time"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// CompletionBonusPoints is awarded once when a premium user finishes the
// final day of a challenge.
const CompletionBonusPoints = 100

var ErrNotActive = errors.New("challenge is not active")

// Challenge is a catalog entry: a fixed-length sequence of daily devotions.
type Challenge struct {
	ID          string `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
	TotalDays   int    `json:"total_days" db:"total_days"`
	IsActive    bool   `json:"is_active" db:"is_active"`
}

// Progress is one user's state within one challenge. Once Status is
// completed the row is frozen.
type Progress struct {
	UserID             string     `json:"user_id" db:"user_id"`
	ChallengeID        string     `json:"challenge_id" db:"challenge_id"`
	StartedAt          time.Time  `json:"started_at" db:"started_at"`
	CurrentDay         int        `json:"current_day" db:"current_day"`
	CompletedDays      []int      `json:"completed_days" db:"completed_days"`
	Status             Status     `json:"status" db:"status"`
	LastDayCompletedAt *time.Time `json:"last_day_completed_at" db:"last_day_completed_at"`
}

// DayResult reports what MarkDayComplete did.
type DayResult struct {
	Progress     *Progress `json:"progress"`
	AlreadyDone  bool      `json:"already_done"`
	JustFinished bool      `json:"just_finished"`
	BonusAwarded bool      `json:"bonus_awarded"`
}

type StartRequest struct {
	ChallengeID string `json:"challenge_id" validate:"required"`
}

type CompleteDayRequest struct {
	ChallengeID string `json:"challenge_id" validate:"required"`
}

func (p *Progress) dayCompleted(day int) bool {
	for _, d := range p.CompletedDays {
		if d == day {
			return true
		}
	}
	return false
}

// CompleteCurrentDay advances the progress state machine by one day.
//
// A second submit for the same unadvanced day (double click, retried
// request, crash-and-replay) reports AlreadyDone and mutates nothing.
// Completing the final day moves Status to completed, pins CurrentDay at
// its final value, and reports JustFinished so the caller can award the
// completion bonus in the same transaction.
func (p *Progress) CompleteCurrentDay(totalDays int, now time.Time) (DayResult, error) {
	if p.Status != StatusActive {
		return DayResult{}, ErrNotActive
	}

	if p.dayCompleted(p.CurrentDay) {
		return DayResult{Progress: p, AlreadyDone: true}, nil
	}

	p.CompletedDays = append(p.CompletedDays, p.CurrentDay)
	p.LastDayCompletedAt = &now

	res := DayResult{Progress: p}
	if p.CurrentDay+1 > totalDays {
		p.Status = StatusCompleted
		res.JustFinished = true
	} else {
		p.CurrentDay++
	}
	return res, nil
}
