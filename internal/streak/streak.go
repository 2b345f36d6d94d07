package streak

import "time"

// Transition describes what RecordActivity did to the streak.
type Transition string

const (
	TransitionNoChange  Transition = "no_change"
	TransitionStarted   Transition = "started"
	TransitionContinued Transition = "continued"
	TransitionReset     Transition = "reset"
)

// State is the streak portion of a user ledger. LastDate is a calendar
// date; the time component is always midnight UTC.
type State struct {
	CurrentStreak int
	LongestStreak int
	LastDate      *time.Time
}

type Result struct {
	Transition    Transition `json:"transition"`
	CurrentStreak int        `json:"current_streak"`
	LongestStreak int        `json:"longest_streak"`
}

// Day truncates t to its UTC calendar date. All streak comparisons happen
// on UTC days so a user travelling across time zones cannot double-count
// or skip a day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Advance applies one day of activity to the streak state. Calling it again
// with the same day is a no-op, yesterday's date continues the streak, and
// any gap of two or more days resets it to 1. LongestStreak is raised after
// every mutating transition.
func Advance(s State, today time.Time) (State, Transition) {
	today = Day(today)

	if s.LastDate != nil && Day(*s.LastDate).Equal(today) {
		return s, TransitionNoChange
	}

	kind := TransitionStarted
	switch {
	case s.LastDate == nil:
		s.CurrentStreak = 1
	case Day(*s.LastDate).Equal(today.AddDate(0, 0, -1)):
		s.CurrentStreak++
		kind = TransitionContinued
	default:
		s.CurrentStreak = 1
		kind = TransitionReset
	}

	s.LastDate = &today
	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	return s, kind
}
