package streak

import (
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestAdvanceFirstActivityStartsStreak(t *testing.T) {
	state, kind := Advance(State{}, day("2025-03-10"))

	if kind != TransitionStarted {
		t.Errorf("Expected transition 'started', got '%s'", kind)
	}
	if state.CurrentStreak != 1 || state.LongestStreak != 1 {
		t.Errorf("Expected streak 1/1, got %d/%d", state.CurrentStreak, state.LongestStreak)
	}
	if state.LastDate == nil || !state.LastDate.Equal(day("2025-03-10")) {
		t.Errorf("Expected last date 2025-03-10, got %v", state.LastDate)
	}
}

func TestAdvanceSameDayIsIdempotent(t *testing.T) {
	state, _ := Advance(State{}, day("2025-03-10"))

	again, kind := Advance(state, day("2025-03-10"))
	if kind != TransitionNoChange {
		t.Errorf("Expected transition 'no_change', got '%s'", kind)
	}
	if again.CurrentStreak != state.CurrentStreak {
		t.Errorf("Same-day call mutated streak: %d -> %d", state.CurrentStreak, again.CurrentStreak)
	}
}

func TestAdvanceConsecutiveDaysContinue(t *testing.T) {
	state, _ := Advance(State{}, day("2025-03-10"))

	for i, d := range []string{"2025-03-11", "2025-03-12", "2025-03-13"} {
		var kind Transition
		state, kind = Advance(state, day(d))
		if kind != TransitionContinued {
			t.Fatalf("Day %s: expected 'continued', got '%s'", d, kind)
		}
		if state.CurrentStreak != i+2 {
			t.Fatalf("Day %s: expected streak %d, got %d", d, i+2, state.CurrentStreak)
		}
	}
	if state.LongestStreak != 4 {
		t.Errorf("Expected longest streak 4, got %d", state.LongestStreak)
	}
}

func TestAdvanceGapResetsStreak(t *testing.T) {
	state, _ := Advance(State{}, day("2025-03-10"))
	state, _ = Advance(state, day("2025-03-11"))

	state, kind := Advance(state, day("2025-03-14"))
	if kind != TransitionReset {
		t.Errorf("Expected transition 'reset', got '%s'", kind)
	}
	if state.CurrentStreak != 1 {
		t.Errorf("Expected streak reset to 1, got %d", state.CurrentStreak)
	}
	if state.LongestStreak != 2 {
		t.Errorf("Reset must not lower longest streak: expected 2, got %d", state.LongestStreak)
	}
}

func TestAdvanceLongestNeverBelowCurrent(t *testing.T) {
	state := State{}
	days := []string{
		"2025-01-01", "2025-01-02", "2025-01-05",
		"2025-01-06", "2025-01-07", "2025-01-08",
	}
	for _, d := range days {
		state, _ = Advance(state, day(d))
		if state.LongestStreak < state.CurrentStreak {
			t.Fatalf("Invariant violated after %s: longest %d < current %d", d, state.LongestStreak, state.CurrentStreak)
		}
	}
	if state.CurrentStreak != 4 || state.LongestStreak != 4 {
		t.Errorf("Expected 4/4 after rebuild, got %d/%d", state.CurrentStreak, state.LongestStreak)
	}
}

func TestDayNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+13", 13*3600)
	// 00:30 on the 11th in UTC+13 is still the 10th in UTC.
	local := time.Date(2025, 3, 11, 0, 30, 0, 0, loc)

	if got := Day(local); !got.Equal(day("2025-03-10")) {
		t.Errorf("Expected UTC day 2025-03-10, got %v", got)
	}
}
