package activity

import (
	"fmt"
	"time"

	"judolog/internal/apperr"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusModerate Status = "moderate"
	StatusInactive Status = "inactive"
)

// WindowDays is the length of the trailing window, reference day included.
const WindowDays = 7

const dateLayout = "2006-01-02"

type Result struct {
	WeeklyCount int    `json:"weekly_sessions_count"`
	Status      Status `json:"status"`
}

// StatusFor maps a weekly session count to its label.
func StatusFor(weeklyCount int) Status {
	switch {
	case weeklyCount >= 3:
		return StatusActive
	case weeklyCount >= 1:
		return StatusModerate
	default:
		return StatusInactive
	}
}

// Classify parses ISO-8601 session dates and classifies them against ref.
func Classify(dates []string, ref time.Time) (Result, error) {
	parsed := make([]time.Time, 0, len(dates))
	for _, s := range dates {
		t, err := ParseDate(s, ref.Location())
		if err != nil {
			return Result{}, err
		}
		parsed = append(parsed, t)
	}
	return ClassifyTimes(parsed, ref), nil
}

// ClassifyTimes counts sessions on the calendar days [ref-6, ref] in ref's location.
func ClassifyTimes(dates []time.Time, ref time.Time) Result {
	last := Day(ref, ref.Location())
	first := last.AddDate(0, 0, -(WindowDays - 1))
	n := 0
	for _, t := range dates {
		d := Day(t, ref.Location())
		if d.Before(first) || d.After(last) {
			continue
		}
		n++
	}
	return Result{WeeklyCount: n, Status: StatusFor(n)}
}

// CurrentStreak counts consecutive days with at least one session, ending at
// ref. When ref itself has nothing logged yet the streak may end the day before.
func CurrentStreak(dates []time.Time, ref time.Time) int {
	loc := ref.Location()
	seen := make(map[time.Time]struct{}, len(dates))
	for _, t := range dates {
		seen[Day(t, loc)] = struct{}{}
	}
	cursor := Day(ref, loc)
	if _, ok := seen[cursor]; !ok {
		cursor = cursor.AddDate(0, 0, -1)
	}
	streak := 0
	for {
		if _, ok := seen[cursor]; !ok {
			return streak
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
}

// ParseDate accepts YYYY-MM-DD (a calendar day in loc) or RFC 3339.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, apperr.Invalid("date", fmt.Sprintf("expected YYYY-MM-DD or RFC 3339, got %q", s))
	}
	return t.In(loc), nil
}

// Day truncates t to midnight of its calendar date in loc.
func Day(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
