package engine

import (
	"math"
	"time"

	"github.com/jaekwang-park/homework-api/internal/model"
)

// Stats are the dashboard counters over an owner's whole set.
type Stats struct {
	Total          int `json:"total"`
	CompletedCount int `json:"completed_count"`
	Overdue        int `json:"overdue"`
	DueToday       int `json:"due_today"`
}

// ComputeStats counts over the whole set. Each counter is an independent
// predicate, so an assignment may be counted as both overdue and due today.
// "Today" is the calendar date of now in now's location.
func ComputeStats(assignments []model.Assignment, overrides Overrides, now time.Time) Stats {
	s := Stats{Total: len(assignments)}
	y, m, d := now.Date()

	for _, a := range assignments {
		done := overrides.Completed(a)
		if done {
			s.CompletedCount++
		}
		if isOverdue(a, overrides, now) {
			s.Overdue++
		}
		dy, dm, dd := a.DueDate.In(now.Location()).Date()
		if !done && dy == y && dm == m && dd == d {
			s.DueToday++
		}
	}
	return s
}

// CompletionRate is CompletedCount/Total. ok is false for an empty set.
func (s Stats) CompletionRate() (rate float64, ok bool) {
	if s.Total == 0 {
		return 0, false
	}
	return float64(s.CompletedCount) / float64(s.Total), true
}

// CompletionPercent is the rate rounded to a whole percent for display.
func (s Stats) CompletionPercent() (int, bool) {
	rate, ok := s.CompletionRate()
	if !ok {
		return 0, false
	}
	return int(math.Round(rate * 100)), true
}
