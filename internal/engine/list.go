package engine

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/jaekwang-park/homework-api/internal/model"
)

// FilterAndSort returns the assignments to render for view, in display order.
// The result is a new slice; assignments is not modified. now is the instant
// the overdue filter compares against.
func FilterAndSort(assignments []model.Assignment, view ViewState, now time.Time) []model.Assignment {
	query := strings.ToLower(view.SearchQuery)

	out := make([]model.Assignment, 0, len(assignments))
	for _, a := range assignments {
		if !matchesSearch(a, query) {
			continue
		}
		if !matchesFilter(a, view.FilterBy, view.Overrides, now) {
			continue
		}
		out = append(out, a)
	}

	if cmp := comparator(view.SortBy); cmp != nil {
		slices.SortStableFunc(out, cmp)
	}
	return out
}

func matchesSearch(a model.Assignment, lowerQuery string) bool {
	if lowerQuery == "" {
		return true
	}
	return strings.Contains(strings.ToLower(a.Title), lowerQuery) ||
		strings.Contains(strings.ToLower(a.Description), lowerQuery) ||
		strings.Contains(strings.ToLower(a.Subject), lowerQuery)
}

func matchesFilter(a model.Assignment, f FilterBy, o Overrides, now time.Time) bool {
	switch f {
	case FilterActive:
		return !o.Completed(a)
	case FilterCompleted:
		return o.Completed(a)
	case FilterOverdue:
		return isOverdue(a, o, now)
	case FilterHigh:
		return a.Priority == model.PriorityHigh
	default:
		return true
	}
}

func isOverdue(a model.Assignment, o Overrides, now time.Time) bool {
	return a.DueDate.Before(now) && !o.Completed(a)
}

// comparator returns nil for an unknown key, which leaves the filtered order
// as delivered by the store.
func comparator(s SortBy) func(a, b model.Assignment) int {
	switch s {
	case SortDueDate, "":
		return func(a, b model.Assignment) int {
			return a.DueDate.Compare(b.DueDate)
		}
	case SortPriority:
		return func(a, b model.Assignment) int {
			return a.Priority.Rank() - b.Priority.Rank()
		}
	case SortSubject:
		// Collator keeps internal buffers, so each sort gets its own.
		c := collate.New(language.Und)
		return func(a, b model.Assignment) int {
			return c.CompareString(a.Subject, b.Subject)
		}
	default:
		return nil
	}
}
