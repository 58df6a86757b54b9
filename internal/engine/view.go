// Package engine derives what an assignment list shows: which records pass the
// current search and filter, in which order, the aggregate counters, and how
// each due date is described. Every function is pure; callers own the inputs
// and re-run the engine whenever the snapshot or the view changes.
package engine

import (
	"fmt"

	"github.com/jaekwang-park/homework-api/internal/model"
)

// FilterBy selects which assignments a view shows.
type FilterBy string

const (
	FilterAll       FilterBy = "all"
	FilterActive    FilterBy = "active"
	FilterCompleted FilterBy = "completed"
	FilterOverdue   FilterBy = "overdue"
	FilterHigh      FilterBy = "high"
)

// IsValid reports whether f is one of the known filters.
func (f FilterBy) IsValid() bool {
	switch f {
	case FilterAll, FilterActive, FilterCompleted, FilterOverdue, FilterHigh:
		return true
	}
	return false
}

// SortBy orders the visible assignments. Every order is stable.
type SortBy string

const (
	SortDueDate  SortBy = "dueDate"
	SortPriority SortBy = "priority"
	SortSubject  SortBy = "subject"
)

// IsValid reports whether s is one of the known sort keys.
func (s SortBy) IsValid() bool {
	switch s {
	case SortDueDate, SortPriority, SortSubject:
		return true
	}
	return false
}

// ParseFilterBy accepts the wire value of a filter; empty means FilterAll.
func ParseFilterBy(s string) (FilterBy, error) {
	if s == "" {
		return FilterAll, nil
	}
	f := FilterBy(s)
	if !f.IsValid() {
		return "", fmt.Errorf("unknown filter %q", s)
	}
	return f, nil
}

// ParseSortBy accepts the wire value of a sort key; empty means SortDueDate.
func ParseSortBy(s string) (SortBy, error) {
	if s == "" {
		return SortDueDate, nil
	}
	k := SortBy(s)
	if !k.IsValid() {
		return "", fmt.Errorf("unknown sort %q", s)
	}
	return k, nil
}

// Overrides holds optimistic completion values keyed by assignment id.
type Overrides map[string]bool

// Completed returns the effective completion of a: the override when one is
// pending, otherwise the stored value.
func (o Overrides) Completed(a model.Assignment) bool {
	if v, ok := o[a.ID]; ok {
		return v
	}
	return a.Completed
}

// Clone returns an independent copy. A nil receiver yields an empty map.
func (o Overrides) Clone() Overrides {
	out := make(Overrides, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// ViewState is the presentation's current query. It is treated as a value:
// the With helpers return modified copies and never touch the receiver.
type ViewState struct {
	SearchQuery string
	FilterBy    FilterBy
	SortBy      SortBy
	Overrides   Overrides
}

// DefaultView shows every assignment ordered by due date.
func DefaultView() ViewState {
	return ViewState{FilterBy: FilterAll, SortBy: SortDueDate}
}

func (v ViewState) WithSearch(q string) ViewState {
	v.SearchQuery = q
	return v
}

func (v ViewState) WithFilter(f FilterBy) ViewState {
	v.FilterBy = f
	return v
}

func (v ViewState) WithSort(s SortBy) ViewState {
	v.SortBy = s
	return v
}

func (v ViewState) WithOverrides(o Overrides) ViewState {
	v.Overrides = o.Clone()
	return v
}
