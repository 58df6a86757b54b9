// Package dashboard holds the per-connection presentation state of one signed
// in user: the latest store snapshot, the current view, pending optimistic
// toggles and the edit form. It owns the only mutable copy of the view and
// re-runs the engine on every Render.
package dashboard

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/jaekwang-park/homework-api/internal/engine"
	"github.com/jaekwang-park/homework-api/internal/model"
	"github.com/jaekwang-park/homework-api/internal/service"
)

// Store is the write side a session talks to.
type Store interface {
	Save(ctx context.Context, ownerID, targetID string, input service.AssignmentInput) (model.Assignment, error)
	SetCompleted(ctx context.Context, ownerID, id string, completed bool) (model.Assignment, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type Session struct {
	ownerID string
	store   Store

	changes chan struct{}

	mu          sync.Mutex
	assignments []model.Assignment
	view        engine.ViewState
	form        engine.EditForm
	loc         *time.Location
}

func NewSession(ownerID string, store Store) *Session {
	return &Session{
		ownerID: ownerID,
		store:   store,
		changes: make(chan struct{}, 1),
		view:    engine.DefaultView(),
	}
}

func (s *Session) OwnerID() string {
	return s.ownerID
}

// Changes receives a value after any state change that alters Render.
// Consecutive changes may be coalesced into one signal.
func (s *Session) Changes() <-chan struct{} {
	return s.changes
}

func (s *Session) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// ApplySnapshot replaces the assignment set. Overrides the snapshot already
// agrees with, or whose assignment is gone, are dropped.
func (s *Session) ApplySnapshot(list []model.Assignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.notify()

	s.assignments = slices.Clone(list)
	if len(s.view.Overrides) == 0 {
		return
	}

	stored := make(map[string]bool, len(list))
	for _, a := range list {
		stored[a.ID] = a.Completed
	}
	pending := s.view.Overrides.Clone()
	for id, v := range pending {
		if c, ok := stored[id]; !ok || c == v {
			delete(pending, id)
		}
	}
	s.view = s.view.WithOverrides(pending)
}

// SetView replaces search, filter and sort. Pending overrides are kept.
func (s *Session) SetView(search string, filter engine.FilterBy, sort engine.SortBy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = s.view.WithSearch(search).WithFilter(filter).WithSort(sort)
	s.notify()
}

// SetLocation sets the zone Render counts calendar days in. A nil loc keeps
// the zone of the time passed to Render.
func (s *Session) SetLocation(loc *time.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loc = loc
	s.notify()
}

func (s *Session) View() engine.ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.WithOverrides(s.view.Overrides)
}

// Toggle flips the effective completion of id at once and then asks the
// store to persist it. When the store fails the override is rolled back.
func (s *Session) Toggle(ctx context.Context, id string) error {
	s.mu.Lock()
	a, ok := s.find(id)
	if !ok {
		s.mu.Unlock()
		return service.ErrNotFound
	}
	prev, hadPrev := s.view.Overrides[id]
	next := !s.view.Overrides.Completed(a)
	s.setOverride(id, next, true)
	s.mu.Unlock()
	s.notify()

	if _, err := s.store.SetCompleted(ctx, s.ownerID, id, next); err != nil {
		s.mu.Lock()
		// A snapshot may have settled the override in the meantime.
		if v, ok := s.view.Overrides[id]; ok && v == next {
			s.setOverride(id, prev, hadPrev)
		}
		s.mu.Unlock()
		s.notify()
		return err
	}
	return nil
}

func (s *Session) setOverride(id string, v, present bool) {
	o := s.view.Overrides.Clone()
	if present {
		o[id] = v
	} else {
		delete(o, id)
	}
	s.view = s.view.WithOverrides(o)
}

// BeginEdit loads id into the form, replacing any edit in progress.
func (s *Session) BeginEdit(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.find(id)
	if !ok {
		return service.ErrNotFound
	}
	s.form.BeginEdit(a)
	s.notify()
	return nil
}

func (s *Session) CancelEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.Cancel()
	s.notify()
}

// Save creates a new assignment, or updates the one being edited. Invalid
// input is rejected before the store is called; the form is reset only
// after the store confirms.
func (s *Session) Save(ctx context.Context, input service.AssignmentInput) (model.Assignment, error) {
	if err := service.ValidateInput(input); err != nil {
		return model.Assignment{}, err
	}

	s.mu.Lock()
	target, _ := s.form.Target()
	s.mu.Unlock()

	saved, err := s.store.Save(ctx, s.ownerID, target, input)
	if err != nil {
		return model.Assignment{}, err
	}

	s.mu.Lock()
	if cur, _ := s.form.Target(); cur == target {
		s.form.Saved()
	}
	s.mu.Unlock()
	s.notify()
	return saved, nil
}

// SaveDraft saves the form's current draft as loaded by BeginEdit.
func (s *Session) SaveDraft(ctx context.Context) (model.Assignment, error) {
	s.mu.Lock()
	draft := s.form.Draft()
	s.mu.Unlock()
	return s.Save(ctx, service.InputFromDraft(draft))
}

func (s *Session) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, s.ownerID, id); err != nil {
		return err
	}

	s.mu.Lock()
	if target, ok := s.form.Target(); ok && target == id {
		s.form.Cancel()
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *Session) find(id string) (model.Assignment, bool) {
	for _, a := range s.assignments {
		if a.ID == id {
			return a, true
		}
	}
	return model.Assignment{}, false
}

// Item is one visible row.
type Item struct {
	Assignment model.Assignment `json:"assignment"`
	Completed  bool             `json:"completed"`
	Due        engine.DueStatus `json:"due"`
}

type ViewInfo struct {
	Search string          `json:"search"`
	Filter engine.FilterBy `json:"filter"`
	Sort   engine.SortBy   `json:"sort"`
	// Pending lists ids whose completion is not yet confirmed by the store.
	Pending []string `json:"pending"`
	Zone    string   `json:"tz,omitempty"`
}

type FormInfo struct {
	State  string       `json:"state"`
	Target string       `json:"target,omitempty"`
	Draft  engine.Draft `json:"draft"`
}

// Frame is everything needed to draw the dashboard once.
type Frame struct {
	Items             []Item       `json:"items"`
	Stats             engine.Stats `json:"stats"`
	CompletionPercent *int         `json:"completion_percent,omitempty"`
	View              ViewInfo     `json:"view"`
	Form              FormInfo     `json:"form"`
}

func (s *Session) Render(now time.Time) Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loc != nil {
		now = now.In(s.loc)
	}
	visible := engine.FilterAndSort(s.assignments, s.view, now)
	items := make([]Item, 0, len(visible))
	for _, a := range visible {
		items = append(items, Item{
			Assignment: a,
			Completed:  s.view.Overrides.Completed(a),
			Due:        engine.ClassifyDueDate(a.DueDate, now),
		})
	}

	stats := engine.ComputeStats(s.assignments, s.view.Overrides, now)
	frame := Frame{
		Items: items,
		Stats: stats,
		View: ViewInfo{
			Search:  s.view.SearchQuery,
			Filter:  s.view.FilterBy,
			Sort:    s.view.SortBy,
			Pending: pendingIDs(s.view.Overrides),
		},
		Form: FormInfo{
			State: s.form.State().String(),
			Draft: s.form.Draft(),
		},
	}
	if pct, ok := stats.CompletionPercent(); ok {
		frame.CompletionPercent = &pct
	}
	if target, ok := s.form.Target(); ok {
		frame.Form.Target = target
	}
	if s.loc != nil {
		frame.View.Zone = s.loc.String()
	}
	return frame
}

func pendingIDs(o engine.Overrides) []string {
	ids := make([]string, 0, len(o))
	for id := range o {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
