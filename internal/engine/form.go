package engine

import (
	"time"

	"github.com/jaekwang-park/homework-api/internal/model"
)

type FormState int

const (
	FormIdle FormState = iota
	FormEditing
)

func (s FormState) String() string {
	if s == FormEditing {
		return "editing"
	}
	return "idle"
}

// Draft holds the editable fields of an assignment form.
type Draft struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Subject     string         `json:"subject"`
	Priority    model.Priority `json:"priority"`
	DueDate     time.Time      `json:"due_date"`
}

func emptyDraft() Draft {
	return Draft{Priority: model.DefaultPriority}
}

// EditForm tracks at most one assignment being edited. The zero value is an
// idle form.
type EditForm struct {
	state  FormState
	target string
	draft  Draft
}

// BeginEdit preloads the form from a and remembers its id. An edit already in
// progress is replaced.
func (f *EditForm) BeginEdit(a model.Assignment) {
	a = a.Normalize()
	f.state = FormEditing
	f.target = a.ID
	f.draft = Draft{
		Title:       a.Title,
		Description: a.Description,
		Subject:     a.Subject,
		Priority:    a.Priority,
		DueDate:     a.DueDate,
	}
}

// Cancel abandons the edit without touching the store.
func (f *EditForm) Cancel() {
	f.reset()
}

// Saved is called after the store confirmed the save.
func (f *EditForm) Saved() {
	f.reset()
}

func (f *EditForm) reset() {
	f.state = FormIdle
	f.target = ""
	f.draft = emptyDraft()
}

func (f *EditForm) State() FormState {
	return f.state
}

// Target returns the id being edited, or false when idle.
func (f *EditForm) Target() (string, bool) {
	if f.state != FormEditing {
		return "", false
	}
	return f.target, true
}

func (f *EditForm) Draft() Draft {
	if f.state != FormEditing {
		return emptyDraft()
	}
	return f.draft
}
