package model

import (
	"strings"
	"time"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// DefaultPriority is used whenever a record carries no priority.
const DefaultPriority = PriorityMedium

func (p Priority) IsValid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// Rank orders priorities high(0) < medium(1) < low(2). Anything unrecognised
// ranks as medium.
func (p Priority) Rank() int {
	switch ResolvePriority(string(p)) {
	case PriorityHigh:
		return 0
	case PriorityLow:
		return 2
	default:
		return 1
	}
}

// ResolvePriority maps an empty value to DefaultPriority and leaves everything
// else untouched, so invalid values can still be rejected by IsValid.
func ResolvePriority(s string) Priority {
	if s == "" {
		return DefaultPriority
	}
	return Priority(s)
}

type Assignment struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Subject     string    `json:"subject"`
	Priority    Priority  `json:"priority"`
	DueDate     time.Time `json:"due_date"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Normalize resolves field defaults. Records entering the system from the
// store or from clients pass through here once.
func (a Assignment) Normalize() Assignment {
	a.Title = strings.TrimSpace(a.Title)
	a.Priority = ResolvePriority(string(a.Priority))
	return a
}

// AssignmentPatch carries a partial update; nil fields are left unchanged.
type AssignmentPatch struct {
	Title       *string
	Description *string
	Subject     *string
	Priority    *Priority
	DueDate     *time.Time
	Completed   *bool
}

func (p AssignmentPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Subject == nil &&
		p.Priority == nil && p.DueDate == nil && p.Completed == nil
}

// Apply returns a copy of a with the patch fields set.
func (p AssignmentPatch) Apply(a Assignment) Assignment {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.Subject != nil {
		a.Subject = *p.Subject
	}
	if p.Priority != nil {
		a.Priority = *p.Priority
	}
	if p.DueDate != nil {
		a.DueDate = *p.DueDate
	}
	if p.Completed != nil {
		a.Completed = *p.Completed
	}
	return a.Normalize()
}
