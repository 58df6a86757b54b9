package model_test

import (
	"testing"
	"time"

	"github.com/jaekwang-park/homework-api/internal/model"
)

func TestPriority_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		priority model.Priority
		want     bool
	}{
		{"high", model.PriorityHigh, true},
		{"medium", model.PriorityMedium, true},
		{"low", model.PriorityLow, true},
		{"empty", model.Priority(""), false},
		{"invalid", model.Priority("urgent"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.priority.IsValid(); got != tt.want {
				t.Errorf("Priority(%q).IsValid() = %v, want %v", tt.priority, got, tt.want)
			}
		})
	}
}

func TestPriority_Rank(t *testing.T) {
	tests := []struct {
		priority model.Priority
		want     int
	}{
		{model.PriorityHigh, 0},
		{model.PriorityMedium, 1},
		{model.PriorityLow, 2},
		{model.Priority(""), 1},
		{model.Priority("bogus"), 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.priority), func(t *testing.T) {
			if got := tt.priority.Rank(); got != tt.want {
				t.Errorf("Rank() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAssignment_Normalize(t *testing.T) {
	a := model.Assignment{Title: "  Algebra HW  "}.Normalize()

	if a.Title != "Algebra HW" {
		t.Errorf("expected trimmed title, got %q", a.Title)
	}
	if a.Priority != model.PriorityMedium {
		t.Errorf("expected default priority medium, got %q", a.Priority)
	}

	kept := model.Assignment{Title: "x", Priority: model.PriorityLow}.Normalize()
	if kept.Priority != model.PriorityLow {
		t.Errorf("expected priority low to be kept, got %q", kept.Priority)
	}
}

func TestAssignmentPatch_Apply(t *testing.T) {
	due := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	done := true
	title := " Essay "

	base := model.Assignment{ID: "a-1", OwnerID: "u-1", Title: "Draft", Priority: model.PriorityHigh}
	got := model.AssignmentPatch{Title: &title, DueDate: &due, Completed: &done}.Apply(base)

	if got.Title != "Essay" {
		t.Errorf("expected title Essay, got %q", got.Title)
	}
	if !got.DueDate.Equal(due) {
		t.Errorf("expected due %v, got %v", due, got.DueDate)
	}
	if !got.Completed {
		t.Error("expected completed=true")
	}
	if got.Priority != model.PriorityHigh || got.OwnerID != "u-1" {
		t.Errorf("untouched fields changed: %+v", got)
	}
	if base.Title != "Draft" {
		t.Error("Apply must not mutate its input")
	}
}

func TestAssignmentPatch_IsEmpty(t *testing.T) {
	if !(model.AssignmentPatch{}).IsEmpty() {
		t.Error("zero patch should be empty")
	}
	s := ""
	if (model.AssignmentPatch{Subject: &s}).IsEmpty() {
		t.Error("patch with subject should not be empty")
	}
}
