package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jaekwang-park/homework-api/internal/engine"
	"github.com/jaekwang-park/homework-api/internal/model"
	"github.com/jaekwang-park/homework-api/internal/repository"
)

// AssignmentInput is the full set of editable fields submitted by a save.
// An empty Priority resolves to medium.
type AssignmentInput struct {
	Title       string
	Description string
	Subject     string
	Priority    model.Priority
	DueDate     time.Time
}

// InputFromDraft converts an edit-form draft into a save request.
func InputFromDraft(d engine.Draft) AssignmentInput {
	return AssignmentInput{
		Title:       d.Title,
		Description: d.Description,
		Subject:     d.Subject,
		Priority:    d.Priority,
		DueDate:     d.DueDate,
	}
}

// ParseDueDate parses an RFC3339 timestamp.
func ParseDueDate(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, fmt.Errorf("%w: due_date is required", ErrValidation)
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid due_date format, expected RFC3339", ErrValidation)
	}
	return t, nil
}

// ListView is the ordered list for a view plus statistics over the whole set.
type ListView struct {
	Assignments []model.Assignment `json:"assignments"`
	Stats       engine.Stats       `json:"stats"`
}

type AssignmentService struct {
	repo repository.AssignmentRepository
}

func NewAssignmentService(repo repository.AssignmentRepository) *AssignmentService {
	return &AssignmentService{repo: repo}
}

// ValidateInput runs every check Save performs before touching the store.
func ValidateInput(input AssignmentInput) error {
	if err := engine.ValidateBeforeSave(input.Title); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if p := model.ResolvePriority(string(input.Priority)); !p.IsValid() {
		return fmt.Errorf("%w: invalid priority %q", ErrValidation, input.Priority)
	}
	if input.DueDate.IsZero() {
		return fmt.Errorf("%w: due_date is required", ErrValidation)
	}
	return nil
}

// Save creates a new assignment when targetID is empty and otherwise
// replaces the editable fields of targetID.
func (s *AssignmentService) Save(ctx context.Context, ownerID, targetID string, input AssignmentInput) (model.Assignment, error) {
	if err := ValidateInput(input); err != nil {
		return model.Assignment{}, err
	}
	priority := model.ResolvePriority(string(input.Priority))

	if targetID == "" {
		created, err := s.repo.Create(ctx, model.Assignment{
			OwnerID:     ownerID,
			Title:       input.Title,
			Description: input.Description,
			Subject:     input.Subject,
			Priority:    priority,
			DueDate:     input.DueDate,
		})
		if err != nil {
			return model.Assignment{}, storeError("create", err)
		}
		return created, nil
	}

	updated, err := s.repo.Update(ctx, ownerID, targetID, model.AssignmentPatch{
		Title:       &input.Title,
		Description: &input.Description,
		Subject:     &input.Subject,
		Priority:    &priority,
		DueDate:     &input.DueDate,
	})
	if err != nil {
		return model.Assignment{}, storeError("update", err)
	}
	return updated, nil
}

func (s *AssignmentService) SetCompleted(ctx context.Context, ownerID, id string, completed bool) (model.Assignment, error) {
	updated, err := s.repo.Update(ctx, ownerID, id, model.AssignmentPatch{Completed: &completed})
	if err != nil {
		return model.Assignment{}, storeError("update completion of", err)
	}
	return updated, nil
}

func (s *AssignmentService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return storeError("delete", err)
	}
	return nil
}

func (s *AssignmentService) Get(ctx context.Context, ownerID, id string) (model.Assignment, error) {
	a, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return model.Assignment{}, storeError("get", err)
	}
	return a, nil
}

func (s *AssignmentService) List(ctx context.Context, ownerID string) ([]model.Assignment, error) {
	list, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, storeError("list", err)
	}
	return list, nil
}

// View loads the owner's set and applies view. Stats cover the whole set,
// not only the visible rows.
func (s *AssignmentService) View(ctx context.Context, ownerID string, view engine.ViewState, now time.Time) (ListView, error) {
	all, err := s.List(ctx, ownerID)
	if err != nil {
		return ListView{}, err
	}
	return ListView{
		Assignments: engine.FilterAndSort(all, view, now),
		Stats:       engine.ComputeStats(all, view.Overrides, now),
	}, nil
}

func storeError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: failed to %s assignment: %w", ErrStoreOperation, op, err)
}
