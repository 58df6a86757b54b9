package repository

import (
	"context"

	"github.com/jaekwang-park/homework-api/internal/model"
)

// AssignmentRepository is the document store for assignments. Every call is
// scoped by owner; a record belonging to another owner behaves as missing
// (sql.ErrNoRows).
type AssignmentRepository interface {
	Create(ctx context.Context, a model.Assignment) (model.Assignment, error)
	GetByID(ctx context.Context, ownerID, id string) (model.Assignment, error)
	Update(ctx context.Context, ownerID, id string, patch model.AssignmentPatch) (model.Assignment, error)
	Delete(ctx context.Context, ownerID, id string) error
	ListByOwner(ctx context.Context, ownerID string) ([]model.Assignment, error)
}
