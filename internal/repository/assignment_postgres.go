package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jaekwang-park/homework-api/internal/model"
)

const assignmentColumns = `id, owner_id, title, description, subject, priority, due_date, completed, created_at, updated_at`

type PostgresAssignmentRepository struct {
	db *sql.DB
}

func NewPostgresAssignment(db *sql.DB) *PostgresAssignmentRepository {
	return &PostgresAssignmentRepository{db: db}
}

func (r *PostgresAssignmentRepository) Create(ctx context.Context, a model.Assignment) (model.Assignment, error) {
	a = a.Normalize()
	id, err := uuid.NewV7()
	if err != nil {
		return model.Assignment{}, fmt.Errorf("failed to generate assignment id: %w", err)
	}

	query := `
		INSERT INTO assignments (id, owner_id, title, description, subject, priority, due_date, completed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + assignmentColumns

	row := r.db.QueryRowContext(ctx, query,
		id.String(), a.OwnerID, a.Title, a.Description, a.Subject, string(a.Priority), a.DueDate, a.Completed,
	)
	return scanAssignment(row)
}

func (r *PostgresAssignmentRepository) GetByID(ctx context.Context, ownerID, id string) (model.Assignment, error) {
	query := `SELECT ` + assignmentColumns + `
		FROM assignments
		WHERE id = $1 AND owner_id = $2`

	row := r.db.QueryRowContext(ctx, query, id, ownerID)
	return scanAssignment(row)
}

func (r *PostgresAssignmentRepository) Update(ctx context.Context, ownerID, id string, patch model.AssignmentPatch) (model.Assignment, error) {
	if patch.IsEmpty() {
		return r.GetByID(ctx, ownerID, id)
	}

	var sets []string
	var args []any
	add := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		add("title", strings.TrimSpace(*patch.Title))
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Subject != nil {
		add("subject", *patch.Subject)
	}
	if patch.Priority != nil {
		add("priority", string(model.ResolvePriority(string(*patch.Priority))))
	}
	if patch.DueDate != nil {
		add("due_date", *patch.DueDate)
	}
	if patch.Completed != nil {
		add("completed", *patch.Completed)
	}

	args = append(args, id, ownerID)
	query := fmt.Sprintf(`
		UPDATE assignments
		SET %s, updated_at = now()
		WHERE id = $%d AND owner_id = $%d
		RETURNING %s`,
		strings.Join(sets, ", "), len(args)-1, len(args), assignmentColumns,
	)

	row := r.db.QueryRowContext(ctx, query, args...)
	return scanAssignment(row)
}

func (r *PostgresAssignmentRepository) Delete(ctx context.Context, ownerID, id string) error {
	query := `DELETE FROM assignments WHERE id = $1 AND owner_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// ListByOwner returns the owner's full set in creation order.
func (r *PostgresAssignmentRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Assignment, error) {
	query := `SELECT ` + assignmentColumns + `
		FROM assignments
		WHERE owner_id = $1
		ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	list := []model.Assignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assignments: %w", err)
	}

	return list, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanAssignment(row scannable) (model.Assignment, error) {
	var a model.Assignment
	var priority string
	err := row.Scan(
		&a.ID, &a.OwnerID, &a.Title, &a.Description, &a.Subject,
		&priority, &a.DueDate, &a.Completed, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return model.Assignment{}, fmt.Errorf("failed to scan assignment: %w", err)
	}
	a.Priority = model.Priority(priority)
	return a.Normalize(), nil
}

var _ AssignmentRepository = (*PostgresAssignmentRepository)(nil)
