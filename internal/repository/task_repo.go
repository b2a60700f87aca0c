package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"collabhub/internal/domain"
)

// TaskRepository define el contrato de persistencia para tareas.
type TaskRepository interface {
	Create(ctx context.Context, task domain.Task) error
	GetByID(ctx context.Context, id string) (domain.Task, error)
	Update(ctx context.Context, id string, patch TaskPatch) (domain.Task, error)
	UpdateStatus(ctx context.Context, id, statusID string) (domain.Task, error)
	Delete(ctx context.Context, id string) error
}

// TaskPatch contiene los campos editables; ClearAssignee quita el responsable.
type TaskPatch struct {
	Name          *string
	Description   *string
	Priority      *string
	Deadline      *time.Time
	AssigneeID    *string
	ClearAssignee bool
}

type PgTaskRepository struct {
	pool *pgxpool.Pool
}

func NewPgTaskRepository(pool *pgxpool.Pool) *PgTaskRepository {
	return &PgTaskRepository{pool: pool}
}

const taskSelect = `
	SELECT t.id, t.task_status_id, t.name, t.description, t.priority, t.deadline,
		t.assignee_id, t.created_by, t.created_at, t.updated_at
	FROM tasks t
`

func scanTask(row rowScanner) (domain.Task, error) {
	var t domain.Task
	var createdBy *string
	err := row.Scan(
		&t.ID,
		&t.TaskStatusID,
		&t.Name,
		&t.Description,
		&t.Priority,
		&t.Deadline,
		&t.AssigneeID,
		&createdBy,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return domain.Task{}, translateError(err)
	}
	t.CreatedBy = derefString(createdBy)
	return t, nil
}

func (r *PgTaskRepository) Create(ctx context.Context, task domain.Task) error {
	const query = `
		INSERT INTO tasks (id, task_status_id, name, description, priority, deadline,
			assignee_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		task.ID,
		task.TaskStatusID,
		task.Name,
		task.Description,
		task.Priority,
		task.Deadline,
		task.AssigneeID,
		nullableString(task.CreatedBy),
		task.CreatedAt,
	)
	return translateError(err)
}

func (r *PgTaskRepository) GetByID(ctx context.Context, id string) (domain.Task, error) {
	return scanTask(r.pool.QueryRow(ctx, taskSelect+` WHERE t.id = $1`, id))
}

func (r *PgTaskRepository) Update(ctx context.Context, id string, patch TaskPatch) (domain.Task, error) {
	const query = `
		UPDATE tasks SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			priority = COALESCE($4, priority),
			deadline = COALESCE($5, deadline),
			assignee_id = CASE WHEN $7 THEN NULL ELSE COALESCE($6, assignee_id) END,
			updated_at = $8
		WHERE id = $1
	`
	err := expectAffected(r.pool.Exec(ctx, query,
		id,
		patch.Name,
		patch.Description,
		patch.Priority,
		patch.Deadline,
		patch.AssigneeID,
		patch.ClearAssignee,
		time.Now().UTC(),
	))
	if err != nil {
		return domain.Task{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *PgTaskRepository) UpdateStatus(ctx context.Context, id, statusID string) (domain.Task, error) {
	const query = `UPDATE tasks SET task_status_id = $2, updated_at = $3 WHERE id = $1`
	if err := expectAffected(r.pool.Exec(ctx, query, id, statusID, time.Now().UTC())); err != nil {
		return domain.Task{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *PgTaskRepository) Delete(ctx context.Context, id string) error {
	return expectAffected(r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id))
}
