package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AccessModel identifica el tipo de recurso que protege un guard.
type AccessModel string

const (
	ModelProject              AccessModel = "project"
	ModelProjectRole          AccessModel = "projectRole"
	ModelDocument             AccessModel = "document"
	ModelParticipationInvite  AccessModel = "participationInvite"
	ModelParticipationRequest AccessModel = "participationRequest"
	ModelBoard                AccessModel = "board"
	ModelTaskStatus           AccessModel = "taskStatus"
	ModelTask                 AccessModel = "task"
)

var projectLookups = map[AccessModel]string{
	ModelProject:              `SELECT id FROM projects WHERE id = $1`,
	ModelProjectRole:          `SELECT project_id FROM project_roles WHERE id = $1`,
	ModelDocument:             `SELECT project_id FROM documents WHERE id = $1`,
	ModelParticipationInvite:  `SELECT project_id FROM participation_invites WHERE id = $1`,
	ModelParticipationRequest: `SELECT project_id FROM participation_requests WHERE id = $1`,
	ModelBoard:                `SELECT project_id FROM boards WHERE id = $1`,
	ModelTaskStatus: `
		SELECT b.project_id FROM task_statuses s
		JOIN boards b ON b.id = s.board_id
		WHERE s.id = $1`,
	ModelTask: `
		SELECT b.project_id FROM tasks t
		JOIN task_statuses s ON s.id = t.task_status_id
		JOIN boards b ON b.id = s.board_id
		WHERE t.id = $1`,
}

// AccessRepository resuelve el proyecto de un recurso y la relación del usuario con él.
type AccessRepository interface {
	ProjectOf(ctx context.Context, model AccessModel, id string) (string, error)
	IsOwner(ctx context.Context, projectID, userID string) (bool, error)
	IsMember(ctx context.Context, projectID, userID string) (bool, error)
}

type PgAccessRepository struct {
	pool *pgxpool.Pool
}

func NewPgAccessRepository(pool *pgxpool.Pool) *PgAccessRepository {
	return &PgAccessRepository{pool: pool}
}

func (r *PgAccessRepository) ProjectOf(ctx context.Context, model AccessModel, id string) (string, error) {
	query, ok := projectLookups[model]
	if !ok {
		return "", fmt.Errorf("unknown access model %q", model)
	}
	var projectID string
	if err := r.pool.QueryRow(ctx, query, id).Scan(&projectID); err != nil {
		return "", translateError(err)
	}
	return projectID, nil
}

func (r *PgAccessRepository) IsOwner(ctx context.Context, projectID, userID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1 AND owner_id = $2)`
	var ok bool
	err := r.pool.QueryRow(ctx, query, projectID, userID).Scan(&ok)
	return ok, translateError(err)
}

func (r *PgAccessRepository) IsMember(ctx context.Context, projectID, userID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM project_role_members WHERE project_id = $1 AND user_id = $2)`
	var ok bool
	err := r.pool.QueryRow(ctx, query, projectID, userID).Scan(&ok)
	return ok, translateError(err)
}
