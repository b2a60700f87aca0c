package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"collabhub/internal/domain"
)

// ProjectRoleRepository administra los asientos tipados de un proyecto.
type ProjectRoleRepository interface {
	Create(ctx context.Context, role domain.ProjectRole) (domain.ProjectRole, error)
	GetByID(ctx context.Context, id string) (domain.ProjectRole, error)
	Delete(ctx context.Context, id string) error
}

type PgProjectRoleRepository struct {
	pool *pgxpool.Pool
}

func NewPgProjectRoleRepository(pool *pgxpool.Pool) *PgProjectRoleRepository {
	return &PgProjectRoleRepository{pool: pool}
}

func (r *PgProjectRoleRepository) Create(ctx context.Context, role domain.ProjectRole) (domain.ProjectRole, error) {
	const query = `
		INSERT INTO project_roles (id, project_id, role_type_id, slots, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.pool.Exec(ctx, query, role.ID, role.ProjectID, role.RoleTypeID, role.Slots, role.CreatedAt); err != nil {
		return domain.ProjectRole{}, translateError(err)
	}
	return r.GetByID(ctx, role.ID)
}

func (r *PgProjectRoleRepository) GetByID(ctx context.Context, id string) (domain.ProjectRole, error) {
	roles, err := loadRoles(ctx, r.pool, `r.id = $1`, id)
	if err != nil {
		return domain.ProjectRole{}, err
	}
	if len(roles) == 0 {
		return domain.ProjectRole{}, ErrNotFound
	}
	return roles[0], nil
}

// Delete elimina el rol y descuenta a sus miembros del contador del proyecto.
func (r *PgProjectRoleRepository) Delete(ctx context.Context, id string) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var projectID string
		var members int
		const lock = `
			SELECT r.project_id, (SELECT count(*) FROM project_role_members m WHERE m.project_role_id = r.id)
			FROM project_roles r
			WHERE r.id = $1
			FOR UPDATE
		`
		if err := tx.QueryRow(ctx, lock, id).Scan(&projectID, &members); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM project_roles WHERE id = $1`, id); err != nil {
			return err
		}
		if members == 0 {
			return nil
		}
		_, err := tx.Exec(ctx, `UPDATE projects SET participants_count = participants_count - $2 WHERE id = $1`, projectID, members)
		return err
	})
	return translateError(err)
}
