package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"collabhub/internal/domain"
)

// ParticipationRepository persiste invitaciones, solicitudes y membresías.
type ParticipationRepository interface {
	GetMembership(ctx context.Context, projectID, userID string) (domain.Membership, error)
	HasInvite(ctx context.Context, projectID, userID string) (bool, error)
	HasRequest(ctx context.Context, projectID, userID string) (bool, error)
	CreateInvite(ctx context.Context, invite domain.ParticipationInvite) error
	CreateRequest(ctx context.Context, request domain.ParticipationRequest) error
	GetInvite(ctx context.Context, id string) (domain.ParticipationInvite, error)
	GetRequest(ctx context.Context, id string) (domain.ParticipationRequest, error)
	DeleteInvite(ctx context.Context, id string) error
	DeleteRequest(ctx context.Context, id string) error
	AcceptInvite(ctx context.Context, inviteID, userID string, now time.Time) (domain.ParticipationInvite, error)
	AcceptRequest(ctx context.Context, requestID string, now time.Time) (domain.ParticipationRequest, error)
	RemoveMember(ctx context.Context, projectID, userID string) (domain.Membership, error)
	ListInvitesByUser(ctx context.Context, userID string) ([]domain.ParticipationInvite, error)
	ListRequestsByUser(ctx context.Context, userID string) ([]domain.ParticipationRequest, error)
	ListInvitesByProject(ctx context.Context, projectID string) ([]domain.ParticipationInvite, error)
	ListRequestsByProject(ctx context.Context, projectID string) ([]domain.ParticipationRequest, error)
}

type PgParticipationRepository struct {
	pool *pgxpool.Pool
}

func NewPgParticipationRepository(pool *pgxpool.Pool) *PgParticipationRepository {
	return &PgParticipationRepository{pool: pool}
}

func (r *PgParticipationRepository) GetMembership(ctx context.Context, projectID, userID string) (domain.Membership, error) {
	const query = `
		SELECT m.project_id, m.project_role_id, m.user_id, t.name = $3
		FROM project_role_members m
		JOIN project_roles pr ON pr.id = m.project_role_id
		JOIN role_types t ON t.id = pr.role_type_id
		WHERE m.project_id = $1 AND m.user_id = $2
	`
	var m domain.Membership
	err := r.pool.QueryRow(ctx, query, projectID, userID, domain.OwnerRoleTypeName).Scan(&m.ProjectID, &m.ProjectRoleID, &m.UserID, &m.OwnerRole)
	if err != nil {
		return domain.Membership{}, translateError(err)
	}
	return m, nil
}

func (r *PgParticipationRepository) HasInvite(ctx context.Context, projectID, userID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM participation_invites WHERE project_id = $1 AND user_id = $2)`
	var ok bool
	err := r.pool.QueryRow(ctx, query, projectID, userID).Scan(&ok)
	return ok, translateError(err)
}

func (r *PgParticipationRepository) HasRequest(ctx context.Context, projectID, userID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM participation_requests WHERE project_id = $1 AND user_id = $2)`
	var ok bool
	err := r.pool.QueryRow(ctx, query, projectID, userID).Scan(&ok)
	return ok, translateError(err)
}

func (r *PgParticipationRepository) CreateInvite(ctx context.Context, invite domain.ParticipationInvite) error {
	const query = `
		INSERT INTO participation_invites (id, user_id, project_id, project_role_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query, invite.ID, invite.UserID, invite.ProjectID, invite.ProjectRoleID, invite.CreatedAt)
	return translateError(err)
}

func (r *PgParticipationRepository) CreateRequest(ctx context.Context, request domain.ParticipationRequest) error {
	const query = `
		INSERT INTO participation_requests (id, user_id, project_id, project_role_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query, request.ID, request.UserID, request.ProjectID, request.ProjectRoleID, request.CreatedAt)
	return translateError(err)
}

const inviteSelect = `
	SELECT i.id, i.user_id, i.project_id, i.project_role_id, p.name, t.name, i.created_at
	FROM participation_invites i
	JOIN projects p ON p.id = i.project_id
	JOIN project_roles pr ON pr.id = i.project_role_id
	JOIN role_types t ON t.id = pr.role_type_id
`

const requestSelect = `
	SELECT q.id, q.user_id, q.project_id, q.project_role_id, p.name, t.name, q.created_at
	FROM participation_requests q
	JOIN projects p ON p.id = q.project_id
	JOIN project_roles pr ON pr.id = q.project_role_id
	JOIN role_types t ON t.id = pr.role_type_id
`

func scanInvite(row rowScanner) (domain.ParticipationInvite, error) {
	var i domain.ParticipationInvite
	err := row.Scan(&i.ID, &i.UserID, &i.ProjectID, &i.ProjectRoleID, &i.ProjectName, &i.RoleName, &i.CreatedAt)
	if err != nil {
		return domain.ParticipationInvite{}, translateError(err)
	}
	return i, nil
}

func scanRequest(row rowScanner) (domain.ParticipationRequest, error) {
	var q domain.ParticipationRequest
	err := row.Scan(&q.ID, &q.UserID, &q.ProjectID, &q.ProjectRoleID, &q.ProjectName, &q.RoleName, &q.CreatedAt)
	if err != nil {
		return domain.ParticipationRequest{}, translateError(err)
	}
	return q, nil
}

func (r *PgParticipationRepository) GetInvite(ctx context.Context, id string) (domain.ParticipationInvite, error) {
	return scanInvite(r.pool.QueryRow(ctx, inviteSelect+` WHERE i.id = $1`, id))
}

func (r *PgParticipationRepository) GetRequest(ctx context.Context, id string) (domain.ParticipationRequest, error) {
	return scanRequest(r.pool.QueryRow(ctx, requestSelect+` WHERE q.id = $1`, id))
}

func (r *PgParticipationRepository) DeleteInvite(ctx context.Context, id string) error {
	return expectAffected(r.pool.Exec(ctx, `DELETE FROM participation_invites WHERE id = $1`, id))
}

func (r *PgParticipationRepository) DeleteRequest(ctx context.Context, id string) error {
	return expectAffected(r.pool.Exec(ctx, `DELETE FROM participation_requests WHERE id = $1`, id))
}

// AcceptInvite borra la invitación del usuario, lo agrega al rol e incrementa el
// contador de participantes en una transacción. Una segunda aceptación concurrente
// espera el lock de fila y termina en ErrNotFound.
func (r *PgParticipationRepository) AcceptInvite(ctx context.Context, inviteID, userID string, now time.Time) (domain.ParticipationInvite, error) {
	const consume = `
		DELETE FROM participation_invites
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, project_id, project_role_id, created_at
	`
	var inv domain.ParticipationInvite
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, consume, inviteID, userID).Scan(&inv.ID, &inv.UserID, &inv.ProjectID, &inv.ProjectRoleID, &inv.CreatedAt); err != nil {
			return err
		}
		return joinRole(ctx, tx, inv.ProjectID, inv.ProjectRoleID, inv.UserID, now)
	})
	if err != nil {
		return domain.ParticipationInvite{}, translateError(err)
	}
	return inv, nil
}

// AcceptRequest es el equivalente de AcceptInvite para solicitudes aprobadas por el dueño.
func (r *PgParticipationRepository) AcceptRequest(ctx context.Context, requestID string, now time.Time) (domain.ParticipationRequest, error) {
	const consume = `
		DELETE FROM participation_requests
		WHERE id = $1
		RETURNING id, user_id, project_id, project_role_id, created_at
	`
	var req domain.ParticipationRequest
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, consume, requestID).Scan(&req.ID, &req.UserID, &req.ProjectID, &req.ProjectRoleID, &req.CreatedAt); err != nil {
			return err
		}
		return joinRole(ctx, tx, req.ProjectID, req.ProjectRoleID, req.UserID, now)
	})
	if err != nil {
		return domain.ParticipationRequest{}, translateError(err)
	}
	return req, nil
}

// joinRole agrega al usuario al rol si quedan cupos y actualiza el contador.
func joinRole(ctx context.Context, tx pgx.Tx, projectID, roleID, userID string, now time.Time) error {
	var slots, taken int
	if err := tx.QueryRow(ctx, `SELECT slots FROM project_roles WHERE id = $1 FOR UPDATE`, roleID).Scan(&slots); err != nil {
		return err
	}
	// el conteo va en su propia sentencia para ver los miembros confirmados mientras se esperaba el lock
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM project_role_members WHERE project_role_id = $1`, roleID).Scan(&taken); err != nil {
		return err
	}
	if taken >= slots {
		return ErrRoleFull
	}
	const insertMember = `
		INSERT INTO project_role_members (project_role_id, project_id, user_id, joined_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.Exec(ctx, insertMember, roleID, projectID, userID, now); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE projects SET participants_count = participants_count + 1 WHERE id = $1`, projectID); err != nil {
		return err
	}
	// Una vez dentro del equipo, cualquier propuesta pendiente para el proyecto queda obsoleta.
	if _, err := tx.Exec(ctx, `DELETE FROM participation_invites WHERE project_id = $1 AND user_id = $2`, projectID, userID); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, `DELETE FROM participation_requests WHERE project_id = $1 AND user_id = $2`, projectID, userID)
	return err
}

// RemoveMember quita al usuario del proyecto y decrementa el contador.
func (r *PgParticipationRepository) RemoveMember(ctx context.Context, projectID, userID string) (domain.Membership, error) {
	const remove = `
		DELETE FROM project_role_members
		WHERE project_id = $1 AND user_id = $2
		RETURNING project_id, project_role_id, user_id
	`
	var m domain.Membership
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, remove, projectID, userID).Scan(&m.ProjectID, &m.ProjectRoleID, &m.UserID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `UPDATE projects SET participants_count = participants_count - 1 WHERE id = $1`, projectID)
		return err
	})
	if err != nil {
		return domain.Membership{}, translateError(err)
	}
	return m, nil
}

func (r *PgParticipationRepository) listInvites(ctx context.Context, cond string, arg string) ([]domain.ParticipationInvite, error) {
	rows, err := r.pool.Query(ctx, inviteSelect+` WHERE `+cond+` ORDER BY i.created_at DESC`, arg)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	var out []domain.ParticipationInvite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, translateError(rows.Err())
}

func (r *PgParticipationRepository) listRequests(ctx context.Context, cond string, arg string) ([]domain.ParticipationRequest, error) {
	rows, err := r.pool.Query(ctx, requestSelect+` WHERE `+cond+` ORDER BY q.created_at DESC`, arg)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	var out []domain.ParticipationRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, translateError(rows.Err())
}

func (r *PgParticipationRepository) ListInvitesByUser(ctx context.Context, userID string) ([]domain.ParticipationInvite, error) {
	return r.listInvites(ctx, `i.user_id = $1`, userID)
}

func (r *PgParticipationRepository) ListRequestsByUser(ctx context.Context, userID string) ([]domain.ParticipationRequest, error) {
	return r.listRequests(ctx, `q.user_id = $1`, userID)
}

func (r *PgParticipationRepository) ListInvitesByProject(ctx context.Context, projectID string) ([]domain.ParticipationInvite, error) {
	return r.listInvites(ctx, `i.project_id = $1`, projectID)
}

func (r *PgParticipationRepository) ListRequestsByProject(ctx context.Context, projectID string) ([]domain.ParticipationRequest, error) {
	return r.listRequests(ctx, `q.project_id = $1`, projectID)
}
