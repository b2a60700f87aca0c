package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"collabhub/internal/domain"
)

// ProjectRepository define el contrato de persistencia para proyectos.
type ProjectRepository interface {
	ListCategories(ctx context.Context) ([]domain.ProjectCategory, error)
	ListRoleTypes(ctx context.Context) ([]domain.RoleType, error)
	GetRoleType(ctx context.Context, id string) (domain.RoleType, error)
	List(ctx context.Context, filter domain.ProjectFilter) ([]domain.Project, int, error)
	ListByMember(ctx context.Context, userID string) ([]domain.Project, error)
	CountActiveMemberships(ctx context.Context, userID string) (int, error)
	Create(ctx context.Context, params CreateProjectParams) (domain.Project, error)
	GetByID(ctx context.Context, id string) (domain.Project, error)
	Update(ctx context.Context, id string, patch ProjectPatch) (domain.Project, error)
	UpdateStatus(ctx context.Context, id, status string) error
	UpdateLogo(ctx context.Context, id, logoURL string) error
	UpdateDiscord(ctx context.Context, id string, links DiscordLinks) error
	Delete(ctx context.Context, id string) error
}

type RoleSlot struct {
	RoleTypeID string `json:"roleTypeId"`
	Slots      int    `json:"slots"`
}

// CreateProjectParams describe todo lo que se crea junto con el proyecto.
type CreateProjectParams struct {
	Project   domain.Project
	Roles     []RoleSlot
	BoardName string
	Columns   []string
}

type ProjectPatch struct {
	Name        *string
	Description *string
	CategoryID  *string
}

type DiscordLinks struct {
	ChannelID    string
	AdminRoleID  string
	MemberRoleID string
}

type PgProjectRepository struct {
	pool *pgxpool.Pool
}

func NewPgProjectRepository(pool *pgxpool.Pool) *PgProjectRepository {
	return &PgProjectRepository{pool: pool}
}

const projectSelect = `
	SELECT p.id, p.name, p.description, p.status, p.owner_id, p.category_id, c.name,
		p.participants_count, p.logo_url, p.discord_channel_id, p.discord_admin_role_id,
		p.discord_member_role_id, p.created_at, p.updated_at
	FROM projects p
	JOIN project_categories c ON c.id = p.category_id
`

func scanProject(row rowScanner) (domain.Project, error) {
	var p domain.Project
	var category domain.ProjectCategory
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Status,
		&p.OwnerID,
		&p.CategoryID,
		&category.Name,
		&p.ParticipantsCount,
		&p.LogoURL,
		&p.DiscordChannelID,
		&p.DiscordAdminRoleID,
		&p.DiscordMemberRoleID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return domain.Project{}, translateError(err)
	}
	category.ID = p.CategoryID
	p.Category = &category
	return p, nil
}

func collectProjects(rows pgx.Rows) ([]domain.Project, error) {
	defer rows.Close()
	var projects []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, translateError(rows.Err())
}

func (r *PgProjectRepository) ListCategories(ctx context.Context) ([]domain.ProjectCategory, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM project_categories ORDER BY name`)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	var out []domain.ProjectCategory
	for rows.Next() {
		var c domain.ProjectCategory
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, translateError(err)
		}
		out = append(out, c)
	}
	return out, translateError(rows.Err())
}

// ListRoleTypes excluye el tipo sintético de dueño.
func (r *PgProjectRepository) ListRoleTypes(ctx context.Context) ([]domain.RoleType, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM role_types WHERE name <> $1 ORDER BY name`, domain.OwnerRoleTypeName)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	var out []domain.RoleType
	for rows.Next() {
		var t domain.RoleType
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, translateError(err)
		}
		out = append(out, t)
	}
	return out, translateError(rows.Err())
}

func (r *PgProjectRepository) GetRoleType(ctx context.Context, id string) (domain.RoleType, error) {
	var t domain.RoleType
	err := r.pool.QueryRow(ctx, `SELECT id, name FROM role_types WHERE id = $1`, id).Scan(&t.ID, &t.Name)
	if err != nil {
		return domain.RoleType{}, translateError(err)
	}
	return t, nil
}

func (r *PgProjectRepository) List(ctx context.Context, filter domain.ProjectFilter) ([]domain.Project, int, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.Status != "" {
		add("p.status = $%d", filter.Status)
	}
	if filter.CategoryID != "" {
		add("p.category_id = $%d", filter.CategoryID)
	}
	if filter.MinParticipants != nil {
		add("p.participants_count >= $%d", *filter.MinParticipants)
	}
	if filter.MaxParticipants != nil {
		add("p.participants_count <= $%d", *filter.MaxParticipants)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM projects p`+where, args...).Scan(&total); err != nil {
		return nil, 0, translateError(err)
	}

	limit, offset := pageOffset(filter.Page, filter.Limit)
	query := projectSelect + where + fmt.Sprintf(" ORDER BY p.created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := r.pool.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, translateError(err)
	}
	projects, err := collectProjects(rows)
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachRoles(ctx, r.pool, projects); err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

func (r *PgProjectRepository) ListByMember(ctx context.Context, userID string) ([]domain.Project, error) {
	query := projectSelect + `
		WHERE EXISTS (SELECT 1 FROM project_role_members m WHERE m.project_id = p.id AND m.user_id = $1)
		ORDER BY p.created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, translateError(err)
	}
	projects, err := collectProjects(rows)
	if err != nil {
		return nil, err
	}
	return projects, r.attachRoles(ctx, r.pool, projects)
}

func (r *PgProjectRepository) CountActiveMemberships(ctx context.Context, userID string) (int, error) {
	const query = `
		SELECT count(*)
		FROM project_role_members m
		JOIN projects p ON p.id = m.project_id
		WHERE m.user_id = $1 AND p.status = 'active'
	`
	var n int
	err := r.pool.QueryRow(ctx, query, userID).Scan(&n)
	return n, translateError(err)
}

// Create inserta el proyecto con su rol de dueño, los roles pedidos y el tablero
// por defecto en una sola transacción.
func (r *PgProjectRepository) Create(ctx context.Context, params CreateProjectParams) (domain.Project, error) {
	p := params.Project
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const insertProject = `
			INSERT INTO projects (id, name, description, status, owner_id, category_id,
				participants_count, logo_url, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $8, $8)
		`
		if _, err := tx.Exec(ctx, insertProject, p.ID, p.Name, p.Description, p.Status, p.OwnerID, p.CategoryID, p.LogoURL, p.CreatedAt); err != nil {
			return err
		}

		const ownerType = `
			INSERT INTO role_types (id, name) VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`
		var ownerTypeID string
		if err := tx.QueryRow(ctx, ownerType, uuid.NewString(), domain.OwnerRoleTypeName).Scan(&ownerTypeID); err != nil {
			return err
		}

		const insertRole = `
			INSERT INTO project_roles (id, project_id, role_type_id, slots, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`
		ownerRoleID := uuid.NewString()
		if _, err := tx.Exec(ctx, insertRole, ownerRoleID, p.ID, ownerTypeID, 1, p.CreatedAt); err != nil {
			return err
		}
		const insertMember = `
			INSERT INTO project_role_members (project_role_id, project_id, user_id, joined_at)
			VALUES ($1, $2, $3, $4)
		`
		if _, err := tx.Exec(ctx, insertMember, ownerRoleID, p.ID, p.OwnerID, p.CreatedAt); err != nil {
			return err
		}
		for i, role := range params.Roles {
			createdAt := p.CreatedAt.Add(time.Duration(i+1) * time.Microsecond)
			if _, err := tx.Exec(ctx, insertRole, uuid.NewString(), p.ID, role.RoleTypeID, role.Slots, createdAt); err != nil {
				return err
			}
		}

		if params.BoardName == "" {
			return nil
		}
		return insertBoard(ctx, tx, domain.Board{
			ID:        uuid.NewString(),
			ProjectID: p.ID,
			Name:      params.BoardName,
			CreatedAt: p.CreatedAt,
		}, params.Columns)
	})
	if err != nil {
		return domain.Project{}, translateError(err)
	}
	return r.GetByID(ctx, p.ID)
}

func (r *PgProjectRepository) GetByID(ctx context.Context, id string) (domain.Project, error) {
	p, err := scanProject(r.pool.QueryRow(ctx, projectSelect+` WHERE p.id = $1`, id))
	if err != nil {
		return domain.Project{}, err
	}
	projects := []domain.Project{p}
	if err := r.attachRoles(ctx, r.pool, projects); err != nil {
		return domain.Project{}, err
	}
	return projects[0], nil
}

func (r *PgProjectRepository) Update(ctx context.Context, id string, patch ProjectPatch) (domain.Project, error) {
	const query = `
		UPDATE projects SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			category_id = COALESCE($4, category_id),
			updated_at = $5
		WHERE id = $1
	`
	if err := expectAffected(r.pool.Exec(ctx, query, id, patch.Name, patch.Description, patch.CategoryID, time.Now().UTC())); err != nil {
		return domain.Project{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *PgProjectRepository) UpdateStatus(ctx context.Context, id, status string) error {
	const query = `UPDATE projects SET status = $2, updated_at = $3 WHERE id = $1`
	return expectAffected(r.pool.Exec(ctx, query, id, status, time.Now().UTC()))
}

func (r *PgProjectRepository) UpdateLogo(ctx context.Context, id, logoURL string) error {
	const query = `UPDATE projects SET logo_url = $2, updated_at = $3 WHERE id = $1`
	return expectAffected(r.pool.Exec(ctx, query, id, logoURL, time.Now().UTC()))
}

func (r *PgProjectRepository) UpdateDiscord(ctx context.Context, id string, links DiscordLinks) error {
	const query = `
		UPDATE projects SET discord_channel_id = $2, discord_admin_role_id = $3, discord_member_role_id = $4
		WHERE id = $1
	`
	return expectAffected(r.pool.Exec(ctx, query, id, links.ChannelID, links.AdminRoleID, links.MemberRoleID))
}

func (r *PgProjectRepository) Delete(ctx context.Context, id string) error {
	return expectAffected(r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id))
}

// attachRoles carga roles y miembros de los proyectos dados.
func (r *PgProjectRepository) attachRoles(ctx context.Context, q querier, projects []domain.Project) error {
	if len(projects) == 0 {
		return nil
	}
	ids := make([]string, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	roles, err := loadRoles(ctx, q, `r.project_id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	byProject := make(map[string][]domain.ProjectRole)
	for _, role := range roles {
		byProject[role.ProjectID] = append(byProject[role.ProjectID], role)
	}
	for i := range projects {
		projects[i].Roles = byProject[projects[i].ID]
	}
	return nil
}

// loadRoles trae roles con su tipo y sus miembros según la condición dada.
func loadRoles(ctx context.Context, q querier, cond string, arg any) ([]domain.ProjectRole, error) {
	query := `
		SELECT r.id, r.project_id, r.role_type_id, t.name, r.slots, r.created_at
		FROM project_roles r
		JOIN role_types t ON t.id = r.role_type_id
		WHERE ` + cond + `
		ORDER BY r.created_at
	`
	rows, err := q.Query(ctx, query, arg)
	if err != nil {
		return nil, translateError(err)
	}
	var roles []domain.ProjectRole
	index := make(map[string]int)
	for rows.Next() {
		var role domain.ProjectRole
		if err := rows.Scan(&role.ID, &role.ProjectID, &role.RoleTypeID, &role.RoleType.Name, &role.Slots, &role.CreatedAt); err != nil {
			rows.Close()
			return nil, translateError(err)
		}
		role.RoleType.ID = role.RoleTypeID
		role.Members = []domain.UserCard{}
		index[role.ID] = len(roles)
		roles = append(roles, role)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, translateError(err)
	}
	if len(roles) == 0 {
		return roles, nil
	}

	roleIDs := make([]string, len(roles))
	for i, role := range roles {
		roleIDs[i] = role.ID
	}
	const members = `
		SELECT m.project_role_id, u.id, u.email, u.first_name, u.last_name, u.avatar_url
		FROM project_role_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.project_role_id = ANY($1)
		ORDER BY m.joined_at
	`
	mrows, err := q.Query(ctx, members, roleIDs)
	if err != nil {
		return nil, translateError(err)
	}
	defer mrows.Close()
	for mrows.Next() {
		var roleID string
		var card domain.UserCard
		if err := mrows.Scan(&roleID, &card.ID, &card.Email, &card.FirstName, &card.LastName, &card.AvatarURL); err != nil {
			return nil, translateError(err)
		}
		if i, ok := index[roleID]; ok {
			roles[i].Members = append(roles[i].Members, card)
		}
	}
	return roles, translateError(mrows.Err())
}
