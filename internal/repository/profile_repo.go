package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"collabhub/internal/domain"
)

// EducationRepository persiste la formación de los usuarios.
type EducationRepository interface {
	SearchInstitutions(ctx context.Context, query string, limit int) ([]domain.Institution, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	Create(ctx context.Context, edu domain.Education) (domain.Education, error)
	Update(ctx context.Context, edu domain.Education) (domain.Education, error)
	Delete(ctx context.Context, userID, id string) error
	ListByUser(ctx context.Context, userID string) ([]domain.Education, error)
}

// SocialRepository persiste los enlaces a redes sociales.
type SocialRepository interface {
	CountByUser(ctx context.Context, userID string) (int, error)
	Create(ctx context.Context, social domain.Social) error
	UpdateURL(ctx context.Context, userID, id, url string) (domain.Social, error)
	Delete(ctx context.Context, userID, id string) error
	ListByUser(ctx context.Context, userID string) ([]domain.Social, error)
}

// SkillRepository persiste las habilidades declaradas.
type SkillRepository interface {
	Create(ctx context.Context, skill domain.Skill) error
	Delete(ctx context.Context, userID, id string) error
	ListByUser(ctx context.Context, userID string) ([]domain.Skill, error)
}

type PgEducationRepository struct {
	pool *pgxpool.Pool
}

func NewPgEducationRepository(pool *pgxpool.Pool) *PgEducationRepository {
	return &PgEducationRepository{pool: pool}
}

func (r *PgEducationRepository) SearchInstitutions(ctx context.Context, query string, limit int) ([]domain.Institution, error) {
	const sql = `SELECT id, name FROM institutions WHERE name ILIKE $1 ORDER BY name LIMIT $2`
	rows, err := r.pool.Query(ctx, sql, "%"+query+"%", limit)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	var out []domain.Institution
	for rows.Next() {
		var i domain.Institution
		if err := rows.Scan(&i.ID, &i.Name); err != nil {
			return nil, translateError(err)
		}
		out = append(out, i)
	}
	return out, translateError(rows.Err())
}

func (r *PgEducationRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM educations WHERE user_id = $1`, userID).Scan(&n)
	return n, translateError(err)
}

// upsertInstitution registra la institución si todavía no existe y devuelve su id.
func upsertInstitution(ctx context.Context, q querier, name string) (string, error) {
	const query = `
		INSERT INTO institutions (id, name) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`
	var id string
	err := q.QueryRow(ctx, query, uuid.NewString(), name).Scan(&id)
	return id, err
}

func (r *PgEducationRepository) Create(ctx context.Context, edu domain.Education) (domain.Education, error) {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		institutionID, err := upsertInstitution(ctx, tx, edu.InstitutionName)
		if err != nil {
			return err
		}
		edu.InstitutionID = institutionID
		const insert = `
			INSERT INTO educations (id, user_id, institution_id, specialization, degree, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		_, err = tx.Exec(ctx, insert, edu.ID, edu.UserID, edu.InstitutionID, edu.Specialization, edu.Degree, edu.CreatedAt)
		return err
	})
	if err != nil {
		return domain.Education{}, translateError(err)
	}
	return edu, nil
}

func (r *PgEducationRepository) Update(ctx context.Context, edu domain.Education) (domain.Education, error) {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		institutionID, err := upsertInstitution(ctx, tx, edu.InstitutionName)
		if err != nil {
			return err
		}
		edu.InstitutionID = institutionID
		const update = `
			UPDATE educations SET institution_id = $3, specialization = $4, degree = $5
			WHERE id = $1 AND user_id = $2
			RETURNING created_at
		`
		return tx.QueryRow(ctx, update, edu.ID, edu.UserID, edu.InstitutionID, edu.Specialization, edu.Degree).Scan(&edu.CreatedAt)
	})
	if err != nil {
		return domain.Education{}, translateError(err)
	}
	return edu, nil
}

func (r *PgEducationRepository) Delete(ctx context.Context, userID, id string) error {
	return expectAffected(r.pool.Exec(ctx, `DELETE FROM educations WHERE id = $1 AND user_id = $2`, id, userID))
}

func (r *PgEducationRepository) ListByUser(ctx context.Context, userID string) ([]domain.Education, error) {
	const query = `
		SELECT e.id, e.user_id, e.institution_id, i.name, e.specialization, e.degree, e.created_at
		FROM educations e
		JOIN institutions i ON i.id = e.institution_id
		WHERE e.user_id = $1
		ORDER BY e.created_at
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	var out []domain.Education
	for rows.Next() {
		var e domain.Education
		if err := rows.Scan(&e.ID, &e.UserID, &e.InstitutionID, &e.InstitutionName, &e.Specialization, &e.Degree, &e.CreatedAt); err != nil {
			return nil, translateError(err)
		}
		out = append(out, e)
	}
	return out, translateError(rows.Err())
}

type PgSocialRepository struct {
	pool *pgxpool.Pool
}

func NewPgSocialRepository(pool *pgxpool.Pool) *PgSocialRepository {
	return &PgSocialRepository{pool: pool}
}

func (r *PgSocialRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM socials WHERE user_id = $1`, userID).Scan(&n)
	return n, translateError(err)
}

func (r *PgSocialRepository) Create(ctx context.Context, social domain.Social) error {
	const query = `
		INSERT INTO socials (id, user_id, network, url, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query, social.ID, social.UserID, social.Network, social.URL, social.CreatedAt)
	return translateError(err)
}

func (r *PgSocialRepository) UpdateURL(ctx context.Context, userID, id, url string) (domain.Social, error) {
	const query = `
		UPDATE socials SET url = $3
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, network, url, created_at
	`
	var s domain.Social
	if err := r.pool.QueryRow(ctx, query, id, userID, url).Scan(&s.ID, &s.UserID, &s.Network, &s.URL, &s.CreatedAt); err != nil {
		return domain.Social{}, translateError(err)
	}
	return s, nil
}

func (r *PgSocialRepository) Delete(ctx context.Context, userID, id string) error {
	return expectAffected(r.pool.Exec(ctx, `DELETE FROM socials WHERE id = $1 AND user_id = $2`, id, userID))
}

func (r *PgSocialRepository) ListByUser(ctx context.Context, userID string) ([]domain.Social, error) {
	const query = `SELECT id, user_id, network, url, created_at FROM socials WHERE user_id = $1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	var out []domain.Social
	for rows.Next() {
		var s domain.Social
		if err := rows.Scan(&s.ID, &s.UserID, &s.Network, &s.URL, &s.CreatedAt); err != nil {
			return nil, translateError(err)
		}
		out = append(out, s)
	}
	return out, translateError(rows.Err())
}

type PgSkillRepository struct {
	pool *pgxpool.Pool
}

func NewPgSkillRepository(pool *pgxpool.Pool) *PgSkillRepository {
	return &PgSkillRepository{pool: pool}
}

func (r *PgSkillRepository) Create(ctx context.Context, skill domain.Skill) error {
	const query = `
		INSERT INTO skills (id, user_id, name, kind, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query, skill.ID, skill.UserID, skill.Name, skill.Kind, skill.CreatedAt)
	return translateError(err)
}

func (r *PgSkillRepository) Delete(ctx context.Context, userID, id string) error {
	return expectAffected(r.pool.Exec(ctx, `DELETE FROM skills WHERE id = $1 AND user_id = $2`, id, userID))
}

func (r *PgSkillRepository) ListByUser(ctx context.Context, userID string) ([]domain.Skill, error) {
	const query = `SELECT id, user_id, name, kind, created_at FROM skills WHERE user_id = $1 ORDER BY kind, name`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	var out []domain.Skill
	for rows.Next() {
		var s domain.Skill
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.Kind, &s.CreatedAt); err != nil {
			return nil, translateError(err)
		}
		out = append(out, s)
	}
	return out, translateError(rows.Err())
}
