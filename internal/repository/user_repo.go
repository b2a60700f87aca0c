package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"collabhub/internal/domain"
)

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpsertGoogle(ctx context.Context, user domain.User) (domain.User, error)
	UpdateProfile(ctx context.Context, id string, patch UserPatch) (domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, int, error)
}

// UserPatch contiene los campos editables del perfil; nil significa sin cambio.
type UserPatch struct {
	FirstName *string
	LastName  *string
	DiscordID *string
	AvatarURL *string
}

type UserFilter struct {
	Query string
	Page  int
	Limit int
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

const userColumns = `id, email, password_hash, first_name, last_name, google_id, discord_id,
	avatar_url, is_verified, role, created_at, updated_at`

func scanUser(row rowScanner) (domain.User, error) {
	var u domain.User
	var passwordHash, googleID, discordID *string
	err := row.Scan(
		&u.ID,
		&u.Email,
		&passwordHash,
		&u.FirstName,
		&u.LastName,
		&googleID,
		&discordID,
		&u.AvatarURL,
		&u.IsVerified,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, translateError(err)
	}
	u.PasswordHash = derefString(passwordHash)
	u.GoogleID = derefString(googleID)
	u.DiscordID = derefString(discordID)
	return u, nil
}

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (id, email, password_hash, first_name, last_name, google_id,
			discord_id, avatar_url, is_verified, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		nullableString(user.PasswordHash),
		user.FirstName,
		user.LastName,
		nullableString(user.GoogleID),
		nullableString(user.DiscordID),
		user.AvatarURL,
		user.IsVerified,
		user.Role,
		user.CreatedAt,
	)
	return translateError(err)
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *PgUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`
	var exists bool
	err := r.pool.QueryRow(ctx, query, email).Scan(&exists)
	return exists, translateError(err)
}

// UpsertGoogle crea el usuario o vincula la cuenta existente con el mismo email.
func (r *PgUserRepository) UpsertGoogle(ctx context.Context, user domain.User) (domain.User, error) {
	query := `
		INSERT INTO users (id, email, first_name, last_name, google_id, avatar_url,
			is_verified, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7, $8, $8)
		ON CONFLICT (email) DO UPDATE SET
			google_id = EXCLUDED.google_id,
			is_verified = TRUE,
			avatar_url = CASE WHEN users.avatar_url = '' THEN EXCLUDED.avatar_url ELSE users.avatar_url END,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.FirstName,
		user.LastName,
		nullableString(user.GoogleID),
		user.AvatarURL,
		user.Role,
		user.CreatedAt,
	))
}

func (r *PgUserRepository) UpdateProfile(ctx context.Context, id string, patch UserPatch) (domain.User, error) {
	query := `
		UPDATE users SET
			first_name = COALESCE($2, first_name),
			last_name = COALESCE($3, last_name),
			discord_id = COALESCE($4, discord_id),
			avatar_url = COALESCE($5, avatar_url),
			updated_at = $6
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, query,
		id,
		patch.FirstName,
		patch.LastName,
		patch.DiscordID,
		patch.AvatarURL,
		time.Now().UTC(),
	))
}

func (r *PgUserRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, int, error) {
	limit, offset := pageOffset(filter.Page, filter.Limit)
	pattern := "%" + filter.Query + "%"

	const countQuery = `
		SELECT count(*) FROM users
		WHERE is_verified AND (first_name || ' ' || last_name) ILIKE $1
	`
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, pattern).Scan(&total); err != nil {
		return nil, 0, translateError(err)
	}

	query := `
		SELECT ` + userColumns + ` FROM users
		WHERE is_verified AND (first_name || ' ' || last_name) ILIKE $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, pattern, limit, offset)
	if err != nil {
		return nil, 0, translateError(err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, translateError(rows.Err())
}
