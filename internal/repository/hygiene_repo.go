package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HygieneRepository agrupa las limpiezas periódicas.
type HygieneRepository interface {
	DeleteUnverifiedUsers(ctx context.Context, createdBefore time.Time) (int64, error)
	DeleteStaleCodeEntryAttempts(ctx context.Context, updatedBefore time.Time) (int64, error)
	DeleteStaleLoginAttempts(ctx context.Context, updatedBefore, now time.Time) (int64, error)
	DeleteExpiredCodes(ctx context.Context, now time.Time) (int64, error)
	DeleteStaleBlockedEmails(ctx context.Context, createdBefore time.Time) (int64, error)
	BlockExhaustedUsers(ctx context.Context, now time.Time, maxAttempts int) (int64, error)
}

type PgHygieneRepository struct {
	pool *pgxpool.Pool
}

func NewPgHygieneRepository(pool *pgxpool.Pool) *PgHygieneRepository {
	return &PgHygieneRepository{pool: pool}
}

func (r *PgHygieneRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, translateError(err)
	}
	return tag.RowsAffected(), nil
}

func (r *PgHygieneRepository) DeleteUnverifiedUsers(ctx context.Context, createdBefore time.Time) (int64, error) {
	return r.exec(ctx, `DELETE FROM users WHERE is_verified = FALSE AND created_at < $1`, createdBefore)
}

func (r *PgHygieneRepository) DeleteStaleCodeEntryAttempts(ctx context.Context, updatedBefore time.Time) (int64, error) {
	return r.exec(ctx, `DELETE FROM code_entry_attempts WHERE updated_at < $1`, updatedBefore)
}

// DeleteStaleLoginAttempts conserva los registros con un bloqueo todavía vigente.
func (r *PgHygieneRepository) DeleteStaleLoginAttempts(ctx context.Context, updatedBefore, now time.Time) (int64, error) {
	const query = `
		DELETE FROM login_attempts
		WHERE updated_at < $1 AND (blocked_until IS NULL OR blocked_until <= $2)
	`
	return r.exec(ctx, query, updatedBefore, now)
}

func (r *PgHygieneRepository) DeleteExpiredCodes(ctx context.Context, now time.Time) (int64, error) {
	return r.exec(ctx, `DELETE FROM verification_codes WHERE expires_at < $1`, now)
}

func (r *PgHygieneRepository) DeleteStaleBlockedEmails(ctx context.Context, createdBefore time.Time) (int64, error) {
	return r.exec(ctx, `DELETE FROM blocked_emails WHERE created_at < $1`, createdBefore)
}

// BlockExhaustedUsers registra el email de los usuarios sin verificar que agotaron
// los intentos de código y luego los elimina, en una sola sentencia.
func (r *PgHygieneRepository) BlockExhaustedUsers(ctx context.Context, now time.Time, maxAttempts int) (int64, error) {
	const query = `
		WITH exhausted AS (
			SELECT u.id, u.email
			FROM users u
			JOIN code_entry_attempts a ON a.user_id = u.id
			LEFT JOIN verification_codes v ON v.user_id = u.id
			WHERE u.is_verified = FALSE
				AND a.attempts >= $2
				AND (v.user_id IS NULL OR v.expires_at < $1)
			FOR UPDATE OF u
		), blocked AS (
			INSERT INTO blocked_emails (email, created_at)
			SELECT email, $1 FROM exhausted
			ON CONFLICT (email) DO NOTHING
		)
		DELETE FROM users WHERE id IN (SELECT id FROM exhausted)
	`
	return r.exec(ctx, query, now, maxAttempts)
}
