package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"collabhub/internal/domain"
)

// VerificationRepository persiste códigos de verificación y tokens de reset.
type VerificationRepository interface {
	UpsertCode(ctx context.Context, userID, codeHash string, expiresAt time.Time) error
	GetCode(ctx context.Context, userID string) (domain.VerificationCode, error)
	DeleteCode(ctx context.Context, userID string) error
	GetEntryAttempts(ctx context.Context, userID string) (int, error)
	IncrementEntryAttempts(ctx context.Context, userID string, now time.Time) (int, error)
	ConfirmEmail(ctx context.Context, userID string, now time.Time) error
	IsEmailBlocked(ctx context.Context, email string) (bool, error)
	CountResetRequest(ctx context.Context, userID string, now, windowStart time.Time) (int, error)
	SaveResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	GetResetToken(ctx context.Context, userID string) (domain.PasswordResetToken, error)
	CompletePasswordReset(ctx context.Context, userID, passwordHash string, now time.Time) error
}

type PgVerificationRepository struct {
	pool *pgxpool.Pool
}

func NewPgVerificationRepository(pool *pgxpool.Pool) *PgVerificationRepository {
	return &PgVerificationRepository{pool: pool}
}

func (r *PgVerificationRepository) UpsertCode(ctx context.Context, userID, codeHash string, expiresAt time.Time) error {
	const query = `
		INSERT INTO verification_codes (user_id, code_hash, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			code_hash = EXCLUDED.code_hash,
			expires_at = EXCLUDED.expires_at
	`
	_, err := r.pool.Exec(ctx, query, userID, codeHash, expiresAt)
	return translateError(err)
}

func (r *PgVerificationRepository) GetCode(ctx context.Context, userID string) (domain.VerificationCode, error) {
	const query = `SELECT user_id, code_hash, expires_at FROM verification_codes WHERE user_id = $1`
	var c domain.VerificationCode
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&c.UserID, &c.CodeHash, &c.ExpiresAt); err != nil {
		return domain.VerificationCode{}, translateError(err)
	}
	return c, nil
}

func (r *PgVerificationRepository) DeleteCode(ctx context.Context, userID string) error {
	const query = `DELETE FROM verification_codes WHERE user_id = $1`
	_, err := r.pool.Exec(ctx, query, userID)
	return translateError(err)
}

func (r *PgVerificationRepository) GetEntryAttempts(ctx context.Context, userID string) (int, error) {
	const query = `SELECT attempts FROM code_entry_attempts WHERE user_id = $1`
	var attempts int
	err := r.pool.QueryRow(ctx, query, userID).Scan(&attempts)
	if err != nil {
		err = translateError(err)
		if errors.Is(err, ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return attempts, nil
}

func (r *PgVerificationRepository) IncrementEntryAttempts(ctx context.Context, userID string, now time.Time) (int, error) {
	const query = `
		INSERT INTO code_entry_attempts (user_id, attempts, updated_at)
		VALUES ($1, 1, $2)
		ON CONFLICT (user_id) DO UPDATE SET
			attempts = code_entry_attempts.attempts + 1,
			updated_at = EXCLUDED.updated_at
		RETURNING attempts
	`
	var attempts int
	err := r.pool.QueryRow(ctx, query, userID, now).Scan(&attempts)
	return attempts, translateError(err)
}

// ConfirmEmail elimina el código y los intentos y marca el usuario como verificado.
func (r *PgVerificationRepository) ConfirmEmail(ctx context.Context, userID string, now time.Time) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM verification_codes WHERE user_id = $1`, userID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM code_entry_attempts WHERE user_id = $1`, userID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `UPDATE users SET is_verified = TRUE, updated_at = $2 WHERE id = $1`, userID, now)
		return expectAffected(tag, err)
	})
	return translateError(err)
}

func (r *PgVerificationRepository) IsEmailBlocked(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM blocked_emails WHERE email = $1)`
	var blocked bool
	err := r.pool.QueryRow(ctx, query, email).Scan(&blocked)
	return blocked, translateError(err)
}

// CountResetRequest registra una solicitud de reset y devuelve cuántas hubo en la ventana.
func (r *PgVerificationRepository) CountResetRequest(ctx context.Context, userID string, now, windowStart time.Time) (int, error) {
	const query = `
		INSERT INTO password_reset_tokens (user_id, requests, window_started_at)
		VALUES ($1, 1, $2)
		ON CONFLICT (user_id) DO UPDATE SET
			requests = CASE WHEN password_reset_tokens.window_started_at < $3
				THEN 1 ELSE password_reset_tokens.requests + 1 END,
			window_started_at = CASE WHEN password_reset_tokens.window_started_at < $3
				THEN EXCLUDED.window_started_at ELSE password_reset_tokens.window_started_at END
		RETURNING requests
	`
	var requests int
	err := r.pool.QueryRow(ctx, query, userID, now, windowStart).Scan(&requests)
	return requests, translateError(err)
}

func (r *PgVerificationRepository) SaveResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	const query = `UPDATE password_reset_tokens SET token_hash = $2, expires_at = $3 WHERE user_id = $1`
	return expectAffected(r.pool.Exec(ctx, query, userID, tokenHash, expiresAt))
}

func (r *PgVerificationRepository) GetResetToken(ctx context.Context, userID string) (domain.PasswordResetToken, error) {
	const query = `
		SELECT user_id, token_hash, expires_at, requests, window_started_at
		FROM password_reset_tokens
		WHERE user_id = $1
	`
	var (
		t    domain.PasswordResetToken
		hash *string
	)
	err := r.pool.QueryRow(ctx, query, userID).Scan(&t.UserID, &hash, &t.ExpiresAt, &t.Requests, &t.WindowStartedAt)
	if err != nil {
		return domain.PasswordResetToken{}, translateError(err)
	}
	t.TokenHash = derefString(hash)
	return t, nil
}

// CompletePasswordReset reemplaza el hash, consume el token y limpia el bloqueo de login.
func (r *PgVerificationRepository) CompletePasswordReset(ctx context.Context, userID, passwordHash string, now time.Time) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`, userID, passwordHash, now)
		if err := expectAffected(tag, err); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE password_reset_tokens SET token_hash = NULL, expires_at = NULL WHERE user_id = $1`, userID); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `DELETE FROM login_attempts WHERE user_id = $1`, userID)
		return err
	})
	return translateError(err)
}
