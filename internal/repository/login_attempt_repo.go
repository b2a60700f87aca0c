package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"collabhub/internal/domain"
)

// LockoutPolicy devuelve la duración del bloqueo para un conteo dado, o cero.
type LockoutPolicy func(attempts int) time.Duration

// LoginAttemptRepository persiste los contadores de fallos de login.
type LoginAttemptRepository interface {
	Get(ctx context.Context, userID string) (domain.LoginAttempt, error)
	RecordFailure(ctx context.Context, userID string, now time.Time, policy LockoutPolicy) (domain.LoginAttempt, error)
	Reset(ctx context.Context, userID string) error
}

type PgLoginAttemptRepository struct {
	pool *pgxpool.Pool
}

func NewPgLoginAttemptRepository(pool *pgxpool.Pool) *PgLoginAttemptRepository {
	return &PgLoginAttemptRepository{pool: pool}
}

func (r *PgLoginAttemptRepository) Get(ctx context.Context, userID string) (domain.LoginAttempt, error) {
	const query = `
		SELECT user_id, attempts, blocked_until, updated_at
		FROM login_attempts
		WHERE user_id = $1
	`
	var a domain.LoginAttempt
	err := r.pool.QueryRow(ctx, query, userID).Scan(&a.UserID, &a.Attempts, &a.BlockedUntil, &a.UpdatedAt)
	if err != nil {
		return domain.LoginAttempt{}, translateError(err)
	}
	return a, nil
}

// RecordFailure incrementa el contador y aplica el bloqueo dentro de una misma
// transacción; el upsert mantiene el lock de fila hasta el commit.
func (r *PgLoginAttemptRepository) RecordFailure(ctx context.Context, userID string, now time.Time, policy LockoutPolicy) (domain.LoginAttempt, error) {
	const upsert = `
		INSERT INTO login_attempts (user_id, attempts, updated_at)
		VALUES ($1, 1, $2)
		ON CONFLICT (user_id) DO UPDATE SET
			attempts = login_attempts.attempts + 1,
			updated_at = EXCLUDED.updated_at
		RETURNING user_id, attempts, blocked_until, updated_at
	`
	const block = `UPDATE login_attempts SET blocked_until = $2 WHERE user_id = $1`

	var a domain.LoginAttempt
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, upsert, userID, now).Scan(&a.UserID, &a.Attempts, &a.BlockedUntil, &a.UpdatedAt); err != nil {
			return err
		}
		if policy == nil || a.Blocked(now) {
			return nil
		}
		d := policy(a.Attempts)
		if d <= 0 {
			return nil
		}
		until := now.Add(d)
		if _, err := tx.Exec(ctx, block, userID, until); err != nil {
			return err
		}
		a.BlockedUntil = &until
		return nil
	})
	if err != nil {
		return domain.LoginAttempt{}, translateError(err)
	}
	return a, nil
}

func (r *PgLoginAttemptRepository) Reset(ctx context.Context, userID string) error {
	const query = `DELETE FROM login_attempts WHERE user_id = $1`
	_, err := r.pool.Exec(ctx, query, userID)
	return translateError(err)
}
