package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"collabhub/internal/domain"
)

// AuditRepository guarda eventos de auditoría.
type AuditRepository interface {
	Record(ctx context.Context, event domain.LogEvent) error
}

type PgAuditRepository struct {
	pool *pgxpool.Pool
}

func NewPgAuditRepository(pool *pgxpool.Pool) *PgAuditRepository {
	return &PgAuditRepository{pool: pool}
}

func (r *PgAuditRepository) Record(ctx context.Context, event domain.LogEvent) error {
	const query = `
		INSERT INTO log_events (id, event_type, user_id, details, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.EventType,
		nullableString(event.UserID),
		event.Details,
		event.IPAddress,
		event.CreatedAt,
	)
	return translateError(err)
}
