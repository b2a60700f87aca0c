package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"collabhub/internal/domain"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc domain.Document) error
	Update(ctx context.Context, id, name, url string) (domain.Document, error)
	Delete(ctx context.Context, projectID, id string) error
	ListByProject(ctx context.Context, projectID string) ([]domain.Document, error)
}

type PgDocumentRepository struct {
	pool *pgxpool.Pool
}

func NewPgDocumentRepository(pool *pgxpool.Pool) *PgDocumentRepository {
	return &PgDocumentRepository{pool: pool}
}

func (r *PgDocumentRepository) Create(ctx context.Context, doc domain.Document) error {
	const query = `
		INSERT INTO documents (id, project_id, name, url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`
	_, err := r.pool.Exec(ctx, query, doc.ID, doc.ProjectID, doc.Name, doc.URL, doc.CreatedAt)
	return translateError(err)
}

func (r *PgDocumentRepository) Update(ctx context.Context, id, name, url string) (domain.Document, error) {
	const query = `
		UPDATE documents SET name = $2, url = $3, updated_at = $4
		WHERE id = $1
		RETURNING id, project_id, name, url, created_at, updated_at
	`
	var d domain.Document
	err := r.pool.QueryRow(ctx, query, id, name, url, time.Now().UTC()).Scan(&d.ID, &d.ProjectID, &d.Name, &d.URL, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return domain.Document{}, translateError(err)
	}
	return d, nil
}

func (r *PgDocumentRepository) Delete(ctx context.Context, projectID, id string) error {
	return expectAffected(r.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1 AND project_id = $2`, id, projectID))
}

func (r *PgDocumentRepository) ListByProject(ctx context.Context, projectID string) ([]domain.Document, error) {
	const query = `
		SELECT id, project_id, name, url, created_at, updated_at
		FROM documents
		WHERE project_id = $1
		ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	var out []domain.Document
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.Name, &d.URL, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, translateError(err)
		}
		out = append(out, d)
	}
	return out, translateError(rows.Err())
}
