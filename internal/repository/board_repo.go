package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"collabhub/internal/domain"
)

// BoardRepository persiste tableros y sus columnas.
type BoardRepository interface {
	Create(ctx context.Context, board domain.Board, columns []string) (domain.Board, error)
	GetByID(ctx context.Context, id string) (domain.Board, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.Board, error)
	Rename(ctx context.Context, id, name string) (domain.Board, error)
	Delete(ctx context.Context, id string) error
	AppendStatus(ctx context.Context, status domain.TaskStatus) (domain.TaskStatus, error)
	LocateStatus(ctx context.Context, id string) (domain.StatusLocation, error)
	RenameStatus(ctx context.Context, id, name string) (domain.TaskStatus, error)
	DeleteStatus(ctx context.Context, id string) error
}

type PgBoardRepository struct {
	pool *pgxpool.Pool
}

func NewPgBoardRepository(pool *pgxpool.Pool) *PgBoardRepository {
	return &PgBoardRepository{pool: pool}
}

func insertBoard(ctx context.Context, q querier, board domain.Board, columns []string) error {
	const insert = `
		INSERT INTO boards (id, project_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
	`
	if _, err := q.Exec(ctx, insert, board.ID, board.ProjectID, board.Name, board.CreatedAt); err != nil {
		return err
	}
	const insertStatus = `
		INSERT INTO task_statuses (id, board_id, name, column_index)
		VALUES ($1, $2, $3, $4)
	`
	for i, name := range columns {
		if _, err := q.Exec(ctx, insertStatus, uuid.NewString(), board.ID, name, i); err != nil {
			return err
		}
	}
	return nil
}

func (r *PgBoardRepository) Create(ctx context.Context, board domain.Board, columns []string) (domain.Board, error) {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return insertBoard(ctx, tx, board, columns)
	})
	if err != nil {
		return domain.Board{}, translateError(err)
	}
	return r.GetByID(ctx, board.ID)
}

// GetByID devuelve el tablero con sus columnas ordenadas y las tareas de cada una.
func (r *PgBoardRepository) GetByID(ctx context.Context, id string) (domain.Board, error) {
	const query = `SELECT id, project_id, name, created_at, updated_at FROM boards WHERE id = $1`
	var b domain.Board
	if err := r.pool.QueryRow(ctx, query, id).Scan(&b.ID, &b.ProjectID, &b.Name, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return domain.Board{}, translateError(err)
	}

	const columns = `
		SELECT id, board_id, name, column_index
		FROM task_statuses
		WHERE board_id = $1
		ORDER BY column_index
	`
	rows, err := r.pool.Query(ctx, columns, id)
	if err != nil {
		return domain.Board{}, translateError(err)
	}
	index := make(map[string]int)
	for rows.Next() {
		var s domain.TaskStatus
		if err := rows.Scan(&s.ID, &s.BoardID, &s.Name, &s.ColumnIndex); err != nil {
			rows.Close()
			return domain.Board{}, translateError(err)
		}
		s.Tasks = []domain.Task{}
		index[s.ID] = len(b.Columns)
		b.Columns = append(b.Columns, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return domain.Board{}, translateError(err)
	}

	tasksQuery := taskSelect + `
		JOIN task_statuses s ON s.id = t.task_status_id
		WHERE s.board_id = $1
		ORDER BY t.created_at
	`
	trows, err := r.pool.Query(ctx, tasksQuery, id)
	if err != nil {
		return domain.Board{}, translateError(err)
	}
	defer trows.Close()
	for trows.Next() {
		t, err := scanTask(trows)
		if err != nil {
			return domain.Board{}, err
		}
		if i, ok := index[t.TaskStatusID]; ok {
			b.Columns[i].Tasks = append(b.Columns[i].Tasks, t)
		}
	}
	return b, translateError(trows.Err())
}

func (r *PgBoardRepository) ListByProject(ctx context.Context, projectID string) ([]domain.Board, error) {
	const query = `
		SELECT id, project_id, name, created_at, updated_at
		FROM boards
		WHERE project_id = $1
		ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	var out []domain.Board
	for rows.Next() {
		var b domain.Board
		if err := rows.Scan(&b.ID, &b.ProjectID, &b.Name, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, translateError(err)
		}
		out = append(out, b)
	}
	return out, translateError(rows.Err())
}

func (r *PgBoardRepository) Rename(ctx context.Context, id, name string) (domain.Board, error) {
	const query = `UPDATE boards SET name = $2, updated_at = $3 WHERE id = $1`
	if err := expectAffected(r.pool.Exec(ctx, query, id, name, time.Now().UTC())); err != nil {
		return domain.Board{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *PgBoardRepository) Delete(ctx context.Context, id string) error {
	return expectAffected(r.pool.Exec(ctx, `DELETE FROM boards WHERE id = $1`, id))
}

// AppendStatus agrega la columna al final del tablero; el lock sobre el tablero
// serializa los altas concurrentes.
func (r *PgBoardRepository) AppendStatus(ctx context.Context, status domain.TaskStatus) (domain.TaskStatus, error) {
	const insert = `
		INSERT INTO task_statuses (id, board_id, name, column_index)
		SELECT $1, $2, $3, COALESCE(MAX(column_index) + 1, 0)
		FROM task_statuses
		WHERE board_id = $2
		RETURNING column_index
	`
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var boardID string
		if err := tx.QueryRow(ctx, `SELECT id FROM boards WHERE id = $1 FOR UPDATE`, status.BoardID).Scan(&boardID); err != nil {
			return err
		}
		return tx.QueryRow(ctx, insert, status.ID, status.BoardID, status.Name).Scan(&status.ColumnIndex)
	})
	if err != nil {
		return domain.TaskStatus{}, translateError(err)
	}
	return status, nil
}

func (r *PgBoardRepository) LocateStatus(ctx context.Context, id string) (domain.StatusLocation, error) {
	const query = `
		SELECT s.id, s.board_id, b.project_id
		FROM task_statuses s
		JOIN boards b ON b.id = s.board_id
		WHERE s.id = $1
	`
	var loc domain.StatusLocation
	if err := r.pool.QueryRow(ctx, query, id).Scan(&loc.StatusID, &loc.BoardID, &loc.ProjectID); err != nil {
		return domain.StatusLocation{}, translateError(err)
	}
	return loc, nil
}

func (r *PgBoardRepository) RenameStatus(ctx context.Context, id, name string) (domain.TaskStatus, error) {
	const query = `
		UPDATE task_statuses SET name = $2
		WHERE id = $1
		RETURNING id, board_id, name, column_index
	`
	var s domain.TaskStatus
	if err := r.pool.QueryRow(ctx, query, id, name).Scan(&s.ID, &s.BoardID, &s.Name, &s.ColumnIndex); err != nil {
		return domain.TaskStatus{}, translateError(err)
	}
	return s, nil
}

// DeleteStatus sólo elimina columnas vacías.
func (r *PgBoardRepository) DeleteStatus(ctx context.Context, id string) error {
	const query = `
		DELETE FROM task_statuses
		WHERE id = $1 AND NOT EXISTS (SELECT 1 FROM tasks WHERE task_status_id = $1)
	`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM task_statuses WHERE id = $1)`, id).Scan(&exists); err != nil {
		return translateError(err)
	}
	if exists {
		return ErrNotEmpty
	}
	return ErrNotFound
}
