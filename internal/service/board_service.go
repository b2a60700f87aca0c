package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"collabhub/internal/domain"
	"collabhub/internal/repository"
)

var (
	ErrBoardNotFound      = newError(ErrNotFound, "Board not found")
	ErrTaskStatusNotFound = newError(ErrNotFound, "Task status not found")
	ErrStatusNotEmpty     = newError(ErrConflict, "Task status still contains tasks")
	ErrInvalidBoardName   = badRequest("Board name must be 2-50 characters")
	ErrInvalidStatusName  = badRequest("Status name must be 2-50 characters")
)

// BoardService gestiona tableros y sus columnas.
type BoardService struct {
	boards repository.BoardRepository
}

func NewBoardService(boards repository.BoardRepository) *BoardService {
	return &BoardService{boards: boards}
}

func (s *BoardService) Get(ctx context.Context, id string) (domain.Board, error) {
	b, err := s.boards.GetByID(ctx, id)
	if err != nil {
		return domain.Board{}, notFoundAs(err, ErrBoardNotFound)
	}
	return b, nil
}

func (s *BoardService) ListByProject(ctx context.Context, projectID string) ([]domain.Board, error) {
	return s.boards.ListByProject(ctx, projectID)
}

// Create arma el tablero con las columnas por defecto.
func (s *BoardService) Create(ctx context.Context, projectID, name string) (domain.Board, error) {
	name = strings.TrimSpace(name)
	if !lengthBetween(name, 2, 50) {
		return domain.Board{}, ErrInvalidBoardName
	}
	now := time.Now().UTC()
	b, err := s.boards.Create(ctx, domain.Board{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}, domain.DefaultBoardColumns)
	if err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return domain.Board{}, ErrProjectNotFound
		}
		return domain.Board{}, err
	}
	return b, nil
}

func (s *BoardService) Rename(ctx context.Context, id, name string) (domain.Board, error) {
	name = strings.TrimSpace(name)
	if !lengthBetween(name, 2, 50) {
		return domain.Board{}, ErrInvalidBoardName
	}
	b, err := s.boards.Rename(ctx, id, name)
	if err != nil {
		return domain.Board{}, notFoundAs(err, ErrBoardNotFound)
	}
	return b, nil
}

func (s *BoardService) Delete(ctx context.Context, id string) error {
	return notFoundAs(s.boards.Delete(ctx, id), ErrBoardNotFound)
}

// CreateStatus agrega una columna al final del tablero.
func (s *BoardService) CreateStatus(ctx context.Context, boardID, name string) (domain.TaskStatus, error) {
	name = strings.TrimSpace(name)
	if !lengthBetween(name, 2, 50) {
		return domain.TaskStatus{}, ErrInvalidStatusName
	}
	st, err := s.boards.AppendStatus(ctx, domain.TaskStatus{
		ID:      uuid.NewString(),
		BoardID: boardID,
		Name:    name,
	})
	if err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return domain.TaskStatus{}, ErrBoardNotFound
		}
		return domain.TaskStatus{}, notFoundAs(err, ErrBoardNotFound)
	}
	return st, nil
}

func (s *BoardService) RenameStatus(ctx context.Context, id, name string) (domain.TaskStatus, error) {
	name = strings.TrimSpace(name)
	if !lengthBetween(name, 2, 50) {
		return domain.TaskStatus{}, ErrInvalidStatusName
	}
	st, err := s.boards.RenameStatus(ctx, id, name)
	if err != nil {
		return domain.TaskStatus{}, notFoundAs(err, ErrTaskStatusNotFound)
	}
	return st, nil
}

// DeleteStatus sólo elimina columnas sin tareas.
func (s *BoardService) DeleteStatus(ctx context.Context, id string) error {
	err := s.boards.DeleteStatus(ctx, id)
	if errors.Is(err, repository.ErrNotEmpty) {
		return ErrStatusNotEmpty
	}
	return notFoundAs(err, ErrTaskStatusNotFound)
}
