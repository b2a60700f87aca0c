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
	ErrTaskNotFound       = newError(ErrNotFound, "Task not found")
	ErrInvalidTaskName    = badRequest("Task name must be 2-100 characters")
	ErrInvalidTaskDesc    = badRequest("Description must be 2-1000 characters")
	ErrInvalidPriority    = badRequest("Priority must be high, normal or low")
	ErrDeadlineInPast     = badRequest("Deadline must be in the future")
	ErrAssigneeNotMember  = badRequest("Assignee must be a participant of the project")
	ErrStatusOnOtherBoard = badRequest("Task status belongs to another board")
	ErrTaskStatusRequired = badRequest("taskStatusId is required")
)

type CreateTaskInput struct {
	Name        string
	Description string
	Priority    string
	Deadline    time.Time
	StatusID    string
	AssigneeID  *string
}

type UpdateTaskInput struct {
	Name          *string
	Description   *string
	Priority      *string
	Deadline      *time.Time
	AssigneeID    *string
	ClearAssignee bool
}

// TaskService gestiona tareas dentro de las columnas de un tablero.
type TaskService struct {
	tasks  repository.TaskRepository
	boards repository.BoardRepository
	access repository.AccessRepository
	now    func() time.Time
}

func NewTaskService(tasks repository.TaskRepository, boards repository.BoardRepository, access repository.AccessRepository) *TaskService {
	return &TaskService{
		tasks:  tasks,
		boards: boards,
		access: access,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *TaskService) Create(ctx context.Context, creatorID string, input CreateTaskInput) (domain.Task, error) {
	name := strings.TrimSpace(input.Name)
	description := strings.TrimSpace(input.Description)
	priority := strings.ToLower(strings.TrimSpace(input.Priority))
	now := s.now()
	if !lengthBetween(name, 2, 100) {
		return domain.Task{}, ErrInvalidTaskName
	}
	if !lengthBetween(description, 2, 1000) {
		return domain.Task{}, ErrInvalidTaskDesc
	}
	if !validPriority(priority) {
		return domain.Task{}, ErrInvalidPriority
	}
	if !input.Deadline.After(now) {
		return domain.Task{}, ErrDeadlineInPast
	}
	if strings.TrimSpace(input.StatusID) == "" {
		return domain.Task{}, ErrTaskStatusRequired
	}

	loc, err := s.boards.LocateStatus(ctx, input.StatusID)
	if err != nil {
		return domain.Task{}, notFoundAs(err, ErrTaskStatusNotFound)
	}
	if input.AssigneeID != nil && *input.AssigneeID != "" {
		if err := s.ensureMember(ctx, loc.ProjectID, *input.AssigneeID); err != nil {
			return domain.Task{}, err
		}
	} else {
		input.AssigneeID = nil
	}

	task := domain.Task{
		ID:           uuid.NewString(),
		TaskStatusID: loc.StatusID,
		Name:         name,
		Description:  description,
		Priority:     priority,
		Deadline:     input.Deadline.UTC(),
		AssigneeID:   input.AssigneeID,
		CreatedBy:    creatorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return domain.Task{}, ErrTaskStatusNotFound
		}
		return domain.Task{}, err
	}
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, id string) (domain.Task, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return domain.Task{}, notFoundAs(err, ErrTaskNotFound)
	}
	return t, nil
}

func (s *TaskService) Update(ctx context.Context, id string, input UpdateTaskInput) (domain.Task, error) {
	var patch repository.TaskPatch
	if input.Name != nil {
		v := strings.TrimSpace(*input.Name)
		if !lengthBetween(v, 2, 100) {
			return domain.Task{}, ErrInvalidTaskName
		}
		patch.Name = &v
	}
	if input.Description != nil {
		v := strings.TrimSpace(*input.Description)
		if !lengthBetween(v, 2, 1000) {
			return domain.Task{}, ErrInvalidTaskDesc
		}
		patch.Description = &v
	}
	if input.Priority != nil {
		v := strings.ToLower(strings.TrimSpace(*input.Priority))
		if !validPriority(v) {
			return domain.Task{}, ErrInvalidPriority
		}
		patch.Priority = &v
	}
	if input.Deadline != nil {
		if !input.Deadline.After(s.now()) {
			return domain.Task{}, ErrDeadlineInPast
		}
		d := input.Deadline.UTC()
		patch.Deadline = &d
	}
	patch.ClearAssignee = input.ClearAssignee
	if input.AssigneeID != nil && !input.ClearAssignee {
		projectID, err := s.access.ProjectOf(ctx, repository.ModelTask, id)
		if err != nil {
			return domain.Task{}, notFoundAs(err, ErrTaskNotFound)
		}
		if err := s.ensureMember(ctx, projectID, *input.AssigneeID); err != nil {
			return domain.Task{}, err
		}
		patch.AssigneeID = input.AssigneeID
	}

	t, err := s.tasks.Update(ctx, id, patch)
	if err != nil {
		return domain.Task{}, notFoundAs(err, ErrTaskNotFound)
	}
	return t, nil
}

// MoveStatus mueve la tarea a otra columna del mismo tablero.
func (s *TaskService) MoveStatus(ctx context.Context, id, statusID string) (domain.Task, error) {
	if strings.TrimSpace(statusID) == "" {
		return domain.Task{}, ErrTaskStatusRequired
	}
	task, err := s.Get(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	target, err := s.boards.LocateStatus(ctx, statusID)
	if err != nil {
		return domain.Task{}, notFoundAs(err, ErrTaskStatusNotFound)
	}
	current, err := s.boards.LocateStatus(ctx, task.TaskStatusID)
	if err != nil {
		return domain.Task{}, notFoundAs(err, ErrTaskStatusNotFound)
	}
	if current.BoardID != target.BoardID {
		return domain.Task{}, ErrStatusOnOtherBoard
	}
	t, err := s.tasks.UpdateStatus(ctx, id, statusID)
	if err != nil {
		return domain.Task{}, notFoundAs(err, ErrTaskNotFound)
	}
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, id string) error {
	return notFoundAs(s.tasks.Delete(ctx, id), ErrTaskNotFound)
}

func (s *TaskService) ensureMember(ctx context.Context, projectID, userID string) error {
	ok, err := s.access.IsMember(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAssigneeNotMember
	}
	return nil
}

func validPriority(p string) bool {
	switch p {
	case domain.TaskPriorityHigh, domain.TaskPriorityNormal, domain.TaskPriorityLow:
		return true
	}
	return false
}
