package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"collabhub/internal/domain"
	"collabhub/internal/repository"
)

var (
	ErrProjectRoleNotFound  = newError(ErrNotFound, "Project role not found")
	ErrProjectOrRoleMissing = newError(ErrNotFound, "Project or role type not found")
	ErrRoleExists           = newError(ErrConflict, "Role already exists for this project")
	ErrOwnerRoleImmutable   = badRequest("The owner role cannot be changed")
	ErrInvalidSlots         = badRequest("Slots must be at least 1")
)

type ProjectRoleService struct {
	logger   *zap.Logger
	roles    repository.ProjectRoleRepository
	projects repository.ProjectRepository
}

func NewProjectRoleService(logger *zap.Logger, roles repository.ProjectRoleRepository, projects repository.ProjectRepository) *ProjectRoleService {
	return &ProjectRoleService{logger: logger, roles: roles, projects: projects}
}

func (s *ProjectRoleService) Create(ctx context.Context, projectID, roleTypeID string, slots int) (domain.ProjectRole, error) {
	if slots < 1 {
		return domain.ProjectRole{}, ErrInvalidSlots
	}
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ProjectRole{}, ErrProjectOrRoleMissing
		}
		return domain.ProjectRole{}, err
	}
	rt, err := s.projects.GetRoleType(ctx, roleTypeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ProjectRole{}, ErrProjectOrRoleMissing
		}
		return domain.ProjectRole{}, err
	}
	if rt.Name == domain.OwnerRoleTypeName {
		return domain.ProjectRole{}, ErrOwnerRoleImmutable
	}

	role, err := s.roles.Create(ctx, domain.ProjectRole{
		ID:         uuid.NewString(),
		ProjectID:  projectID,
		RoleTypeID: roleTypeID,
		Slots:      slots,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return domain.ProjectRole{}, ErrRoleExists
		case errors.Is(err, repository.ErrForeignKey):
			return domain.ProjectRole{}, ErrProjectOrRoleMissing
		}
		return domain.ProjectRole{}, err
	}
	return role, nil
}

func (s *ProjectRoleService) Delete(ctx context.Context, id string) error {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectRoleNotFound
		}
		return err
	}
	if role.IsOwnerRole() {
		return ErrOwnerRoleImmutable
	}
	if err := s.roles.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectRoleNotFound
		}
		return err
	}
	return nil
}
