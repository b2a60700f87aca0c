package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"collabhub/internal/domain"
	"collabhub/internal/repository"
)

const (
	maxActiveProjects = 2
	maxLogoSize       = 5 << 20
)

var allowedLogoTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

var (
	ErrProjectNotFound      = newError(ErrNotFound, "Project not found")
	ErrCategoryNotFound     = newError(ErrNotFound, "Project category not found")
	ErrRoleTypeNotFound     = newError(ErrNotFound, "Role type not found")
	ErrProjectLimit         = badRequest("You can participate in at most 2 active projects")
	ErrInvalidProjectName   = badRequest("Project name must be 2-50 characters")
	ErrInvalidDescription   = badRequest("Description must be 2-500 characters")
	ErrInvalidProjectStatus = badRequest("Status must be active or done")
	ErrInvalidRoleSlots     = badRequest("Each role needs a role type and at least one slot")
	ErrDuplicateRoleType    = badRequest("Each role type can be requested only once")
	ErrOwnerRoleRequested   = badRequest("The owner role is assigned automatically")
	ErrInvalidParticipants  = badRequest("minParticipants cannot exceed maxParticipants")
	ErrInvalidLogo          = badRequest("Logo must be a JPEG, PNG, WEBP or GIF image up to 5 MB")
	ErrLogoUpload           = newError(ErrUnavailable, "Logo upload failed")
)

// LogoStorage guarda imágenes de proyecto y devuelve su URL pública.
type LogoStorage interface {
	UploadLogo(ctx context.Context, projectID, filename, contentType string, size int64, body io.Reader) (string, error)
	DeleteLogos(ctx context.Context, projectID string) error
}

// ChannelProvisioner crea y elimina el canal de chat del proyecto.
type ChannelProvisioner interface {
	CreateProjectChannel(ctx context.Context, projectName string) (repository.DiscordLinks, error)
	DeleteProjectChannel(ctx context.Context, links repository.DiscordLinks) error
}

type LogoFile struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type CreateProjectInput struct {
	Name        string
	Description string
	CategoryID  string
	Roles       []repository.RoleSlot
	Logo        *LogoFile
}

type UpdateProjectInput struct {
	Name        *string
	Description *string
	CategoryID  *string
}

// ProjectService gestiona el ciclo de vida de los proyectos.
type ProjectService struct {
	logger   *zap.Logger
	projects repository.ProjectRepository
	logos    LogoStorage
	channels ChannelProvisioner
	now      func() time.Time
}

func NewProjectService(logger *zap.Logger, projects repository.ProjectRepository, logos LogoStorage, channels ChannelProvisioner) *ProjectService {
	return &ProjectService{
		logger:   logger,
		projects: projects,
		logos:    logos,
		channels: channels,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *ProjectService) ListCategories(ctx context.Context) ([]domain.ProjectCategory, error) {
	return s.projects.ListCategories(ctx)
}

// ListRoleTypes excluye el rol sintético de dueño.
func (s *ProjectService) ListRoleTypes(ctx context.Context) ([]domain.RoleType, error) {
	return s.projects.ListRoleTypes(ctx)
}

func (s *ProjectService) List(ctx context.Context, filter domain.ProjectFilter) ([]domain.Project, int, error) {
	if filter.Status != "" && !validStatus(filter.Status) {
		return nil, 0, ErrInvalidProjectStatus
	}
	if filter.MinParticipants != nil && filter.MaxParticipants != nil && *filter.MinParticipants > *filter.MaxParticipants {
		return nil, 0, ErrInvalidParticipants
	}
	return s.projects.List(ctx, filter)
}

func (s *ProjectService) Get(ctx context.Context, id string) (domain.Project, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Project{}, ErrProjectNotFound
		}
		return domain.Project{}, err
	}
	return p, nil
}

// Create crea el proyecto con su equipo inicial y el tablero por defecto.
func (s *ProjectService) Create(ctx context.Context, ownerID string, input CreateProjectInput) (domain.Project, error) {
	name := strings.TrimSpace(input.Name)
	description := strings.TrimSpace(input.Description)
	if !lengthBetween(name, 2, 50) {
		return domain.Project{}, ErrInvalidProjectName
	}
	if !lengthBetween(description, 2, 500) {
		return domain.Project{}, ErrInvalidDescription
	}
	if strings.TrimSpace(input.CategoryID) == "" {
		return domain.Project{}, ErrCategoryNotFound
	}
	if err := s.validateRoles(ctx, input.Roles); err != nil {
		return domain.Project{}, err
	}
	if input.Logo != nil {
		if err := validateLogo(*input.Logo); err != nil {
			return domain.Project{}, err
		}
	}

	active, err := s.projects.CountActiveMemberships(ctx, ownerID)
	if err != nil {
		return domain.Project{}, err
	}
	if active >= maxActiveProjects {
		return domain.Project{}, ErrProjectLimit
	}

	now := s.now()
	project := domain.Project{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Status:      domain.ProjectStatusActive,
		OwnerID:     ownerID,
		CategoryID:  input.CategoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if input.Logo != nil {
		url, err := s.uploadLogo(ctx, project.ID, *input.Logo)
		if err != nil {
			return domain.Project{}, err
		}
		project.LogoURL = url
	}

	created, err := s.projects.Create(ctx, repository.CreateProjectParams{
		Project:   project,
		Roles:     input.Roles,
		BoardName: name,
		Columns:   domain.DefaultBoardColumns,
	})
	if err != nil {
		if project.LogoURL != "" {
			s.dropLogos(ctx, project.ID)
		}
		if errors.Is(err, repository.ErrForeignKey) {
			return domain.Project{}, ErrCategoryNotFound
		}
		return domain.Project{}, err
	}

	s.provisionChannel(ctx, &created)
	return created, nil
}

func (s *ProjectService) validateRoles(ctx context.Context, roles []repository.RoleSlot) error {
	seen := make(map[string]bool, len(roles))
	for _, r := range roles {
		if strings.TrimSpace(r.RoleTypeID) == "" || r.Slots < 1 {
			return ErrInvalidRoleSlots
		}
		if seen[r.RoleTypeID] {
			return ErrDuplicateRoleType
		}
		seen[r.RoleTypeID] = true

		rt, err := s.projects.GetRoleType(ctx, r.RoleTypeID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrRoleTypeNotFound
			}
			return err
		}
		if rt.Name == domain.OwnerRoleTypeName {
			return ErrOwnerRoleRequested
		}
	}
	return nil
}

func (s *ProjectService) provisionChannel(ctx context.Context, project *domain.Project) {
	if s.channels == nil {
		return
	}
	links, err := s.channels.CreateProjectChannel(ctx, project.Name)
	if err != nil {
		s.logger.Warn("provision discord channel failed", zap.String("project_id", project.ID), zap.Error(err))
		return
	}
	if links.ChannelID == "" {
		return
	}
	if err := s.projects.UpdateDiscord(ctx, project.ID, links); err != nil {
		s.logger.Warn("store discord links failed", zap.String("project_id", project.ID), zap.Error(err))
		return
	}
	project.DiscordChannelID = links.ChannelID
	project.DiscordAdminRoleID = links.AdminRoleID
	project.DiscordMemberRoleID = links.MemberRoleID
}

func (s *ProjectService) Update(ctx context.Context, id string, input UpdateProjectInput) (domain.Project, error) {
	var patch repository.ProjectPatch
	if input.Name != nil {
		v := strings.TrimSpace(*input.Name)
		if !lengthBetween(v, 2, 50) {
			return domain.Project{}, ErrInvalidProjectName
		}
		patch.Name = &v
	}
	if input.Description != nil {
		v := strings.TrimSpace(*input.Description)
		if !lengthBetween(v, 2, 500) {
			return domain.Project{}, ErrInvalidDescription
		}
		patch.Description = &v
	}
	if input.CategoryID != nil {
		v := strings.TrimSpace(*input.CategoryID)
		if v == "" {
			return domain.Project{}, ErrCategoryNotFound
		}
		patch.CategoryID = &v
	}

	p, err := s.projects.Update(ctx, id, patch)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return domain.Project{}, ErrProjectNotFound
		case errors.Is(err, repository.ErrForeignKey):
			return domain.Project{}, ErrCategoryNotFound
		}
		return domain.Project{}, err
	}
	return p, nil
}

func (s *ProjectService) UpdateStatus(ctx context.Context, id, status string) (domain.Project, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !validStatus(status) {
		return domain.Project{}, ErrInvalidProjectStatus
	}
	if err := s.projects.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Project{}, ErrProjectNotFound
		}
		return domain.Project{}, err
	}
	return s.Get(ctx, id)
}

func (s *ProjectService) UpdateLogo(ctx context.Context, id string, logo LogoFile) (domain.Project, error) {
	if err := validateLogo(logo); err != nil {
		return domain.Project{}, err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return domain.Project{}, err
	}
	url, err := s.uploadLogo(ctx, id, logo)
	if err != nil {
		return domain.Project{}, err
	}
	if err := s.projects.UpdateLogo(ctx, id, url); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Project{}, ErrProjectNotFound
		}
		return domain.Project{}, err
	}
	return s.Get(ctx, id)
}

// Delete elimina el proyecto; logos y canal de Discord se limpian best-effort.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.projects.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectNotFound
		}
		return err
	}
	if p.LogoURL != "" {
		s.dropLogos(ctx, id)
	}
	if s.channels != nil && p.DiscordChannelID != "" {
		links := repository.DiscordLinks{
			ChannelID:    p.DiscordChannelID,
			AdminRoleID:  p.DiscordAdminRoleID,
			MemberRoleID: p.DiscordMemberRoleID,
		}
		if err := s.channels.DeleteProjectChannel(ctx, links); err != nil {
			s.logger.Warn("delete discord channel failed", zap.String("project_id", id), zap.Error(err))
		}
	}
	return nil
}

func (s *ProjectService) uploadLogo(ctx context.Context, projectID string, logo LogoFile) (string, error) {
	if s.logos == nil {
		return "", ErrServiceUnavailable
	}
	url, err := s.logos.UploadLogo(ctx, projectID, logo.Filename, logo.ContentType, logo.Size, logo.Body)
	if err != nil {
		s.logger.Error("upload logo failed", zap.String("project_id", projectID), zap.Error(err))
		return "", ErrLogoUpload
	}
	return url, nil
}

func (s *ProjectService) dropLogos(ctx context.Context, projectID string) {
	if s.logos == nil {
		return
	}
	if err := s.logos.DeleteLogos(ctx, projectID); err != nil {
		s.logger.Warn("delete logos failed", zap.String("project_id", projectID), zap.Error(err))
	}
}

func validateLogo(logo LogoFile) error {
	if logo.Body == nil || logo.Size <= 0 || logo.Size > maxLogoSize {
		return ErrInvalidLogo
	}
	if !allowedLogoTypes[strings.ToLower(logo.ContentType)] {
		return ErrInvalidLogo
	}
	return nil
}

func validStatus(status string) bool {
	return status == domain.ProjectStatusActive || status == domain.ProjectStatusDone
}
