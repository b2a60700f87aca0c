package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"collabhub/internal/domain"
	"collabhub/internal/repository"
)

var ErrInvalidDiscordID = badRequest("Discord id must be a numeric snowflake")

// UserService coordina reglas de negocio para usuarios.
type UserService struct {
	logger   *zap.Logger
	users    repository.UserRepository
	projects repository.ProjectRepository
}

func NewUserService(logger *zap.Logger, users repository.UserRepository, projects repository.ProjectRepository) *UserService {
	return &UserService{logger: logger, users: users, projects: projects}
}

type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	DiscordID *string
}

func (s *UserService) Get(ctx context.Context, id string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id string, input UpdateProfileInput) (domain.User, error) {
	var patch repository.UserPatch
	if input.FirstName != nil {
		v := strings.TrimSpace(*input.FirstName)
		if !validName(v) {
			return domain.User{}, ErrInvalidName
		}
		patch.FirstName = &v
	}
	if input.LastName != nil {
		v := strings.TrimSpace(*input.LastName)
		if !validName(v) {
			return domain.User{}, ErrInvalidName
		}
		patch.LastName = &v
	}
	if input.DiscordID != nil {
		v := strings.TrimSpace(*input.DiscordID)
		if v != "" && !isSnowflake(v) {
			return domain.User{}, ErrInvalidDiscordID
		}
		patch.DiscordID = &v
	}

	user, err := s.users.UpdateProfile(ctx, id, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// List devuelve tarjetas de usuario filtradas por nombre y el total.
func (s *UserService) List(ctx context.Context, query string, page, limit int) ([]domain.UserCard, int, error) {
	users, total, err := s.users.List(ctx, repository.UserFilter{
		Query: strings.TrimSpace(query),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		return nil, 0, err
	}
	cards := make([]domain.UserCard, 0, len(users))
	for _, u := range users {
		cards = append(cards, domain.UserCard{
			ID:        u.ID,
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			AvatarURL: u.AvatarURL,
		})
	}
	return cards, total, nil
}

func (s *UserService) EmailAvailable(ctx context.Context, emailAddr string) (bool, error) {
	emailAddr = normalizeEmail(emailAddr)
	if !validEmail(emailAddr) {
		return false, ErrInvalidEmail
	}
	exists, err := s.users.EmailExists(ctx, emailAddr)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// IsVerified implementa la consulta usada por el middleware RequireVerified.
func (s *UserService) IsVerified(ctx context.Context, id string) (bool, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return user.IsVerified, nil
}

// Projects lista los proyectos donde el usuario ocupa un rol.
func (s *UserService) Projects(ctx context.Context, id string) ([]domain.Project, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.projects.ListByMember(ctx, id)
}

func isSnowflake(s string) bool {
	if len(s) < 17 || len(s) > 20 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
