package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"collabhub/internal/domain"
	"collabhub/internal/events"
	"collabhub/internal/repository"
)

var (
	ErrInviteNotFound   = newError(ErrNotFound, "Invitation not found")
	ErrRequestNotFound  = newError(ErrNotFound, "Participation request not found")
	ErrMemberNotFound   = newError(ErrNotFound, "User is not a member of this project")
	ErrAlreadyMember    = newError(ErrConflict, "User is already a member of this project")
	ErrAlreadyInvited   = newError(ErrConflict, "User is already invited to this project")
	ErrAlreadyRequested = newError(ErrConflict, "User has already requested to join this project")
	ErrRoleFull         = newError(ErrConflict, "No free slots left for this role")
	ErrOwnerRoleJoin    = badRequest("The owner role cannot be joined")
	ErrOwnerCannotLeave = badRequest("The project owner cannot leave the project")
)

// ParticipationService implementa el ciclo de invitaciones y solicitudes.
type ParticipationService struct {
	logger         *zap.Logger
	participations repository.ParticipationRepository
	roles          repository.ProjectRoleRepository
	users          repository.UserRepository
	publisher      events.Publisher
	now            func() time.Time
}

func NewParticipationService(
	logger *zap.Logger,
	participations repository.ParticipationRepository,
	roles repository.ProjectRoleRepository,
	users repository.UserRepository,
	publisher events.Publisher,
) *ParticipationService {
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	return &ParticipationService{
		logger:         logger,
		participations: participations,
		roles:          roles,
		users:          users,
		publisher:      publisher,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// CreateInvite registra una invitación del dueño para el usuario con ese email.
func (s *ParticipationService) CreateInvite(ctx context.Context, ownerID, projectID, roleID, userEmail string) (domain.ParticipationInvite, error) {
	role, err := s.projectRole(ctx, projectID, roleID)
	if err != nil {
		return domain.ParticipationInvite{}, err
	}
	user, err := s.users.GetByEmail(ctx, normalizeEmail(userEmail))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ParticipationInvite{}, ErrUserNotFound
		}
		return domain.ParticipationInvite{}, err
	}
	if err := s.ensureNoPending(ctx, projectID, user.ID); err != nil {
		return domain.ParticipationInvite{}, err
	}
	if role.IsOwnerRole() {
		return domain.ParticipationInvite{}, ErrOwnerRoleJoin
	}

	invite := domain.ParticipationInvite{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		ProjectID:     projectID,
		ProjectRoleID: roleID,
		RoleName:      role.RoleType.Name,
		CreatedAt:     s.now(),
	}
	if err := s.participations.CreateInvite(ctx, invite); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return domain.ParticipationInvite{}, ErrAlreadyInvited
		case errors.Is(err, repository.ErrForeignKey):
			return domain.ParticipationInvite{}, ErrProjectRoleNotFound
		}
		return domain.ParticipationInvite{}, err
	}
	s.publish(ctx, events.New(events.InviteCreated, projectID, roleID, user.ID, ownerID))
	return invite, nil
}

// CreateRequest registra la solicitud del usuario para ocupar un rol.
func (s *ParticipationService) CreateRequest(ctx context.Context, userID, projectID, roleID string) (domain.ParticipationRequest, error) {
	role, err := s.projectRole(ctx, projectID, roleID)
	if err != nil {
		return domain.ParticipationRequest{}, err
	}
	if err := s.ensureNoPending(ctx, projectID, userID); err != nil {
		return domain.ParticipationRequest{}, err
	}
	if role.IsOwnerRole() {
		return domain.ParticipationRequest{}, ErrOwnerRoleJoin
	}

	request := domain.ParticipationRequest{
		ID:            uuid.NewString(),
		UserID:        userID,
		ProjectID:     projectID,
		ProjectRoleID: roleID,
		RoleName:      role.RoleType.Name,
		CreatedAt:     s.now(),
	}
	if err := s.participations.CreateRequest(ctx, request); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return domain.ParticipationRequest{}, ErrAlreadyRequested
		case errors.Is(err, repository.ErrForeignKey):
			return domain.ParticipationRequest{}, ErrProjectRoleNotFound
		}
		return domain.ParticipationRequest{}, err
	}
	s.publish(ctx, events.New(events.RequestCreated, projectID, roleID, userID, userID))
	return request, nil
}

// AcceptInvite sólo puede ejecutarlo el usuario invitado.
func (s *ParticipationService) AcceptInvite(ctx context.Context, inviteID, userID string) (domain.ParticipationInvite, error) {
	invite, err := s.participations.AcceptInvite(ctx, inviteID, userID, s.now())
	if err != nil {
		return domain.ParticipationInvite{}, joinError(err, ErrInviteNotFound)
	}
	s.publish(ctx, events.New(events.InviteAccepted, invite.ProjectID, invite.ProjectRoleID, userID, userID))
	s.publish(ctx, events.New(events.MemberJoined, invite.ProjectID, invite.ProjectRoleID, userID, userID))
	return invite, nil
}

func (s *ParticipationService) RejectInvite(ctx context.Context, inviteID, userID string) error {
	invite, err := s.participations.GetInvite(ctx, inviteID)
	if err != nil {
		return notFoundAs(err, ErrInviteNotFound)
	}
	if invite.UserID != userID {
		return ErrInviteNotFound
	}
	if err := s.participations.DeleteInvite(ctx, inviteID); err != nil {
		return notFoundAs(err, ErrInviteNotFound)
	}
	s.publish(ctx, events.New(events.InviteRejected, invite.ProjectID, invite.ProjectRoleID, userID, userID))
	return nil
}

// CancelInvite la ejecuta el dueño del proyecto.
func (s *ParticipationService) CancelInvite(ctx context.Context, inviteID, ownerID string) error {
	invite, err := s.participations.GetInvite(ctx, inviteID)
	if err != nil {
		return notFoundAs(err, ErrInviteNotFound)
	}
	if err := s.participations.DeleteInvite(ctx, inviteID); err != nil {
		return notFoundAs(err, ErrInviteNotFound)
	}
	s.publish(ctx, events.New(events.InviteCancelled, invite.ProjectID, invite.ProjectRoleID, invite.UserID, ownerID))
	return nil
}

// AcceptRequest la ejecuta el dueño del proyecto.
func (s *ParticipationService) AcceptRequest(ctx context.Context, requestID, ownerID string) (domain.ParticipationRequest, error) {
	request, err := s.participations.AcceptRequest(ctx, requestID, s.now())
	if err != nil {
		return domain.ParticipationRequest{}, joinError(err, ErrRequestNotFound)
	}
	s.publish(ctx, events.New(events.RequestAccepted, request.ProjectID, request.ProjectRoleID, request.UserID, ownerID))
	s.publish(ctx, events.New(events.MemberJoined, request.ProjectID, request.ProjectRoleID, request.UserID, ownerID))
	return request, nil
}

func (s *ParticipationService) RejectRequest(ctx context.Context, requestID, ownerID string) error {
	request, err := s.participations.GetRequest(ctx, requestID)
	if err != nil {
		return notFoundAs(err, ErrRequestNotFound)
	}
	if err := s.participations.DeleteRequest(ctx, requestID); err != nil {
		return notFoundAs(err, ErrRequestNotFound)
	}
	s.publish(ctx, events.New(events.RequestRejected, request.ProjectID, request.ProjectRoleID, request.UserID, ownerID))
	return nil
}

// CancelRequest sólo puede ejecutarlo quien envió la solicitud.
func (s *ParticipationService) CancelRequest(ctx context.Context, requestID, userID string) error {
	request, err := s.participations.GetRequest(ctx, requestID)
	if err != nil {
		return notFoundAs(err, ErrRequestNotFound)
	}
	if request.UserID != userID {
		return ErrRequestNotFound
	}
	if err := s.participations.DeleteRequest(ctx, requestID); err != nil {
		return notFoundAs(err, ErrRequestNotFound)
	}
	s.publish(ctx, events.New(events.RequestCancelled, request.ProjectID, request.ProjectRoleID, userID, userID))
	return nil
}

// Leave quita al usuario de su rol; el dueño no puede abandonar su proyecto.
func (s *ParticipationService) Leave(ctx context.Context, projectID, userID string) error {
	return s.removeMember(ctx, projectID, userID, userID)
}

// RemoveMember la ejecuta el dueño sobre otro miembro.
func (s *ParticipationService) RemoveMember(ctx context.Context, projectID, ownerID, userID string) error {
	return s.removeMember(ctx, projectID, userID, ownerID)
}

func (s *ParticipationService) removeMember(ctx context.Context, projectID, userID, actorID string) error {
	membership, err := s.participations.GetMembership(ctx, projectID, userID)
	if err != nil {
		return notFoundAs(err, ErrMemberNotFound)
	}
	if membership.OwnerRole {
		return ErrOwnerCannotLeave
	}
	removed, err := s.participations.RemoveMember(ctx, projectID, userID)
	if err != nil {
		return notFoundAs(err, ErrMemberNotFound)
	}
	s.publish(ctx, events.New(events.MemberLeft, projectID, removed.ProjectRoleID, userID, actorID))
	return nil
}

func (s *ParticipationService) MyInvites(ctx context.Context, userID string) ([]domain.ParticipationInvite, error) {
	return s.participations.ListInvitesByUser(ctx, userID)
}

func (s *ParticipationService) MyRequests(ctx context.Context, userID string) ([]domain.ParticipationRequest, error) {
	return s.participations.ListRequestsByUser(ctx, userID)
}

func (s *ParticipationService) ProjectInvites(ctx context.Context, projectID string) ([]domain.ParticipationInvite, error) {
	return s.participations.ListInvitesByProject(ctx, projectID)
}

func (s *ParticipationService) ProjectRequests(ctx context.Context, projectID string) ([]domain.ParticipationRequest, error) {
	return s.participations.ListRequestsByProject(ctx, projectID)
}

// projectRole carga el rol y verifica que pertenezca al proyecto.
func (s *ParticipationService) projectRole(ctx context.Context, projectID, roleID string) (domain.ProjectRole, error) {
	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return domain.ProjectRole{}, notFoundAs(err, ErrProjectRoleNotFound)
	}
	if role.ProjectID != projectID {
		return domain.ProjectRole{}, ErrProjectRoleNotFound
	}
	return role, nil
}

// ensureNoPending falla con Conflict si ya es miembro o tiene una propuesta pendiente.
func (s *ParticipationService) ensureNoPending(ctx context.Context, projectID, userID string) error {
	_, err := s.participations.GetMembership(ctx, projectID, userID)
	if err == nil {
		return ErrAlreadyMember
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	invited, err := s.participations.HasInvite(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if invited {
		return ErrAlreadyInvited
	}
	requested, err := s.participations.HasRequest(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if requested {
		return ErrAlreadyRequested
	}
	return nil
}

func (s *ParticipationService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish participation event failed",
			zap.String("type", event.Type),
			zap.String("project_id", event.ProjectID),
			zap.Error(err),
		)
	}
}

func notFoundAs(err, target error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return target
	}
	return err
}

func joinError(err, notFound error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return notFound
	case errors.Is(err, repository.ErrRoleFull):
		return ErrRoleFull
	case errors.Is(err, repository.ErrDuplicate):
		return ErrAlreadyMember
	}
	return err
}
