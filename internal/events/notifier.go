package events

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"collabhub/internal/domain"
	"collabhub/internal/email"
)

type UserLookup interface {
	GetByID(ctx context.Context, id string) (domain.User, error)
}

type ProjectLookup interface {
	GetByID(ctx context.Context, id string) (domain.Project, error)
}

// MemberRoleSync asigna o quita el rol de Discord del proyecto.
type MemberRoleSync interface {
	GrantMember(ctx context.Context, discordUserID, roleID string) error
	RevokeMember(ctx context.Context, discordUserID, roleID string) error
}

// Notifier avisa por email a la contraparte y sincroniza roles de Discord.
type Notifier struct {
	logger   *zap.Logger
	users    UserLookup
	projects ProjectLookup
	sender   email.Sender
	roles    MemberRoleSync
}

func NewNotifier(logger *zap.Logger, users UserLookup, projects ProjectLookup, sender email.Sender, roles MemberRoleSync) *Notifier {
	return &Notifier{logger: logger, users: users, projects: projects, sender: sender, roles: roles}
}

type notice struct {
	toOwner bool
	subject string
	format  string
}

var notices = map[string]notice{
	InviteCreated:    {subject: "Project invitation", format: "You have been invited to join the project %q."},
	InviteCancelled:  {subject: "Invitation withdrawn", format: "Your invitation to the project %q was withdrawn."},
	RequestAccepted:  {subject: "Request approved", format: "Your request to join the project %q was approved."},
	RequestRejected:  {subject: "Request declined", format: "Your request to join the project %q was declined."},
	RequestCreated:   {toOwner: true, subject: "New participation request", format: "%s asked to join the project %q."},
	RequestCancelled: {toOwner: true, subject: "Request withdrawn", format: "%s withdrew the request to join the project %q."},
	InviteAccepted:   {toOwner: true, subject: "Invitation accepted", format: "%s accepted the invitation to the project %q."},
	InviteRejected:   {toOwner: true, subject: "Invitation declined", format: "%s declined the invitation to the project %q."},
}

func (n *Notifier) Handle(ctx context.Context, event Event) error {
	project, err := n.projects.GetByID(ctx, event.ProjectID)
	if err != nil {
		return fmt.Errorf("load project %s: %w", event.ProjectID, err)
	}
	user, err := n.users.GetByID(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("load user %s: %w", event.UserID, err)
	}

	switch event.Type {
	case MemberJoined:
		return n.syncRole(ctx, user, project, true)
	case MemberLeft:
		return n.syncRole(ctx, user, project, false)
	}

	nt, ok := notices[event.Type]
	if !ok {
		n.logger.Debug("skip event without notice", zap.String("type", event.Type))
		return nil
	}
	if n.sender == nil {
		return nil
	}
	if !nt.toOwner {
		return n.sender.SendNotification(ctx, user.Email, nt.subject, fmt.Sprintf(nt.format, project.Name))
	}
	owner, err := n.users.GetByID(ctx, project.OwnerID)
	if err != nil {
		return fmt.Errorf("load owner %s: %w", project.OwnerID, err)
	}
	return n.sender.SendNotification(ctx, owner.Email, nt.subject, fmt.Sprintf(nt.format, displayName(user), project.Name))
}

func (n *Notifier) syncRole(ctx context.Context, user domain.User, project domain.Project, grant bool) error {
	if n.roles == nil || user.DiscordID == "" || project.DiscordMemberRoleID == "" {
		return nil
	}
	var err error
	if grant {
		err = n.roles.GrantMember(ctx, user.DiscordID, project.DiscordMemberRoleID)
	} else {
		err = n.roles.RevokeMember(ctx, user.DiscordID, project.DiscordMemberRoleID)
	}
	if err != nil {
		return errors.Join(errors.New("discord role sync"), err)
	}
	return nil
}

func displayName(u domain.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}
