package events

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// Claves de ruteo publicadas en el exchange topic.
const (
	InviteCreated    = "participation.invite.created"
	InviteAccepted   = "participation.invite.accepted"
	InviteRejected   = "participation.invite.rejected"
	InviteCancelled  = "participation.invite.cancelled"
	RequestCreated   = "participation.request.created"
	RequestAccepted  = "participation.request.accepted"
	RequestRejected  = "participation.request.rejected"
	RequestCancelled = "participation.request.cancelled"
	MemberJoined     = "participation.member.joined"
	MemberLeft       = "participation.member.left"
)

// BindingKey cubre todos los eventos de participación.
const BindingKey = "participation.#"

// Event es el mensaje de dominio de una transición de participación.
type Event struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	ProjectID     string    `json:"projectId"`
	ProjectRoleID string    `json:"projectRoleId,omitempty"`
	UserID        string    `json:"userId"`
	ActorID       string    `json:"actorId,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

func New(eventType, projectID, roleID, userID, actorID string) Event {
	return Event{
		ID:            ulid.Make().String(),
		Type:          eventType,
		ProjectID:     projectID,
		ProjectRoleID: roleID,
		UserID:        userID,
		ActorID:       actorID,
		OccurredAt:    time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type Handler interface {
	Handle(ctx context.Context, event Event) error
}

type noopPublisher struct{}

func NewNoopPublisher() Publisher { return noopPublisher{} }

func (noopPublisher) Publish(context.Context, Event) error { return nil }
