package domain

import "time"

const (
	ProjectStatusActive = "active"
	ProjectStatusDone   = "done"
)

// OwnerRoleTypeName es el tipo de rol sintético asignado al creador.
const OwnerRoleTypeName = "Project owner"

type ProjectCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RoleType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Project agrupa el equipo, sus roles y documentos.
type Project struct {
	ID                  string           `json:"id"`
	Name                string           `json:"projectName"`
	Description         string           `json:"description"`
	Status              string           `json:"status"`
	OwnerID             string           `json:"ownerId"`
	CategoryID          string           `json:"categoryId"`
	Category            *ProjectCategory `json:"category,omitempty"`
	ParticipantsCount   int              `json:"participantsCount"`
	LogoURL             string           `json:"logoUrl,omitempty"`
	DiscordChannelID    string           `json:"discordChannelId,omitempty"`
	DiscordAdminRoleID  string           `json:"-"`
	DiscordMemberRoleID string           `json:"-"`
	Roles               []ProjectRole    `json:"roles,omitempty"`
	CreatedAt           time.Time        `json:"createdAt"`
	UpdatedAt           time.Time        `json:"updatedAt"`
}

// ProjectRole es un asiento tipado con cupos dentro de un proyecto.
type ProjectRole struct {
	ID         string     `json:"id"`
	ProjectID  string     `json:"projectId"`
	RoleTypeID string     `json:"roleTypeId"`
	RoleType   RoleType   `json:"roleType"`
	Slots      int        `json:"slots"`
	Members    []UserCard `json:"users"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// IsOwnerRole indica si el rol es el rol sintético de dueño.
func (r ProjectRole) IsOwnerRole() bool {
	return r.RoleType.Name == OwnerRoleTypeName
}

type ProjectFilter struct {
	Status          string
	CategoryID      string
	MinParticipants *int
	MaxParticipants *int
	Page            int
	Limit           int
}

type Document struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Name      string    `json:"documentName"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
