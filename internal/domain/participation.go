package domain

import "time"

// ParticipationInvite es una propuesta del dueño hacia un usuario.
type ParticipationInvite struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	ProjectID     string    `json:"projectId"`
	ProjectRoleID string    `json:"projectRoleId"`
	ProjectName   string    `json:"projectName,omitempty"`
	RoleName      string    `json:"roleName,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ParticipationRequest es una solicitud del usuario pendiente de aprobación.
type ParticipationRequest struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	ProjectID     string    `json:"projectId"`
	ProjectRoleID string    `json:"projectRoleId"`
	ProjectName   string    `json:"projectName,omitempty"`
	RoleName      string    `json:"roleName,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Membership describe la pertenencia de un usuario a un proyecto.
type Membership struct {
	ProjectID     string `json:"projectId"`
	ProjectRoleID string `json:"projectRoleId"`
	UserID        string `json:"userId"`
	OwnerRole     bool   `json:"ownerRole"`
}
