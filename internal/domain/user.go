package domain

import "time"

const (
	UserRoleUser  = "user"
	UserRoleAdmin = "admin"
)

// User representa una cuenta de la plataforma.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	GoogleID     string    `json:"-"`
	DiscordID    string    `json:"discordId,omitempty"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	IsVerified   bool      `json:"isVerified"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserCard es la vista reducida usada en listados de equipos.
type UserCard struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// LoginAttempt acumula fallos de login desde el último éxito.
type LoginAttempt struct {
	UserID       string     `json:"userId"`
	Attempts     int        `json:"attempts"`
	BlockedUntil *time.Time `json:"blockedUntil,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Blocked indica si el bloqueo sigue vigente en el instante dado.
func (a LoginAttempt) Blocked(now time.Time) bool {
	return a.BlockedUntil != nil && a.BlockedUntil.After(now)
}

type VerificationCode struct {
	UserID    string
	CodeHash  string
	ExpiresAt time.Time
}

type CodeEntryAttempt struct {
	UserID    string
	Attempts  int
	UpdatedAt time.Time
}

type PasswordResetToken struct {
	UserID          string
	TokenHash       string
	ExpiresAt       *time.Time
	Requests        int
	WindowStartedAt time.Time
}

const (
	EventLogin         = "login"
	EventFailedLogin   = "failed_login"
	EventLogout        = "logout"
	EventPasswordReset = "password_reset"
	EventRegister      = "register"
)

// LogEvent es una entrada de auditoría.
type LogEvent struct {
	ID        string    `json:"id"`
	EventType string    `json:"eventType"`
	UserID    string    `json:"userId,omitempty"`
	Details   string    `json:"details,omitempty"`
	IPAddress string    `json:"ipAddress,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
