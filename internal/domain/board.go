package domain

import "time"

const (
	TaskPriorityHigh   = "high"
	TaskPriorityNormal = "normal"
	TaskPriorityLow    = "low"
)

// DefaultBoardColumns son las columnas creadas junto con el proyecto.
var DefaultBoardColumns = []string{"To Do", "In Progress", "Done"}

type Board struct {
	ID        string       `json:"id"`
	ProjectID string       `json:"projectId"`
	Name      string       `json:"boardName"`
	Columns   []TaskStatus `json:"columns,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

type TaskStatus struct {
	ID          string `json:"id"`
	BoardID     string `json:"boardId"`
	Name        string `json:"statusName"`
	ColumnIndex int    `json:"columnIndex"`
	Tasks       []Task `json:"tasks,omitempty"`
}

type Task struct {
	ID           string    `json:"id"`
	TaskStatusID string    `json:"taskStatusId"`
	Name         string    `json:"taskName"`
	Description  string    `json:"description"`
	Priority     string    `json:"priority"`
	Deadline     time.Time `json:"deadline"`
	AssigneeID   *string   `json:"assigneeId,omitempty"`
	CreatedBy    string    `json:"createdBy,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// StatusLocation ubica una columna dentro de su tablero y proyecto.
type StatusLocation struct {
	StatusID  string
	BoardID   string
	ProjectID string
}
