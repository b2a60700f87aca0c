package domain

import "time"

const (
	SkillKindHard = "hard"
	SkillKindSoft = "soft"
)

type Institution struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Education struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	InstitutionID   string    `json:"institutionId"`
	InstitutionName string    `json:"institution"`
	Specialization  string    `json:"specialization"`
	Degree          string    `json:"degree,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

type Social struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Network   string    `json:"network"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}

type Skill struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
}
