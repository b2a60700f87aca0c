package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"collabhub/internal/repository"
	"collabhub/internal/service"
)

const projectIDKey = "guard_project_id"

// IDSource indica de dónde toma el guard el id del recurso.
type IDSource int

const (
	FromParams IDSource = iota
	FromQuery
	FromBody
)

var modelNames = map[repository.AccessModel]string{
	repository.ModelProject:              "Project",
	repository.ModelProjectRole:          "Project role",
	repository.ModelDocument:             "Document",
	repository.ModelParticipationInvite:  "Invitation",
	repository.ModelParticipationRequest: "Participation request",
	repository.ModelBoard:                "Board",
	repository.ModelTaskStatus:           "Task status",
	repository.ModelTask:                 "Task",
}

// AccessGuard resuelve el proyecto del recurso y exige dueño o miembro.
type AccessGuard struct {
	logger *zap.Logger
	access repository.AccessRepository
}

func NewAccessGuard(logger *zap.Logger, access repository.AccessRepository) *AccessGuard {
	return &AccessGuard{logger: logger, access: access}
}

// Owner exige que el usuario autenticado sea el dueño del proyecto.
func (g *AccessGuard) Owner(source IDSource, key string, model repository.AccessModel) gin.HandlerFunc {
	return g.guard(source, key, model, true)
}

// Member exige que el usuario ocupe un rol en el proyecto.
func (g *AccessGuard) Member(source IDSource, key string, model repository.AccessModel) gin.HandlerFunc {
	return g.guard(source, key, model, false)
}

func (g *AccessGuard) guard(source IDSource, key string, model repository.AccessModel, owner bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		id := resourceID(c, source, key)
		if id == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Missing " + key})
			return
		}

		ctx := c.Request.Context()
		projectID, err := g.access.ProjectOf(ctx, model, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": modelNames[model] + " not found"})
				return
			}
			writeError(c, g.logger, "access guard", err)
			return
		}

		allowed, denied := false, service.ErrNotProjectMember
		if owner {
			allowed, err = g.access.IsOwner(ctx, projectID, userID)
			denied = service.ErrNotProjectOwner
		} else {
			allowed, err = g.access.IsMember(ctx, projectID, userID)
		}
		if err != nil {
			writeError(c, g.logger, "access guard", err)
			return
		}
		if !allowed {
			writeError(c, g.logger, "access guard", denied)
			return
		}

		c.Set(projectIDKey, projectID)
		c.Next()
	}
}

func resourceID(c *gin.Context, source IDSource, key string) string {
	switch source {
	case FromParams:
		return strings.TrimSpace(c.Param(key))
	case FromQuery:
		return strings.TrimSpace(c.Query(key))
	case FromBody:
		var body map[string]any
		if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil {
			return ""
		}
		v, _ := body[key].(string)
		return strings.TrimSpace(v)
	default:
		return ""
	}
}

// bindJSON lee el body desde la caché de gin para que los guards puedan leerlo antes.
func bindJSON(c *gin.Context, dst any) error {
	return c.ShouldBindBodyWith(dst, binding.JSON)
}
