package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"collabhub/internal/service"
)

// ParticipationHandler expone invitaciones, solicitudes y membresías.
type ParticipationHandler struct {
	logger         *zap.Logger
	participations *service.ParticipationService
}

func NewParticipationHandler(logger *zap.Logger, participations *service.ParticipationService) *ParticipationHandler {
	return &ParticipationHandler{logger: logger, participations: participations}
}

// CreateInvite maneja POST /participations/invite.
func (h *ParticipationHandler) CreateInvite(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		ProjectID     string `json:"projectId" binding:"required"`
		ProjectRoleID string `json:"projectRoleId" binding:"required"`
		Email         string `json:"email" binding:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, h.logger, "create invite", err)
		return
	}
	invite, err := h.participations.CreateInvite(c.Request.Context(), ownerID, req.ProjectID, req.ProjectRoleID, req.Email)
	if err != nil {
		writeError(c, h.logger, "create invite", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"invite": invite})
}

// CreateRequest maneja POST /participations/request.
func (h *ParticipationHandler) CreateRequest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		ProjectID     string `json:"projectId" binding:"required"`
		ProjectRoleID string `json:"projectRoleId" binding:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, h.logger, "create request", err)
		return
	}
	request, err := h.participations.CreateRequest(c.Request.Context(), userID, req.ProjectID, req.ProjectRoleID)
	if err != nil {
		writeError(c, h.logger, "create request", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"request": request})
}

// AcceptInvite maneja PUT /participations/invite/:id/accept.
func (h *ParticipationHandler) AcceptInvite(c *gin.Context) {
	h.transition(c, "accept invite", func(userID, id string) error {
		_, err := h.participations.AcceptInvite(c.Request.Context(), id, userID)
		return err
	})
}

// RejectInvite maneja DELETE /participations/invite/:id/reject.
func (h *ParticipationHandler) RejectInvite(c *gin.Context) {
	h.transition(c, "reject invite", func(userID, id string) error {
		return h.participations.RejectInvite(c.Request.Context(), id, userID)
	})
}

// CancelInvite maneja DELETE /participations/invite/:id/cancel.
func (h *ParticipationHandler) CancelInvite(c *gin.Context) {
	h.transition(c, "cancel invite", func(userID, id string) error {
		return h.participations.CancelInvite(c.Request.Context(), id, userID)
	})
}

// AcceptRequest maneja PUT /participations/request/:id/accept.
func (h *ParticipationHandler) AcceptRequest(c *gin.Context) {
	h.transition(c, "accept request", func(userID, id string) error {
		_, err := h.participations.AcceptRequest(c.Request.Context(), id, userID)
		return err
	})
}

// RejectRequest maneja DELETE /participations/request/:id/reject.
func (h *ParticipationHandler) RejectRequest(c *gin.Context) {
	h.transition(c, "reject request", func(userID, id string) error {
		return h.participations.RejectRequest(c.Request.Context(), id, userID)
	})
}

// CancelRequest maneja DELETE /participations/request/:id/cancel.
func (h *ParticipationHandler) CancelRequest(c *gin.Context) {
	h.transition(c, "cancel request", func(userID, id string) error {
		return h.participations.CancelRequest(c.Request.Context(), id, userID)
	})
}

// transition ejecuta un cambio de estado y responde 204.
func (h *ParticipationHandler) transition(c *gin.Context, op string, fn func(userID, id string) error) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := fn(userID, c.Param("id")); err != nil {
		writeError(c, h.logger, op, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MyInvites maneja GET /participations/invites.
func (h *ParticipationHandler) MyInvites(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	invites, err := h.participations.MyInvites(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, "list invites", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invites": invites})
}

// MyRequests maneja GET /participations/requests.
func (h *ParticipationHandler) MyRequests(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	requests, err := h.participations.MyRequests(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, "list requests", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// ProjectInvites maneja GET /projects/:id/invites.
func (h *ParticipationHandler) ProjectInvites(c *gin.Context) {
	invites, err := h.participations.ProjectInvites(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "list project invites", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invites": invites})
}

// ProjectRequests maneja GET /projects/:id/requests.
func (h *ParticipationHandler) ProjectRequests(c *gin.Context) {
	requests, err := h.participations.ProjectRequests(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "list project requests", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// Leave maneja DELETE /projects/:id/members/me.
func (h *ParticipationHandler) Leave(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.participations.Leave(c.Request.Context(), c.Param("id"), userID); err != nil {
		writeError(c, h.logger, "leave project", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RemoveMember maneja DELETE /projects/:id/members/:userId.
func (h *ParticipationHandler) RemoveMember(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.participations.RemoveMember(c.Request.Context(), c.Param("id"), ownerID, c.Param("userId")); err != nil {
		writeError(c, h.logger, "remove member", err)
		return
	}
	c.Status(http.StatusNoContent)
}
