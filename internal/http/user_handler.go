package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"collabhub/internal/service"
)

// UserHandler mantiene dependencias para endpoints de usuarios.
type UserHandler struct {
	logger       *zap.Logger
	users        *service.UserService
	verification *service.VerificationService
}

// NewUserHandler crea una instancia de UserHandler con dependencias necesarias.
func NewUserHandler(logger *zap.Logger, users *service.UserService, verification *service.VerificationService) *UserHandler {
	return &UserHandler{
		logger:       logger,
		users:        users,
		verification: verification,
	}
}

// SendConfirmationEmail maneja POST /users/send-confirmation-email.
func (h *UserHandler) SendConfirmationEmail(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, h.logger, "send confirmation", err)
		return
	}
	if err := h.verification.SendCode(c.Request.Context(), req.Email); err != nil {
		writeError(c, h.logger, "send confirmation", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ConfirmEmail maneja POST /users/confirm.
func (h *UserHandler) ConfirmEmail(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
		Code  string `json:"code" binding:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, h.logger, "confirm email", err)
		return
	}
	if err := h.verification.ConfirmEmail(c.Request.Context(), req.Email, req.Code); err != nil {
		writeError(c, h.logger, "confirm email", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RequestPasswordReset maneja POST /users/request-password-reset.
func (h *UserHandler) RequestPasswordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, h.logger, "request password reset", err)
		return
	}
	if err := h.verification.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		writeError(c, h.logger, "request password reset", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ResetPassword maneja POST /users/reset-password.
func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, h.logger, "reset password", err)
		return
	}
	if err := h.verification.ResetPassword(c.Request.Context(), req.Token, req.Password, c.ClientIP()); err != nil {
		writeError(c, h.logger, "reset password", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me maneja GET /users/me.
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	h.respondUser(c, userID)
}

// GetUser maneja GET /users/:id.
func (h *UserHandler) GetUser(c *gin.Context) {
	h.respondUser(c, c.Param("id"))
}

func (h *UserHandler) respondUser(c *gin.Context, id string) {
	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, "get user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateMe maneja PATCH /users/me.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		FirstName *string `json:"firstName"`
		LastName  *string `json:"lastName"`
		DiscordID *string `json:"discordId"`
	}
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, h.logger, "update profile", err)
		return
	}
	user, err := h.users.UpdateProfile(c.Request.Context(), userID, service.UpdateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		DiscordID: req.DiscordID,
	})
	if err != nil {
		writeError(c, h.logger, "update profile", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ListUsers maneja GET /users?query=&page=&limit=.
func (h *UserHandler) ListUsers(c *gin.Context) {
	page, limit := pagination(c)
	users, total, err := h.users.List(c.Request.Context(), c.Query("query"), page, limit)
	if err != nil {
		writeError(c, h.logger, "list users", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "total": total, "page": page, "limit": limit})
}

// MyProjects maneja GET /users/me/projects.
func (h *UserHandler) MyProjects(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	h.respondProjects(c, userID)
}

// UserProjects maneja GET /users/:id/projects.
func (h *UserHandler) UserProjects(c *gin.Context) {
	h.respondProjects(c, c.Param("id"))
}

func (h *UserHandler) respondProjects(c *gin.Context, userID string) {
	projects, err := h.users.Projects(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, "user projects", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// EmailAvailable maneja GET /users/email-available?email=.
func (h *UserHandler) EmailAvailable(c *gin.Context) {
	available, err := h.users.EmailAvailable(c.Request.Context(), c.Query("email"))
	if err != nil {
		writeError(c, h.logger, "email available", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": available})
}

// pagination lee page y limit con valores por defecto 1 y 10.
func pagination(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
