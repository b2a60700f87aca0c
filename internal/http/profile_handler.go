package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"collabhub/internal/service"
)

// ProfileHandler expone formación, redes sociales y habilidades.
type ProfileHandler struct {
	logger   *zap.Logger
	profiles *service.ProfileService
}

func NewProfileHandler(logger *zap.Logger, profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{logger: logger, profiles: profiles}
}

type educationRequest struct {
	Institution    string `json:"institution" binding:"required"`
	Specialization string `json:"specialization" binding:"required"`
	Degree         string `json:"degree"`
}

func (r educationRequest) input() service.EducationInput {
	return service.EducationInput{
		Institution:    r.Institution,
		Specialization: r.Specialization,
		Degree:         r.Degree,
	}
}

// Institutions maneja GET /educations/institutions?query=.
func (h *ProfileHandler) Institutions(c *gin.Context) {
	names, err := h.profiles.SearchInstitutions(c.Request.Context(), c.Query("query"))
	if err != nil {
		writeError(c, h.logger, "search institutions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"institutions": names})
}

// Educations maneja GET /educations del usuario autenticado.
func (h *ProfileHandler) Educations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	educations, err := h.profiles.ListEducations(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, "list educations", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"educations": educations})
}

// AddEducation maneja POST /educations.
func (h *ProfileHandler) AddEducation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req educationRequest
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, h.logger, "add education", err)
		return
	}
	education, err := h.profiles.AddEducation(c.Request.Context(), userID, req.input())
	if err != nil {
		writeError(c, h.logger, "add education", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"education": education})
}

// UpdateEducation maneja PATCH /educations/:id.
func (h *ProfileHandler) UpdateEducation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req educationRequest
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, h.logger, "update education", err)
		return
	}
	education, err := h.profiles.UpdateEducation(c.Request.Context(), userID, c.Param("id"), req.input())
	if err != nil {
		writeError(c, h.logger, "update education", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"education": education})
}

// DeleteEducation maneja DELETE /educations/:id.
func (h *ProfileHandler) DeleteEducation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.profiles.DeleteEducation(c.Request.Context(), userID, c.Param("id")); err != nil {
		writeError(c, h.logger, "delete education", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Socials maneja GET /socials.
func (h *ProfileHandler) Socials(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	socials, err := h.profiles.ListSocials(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, "list socials", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"socials": socials})
}

// AddSocial maneja POST /socials.
func (h *ProfileHandler) AddSocial(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		Network string `json:"network" binding:"required"`
		URL     string `json:"url" binding:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, h.logger, "add social", err)
		return
	}
	social, err := h.profiles.AddSocial(c.Request.Context(), userID, req.Network, req.URL)
	if err != nil {
		writeError(c, h.logger, "add social", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"social": social})
}

// UpdateSocial maneja PATCH /socials/:id.
func (h *ProfileHandler) UpdateSocial(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		URL string `json:"url" binding:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, h.logger, "update social", err)
		return
	}
	social, err := h.profiles.UpdateSocial(c.Request.Context(), userID, c.Param("id"), req.URL)
	if err != nil {
		writeError(c, h.logger, "update social", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"social": social})
}

// DeleteSocial maneja DELETE /socials/:id.
func (h *ProfileHandler) DeleteSocial(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.profiles.DeleteSocial(c.Request.Context(), userID, c.Param("id")); err != nil {
		writeError(c, h.logger, "delete social", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UserSkills maneja GET /users/:id/skills.
func (h *ProfileHandler) UserSkills(c *gin.Context) {
	skills, err := h.profiles.ListSkills(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "list skills", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"skills": skills})
}

// AddSkill maneja POST /skills.
func (h *ProfileHandler) AddSkill(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name" binding:"required"`
		Kind string `json:"kind" binding:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, h.logger, "add skill", err)
		return
	}
	skill, err := h.profiles.AddSkill(c.Request.Context(), userID, req.Name, req.Kind)
	if err != nil {
		writeError(c, h.logger, "add skill", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"skill": skill})
}

// DeleteSkill maneja DELETE /skills/:id.
func (h *ProfileHandler) DeleteSkill(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.profiles.DeleteSkill(c.Request.Context(), userID, c.Param("id")); err != nil {
		writeError(c, h.logger, "delete skill", err)
		return
	}
	c.Status(http.StatusNoContent)
}
