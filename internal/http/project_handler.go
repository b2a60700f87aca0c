package http

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"collabhub/internal/domain"
	"collabhub/internal/service"
)

const maxLogoForm = 6 << 20

// ProjectHandler agrupa proyectos, roles de proyecto y documentos.
type ProjectHandler struct {
	logger    *zap.Logger
	projects  *service.ProjectService
	roles     *service.ProjectRoleService
	documents *service.DocumentService
}

func NewProjectHandler(
	logger *zap.Logger,
	projects *service.ProjectService,
	roles *service.ProjectRoleService,
	documents *service.DocumentService,
) *ProjectHandler {
	return &ProjectHandler{logger: logger, projects: projects, roles: roles, documents: documents}
}

// Categories maneja GET /projects/categories.
func (h *ProjectHandler) Categories(c *gin.Context) {
	categories, err := h.projects.ListCategories(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, "list categories", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// RoleTypes maneja GET /projects/roles.
func (h *ProjectHandler) RoleTypes(c *gin.Context) {
	roles, err := h.projects.ListRoleTypes(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, "list role types", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roles": roles})
}

// List maneja GET /projects con filtros y paginación.
func (h *ProjectHandler) List(c *gin.Context) {
	page, limit := pagination(c)
	filter := domain.ProjectFilter{
		Status:     strings.TrimSpace(c.Query("status")),
		CategoryID: strings.TrimSpace(c.Query("categoryId")),
		Page:       page,
		Limit:      limit,
	}
	var err error
	if filter.MinParticipants, err = optionalInt(c, "minParticipants"); err != nil {
		badRequest(c, h.logger, "list projects", err)
		return
	}
	if filter.MaxParticipants, err = optionalInt(c, "maxParticipants"); err != nil {
		badRequest(c, h.logger, "list projects", err)
		return
	}

	projects, total, err := h.projects.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, h.logger, "list projects", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects, "total": total, "page": page, "limit": limit})
}

// Get maneja GET /projects/:id.
func (h *ProjectHandler) Get(c *gin.Context) {
	project, err := h.projects.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "get project", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}

// Create maneja POST /projects como multipart con logo opcional.
func (h *ProjectHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxLogoForm)

	input := service.CreateProjectInput{
		Name:        c.PostForm("projectName"),
		Description: c.PostForm("description"),
		CategoryID:  c.PostForm("categoryId"),
	}
	if raw := strings.TrimSpace(c.PostForm("roles")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &input.Roles); err != nil {
			badRequest(c, h.logger, "create project", err)
			return
		}
	}

	if header, err := c.FormFile("logo"); err == nil {
		file, err := header.Open()
		if err != nil {
			badRequest(c, h.logger, "create project", err)
			return
		}
		defer file.Close()
		logo := logoFile(header, file)
		input.Logo = &logo
	} else if !errors.Is(err, http.ErrMissingFile) {
		badRequest(c, h.logger, "create project", err)
		return
	}

	project, err := h.projects.Create(c.Request.Context(), userID, input)
	if err != nil {
		writeError(c, h.logger, "create project", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"project": project})
}

// Update maneja PATCH /projects/:id.
func (h *ProjectHandler) Update(c *gin.Context) {
	var req struct {
		Name        *string `json:"projectName"`
		Description *string `json:"description"`
		CategoryID  *string `json:"categoryId"`
	}
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, h.logger, "update project", err)
		return
	}
	project, err := h.projects.Update(c.Request.Context(), c.Param("id"), service.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		writeError(c, h.logger, "update project", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}

// UpdateStatus maneja PATCH /projects/:id/status.
func (h *ProjectHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, h.logger, "update project status", err)
		return
	}
	project, err := h.projects.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		writeError(c, h.logger, "update project status", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}

// UpdateLogo maneja PUT /projects/:id/logo.
func (h *ProjectHandler) UpdateLogo(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxLogoForm)
	header, err := c.FormFile("logo")
	if err != nil {
		badRequest(c, h.logger, "update logo", err)
		return
	}
	file, err := header.Open()
	if err != nil {
		badRequest(c, h.logger, "update logo", err)
		return
	}
	defer file.Close()

	project, err := h.projects.UpdateLogo(c.Request.Context(), c.Param("id"), logoFile(header, file))
	if err != nil {
		writeError(c, h.logger, "update logo", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}

// Delete maneja DELETE /projects/:id.
func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.projects.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.logger, "delete project", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateRole maneja POST /project-roles.
func (h *ProjectHandler) CreateRole(c *gin.Context) {
	var req struct {
		ProjectID  string `json:"projectId" binding:"required"`
		RoleTypeID string `json:"roleTypeId" binding:"required"`
		Slots      int    `json:"slots"`
	}
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, h.logger, "create project role", err)
		return
	}
	role, err := h.roles.Create(c.Request.Context(), req.ProjectID, req.RoleTypeID, req.Slots)
	if err != nil {
		writeError(c, h.logger, "create project role", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"role": role})
}

// DeleteRole maneja DELETE /project-roles/:id.
func (h *ProjectHandler) DeleteRole(c *gin.Context) {
	if err := h.roles.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.logger, "delete project role", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Documents maneja GET /projects/:id/documents.
func (h *ProjectHandler) Documents(c *gin.Context) {
	docs, err := h.documents.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "list documents", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// CreateDocument maneja POST /documents.
func (h *ProjectHandler) CreateDocument(c *gin.Context) {
	var req struct {
		ProjectID string `json:"projectId" binding:"required"`
		Name      string `json:"documentName" binding:"required"`
		URL       string `json:"url" binding:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, h.logger, "create document", err)
		return
	}
	doc, err := h.documents.Create(c.Request.Context(), req.ProjectID, req.Name, req.URL)
	if err != nil {
		writeError(c, h.logger, "create document", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"document": doc})
}

// UpdateDocument maneja PUT /documents/:id.
func (h *ProjectHandler) UpdateDocument(c *gin.Context) {
	var req struct {
		Name string `json:"documentName" binding:"required"`
		URL  string `json:"url" binding:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, h.logger, "update document", err)
		return
	}
	doc, err := h.documents.Update(c.Request.Context(), c.Param("id"), req.Name, req.URL)
	if err != nil {
		writeError(c, h.logger, "update document", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": doc})
}

// DeleteDocument maneja DELETE /documents/:projectId/:id.
func (h *ProjectHandler) DeleteDocument(c *gin.Context) {
	if err := h.documents.Delete(c.Request.Context(), c.Param("projectId"), c.Param("id")); err != nil {
		writeError(c, h.logger, "delete document", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func logoFile(header *multipart.FileHeader, file multipart.File) service.LogoFile {
	return service.LogoFile{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
}

func optionalInt(c *gin.Context, key string) (*int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
