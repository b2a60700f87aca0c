package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"collabhub/internal/service"
)

// BoardHandler expone tableros, columnas y tareas.
type BoardHandler struct {
	logger *zap.Logger
	boards *service.BoardService
	tasks  *service.TaskService
}

func NewBoardHandler(logger *zap.Logger, boards *service.BoardService, tasks *service.TaskService) *BoardHandler {
	return &BoardHandler{logger: logger, boards: boards, tasks: tasks}
}

// GetBoard maneja GET /boards/:id con columnas y tareas.
func (h *BoardHandler) GetBoard(c *gin.Context) {
	board, err := h.boards.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "get board", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"board": board})
}

// ProjectBoards maneja GET /projects/:id/boards.
func (h *BoardHandler) ProjectBoards(c *gin.Context) {
	boards, err := h.boards.ListByProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "list boards", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"boards": boards})
}

// CreateBoard maneja POST /boards.
func (h *BoardHandler) CreateBoard(c *gin.Context) {
	var req struct {
		ProjectID string `json:"projectId" binding:"required"`
		Name      string `json:"boardName" binding:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, h.logger, "create board", err)
		return
	}
	board, err := h.boards.Create(c.Request.Context(), req.ProjectID, req.Name)
	if err != nil {
		writeError(c, h.logger, "create board", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"board": board})
}

// RenameBoard maneja PATCH /boards/:id.
func (h *BoardHandler) RenameBoard(c *gin.Context) {
	var req struct {
		Name string `json:"boardName" binding:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, h.logger, "rename board", err)
		return
	}
	board, err := h.boards.Rename(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		writeError(c, h.logger, "rename board", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"board": board})
}

// DeleteBoard maneja DELETE /boards/:id.
func (h *BoardHandler) DeleteBoard(c *gin.Context) {
	if err := h.boards.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.logger, "delete board", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateStatus maneja POST /task-statuses.
func (h *BoardHandler) CreateStatus(c *gin.Context) {
	var req struct {
		BoardID string `json:"boardId" binding:"required"`
		Name    string `json:"statusName" binding:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, h.logger, "create task status", err)
		return
	}
	status, err := h.boards.CreateStatus(c.Request.Context(), req.BoardID, req.Name)
	if err != nil {
		writeError(c, h.logger, "create task status", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"taskStatus": status})
}

// RenameStatus maneja PATCH /task-statuses/:id.
func (h *BoardHandler) RenameStatus(c *gin.Context) {
	var req struct {
		Name string `json:"statusName" binding:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, h.logger, "rename task status", err)
		return
	}
	status, err := h.boards.RenameStatus(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		writeError(c, h.logger, "rename task status", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"taskStatus": status})
}

// DeleteStatus maneja DELETE /task-statuses/:id; sólo columnas vacías.
func (h *BoardHandler) DeleteStatus(c *gin.Context) {
	if err := h.boards.DeleteStatus(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.logger, "delete task status", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateTask maneja POST /tasks.
func (h *BoardHandler) CreateTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		Name        string    `json:"taskName" binding:"required"`
		Description string    `json:"description" binding:"required"`
		Priority    string    `json:"priority" binding:"required"`
		Deadline    time.Time `json:"deadline" binding:"required"`
		StatusID    string    `json:"taskStatusId" binding:"required"`
		AssigneeID  *string   `json:"assigneeId"`
	}
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, h.logger, "create task", err)
		return
	}
	task, err := h.tasks.Create(c.Request.Context(), userID, service.CreateTaskInput{
		Name:        req.Name,
		Description: req.Description,
		Priority:    req.Priority,
		Deadline:    req.Deadline,
		StatusID:    req.StatusID,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		writeError(c, h.logger, "create task", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": task})
}

// GetTask maneja GET /tasks/:id.
func (h *BoardHandler) GetTask(c *gin.Context) {
	task, err := h.tasks.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "get task", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// UpdateTask maneja PATCH /tasks/:id; assigneeId null quita el responsable.
func (h *BoardHandler) UpdateTask(c *gin.Context) {
	var req struct {
		Name        *string         `json:"taskName"`
		Description *string         `json:"description"`
		Priority    *string         `json:"priority"`
		Deadline    *time.Time      `json:"deadline"`
		AssigneeID  json.RawMessage `json:"assigneeId"`
	}
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, h.logger, "update task", err)
		return
	}
	input := service.UpdateTaskInput{
		Name:        req.Name,
		Description: req.Description,
		Priority:    req.Priority,
		Deadline:    req.Deadline,
	}
	switch {
	case len(req.AssigneeID) == 0:
	case bytes.Equal(req.AssigneeID, []byte("null")):
		input.ClearAssignee = true
	default:
		var assignee string
		if err := json.Unmarshal(req.AssigneeID, &assignee); err != nil {
			badRequest(c, h.logger, "update task", err)
			return
		}
		input.AssigneeID = &assignee
	}

	task, err := h.tasks.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		writeError(c, h.logger, "update task", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// MoveTask maneja PATCH /tasks/:id/status.
func (h *BoardHandler) MoveTask(c *gin.Context) {
	var req struct {
		StatusID string `json:"taskStatusId" binding:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, h.logger, "move task", err)
		return
	}
	task, err := h.tasks.MoveStatus(c.Request.Context(), c.Param("id"), req.StatusID)
	if err != nil {
		writeError(c, h.logger, "move task", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// DeleteTask maneja DELETE /tasks/:id.
func (h *BoardHandler) DeleteTask(c *gin.Context) {
	if err := h.tasks.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.logger, "delete task", err)
		return
	}
	c.Status(http.StatusNoContent)
}
