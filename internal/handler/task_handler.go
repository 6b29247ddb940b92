package handler

import (
	"net/http"
	"strings"
	"time"

	"studyboard/internal/apperr"
	"studyboard/internal/model"
	"studyboard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TaskHandler struct {
	svc *service.Lifecycle
}

func NewTaskHandler(svc *service.Lifecycle) *TaskHandler {
	return &TaskHandler{svc: svc}
}

type CreateTaskRequest struct {
	Title       string   `json:"title" binding:"required,notblank,max=200"`
	Description string   `json:"description"`
	Priority    string   `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     string   `json:"due_date"`
	Attachments []string `json:"attachments"`
}

// UpdateTaskRequest mirrors the edit form. An empty due_date or attachment
// list leaves the stored value as it is; an absent completed means false.
type UpdateTaskRequest struct {
	Title       *string    `json:"title" binding:"omitempty,notblank,max=200"`
	Description *string    `json:"description"`
	Priority    *string    `json:"priority" binding:"omitempty,oneof=low medium high"`
	Completed   *bool      `json:"completed"`
	DueDate     string     `json:"due_date"`
	Attachments []string   `json:"attachments"`
	ListID      *uuid.UUID `json:"list_id"`
}

type MoveTaskRequest struct {
	ListID uuid.UUID `json:"list_id" binding:"required"`
}

// parseDueDate accepts RFC 3339 timestamps and plain dates. Blank means
// no date.
func parseDueDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, apperr.Validation("due_date must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
}

// GetByBoard godoc
// @Summary      List the tasks of a board
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Board ID"
// @Success      200  {array}  model.Task
// @Router       /boards/{id}/tasks [get]
func (h *TaskHandler) GetByBoard(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	boardID, ok := paramID(c, "id")
	if !ok {
		return
	}

	tasks, err := h.svc.ListTasks(c.Request.Context(), owner, boardID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// Create godoc
// @Summary      Append a task to a list
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string             true  "List ID"
// @Param        task  body  CreateTaskRequest  true  "Task"
// @Success      201  {object}  model.Task
// @Router       /lists/{id}/tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	listID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	due, err := parseDueDate(req.DueDate)
	if err != nil {
		respondError(c, err)
		return
	}

	task, err := h.svc.CreateTask(c.Request.Context(), owner, listID, service.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    model.Priority(req.Priority),
		DueDate:     due,
		Attachments: req.Attachments,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// Update godoc
// @Summary      Edit a task
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string             true  "Task ID"
// @Param        task  body  UpdateTaskRequest  true  "Task"
// @Success      200  {object}  model.Task
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	taskID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req UpdateTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	due, err := parseDueDate(req.DueDate)
	if err != nil {
		respondError(c, err)
		return
	}

	update := service.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
		DueDate:     due,
		Attachments: req.Attachments,
		ListID:      req.ListID,
	}
	if req.Priority != nil {
		p := model.Priority(*req.Priority)
		update.Priority = &p
	}

	task, err := h.svc.UpdateTask(c.Request.Context(), owner, taskID, update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	taskID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteTask(c.Request.Context(), owner, taskID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Toggle godoc
// @Summary      Flip a task's completed flag
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Task ID"
// @Success      200  {object}  model.Task
// @Router       /tasks/{id}/toggle [post]
func (h *TaskHandler) Toggle(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	taskID, ok := paramID(c, "id")
	if !ok {
		return
	}

	task, err := h.svc.ToggleTaskCompletion(c.Request.Context(), owner, taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Move godoc
// @Summary      Move a task to the end of another list
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string           true  "Task ID"
// @Param        move  body  MoveTaskRequest  true  "Target list"
// @Success      200  {object}  model.Task
// @Router       /tasks/{id}/move [post]
func (h *TaskHandler) Move(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	taskID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req MoveTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.svc.MoveTask(c.Request.Context(), owner, taskID, req.ListID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}
