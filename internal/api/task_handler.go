package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sprintify-backend-go/internal/core"
	"sprintify-backend-go/internal/models"
)

// TaskHandler handles tasks and milestones nested under a sprint.
// Errors go through mapSprintErrorToStatus.
type TaskHandler struct {
	taskService core.TaskService
	logger      *zap.Logger
}

func NewTaskHandler(ts core.TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{taskService: ts, logger: logger}
}

// ListTasks handles GET /sprints/:id/tasks.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	tasks, err := h.taskService.ListTasks(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		mapSprintErrorToStatus(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, tasks)
}

// CreateTask handles POST /sprints/:id/tasks.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	task, err := h.taskService.CreateTask(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		mapSprintErrorToStatus(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, task)
}

// UpdateTask handles PUT /sprints/:id/tasks/:taskId.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.UpdateTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	task, err := h.taskService.UpdateTask(c.Request.Context(), userID, c.Param("id"), c.Param("taskId"), req)
	if err != nil {
		mapSprintErrorToStatus(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, task)
}

// DeleteTask handles DELETE /sprints/:id/tasks/:taskId.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.taskService.DeleteTask(c.Request.Context(), userID, c.Param("id"), c.Param("taskId")); err != nil {
		mapSprintErrorToStatus(c, h.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, "Task deleted")
}

func (h *TaskHandler) ListMilestones(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	milestones, err := h.taskService.ListMilestones(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		mapSprintErrorToStatus(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, milestones)
}

func (h *TaskHandler) CreateMilestone(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.CreateMilestoneRequest
	if !bindJSON(c, &req) {
		return
	}
	milestone, err := h.taskService.CreateMilestone(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		mapSprintErrorToStatus(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, milestone)
}

func (h *TaskHandler) UpdateMilestone(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.UpdateMilestoneRequest
	if !bindJSON(c, &req) {
		return
	}
	milestone, err := h.taskService.UpdateMilestone(c.Request.Context(), userID, c.Param("id"), c.Param("milestoneId"), req)
	if err != nil {
		mapSprintErrorToStatus(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, milestone)
}

func (h *TaskHandler) DeleteMilestone(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.taskService.DeleteMilestone(c.Request.Context(), userID, c.Param("id"), c.Param("milestoneId")); err != nil {
		mapSprintErrorToStatus(c, h.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, "Milestone deleted")
}
