package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sprintify-backend-go/internal/core"
	"sprintify-backend-go/internal/models"
)

// SprintHandler handles API endpoints related to sprints.
type SprintHandler struct {
	sprintService core.SprintService
	logger        *zap.Logger
}

// NewSprintHandler creates a new SprintHandler.
func NewSprintHandler(ss core.SprintService, logger *zap.Logger) *SprintHandler {
	return &SprintHandler{sprintService: ss, logger: logger}
}

// mapSprintErrorToStatus maps errors from the sprint, task, milestone and
// stats services to HTTP status codes. A version conflict answers 409 with
// the stored sprint as data.
func mapSprintErrorToStatus(c *gin.Context, logger *zap.Logger, err error) {
	if writeValidation(c, err) {
		return
	}
	var conflict *core.ConflictError
	switch {
	case errors.As(err, &conflict):
		c.Header("ETag", etag(conflict.Current.Version))
		c.JSON(http.StatusConflict, Response{
			Success: false,
			Data:    conflict.Current,
			Error:   core.ErrVersionConflict.Error(),
			Message: "Reload the sprint and apply your changes again",
		})
	case errors.Is(err, core.ErrSprintNotFound):
		respondError(c, http.StatusNotFound, core.ErrSprintNotFound.Error(), "")
	case errors.Is(err, core.ErrTaskNotFound):
		respondError(c, http.StatusNotFound, core.ErrTaskNotFound.Error(), "")
	case errors.Is(err, core.ErrMilestoneNotFound):
		respondError(c, http.StatusNotFound, core.ErrMilestoneNotFound.Error(), "")
	case errors.Is(err, core.ErrUserNotFound):
		respondError(c, http.StatusNotFound, "User profile not found", "Initialize your profile first")
	case errors.Is(err, core.ErrForbidden):
		respondError(c, http.StatusForbidden, core.ErrForbidden.Error(), err.Error())
	case errors.Is(err, core.ErrActiveSprintLimit):
		respondError(c, http.StatusForbidden, core.ErrActiveSprintLimit.Error(), err.Error())
	case errors.Is(err, core.ErrInvalidTransition):
		respondError(c, http.StatusConflict, core.ErrInvalidTransition.Error(), err.Error())
	case errors.Is(err, core.ErrVersionConflict):
		respondError(c, http.StatusConflict, core.ErrVersionConflict.Error(), "")
	case errors.Is(err, core.ErrDependencyCycle):
		respondError(c, http.StatusBadRequest, core.ErrDependencyCycle.Error(), err.Error())
	default:
		logger.Error("Internal Server Error", zap.String("path", c.Request.URL.Path), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "An unexpected internal server error occurred.", "")
	}
}

func etag(version int64) string {
	return `"` + strconv.FormatInt(version, 10) + `"`
}

// parseIfMatch reads the expected sprint version from If-Match. Quotes and a
// weak prefix are accepted. A missing header or "*" means no check.
func parseIfMatch(header string) (*int64, error) {
	v := strings.TrimSpace(header)
	if v == "" || v == "*" {
		return nil, nil
	}
	v = strings.TrimPrefix(v, "W/")
	v = strings.Trim(v, `"`)
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ListSprints handles GET /sprints?status&type&limit&offset.
func (h *SprintHandler) ListSprints(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var filter models.SprintFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid query parameters", err.Error())
		return
	}
	sprints, err := h.sprintService.ListSprints(c.Request.Context(), userID, filter)
	if err != nil {
		mapSprintErrorToStatus(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, sprints)
}

// CreateSprint handles POST /sprints.
func (h *SprintHandler) CreateSprint(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.CreateSprintRequest
	if !bindJSON(c, &req) {
		return
	}
	sprint, err := h.sprintService.CreateSprint(c.Request.Context(), userID, req)
	if err != nil {
		mapSprintErrorToStatus(c, h.logger, err)
		return
	}
	c.Header("ETag", etag(sprint.Version))
	respond(c, http.StatusCreated, sprint)
}

// GetSprint handles GET /sprints/:id.
func (h *SprintHandler) GetSprint(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sprint, err := h.sprintService.GetSprint(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		mapSprintErrorToStatus(c, h.logger, err)
		return
	}
	c.Header("ETag", etag(sprint.Version))
	respond(c, http.StatusOK, sprint)
}

// UpdateSprint handles PUT /sprints/:id. If-Match carries the version the
// client last saw.
func (h *SprintHandler) UpdateSprint(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	expected, err := parseIfMatch(c.GetHeader("If-Match"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid If-Match header", "Expected a sprint version number")
		return
	}
	var req models.UpdateSprintRequest
	if !bindJSON(c, &req) {
		return
	}
	sprint, err := h.sprintService.UpdateSprint(c.Request.Context(), userID, c.Param("id"), req, expected)
	if err != nil {
		mapSprintErrorToStatus(c, h.logger, err)
		return
	}
	c.Header("ETag", etag(sprint.Version))
	respond(c, http.StatusOK, sprint)
}

// DeleteSprint handles DELETE /sprints/:id.
func (h *SprintHandler) DeleteSprint(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.sprintService.DeleteSprint(c.Request.Context(), userID, c.Param("id")); err != nil {
		mapSprintErrorToStatus(c, h.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, "Sprint deleted")
}

// DeleteSprints handles DELETE /sprints with body {sprintIds}.
func (h *SprintHandler) DeleteSprints(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.BatchDeleteSprintsRequest
	if !bindJSON(c, &req) {
		return
	}
	n, err := h.sprintService.DeleteSprints(c.Request.Context(), userID, req.SprintIDs)
	if err != nil {
		mapSprintErrorToStatus(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, DeleteSprintsResponse{Deleted: n})
}

func (h *SprintHandler) StartSprint(c *gin.Context) {
	h.transition(c, h.sprintService.StartSprint)
}

func (h *SprintHandler) PauseSprint(c *gin.Context) {
	h.transition(c, h.sprintService.PauseSprint)
}

func (h *SprintHandler) CompleteSprint(c *gin.Context) {
	h.transition(c, h.sprintService.CompleteSprint)
}

type transitionFunc func(ctx context.Context, userID, sprintID string) (*models.Sprint, error)

func (h *SprintHandler) transition(c *gin.Context, fn transitionFunc) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sprint, err := fn(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		mapSprintErrorToStatus(c, h.logger, err)
		return
	}
	c.Header("ETag", etag(sprint.Version))
	respond(c, http.StatusOK, sprint)
}

// Countdown handles GET /sprints/:id/countdown.
func (h *SprintHandler) Countdown(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	countdown, err := h.sprintService.Countdown(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		mapSprintErrorToStatus(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, countdown)
}
