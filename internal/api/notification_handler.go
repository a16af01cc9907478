package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sprintify-backend-go/internal/core"
	"sprintify-backend-go/internal/models"
)

type NotificationHandler struct {
	notificationService core.NotificationService
	logger              *zap.Logger
}

func NewNotificationHandler(ns core.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notificationService: ns, logger: logger}
}

// Snooze handles POST /notifications/snooze, sent by the service worker when
// the user taps the snooze action.
func (h *NotificationHandler) Snooze(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req SnoozeRequest
	if !bindJSON(c, &req) {
		return
	}
	job, err := h.notificationService.Snooze(c.Request.Context(), userID, models.NotificationJob{
		Type:     models.NotificationType(req.Type),
		Title:    req.Title,
		Body:     req.Body,
		Image:    req.Image,
		SprintID: req.SprintID,
		TaskID:   req.TaskID,
	})
	if err != nil {
		mapUserErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusAccepted, Response{Success: true, Data: job, Message: "Reminder snoozed"})
}
