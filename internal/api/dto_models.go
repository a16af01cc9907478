package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"sprintify-backend-go/internal/core"
)

// Response is the envelope of every API response.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// DeleteSprintsResponse is the data of DELETE /sprints.
type DeleteSprintsResponse struct {
	Deleted int `json:"deleted"`
}

// SnoozeRequest is the body of POST /notifications/snooze.
type SnoozeRequest struct {
	Type     string `json:"type" binding:"required"`
	Title    string `json:"title" binding:"required"`
	Body     string `json:"body"`
	Image    string `json:"image,omitempty"`
	SprintID string `json:"sprintId,omitempty"`
	TaskID   string `json:"taskId,omitempty"`
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, Response{Success: true, Message: message})
}

func respondError(c *gin.Context, status int, errMsg, message string) {
	c.JSON(status, Response{Success: false, Error: errMsg, Message: message})
}

// currentUserID reads the UID set by the auth middleware and answers 401 when it is missing.
func currentUserID(c *gin.Context) (string, bool) {
	raw, exists := c.Get("userID")
	if !exists {
		respondError(c, http.StatusUnauthorized, "User ID not found in context", "")
		return "", false
	}
	userID, ok := raw.(string)
	if !ok || userID == "" {
		respondError(c, http.StatusUnauthorized, "Invalid user ID in context", "")
		return "", false
	}
	return userID, true
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return false
	}
	return true
}

// writeValidation answers 400 with the problems joined into the message.
// It reports false when err is not a validation error.
func writeValidation(c *gin.Context, err error) bool {
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	respondError(c, http.StatusBadRequest, "Validation failed", strings.Join(verr.Problems, "; "))
	return true
}
