package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sprintify-backend-go/internal/core"
)

// AuthHandler handles profile bootstrap and first-admin setup.
type AuthHandler struct {
	userService core.UserService
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(us core.UserService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{userService: us, logger: logger}
}

// InitializeUserProfile handles POST /api/v1/users/initialize. It is called by
// the client after sign-in so that a profile exists for the Firebase UID.
// New profiles answer 201, existing ones 200.
func (h *AuthHandler) InitializeUserProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	email := c.GetString("userEmail")
	if email == "" {
		h.logger.Warn("userEmail not found in context", zap.String("userID", userID))
	}

	user, created, err := h.userService.GetOrCreate(c.Request.Context(), userID, email, c.GetString("userDisplayName"), c.GetString("userPhotoURL"))
	if err != nil {
		mapUserErrorToStatus(c, h.logger, err)
		return
	}
	if created {
		respond(c, http.StatusCreated, user)
		return
	}
	respond(c, http.StatusOK, user)
}

// SetupFirstAdmin handles POST /api/v1/auth/setup-first-admin.
func (h *AuthHandler) SetupFirstAdmin(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	user, err := h.userService.SetupFirstAdmin(c.Request.Context(), userID)
	if err != nil {
		mapUserErrorToStatus(c, h.logger, err)
		return
	}
	h.logger.Info("First admin promoted", zap.String("userID", userID))
	c.JSON(http.StatusOK, Response{Success: true, Data: user, Message: "You are now the administrator"})
}
