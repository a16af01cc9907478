package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sprintify-backend-go/internal/core"
	"sprintify-backend-go/internal/models"
)

// UserHandler handles user-profile related API endpoints.
type UserHandler struct {
	userService core.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(us core.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{userService: us, logger: logger}
}

func mapUserErrorToStatus(c *gin.Context, logger *zap.Logger, err error) {
	if writeValidation(c, err) {
		return
	}
	switch {
	case errors.Is(err, core.ErrUserNotFound):
		respondError(c, http.StatusNotFound, "User profile not found", "")
	case errors.Is(err, core.ErrForbidden):
		respondError(c, http.StatusForbidden, "Insufficient permissions", err.Error())
	case errors.Is(err, core.ErrAdminExists):
		respondError(c, http.StatusConflict, core.ErrAdminExists.Error(), "")
	default:
		logger.Error("Internal Server Error", zap.String("path", c.Request.URL.Path), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "An unexpected internal server error occurred.", "")
	}
}

// GetCurrentUserProfile handles GET /api/v1/users/me.
func (h *UserHandler) GetCurrentUserProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		mapUserErrorToStatus(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, user)
}

// UpdateCurrentUserProfile handles PUT /api/v1/users/me.
func (h *UserHandler) UpdateCurrentUserProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		mapUserErrorToStatus(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, user)
}

// ListUsers handles GET /api/v1/users?userType&limit. Admin only.
func (h *UserHandler) ListUsers(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "Invalid limit", err.Error())
			return
		}
		limit = n
	}
	users, err := h.userService.ListUsers(c.Request.Context(), userID, models.UserType(c.Query("userType")), limit)
	if err != nil {
		mapUserErrorToStatus(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, users)
}

// RegisterDevice handles POST /api/v1/users/me/fcm-tokens.
func (h *UserHandler) RegisterDevice(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.FCMTokenRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.userService.RegisterDevice(c.Request.Context(), userID, req.Token); err != nil {
		mapUserErrorToStatus(c, h.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, "Device registered")
}

// UnregisterDevice handles DELETE /api/v1/users/me/fcm-tokens.
func (h *UserHandler) UnregisterDevice(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.FCMTokenRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.userService.UnregisterDevice(c.Request.Context(), userID, req.Token); err != nil {
		mapUserErrorToStatus(c, h.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, "Device unregistered")
}
