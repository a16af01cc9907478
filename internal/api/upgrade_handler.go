package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sprintify-backend-go/internal/core"
	"sprintify-backend-go/internal/models"
)

// UpgradeHandler handles upgrade request endpoints.
type UpgradeHandler struct {
	upgradeService core.UpgradeService
	logger         *zap.Logger
}

// NewUpgradeHandler creates a new UpgradeHandler.
func NewUpgradeHandler(us core.UpgradeService, logger *zap.Logger) *UpgradeHandler {
	return &UpgradeHandler{upgradeService: us, logger: logger}
}

func mapUpgradeErrorToStatus(c *gin.Context, logger *zap.Logger, err error) {
	if writeValidation(c, err) {
		return
	}
	switch {
	case errors.Is(err, core.ErrUpgradeNotFound):
		respondError(c, http.StatusNotFound, core.ErrUpgradeNotFound.Error(), "")
	case errors.Is(err, core.ErrUserNotFound):
		respondError(c, http.StatusNotFound, "User profile not found", "Initialize your profile first")
	case errors.Is(err, core.ErrForbidden):
		respondError(c, http.StatusForbidden, "Insufficient permissions", err.Error())
	case errors.Is(err, core.ErrPendingRequestExists):
		respondError(c, http.StatusConflict, core.ErrPendingRequestExists.Error(), "Wait for the current request to be reviewed")
	case errors.Is(err, core.ErrRequestAlreadyReviewed):
		respondError(c, http.StatusConflict, core.ErrRequestAlreadyReviewed.Error(), "")
	default:
		logger.Error("Internal Server Error", zap.String("path", c.Request.URL.Path), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "An unexpected internal server error occurred.", "")
	}
}

// ListRequests handles GET /upgrade-requests?status. Admin only.
func (h *UpgradeHandler) ListRequests(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	requests, err := h.upgradeService.ListRequests(c.Request.Context(), userID, models.UpgradeStatus(c.Query("status")))
	if err != nil {
		mapUpgradeErrorToStatus(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, requests)
}

// CreateRequest handles POST /upgrade-requests.
func (h *UpgradeHandler) CreateRequest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.CreateUpgradeRequestRequest
	if !bindJSON(c, &req) {
		return
	}
	request, err := h.upgradeService.CreateRequest(c.Request.Context(), userID, req)
	if err != nil {
		mapUpgradeErrorToStatus(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, request)
}

// MyStatus handles GET /upgrade-requests/my-status. Data is null when the
// caller never asked for an upgrade.
func (h *UpgradeHandler) MyStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	request, err := h.upgradeService.MyStatus(c.Request.Context(), userID)
	if err != nil {
		mapUpgradeErrorToStatus(c, h.logger, err)
		return
	}
	if request == nil {
		respondMessage(c, http.StatusOK, "No upgrade request found")
		return
	}
	respond(c, http.StatusOK, request)
}

// Review handles POST /upgrade-requests/:id/review. Admin only.
func (h *UpgradeHandler) Review(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.ReviewUpgradeRequestRequest
	if !bindJSON(c, &req) {
		return
	}
	request, err := h.upgradeService.Review(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		mapUpgradeErrorToStatus(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, request)
}

// DeleteRequest handles DELETE /upgrade-requests/:id.
func (h *UpgradeHandler) DeleteRequest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.upgradeService.DeleteRequest(c.Request.Context(), userID, c.Param("id")); err != nil {
		mapUpgradeErrorToStatus(c, h.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, "Upgrade request deleted")
}
