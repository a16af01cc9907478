package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sprintify-backend-go/internal/db"
	"sprintify-backend-go/internal/models"
	"sprintify-backend-go/internal/permission"
)

// UserLoader is the slice of db.UserRepository the role guard needs.
type UserLoader interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
}

// RequireFeature aborts with 403 unless the authenticated user's tier grants
// feature. It must run after AuthMiddleware.VerifyToken. The loaded profile
// is stored under "user" for handlers that need it.
func RequireFeature(users UserLoader, feature permission.Feature, logger *zap.Logger) gin.HandlerFunc {
	required, _ := permission.RequiredTier(feature)
	return func(c *gin.Context) {
		userID := c.GetString("userID")
		if userID == "" {
			abort(c, http.StatusUnauthorized, "User not authenticated")
			return
		}
		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				abort(c, http.StatusForbidden, "User profile not found")
				return
			}
			logger.Error("Failed to load user for permission check", zap.String("userID", userID), zap.Error(err))
			abort(c, http.StatusInternalServerError, "Failed to check permissions")
			return
		}
		if !permission.CanUseFeature(user, feature) {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Success: false,
				Error:   "Insufficient permissions",
				Message: "This feature requires " + string(required) + " access",
			})
			return
		}
		c.Set("user", user)
		c.Next()
	}
}
