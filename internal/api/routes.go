package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sprintify-backend-go/internal/core"
	"sprintify-backend-go/internal/middleware"
	"sprintify-backend-go/internal/permission"
)

// Services bundles the core services the handlers depend on.
type Services struct {
	Users         core.UserService
	Sprints       core.SprintService
	Tasks         core.TaskService
	Upgrades      core.UpgradeService
	Stats         core.StatsService
	Templates     core.TemplateService
	Notifications core.NotificationService
}

// SetupRoutes configures all the application routes with their handlers and middleware.
// Global middleware (request ID, logging, recovery, CORS) is applied to router by the caller.
// profiles backs the role guard on admin and premium routes.
func SetupRoutes(
	router *gin.Engine,
	logger *zap.Logger,
	verifier middleware.TokenVerifier,
	profiles middleware.UserLoader,
	svc Services,
) {
	authMW := middleware.NewAuthMiddleware(verifier, logger)
	requireAdmin := middleware.RequireFeature(profiles, permission.FeatureUserManagement, logger)
	requireReviewer := middleware.RequireFeature(profiles, permission.FeatureUpgradeReview, logger)
	requireStats := middleware.RequireFeature(profiles, permission.FeatureAdvancedStats, logger)

	authHandler := NewAuthHandler(svc.Users, logger)
	userHandler := NewUserHandler(svc.Users, logger)
	sprintHandler := NewSprintHandler(svc.Sprints, logger)
	taskHandler := NewTaskHandler(svc.Tasks, logger)
	upgradeHandler := NewUpgradeHandler(svc.Upgrades, logger)
	statsHandler := NewStatsHandler(svc.Stats, svc.Templates, logger)
	notificationHandler := NewNotificationHandler(svc.Notifications, logger)

	apiV1 := router.Group("/api/v1", authMW.VerifyToken())
	{
		auth := apiV1.Group("/auth")
		{
			auth.POST("/setup-first-admin", authHandler.SetupFirstAdmin)
		}

		users := apiV1.Group("/users")
		{
			users.POST("/initialize", authHandler.InitializeUserProfile)
			users.GET("/me", userHandler.GetCurrentUserProfile)
			users.PUT("/me", userHandler.UpdateCurrentUserProfile)
			users.POST("/me/fcm-tokens", userHandler.RegisterDevice)
			users.DELETE("/me/fcm-tokens", userHandler.UnregisterDevice)
			users.GET("", requireAdmin, userHandler.ListUsers)
		}

		sprints := apiV1.Group("/sprints")
		{
			sprints.GET("", sprintHandler.ListSprints)
			sprints.POST("", sprintHandler.CreateSprint)
			sprints.DELETE("", sprintHandler.DeleteSprints)
			sprints.GET("/:id", sprintHandler.GetSprint)
			sprints.PUT("/:id", sprintHandler.UpdateSprint)
			sprints.DELETE("/:id", sprintHandler.DeleteSprint)
			sprints.POST("/:id/start", sprintHandler.StartSprint)
			sprints.POST("/:id/pause", sprintHandler.PauseSprint)
			sprints.POST("/:id/complete", sprintHandler.CompleteSprint)
			sprints.GET("/:id/countdown", sprintHandler.Countdown)

			sprints.GET("/:id/tasks", taskHandler.ListTasks)
			sprints.POST("/:id/tasks", taskHandler.CreateTask)
			sprints.PUT("/:id/tasks/:taskId", taskHandler.UpdateTask)
			sprints.DELETE("/:id/tasks/:taskId", taskHandler.DeleteTask)

			sprints.GET("/:id/milestones", taskHandler.ListMilestones)
			sprints.POST("/:id/milestones", taskHandler.CreateMilestone)
			sprints.PUT("/:id/milestones/:milestoneId", taskHandler.UpdateMilestone)
			sprints.DELETE("/:id/milestones/:milestoneId", taskHandler.DeleteMilestone)
		}

		stats := apiV1.Group("/stats")
		{
			stats.GET("/heatmap", statsHandler.Heatmap)
			stats.GET("/progress", requireStats, statsHandler.Progress)
		}

		templates := apiV1.Group("/templates")
		{
			templates.GET("", statsHandler.ListTemplates)
			templates.GET("/:id/recommendations", statsHandler.Recommendations)
		}

		upgrades := apiV1.Group("/upgrade-requests")
		{
			upgrades.GET("", requireReviewer, upgradeHandler.ListRequests)
			upgrades.POST("", upgradeHandler.CreateRequest)
			upgrades.GET("/my-status", upgradeHandler.MyStatus)
			upgrades.POST("/:id/review", requireReviewer, upgradeHandler.Review)
			upgrades.DELETE("/:id", upgradeHandler.DeleteRequest)
		}

		apiV1.POST("/notifications/snooze", notificationHandler.Snooze)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Sprintify backend is healthy."})
	})

	logger.Info("API routes configured successfully under /api/v1 and /health.")
}
