package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sprintify-backend-go/internal/api"
	"sprintify-backend-go/internal/app"
	"sprintify-backend-go/internal/cache"
	"sprintify-backend-go/internal/config"
	"sprintify-backend-go/internal/core"
	"sprintify-backend-go/internal/middleware"
	"sprintify-backend-go/internal/notify"
	"sprintify-backend-go/internal/templates"
)

func newLogger(ginMode string) (*zap.Logger, error) {
	if strings.EqualFold(ginMode, "release") {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func main() {
	// --- 1. Load Application Configuration ---
	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}

	// --- 2. Initialize Logger (Zap) ---
	zapLogger, err := newLogger(appConfig.GinMode)
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger.Info("Application configuration loaded", zap.String("storage", appConfig.StorageDriver))

	if appConfig.FirebaseProjectID == "" {
		zapLogger.Fatal("CRITICAL_ERROR: FIREBASE_PROJECT_ID is required to verify ID tokens")
	}

	// --- 3. Open storage, cache, queue, push and mail ---
	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInitCtx()
	infra, err := app.Open(initCtx, appConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize backing services", zap.Error(err))
	}
	defer infra.Close(zapLogger)

	catalog := templates.Default()
	if appConfig.TemplateCatalogPath != "" {
		catalog, err = templates.Load(appConfig.TemplateCatalogPath)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to load sprint template catalog", zap.Error(err))
		}
	}

	// --- 4. Repositories ---
	repos := infra.Repos
	cachedUsers := cache.NewCachedUserRepository(repos.Users, infra.Cache, appConfig.CacheTTL, zapLogger)
	publisher := notify.NewQueuePublisher(infra.Queue, appConfig.NotificationQueue)

	// --- 5. Services ---
	auditService := core.NewAuditService(repos.Audit)
	svc := api.Services{
		Users: core.NewUserService(cachedUsers, auditService, zapLogger),
		Sprints: core.NewSprintService(repos.Sprints, repos.Tasks, repos.Milestones, cachedUsers,
			catalog, publisher, auditService, zapLogger),
		Tasks: core.NewTaskService(repos.Sprints, repos.Tasks, repos.Milestones, publisher, zapLogger),
		Upgrades: core.NewUpgradeService(repos.UpgradeRequests, cachedUsers, infra.Mailer, publisher,
			auditService, appConfig.AppBaseURL, zapLogger),
		Stats:         core.NewStatsService(repos.Sprints, repos.Tasks, cachedUsers),
		Templates:     core.NewTemplateService(catalog),
		Notifications: core.NewNotificationService(publisher),
	}
	zapLogger.Info("Core services initialized successfully.")

	// --- 6. Background workers ---
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	dispatcher := infra.Dispatcher(appConfig, zapLogger)
	defer dispatcher.Stop()
	if infra.LocalQueue {
		go func() {
			if err := infra.Queue.Consume(workerCtx, appConfig.NotificationQueue, dispatcher.Handle); err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("Notification consumer stopped", zap.Error(err))
			}
		}()
	}
	if appConfig.StorageDriver == config.StorageMemory {
		// The notifier binary cannot see this process's memory, so scan here.
		scanner := notify.NewReminderScanner(repos.Sprints, repos.Tasks, publisher, infra.Cache, zapLogger)
		go scanner.Run(workerCtx, appConfig.ReminderInterval)
	}

	// --- 7. Setup Gin HTTP Engine ---
	if strings.EqualFold(appConfig.GinMode, "release") {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()

	// --- 8. Global middleware ---
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	if appConfig.ClientURL != "" {
		router.Use(middleware.CORSMiddleware(appConfig))
		zapLogger.Info("CORS Middleware enabled", zap.String("clientURL", appConfig.ClientURL))
	} else {
		zapLogger.Warn("CORS Middleware SKIPPED: CLIENT_URL is not configured.")
	}

	// --- 9. Routes ---
	api.SetupRoutes(router, zapLogger, infra.Firebase.Auth, cachedUsers, svc)

	// --- 10. Start HTTP server ---
	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	zapLogger.Info("Starting HTTP server...", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// --- 11. Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	stopWorkers()
	zapLogger.Info("Server exiting gracefully.")
}
