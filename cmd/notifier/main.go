// Command notifier scans active sprints for reminders and delivers queued
// notification jobs as push messages.
package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"sprintify-backend-go/internal/app"
	"sprintify-backend-go/internal/config"
	"sprintify-backend-go/internal/notify"
)

func main() {
	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}

	var zapLogger *zap.Logger
	if strings.EqualFold(appConfig.GinMode, "release") {
		zapLogger, err = zap.NewProduction()
	} else {
		zapLogger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()

	if appConfig.StorageDriver == config.StorageMemory {
		zapLogger.Fatal("CRITICAL_ERROR: the notifier needs shared storage; in-memory mode runs reminders inside the server")
	}

	initCtx, cancelInit := context.WithTimeout(context.Background(), 15*time.Second)
	infra, err := app.Open(initCtx, appConfig, zapLogger)
	cancelInit()
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize backing services", zap.Error(err))
	}
	defer infra.Close(zapLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dispatcher := infra.Dispatcher(appConfig, zapLogger)
	defer dispatcher.Stop()
	publisher := notify.NewQueuePublisher(infra.Queue, appConfig.NotificationQueue)
	scanner := notify.NewReminderScanner(infra.Repos.Sprints, infra.Repos.Tasks, publisher, infra.Cache, zapLogger)

	go scanner.Run(ctx, appConfig.ReminderInterval)

	zapLogger.Info("Notifier started",
		zap.String("queue", appConfig.NotificationQueue),
		zap.Duration("interval", appConfig.ReminderInterval))
	if err := infra.Queue.Consume(ctx, appConfig.NotificationQueue, dispatcher.Handle); err != nil && !errors.Is(err, context.Canceled) {
		zapLogger.Error("Notification consumer stopped", zap.Error(err))
	}
	zapLogger.Info("Notifier exiting.")
}
