// Package app opens the backing services shared by the server and notifier
// binaries: storage, cache, message queue, push sender and mailer.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"sprintify-backend-go/internal/cache"
	"sprintify-backend-go/internal/config"
	"sprintify-backend-go/internal/db"
	"sprintify-backend-go/internal/db/memdb"
	"sprintify-backend-go/internal/mailer"
	"sprintify-backend-go/internal/messagequeue"
	"sprintify-backend-go/internal/notify"
)

const localQueueSize = 256

// Repositories groups the repositories for one storage driver. Users is never
// cached; wrap it with cache.NewCachedUserRepository for request paths.
type Repositories struct {
	Users           db.UserRepository
	Sprints         db.SprintRepository
	Tasks           db.TaskRepository
	Milestones      db.MilestoneRepository
	UpgradeRequests db.UpgradeRequestRepository
	Audit           db.AuditRepository
}

// Infra holds everything opened by Open. Close releases it in reverse order.
type Infra struct {
	Firebase *db.Clients
	Repos    Repositories
	Cache    cache.Cache
	Queue    messagequeue.MessageQueue
	// LocalQueue is set when Queue lives in this process and must be consumed here.
	LocalQueue bool
	Sender     notify.Sender
	Mailer     mailer.Mailer
}

// Open connects to the services selected by cfg. Firebase is initialized
// whenever a project ID is set, since ID token verification needs it even
// with in-memory storage.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Infra, error) {
	in := &Infra{}

	if cfg.FirebaseProjectID != "" {
		clients, err := db.InitFirebase(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		in.Firebase = clients
	}

	switch cfg.StorageDriver {
	case config.StorageMemory:
		store := memdb.New()
		in.Repos = Repositories{
			Users:           store.Users(),
			Sprints:         store.Sprints(),
			Tasks:           store.Tasks(),
			Milestones:      store.Milestones(),
			UpgradeRequests: store.UpgradeRequests(),
			Audit:           store.Audit(),
		}
		logger.Warn("Using in-memory storage; data is lost on restart")
	default:
		if in.Firebase == nil {
			return nil, errors.New("firestore storage requires FIREBASE_PROJECT_ID")
		}
		fs := in.Firebase.Firestore
		in.Repos = Repositories{
			Users:           db.NewFirestoreUserRepository(fs),
			Sprints:         db.NewFirestoreSprintRepository(fs),
			Tasks:           db.NewFirestoreTaskRepository(fs),
			Milestones:      db.NewFirestoreMilestoneRepository(fs),
			UpgradeRequests: db.NewFirestoreUpgradeRequestRepository(fs),
			Audit:           db.NewFirestoreAuditRepository(fs),
		}
	}

	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Address:  cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		if err != nil {
			in.Close(logger)
			return nil, err
		}
		in.Cache = rc
	} else {
		logger.Info("REDIS_ADDR not set, using in-process cache")
		in.Cache = cache.NewMemory()
	}

	if cfg.RabbitMQURL != "" {
		mq, err := messagequeue.NewRabbitMQService(cfg.RabbitMQURL, logger)
		if err != nil {
			in.Close(logger)
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		in.Queue = mq
	} else {
		logger.Info("RABBITMQ_URL not set, notifications are delivered in-process")
		in.Queue = messagequeue.NewLocalQueue(localQueueSize, logger)
		in.LocalQueue = true
	}

	if in.Firebase != nil && in.Firebase.Messaging != nil {
		in.Sender = in.Firebase.Messaging
	} else {
		in.Sender = notify.LogSender{Logger: logger}
	}

	if cfg.SendGridAPIKey != "" {
		in.Mailer = mailer.NewSendGridMailer(cfg.SendGridAPIKey, "Sprintify", cfg.MailFrom)
	} else {
		in.Mailer = mailer.NewLogMailer(logger)
	}
	return in, nil
}

// Dispatcher builds the push dispatcher. It reads tokens from the uncached
// user repository.
func (in *Infra) Dispatcher(cfg *config.Config, logger *zap.Logger) *notify.Dispatcher {
	return notify.NewDispatcher(in.Sender, in.Repos.Users, cfg.AppBaseURL, logger)
}

// Close releases whatever Open managed to open.
func (in *Infra) Close(logger *zap.Logger) {
	if in.Queue != nil {
		if err := in.Queue.Close(); err != nil {
			logger.Warn("Failed to close message queue", zap.Error(err))
		}
	}
	if in.Cache != nil {
		if err := in.Cache.Close(); err != nil {
			logger.Warn("Failed to close cache", zap.Error(err))
		}
	}
	if err := in.Firebase.Close(); err != nil {
		logger.Warn("Failed to close Firestore client", zap.Error(err))
	}
}
