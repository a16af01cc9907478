package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"

	"sprintify-backend-go/internal/db"
	"sprintify-backend-go/internal/models"
)

// Sender sends a multicast message. *messaging.Client satisfies it.
type Sender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// TokenStore is the part of db.UserRepository the dispatcher needs.
// It must not be served from the profile cache, which omits tokens.
type TokenStore interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
	RemoveFCMToken(ctx context.Context, userID, token string) error
}

var _ TokenStore = (db.UserRepository)(nil)

// Dispatcher delivers notification jobs to every registered device of a user.
// Jobs with a future NotBefore are held in memory until due; held jobs are
// dropped by Stop.
type Dispatcher struct {
	sender     Sender
	tokens     TokenStore
	appBaseURL string
	logger     *zap.Logger
	now        func() time.Time
	isStale    func(error) bool

	mu      sync.Mutex
	pending map[*time.Timer]struct{}
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewDispatcher(sender Sender, tokens TokenStore, appBaseURL string, logger *zap.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		sender:     sender,
		tokens:     tokens,
		appBaseURL: appBaseURL,
		logger:     logger,
		now:        time.Now,
		isStale:    messaging.IsUnregistered,
		pending:    make(map[*time.Timer]struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Handle decodes a queued job and delivers it. It is a messagequeue.Handler.
func (d *Dispatcher) Handle(ctx context.Context, body []byte) error {
	var job models.NotificationJob
	if err := json.Unmarshal(body, &job); err != nil {
		// A malformed job will never succeed; drop it instead of requeueing.
		d.logger.Error("Dropping malformed notification job", zap.Error(err))
		return nil
	}
	return d.Publish(ctx, job)
}

// Publish delivers job now or schedules it for its NotBefore time.
func (d *Dispatcher) Publish(ctx context.Context, job models.NotificationJob) error {
	if job.NotBefore != nil {
		if wait := job.NotBefore.Sub(d.now()); wait > 0 {
			d.schedule(job, wait)
			return nil
		}
	}
	return d.Deliver(ctx, job)
}

func (d *Dispatcher) schedule(job models.NotificationJob, wait time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ctx.Err() != nil {
		return
	}
	var t *time.Timer
	t = time.AfterFunc(wait, func() {
		d.mu.Lock()
		delete(d.pending, t)
		d.mu.Unlock()
		if err := d.Deliver(d.ctx, job); err != nil {
			d.logger.Warn("Delayed notification failed", zap.String("userID", job.UserID), zap.String("type", string(job.Type)), zap.Error(err))
		}
	})
	d.pending[t] = struct{}{}
	d.logger.Debug("Notification held", zap.String("userID", job.UserID), zap.Duration("wait", wait))
}

// Pending reports how many delayed jobs are waiting.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Stop cancels all held jobs.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancel()
	for t := range d.pending {
		t.Stop()
		delete(d.pending, t)
	}
}

// Deliver sends job immediately and prunes device tokens FCM reports as unregistered.
func (d *Dispatcher) Deliver(ctx context.Context, job models.NotificationJob) error {
	user, err := d.tokens.GetByID(ctx, job.UserID)
	if err != nil {
		return fmt.Errorf("failed to load user %s for notification: %w", job.UserID, err)
	}
	if len(user.FCMTokens) == 0 {
		d.logger.Debug("No device tokens, notification skipped", zap.String("userID", job.UserID), zap.String("type", string(job.Type)))
		return nil
	}

	msg := BuildMessage(job, user.FCMTokens, d.appBaseURL)
	resp, err := d.sender.SendEachForMulticast(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to send %s notification to user %s: %w", job.Type, job.UserID, err)
	}

	for i, r := range resp.Responses {
		if r.Success || i >= len(msg.Tokens) {
			continue
		}
		if d.isStale(r.Error) {
			if err := d.tokens.RemoveFCMToken(ctx, job.UserID, msg.Tokens[i]); err != nil {
				d.logger.Warn("Failed to prune stale device token", zap.String("userID", job.UserID), zap.Error(err))
			}
			continue
		}
		d.logger.Warn("Notification not delivered to device", zap.String("userID", job.UserID), zap.Error(r.Error))
	}
	d.logger.Info("Notification sent",
		zap.String("userID", job.UserID),
		zap.String("type", string(job.Type)),
		zap.Int("success", resp.SuccessCount),
		zap.Int("failure", resp.FailureCount))
	return nil
}

// LogSender logs messages instead of sending them. Used when FCM is unavailable.
type LogSender struct {
	Logger *zap.Logger
}

func (s LogSender) SendEachForMulticast(_ context.Context, m *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	resp := &messaging.BatchResponse{SuccessCount: len(m.Tokens)}
	for range m.Tokens {
		resp.Responses = append(resp.Responses, &messaging.SendResponse{Success: true})
	}
	title := ""
	if m.Notification != nil {
		title = m.Notification.Title
	}
	s.Logger.Info("Push notification (not sent)", zap.String("title", title), zap.Any("data", m.Data))
	return resp, nil
}
