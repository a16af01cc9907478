package core

import (
	"context"
	"fmt"
	"time"

	"sprintify-backend-go/internal/models"
	"sprintify-backend-go/internal/notify"
)

type notificationService struct {
	publisher notify.Publisher
	now       func() time.Time
}

func NewNotificationService(publisher notify.Publisher) NotificationService {
	return &notificationService{publisher: publisher, now: time.Now}
}

// Snooze re-publishes a notification the caller dismissed, held back by
// notify.SnoozeDuration. The job is always addressed to the caller.
func (s *notificationService) Snooze(ctx context.Context, userID string, job models.NotificationJob) (*models.NotificationJob, error) {
	if job.Type == "" || job.Title == "" {
		return nil, invalid("Notification type and title are required")
	}
	job.UserID = userID
	snoozed := notify.Snooze(job, s.now())
	if err := s.publisher.Publish(ctx, snoozed); err != nil {
		return nil, fmt.Errorf("failed to publish snoozed notification: %w", err)
	}
	return &snoozed, nil
}
