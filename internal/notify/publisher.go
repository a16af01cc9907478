package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"sprintify-backend-go/internal/messagequeue"
	"sprintify-backend-go/internal/models"
)

// Publisher hands notification jobs off for delivery.
type Publisher interface {
	Publish(ctx context.Context, job models.NotificationJob) error
}

// QueuePublisher writes jobs as JSON onto a message queue.
type QueuePublisher struct {
	mq    messagequeue.MessageQueue
	queue string
}

func NewQueuePublisher(mq messagequeue.MessageQueue, queue string) *QueuePublisher {
	return &QueuePublisher{mq: mq, queue: queue}
}

func (p *QueuePublisher) Publish(ctx context.Context, job models.NotificationJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal notification job: %w", err)
	}
	if err := p.mq.Publish(ctx, p.queue, body); err != nil {
		return fmt.Errorf("failed to publish %s notification for user %s: %w", job.Type, job.UserID, err)
	}
	return nil
}
