package messagequeue

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// LocalQueue is an in-process MessageQueue used when RABBITMQ_URL is unset.
// Messages are lost on restart.
type LocalQueue struct {
	mu     sync.Mutex
	queues map[string]chan []byte
	size   int
	logger *zap.Logger
}

func NewLocalQueue(size int, logger *zap.Logger) *LocalQueue {
	return &LocalQueue{queues: map[string]chan []byte{}, size: size, logger: logger}
}

func (q *LocalQueue) queue(name string) chan []byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	ch, ok := q.queues[name]
	if !ok {
		ch = make(chan []byte, q.size)
		q.queues[name] = ch
	}
	return ch
}

func (q *LocalQueue) Publish(ctx context.Context, queueName string, body []byte) error {
	select {
	case q.queue(queueName) <- append([]byte(nil), body...):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume redelivers a failed message once before dropping it.
func (q *LocalQueue) Consume(ctx context.Context, queueName string, handler Handler) error {
	ch := q.queue(queueName)
	for {
		select {
		case <-ctx.Done():
			return nil
		case body := <-ch:
			err := handler(ctx, body)
			if err == nil {
				continue
			}
			q.logger.Warn("message handler failed, redelivering", zap.String("queue", queueName), zap.Error(err))
			if err := handler(ctx, body); err != nil {
				q.logger.Error("message handler failed twice, dropping message",
					zap.String("queue", queueName), zap.Int("bytes", len(body)), zap.Error(err))
			}
		}
	}
}

func (q *LocalQueue) Close() error { return nil }
