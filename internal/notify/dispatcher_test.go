package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sprintify-backend-go/internal/db/memdb"
	"sprintify-backend-go/internal/models"
)

var errUnregistered = errors.New("registration token is not registered")

type fakeSender struct {
	mu     sync.Mutex
	sent   []*messaging.MulticastMessage
	failOn map[string]error
	err    error
}

func (f *fakeSender) SendEachForMulticast(_ context.Context, m *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, m)
	resp := &messaging.BatchResponse{}
	for _, tok := range m.Tokens {
		if err, ok := f.failOn[tok]; ok {
			resp.FailureCount++
			resp.Responses = append(resp.Responses, &messaging.SendResponse{Error: err})
			continue
		}
		resp.SuccessCount++
		resp.Responses = append(resp.Responses, &messaging.SendResponse{Success: true, MessageID: "m-" + tok})
	}
	return resp, nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestDispatcher(t *testing.T, sender Sender) (*Dispatcher, *memdb.Store) {
	t.Helper()
	store := memdb.New()
	ctx := context.Background()
	require.NoError(t, store.Users().Create(ctx, &models.User{ID: "u1", UserType: models.UserTypeNormal}))
	require.NoError(t, store.Users().AddFCMToken(ctx, "u1", "good"))
	require.NoError(t, store.Users().AddFCMToken(ctx, "u1", "stale"))

	d := NewDispatcher(sender, store.Users(), "https://app.example.com", zap.NewNop())
	d.isStale = func(err error) bool { return errors.Is(err, errUnregistered) }
	t.Cleanup(d.Stop)
	return d, store
}

func TestDeliverPrunesStaleTokens(t *testing.T) {
	sender := &fakeSender{failOn: map[string]error{"stale": errUnregistered}}
	d, store := newTestDispatcher(t, sender)
	ctx := context.Background()

	err := d.Deliver(ctx, models.NotificationJob{UserID: "u1", Type: models.NotificationSprintCompleted, SprintID: "s1"})
	require.NoError(t, err)
	require.Equal(t, 1, sender.count())
	assert.ElementsMatch(t, []string{"good", "stale"}, sender.sent[0].Tokens)

	u, err := store.Users().GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"good"}, u.FCMTokens)
}

func TestDeliverKeepsTokensOnOtherFailures(t *testing.T) {
	sender := &fakeSender{failOn: map[string]error{"stale": errors.New("quota exceeded")}}
	d, store := newTestDispatcher(t, sender)

	require.NoError(t, d.Deliver(context.Background(), models.NotificationJob{UserID: "u1", Type: models.NotificationDailyReminder}))
	u, _ := store.Users().GetByID(context.Background(), "u1")
	assert.Len(t, u.FCMTokens, 2)
}

func TestDeliverSkipsUsersWithoutTokens(t *testing.T) {
	sender := &fakeSender{}
	d, store := newTestDispatcher(t, sender)
	require.NoError(t, store.Users().Create(context.Background(), &models.User{ID: "u2"}))

	require.NoError(t, d.Deliver(context.Background(), models.NotificationJob{UserID: "u2", Type: models.NotificationDailyReminder}))
	assert.Zero(t, sender.count())
}

func TestDeliverWrapsSendErrors(t *testing.T) {
	sender := &fakeSender{err: errors.New("unavailable")}
	d, _ := newTestDispatcher(t, sender)

	err := d.Deliver(context.Background(), models.NotificationJob{UserID: "u1", Type: models.NotificationDailyReminder})
	assert.ErrorContains(t, err, "unavailable")
}

func TestPublishHoldsSnoozedJobs(t *testing.T) {
	sender := &fakeSender{}
	d, _ := newTestDispatcher(t, sender)
	now := time.Now()
	d.now = func() time.Time { return now }

	job := Snooze(models.NotificationJob{UserID: "u1", Type: models.NotificationDailyReminder}, now)
	require.NoError(t, d.Publish(context.Background(), job))
	assert.Equal(t, 1, d.Pending())
	assert.Zero(t, sender.count())

	d.Stop()
	assert.Zero(t, d.Pending())
}

func TestPublishDeliversDueJobsImmediately(t *testing.T) {
	sender := &fakeSender{}
	d, _ := newTestDispatcher(t, sender)
	past := time.Now().Add(-time.Minute)

	require.NoError(t, d.Publish(context.Background(), models.NotificationJob{UserID: "u1", Type: models.NotificationDailyReminder, NotBefore: &past}))
	assert.Equal(t, 1, sender.count())
}

func TestHandleDecodesQueuedJobs(t *testing.T) {
	sender := &fakeSender{}
	d, _ := newTestDispatcher(t, sender)

	body, err := json.Marshal(models.NotificationJob{UserID: "u1", Type: models.NotificationUpgradeReviewed})
	require.NoError(t, err)
	require.NoError(t, d.Handle(context.Background(), body))
	require.Equal(t, 1, sender.count())
	assert.Equal(t, "/profile", sender.sent[0].Data["url"])

	assert.NoError(t, d.Handle(context.Background(), []byte("{not json")))
	assert.Equal(t, 1, sender.count())
}
