package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"sprintify-backend-go/internal/models"
)

func TestUpgradeReviewedApproved(t *testing.T) {
	msg := UpgradeReviewed(&models.UpgradeRequest{
		UserEmail:     "ana@example.com",
		RequestedType: models.UserTypePremium,
		Status:        models.UpgradeStatusApproved,
		AdminComment:  "Welcome aboard",
	}, "https://app.example.com/")

	assert.Equal(t, "ana@example.com", msg.ToEmail)
	assert.Equal(t, "Sprintify upgrade request approved", msg.Subject)
	assert.Contains(t, msg.Body, "upgrade to premium has been approved")
	assert.Contains(t, msg.Body, "Welcome aboard")
	assert.Contains(t, msg.Body, "https://app.example.com/profile")
}

func TestUpgradeReviewedRejectedWithoutComment(t *testing.T) {
	msg := UpgradeReviewed(&models.UpgradeRequest{
		UserEmail:     "bo@example.com",
		RequestedType: models.UserTypePremium,
		Status:        models.UpgradeStatusRejected,
	}, "https://app.example.com")

	assert.Contains(t, msg.Body, "was not approved")
	assert.NotContains(t, msg.Body, "Comment from the reviewer")
}

func TestLogMailerNeverFails(t *testing.T) {
	assert.NoError(t, NewLogMailer(zap.NewNop()).Send(context.Background(), Message{ToEmail: "x@example.com"}))
}
