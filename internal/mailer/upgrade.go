package mailer

import (
	"fmt"
	"strings"

	"sprintify-backend-go/internal/models"
)

// UpgradeReviewed builds the email sent to a user once an admin has decided
// on their upgrade request.
func UpgradeReviewed(req *models.UpgradeRequest, appBaseURL string) Message {
	var b strings.Builder
	switch req.Status {
	case models.UpgradeStatusApproved:
		fmt.Fprintf(&b, "Good news! Your request to upgrade to %s has been approved.\n", req.RequestedType)
	default:
		fmt.Fprintf(&b, "Your request to upgrade to %s was not approved this time.\n", req.RequestedType)
	}
	if req.AdminComment != "" {
		fmt.Fprintf(&b, "\nComment from the reviewer:\n%s\n", req.AdminComment)
	}
	fmt.Fprintf(&b, "\nView your profile: %s/profile\n", strings.TrimRight(appBaseURL, "/"))

	return Message{
		ToEmail: req.UserEmail,
		Subject: fmt.Sprintf("Sprintify upgrade request %s", req.Status),
		Body:    b.String(),
	}
}
