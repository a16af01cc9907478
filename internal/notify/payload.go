// Package notify builds and delivers push notifications through Firebase
// Cloud Messaging, and schedules the reminders the notifier process sends.
package notify

import (
	"encoding/json"
	"strconv"
	"time"

	"firebase.google.com/go/v4/messaging"

	"sprintify-backend-go/internal/models"
)

const (
	DefaultIcon = "/icons/icon-192x192.png"
	BadgeIcon   = "/icons/badge-72x72.png"

	// SnoozeDuration is how long a snoozed notification is held back.
	SnoozeDuration = 15 * time.Minute
)

// Action is a button shown on a web push notification.
type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

var (
	actionOpen     = Action{Action: "open", Title: "Open"}
	actionSnooze   = Action{Action: "snooze", Title: "Snooze 15 min"}
	actionView     = Action{Action: "view", Title: "View"}
	actionComplete = Action{Action: "complete", Title: "Mark complete"}
)

// Route returns the in-app path a notification opens.
func Route(t models.NotificationType, sprintID string) string {
	switch t {
	case models.NotificationDailyReminder:
		return "/today"
	case models.NotificationDeadlineWarning, models.NotificationTaskOverdue,
		models.NotificationSprintCompleted, models.NotificationMilestoneAchieved:
		if sprintID == "" {
			return "/dashboard"
		}
		return "/sprints/" + sprintID
	case models.NotificationUpgradeReviewed:
		return "/profile"
	default:
		return "/dashboard"
	}
}

// Actions returns the buttons offered for a notification type.
func Actions(t models.NotificationType) []Action {
	switch t {
	case models.NotificationDailyReminder:
		return []Action{actionOpen, actionSnooze}
	case models.NotificationDeadlineWarning:
		return []Action{actionView, actionSnooze}
	case models.NotificationTaskOverdue:
		return []Action{actionComplete, actionView}
	default:
		return []Action{actionOpen}
	}
}

// Data returns the FCM data map for job. FCM data values must be strings.
func Data(job models.NotificationJob) map[string]string {
	data := map[string]string{
		"type": string(job.Type),
		"url":  Route(job.Type, job.SprintID),
	}
	if job.SprintID != "" {
		data["sprintId"] = job.SprintID
	}
	if job.TaskID != "" {
		data["taskId"] = job.TaskID
	}
	if job.RequireInteraction {
		data["requireInteraction"] = strconv.FormatBool(true)
	}
	if raw, err := json.Marshal(Actions(job.Type)); err == nil {
		data["actions"] = string(raw)
	}
	return data
}

// BuildMessage renders job as a multicast message for the given device tokens.
func BuildMessage(job models.NotificationJob, tokens []string, appBaseURL string) *messaging.MulticastMessage {
	actions := Actions(job.Type)
	webActions := make([]*messaging.WebpushNotificationAction, 0, len(actions))
	for _, a := range actions {
		webActions = append(webActions, &messaging.WebpushNotificationAction{Action: a.Action, Title: a.Title})
	}

	return &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title:    job.Title,
			Body:     job.Body,
			ImageURL: job.Image,
		},
		Data: Data(job),
		Webpush: &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Title:              job.Title,
				Body:               job.Body,
				Icon:               DefaultIcon,
				Image:              job.Image,
				Badge:              BadgeIcon,
				Tag:                string(job.Type),
				RequireInteraction: job.RequireInteraction,
				Actions:            webActions,
			},
			FCMOptions: &messaging.WebpushFCMOptions{
				Link: appBaseURL + Route(job.Type, job.SprintID),
			},
		},
	}
}

// Snooze returns a copy of job that must not be delivered before now+SnoozeDuration.
func Snooze(job models.NotificationJob, now time.Time) models.NotificationJob {
	at := now.Add(SnoozeDuration)
	job.NotBefore = &at
	return job
}
