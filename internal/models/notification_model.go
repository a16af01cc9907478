package models

import "time"

// NotificationType selects the routing target and action buttons of a push message.
type NotificationType string

const (
	NotificationDailyReminder     NotificationType = "daily_reminder"
	NotificationDeadlineWarning   NotificationType = "deadline_warning"
	NotificationTaskOverdue       NotificationType = "task_overdue"
	NotificationSprintCompleted   NotificationType = "sprint_completed"
	NotificationMilestoneAchieved NotificationType = "milestone_achieved"
	NotificationUpgradeReviewed   NotificationType = "upgrade_reviewed"
)

// NotificationJob is the unit of work published to the notification queue.
type NotificationJob struct {
	UserID             string           `json:"userId"`
	Type               NotificationType `json:"type"`
	Title              string           `json:"title"`
	Body               string           `json:"body"`
	Image              string           `json:"image,omitempty"`
	SprintID           string           `json:"sprintId,omitempty"`
	TaskID             string           `json:"taskId,omitempty"`
	RequireInteraction bool             `json:"requireInteraction,omitempty"`
	// NotBefore delays delivery, used for snoozed reminders.
	NotBefore *time.Time `json:"notBefore,omitempty"`
}
