package models

import "time"

// Audit actions recorded by the services.
const (
	AuditSprintCreate    = "SPRINT_CREATE"
	AuditSprintDelete    = "SPRINT_DELETE"
	AuditSprintStatus    = "SPRINT_STATUS_CHANGE"
	AuditUpgradeRequest  = "UPGRADE_REQUEST_CREATE"
	AuditUpgradeReview   = "UPGRADE_REQUEST_REVIEW"
	AuditUpgradeDelete   = "UPGRADE_REQUEST_DELETE"
	AuditFirstAdminSetup = "FIRST_ADMIN_SETUP"
)

// AuditLog represents an audit trail event.
type AuditLog struct {
	ID         string                 `json:"id" firestore:"-"`
	Timestamp  time.Time              `json:"timestamp" firestore:"timestamp"`
	UserID     string                 `json:"userId" firestore:"userId"` // Who performed the action
	Action     string                 `json:"action" firestore:"action"`
	TargetType string                 `json:"targetType,omitempty" firestore:"targetType,omitempty"` // "SPRINT", "UPGRADE_REQUEST", "USER"
	TargetID   string                 `json:"targetId,omitempty" firestore:"targetId,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty" firestore:"details,omitempty"`
}
