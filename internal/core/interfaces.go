package core

import (
	"context"

	"sprintify-backend-go/internal/insights"
	"sprintify-backend-go/internal/models"
	"sprintify-backend-go/internal/templates"
)

// UserService defines the interface for user-related operations.
type UserService interface {
	// GetOrCreate retrieves a user by ID. If the user doesn't exist, it creates a new one with default values.
	GetOrCreate(ctx context.Context, userID, email, displayName, photoURL string) (*models.User, bool, error)
	GetByID(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error)
	ListUsers(ctx context.Context, actorID string, userType models.UserType, limit int) ([]*models.User, error)
	// SetupFirstAdmin promotes userID to admin only if no admin exists yet.
	SetupFirstAdmin(ctx context.Context, userID string) (*models.User, error)
	RegisterDevice(ctx context.Context, userID, token string) error
	UnregisterDevice(ctx context.Context, userID, token string) error
}

// SprintService defines the interface for sprint-related operations.
type SprintService interface {
	CreateSprint(ctx context.Context, userID string, req models.CreateSprintRequest) (*models.Sprint, error)
	GetSprint(ctx context.Context, userID, sprintID string) (*models.Sprint, error)
	ListSprints(ctx context.Context, userID string, filter models.SprintFilter) ([]*models.Sprint, error)
	// UpdateSprint applies req. When expectedVersion is non-nil and stale, it
	// returns a *ConflictError holding the stored sprint.
	UpdateSprint(ctx context.Context, userID, sprintID string, req models.UpdateSprintRequest, expectedVersion *int64) (*models.Sprint, error)
	DeleteSprint(ctx context.Context, userID, sprintID string) error
	DeleteSprints(ctx context.Context, userID string, sprintIDs []string) (int, error)
	StartSprint(ctx context.Context, userID, sprintID string) (*models.Sprint, error)
	PauseSprint(ctx context.Context, userID, sprintID string) (*models.Sprint, error)
	CompleteSprint(ctx context.Context, userID, sprintID string) (*models.Sprint, error)
	Countdown(ctx context.Context, userID, sprintID string) (insights.Countdown, error)
}

// TaskService defines the interface for task and milestone operations within a sprint.
type TaskService interface {
	ListTasks(ctx context.Context, userID, sprintID string) ([]*models.Task, error)
	CreateTask(ctx context.Context, userID, sprintID string, req models.CreateTaskRequest) (*models.Task, error)
	UpdateTask(ctx context.Context, userID, sprintID, taskID string, req models.UpdateTaskRequest) (*models.Task, error)
	DeleteTask(ctx context.Context, userID, sprintID, taskID string) error

	ListMilestones(ctx context.Context, userID, sprintID string) ([]*models.Milestone, error)
	CreateMilestone(ctx context.Context, userID, sprintID string, req models.CreateMilestoneRequest) (*models.Milestone, error)
	UpdateMilestone(ctx context.Context, userID, sprintID, milestoneID string, req models.UpdateMilestoneRequest) (*models.Milestone, error)
	DeleteMilestone(ctx context.Context, userID, sprintID, milestoneID string) error
}

// UpgradeService defines the interface for upgrade request operations.
type UpgradeService interface {
	CreateRequest(ctx context.Context, userID string, req models.CreateUpgradeRequestRequest) (*models.UpgradeRequest, error)
	// MyStatus returns the caller's latest request, or nil when there is none.
	MyStatus(ctx context.Context, userID string) (*models.UpgradeRequest, error)
	ListRequests(ctx context.Context, actorID string, status models.UpgradeStatus) ([]*models.UpgradeRequest, error)
	Review(ctx context.Context, actorID, requestID string, req models.ReviewUpgradeRequestRequest) (*models.UpgradeRequest, error)
	DeleteRequest(ctx context.Context, actorID, requestID string) error
}

// StatsService defines the interface for derived activity views.
type StatsService interface {
	Heatmap(ctx context.Context, userID string) (insights.Heatmap, error)
	Progress(ctx context.Context, userID string) (*ProgressReport, error)
}

// TemplateService exposes the template catalog.
type TemplateService interface {
	List() []templates.Config
	Recommendations(templateID string, customDuration int) (templates.Recommendations, error)
}

// NotificationService handles user-triggered notification actions.
type NotificationService interface {
	Snooze(ctx context.Context, userID string, job models.NotificationJob) (*models.NotificationJob, error)
}

// AuditService defines the interface for audit logging operations.
type AuditService interface {
	CreateAuditLog(ctx context.Context, logEntry models.AuditLog) error
}
