package db

import (
	"context"
	"errors"
	"time"

	"sprintify-backend-go/internal/models"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned when a write would break a uniqueness or state rule.
	ErrConflict = errors.New("conflicting document state")
	// ErrVersionConflict is returned when a sprint was changed since the caller read it.
	ErrVersionConflict = errors.New("document version mismatch")
)

// UserRepository defines the interface for user data storage operations.
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	// Update writes the profile fields of an existing user; tokens are untouched.
	Update(ctx context.Context, user *models.User) error
	// List returns users of the given type, or all users when userType is empty.
	List(ctx context.Context, userType models.UserType, limit int) ([]*models.User, error)
	// PromoteFirstAdmin makes userID an admin only if no admin exists yet; otherwise ErrConflict.
	PromoteFirstAdmin(ctx context.Context, userID string, now time.Time) (*models.User, error)
	AddFCMToken(ctx context.Context, userID, token string) error
	RemoveFCMToken(ctx context.Context, userID, token string) error
}

// SprintRepository defines the interface for sprint data storage operations.
type SprintRepository interface {
	Create(ctx context.Context, sprint *models.Sprint) (string, error) // Returns new sprint ID
	GetByID(ctx context.Context, sprintID string) (*models.Sprint, error)
	ListByUser(ctx context.Context, userID string, filter models.SprintFilter) ([]*models.Sprint, error)
	ListByStatus(ctx context.Context, status models.SprintStatus) ([]*models.Sprint, error)
	CountByUserAndStatus(ctx context.Context, userID string, status models.SprintStatus) (int, error)
	// Update stores sprint if the stored version equals expectedVersion and
	// increments sprint.Version. A mismatch yields ErrVersionConflict.
	Update(ctx context.Context, sprint *models.Sprint, expectedVersion int64) error
	Delete(ctx context.Context, sprintID string) error
}

// TaskRepository defines the interface for task data storage operations.
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) (string, error)
	GetByID(ctx context.Context, taskID string) (*models.Task, error)
	ListBySprint(ctx context.Context, sprintID string) ([]*models.Task, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, taskID string) error
	DeleteBySprint(ctx context.Context, sprintID string) error
}

// MilestoneRepository defines the interface for milestone data storage operations.
type MilestoneRepository interface {
	Create(ctx context.Context, milestone *models.Milestone) (string, error)
	GetByID(ctx context.Context, milestoneID string) (*models.Milestone, error)
	ListBySprint(ctx context.Context, sprintID string) ([]*models.Milestone, error)
	Update(ctx context.Context, milestone *models.Milestone) error
	Delete(ctx context.Context, milestoneID string) error
	DeleteBySprint(ctx context.Context, sprintID string) error
}

// UpgradeReview is the outcome an admin applies to a pending upgrade request.
type UpgradeReview struct {
	Status       models.UpgradeStatus
	AdminComment string
	ReviewedBy   string
	ReviewedAt   time.Time
}

// UpgradeRequestRepository defines the interface for upgrade request storage operations.
type UpgradeRequestRepository interface {
	// CreatePending stores req unless the user already has a pending request (ErrConflict).
	CreatePending(ctx context.Context, req *models.UpgradeRequest) (string, error)
	GetByID(ctx context.Context, requestID string) (*models.UpgradeRequest, error)
	// List returns requests newest first, filtered by status when non-empty.
	List(ctx context.Context, status models.UpgradeStatus) ([]*models.UpgradeRequest, error)
	LatestByUser(ctx context.Context, userID string) (*models.UpgradeRequest, error)
	// Review finalizes a pending request and, when approved, sets the requester's
	// user type, in one atomic step. A request that is not pending yields ErrConflict.
	Review(ctx context.Context, requestID string, review UpgradeReview) (*models.UpgradeRequest, error)
	Delete(ctx context.Context, requestID string) error
}

// AuditRepository defines the interface for audit log data storage operations.
type AuditRepository interface {
	Create(ctx context.Context, logEntry models.AuditLog) error
}
