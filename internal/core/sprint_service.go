package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"sprintify-backend-go/internal/db"
	"sprintify-backend-go/internal/insights"
	"sprintify-backend-go/internal/models"
	"sprintify-backend-go/internal/notify"
	"sprintify-backend-go/internal/permission"
	"sprintify-backend-go/internal/templates"
	"sprintify-backend-go/internal/validation"
)

const (
	defaultSprintListLimit = 20
	maxSprintListLimit     = 100
	maxBatchDelete         = 100
)

// sprintService implements the SprintService interface.
type sprintService struct {
	sprintRepo    db.SprintRepository
	taskRepo      db.TaskRepository
	milestoneRepo db.MilestoneRepository
	userRepo      db.UserRepository
	catalog       *templates.Catalog
	publisher     notify.Publisher
	auditService  AuditService
	logger        *zap.Logger
	now           func() time.Time
}

// NewSprintService creates a new SprintService instance.
func NewSprintService(
	sr db.SprintRepository,
	tr db.TaskRepository,
	mr db.MilestoneRepository,
	ur db.UserRepository,
	catalog *templates.Catalog,
	publisher notify.Publisher,
	as AuditService,
	logger *zap.Logger,
) SprintService {
	return &sprintService{
		sprintRepo:    sr,
		taskRepo:      tr,
		milestoneRepo: mr,
		userRepo:      ur,
		catalog:       catalog,
		publisher:     publisher,
		auditService:  as,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// durationDays is the number of calendar days between start and end, rounded up.
func durationDays(start, end time.Time) int {
	return int(math.Ceil(end.Sub(start).Hours() / 24))
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, strings.TrimSpace(t))
	}
	return out
}

// CreateSprint creates a draft sprint, filling the end date and duration
// from the template when the request leaves them out.
func (s *sprintService) CreateSprint(ctx context.Context, userID string, req models.CreateSprintRequest) (*models.Sprint, error) {
	user, err := loadUser(ctx, s.userRepo, userID)
	if err != nil {
		return nil, err
	}

	tmpl, err := s.catalog.Get(req.Template)
	if err != nil {
		return nil, invalid(fmt.Sprintf("Unknown template %q", req.Template))
	}
	if tmpl.ID == templates.CustomTemplateID && !permission.CanUseFeature(user, permission.FeatureCustomTemplates) {
		return nil, fmt.Errorf("%w: custom templates require %s", ErrForbidden, requiredTierName(permission.FeatureCustomTemplates))
	}

	var end time.Time
	var duration int
	if req.EndDate != nil {
		end = *req.EndDate
		duration = durationDays(req.StartDate, end)
	} else {
		end, duration, err = s.catalog.EndDate(req.Template, req.StartDate, req.Duration)
		if err != nil {
			return nil, invalid(err.Error())
		}
	}

	tags := cleanTags(req.Tags)
	result := validation.Merge(
		validation.Title(req.Title),
		validation.DateRange(req.StartDate, end),
		validation.Tags(tags),
	)
	if duration > templates.MaxDurationDays {
		result = validation.Merge(result, validation.Result{Errors: []string{
			fmt.Sprintf("Duration must be between 1 and %d days", templates.MaxDurationDays),
		}})
	}
	if !result.IsValid {
		return nil, invalid(result.Errors...)
	}

	now := s.now()
	sprint := &models.Sprint{
		UserID:      userID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Type:        req.Type,
		Template:    tmpl.ID,
		Difficulty:  tmpl.Difficulty,
		Status:      models.SprintStatusDraft,
		StartDate:   req.StartDate,
		EndDate:     end,
		Duration:    duration,
		Tags:        tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	sprintID, err := s.sprintRepo.Create(ctx, sprint)
	if err != nil {
		return nil, fmt.Errorf("failed to create sprint in repository: %w", err)
	}
	sprint.ID = sprintID

	recordAudit(ctx, s.auditService, s.logger, models.AuditLog{
		UserID:     userID,
		Action:     models.AuditSprintCreate,
		TargetType: "SPRINT",
		TargetID:   sprintID,
		Timestamp:  now,
		Details: map[string]interface{}{
			"title":    sprint.Title,
			"template": sprint.Template,
			"duration": sprint.Duration,
		},
	})
	return sprint, nil
}

// ownedSprint loads a sprint and checks that userID owns it.
func ownedSprint(ctx context.Context, repo db.SprintRepository, userID, sprintID string) (*models.Sprint, error) {
	sprint, err := repo.GetByID(ctx, sprintID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: sprint with ID '%s'", ErrSprintNotFound, sprintID)
		}
		return nil, fmt.Errorf("failed to get sprint '%s' from repository: %w", sprintID, err)
	}
	if sprint.UserID != userID {
		return nil, fmt.Errorf("%w: user '%s' does not own sprint '%s'", ErrForbidden, userID, sprintID)
	}
	return sprint, nil
}

func (s *sprintService) GetSprint(ctx context.Context, userID, sprintID string) (*models.Sprint, error) {
	return ownedSprint(ctx, s.sprintRepo, userID, sprintID)
}

func (s *sprintService) ListSprints(ctx context.Context, userID string, filter models.SprintFilter) ([]*models.Sprint, error) {
	var problems []string
	if filter.Status != "" && !filter.Status.IsValid() {
		problems = append(problems, fmt.Sprintf("Unknown status %q", filter.Status))
	}
	if filter.Type != "" && !filter.Type.IsValid() {
		problems = append(problems, fmt.Sprintf("Unknown type %q", filter.Type))
	}
	if filter.Offset < 0 {
		problems = append(problems, "Offset cannot be negative")
	}
	if len(problems) > 0 {
		return nil, invalid(problems...)
	}
	switch {
	case filter.Limit <= 0:
		filter.Limit = defaultSprintListLimit
	case filter.Limit > maxSprintListLimit:
		filter.Limit = maxSprintListLimit
	}

	sprints, err := s.sprintRepo.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list sprints for user '%s': %w", userID, err)
	}
	if sprints == nil {
		sprints = []*models.Sprint{}
	}
	return sprints, nil
}

func (s *sprintService) conflict(ctx context.Context, sprintID string) error {
	current, err := s.sprintRepo.GetByID(ctx, sprintID)
	if err != nil {
		return fmt.Errorf("%w: reload failed: %v", ErrVersionConflict, err)
	}
	return &ConflictError{Current: current}
}

// UpdateSprint applies the non-nil fields of req.
func (s *sprintService) UpdateSprint(ctx context.Context, userID, sprintID string, req models.UpdateSprintRequest, expectedVersion *int64) (*models.Sprint, error) {
	sprint, err := ownedSprint(ctx, s.sprintRepo, userID, sprintID)
	if err != nil {
		return nil, err
	}
	if expectedVersion != nil && *expectedVersion != sprint.Version {
		return nil, &ConflictError{Current: sprint}
	}

	results := []validation.Result{}
	if req.Title != nil {
		results = append(results, validation.Title(*req.Title))
		sprint.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		sprint.Description = *req.Description
	}
	if req.Type != nil {
		if !req.Type.IsValid() {
			results = append(results, validation.Result{Errors: []string{fmt.Sprintf("Unknown type %q", *req.Type)}})
		}
		sprint.Type = *req.Type
	}
	if req.StartDate != nil || req.EndDate != nil {
		if req.StartDate != nil {
			sprint.StartDate = *req.StartDate
		}
		if req.EndDate != nil {
			sprint.EndDate = *req.EndDate
		}
		results = append(results, validation.DateRange(sprint.StartDate, sprint.EndDate))
		sprint.Duration = durationDays(sprint.StartDate, sprint.EndDate)
	}
	if req.Tags != nil {
		sprint.Tags = cleanTags(*req.Tags)
		results = append(results, validation.Tags(sprint.Tags))
	}
	if r := validation.Merge(results...); !r.IsValid {
		return nil, invalid(r.Errors...)
	}

	sprint.UpdatedAt = s.now()
	if err := s.sprintRepo.Update(ctx, sprint, sprint.Version); err != nil {
		if errors.Is(err, db.ErrVersionConflict) {
			return nil, s.conflict(ctx, sprintID)
		}
		return nil, fmt.Errorf("failed to update sprint '%s': %w", sprintID, err)
	}
	return sprint, nil
}

func (s *sprintService) deleteCascade(ctx context.Context, sprintID string) error {
	if err := s.taskRepo.DeleteBySprint(ctx, sprintID); err != nil {
		return fmt.Errorf("failed to delete tasks of sprint '%s': %w", sprintID, err)
	}
	if err := s.milestoneRepo.DeleteBySprint(ctx, sprintID); err != nil {
		return fmt.Errorf("failed to delete milestones of sprint '%s': %w", sprintID, err)
	}
	if err := s.sprintRepo.Delete(ctx, sprintID); err != nil {
		return fmt.Errorf("failed to delete sprint '%s': %w", sprintID, err)
	}
	return nil
}

// DeleteSprint removes a sprint with its tasks and milestones.
func (s *sprintService) DeleteSprint(ctx context.Context, userID, sprintID string) error {
	sprint, err := ownedSprint(ctx, s.sprintRepo, userID, sprintID)
	if err != nil {
		return err
	}
	if err := s.deleteCascade(ctx, sprintID); err != nil {
		return err
	}
	recordAudit(ctx, s.auditService, s.logger, models.AuditLog{
		UserID:     userID,
		Action:     models.AuditSprintDelete,
		TargetType: "SPRINT",
		TargetID:   sprintID,
		Timestamp:  s.now(),
		Details:    map[string]interface{}{"title": sprint.Title},
	})
	return nil
}

// DeleteSprints checks ownership of every ID before deleting any of them.
// Duplicate IDs are deleted once.
func (s *sprintService) DeleteSprints(ctx context.Context, userID string, sprintIDs []string) (int, error) {
	if len(sprintIDs) == 0 {
		return 0, invalid("At least one sprint ID is required")
	}
	if len(sprintIDs) > maxBatchDelete {
		return 0, invalid(fmt.Sprintf("No more than %d sprints can be deleted at once", maxBatchDelete))
	}

	seen := make(map[string]struct{}, len(sprintIDs))
	ids := make([]string, 0, len(sprintIDs))
	for _, id := range sprintIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, err := ownedSprint(ctx, s.sprintRepo, userID, id); err != nil {
			return 0, err
		}
		ids = append(ids, id)
	}

	for i, id := range ids {
		if err := s.deleteCascade(ctx, id); err != nil {
			return i, err
		}
	}
	recordAudit(ctx, s.auditService, s.logger, models.AuditLog{
		UserID:     userID,
		Action:     models.AuditSprintDelete,
		TargetType: "SPRINT",
		Timestamp:  s.now(),
		Details:    map[string]interface{}{"sprintIds": ids},
	})
	return len(ids), nil
}

func (s *sprintService) StartSprint(ctx context.Context, userID, sprintID string) (*models.Sprint, error) {
	return s.transition(ctx, userID, sprintID, models.SprintStatusActive)
}

func (s *sprintService) PauseSprint(ctx context.Context, userID, sprintID string) (*models.Sprint, error) {
	return s.transition(ctx, userID, sprintID, models.SprintStatusPaused)
}

func (s *sprintService) CompleteSprint(ctx context.Context, userID, sprintID string) (*models.Sprint, error) {
	return s.transition(ctx, userID, sprintID, models.SprintStatusCompleted)
}

func (s *sprintService) checkActiveLimit(ctx context.Context, userID string) error {
	user, err := loadUser(ctx, s.userRepo, userID)
	if err != nil {
		return err
	}
	limit := permission.ActiveSprintLimit(user.UserType)
	if limit == 0 {
		return nil
	}
	active, err := s.sprintRepo.CountByUserAndStatus(ctx, userID, models.SprintStatusActive)
	if err != nil {
		return fmt.Errorf("failed to count active sprints for user '%s': %w", userID, err)
	}
	if active >= limit {
		return fmt.Errorf("%w: plan '%s' allows %d active sprint(s), current count %d", ErrActiveSprintLimit, user.UserType, limit, active)
	}
	return nil
}

func (s *sprintService) transition(ctx context.Context, userID, sprintID string, to models.SprintStatus) (*models.Sprint, error) {
	sprint, err := ownedSprint(ctx, s.sprintRepo, userID, sprintID)
	if err != nil {
		return nil, err
	}
	from := sprint.Status
	if !from.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	if to == models.SprintStatusActive {
		if err := s.checkActiveLimit(ctx, userID); err != nil {
			return nil, err
		}
	}

	now := s.now()
	if to == models.SprintStatusCompleted {
		tasks, err := s.taskRepo.ListBySprint(ctx, sprintID)
		if err != nil {
			return nil, fmt.Errorf("failed to list tasks of sprint '%s': %w", sprintID, err)
		}
		// Stats are taken before the status changes so an active sprint keeps its progress.
		sprint.ApplyTaskStats(tasks)
		sprint.CompletedAt = &now
	}
	sprint.Status = to
	sprint.UpdatedAt = now

	if err := s.sprintRepo.Update(ctx, sprint, sprint.Version); err != nil {
		if errors.Is(err, db.ErrVersionConflict) {
			return nil, s.conflict(ctx, sprintID)
		}
		return nil, fmt.Errorf("failed to update status of sprint '%s': %w", sprintID, err)
	}

	recordAudit(ctx, s.auditService, s.logger, models.AuditLog{
		UserID:     userID,
		Action:     models.AuditSprintStatus,
		TargetType: "SPRINT",
		TargetID:   sprintID,
		Timestamp:  now,
		Details:    map[string]interface{}{"from": string(from), "to": string(to)},
	})

	if to == models.SprintStatusCompleted {
		s.notify(ctx, models.NotificationJob{
			UserID:   userID,
			Type:     models.NotificationSprintCompleted,
			Title:    "Sprint completed",
			Body:     fmt.Sprintf("You finished \"%s\" with %d%% progress.", sprint.Title, sprint.Progress),
			SprintID: sprintID,
		})
	}
	return sprint, nil
}

func (s *sprintService) notify(ctx context.Context, job models.NotificationJob) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, job); err != nil {
		s.logger.Warn("failed to publish notification", zap.String("type", string(job.Type)), zap.String("userID", job.UserID), zap.Error(err))
	}
}

func (s *sprintService) Countdown(ctx context.Context, userID, sprintID string) (insights.Countdown, error) {
	sprint, err := ownedSprint(ctx, s.sprintRepo, userID, sprintID)
	if err != nil {
		return insights.Countdown{}, err
	}
	return insights.NewCountdown(sprint.StartDate, sprint.EndDate, s.now()), nil
}

const statsRefreshAttempts = 3

// refreshSprintStats recomputes a sprint's stats and progress from its tasks,
// retrying when a concurrent write bumped the version in between.
func refreshSprintStats(ctx context.Context, sprints db.SprintRepository, tasks db.TaskRepository, sprintID string, now time.Time) (*models.Sprint, error) {
	var lastErr error
	for attempt := 0; attempt < statsRefreshAttempts; attempt++ {
		sprint, err := sprints.GetByID(ctx, sprintID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload sprint '%s': %w", sprintID, err)
		}
		list, err := tasks.ListBySprint(ctx, sprintID)
		if err != nil {
			return nil, fmt.Errorf("failed to list tasks of sprint '%s': %w", sprintID, err)
		}
		sprint.ApplyTaskStats(list)
		sprint.UpdatedAt = now
		err = sprints.Update(ctx, sprint, sprint.Version)
		if err == nil {
			return sprint, nil
		}
		if !errors.Is(err, db.ErrVersionConflict) {
			return nil, fmt.Errorf("failed to store stats of sprint '%s': %w", sprintID, err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", ErrVersionConflict, lastErr)
}
