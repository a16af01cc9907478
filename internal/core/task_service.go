package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"sprintify-backend-go/internal/db"
	"sprintify-backend-go/internal/models"
	"sprintify-backend-go/internal/notify"
	"sprintify-backend-go/internal/validation"
)

// taskService implements the TaskService interface.
type taskService struct {
	sprintRepo    db.SprintRepository
	taskRepo      db.TaskRepository
	milestoneRepo db.MilestoneRepository
	publisher     notify.Publisher
	logger        *zap.Logger
	now           func() time.Time
}

// NewTaskService creates a new TaskService instance.
func NewTaskService(sr db.SprintRepository, tr db.TaskRepository, mr db.MilestoneRepository, publisher notify.Publisher, logger *zap.Logger) TaskService {
	return &taskService{
		sprintRepo:    sr,
		taskRepo:      tr,
		milestoneRepo: mr,
		publisher:     publisher,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *taskService) editableSprint(ctx context.Context, userID, sprintID string) (*models.Sprint, error) {
	sprint, err := ownedSprint(ctx, s.sprintRepo, userID, sprintID)
	if err != nil {
		return nil, err
	}
	if sprint.Status.IsTerminal() {
		return nil, invalid(fmt.Sprintf("Sprint is %s and can no longer be changed", sprint.Status))
	}
	return sprint, nil
}

func (s *taskService) sprintTask(ctx context.Context, sprintID, taskID string) (*models.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: task with ID '%s'", ErrTaskNotFound, taskID)
		}
		return nil, fmt.Errorf("failed to get task '%s': %w", taskID, err)
	}
	if task.SprintID != sprintID {
		return nil, fmt.Errorf("%w: task '%s' is not in sprint '%s'", ErrTaskNotFound, taskID, sprintID)
	}
	return task, nil
}

// refreshStats keeps the sprint's derived stats in step with its tasks. The
// task write already happened, so a failure here is logged, not returned.
func (s *taskService) refreshStats(ctx context.Context, sprintID string) {
	if _, err := refreshSprintStats(ctx, s.sprintRepo, s.taskRepo, sprintID, s.now()); err != nil {
		s.logger.Warn("failed to refresh sprint stats", zap.String("sprintID", sprintID), zap.Error(err))
	}
}

func (s *taskService) ListTasks(ctx context.Context, userID, sprintID string) ([]*models.Task, error) {
	if _, err := ownedSprint(ctx, s.sprintRepo, userID, sprintID); err != nil {
		return nil, err
	}
	tasks, err := s.taskRepo.ListBySprint(ctx, sprintID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks of sprint '%s': %w", sprintID, err)
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	return tasks, nil
}

func (s *taskService) CreateTask(ctx context.Context, userID, sprintID string, req models.CreateTaskRequest) (*models.Task, error) {
	if _, err := s.editableSprint(ctx, userID, sprintID); err != nil {
		return nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	tags := cleanTags(req.Tags)
	results := []validation.Result{validation.Title(req.Title), validation.Tags(tags)}
	if !priority.IsValid() {
		results = append(results, validation.Result{Errors: []string{fmt.Sprintf("Unknown priority %q", priority)}})
	}
	if req.EstimatedTime < 0 {
		results = append(results, validation.Result{Errors: []string{"Estimated time cannot be negative"}})
	}
	if r := validation.Merge(results...); !r.IsValid {
		return nil, invalid(r.Errors...)
	}

	deps := req.Dependencies
	if deps == nil {
		deps = []string{}
	}
	if len(deps) > 0 {
		siblings, err := s.taskRepo.ListBySprint(ctx, sprintID)
		if err != nil {
			return nil, fmt.Errorf("failed to list tasks of sprint '%s': %w", sprintID, err)
		}
		if err := validateDependencies("", deps, siblings); err != nil {
			return nil, err
		}
	}

	now := s.now()
	task := &models.Task{
		SprintID:      sprintID,
		UserID:        userID,
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		Status:        models.TaskStatusTodo,
		Priority:      priority,
		EstimatedTime: req.EstimatedTime,
		DueDate:       req.DueDate,
		Dependencies:  deps,
		Tags:          tags,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	taskID, err := s.taskRepo.Create(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task in repository: %w", err)
	}
	task.ID = taskID
	s.refreshStats(ctx, sprintID)
	return task, nil
}

// applyTaskStatus sets the timestamps that follow a status change.
func applyTaskStatus(task *models.Task, status models.TaskStatus, now time.Time) {
	if task.Status == status {
		return
	}
	switch status {
	case models.TaskStatusInProgress:
		if task.StartedAt == nil {
			task.StartedAt = &now
		}
		task.CompletedAt = nil
	case models.TaskStatusCompleted:
		if task.StartedAt == nil {
			task.StartedAt = &now
		}
		task.CompletedAt = &now
		task.Progress = 100
	default:
		task.CompletedAt = nil
	}
	task.Status = status
}

func (s *taskService) UpdateTask(ctx context.Context, userID, sprintID, taskID string, req models.UpdateTaskRequest) (*models.Task, error) {
	if _, err := s.editableSprint(ctx, userID, sprintID); err != nil {
		return nil, err
	}
	task, err := s.sprintTask(ctx, sprintID, taskID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var results []validation.Result
	fail := func(msg string) { results = append(results, validation.Result{Errors: []string{msg}}) }

	if req.Title != nil {
		results = append(results, validation.Title(*req.Title))
		task.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Priority != nil {
		if !req.Priority.IsValid() {
			fail(fmt.Sprintf("Unknown priority %q", *req.Priority))
		}
		task.Priority = *req.Priority
	}
	if req.EstimatedTime != nil {
		if *req.EstimatedTime < 0 {
			fail("Estimated time cannot be negative")
		}
		task.EstimatedTime = *req.EstimatedTime
	}
	if req.ActualTime != nil {
		if *req.ActualTime < 0 {
			fail("Actual time cannot be negative")
		}
		task.ActualTime = *req.ActualTime
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.Progress != nil {
		if *req.Progress < 0 || *req.Progress > 100 {
			fail("Progress must be between 0 and 100")
		}
		task.Progress = *req.Progress
	}
	if req.Tags != nil {
		task.Tags = cleanTags(*req.Tags)
		results = append(results, validation.Tags(task.Tags))
	}
	if req.Status != nil {
		if !req.Status.IsValid() {
			fail(fmt.Sprintf("Unknown status %q", *req.Status))
		} else {
			applyTaskStatus(task, *req.Status, now)
		}
	}
	if r := validation.Merge(results...); !r.IsValid {
		return nil, invalid(r.Errors...)
	}

	if req.Dependencies != nil {
		siblings, err := s.taskRepo.ListBySprint(ctx, sprintID)
		if err != nil {
			return nil, fmt.Errorf("failed to list tasks of sprint '%s': %w", sprintID, err)
		}
		if err := validateDependencies(taskID, *req.Dependencies, siblings); err != nil {
			return nil, err
		}
		task.Dependencies = append([]string{}, *req.Dependencies...)
	}

	task.UpdatedAt = now
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task '%s': %w", taskID, err)
	}
	s.refreshStats(ctx, sprintID)
	return task, nil
}

// DeleteTask removes a task and drops references to it from sibling tasks and milestones.
func (s *taskService) DeleteTask(ctx context.Context, userID, sprintID, taskID string) error {
	if _, err := ownedSprint(ctx, s.sprintRepo, userID, sprintID); err != nil {
		return err
	}
	if _, err := s.sprintTask(ctx, sprintID, taskID); err != nil {
		return err
	}
	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		return fmt.Errorf("failed to delete task '%s': %w", taskID, err)
	}

	siblings, err := s.taskRepo.ListBySprint(ctx, sprintID)
	if err != nil {
		return fmt.Errorf("failed to list tasks of sprint '%s': %w", sprintID, err)
	}
	for _, t := range siblings {
		if kept, changed := without(t.Dependencies, taskID); changed {
			t.Dependencies = kept
			if err := s.taskRepo.Update(ctx, t); err != nil {
				s.logger.Warn("failed to drop dependency on deleted task", zap.String("taskID", t.ID), zap.Error(err))
			}
		}
	}
	milestones, err := s.milestoneRepo.ListBySprint(ctx, sprintID)
	if err != nil {
		return fmt.Errorf("failed to list milestones of sprint '%s': %w", sprintID, err)
	}
	for _, m := range milestones {
		if kept, changed := without(m.RelatedTasks, taskID); changed {
			m.RelatedTasks = kept
			if err := s.milestoneRepo.Update(ctx, m); err != nil {
				s.logger.Warn("failed to drop related task from milestone", zap.String("milestoneID", m.ID), zap.Error(err))
			}
		}
	}
	s.refreshStats(ctx, sprintID)
	return nil
}

func without(ids []string, id string) ([]string, bool) {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out, len(out) != len(ids)
}
