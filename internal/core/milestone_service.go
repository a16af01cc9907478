package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"sprintify-backend-go/internal/db"
	"sprintify-backend-go/internal/models"
	"sprintify-backend-go/internal/validation"
)

func (s *taskService) checkRelatedTasks(ctx context.Context, sprintID string, related []string) error {
	if len(related) == 0 {
		return nil
	}
	tasks, err := s.taskRepo.ListBySprint(ctx, sprintID)
	if err != nil {
		return fmt.Errorf("failed to list tasks of sprint '%s': %w", sprintID, err)
	}
	known := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		known[t.ID] = struct{}{}
	}
	var problems []string
	for _, id := range related {
		if _, ok := known[id]; !ok {
			problems = append(problems, fmt.Sprintf("Related task %q is not a task in this sprint", id))
		}
	}
	if len(problems) > 0 {
		return invalid(problems...)
	}
	return nil
}

func (s *taskService) ListMilestones(ctx context.Context, userID, sprintID string) ([]*models.Milestone, error) {
	if _, err := ownedSprint(ctx, s.sprintRepo, userID, sprintID); err != nil {
		return nil, err
	}
	milestones, err := s.milestoneRepo.ListBySprint(ctx, sprintID)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones of sprint '%s': %w", sprintID, err)
	}
	if milestones == nil {
		milestones = []*models.Milestone{}
	}
	return milestones, nil
}

func (s *taskService) CreateMilestone(ctx context.Context, userID, sprintID string, req models.CreateMilestoneRequest) (*models.Milestone, error) {
	if _, err := s.editableSprint(ctx, userID, sprintID); err != nil {
		return nil, err
	}
	if r := validation.Title(req.Title); !r.IsValid {
		return nil, invalid(r.Errors...)
	}
	if req.TargetDate.IsZero() {
		return nil, invalid("Target date is required")
	}
	if err := s.checkRelatedTasks(ctx, sprintID, req.RelatedTasks); err != nil {
		return nil, err
	}

	m := &models.Milestone{
		SprintID:     sprintID,
		UserID:       userID,
		Title:        strings.TrimSpace(req.Title),
		TargetDate:   req.TargetDate,
		Status:       models.MilestoneStatusPending,
		Criteria:     nonNil(req.Criteria),
		RelatedTasks: nonNil(req.RelatedTasks),
	}
	id, err := s.milestoneRepo.Create(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("failed to create milestone in repository: %w", err)
	}
	m.ID = id
	return m, nil
}

func (s *taskService) sprintMilestone(ctx context.Context, sprintID, milestoneID string) (*models.Milestone, error) {
	m, err := s.milestoneRepo.GetByID(ctx, milestoneID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: milestone with ID '%s'", ErrMilestoneNotFound, milestoneID)
		}
		return nil, fmt.Errorf("failed to get milestone '%s': %w", milestoneID, err)
	}
	if m.SprintID != sprintID {
		return nil, fmt.Errorf("%w: milestone '%s' is not in sprint '%s'", ErrMilestoneNotFound, milestoneID, sprintID)
	}
	return m, nil
}

// UpdateMilestone applies req. Moving a milestone to achieved stamps the
// achieved date and notifies the owner.
func (s *taskService) UpdateMilestone(ctx context.Context, userID, sprintID, milestoneID string, req models.UpdateMilestoneRequest) (*models.Milestone, error) {
	if _, err := s.editableSprint(ctx, userID, sprintID); err != nil {
		return nil, err
	}
	m, err := s.sprintMilestone(ctx, sprintID, milestoneID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if r := validation.Title(*req.Title); !r.IsValid {
			return nil, invalid(r.Errors...)
		}
		m.Title = strings.TrimSpace(*req.Title)
	}
	if req.TargetDate != nil {
		m.TargetDate = *req.TargetDate
	}
	if req.Criteria != nil {
		m.Criteria = nonNil(*req.Criteria)
	}
	if req.RelatedTasks != nil {
		if err := s.checkRelatedTasks(ctx, sprintID, *req.RelatedTasks); err != nil {
			return nil, err
		}
		m.RelatedTasks = nonNil(*req.RelatedTasks)
	}
	achieved := false
	if req.Status != nil && *req.Status != m.Status {
		if !req.Status.IsValid() {
			return nil, invalid(fmt.Sprintf("Unknown milestone status %q", *req.Status))
		}
		m.Status = *req.Status
		if m.Status == models.MilestoneStatusAchieved {
			now := s.now()
			m.AchievedDate = &now
			achieved = true
		} else {
			m.AchievedDate = nil
		}
	}

	if err := s.milestoneRepo.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to update milestone '%s': %w", milestoneID, err)
	}
	if achieved && s.publisher != nil {
		job := models.NotificationJob{
			UserID:   userID,
			Type:     models.NotificationMilestoneAchieved,
			Title:    "Milestone achieved",
			Body:     fmt.Sprintf("You reached \"%s\".", m.Title),
			SprintID: sprintID,
		}
		if err := s.publisher.Publish(ctx, job); err != nil {
			s.logger.Warn("failed to publish milestone notification", zap.String("milestoneID", milestoneID), zap.Error(err))
		}
	}
	return m, nil
}

func (s *taskService) DeleteMilestone(ctx context.Context, userID, sprintID, milestoneID string) error {
	if _, err := ownedSprint(ctx, s.sprintRepo, userID, sprintID); err != nil {
		return err
	}
	if _, err := s.sprintMilestone(ctx, sprintID, milestoneID); err != nil {
		return err
	}
	if err := s.milestoneRepo.Delete(ctx, milestoneID); err != nil {
		return fmt.Errorf("failed to delete milestone '%s': %w", milestoneID, err)
	}
	return nil
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
