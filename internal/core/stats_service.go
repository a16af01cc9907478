package core

import (
	"context"
	"fmt"
	"time"

	"sprintify-backend-go/internal/db"
	"sprintify-backend-go/internal/insights"
	"sprintify-backend-go/internal/models"
	"sprintify-backend-go/internal/permission"
)

// ProgressReport is the payload of the advanced statistics view.
type ProgressReport struct {
	Summary insights.ProgressSummary          `json:"summary"`
	BurnUp  map[string][]insights.BurnUpPoint `json:"burnUp"` // keyed by active sprint ID
}

type statsService struct {
	sprintRepo db.SprintRepository
	taskRepo   db.TaskRepository
	userRepo   db.UserRepository
	now        func() time.Time
}

func NewStatsService(sr db.SprintRepository, tr db.TaskRepository, ur db.UserRepository) StatsService {
	return &statsService{sprintRepo: sr, taskRepo: tr, userRepo: ur, now: time.Now}
}

func (s *statsService) load(ctx context.Context, userID string) ([]*models.Sprint, []*models.Task, error) {
	sprints, err := s.sprintRepo.ListByUser(ctx, userID, models.SprintFilter{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list sprints for user '%s': %w", userID, err)
	}
	tasks, err := s.taskRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list tasks for user '%s': %w", userID, err)
	}
	return sprints, tasks, nil
}

func (s *statsService) Heatmap(ctx context.Context, userID string) (insights.Heatmap, error) {
	sprints, tasks, err := s.load(ctx, userID)
	if err != nil {
		return insights.Heatmap{}, err
	}
	return insights.BuildHeatmap(sprints, tasks, s.now()), nil
}

func (s *statsService) Progress(ctx context.Context, userID string) (*ProgressReport, error) {
	if err := requireFeature(ctx, s.userRepo, userID, permission.FeatureAdvancedStats); err != nil {
		return nil, err
	}
	sprints, tasks, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()

	bySprint := make(map[string][]*models.Task)
	for _, t := range tasks {
		bySprint[t.SprintID] = append(bySprint[t.SprintID], t)
	}
	report := &ProgressReport{
		Summary: insights.Summarize(sprints, tasks, now),
		BurnUp:  make(map[string][]insights.BurnUpPoint),
	}
	for _, sp := range sprints {
		if sp.Status == models.SprintStatusActive {
			report.BurnUp[sp.ID] = insights.BurnUp(sp, bySprint[sp.ID], now)
		}
	}
	return report, nil
}
