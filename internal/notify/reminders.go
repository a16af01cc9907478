package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"sprintify-backend-go/internal/cache"
	"sprintify-backend-go/internal/db"
	"sprintify-backend-go/internal/insights"
	"sprintify-backend-go/internal/models"
)

// DeadlineWarningDays is how close to its end date an active sprint must be
// before a deadline warning goes out.
const DeadlineWarningDays = 3

const sentMarkerTTL = 36 * time.Hour

// ReminderScanner walks active sprints and publishes daily reminders,
// deadline warnings and overdue-task notices. Each notice goes out at most
// once per sprint (or task) per calendar day.
type ReminderScanner struct {
	sprints   db.SprintRepository
	tasks     db.TaskRepository
	publisher Publisher
	sent      cache.Cache
	logger    *zap.Logger
	now       func() time.Time
}

func NewReminderScanner(sprints db.SprintRepository, tasks db.TaskRepository, publisher Publisher, sent cache.Cache, logger *zap.Logger) *ReminderScanner {
	return &ReminderScanner{
		sprints:   sprints,
		tasks:     tasks,
		publisher: publisher,
		sent:      sent,
		logger:    logger,
		now:       time.Now,
	}
}

// Run scans once immediately and then every interval until ctx is done.
func (s *ReminderScanner) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if n, err := s.Scan(ctx); err != nil {
			s.logger.Error("Reminder scan failed", zap.Error(err))
		} else {
			s.logger.Info("Reminder scan finished", zap.Int("published", n))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Scan publishes every notice that is due and returns how many were published.
func (s *ReminderScanner) Scan(ctx context.Context) (int, error) {
	now := s.now()
	active, err := s.sprints.ListByStatus(ctx, models.SprintStatusActive)
	if err != nil {
		return 0, fmt.Errorf("failed to list active sprints: %w", err)
	}

	published := 0
	for _, sp := range active {
		if err := ctx.Err(); err != nil {
			return published, err
		}
		for _, job := range s.jobsFor(ctx, sp, now) {
			ok, err := s.markSent(ctx, job, now)
			if err != nil {
				s.logger.Warn("Reminder dedupe check failed", zap.String("sprintID", sp.ID), zap.Error(err))
				continue
			}
			if !ok {
				continue
			}
			if err := s.publisher.Publish(ctx, job); err != nil {
				s.logger.Warn("Failed to publish reminder", zap.String("sprintID", sp.ID), zap.String("type", string(job.Type)), zap.Error(err))
				// Free the marker so the next scan today tries again.
				if err := s.sent.Delete(ctx, sentKey(job, now)); err != nil {
					s.logger.Warn("Failed to release reminder marker", zap.String("sprintID", sp.ID), zap.Error(err))
				}
				continue
			}
			published++
		}
	}
	return published, nil
}

func (s *ReminderScanner) jobsFor(ctx context.Context, sp *models.Sprint, now time.Time) []models.NotificationJob {
	jobs := []models.NotificationJob{{
		UserID:   sp.UserID,
		Type:     models.NotificationDailyReminder,
		Title:    "Time to work on your sprint",
		Body:     fmt.Sprintf("Keep \"%s\" moving: it is %d%% done.", sp.Title, sp.Progress),
		SprintID: sp.ID,
	}}

	if days := insights.DaysRemaining(sp.EndDate, now); days > 0 && days <= DeadlineWarningDays {
		jobs = append(jobs, models.NotificationJob{
			UserID:             sp.UserID,
			Type:               models.NotificationDeadlineWarning,
			Title:              "Sprint deadline approaching",
			Body:               fmt.Sprintf("\"%s\" ends in %d day(s).", sp.Title, days),
			SprintID:           sp.ID,
			RequireInteraction: true,
		})
	}

	tasks, err := s.tasks.ListBySprint(ctx, sp.ID)
	if err != nil {
		s.logger.Warn("Failed to list tasks for reminders", zap.String("sprintID", sp.ID), zap.Error(err))
		return jobs
	}
	for _, t := range tasks {
		if !t.IsOverdue(now) {
			continue
		}
		jobs = append(jobs, models.NotificationJob{
			UserID:   sp.UserID,
			Type:     models.NotificationTaskOverdue,
			Title:    "Task overdue",
			Body:     fmt.Sprintf("\"%s\" was due %s.", t.Title, t.DueDate.Format("Jan 2")),
			SprintID: sp.ID,
			TaskID:   t.ID,
		})
	}
	return jobs
}

func sentKey(job models.NotificationJob, now time.Time) string {
	return fmt.Sprintf("sprintify:notified:%s:%s:%s:%s:%s", job.UserID, job.SprintID, job.TaskID, job.Type, now.Format("2006-01-02"))
}

func (s *ReminderScanner) markSent(ctx context.Context, job models.NotificationJob, now time.Time) (bool, error) {
	return s.sent.SetNX(ctx, sentKey(job, now), "1", sentMarkerTTL)
}
