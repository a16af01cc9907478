package insights

import (
	"time"

	"sprintify-backend-go/internal/models"
)

// BurnUpPoint is one day of a sprint burn-up chart.
type BurnUpPoint struct {
	Date      string  `json:"date"`
	Completed int     `json:"completed"`
	Ideal     float64 `json:"ideal"`
}

// BurnUp returns cumulative completed tasks per sprint day, from the start
// date up to the earlier of the end date and now, next to a linear ideal line.
func BurnUp(sprint *models.Sprint, tasks []*models.Task, now time.Time) []BurnUpPoint {
	if sprint == nil || !sprint.EndDate.After(sprint.StartDate) {
		return nil
	}
	loc := sprint.StartDate.Location()
	start := dayStart(sprint.StartDate)
	end := sprint.EndDate
	if now.Before(end) {
		end = now
	}
	duration := sprint.Duration
	if duration <= 0 {
		duration = DaysRemaining(sprint.EndDate, sprint.StartDate)
	}

	var total int
	var done []time.Time
	for _, t := range tasks {
		if t.Status == models.TaskStatusCancelled {
			continue
		}
		total++
		if t.Status == models.TaskStatusCompleted && t.CompletedAt != nil {
			done = append(done, t.CompletedAt.In(loc))
		}
	}

	var points []BurnUpPoint
	for day := 0; ; day++ {
		dayEnd := start.AddDate(0, 0, day+1)
		if day > 0 && !start.AddDate(0, 0, day).Before(end) {
			break
		}
		completed := 0
		for _, c := range done {
			if c.Before(dayEnd) {
				completed++
			}
		}
		ideal := float64(total) * float64(day+1) / float64(duration)
		if ideal > float64(total) {
			ideal = float64(total)
		}
		points = append(points, BurnUpPoint{
			Date:      start.AddDate(0, 0, day).Format(dateLayout),
			Completed: completed,
			Ideal:     ideal,
		})
	}
	return points
}

// ProgressSummary is the aggregate shown on the statistics page.
type ProgressSummary struct {
	TotalSprints      int                         `json:"totalSprints"`
	ByStatus          map[models.SprintStatus]int `json:"byStatus"`
	ByPriority        map[models.Priority]int     `json:"byPriority"`
	AverageProgress   float64                     `json:"averageProgress"`
	TotalTasks        int                         `json:"totalTasks"`
	CompletedTasks    int                         `json:"completedTasks"`
	TaskCompletion    float64                     `json:"taskCompletion"`
	EstimatedMinutes  int                         `json:"estimatedMinutes"`
	ActualMinutes     int                         `json:"actualMinutes"`
	OverdueTasks      int                         `json:"overdueTasks"`
	SprintsCompletion float64                     `json:"sprintsCompletion"`
}

func StatusBreakdown(sprints []*models.Sprint) map[models.SprintStatus]int {
	out := make(map[models.SprintStatus]int)
	for _, s := range sprints {
		out[s.Status]++
	}
	return out
}

func PriorityBreakdown(tasks []*models.Task) map[models.Priority]int {
	out := make(map[models.Priority]int)
	for _, t := range tasks {
		out[t.Priority]++
	}
	return out
}

// Summarize builds a ProgressSummary across all of a user's sprints and tasks.
func Summarize(sprints []*models.Sprint, tasks []*models.Task, now time.Time) ProgressSummary {
	sum := ProgressSummary{
		TotalSprints: len(sprints),
		ByStatus:     StatusBreakdown(sprints),
		ByPriority:   PriorityBreakdown(tasks),
	}
	if len(sprints) > 0 {
		progress := 0
		for _, s := range sprints {
			progress += s.Progress
		}
		sum.AverageProgress = float64(progress) / float64(len(sprints))
		sum.SprintsCompletion = float64(sum.ByStatus[models.SprintStatusCompleted]) / float64(len(sprints)) * 100
	}
	for _, t := range tasks {
		if t.Status == models.TaskStatusCancelled {
			continue
		}
		sum.TotalTasks++
		sum.EstimatedMinutes += t.EstimatedTime
		sum.ActualMinutes += t.ActualTime
		if t.Status == models.TaskStatusCompleted {
			sum.CompletedTasks++
		}
		if t.IsOverdue(now) {
			sum.OverdueTasks++
		}
	}
	if sum.TotalTasks > 0 {
		sum.TaskCompletion = float64(sum.CompletedTasks) / float64(sum.TotalTasks) * 100
	}
	return sum
}
