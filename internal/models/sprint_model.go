package models

import "time"

// SprintType distinguishes what a sprint is for.
type SprintType string

const (
	SprintTypeLearning SprintType = "learning"
	SprintTypeProject  SprintType = "project"
)

func (t SprintType) IsValid() bool {
	return t == SprintTypeLearning || t == SprintTypeProject
}

// SprintStatus is the lifecycle state of a sprint.
type SprintStatus string

const (
	SprintStatusDraft     SprintStatus = "draft"
	SprintStatusActive    SprintStatus = "active"
	SprintStatusPaused    SprintStatus = "paused"
	SprintStatusCompleted SprintStatus = "completed"
	SprintStatusCancelled SprintStatus = "cancelled"
)

var sprintTransitions = map[SprintStatus][]SprintStatus{
	SprintStatusDraft:  {SprintStatusActive, SprintStatusCancelled},
	SprintStatusActive: {SprintStatusPaused, SprintStatusCompleted, SprintStatusCancelled},
	SprintStatusPaused: {SprintStatusActive, SprintStatusCompleted, SprintStatusCancelled},
}

func (s SprintStatus) IsValid() bool {
	switch s {
	case SprintStatusDraft, SprintStatusActive, SprintStatusPaused, SprintStatusCompleted, SprintStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed out of s.
func (s SprintStatus) IsTerminal() bool {
	return s == SprintStatusCompleted || s == SprintStatusCancelled
}

// CanTransitionTo reports whether a sprint in status s may move to next.
func (s SprintStatus) CanTransitionTo(next SprintStatus) bool {
	for _, allowed := range sprintTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SprintStats aggregates task figures for a sprint. Times are minutes.
type SprintStats struct {
	TotalTasks     int     `json:"totalTasks" firestore:"totalTasks"`
	CompletedTasks int     `json:"completedTasks" firestore:"completedTasks"`
	TotalTime      int     `json:"totalTime" firestore:"totalTime"`
	ActualTime     int     `json:"actualTime" firestore:"actualTime"`
	CompletionRate float64 `json:"completionRate" firestore:"completionRate"`
}

// Sprint is a time-boxed goal owned by a single user.
type Sprint struct {
	ID          string       `json:"id" firestore:"-"`
	UserID      string       `json:"userId" firestore:"userId"`
	Title       string       `json:"title" firestore:"title"`
	Description string       `json:"description" firestore:"description"`
	Type        SprintType   `json:"type" firestore:"type"`
	Template    string       `json:"template" firestore:"template"`
	Difficulty  string       `json:"difficulty" firestore:"difficulty"`
	Status      SprintStatus `json:"status" firestore:"status"`
	StartDate   time.Time    `json:"startDate" firestore:"startDate"`
	EndDate     time.Time    `json:"endDate" firestore:"endDate"`
	Duration    int          `json:"duration" firestore:"duration"` // days
	Progress    int          `json:"progress" firestore:"progress"` // 0-100
	Stats       SprintStats  `json:"stats" firestore:"stats"`
	Tags        []string     `json:"tags" firestore:"tags"`
	// Version increases by one on every write and backs If-Match checks.
	Version     int64      `json:"version" firestore:"version"`
	CreatedAt   time.Time  `json:"createdAt" firestore:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" firestore:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty" firestore:"completedAt,omitempty"`
}

// ApplyTaskStats recomputes Stats and Progress from the sprint's tasks.
// Cancelled tasks do not count. While the sprint is active, progress never goes down.
func (s *Sprint) ApplyTaskStats(tasks []*Task) {
	var stats SprintStats
	for _, t := range tasks {
		if t.Status == TaskStatusCancelled {
			continue
		}
		stats.TotalTasks++
		stats.TotalTime += t.EstimatedTime
		stats.ActualTime += t.ActualTime
		if t.Status == TaskStatusCompleted {
			stats.CompletedTasks++
		}
	}
	derived := 0
	if stats.TotalTasks > 0 {
		stats.CompletionRate = float64(stats.CompletedTasks) / float64(stats.TotalTasks) * 100
		derived = stats.CompletedTasks * 100 / stats.TotalTasks
	}
	s.Stats = stats
	if s.Status == SprintStatusActive && derived < s.Progress {
		return
	}
	s.Progress = derived
}
