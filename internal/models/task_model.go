package models

import "time"

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Task belongs to exactly one sprint. EstimatedTime and ActualTime are minutes.
type Task struct {
	ID            string     `json:"id" firestore:"-"`
	SprintID      string     `json:"sprintId" firestore:"sprintId"`
	UserID        string     `json:"userId" firestore:"userId"`
	Title         string     `json:"title" firestore:"title"`
	Description   string     `json:"description,omitempty" firestore:"description,omitempty"`
	Status        TaskStatus `json:"status" firestore:"status"`
	Priority      Priority   `json:"priority" firestore:"priority"`
	EstimatedTime int        `json:"estimatedTime" firestore:"estimatedTime"`
	ActualTime    int        `json:"actualTime" firestore:"actualTime"`
	DueDate       *time.Time `json:"dueDate,omitempty" firestore:"dueDate,omitempty"`
	Dependencies  []string   `json:"dependencies" firestore:"dependencies"` // sibling task IDs
	Progress      int        `json:"progress" firestore:"progress"`
	Tags          []string   `json:"tags" firestore:"tags"`
	CreatedAt     time.Time  `json:"createdAt" firestore:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt" firestore:"updatedAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty" firestore:"completedAt,omitempty"`
	StartedAt     *time.Time `json:"startedAt,omitempty" firestore:"startedAt,omitempty"`
}

// IsOverdue reports whether the task has a due date before now and is still open.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Status == TaskStatusCompleted || t.Status == TaskStatusCancelled {
		return false
	}
	return t.DueDate.Before(now)
}
