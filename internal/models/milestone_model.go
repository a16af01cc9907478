package models

import "time"

type MilestoneStatus string

const (
	MilestoneStatusPending  MilestoneStatus = "pending"
	MilestoneStatusAchieved MilestoneStatus = "achieved"
	MilestoneStatusMissed   MilestoneStatus = "missed"
)

func (s MilestoneStatus) IsValid() bool {
	return s == MilestoneStatusPending || s == MilestoneStatusAchieved || s == MilestoneStatusMissed
}

// Milestone is a dated checkpoint within a sprint.
type Milestone struct {
	ID           string          `json:"id" firestore:"-"`
	SprintID     string          `json:"sprintId" firestore:"sprintId"`
	UserID       string          `json:"userId" firestore:"userId"`
	Title        string          `json:"title" firestore:"title"`
	TargetDate   time.Time       `json:"targetDate" firestore:"targetDate"`
	AchievedDate *time.Time      `json:"achievedDate,omitempty" firestore:"achievedDate,omitempty"`
	Status       MilestoneStatus `json:"status" firestore:"status"`
	Criteria     []string        `json:"criteria" firestore:"criteria"`
	RelatedTasks []string        `json:"relatedTasks" firestore:"relatedTasks"`
}
