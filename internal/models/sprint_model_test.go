package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSprintStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to SprintStatus
		ok       bool
	}{
		{SprintStatusDraft, SprintStatusActive, true},
		{SprintStatusDraft, SprintStatusPaused, false},
		{SprintStatusDraft, SprintStatusCompleted, false},
		{SprintStatusActive, SprintStatusPaused, true},
		{SprintStatusPaused, SprintStatusActive, true},
		{SprintStatusActive, SprintStatusCompleted, true},
		{SprintStatusPaused, SprintStatusCompleted, true},
		{SprintStatusActive, SprintStatusCancelled, true},
		{SprintStatusCompleted, SprintStatusActive, false},
		{SprintStatusCancelled, SprintStatusActive, false},
		{SprintStatusActive, SprintStatusDraft, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
	assert.True(t, SprintStatusCompleted.IsTerminal())
	assert.False(t, SprintStatusPaused.IsTerminal())
}

func TestApplyTaskStats(t *testing.T) {
	tasks := []*Task{
		{Status: TaskStatusCompleted, EstimatedTime: 30, ActualTime: 40},
		{Status: TaskStatusTodo, EstimatedTime: 60},
		{Status: TaskStatusInProgress, EstimatedTime: 30, ActualTime: 10},
		{Status: TaskStatusCompleted, EstimatedTime: 30, ActualTime: 20},
		{Status: TaskStatusCancelled, EstimatedTime: 500},
	}
	s := &Sprint{Status: SprintStatusDraft}
	s.ApplyTaskStats(tasks)

	assert.Equal(t, 4, s.Stats.TotalTasks)
	assert.Equal(t, 2, s.Stats.CompletedTasks)
	assert.Equal(t, 150, s.Stats.TotalTime)
	assert.Equal(t, 70, s.Stats.ActualTime)
	assert.InDelta(t, 50.0, s.Stats.CompletionRate, 0.001)
	assert.Equal(t, 50, s.Progress)
}

func TestApplyTaskStatsProgressMonotonicWhileActive(t *testing.T) {
	s := &Sprint{Status: SprintStatusActive, Progress: 75}
	s.ApplyTaskStats([]*Task{{Status: TaskStatusCompleted}, {Status: TaskStatusTodo}})
	assert.Equal(t, 75, s.Progress)
	assert.Equal(t, 1, s.Stats.CompletedTasks)

	s.ApplyTaskStats([]*Task{{Status: TaskStatusCompleted}})
	assert.Equal(t, 100, s.Progress)

	paused := &Sprint{Status: SprintStatusPaused, Progress: 75}
	paused.ApplyTaskStats([]*Task{{Status: TaskStatusTodo}})
	assert.Equal(t, 0, paused.Progress)
}

func TestUserTypeRank(t *testing.T) {
	assert.Less(t, UserTypeNormal.Rank(), UserTypePremium.Rank())
	assert.Less(t, UserTypePremium.Rank(), UserTypeAdmin.Rank())
	assert.Equal(t, 0, UserType("").Rank())
	assert.False(t, UserType("owner").IsValid())
}
