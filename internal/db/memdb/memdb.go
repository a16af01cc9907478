// Package memdb provides in-memory implementations of the db repositories.
// It backs STORAGE_DRIVER=memory and the service tests. Every value handed in
// or out is copied so callers never share state with the store.
package memdb

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"sprintify-backend-go/internal/db"
	"sprintify-backend-go/internal/models"
)

// Store holds all collections behind one lock, so cross-collection
// operations such as upgrade review are atomic.
type Store struct {
	mu         sync.RWMutex
	users      map[string]models.User
	sprints    map[string]models.Sprint
	tasks      map[string]models.Task
	milestones map[string]models.Milestone
	upgrades   map[string]models.UpgradeRequest
	audit      []models.AuditLog
}

func New() *Store {
	return &Store{
		users:      make(map[string]models.User),
		sprints:    make(map[string]models.Sprint),
		tasks:      make(map[string]models.Task),
		milestones: make(map[string]models.Milestone),
		upgrades:   make(map[string]models.UpgradeRequest),
	}
}

func (s *Store) Users() db.UserRepository                     { return userRepo{s} }
func (s *Store) Sprints() db.SprintRepository                 { return sprintRepo{s} }
func (s *Store) Tasks() db.TaskRepository                     { return taskRepo{s} }
func (s *Store) Milestones() db.MilestoneRepository           { return milestoneRepo{s} }
func (s *Store) UpgradeRequests() db.UpgradeRequestRepository { return upgradeRepo{s} }
func (s *Store) Audit() db.AuditRepository                    { return auditRepo{s} }

// AuditLogs returns a copy of everything written to the audit repository.
func (s *Store) AuditLogs() []models.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.AuditLog(nil), s.audit...)
}

func newID() string { return uuid.NewString() }

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// --- users ---

type userRepo struct{ s *Store }

func copyUser(u models.User) *models.User {
	u.FCMTokens = cloneStrings(u.FCMTokens)
	return &u
}

func (r userRepo) GetByID(_ context.Context, userID string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user with ID '%s' not found: %w", userID, db.ErrNotFound)
	}
	return copyUser(u), nil
}

func (r userRepo) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; ok {
		return fmt.Errorf("user with ID '%s' already exists: %w", user.ID, db.ErrConflict)
	}
	r.s.users[user.ID] = *copyUser(*user)
	return nil
}

func (r userRepo) Update(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev, ok := r.s.users[user.ID]
	if !ok {
		return fmt.Errorf("user with ID '%s' not found: %w", user.ID, db.ErrNotFound)
	}
	stored := *copyUser(*user)
	stored.FCMTokens = prev.FCMTokens
	stored.CreatedAt = prev.CreatedAt
	r.s.users[user.ID] = stored
	return nil
}

func (r userRepo) List(_ context.Context, userType models.UserType, limit int) ([]*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*models.User
	for _, u := range r.s.users {
		if userType == "" || u.UserType == userType {
			out = append(out, copyUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r userRepo) PromoteFirstAdmin(_ context.Context, userID string, now time.Time) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.UserType == models.UserTypeAdmin {
			return nil, fmt.Errorf("an admin already exists: %w", db.ErrConflict)
		}
	}
	u, ok := r.s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user with ID '%s' not found: %w", userID, db.ErrNotFound)
	}
	u.UserType = models.UserTypeAdmin
	u.UpdatedAt = now
	r.s.users[userID] = u
	return copyUser(u), nil
}

func (r userRepo) AddFCMToken(_ context.Context, userID, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return fmt.Errorf("user with ID '%s' not found: %w", userID, db.ErrNotFound)
	}
	for _, t := range u.FCMTokens {
		if t == token {
			return nil
		}
	}
	u.FCMTokens = append(cloneStrings(u.FCMTokens), token)
	r.s.users[userID] = u
	return nil
}

func (r userRepo) RemoveFCMToken(_ context.Context, userID, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return fmt.Errorf("user with ID '%s' not found: %w", userID, db.ErrNotFound)
	}
	kept := make([]string, 0, len(u.FCMTokens))
	for _, t := range u.FCMTokens {
		if t != token {
			kept = append(kept, t)
		}
	}
	u.FCMTokens = kept
	r.s.users[userID] = u
	return nil
}

// --- sprints ---

type sprintRepo struct{ s *Store }

func copySprint(sp models.Sprint) *models.Sprint {
	sp.Tags = cloneStrings(sp.Tags)
	sp.CompletedAt = cloneTime(sp.CompletedAt)
	return &sp
}

func (r sprintRepo) Create(_ context.Context, sprint *models.Sprint) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sprint.ID = newID()
	sprint.Version = 1
	r.s.sprints[sprint.ID] = *copySprint(*sprint)
	return sprint.ID, nil
}

func (r sprintRepo) GetByID(_ context.Context, sprintID string) (*models.Sprint, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sp, ok := r.s.sprints[sprintID]
	if !ok {
		return nil, fmt.Errorf("sprint with ID '%s' not found: %w", sprintID, db.ErrNotFound)
	}
	return copySprint(sp), nil
}

func (r sprintRepo) ListByUser(_ context.Context, userID string, f models.SprintFilter) ([]*models.Sprint, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*models.Sprint
	for _, sp := range r.s.sprints {
		if sp.UserID != userID || (f.Status != "" && sp.Status != f.Status) || (f.Type != "" && sp.Type != f.Type) {
			continue
		}
		out = append(out, copySprint(sp))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r sprintRepo) ListByStatus(_ context.Context, st models.SprintStatus) ([]*models.Sprint, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*models.Sprint
	for _, sp := range r.s.sprints {
		if sp.Status == st {
			out = append(out, copySprint(sp))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r sprintRepo) CountByUserAndStatus(_ context.Context, userID string, st models.SprintStatus) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, sp := range r.s.sprints {
		if sp.UserID == userID && sp.Status == st {
			n++
		}
	}
	return n, nil
}

func (r sprintRepo) Update(_ context.Context, sprint *models.Sprint, expectedVersion int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.sprints[sprint.ID]
	if !ok {
		return fmt.Errorf("sprint with ID '%s' not found: %w", sprint.ID, db.ErrNotFound)
	}
	if current.Version != expectedVersion {
		return fmt.Errorf("sprint '%s' is at version %d, expected %d: %w", sprint.ID, current.Version, expectedVersion, db.ErrVersionConflict)
	}
	sprint.Version = expectedVersion + 1
	r.s.sprints[sprint.ID] = *copySprint(*sprint)
	return nil
}

func (r sprintRepo) Delete(_ context.Context, sprintID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.sprints, sprintID)
	return nil
}

// --- tasks ---

type taskRepo struct{ s *Store }

func copyTask(t models.Task) *models.Task {
	t.Dependencies = cloneStrings(t.Dependencies)
	t.Tags = cloneStrings(t.Tags)
	t.DueDate = cloneTime(t.DueDate)
	t.CompletedAt = cloneTime(t.CompletedAt)
	t.StartedAt = cloneTime(t.StartedAt)
	return &t
}

func (r taskRepo) Create(_ context.Context, task *models.Task) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	task.ID = newID()
	r.s.tasks[task.ID] = *copyTask(*task)
	return task.ID, nil
}

func (r taskRepo) GetByID(_ context.Context, taskID string) (*models.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("task with ID '%s' not found: %w", taskID, db.ErrNotFound)
	}
	return copyTask(t), nil
}

func (r taskRepo) list(match func(models.Task) bool) []*models.Task {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*models.Task
	for _, t := range r.s.tasks {
		if match(t) {
			out = append(out, copyTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r taskRepo) ListBySprint(_ context.Context, sprintID string) ([]*models.Task, error) {
	return r.list(func(t models.Task) bool { return t.SprintID == sprintID }), nil
}

func (r taskRepo) ListByUser(_ context.Context, userID string) ([]*models.Task, error) {
	return r.list(func(t models.Task) bool { return t.UserID == userID }), nil
}

func (r taskRepo) Update(_ context.Context, task *models.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tasks[task.ID]; !ok {
		return fmt.Errorf("task with ID '%s' not found: %w", task.ID, db.ErrNotFound)
	}
	r.s.tasks[task.ID] = *copyTask(*task)
	return nil
}

func (r taskRepo) Delete(_ context.Context, taskID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.tasks, taskID)
	return nil
}

func (r taskRepo) DeleteBySprint(_ context.Context, sprintID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, t := range r.s.tasks {
		if t.SprintID == sprintID {
			delete(r.s.tasks, id)
		}
	}
	return nil
}

// --- milestones ---

type milestoneRepo struct{ s *Store }

func copyMilestone(m models.Milestone) *models.Milestone {
	m.Criteria = cloneStrings(m.Criteria)
	m.RelatedTasks = cloneStrings(m.RelatedTasks)
	m.AchievedDate = cloneTime(m.AchievedDate)
	return &m
}

func (r milestoneRepo) Create(_ context.Context, m *models.Milestone) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m.ID = newID()
	r.s.milestones[m.ID] = *copyMilestone(*m)
	return m.ID, nil
}

func (r milestoneRepo) GetByID(_ context.Context, id string) (*models.Milestone, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.milestones[id]
	if !ok {
		return nil, fmt.Errorf("milestone with ID '%s' not found: %w", id, db.ErrNotFound)
	}
	return copyMilestone(m), nil
}

func (r milestoneRepo) ListBySprint(_ context.Context, sprintID string) ([]*models.Milestone, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*models.Milestone
	for _, m := range r.s.milestones {
		if m.SprintID == sprintID {
			out = append(out, copyMilestone(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TargetDate.Before(out[j].TargetDate) })
	return out, nil
}

func (r milestoneRepo) Update(_ context.Context, m *models.Milestone) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.milestones[m.ID]; !ok {
		return fmt.Errorf("milestone with ID '%s' not found: %w", m.ID, db.ErrNotFound)
	}
	r.s.milestones[m.ID] = *copyMilestone(*m)
	return nil
}

func (r milestoneRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.milestones, id)
	return nil
}

func (r milestoneRepo) DeleteBySprint(_ context.Context, sprintID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, m := range r.s.milestones {
		if m.SprintID == sprintID {
			delete(r.s.milestones, id)
		}
	}
	return nil
}

// --- upgrade requests ---

type upgradeRepo struct{ s *Store }

func copyUpgrade(u models.UpgradeRequest) *models.UpgradeRequest {
	u.ReviewedAt = cloneTime(u.ReviewedAt)
	return &u
}

func (r upgradeRepo) CreatePending(_ context.Context, req *models.UpgradeRequest) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.upgrades {
		if u.UserID == req.UserID && u.Status == models.UpgradeStatusPending {
			return "", fmt.Errorf("user '%s' already has a pending request: %w", req.UserID, db.ErrConflict)
		}
	}
	req.ID = newID()
	r.s.upgrades[req.ID] = *copyUpgrade(*req)
	return req.ID, nil
}

func (r upgradeRepo) GetByID(_ context.Context, id string) (*models.UpgradeRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.upgrades[id]
	if !ok {
		return nil, fmt.Errorf("upgrade request '%s' not found: %w", id, db.ErrNotFound)
	}
	return copyUpgrade(u), nil
}

func (r upgradeRepo) List(_ context.Context, st models.UpgradeStatus) ([]*models.UpgradeRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*models.UpgradeRequest
	for _, u := range r.s.upgrades {
		if st == "" || u.Status == st {
			out = append(out, copyUpgrade(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r upgradeRepo) LatestByUser(_ context.Context, userID string) (*models.UpgradeRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var latest *models.UpgradeRequest
	for _, u := range r.s.upgrades {
		if u.UserID == userID && (latest == nil || u.CreatedAt.After(latest.CreatedAt)) {
			latest = copyUpgrade(u)
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("no upgrade request for user '%s': %w", userID, db.ErrNotFound)
	}
	return latest, nil
}

func (r upgradeRepo) Review(_ context.Context, id string, review db.UpgradeReview) (*models.UpgradeRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.upgrades[id]
	if !ok {
		return nil, fmt.Errorf("upgrade request '%s' not found: %w", id, db.ErrNotFound)
	}
	if u.Status != models.UpgradeStatusPending {
		return nil, fmt.Errorf("upgrade request '%s' is already %s: %w", id, u.Status, db.ErrConflict)
	}
	if review.Status == models.UpgradeStatusApproved {
		user, ok := r.s.users[u.UserID]
		if !ok {
			return nil, fmt.Errorf("requesting user '%s' not found: %w", u.UserID, db.ErrNotFound)
		}
		user.UserType = u.RequestedType
		user.UpdatedAt = review.ReviewedAt
		r.s.users[u.UserID] = user
	}
	reviewedAt := review.ReviewedAt
	u.Status = review.Status
	u.AdminComment = review.AdminComment
	u.ReviewedBy = review.ReviewedBy
	u.ReviewedAt = &reviewedAt
	r.s.upgrades[id] = u
	return copyUpgrade(u), nil
}

func (r upgradeRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.upgrades, id)
	return nil
}

// --- audit ---

type auditRepo struct{ s *Store }

func (r auditRepo) Create(_ context.Context, entry models.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry.ID = newID()
	r.s.audit = append(r.s.audit, entry)
	return nil
}
