package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"sprintify-backend-go/internal/db/memdb"
	"sprintify-backend-go/internal/mailer"
	"sprintify-backend-go/internal/models"
	"sprintify-backend-go/internal/templates"
)

type recordedJobs struct {
	mu   sync.Mutex
	jobs []models.NotificationJob
}

func (r *recordedJobs) Publish(_ context.Context, job models.NotificationJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
	return nil
}

func (r *recordedJobs) types() []models.NotificationType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.NotificationType
	for _, j := range r.jobs {
		out = append(out, j.Type)
	}
	return out
}

type recordedMail struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (r *recordedMail) Send(_ context.Context, msg mailer.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

// ServiceSuite wires every service over one in-memory store.
type ServiceSuite struct {
	suite.Suite
	ctx   context.Context
	now   time.Time
	store *memdb.Store
	jobs  *recordedJobs
	mail  *recordedMail

	users    *userService
	sprints  *sprintService
	tasks    *taskService
	upgrades *upgradeService
	stats    *statsService
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	s.store = memdb.New()
	s.jobs = &recordedJobs{}
	s.mail = &recordedMail{}
	logger := zap.NewNop()
	clock := func() time.Time { return s.now }

	audit := NewAuditService(s.store.Audit())
	s.users = NewUserService(s.store.Users(), audit, logger).(*userService)
	s.users.now = clock
	s.sprints = NewSprintService(s.store.Sprints(), s.store.Tasks(), s.store.Milestones(), s.store.Users(),
		templates.Default(), s.jobs, audit, logger).(*sprintService)
	s.sprints.now = clock
	s.tasks = NewTaskService(s.store.Sprints(), s.store.Tasks(), s.store.Milestones(), s.jobs, logger).(*taskService)
	s.tasks.now = clock
	s.upgrades = NewUpgradeService(s.store.UpgradeRequests(), s.store.Users(), s.mail, s.jobs, audit, "https://app.example.com", logger).(*upgradeService)
	s.upgrades.now = clock
	s.stats = NewStatsService(s.store.Sprints(), s.store.Tasks(), s.store.Users()).(*statsService)
	s.stats.now = clock

	for id, tier := range map[string]models.UserType{
		"normal":  models.UserTypeNormal,
		"premium": models.UserTypePremium,
		"admin":   models.UserTypeAdmin,
	} {
		s.Require().NoError(s.store.Users().Create(s.ctx, &models.User{ID: id, Email: id + "@example.com", UserType: tier, CreatedAt: s.now}))
	}
}

func (s *ServiceSuite) newSprint(userID string) *models.Sprint {
	sp, err := s.sprints.CreateSprint(s.ctx, userID, models.CreateSprintRequest{
		Title:     "Learn Go",
		Type:      models.SprintTypeLearning,
		Template:  "7days",
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)
	return sp
}

func (s *ServiceSuite) TestCreateSprintUsesTemplateDefaults() {
	sp := s.newSprint("normal")

	s.Equal(time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), sp.EndDate)
	s.Equal(7, sp.Duration)
	s.Equal("beginner", sp.Difficulty)
	s.Equal(models.SprintStatusDraft, sp.Status)
	s.Equal(int64(1), sp.Version)
	s.NotEmpty(sp.ID)

	countdown, err := s.sprints.Countdown(s.ctx, "normal", sp.ID)
	s.Require().NoError(err)
	s.Equal(3, countdown.DaysRemaining)

	logs := s.store.AuditLogs()
	s.Require().Len(logs, 1)
	s.Equal(models.AuditSprintCreate, logs[0].Action)
}

func (s *ServiceSuite) TestCreateSprintValidation() {
	end := time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)
	_, err := s.sprints.CreateSprint(s.ctx, "normal", models.CreateSprintRequest{
		Title:     "",
		Type:      models.SprintTypeProject,
		Template:  "7days",
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   &end,
	})
	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Problems, "Title is required")
	s.Contains(verr.Problems, "End date must be after start date")

	_, err = s.sprints.CreateSprint(s.ctx, "normal", models.CreateSprintRequest{
		Title: "x", Type: models.SprintTypeProject, Template: "14days", StartDate: s.now,
	})
	s.ErrorIs(err, ErrValidation)
}

func (s *ServiceSuite) TestCustomTemplateNeedsPremium() {
	req := models.CreateSprintRequest{Title: "Mine", Type: models.SprintTypeProject, Template: "custom", StartDate: s.now, Duration: 10}

	_, err := s.sprints.CreateSprint(s.ctx, "normal", req)
	s.ErrorIs(err, ErrForbidden)

	sp, err := s.sprints.CreateSprint(s.ctx, "premium", req)
	s.Require().NoError(err)
	s.Equal(10, sp.Duration)
}

func (s *ServiceSuite) TestOwnership() {
	sp := s.newSprint("normal")

	_, err := s.sprints.GetSprint(s.ctx, "premium", sp.ID)
	s.ErrorIs(err, ErrForbidden)
	_, err = s.sprints.GetSprint(s.ctx, "normal", "missing")
	s.ErrorIs(err, ErrSprintNotFound)
	s.ErrorIs(s.sprints.DeleteSprint(s.ctx, "premium", sp.ID), ErrForbidden)
}

func (s *ServiceSuite) TestTransitions() {
	sp := s.newSprint("normal")

	_, err := s.sprints.PauseSprint(s.ctx, "normal", sp.ID)
	s.ErrorIs(err, ErrInvalidTransition)

	sp, err = s.sprints.StartSprint(s.ctx, "normal", sp.ID)
	s.Require().NoError(err)
	s.Equal(models.SprintStatusActive, sp.Status)

	sp, err = s.sprints.PauseSprint(s.ctx, "normal", sp.ID)
	s.Require().NoError(err)
	s.Equal(models.SprintStatusPaused, sp.Status)

	sp, err = s.sprints.CompleteSprint(s.ctx, "normal", sp.ID)
	s.Require().NoError(err)
	s.Equal(models.SprintStatusCompleted, sp.Status)
	s.Require().NotNil(sp.CompletedAt)
	s.Equal(s.now, *sp.CompletedAt)
	s.Equal([]models.NotificationType{models.NotificationSprintCompleted}, s.jobs.types())

	_, err = s.sprints.StartSprint(s.ctx, "normal", sp.ID)
	s.ErrorIs(err, ErrInvalidTransition)
}

func (s *ServiceSuite) TestActiveSprintLimit() {
	for i := 0; i < 3; i++ {
		sp := s.newSprint("normal")
		_, err := s.sprints.StartSprint(s.ctx, "normal", sp.ID)
		s.Require().NoError(err)
	}
	fourth := s.newSprint("normal")
	_, err := s.sprints.StartSprint(s.ctx, "normal", fourth.ID)
	s.ErrorIs(err, ErrActiveSprintLimit)

	for i := 0; i < 4; i++ {
		sp := s.newSprint("premium")
		_, err := s.sprints.StartSprint(s.ctx, "premium", sp.ID)
		s.Require().NoError(err)
	}
}

func (s *ServiceSuite) TestUpdateSprintVersionConflict() {
	sp := s.newSprint("normal")
	title := "Learn Go deeply"
	stale := sp.Version

	updated, err := s.sprints.UpdateSprint(s.ctx, "normal", sp.ID, models.UpdateSprintRequest{Title: &title}, &stale)
	s.Require().NoError(err)
	s.Equal(stale+1, updated.Version)

	other := "Someone else's edit"
	_, err = s.sprints.UpdateSprint(s.ctx, "normal", sp.ID, models.UpdateSprintRequest{Title: &other}, &stale)
	s.Require().ErrorIs(err, ErrVersionConflict)
	var conflict *ConflictError
	s.Require().ErrorAs(err, &conflict)
	s.Equal(title, conflict.Current.Title)
	s.Equal(updated.Version, conflict.Current.Version)
}

func (s *ServiceSuite) TestUpdateSprintRecomputesDuration() {
	sp := s.newSprint("normal")
	end := sp.StartDate.AddDate(0, 0, 21)
	updated, err := s.sprints.UpdateSprint(s.ctx, "normal", sp.ID, models.UpdateSprintRequest{EndDate: &end}, nil)
	s.Require().NoError(err)
	s.Equal(21, updated.Duration)

	before := sp.StartDate.AddDate(0, 0, -1)
	_, err = s.sprints.UpdateSprint(s.ctx, "normal", sp.ID, models.UpdateSprintRequest{EndDate: &before}, nil)
	s.ErrorIs(err, ErrValidation)
}

func (s *ServiceSuite) TestDeleteSprintsCascades() {
	a := s.newSprint("normal")
	b := s.newSprint("normal")
	_, err := s.tasks.CreateTask(s.ctx, "normal", a.ID, models.CreateTaskRequest{Title: "read"})
	s.Require().NoError(err)
	_, err = s.tasks.CreateMilestone(s.ctx, "normal", b.ID, models.CreateMilestoneRequest{Title: "half way", TargetDate: s.now})
	s.Require().NoError(err)

	foreign := s.newSprint("premium")
	_, err = s.sprints.DeleteSprints(s.ctx, "normal", []string{a.ID, foreign.ID})
	s.ErrorIs(err, ErrForbidden)
	_, err = s.sprints.GetSprint(s.ctx, "normal", a.ID)
	s.NoError(err, "nothing is deleted when one ID is rejected")

	n, err := s.sprints.DeleteSprints(s.ctx, "normal", []string{a.ID, b.ID, a.ID})
	s.Require().NoError(err)
	s.Equal(2, n)

	tasks, err := s.store.Tasks().ListBySprint(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Empty(tasks)
	ms, err := s.store.Milestones().ListBySprint(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Empty(ms)
}

func (s *ServiceSuite) TestTaskLifecycleUpdatesSprintStats() {
	sp := s.newSprint("normal")
	_, err := s.sprints.StartSprint(s.ctx, "normal", sp.ID)
	s.Require().NoError(err)

	t1, err := s.tasks.CreateTask(s.ctx, "normal", sp.ID, models.CreateTaskRequest{Title: "one", EstimatedTime: 30})
	s.Require().NoError(err)
	s.Equal(models.PriorityMedium, t1.Priority)
	t2, err := s.tasks.CreateTask(s.ctx, "normal", sp.ID, models.CreateTaskRequest{Title: "two", Dependencies: []string{t1.ID}})
	s.Require().NoError(err)

	done := models.TaskStatusCompleted
	t1, err = s.tasks.UpdateTask(s.ctx, "normal", sp.ID, t1.ID, models.UpdateTaskRequest{Status: &done})
	s.Require().NoError(err)
	s.Require().NotNil(t1.CompletedAt)
	s.NotNil(t1.StartedAt)
	s.Equal(100, t1.Progress)

	got, err := s.sprints.GetSprint(s.ctx, "normal", sp.ID)
	s.Require().NoError(err)
	s.Equal(2, got.Stats.TotalTasks)
	s.Equal(1, got.Stats.CompletedTasks)
	s.Equal(30, got.Stats.TotalTime)
	s.Equal(50, got.Progress)

	// Progress of an active sprint does not drop when work is added.
	_, err = s.tasks.CreateTask(s.ctx, "normal", sp.ID, models.CreateTaskRequest{Title: "three"})
	s.Require().NoError(err)
	got, _ = s.sprints.GetSprint(s.ctx, "normal", sp.ID)
	s.Equal(3, got.Stats.TotalTasks)
	s.Equal(50, got.Progress)

	// Cycle: t1 -> t2 -> t1.
	deps := []string{t2.ID}
	_, err = s.tasks.UpdateTask(s.ctx, "normal", sp.ID, t1.ID, models.UpdateTaskRequest{Dependencies: &deps})
	s.ErrorIs(err, ErrDependencyCycle)

	s.Require().NoError(s.tasks.DeleteTask(s.ctx, "normal", sp.ID, t1.ID))
	t2, err = s.store.Tasks().GetByID(s.ctx, t2.ID)
	s.Require().NoError(err)
	s.Empty(t2.Dependencies)
}

func (s *ServiceSuite) TestTaskInOtherSprintIsNotFound() {
	a := s.newSprint("normal")
	b := s.newSprint("normal")
	task, err := s.tasks.CreateTask(s.ctx, "normal", a.ID, models.CreateTaskRequest{Title: "read"})
	s.Require().NoError(err)

	title := "moved"
	_, err = s.tasks.UpdateTask(s.ctx, "normal", b.ID, task.ID, models.UpdateTaskRequest{Title: &title})
	s.ErrorIs(err, ErrTaskNotFound)

	_, err = s.tasks.CreateTask(s.ctx, "normal", b.ID, models.CreateTaskRequest{Title: "x", Dependencies: []string{task.ID}})
	s.ErrorIs(err, ErrValidation)
}

func (s *ServiceSuite) TestMilestoneAchievedNotifies() {
	sp := s.newSprint("normal")
	m, err := s.tasks.CreateMilestone(s.ctx, "normal", sp.ID, models.CreateMilestoneRequest{Title: "first week", TargetDate: s.now})
	s.Require().NoError(err)
	s.Equal(models.MilestoneStatusPending, m.Status)

	achieved := models.MilestoneStatusAchieved
	m, err = s.tasks.UpdateMilestone(s.ctx, "normal", sp.ID, m.ID, models.UpdateMilestoneRequest{Status: &achieved})
	s.Require().NoError(err)
	s.Require().NotNil(m.AchievedDate)
	s.Equal([]models.NotificationType{models.NotificationMilestoneAchieved}, s.jobs.types())
}

func (s *ServiceSuite) TestUpgradeRequestLifecycle() {
	req, err := s.upgrades.CreateRequest(s.ctx, "normal", models.CreateUpgradeRequestRequest{Reason: "I need stats"})
	s.Require().NoError(err)
	s.Equal(models.UserTypePremium, req.RequestedType)
	s.Equal("normal@example.com", req.UserEmail)

	_, err = s.upgrades.CreateRequest(s.ctx, "normal", models.CreateUpgradeRequestRequest{Reason: "again"})
	s.ErrorIs(err, ErrPendingRequestExists)

	_, err = s.upgrades.ListRequests(s.ctx, "normal", "")
	s.ErrorIs(err, ErrForbidden)
	list, err := s.upgrades.ListRequests(s.ctx, "admin", models.UpgradeStatusPending)
	s.Require().NoError(err)
	s.Len(list, 1)

	_, err = s.upgrades.Review(s.ctx, "premium", req.ID, models.ReviewUpgradeRequestRequest{Action: "approve"})
	s.ErrorIs(err, ErrForbidden)

	reviewed, err := s.upgrades.Review(s.ctx, "admin", req.ID, models.ReviewUpgradeRequestRequest{Action: "approve", Comment: "ok"})
	s.Require().NoError(err)
	s.Equal(models.UpgradeStatusApproved, reviewed.Status)
	s.Equal("admin", reviewed.ReviewedBy)

	user, err := s.users.GetByID(s.ctx, "normal")
	s.Require().NoError(err)
	s.Equal(models.UserTypePremium, user.UserType)

	_, err = s.upgrades.Review(s.ctx, "admin", req.ID, models.ReviewUpgradeRequestRequest{Action: "reject"})
	s.ErrorIs(err, ErrRequestAlreadyReviewed)

	s.Len(s.mail.sent, 1)
	s.Equal("normal@example.com", s.mail.sent[0].ToEmail)
	s.Equal([]models.NotificationType{models.NotificationUpgradeReviewed}, s.jobs.types())

	mine, err := s.upgrades.MyStatus(s.ctx, "normal")
	s.Require().NoError(err)
	s.Equal(req.ID, mine.ID)
}

func (s *ServiceSuite) TestUpgradeRequestRules() {
	_, err := s.upgrades.CreateRequest(s.ctx, "premium", models.CreateUpgradeRequestRequest{Reason: "more", RequestedType: models.UserTypePremium})
	s.ErrorIs(err, ErrValidation)
	_, err = s.upgrades.CreateRequest(s.ctx, "normal", models.CreateUpgradeRequestRequest{Reason: "  "})
	s.ErrorIs(err, ErrValidation)

	none, err := s.upgrades.MyStatus(s.ctx, "premium")
	s.NoError(err)
	s.Nil(none)

	req, err := s.upgrades.CreateRequest(s.ctx, "premium", models.CreateUpgradeRequestRequest{Reason: "admin please", RequestedType: models.UserTypeAdmin})
	s.Require().NoError(err)
	s.ErrorIs(s.upgrades.DeleteRequest(s.ctx, "normal", req.ID), ErrForbidden)
	s.NoError(s.upgrades.DeleteRequest(s.ctx, "premium", req.ID))
	s.ErrorIs(s.upgrades.DeleteRequest(s.ctx, "admin", req.ID), ErrUpgradeNotFound)
}

func (s *ServiceSuite) TestSetupFirstAdminOnlyOnce() {
	_, err := s.users.SetupFirstAdmin(s.ctx, "normal")
	s.ErrorIs(err, ErrAdminExists)

	fresh := memdb.New()
	s.Require().NoError(fresh.Users().Create(s.ctx, &models.User{ID: "first", UserType: models.UserTypeNormal}))
	svc := NewUserService(fresh.Users(), NewAuditService(fresh.Audit()), zap.NewNop())
	u, err := svc.SetupFirstAdmin(s.ctx, "first")
	s.Require().NoError(err)
	s.Equal(models.UserTypeAdmin, u.UserType)
	_, err = svc.SetupFirstAdmin(s.ctx, "first")
	s.ErrorIs(err, ErrAdminExists)
}

func (s *ServiceSuite) TestGetOrCreateAndDevices() {
	u, created, err := s.users.GetOrCreate(s.ctx, "newbie", "new@example.com", "New", "")
	s.Require().NoError(err)
	s.True(created)
	s.Equal(models.UserTypeNormal, u.UserType)

	_, created, err = s.users.GetOrCreate(s.ctx, "newbie", "new@example.com", "New", "")
	s.Require().NoError(err)
	s.False(created)

	s.ErrorIs(s.users.RegisterDevice(s.ctx, "newbie", " "), ErrValidation)
	s.Require().NoError(s.users.RegisterDevice(s.ctx, "newbie", "tok"))
	stored, _ := s.store.Users().GetByID(s.ctx, "newbie")
	s.Equal([]string{"tok"}, stored.FCMTokens)
	s.Require().NoError(s.users.UnregisterDevice(s.ctx, "newbie", "tok"))

	_, err = s.users.ListUsers(s.ctx, "normal", "", 0)
	s.ErrorIs(err, ErrForbidden)
	admins, err := s.users.ListUsers(s.ctx, "admin", models.UserTypeAdmin, 0)
	s.Require().NoError(err)
	s.Len(admins, 1)
}

func (s *ServiceSuite) TestUpdateProfile() {
	s.Require().NoError(s.store.Users().AddFCMToken(s.ctx, "normal", "tok"))
	s.now = s.now.Add(time.Hour)

	name, photo := "  Ada  ", "https://cdn.example.com/ada.png"
	u, err := s.users.UpdateProfile(s.ctx, "normal", models.UpdateProfileRequest{DisplayName: &name, PhotoURL: &photo})
	s.Require().NoError(err)
	s.Equal("Ada", u.DisplayName)
	s.Equal(s.now, u.UpdatedAt)

	stored, err := s.store.Users().GetByID(s.ctx, "normal")
	s.Require().NoError(err)
	s.Equal("Ada", stored.DisplayName)
	s.Equal(photo, stored.PhotoURL)
	s.Equal(models.UserTypeNormal, stored.UserType)
	s.Equal([]string{"tok"}, stored.FCMTokens)

	blank, bad := " ", "ftp://example.com/x"
	_, err = s.users.UpdateProfile(s.ctx, "normal", models.UpdateProfileRequest{DisplayName: &blank, PhotoURL: &bad})
	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Len(verr.Problems, 2)
	stored, _ = s.store.Users().GetByID(s.ctx, "normal")
	s.Equal("Ada", stored.DisplayName)

	_, err = s.users.UpdateProfile(s.ctx, "ghost", models.UpdateProfileRequest{DisplayName: &name})
	s.ErrorIs(err, ErrUserNotFound)
}

func (s *ServiceSuite) TestStats() {
	sp := s.newSprint("premium")
	_, err := s.sprints.StartSprint(s.ctx, "premium", sp.ID)
	s.Require().NoError(err)
	task, err := s.tasks.CreateTask(s.ctx, "premium", sp.ID, models.CreateTaskRequest{Title: "ship"})
	s.Require().NoError(err)
	done := models.TaskStatusCompleted
	_, err = s.tasks.UpdateTask(s.ctx, "premium", sp.ID, task.ID, models.UpdateTaskRequest{Status: &done})
	s.Require().NoError(err)

	hm, err := s.stats.Heatmap(s.ctx, "premium")
	s.Require().NoError(err)
	s.Require().Len(hm.Days, 365)
	today := hm.Days[len(hm.Days)-1]
	s.Equal("2024-01-05", today.Date)
	s.Equal(1, today.SprintsCreated)
	s.Equal(1, today.TasksCompleted)

	_, err = s.stats.Progress(s.ctx, "normal")
	s.ErrorIs(err, ErrForbidden)
	report, err := s.stats.Progress(s.ctx, "premium")
	s.Require().NoError(err)
	s.Equal(1, report.Summary.CompletedTasks)
	s.Contains(report.BurnUp, sp.ID)
}

func TestTemplateServiceRecommendations(t *testing.T) {
	svc := NewTemplateService(templates.Default())
	rec, err := svc.Recommendations("30days", 30)
	require.NoError(t, err)
	require.Equal(t, 20, rec.RecommendedTasks)
	require.Equal(t, 4, rec.RecommendedMilestones)

	_, err = svc.Recommendations("nope", 0)
	require.ErrorIs(t, err, ErrValidation)
	_, err = svc.Recommendations("7days", 400)
	require.ErrorIs(t, err, ErrValidation)
	require.NotEmpty(t, svc.List())
}

func TestNotificationSnooze(t *testing.T) {
	jobs := &recordedJobs{}
	svc := NewNotificationService(jobs).(*notificationService)
	now := time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	job, err := svc.Snooze(context.Background(), "u1", models.NotificationJob{UserID: "someone-else", Type: models.NotificationDailyReminder, Title: "Time"})
	require.NoError(t, err)
	require.Equal(t, "u1", job.UserID)
	require.Equal(t, now.Add(15*time.Minute), *job.NotBefore)
	require.Len(t, jobs.jobs, 1)

	_, err = svc.Snooze(context.Background(), "u1", models.NotificationJob{})
	require.ErrorIs(t, err, ErrValidation)
}
