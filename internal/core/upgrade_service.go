package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"sprintify-backend-go/internal/db"
	"sprintify-backend-go/internal/mailer"
	"sprintify-backend-go/internal/models"
	"sprintify-backend-go/internal/notify"
	"sprintify-backend-go/internal/permission"
)

const maxReasonLength = 1000

// profileInvalidator is implemented by user repositories that cache profiles.
type profileInvalidator interface {
	Invalidate(ctx context.Context, userID string)
}

// upgradeService implements the UpgradeService interface.
type upgradeService struct {
	upgradeRepo  db.UpgradeRequestRepository
	userRepo     db.UserRepository
	mailer       mailer.Mailer
	publisher    notify.Publisher
	auditService AuditService
	appBaseURL   string
	logger       *zap.Logger
	now          func() time.Time
}

// NewUpgradeService creates a new UpgradeService instance. m and publisher may be nil.
func NewUpgradeService(
	ur db.UpgradeRequestRepository,
	users db.UserRepository,
	m mailer.Mailer,
	publisher notify.Publisher,
	as AuditService,
	appBaseURL string,
	logger *zap.Logger,
) UpgradeService {
	return &upgradeService{
		upgradeRepo:  ur,
		userRepo:     users,
		mailer:       m,
		publisher:    publisher,
		auditService: as,
		appBaseURL:   appBaseURL,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *upgradeService) CreateRequest(ctx context.Context, userID string, req models.CreateUpgradeRequestRequest) (*models.UpgradeRequest, error) {
	user, err := loadUser(ctx, s.userRepo, userID)
	if err != nil {
		return nil, err
	}

	requested := req.RequestedType
	if requested == "" {
		requested = models.UserTypePremium
	}
	reason := strings.TrimSpace(req.Reason)
	var problems []string
	switch {
	case !requested.IsValid():
		problems = append(problems, fmt.Sprintf("Unknown user type %q", requested))
	case requested.Rank() <= user.UserType.Rank():
		problems = append(problems, fmt.Sprintf("You already have %s access", user.UserType))
	}
	if reason == "" {
		problems = append(problems, "Reason is required")
	}
	if len([]rune(reason)) > maxReasonLength {
		problems = append(problems, fmt.Sprintf("Reason must be %d characters or less", maxReasonLength))
	}
	if len(problems) > 0 {
		return nil, invalid(problems...)
	}

	request := &models.UpgradeRequest{
		UserID:        userID,
		UserEmail:     user.Email,
		Reason:        reason,
		RequestedType: requested,
		Status:        models.UpgradeStatusPending,
		CreatedAt:     s.now(),
	}
	id, err := s.upgradeRepo.CreatePending(ctx, request)
	if err != nil {
		if errors.Is(err, db.ErrConflict) {
			return nil, ErrPendingRequestExists
		}
		return nil, fmt.Errorf("failed to create upgrade request: %w", err)
	}
	request.ID = id

	recordAudit(ctx, s.auditService, s.logger, models.AuditLog{
		UserID:     userID,
		Action:     models.AuditUpgradeRequest,
		TargetType: "UPGRADE_REQUEST",
		TargetID:   id,
		Timestamp:  request.CreatedAt,
		Details:    map[string]interface{}{"requestedType": string(requested)},
	})
	return request, nil
}

func (s *upgradeService) MyStatus(ctx context.Context, userID string) (*models.UpgradeRequest, error) {
	request, err := s.upgradeRepo.LatestByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest upgrade request of user '%s': %w", userID, err)
	}
	return request, nil
}

func (s *upgradeService) ListRequests(ctx context.Context, actorID string, status models.UpgradeStatus) ([]*models.UpgradeRequest, error) {
	if err := requireFeature(ctx, s.userRepo, actorID, permission.FeatureUpgradeReview); err != nil {
		return nil, err
	}
	switch status {
	case "", models.UpgradeStatusPending, models.UpgradeStatusApproved, models.UpgradeStatusRejected:
	default:
		return nil, invalid(fmt.Sprintf("Unknown status %q", status))
	}
	requests, err := s.upgradeRepo.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list upgrade requests: %w", err)
	}
	if requests == nil {
		requests = []*models.UpgradeRequest{}
	}
	return requests, nil
}

// Review approves or rejects a pending request. Approval changes the
// requester's tier in the same store operation; email and push follow on a
// best-effort basis.
func (s *upgradeService) Review(ctx context.Context, actorID, requestID string, req models.ReviewUpgradeRequestRequest) (*models.UpgradeRequest, error) {
	if err := requireFeature(ctx, s.userRepo, actorID, permission.FeatureUpgradeReview); err != nil {
		return nil, err
	}
	var status models.UpgradeStatus
	switch req.Action {
	case "approve":
		status = models.UpgradeStatusApproved
	case "reject":
		status = models.UpgradeStatusRejected
	default:
		return nil, invalid(fmt.Sprintf("Action must be approve or reject, got %q", req.Action))
	}

	now := s.now()
	reviewed, err := s.upgradeRepo.Review(ctx, requestID, db.UpgradeReview{
		Status:       status,
		AdminComment: strings.TrimSpace(req.Comment),
		ReviewedBy:   actorID,
		ReviewedAt:   now,
	})
	if err != nil {
		switch {
		case errors.Is(err, db.ErrNotFound):
			return nil, fmt.Errorf("%w: %v", ErrUpgradeNotFound, err)
		case errors.Is(err, db.ErrConflict):
			return nil, ErrRequestAlreadyReviewed
		}
		return nil, fmt.Errorf("failed to review upgrade request '%s': %w", requestID, err)
	}

	if inv, ok := s.userRepo.(profileInvalidator); ok && status == models.UpgradeStatusApproved {
		inv.Invalidate(ctx, reviewed.UserID)
	}

	recordAudit(ctx, s.auditService, s.logger, models.AuditLog{
		UserID:     actorID,
		Action:     models.AuditUpgradeReview,
		TargetType: "UPGRADE_REQUEST",
		TargetID:   requestID,
		Timestamp:  now,
		Details: map[string]interface{}{
			"status":        string(status),
			"requesterId":   reviewed.UserID,
			"requestedType": string(reviewed.RequestedType),
		},
	})

	if s.mailer != nil && reviewed.UserEmail != "" {
		if err := s.mailer.Send(ctx, mailer.UpgradeReviewed(reviewed, s.appBaseURL)); err != nil {
			s.logger.Warn("failed to email upgrade review outcome", zap.String("requestID", requestID), zap.Error(err))
		}
	}
	if s.publisher != nil {
		job := models.NotificationJob{
			UserID: reviewed.UserID,
			Type:   models.NotificationUpgradeReviewed,
			Title:  "Upgrade request " + string(status),
			Body:   fmt.Sprintf("Your request for %s access was %s.", reviewed.RequestedType, status),
		}
		if err := s.publisher.Publish(ctx, job); err != nil {
			s.logger.Warn("failed to publish upgrade review notification", zap.String("requestID", requestID), zap.Error(err))
		}
	}
	return reviewed, nil
}

// DeleteRequest lets an admin delete any request and a user delete their own.
func (s *upgradeService) DeleteRequest(ctx context.Context, actorID, requestID string) error {
	request, err := s.upgradeRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: %v", ErrUpgradeNotFound, err)
		}
		return fmt.Errorf("failed to get upgrade request '%s': %w", requestID, err)
	}
	if request.UserID != actorID {
		if err := requireFeature(ctx, s.userRepo, actorID, permission.FeatureUpgradeReview); err != nil {
			return err
		}
	}
	if err := s.upgradeRepo.Delete(ctx, requestID); err != nil {
		return fmt.Errorf("failed to delete upgrade request '%s': %w", requestID, err)
	}
	recordAudit(ctx, s.auditService, s.logger, models.AuditLog{
		UserID:     actorID,
		Action:     models.AuditUpgradeDelete,
		TargetType: "UPGRADE_REQUEST",
		TargetID:   requestID,
		Timestamp:  s.now(),
	})
	return nil
}
