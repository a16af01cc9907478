package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"sprintify-backend-go/internal/db"
	"sprintify-backend-go/internal/models"
	"sprintify-backend-go/internal/permission"
	"sprintify-backend-go/internal/validation"
)

const (
	defaultUserListLimit = 50
	maxUserListLimit     = 500
)

// userService implements the UserService interface.
type userService struct {
	userRepo     db.UserRepository
	auditService AuditService
	logger       *zap.Logger
	now          func() time.Time
}

// NewUserService creates a new UserService instance.
func NewUserService(userRepo db.UserRepository, auditService AuditService, logger *zap.Logger) UserService {
	return &userService{
		userRepo:     userRepo,
		auditService: auditService,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// GetOrCreate retrieves a user by ID. If the user doesn't exist, it creates a new one.
// Returns the user, a boolean indicating if the user was created, and an error if any.
func (s *userService) GetOrCreate(ctx context.Context, userID, email, displayName, photoURL string) (*models.User, bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to get user by ID '%s' from repository: %w", userID, err)
	}

	now := s.now()
	newUser := &models.User{
		ID:          userID,
		Email:       email,
		DisplayName: displayName,
		PhotoURL:    photoURL,
		UserType:    models.UserTypeNormal,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.userRepo.Create(ctx, newUser); err != nil {
		// Two first requests raced; the other one created the profile.
		if errors.Is(err, db.ErrConflict) {
			existing, getErr := s.userRepo.GetByID(ctx, userID)
			if getErr != nil {
				return nil, false, fmt.Errorf("failed to reload user '%s' after concurrent create: %w", userID, getErr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create user (id: %s) after not found: %w", userID, err)
	}
	s.logger.Info("User profile created", zap.String("userID", userID))
	return newUser, true, nil
}

// GetByID retrieves a user by their ID.
func (s *userService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get user by ID '%s' from repository: %w", userID, err)
	}
	return user, nil
}

// UpdateProfile changes the caller's display name and photo. Nil fields are left alone.
func (s *userService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error) {
	user, err := loadUser(ctx, s.userRepo, userID)
	if err != nil {
		return nil, err
	}

	var checks []validation.Result
	if req.DisplayName != nil {
		checks = append(checks, validation.DisplayName(*req.DisplayName))
		user.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.PhotoURL != nil {
		checks = append(checks, validation.PhotoURL(*req.PhotoURL))
		user.PhotoURL = strings.TrimSpace(*req.PhotoURL)
	}
	if res := validation.Merge(checks...); !res.IsValid {
		return nil, invalid(res.Errors...)
	}
	if len(checks) == 0 {
		return user, nil
	}

	user.UpdatedAt = s.now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("failed to update profile of user '%s': %w", userID, err)
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, actorID string, userType models.UserType, limit int) ([]*models.User, error) {
	if err := requireFeature(ctx, s.userRepo, actorID, permission.FeatureUserManagement); err != nil {
		return nil, err
	}
	if userType != "" && !userType.IsValid() {
		return nil, invalid(fmt.Sprintf("unknown user type %q", userType))
	}
	switch {
	case limit <= 0:
		limit = defaultUserListLimit
	case limit > maxUserListLimit:
		limit = maxUserListLimit
	}
	users, err := s.userRepo.List(ctx, userType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *userService) SetupFirstAdmin(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.PromoteFirstAdmin(ctx, userID, s.now())
	if err != nil {
		switch {
		case errors.Is(err, db.ErrConflict):
			return nil, ErrAdminExists
		case errors.Is(err, db.ErrNotFound):
			return nil, fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("failed to promote first admin: %w", err)
	}
	recordAudit(ctx, s.auditService, s.logger, models.AuditLog{
		UserID:     userID,
		Action:     models.AuditFirstAdminSetup,
		TargetType: "USER",
		TargetID:   userID,
		Timestamp:  s.now(),
	})
	s.logger.Info("First admin configured", zap.String("userID", userID))
	return user, nil
}

func (s *userService) RegisterDevice(ctx context.Context, userID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return invalid("device token is required")
	}
	if err := s.userRepo.AddFCMToken(ctx, userID, token); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, userID)
		}
		return fmt.Errorf("failed to register device for user '%s': %w", userID, err)
	}
	return nil
}

func (s *userService) UnregisterDevice(ctx context.Context, userID, token string) error {
	if err := s.userRepo.RemoveFCMToken(ctx, userID, strings.TrimSpace(token)); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, userID)
		}
		return fmt.Errorf("failed to unregister device for user '%s': %w", userID, err)
	}
	return nil
}

// loadUser maps a repository miss to ErrUserNotFound.
func loadUser(ctx context.Context, users db.UserRepository, userID string) (*models.User, error) {
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get user '%s': %w", userID, err)
	}
	return user, nil
}

// requireFeature fails with ErrForbidden unless userID may use feature.
func requireFeature(ctx context.Context, users db.UserRepository, userID string, feature permission.Feature) error {
	user, err := loadUser(ctx, users, userID)
	if err != nil {
		return err
	}
	if !permission.CanUseFeature(user, feature) {
		return fmt.Errorf("%w: %s requires %s", ErrForbidden, feature, requiredTierName(feature))
	}
	return nil
}

func requiredTierName(feature permission.Feature) string {
	tier, _ := permission.RequiredTier(feature)
	return string(tier)
}
