package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"sprintify-backend-go/internal/db"
	"sprintify-backend-go/internal/models"
)

// cachedUserRepository caches GetByID results. Every write invalidates the
// user's entry. Cache failures are logged and fall through to the store.
type cachedUserRepository struct {
	db.UserRepository
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedUserRepository wraps repo with a read-through profile cache.
func NewCachedUserRepository(repo db.UserRepository, c Cache, ttl time.Duration, logger *zap.Logger) db.UserRepository {
	return &cachedUserRepository{UserRepository: repo, cache: c, ttl: ttl, logger: logger}
}

func userKey(userID string) string { return "sprintify:user:" + userID }

func (r *cachedUserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	if raw, ok, err := r.cache.Get(ctx, userKey(userID)); err != nil {
		r.logger.Warn("user cache read failed", zap.String("userID", userID), zap.Error(err))
	} else if ok {
		var u models.User
		if err := json.Unmarshal([]byte(raw), &u); err == nil {
			return &u, nil
		}
	}

	user, err := r.UserRepository.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	// FCM tokens are not part of the JSON form, so they are never served from cache.
	if raw, err := json.Marshal(user); err == nil {
		if err := r.cache.Set(ctx, userKey(userID), string(raw), r.ttl); err != nil {
			r.logger.Warn("user cache write failed", zap.String("userID", userID), zap.Error(err))
		}
	}
	return user, nil
}

func (r *cachedUserRepository) invalidate(ctx context.Context, userID string) {
	if err := r.cache.Delete(ctx, userKey(userID)); err != nil {
		r.logger.Warn("user cache invalidation failed", zap.String("userID", userID), zap.Error(err))
	}
}

func (r *cachedUserRepository) Create(ctx context.Context, user *models.User) error {
	defer r.invalidate(ctx, user.ID)
	return r.UserRepository.Create(ctx, user)
}

func (r *cachedUserRepository) Update(ctx context.Context, user *models.User) error {
	defer r.invalidate(ctx, user.ID)
	return r.UserRepository.Update(ctx, user)
}

func (r *cachedUserRepository) PromoteFirstAdmin(ctx context.Context, userID string, now time.Time) (*models.User, error) {
	defer r.invalidate(ctx, userID)
	return r.UserRepository.PromoteFirstAdmin(ctx, userID, now)
}

// Invalidate drops a cached profile after a change made outside this repository,
// such as an approved upgrade request.
func (r *cachedUserRepository) Invalidate(ctx context.Context, userID string) {
	r.invalidate(ctx, userID)
}
