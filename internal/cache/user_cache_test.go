package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sprintify-backend-go/internal/db/memdb"
	"sprintify-backend-go/internal/models"
)

type mapCache struct {
	mu      sync.Mutex
	data    map[string]string
	failGet bool
}

func newMapCache() *mapCache { return &mapCache{data: map[string]string{}} }

func (m *mapCache) Get(_ context.Context, k string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return "", false, errors.New("connection refused")
	}
	v, ok := m.data[k]
	return v, ok, nil
}

func (m *mapCache) Set(_ context.Context, k, v string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[k] = v
	return nil
}

func (m *mapCache) SetNX(_ context.Context, k, v string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[k]; ok {
		return false, nil
	}
	m.data[k] = v
	return true, nil
}

func (m *mapCache) Delete(_ context.Context, k string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, k)
	return nil
}

func (m *mapCache) Close() error { return nil }

func TestCachedUserRepositoryReadThroughAndInvalidate(t *testing.T) {
	ctx := context.Background()
	store := memdb.New()
	c := newMapCache()
	repo := NewCachedUserRepository(store.Users(), c, time.Minute, zap.NewNop())

	require.NoError(t, repo.Create(ctx, &models.User{ID: "u1", Email: "a@example.com", UserType: models.UserTypeNormal}))

	u, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.UserTypeNormal, u.UserType)
	assert.Contains(t, c.data, userKey("u1"))

	// A change behind the cache's back is invisible until invalidated.
	require.NoError(t, store.Users().Update(ctx, &models.User{ID: "u1", Email: "a@example.com", UserType: models.UserTypePremium}))
	u, err = repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.UserTypeNormal, u.UserType)

	repo.(*cachedUserRepository).Invalidate(ctx, "u1")
	u, err = repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.UserTypePremium, u.UserType)

	require.NoError(t, repo.Update(ctx, &models.User{ID: "u1", UserType: models.UserTypeAdmin}))
	assert.NotContains(t, c.data, userKey("u1"))
}

func TestCachedUserRepositoryFallsThroughOnCacheError(t *testing.T) {
	ctx := context.Background()
	store := memdb.New()
	require.NoError(t, store.Users().Create(ctx, &models.User{ID: "u1", UserType: models.UserTypeAdmin}))
	c := newMapCache()
	c.failGet = true

	repo := NewCachedUserRepository(store.Users(), c, time.Minute, zap.NewNop())
	u, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.UserTypeAdmin, u.UserType)
}

func TestNoop(t *testing.T) {
	var c Cache = Noop{}
	_, ok, err := c.Get(context.Background(), "k")
	assert.False(t, ok)
	assert.NoError(t, err)
	set, err := c.SetNX(context.Background(), "k", "v", time.Second)
	assert.True(t, set)
	assert.NoError(t, err)
}

func TestMemorySetNXExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	ok, err := m.SetNX(ctx, "k", "1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = m.SetNX(ctx, "k", "2", time.Hour)
	assert.False(t, ok)

	now = now.Add(time.Hour)
	v, found, _ := m.Get(ctx, "k")
	assert.False(t, found)
	assert.Empty(t, v)
	ok, _ = m.SetNX(ctx, "k", "3", time.Hour)
	assert.True(t, ok)
}
