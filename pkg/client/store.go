package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"sprintify-backend-go/internal/models"
)

// SprintAPI is the part of *Client a SprintStore uses.
type SprintAPI interface {
	ListSprints(ctx context.Context, filter models.SprintFilter) ([]models.Sprint, error)
	GetSprint(ctx context.Context, id string) (*models.Sprint, error)
	UpdateSprint(ctx context.Context, id string, req models.UpdateSprintRequest, version int64) (*models.Sprint, error)
}

var _ SprintAPI = (*Client)(nil)

// EditDiscardedError reports a local edit that lost against a newer server
// copy. The store already holds Current when it is returned.
type EditDiscardedError struct {
	SprintID string
	Edit     models.UpdateSprintRequest
	Current  models.Sprint
	conflict *ConflictError
}

func (e *EditDiscardedError) Error() string {
	return fmt.Sprintf("local edit of sprint %s discarded: server has version %d", e.SprintID, e.Current.Version)
}

func (e *EditDiscardedError) Unwrap() error { return e.conflict }

// SprintStore caches the user's sprints keyed by ID and keeps them in step
// with the server by version. Construct one per session.
type SprintStore struct {
	api SprintAPI

	mu      sync.RWMutex
	sprints map[string]models.Sprint
}

func NewSprintStore(api SprintAPI) *SprintStore {
	return &SprintStore{api: api, sprints: make(map[string]models.Sprint)}
}

// Load replaces the cache with the sprints matching filter.
func (s *SprintStore) Load(ctx context.Context, filter models.SprintFilter) ([]models.Sprint, error) {
	list, err := s.api.ListSprints(ctx, filter)
	if err != nil {
		return nil, err
	}
	fresh := make(map[string]models.Sprint, len(list))
	for _, sp := range list {
		fresh[sp.ID] = sp
	}
	s.mu.Lock()
	s.sprints = fresh
	s.mu.Unlock()
	return list, nil
}

func (s *SprintStore) Get(id string) (models.Sprint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sp, ok := s.sprints[id]
	return sp, ok
}

// put stores sp unless the cache already has a newer version.
func (s *SprintStore) put(sp models.Sprint) models.Sprint {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.sprints[sp.ID]; ok && cur.Version > sp.Version {
		return cur
	}
	s.sprints[sp.ID] = sp
	return sp
}

// Save sends edit guarded by the cached version. On a version conflict the
// server copy replaces the cached one and an *EditDiscardedError is returned.
func (s *SprintStore) Save(ctx context.Context, id string, edit models.UpdateSprintRequest) (models.Sprint, error) {
	cached, ok := s.Get(id)
	if !ok {
		current, err := s.api.GetSprint(ctx, id)
		if err != nil {
			return models.Sprint{}, err
		}
		cached = s.put(*current)
	}

	updated, err := s.api.UpdateSprint(ctx, id, edit, cached.Version)
	if err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			current := s.put(*conflict.Current)
			return current, &EditDiscardedError{SprintID: id, Edit: edit, Current: current, conflict: conflict}
		}
		return models.Sprint{}, err
	}
	return s.put(*updated), nil
}

// Reconcile fetches the server copy of id and keeps whichever version is
// newer. It reports whether the cached sprint changed.
func (s *SprintStore) Reconcile(ctx context.Context, id string) (bool, error) {
	server, err := s.api.GetSprint(ctx, id)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			s.mu.Lock()
			_, had := s.sprints[id]
			delete(s.sprints, id)
			s.mu.Unlock()
			return had, nil
		}
		return false, err
	}
	before, had := s.Get(id)
	after := s.put(*server)
	return !had || before.Version != after.Version, nil
}
