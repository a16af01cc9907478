package client

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprintify-backend-go/internal/models"
)

// fakeAPI keeps a server-side copy of each sprint with a version counter.
type fakeAPI struct {
	server map[string]models.Sprint
}

func (f *fakeAPI) ListSprints(context.Context, models.SprintFilter) ([]models.Sprint, error) {
	var out []models.Sprint
	for _, sp := range f.server {
		out = append(out, sp)
	}
	return out, nil
}

func (f *fakeAPI) GetSprint(_ context.Context, id string) (*models.Sprint, error) {
	sp, ok := f.server[id]
	if !ok {
		return nil, &APIError{StatusCode: http.StatusNotFound, Message: "sprint not found"}
	}
	return &sp, nil
}

func (f *fakeAPI) UpdateSprint(_ context.Context, id string, req models.UpdateSprintRequest, version int64) (*models.Sprint, error) {
	sp := f.server[id]
	if version != 0 && version != sp.Version {
		return nil, &ConflictError{Current: &sp}
	}
	if req.Title != nil {
		sp.Title = *req.Title
	}
	sp.Version++
	f.server[id] = sp
	return &sp, nil
}

func TestSprintStoreSaveAndConflict(t *testing.T) {
	api := &fakeAPI{server: map[string]models.Sprint{"s1": {ID: "s1", Title: "Go", Version: 1}}}
	store := NewSprintStore(api)
	ctx := context.Background()

	_, err := store.Load(ctx, models.SprintFilter{})
	require.NoError(t, err)

	mine := "Mine"
	saved, err := store.Save(ctx, "s1", models.UpdateSprintRequest{Title: &mine})
	require.NoError(t, err)
	assert.Equal(t, int64(2), saved.Version)

	// Another tab edits the sprint on the server.
	theirs := api.server["s1"]
	theirs.Title = "Theirs"
	theirs.Version = 3
	api.server["s1"] = theirs

	late := "Late edit"
	current, err := store.Save(ctx, "s1", models.UpdateSprintRequest{Title: &late})
	var discarded *EditDiscardedError
	require.ErrorAs(t, err, &discarded)
	assert.Equal(t, "Late edit", *discarded.Edit.Title)
	assert.Equal(t, "Theirs", current.Title)

	var conflict *ConflictError
	assert.True(t, errors.As(err, &conflict))

	cached, ok := store.Get("s1")
	require.True(t, ok)
	assert.Equal(t, int64(3), cached.Version, "server copy wins")
}

func TestSprintStoreReconcile(t *testing.T) {
	api := &fakeAPI{server: map[string]models.Sprint{"s1": {ID: "s1", Version: 1}}}
	store := NewSprintStore(api)
	ctx := context.Background()

	changed, err := store.Reconcile(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = store.Reconcile(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, changed)

	sp := api.server["s1"]
	sp.Version = 5
	api.server["s1"] = sp
	changed, err = store.Reconcile(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, changed)

	delete(api.server, "s1")
	changed, err = store.Reconcile(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, changed)
	_, ok := store.Get("s1")
	assert.False(t, ok)
}
