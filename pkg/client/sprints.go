package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"sprintify-backend-go/internal/insights"
	"sprintify-backend-go/internal/models"
)

// ConflictError is returned by UpdateSprint when the sprint changed on the
// server since the version the caller sent. Current is the server copy.
type ConflictError struct {
	Current *models.Sprint
}

func (e *ConflictError) Error() string {
	return "sprint was modified by another request"
}

func sprintPath(id string) string {
	return "/sprints/" + url.PathEscape(id)
}

func (c *Client) ListSprints(ctx context.Context, filter models.SprintFilter) ([]models.Sprint, error) {
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	if filter.Type != "" {
		q.Set("type", string(filter.Type))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Offset > 0 {
		q.Set("offset", strconv.Itoa(filter.Offset))
	}
	var out []models.Sprint
	err := c.do(ctx, request{method: http.MethodGet, path: "/sprints", query: q}, &out)
	return out, err
}

func (c *Client) CreateSprint(ctx context.Context, req models.CreateSprintRequest) (*models.Sprint, error) {
	var out models.Sprint
	if err := c.do(ctx, request{method: http.MethodPost, path: "/sprints", body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetSprint(ctx context.Context, id string) (*models.Sprint, error) {
	var out models.Sprint
	if err := c.do(ctx, request{method: http.MethodGet, path: sprintPath(id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSprint sends req with If-Match set to version. A version of 0 skips
// the check. A stale version yields a *ConflictError.
func (c *Client) UpdateSprint(ctx context.Context, id string, req models.UpdateSprintRequest, version int64) (*models.Sprint, error) {
	r := request{method: http.MethodPut, path: sprintPath(id), body: req}
	if version > 0 {
		r.ifMatch = `"` + strconv.FormatInt(version, 10) + `"`
	}
	var out models.Sprint
	if err := c.do(ctx, r, &out); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict && len(apiErr.data) > 0 {
			var current models.Sprint
			if json.Unmarshal(apiErr.data, &current) == nil && current.ID != "" {
				return nil, &ConflictError{Current: &current}
			}
		}
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteSprint(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: sprintPath(id)}, nil)
}

// DeleteSprints deletes all ids or none of them and returns how many were deleted.
func (c *Client) DeleteSprints(ctx context.Context, ids []string) (int, error) {
	var out struct {
		Deleted int `json:"deleted"`
	}
	body := models.BatchDeleteSprintsRequest{SprintIDs: ids}
	if err := c.do(ctx, request{method: http.MethodDelete, path: "/sprints", body: body}, &out); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}

func (c *Client) transition(ctx context.Context, id, action string) (*models.Sprint, error) {
	var out models.Sprint
	if err := c.do(ctx, request{method: http.MethodPost, path: sprintPath(id) + "/" + action}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) StartSprint(ctx context.Context, id string) (*models.Sprint, error) {
	return c.transition(ctx, id, "start")
}

func (c *Client) PauseSprint(ctx context.Context, id string) (*models.Sprint, error) {
	return c.transition(ctx, id, "pause")
}

func (c *Client) CompleteSprint(ctx context.Context, id string) (*models.Sprint, error) {
	return c.transition(ctx, id, "complete")
}

func (c *Client) GetCountdown(ctx context.Context, id string) (*insights.Countdown, error) {
	var out insights.Countdown
	if err := c.do(ctx, request{method: http.MethodGet, path: sprintPath(id) + "/countdown"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListTasks(ctx context.Context, sprintID string) ([]models.Task, error) {
	var out []models.Task
	err := c.do(ctx, request{method: http.MethodGet, path: sprintPath(sprintID) + "/tasks"}, &out)
	return out, err
}

func (c *Client) CreateTask(ctx context.Context, sprintID string, req models.CreateTaskRequest) (*models.Task, error) {
	var out models.Task
	if err := c.do(ctx, request{method: http.MethodPost, path: sprintPath(sprintID) + "/tasks", body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateTask(ctx context.Context, sprintID, taskID string, req models.UpdateTaskRequest) (*models.Task, error) {
	var out models.Task
	path := sprintPath(sprintID) + "/tasks/" + url.PathEscape(taskID)
	if err := c.do(ctx, request{method: http.MethodPut, path: path, body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteTask(ctx context.Context, sprintID, taskID string) error {
	path := sprintPath(sprintID) + "/tasks/" + url.PathEscape(taskID)
	return c.do(ctx, request{method: http.MethodDelete, path: path}, nil)
}

func (c *Client) ListMilestones(ctx context.Context, sprintID string) ([]models.Milestone, error) {
	var out []models.Milestone
	err := c.do(ctx, request{method: http.MethodGet, path: sprintPath(sprintID) + "/milestones"}, &out)
	return out, err
}

func (c *Client) CreateMilestone(ctx context.Context, sprintID string, req models.CreateMilestoneRequest) (*models.Milestone, error) {
	var out models.Milestone
	if err := c.do(ctx, request{method: http.MethodPost, path: sprintPath(sprintID) + "/milestones", body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
