package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"sprintify-backend-go/internal/insights"
	"sprintify-backend-go/internal/models"
)

// ListUpgradeRequests lists requests with the given status, or all when empty. Admin only.
func (c *Client) ListUpgradeRequests(ctx context.Context, status models.UpgradeStatus) ([]models.UpgradeRequest, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", string(status))
	}
	var out []models.UpgradeRequest
	err := c.do(ctx, request{method: http.MethodGet, path: "/upgrade-requests", query: q}, &out)
	return out, err
}

func (c *Client) CreateUpgradeRequest(ctx context.Context, req models.CreateUpgradeRequestRequest) (*models.UpgradeRequest, error) {
	var out models.UpgradeRequest
	if err := c.do(ctx, request{method: http.MethodPost, path: "/upgrade-requests", body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MyUpgradeStatus returns the caller's latest request, or nil when there is none.
func (c *Client) MyUpgradeStatus(ctx context.Context) (*models.UpgradeRequest, error) {
	var out *models.UpgradeRequest
	if err := c.do(ctx, request{method: http.MethodGet, path: "/upgrade-requests/my-status"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReviewUpgradeRequest approves or rejects a pending request. action is "approve" or "reject".
func (c *Client) ReviewUpgradeRequest(ctx context.Context, id, action, comment string) (*models.UpgradeRequest, error) {
	var out models.UpgradeRequest
	body := models.ReviewUpgradeRequestRequest{Action: action, Comment: comment}
	path := "/upgrade-requests/" + url.PathEscape(id) + "/review"
	if err := c.do(ctx, request{method: http.MethodPost, path: path, body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteUpgradeRequest(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/upgrade-requests/" + url.PathEscape(id)}, nil)
}

// SetupFirstAdmin promotes the caller to admin when no admin exists yet.
func (c *Client) SetupFirstAdmin(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/setup-first-admin"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, request{method: http.MethodPut, path: "/users/me", body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListUsers(ctx context.Context, userType models.UserType, limit int) ([]models.User, error) {
	q := url.Values{}
	if userType != "" {
		q.Set("userType", string(userType))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []models.User
	err := c.do(ctx, request{method: http.MethodGet, path: "/users", query: q}, &out)
	return out, err
}

func (c *Client) GetHeatmap(ctx context.Context) (*insights.Heatmap, error) {
	var out insights.Heatmap
	if err := c.do(ctx, request{method: http.MethodGet, path: "/stats/heatmap"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
