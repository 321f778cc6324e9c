package api

import (
	"context"
	"net/http"
	"net/url"

	"finocr/internal/dto"
	"finocr/internal/models"
)

func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.request(ctx, http.MethodGet, "/admin/users", requestOptions{}, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) DeactivateUser(ctx context.Context, userID string) (*dto.MessageResponse, error) {
	var resp dto.MessageResponse
	endpoint := "/admin/users/" + url.PathEscape(userID) + "/deactivate"
	if err := c.request(ctx, http.MethodPost, endpoint, requestOptions{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
