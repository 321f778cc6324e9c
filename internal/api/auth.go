package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"finocr/internal/dto"
	"finocr/internal/models"
)

// Login exchanges credentials for a bearer token. The backend reads the
// email from the OAuth2 "username" form field.
func (c *Client) Login(ctx context.Context, email, password string) (*dto.TokenResponse, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var resp dto.TokenResponse
	err := c.request(ctx, http.MethodPost, "/auth/login", requestOptions{
		body:         strings.NewReader(form.Encode()),
		contentType:  "application/x-www-form-urlencoded",
		errorMessage: "Invalid credentials",
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("login response carried no access token")
	}
	return &resp, nil
}

func (c *Client) Register(ctx context.Context, username, email, password string) (*dto.MessageResponse, error) {
	payload, err := json.Marshal(dto.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal register request: %w", err)
	}

	var resp dto.MessageResponse
	if err := c.request(ctx, http.MethodPost, "/auth/register", requestOptions{body: bytes.NewReader(payload)}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.request(ctx, http.MethodGet, "/auth/me", requestOptions{}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
