package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"finocr/internal/dto"
	"finocr/pkg/config"

	"go.uber.org/zap"
)

const maxErrorBody = 1 << 20

// TokenSource supplies the persisted bearer token. An empty token means the
// request goes out unauthenticated.
type TokenSource interface {
	Token() (string, error)
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *zap.Logger
}

func NewClient(cfg *config.APIConfig, tokens TokenSource, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		tokens: tokens,
		logger: logger,
	}
}

type requestOptions struct {
	body        io.Reader
	contentType string
	// errorMessage, when set, replaces whatever the server said on failure.
	errorMessage string
	// fallbackMessage is used when the failure body carries no message.
	fallbackMessage string
}

// request is the single network primitive every endpoint method goes through.
func (c *Client) request(ctx context.Context, method, endpoint string, opts requestOptions, out any) error {
	url := c.baseURL + endpoint
	req, err := http.NewRequestWithContext(ctx, method, url, opts.body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	contentType := opts.contentType
	if contentType == "" {
		contentType = "application/json"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("API request",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.errorFromResponse(resp, opts)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	token, err := c.tokens.Token()
	if err != nil {
		c.logger.Warn("Failed to read session token", zap.Error(err))
		return ""
	}
	return token
}

func (c *Client) errorFromResponse(resp *http.Response, opts requestOptions) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if opts.errorMessage != "" {
		apiErr.Message = opts.errorMessage
		return apiErr
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var errResp dto.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		apiErr.Message = errResp.Message
		if apiErr.Message == "" {
			if detail, ok := errResp.Detail.(string); ok {
				apiErr.Message = detail
			}
		}
	}

	if apiErr.Message == "" {
		apiErr.Message = opts.fallbackMessage
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("request failed with status %d", resp.StatusCode)
	}
	return apiErr
}
