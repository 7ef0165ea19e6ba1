// Package client talks to the companion's JSON API with bearer tokens.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Wh1teCaat/fitness-companion/internal/logging"
	"github.com/Wh1teCaat/fitness-companion/internal/responder"
)

var ErrNotLoggedIn = errors.New("not logged in")

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

type ChatReply struct {
	Response       string                    `json:"response"`
	Emotion        string                    `json:"emotion"`
	Confidence     float64                   `json:"confidence"`
	Disclaimer     string                    `json:"disclaimer"`
	Recommendation *responder.Recommendation `json:"recommendation"`
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  *TokenManager
	logger  logging.Logger
}

func New(baseURL string, timeout time.Duration, logger logging.Logger) *Client {
	tokens := NewTokenManager()
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: &tokenTransport{base: http.DefaultTransport, tokens: tokens},
		},
		tokens: tokens,
		logger: logger,
	}
}

func (c *Client) Tokens() *TokenManager {
	return c.tokens
}

func (c *Client) Login(ctx context.Context, username, password string) error {
	var resp tokenResponse
	if err := c.post(ctx, "/api/token", map[string]string{"username": username, "password": password}, &resp); err != nil {
		return err
	}
	c.tokens.Update(resp.AccessToken, resp.RefreshToken, resp.ExpiresAt)
	return nil
}

func (c *Client) Refresh(ctx context.Context) error {
	refreshToken := c.tokens.RefreshToken()
	if refreshToken == "" {
		return ErrNotLoggedIn
	}

	var resp tokenResponse
	if err := c.post(ctx, "/api/token/refresh", map[string]string{"refresh_token": refreshToken}, &resp); err != nil {
		return err
	}
	c.tokens.Update(resp.AccessToken, resp.RefreshToken, resp.ExpiresAt)
	c.logger.Debug(ctx, "access token refreshed", "expires_at", resp.ExpiresAt)
	return nil
}

// StartTokenRefresher keeps the access token fresh in the background.
func (c *Client) StartTokenRefresher(ctx context.Context) {
	c.tokens.StartRefresher(ctx, RefreshLead, c.Refresh, c.logger)
}

func (c *Client) Chat(ctx context.Context, message string) (*ChatReply, error) {
	if c.tokens.AccessToken() == "" {
		return nil, ErrNotLoggedIn
	}

	var reply ChatReply
	if err := c.post(ctx, "/chat", map[string]string{"message": message}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
