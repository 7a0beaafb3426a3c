package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/westrik/chatwire/internal/model/chat"
	"github.com/westrik/chatwire/pkg/utils"
)

// Client talks to the auth surface of the chat backend: credential issue,
// verification and teardown. The stream and send paths only consume the
// Session value it returns; they never refresh or store it themselves.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates an auth client for the given backend.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Login exchanges a username/password pair for a session.
func (c *Client) Login(ctx context.Context, username, password string) (chat.Session, error) {
	payload := map[string]string{"username": username, "password": password}

	var session chat.Session
	if err := c.post(ctx, "/api/auth/login", "", payload, &session); err != nil {
		return chat.Session{}, err
	}
	if session.Token == "" {
		return chat.Session{}, fmt.Errorf("login response missing token")
	}
	return session, nil
}

// Verify checks whether a token is still honoured by the server.
func (c *Client) Verify(ctx context.Context, token string) error {
	return c.post(ctx, "/api/auth/verify", token, struct{}{}, nil)
}

// Logout invalidates the token server-side. The caller is expected to
// close the stream and discard local state regardless of the outcome.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.post(ctx, "/api/auth/logout", token, struct{}{}, nil)
}

func (c *Client) post(ctx context.Context, path, token string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return utils.ErrorFromResponse(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
