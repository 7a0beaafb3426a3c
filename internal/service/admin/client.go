package admin

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

// Client consumes the admin surfaces: user management and the read-only
// message history snapshot. These sit outside the real-time path and are
// plain request/response calls.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient creates an admin client using the given bearer token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// ListUsers returns every registered account.
func (c *Client) ListUsers(ctx context.Context) ([]chat.UserAccount, error) {
	var out struct {
		Users []chat.UserAccount `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/admin/users", nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// CreateUser registers a new account with the default member role.
func (c *Client) CreateUser(ctx context.Context, username, password string) (chat.UserAccount, error) {
	payload := map[string]string{"username": username, "password": password}

	var out struct {
		User chat.UserAccount `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/admin/users", payload, &out); err != nil {
		return chat.UserAccount{}, err
	}
	return out.User, nil
}

// MessageHistory returns the server's current message snapshot.
func (c *Client) MessageHistory(ctx context.Context) ([]chat.Message, error) {
	var out struct {
		Messages []chat.Message `json:"messages"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/chat/messages", nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("admin request: %w", err)
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
