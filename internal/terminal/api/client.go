// Package api is the terminal's HTTP/JSON client for the central server:
// liveness probe, terminal login, batch upsert push, changed-since diff pull,
// and image asset fetch. All calls honor the deadline on the passed context;
// callers decide how long a probe or a batch is allowed to take.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/terminal/models"
)

// Client talks to one server. Safe for concurrent use.
type Client struct {
	baseURL  string
	terminal string
	secret   string
	http     *http.Client

	mu    sync.Mutex
	token string
}

func NewClient(baseURL, terminal, secret string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		terminal: terminal,
		secret:   secret,
		http:     &http.Client{},
	}
}

type healthResponse struct {
	Status string `json:"status"`
}

// Health probes the server's liveness endpoint. Any transport error,
// non-200 status, or malformed body counts as offline.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: %s", resp.Status)
	}
	var body healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("health check body: %w", err)
	}
	if body.Status != "ok" {
		return fmt.Errorf("health check status: %q", body.Status)
	}
	return nil
}

type loginRequest struct {
	Terminal string `json:"terminal"`
	Secret   string `json:"secret"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges the terminal's provisioning secret for a bearer token.
func (c *Client) Login(ctx context.Context) error {
	payload, err := json.Marshal(loginRequest{Terminal: c.terminal, Secret: c.secret})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return common.ErrorUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed: %s", resp.Status)
	}
	var body loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("login body: %w", err)
	}

	c.mu.Lock()
	c.token = body.Token
	c.mu.Unlock()
	return nil
}

// Push submits one batch of queued snapshots for a single entity type. The
// body wraps the batch under the entity type's own key, e.g.
// {"cash-movements": [...]}.
func (c *Client) Push(ctx context.Context, entityType models.EntityType, payloads []json.RawMessage) (*models.PushResponse, error) {
	body, err := json.Marshal(map[models.EntityType][]json.RawMessage{entityType: payloads})
	if err != nil {
		return nil, err
	}

	resp, err := c.doAuthorized(ctx, http.MethodPost, "/api/sync/"+string(entityType), body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result models.PushResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("push response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !result.Success {
		return &result, fmt.Errorf("push %s rejected: %s (%s)", entityType, resp.Status, result.Message)
	}
	return &result, nil
}

// Diff requests everything changed since the given cursor. The server's
// clock (ts) is returned alongside the per-type batches so the caller can
// advance the cursor without consulting its own clock.
func (c *Client) Diff(ctx context.Context, since time.Time) (time.Time, map[models.EntityType]json.RawMessage, error) {
	path := "/api/sync/diff?since=" + url.QueryEscape(since.UTC().Format(time.RFC3339Nano))
	resp, err := c.doAuthorized(ctx, http.MethodGet, path, nil)
	if err != nil {
		return time.Time{}, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return time.Time{}, nil, fmt.Errorf("diff failed: %s", resp.Status)
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return time.Time{}, nil, fmt.Errorf("diff body: %w", err)
	}

	tsRaw, ok := raw["ts"]
	if !ok {
		return time.Time{}, nil, fmt.Errorf("diff response missing ts")
	}
	var ts time.Time
	if err := json.Unmarshal(tsRaw, &ts); err != nil {
		return time.Time{}, nil, fmt.Errorf("diff ts: %w", err)
	}
	delete(raw, "ts")

	batches := make(map[models.EntityType]json.RawMessage, len(raw))
	for key, value := range raw {
		batches[models.EntityType(key)] = value
	}
	return ts, batches, nil
}

// FetchImage downloads one image asset by its server-relative path.
func (c *Client) FetchImage(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/images/"+strings.TrimLeft(path, "/"), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image fetch failed: %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// doAuthorized performs a request with the bearer token attached, logging in
// again once on a 401 (token expiry between cycles).
func (c *Client) doAuthorized(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	resp.Body.Close()

	if err := c.Login(ctx); err != nil {
		return nil, fmt.Errorf("re-login: %w", err)
	}
	return c.do(ctx, method, path, body)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.http.Do(req)
}
