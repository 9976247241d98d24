// Package httpapi implements the remote task service over its REST API.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"zendo/internal/remote"
	"zendo/internal/service"
)

const (
	// DefaultTimeout bounds every remote call.
	DefaultTimeout = 5 * time.Second

	// maxErrorBody caps how much of an error response is kept for messages.
	maxErrorBody = 4 << 10
)

// AuthHeaderer supplies the Authorization header for outgoing requests.
type AuthHeaderer interface {
	AuthHeader() string
}

// Client talks to the remote task service. Every failure it returns is a
// *remote.Failure.
type Client struct {
	baseURL string
	http    *http.Client
	auth    AuthHeaderer
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New creates a client for the service rooted at baseURL (e.g.
// "http://localhost:5000/api"). auth may be nil.
func New(baseURL string, auth AuthHeaderer, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		auth:    auth,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List fetches the whole collection.
func (c *Client) List(ctx context.Context) ([]service.Task, error) {
	var tasks []service.Task
	status, err := c.do(ctx, http.MethodGet, "/todos", nil, &tasks, true)
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if err := checkRecord(status, t); err != nil {
			return nil, err
		}
	}
	if tasks == nil {
		tasks = []service.Task{}
	}
	return tasks, nil
}

// Create submits a new record and returns the server's canonical copy.
func (c *Client) Create(ctx context.Context, task service.Task) (service.Task, error) {
	var created service.Task
	status, err := c.do(ctx, http.MethodPost, "/todos", task, &created, true)
	if err != nil {
		return service.Task{}, err
	}
	if err := checkRecord(status, created); err != nil {
		return service.Task{}, err
	}
	return created, nil
}

// Update submits a partial patch. A 404 or a null body is returned as a
// NotFound failure.
func (c *Client) Update(ctx context.Context, id string, patch service.Patch) (*service.Task, error) {
	var updated *service.Task
	status, err := c.do(ctx, http.MethodPut, "/todos/"+url.PathEscape(id), patch, &updated, true)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, &remote.Failure{Reason: remote.NotFound, Status: status, Err: errNullRecord}
	}
	if err := checkRecord(status, *updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a record. No response body is required.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/todos/"+url.PathEscape(id), nil, nil, true)
	return err
}

var errNullRecord = errors.New("server returned no record")

// checkRecord rejects a decoded record that is missing its identity. A
// partial record is never handed to the gateway as canonical.
func checkRecord(status int, t service.Task) error {
	if t.ID == "" || strings.TrimSpace(t.Title) == "" {
		return remote.Malformedf(status, fmt.Errorf("incomplete task record (id %q)", t.ID))
	}
	return nil
}

// do performs one request and returns the response status. out may be nil
// when the body is ignored.
func (c *Client) do(ctx context.Context, method, path string, in, out any, withAuth bool) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, remote.Unreachablef(fmt.Errorf("encode request: %w", err))
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, remote.Unreachablef(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if withAuth && c.auth != nil {
		if h := c.auth.AuthHeader(); h != "" {
			req.Header.Set("Authorization", h)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, remote.Unreachablef(err)
	}
	defer resp.Body.Close()

	if !remote.IsSuccess(resp.StatusCode) {
		return resp.StatusCode, remote.FromStatus(resp.StatusCode, errorFromBody(resp))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil {
			return 0, remote.Unreachablef(ctx.Err())
		}
		return resp.StatusCode, remote.Malformedf(resp.StatusCode, err)
	}
	return resp.StatusCode, nil
}

// apiResponse is the error envelope the service uses on failures.
type apiResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// errorFromBody extracts a human-readable message from an error response.
func errorFromBody(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var env apiResponse
	if err := json.Unmarshal(data, &env); err == nil {
		if env.Error != "" {
			return errors.New(env.Error)
		}
		if env.Message != "" {
			return errors.New(env.Message)
		}
	}
	if text := strings.TrimSpace(string(data)); text != "" && len(text) < 200 {
		return errors.New(text)
	}
	return errors.New(http.StatusText(resp.StatusCode))
}
