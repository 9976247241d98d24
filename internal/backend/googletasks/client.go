// Package googletasks implements the remote task service on top of the
// Google Tasks API, storing tasks in the user's default list.
package googletasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"zendo/internal/config"
	"zendo/internal/remote"
	"zendo/internal/service"
)

const (
	// DefaultListID is the special ID for the default list.
	DefaultListID = "@default"

	// PageSize is the number of tasks fetched per API page.
	PageSize = 100

	// APITimeout is the default timeout for API calls.
	APITimeout = 5 * time.Second

	// Scope is the OAuth scope for Google Tasks.
	Scope = "https://www.googleapis.com/auth/tasks"

	statusCompleted   = "completed"
	statusNeedsAction = "needsAction"
)

// errNoToken is returned by the token source when nobody is logged in.
var errNoToken = errors.New("no google token (run: zendo login)")

// TokenStore holds the OAuth token. session.Session implements it.
type TokenStore interface {
	Token() *oauth2.Token
	User() (service.User, bool)
	SetToken(token *oauth2.Token, user service.User) error
}

// Client implements gateway.Remote using the Google Tasks API. Every failure
// it returns is a *remote.Failure.
type Client struct {
	svc      *tasks.Service
	listID   string
	timeout  time.Duration
	category string
}

// LoadOAuthConfig reads the OAuth client credentials file.
func LoadOAuthConfig(path string) (*oauth2.Config, error) {
	clientJSON, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", config.OAuthClientFile, err)
	}
	oauthConfig, err := google.ConfigFromJSON(clientJSON, Scope)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", config.OAuthClientFile, err)
	}
	return oauthConfig, nil
}

// New creates a Google Tasks client authorized by the token held in store.
// Expired tokens are refreshed with the OAuth client credentials when the
// client file exists, and the refreshed token is written back to store.
func New(ctx context.Context, cfg *config.Config, store TokenStore) (*Client, error) {
	var oauthConfig *oauth2.Config
	if cfg.HasOAuthClient() {
		c, err := LoadOAuthConfig(cfg.OAuthClientPath())
		if err != nil {
			return nil, err
		}
		oauthConfig = c
	}

	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Source: &storeTokenSource{ctx: ctx, store: store, oauth: oauthConfig},
			Base:   http.DefaultTransport,
		},
	}
	c, err := NewWithHTTPClient(ctx, httpClient)
	if err != nil {
		return nil, err
	}
	c.timeout = cfg.Settings.Timeout
	c.category = cfg.Settings.DefaultCategory
	return c, nil
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	return &Client{
		svc:      svc,
		listID:   DefaultListID,
		timeout:  APITimeout,
		category: config.DefaultCategory,
	}, nil
}

// List returns every task in the default list, completed ones included.
func (c *Client) List(ctx context.Context) ([]service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result := []service.Task{}
	err := c.svc.Tasks.List(c.listID).
		MaxResults(PageSize).
		ShowCompleted(true).
		ShowHidden(true).
		ShowDeleted(false).
		Pages(ctx, func(resp *tasks.Tasks) error {
			for _, item := range resp.Items {
				result = append(result, c.fromAPI(item))
			}
			return nil
		})
	if err != nil {
		return nil, wrapError(err)
	}
	return result, nil
}

// Create inserts task and returns the stored record, whose id is assigned by
// Google.
func (c *Client) Create(ctx context.Context, task service.Task) (service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	notes, err := encodeNotes(task)
	if err != nil {
		return service.Task{}, remote.Unreachablef(err)
	}
	created, err := c.svc.Tasks.Insert(c.listID, &tasks.Task{
		Title:  task.Title,
		Notes:  notes,
		Status: status(task.Completed),
	}).Context(ctx).Do()
	if err != nil {
		return service.Task{}, wrapError(err)
	}
	return c.fromAPI(created), nil
}

// Update merges patch into the stored task. Fields kept in the notes block
// need the current record, so this is a read followed by a patch.
func (c *Client) Update(ctx context.Context, id string, patch service.Patch) (*service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	current, err := c.svc.Tasks.Get(c.listID, id).Context(ctx).Do()
	if err != nil {
		return nil, wrapError(err)
	}
	merged := patch.Apply(c.fromAPI(current))

	notes, err := encodeNotes(merged)
	if err != nil {
		return nil, remote.Unreachablef(err)
	}
	body := &tasks.Task{
		Title:  merged.Title,
		Notes:  notes,
		Status: status(merged.Completed),
	}
	if !merged.Completed {
		body.NullFields = []string{"Completed"}
	}

	updated, err := c.svc.Tasks.Patch(c.listID, id, body).Context(ctx).Do()
	if err != nil {
		return nil, wrapError(err)
	}
	t := c.fromAPI(updated)
	return &t, nil
}

// Delete removes a task.
func (c *Client) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.svc.Tasks.Delete(c.listID, id).Context(ctx).Do(); err != nil {
		return wrapError(err)
	}
	return nil
}

func (c *Client) fromAPI(item *tasks.Task) service.Task {
	m := decodeNotes(item.Notes)
	t := service.Task{
		ID:        item.Id,
		Title:     item.Title,
		Completed: item.Status == statusCompleted,
		Priority:  m.Priority,
		Category:  m.Category,
		CreatedAt: m.CreatedAt,
		Subtasks:  m.Subtasks,
	}
	if t.Priority == "" {
		t.Priority = service.PriorityMedium
	}
	if t.Category == "" {
		t.Category = c.category
	}
	if t.CreatedAt == 0 {
		if ts, err := time.Parse(time.RFC3339, item.Updated); err == nil {
			t.CreatedAt = ts.UnixMilli()
		}
	}
	return t
}

func status(completed bool) string {
	if completed {
		return statusCompleted
	}
	return statusNeedsAction
}

// wrapError turns API and token errors into remote failures.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	// Nothing was sent, so the remote has not rejected anything.
	if errors.Is(err, errNoToken) {
		return remote.Unreachablef(err)
	}
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		f := &remote.Failure{Reason: remote.Unauthorized, Err: err}
		if re.Response != nil {
			f.Status = re.Response.StatusCode
		}
		return f
	}
	f := remote.Classify(err)
	// Google answers 403 for revoked grants; treat it like an expired token.
	if f.Reason == remote.Rejected && f.Status == http.StatusForbidden {
		f.Reason = remote.Unauthorized
	}
	return f
}

// storeTokenSource reads the token from the store on every request, so a
// credential cleared mid-run stops being used immediately.
type storeTokenSource struct {
	ctx   context.Context
	store TokenStore
	oauth *oauth2.Config
}

func (s *storeTokenSource) Token() (*oauth2.Token, error) {
	tok := s.store.Token()
	if tok == nil || tok.AccessToken == "" {
		return nil, errNoToken
	}
	if tok.Valid() || s.oauth == nil || tok.RefreshToken == "" {
		return tok, nil
	}

	fresh, err := s.oauth.TokenSource(s.ctx, tok).Token()
	if err != nil {
		return nil, err
	}
	if fresh.AccessToken != tok.AccessToken {
		user, _ := s.store.User()
		// A failed write only costs another refresh next run.
		_ = s.store.SetToken(fresh, user)
	}
	return fresh, nil
}
