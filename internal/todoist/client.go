package todoist

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

	"github.com/google/uuid"

	"github.com/teemow/bird/internal/envelope"
	"github.com/teemow/bird/internal/retry"
)

const (
	serviceName    = "Todoist"
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 512
)

// Client talks to the Todoist REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	policy     retry.Policy
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryPolicy replaces the default retry policy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// WithClock sets the time source used for due-date statistics.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a Client. The token is required.
func NewClient(token, baseURL string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, errors.New("todoist API token is required")
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
		policy:     retry.DefaultPolicy(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CreateTask adds a task.
func (c *Client) CreateTask(ctx context.Context, in TaskInput) (*Task, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, envelope.Validationf("content is required")
	}
	if in.Priority != 0 {
		if err := validatePriority(in.Priority); err != nil {
			return nil, err
		}
	}
	var task Task
	if err := c.do(ctx, http.MethodPost, "/tasks", nil, in, &task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return &task, nil
}

// GetTasks lists active tasks matching the filter.
func (c *Client) GetTasks(ctx context.Context, f TaskFilter) ([]Task, error) {
	q := url.Values{}
	if f.ProjectID != "" {
		q.Set("project_id", f.ProjectID)
	}
	if f.Label != "" {
		q.Set("label", f.Label)
	}
	if f.Filter != "" {
		q.Set("filter", f.Filter)
	}
	var tasks []Task
	if err := c.do(ctx, http.MethodGet, "/tasks", q, nil, &tasks); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask fetches one task.
func (c *Client) GetTask(ctx context.Context, id string) (*Task, error) {
	if id == "" {
		return nil, envelope.Validationf("task_id is required")
	}
	var task Task
	if err := c.do(ctx, http.MethodGet, "/tasks/"+url.PathEscape(id), nil, nil, &task); err != nil {
		return nil, fmt.Errorf("failed to get task %s: %w", id, err)
	}
	return &task, nil
}

// UpdateTask changes the given fields and returns the updated task.
func (c *Client) UpdateTask(ctx context.Context, id string, u TaskUpdate) (*Task, error) {
	if id == "" {
		return nil, envelope.Validationf("task_id is required")
	}
	if u.Empty() {
		return nil, envelope.Validationf("at least one field to update is required")
	}
	if u.Priority != nil {
		if err := validatePriority(*u.Priority); err != nil {
			return nil, err
		}
	}
	var task Task
	if err := c.do(ctx, http.MethodPost, "/tasks/"+url.PathEscape(id), nil, u, &task); err != nil {
		return nil, fmt.Errorf("failed to update task %s: %w", id, err)
	}
	return &task, nil
}

// CompleteTask closes a task.
func (c *Client) CompleteTask(ctx context.Context, id string) error {
	if id == "" {
		return envelope.Validationf("task_id is required")
	}
	if err := c.do(ctx, http.MethodPost, "/tasks/"+url.PathEscape(id)+"/close", nil, nil, nil); err != nil {
		return fmt.Errorf("failed to complete task %s: %w", id, err)
	}
	return nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	if id == "" {
		return envelope.Validationf("task_id is required")
	}
	if err := c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete task %s: %w", id, err)
	}
	return nil
}

// GetProjects lists all projects.
func (c *Client) GetProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.do(ctx, http.MethodGet, "/projects", nil, nil, &projects); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// GetLabels lists personal labels.
func (c *Client) GetLabels(ctx context.Context) ([]Label, error) {
	var labels []Label
	if err := c.do(ctx, http.MethodGet, "/labels", nil, nil, &labels); err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	return labels, nil
}

// GetSections lists sections, optionally limited to one project.
func (c *Client) GetSections(ctx context.Context, projectID string) ([]Section, error) {
	q := url.Values{}
	if projectID != "" {
		q.Set("project_id", projectID)
	}
	var sections []Section
	if err := c.do(ctx, http.MethodGet, "/sections", q, nil, &sections); err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	return sections, nil
}

// GetComments lists the comments on a task.
func (c *Client) GetComments(ctx context.Context, taskID string) ([]Comment, error) {
	if taskID == "" {
		return nil, envelope.Validationf("task_id is required")
	}
	var comments []Comment
	if err := c.do(ctx, http.MethodGet, "/comments", url.Values{"task_id": {taskID}}, nil, &comments); err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// AddComment attaches a comment to a task.
func (c *Client) AddComment(ctx context.Context, taskID, content string) (*Comment, error) {
	if taskID == "" {
		return nil, envelope.Validationf("task_id is required")
	}
	if strings.TrimSpace(content) == "" {
		return nil, envelope.Validationf("content is required")
	}
	body := map[string]string{"task_id": taskID, "content": content}
	var comment Comment
	if err := c.do(ctx, http.MethodPost, "/comments", nil, body, &comment); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	return &comment, nil
}

// Probe lists projects as a cheap connectivity check.
func (c *Client) Probe(ctx context.Context) (string, error) {
	projects, err := c.GetProjects(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d projects", len(projects)), nil
}

func validatePriority(p int) error {
	if p < 1 || p > 4 {
		return envelope.Validationf("priority must be between 1 and 4, got %d", p)
	}
	return nil
}

// do sends one logical request, retrying transient failures. The same
// X-Request-Id is reused across attempts.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	requestID := uuid.NewString()

	_, err := retry.Do(ctx, c.policy, func() (struct{}, error) {
		return struct{}{}, c.send(ctx, method, endpoint, requestID, payload, out)
	})
	return err
}

func (c *Client) send(ctx context.Context, method, endpoint, requestID string, payload []byte, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("X-Request-Id", requestID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &retry.HTTPError{
			Service:    serviceName,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("malformed %s response: %w", serviceName, err)
	}
	return nil
}
