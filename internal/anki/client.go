package anki

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

	"github.com/tidwall/gjson"

	"github.com/teemow/bird/internal/envelope"
	"github.com/teemow/bird/internal/retry"
)

const (
	serviceName = "AnkiConnect"

	// APIVersion is the AnkiConnect protocol version sent with every request.
	APIVersion = 6

	// DefaultURL is where AnkiConnect listens unless configured otherwise.
	DefaultURL = "http://localhost:8765"

	defaultTimeout = 10 * time.Second
)

// ConnectError means AnkiConnect could not be reached. It unwraps to the
// transport error so retry classification still applies.
type ConnectError struct {
	URL string
	Err error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("Could not connect to AnkiConnect at %s. Make sure Anki is running with AnkiConnect installed.", e.URL)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// Client is an AnkiConnect client.
type Client struct {
	url        string
	httpClient *http.Client
	policy     retry.Policy
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

// NewClient creates a Client for the AnkiConnect instance at url.
func NewClient(url string, opts ...Option) *Client {
	if url == "" {
		url = DefaultURL
	}
	c := &Client{
		url:        url,
		httpClient: &http.Client{Timeout: defaultTimeout},
		policy:     retry.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the AnkiConnect endpoint.
func (c *Client) URL() string {
	return c.url
}

type request struct {
	Action  string `json:"action"`
	Version int    `json:"version"`
	Params  any    `json:"params,omitempty"`
}

// invoke runs one AnkiConnect action and returns its raw result.
func (c *Client) invoke(ctx context.Context, action string, params any) (gjson.Result, error) {
	return c.invokeWith(ctx, c.policy, action, params)
}

func (c *Client) invokeWith(ctx context.Context, p retry.Policy, action string, params any) (gjson.Result, error) {
	body, err := json.Marshal(request{Action: action, Version: APIVersion, Params: params})
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to encode %s request: %w", action, err)
	}

	return retry.Do(ctx, p, func() (gjson.Result, error) {
		return c.post(ctx, action, body)
	})
}

func (c *Client) post(ctx context.Context, action string, body []byte) (gjson.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return gjson.Result{}, ctx.Err()
		}
		return gjson.Result{}, &ConnectError{URL: c.url, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return gjson.Result{}, &retry.HTTPError{Service: serviceName, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, fmt.Errorf("malformed %s response to %s", serviceName, action)
	}

	if e := gjson.GetBytes(raw, "error"); e.Exists() && e.Type != gjson.Null {
		return gjson.Result{}, &envelope.Error{
			Kind:    envelope.KindPermanent,
			Service: serviceName,
			Op:      action,
			Err:     errors.New(e.String()),
		}
	}
	return gjson.GetBytes(raw, "result"), nil
}

// call runs an action and decodes its result into out.
func (c *Client) call(ctx context.Context, action string, params, out any) error {
	return c.callWith(ctx, c.policy, action, params, out)
}

func (c *Client) callWith(ctx context.Context, p retry.Policy, action string, params, out any) error {
	res, err := c.invokeWith(ctx, p, action, params)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(res.Raw), out); err != nil {
		return fmt.Errorf("unexpected %s result for %s: %w", serviceName, action, err)
	}
	return nil
}

// Probe lists deck names as a connectivity check.
func (c *Client) Probe(ctx context.Context) (string, error) {
	var names []string
	if err := c.call(ctx, "deckNames", nil, &names); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d decks", len(names)), nil
}
