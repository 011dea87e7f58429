package google

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/teemow/bird/internal/envelope"
	"github.com/teemow/bird/internal/logging"
)

// expiryLeeway treats a token as expired slightly before its deadline so a
// request does not start with a token that dies in flight.
const expiryLeeway = time.Minute

// defaultTokenTimeout bounds Token, which has no caller context.
const defaultTokenTimeout = 10 * time.Second

// TokenState is a step in the token lifecycle.
type TokenState int

const (
	NoToken TokenState = iota
	Valid
	Expired
	Refreshing
	Invalid
)

func (s TokenState) String() string {
	switch s {
	case NoToken:
		return "no_token"
	case Valid:
		return "valid"
	case Expired:
		return "expired"
	case Refreshing:
		return "refreshing"
	case Invalid:
		return "invalid"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrConsentRequired matches every *ConfigurationError.
var ErrConsentRequired = errors.New("google authorization required")

// ConfigurationError means a usable token cannot be obtained without the
// user granting access again.
type ConfigurationError struct {
	State TokenState
	Err   error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("google calendar authorization required (token %s), run `bird auth calendar`", e.State)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrConsentRequired) true.
func (e *ConfigurationError) Is(target error) bool { return target == ErrConsentRequired }

// ErrorKind classifies the error for result envelopes.
func (e *ConfigurationError) ErrorKind() envelope.Kind { return envelope.KindConfiguration }

// ConsentFunc runs an interactive authorization and returns the new token.
type ConsentFunc func(ctx context.Context) (*oauth2.Token, error)

// Manager drives the token lifecycle. It is safe for concurrent use; at most
// one refresh or consent flow runs at a time.
type Manager struct {
	mu        sync.Mutex
	state     TokenState
	token     *oauth2.Token
	lastErr   error
	scopes    []string
	store     TokenStore
	refresher Refresher
	consent   ConsentFunc
	logger    logging.Logger
	now       func() time.Time
	observe   func(result string)
	timeout   time.Duration
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithConsent enables the interactive flow for NoToken and Invalid states.
func WithConsent(fn ConsentFunc) ManagerOption {
	return func(m *Manager) { m.consent = fn }
}

// WithScopes sets the scopes a stored token must carry. Defaults to CalendarScopes.
func WithScopes(scopes ...string) ManagerOption {
	return func(m *Manager) { m.scopes = scopes }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// WithClock sets the time source used for expiry checks.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// WithRefreshObserver is called after every refresh attempt with "success",
// "invalid_grant" or "error".
func WithRefreshObserver(fn func(result string)) ManagerOption {
	return func(m *Manager) { m.observe = fn }
}

// WithTokenTimeout bounds the refresh started by Token. Defaults to 10s.
func WithTokenTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) { m.timeout = d }
}

// NewManager loads the stored token and derives the initial state.
func NewManager(store TokenStore, refresher Refresher, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:     store,
		refresher: refresher,
		scopes:    CalendarScopes,
		logger:    logging.Discard(),
		now:       time.Now,
		observe:   func(string) {},
		timeout:   defaultTokenTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}

	rec, err := store.Load()
	switch {
	case errors.Is(err, ErrNoToken):
		m.state = NoToken
	case err != nil:
		m.logger.Warn("Stored Google token is unreadable", logging.KeyError, err)
		m.state = Invalid
		m.lastErr = err
	case !hasScopes(rec.Scopes, m.scopes):
		m.state = Invalid
		m.lastErr = fmt.Errorf("stored token lacks required scopes %v", m.scopes)
	default:
		m.token = rec.Token()
		m.state = Valid
		m.observeExpiry()
	}
	return m
}

// State returns the current state.
func (m *Manager) State() TokenState {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observeExpiry()
	return m.state
}

// Token implements oauth2.TokenSource. Callers holding a request context
// should use ValidToken so the refresh honours its deadline.
func (m *Manager) Token() (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	return m.ValidToken(ctx)
}

// ValidToken returns a usable access token, refreshing or running the
// consent flow when the state requires it.
func (m *Manager) ValidToken(ctx context.Context) (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.observeExpiry()
	switch m.state {
	case Valid:
		return m.token, nil
	case Expired:
		return m.refresh(ctx)
	default:
		return m.runConsent(ctx)
	}
}

// Authorize runs the consent flow regardless of the current state and
// persists the result.
func (m *Manager) Authorize(ctx context.Context) (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.consent == nil {
		return nil, &ConfigurationError{State: m.state, Err: errors.New("no interactive consent flow available")}
	}
	tok, err := m.consent(ctx)
	if err != nil {
		return nil, fmt.Errorf("authorization failed: %w", err)
	}
	if err := m.becomeValid(tok); err != nil {
		return nil, err
	}
	return m.token, nil
}

// observeExpiry moves Valid to Expired once the deadline passes.
func (m *Manager) observeExpiry() {
	if m.state != Valid || m.token == nil || m.token.Expiry.IsZero() {
		return
	}
	if !m.now().Add(expiryLeeway).Before(m.token.Expiry) {
		m.state = Expired
	}
}

func (m *Manager) refresh(ctx context.Context) (*oauth2.Token, error) {
	if m.token.RefreshToken == "" {
		m.state = Invalid
		m.lastErr = errors.New("token expired and no refresh token is stored")
		return m.runConsent(ctx)
	}

	m.state = Refreshing
	fresh, err := m.refresher.Refresh(ctx, m.token)
	if err != nil {
		if isInvalidGrant(err) {
			m.observe("invalid_grant")
			m.logger.Warn("Google refresh token rejected", logging.KeyError, err)
			m.state = Invalid
			m.lastErr = err
			return m.runConsent(ctx)
		}
		m.observe("error")
		m.state = Expired
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}
	m.observe("success")

	if fresh.RefreshToken == "" {
		fresh.RefreshToken = m.token.RefreshToken
	}
	if err := m.becomeValid(fresh); err != nil {
		m.logger.Warn("Failed to persist refreshed token", logging.KeyError, err)
	}
	return m.token, nil
}

func (m *Manager) runConsent(ctx context.Context) (*oauth2.Token, error) {
	if m.consent == nil {
		return nil, &ConfigurationError{State: m.state, Err: m.lastErr}
	}
	tok, err := m.consent(ctx)
	if err != nil {
		return nil, fmt.Errorf("authorization failed: %w", err)
	}
	if err := m.becomeValid(tok); err != nil {
		m.logger.Warn("Failed to persist new token", logging.KeyError, err)
	}
	return m.token, nil
}

// becomeValid installs tok and writes it to the store.
func (m *Manager) becomeValid(tok *oauth2.Token) error {
	m.token = tok
	m.state = Valid
	m.lastErr = nil
	if err := m.store.Save(NewRecord(tok, m.scopes)); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}
