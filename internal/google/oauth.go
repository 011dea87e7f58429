package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const refreshTimeout = 30 * time.Second

// LoadConfig reads an OAuth client credentials file downloaded from the
// Google Cloud console ("installed" or "web" application).
func LoadConfig(credentialsFile string, scopes ...string) (*oauth2.Config, error) {
	if credentialsFile == "" {
		return nil, errors.New("credentials file is required")
	}
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	if len(scopes) == 0 {
		scopes = CalendarScopes
	}
	conf, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials file %s: %w", credentialsFile, err)
	}
	return conf, nil
}

// Refresher exchanges a refresh token for a new access token.
type Refresher interface {
	Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error)
}

// ConfigRefresher refreshes tokens against the token endpoint of an
// oauth2.Config.
type ConfigRefresher struct {
	Config     *oauth2.Config
	HTTPClient *http.Client
}

// Refresh implements Refresher.
func (r ConfigRefresher) Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	if token.RefreshToken == "" {
		return nil, errors.New("no refresh token available")
	}
	hc := r.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: refreshTimeout}
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, hc)

	// Only the refresh token is passed so the source always refreshes.
	fresh, err := r.Config.TokenSource(ctx, &oauth2.Token{RefreshToken: token.RefreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	return fresh, nil
}

// isInvalidGrant reports whether the provider rejected the refresh token
// itself, which no retry can fix.
func isInvalidGrant(err error) bool {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return false
	}
	return re.ErrorCode == "invalid_grant" || strings.Contains(string(re.Body), "invalid_grant")
}
