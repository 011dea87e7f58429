package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultTodoistURL     = "https://api.todoist.com/rest/v2"
	DefaultAnkiConnectURL = "http://localhost:8765"
	DefaultDailyFolder    = "7- daily"
	DefaultHealthTimeout  = 5 * time.Second
)

// Config is the explicit configuration passed to the registry.
type Config struct {
	Todoist  TodoistConfig
	Anki     AnkiConfig
	Obsidian ObsidianConfig
	Calendar CalendarConfig

	// HealthTimeout bounds each health probe.
	HealthTimeout time.Duration
}

type TodoistConfig struct {
	APIToken string
	BaseURL  string
}

type AnkiConfig struct {
	Enabled    bool
	ConnectURL string
}

type ObsidianConfig struct {
	VaultPath   string
	DailyFolder string
}

type CalendarConfig struct {
	// CredentialsFile is the OAuth client secrets JSON downloaded from the
	// Google Cloud Console.
	CredentialsFile string
	TokenFile       string
}

// Load reads .env files (missing files are ignored) and then the environment.
// Variables already set in the environment win over .env values.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	env := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Todoist: TodoistConfig{
			APIToken: getenv("TODOIST_API_TOKEN"),
			BaseURL:  env("TODOIST_API_URL", DefaultTodoistURL),
		},
		Anki: AnkiConfig{
			Enabled:    true,
			ConnectURL: env("ANKI_CONNECT_URL", DefaultAnkiConnectURL),
		},
		Obsidian: ObsidianConfig{
			VaultPath:   getenv("OBSIDIAN_VAULT_PATH"),
			DailyFolder: env("OBSIDIAN_DAILY_FOLDER", DefaultDailyFolder),
		},
		Calendar: CalendarConfig{
			CredentialsFile: getenv("GOOGLE_CALENDAR_CREDENTIALS_FILE"),
			TokenFile:       env("GOOGLE_CALENDAR_TOKEN_FILE", defaultTokenFile()),
		},
		HealthTimeout: DefaultHealthTimeout,
	}

	if v := getenv("ANKI_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ANKI_ENABLED %q: %w", v, err)
		}
		cfg.Anki.Enabled = enabled
	}
	if v := getenv("BIRD_HEALTH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid BIRD_HEALTH_TIMEOUT %q: %w", v, err)
		}
		cfg.HealthTimeout = d
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail later at call time.
func (c Config) Validate() error {
	var errs []error

	if err := validateURL("TODOIST_API_URL", c.Todoist.BaseURL); err != nil {
		errs = append(errs, err)
	}
	if c.Anki.Enabled {
		if err := validateURL("ANKI_CONNECT_URL", c.Anki.ConnectURL); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Obsidian.VaultPath != "" {
		info, err := os.Stat(c.Obsidian.VaultPath)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("OBSIDIAN_VAULT_PATH: %w", err))
		case !info.IsDir():
			errs = append(errs, fmt.Errorf("OBSIDIAN_VAULT_PATH %q is not a directory", c.Obsidian.VaultPath))
		}
	}
	if c.HealthTimeout <= 0 {
		errs = append(errs, fmt.Errorf("health timeout must be positive, got %s", c.HealthTimeout))
	}

	return errors.Join(errs...)
}

// TodoistConfigured reports whether the primary task service has a token.
func (c Config) TodoistConfigured() bool {
	return c.Todoist.APIToken != ""
}

func validateURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http or https URL, got %q", name, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s has no host: %q", name, raw)
	}
	return nil
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".bird", "google_calendar_token.json")
	}
	return filepath.Join(home, ".bird", "google_calendar_token.json")
}
