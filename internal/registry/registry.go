package registry

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/teemow/bird/internal/anki"
	"github.com/teemow/bird/internal/calendar"
	"github.com/teemow/bird/internal/config"
	"github.com/teemow/bird/internal/google"
	"github.com/teemow/bird/internal/logging"
	"github.com/teemow/bird/internal/obsidian"
	"github.com/teemow/bird/internal/todoist"
)

// Service keys, in report order.
const (
	ServiceTodoist  = "todoist"
	ServiceAnki     = "anki"
	ServiceObsidian = "obsidian"
	ServiceCalendar = "calendar"
)

// Prober is implemented by every client. Probe performs one cheap read and
// describes the result.
type Prober interface {
	Probe(ctx context.Context) (string, error)
}

// Entry describes one integration for reporting.
type Entry struct {
	Key        string
	Name       string
	Configured bool
	Reason     string
	Client     Prober
}

// Registry holds every integration. It is built once by New and never
// modified afterwards.
type Registry struct {
	Todoist  Integration[*todoist.Client]
	Anki     Integration[*anki.Client]
	Obsidian Integration[*obsidian.Vault]
	Calendar Integration[*calendar.Client]
}

type options struct {
	todoist       []todoist.Option
	anki          []anki.Option
	obsidian      []obsidian.Option
	calendar      []calendar.Option
	refreshResult func(string)
}

// Option customizes client construction.
type Option func(*options)

// WithTodoistOptions passes options to the Todoist client.
func WithTodoistOptions(opts ...todoist.Option) Option {
	return func(o *options) { o.todoist = append(o.todoist, opts...) }
}

// WithAnkiOptions passes options to the AnkiConnect client.
func WithAnkiOptions(opts ...anki.Option) Option {
	return func(o *options) { o.anki = append(o.anki, opts...) }
}

// WithObsidianOptions passes options to the vault.
func WithObsidianOptions(opts ...obsidian.Option) Option {
	return func(o *options) { o.obsidian = append(o.obsidian, opts...) }
}

// WithCalendarOptions passes options to the Calendar client.
func WithCalendarOptions(opts ...calendar.Option) Option {
	return func(o *options) { o.calendar = append(o.calendar, opts...) }
}

// WithRefreshObserver receives the result of every Calendar token refresh.
func WithRefreshObserver(fn func(result string)) Option {
	return func(o *options) { o.refreshResult = fn }
}

// New constructs every integration from cfg. It never fails: a service that
// cannot be built is NotConfigured with the cause as its reason.
func New(ctx context.Context, cfg config.Config, logger logging.Logger, opts ...Option) *Registry {
	o := options{refreshResult: func(string) {}}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Registry{}
	r.Todoist = Register(logger, "Todoist", func() (*todoist.Client, error) {
		if !cfg.TodoistConfigured() {
			return nil, NotConfiguredf("TODOIST_API_TOKEN is not set")
		}
		return todoist.NewClient(cfg.Todoist.APIToken, cfg.Todoist.BaseURL, o.todoist...)
	})
	r.Anki = Register(logger, "Anki", func() (*anki.Client, error) {
		if !cfg.Anki.Enabled {
			return nil, NotConfiguredf("ANKI_ENABLED is false")
		}
		return anki.NewClient(cfg.Anki.ConnectURL, o.anki...), nil
	})
	r.Obsidian = Register(logger, "Obsidian", func() (*obsidian.Vault, error) {
		if cfg.Obsidian.VaultPath == "" {
			return nil, NotConfiguredf("OBSIDIAN_VAULT_PATH is not set")
		}
		vopts := append([]obsidian.Option{obsidian.WithDailyFolder(cfg.Obsidian.DailyFolder)}, o.obsidian...)
		return obsidian.Open(cfg.Obsidian.VaultPath, vopts...)
	})
	r.Calendar = Register(logger, "Google Calendar", func() (*calendar.Client, error) {
		if cfg.Calendar.CredentialsFile == "" {
			return nil, NotConfiguredf("GOOGLE_CALENDAR_CREDENTIALS_FILE is not set")
		}
		mgr, _, err := CalendarTokens(cfg.Calendar, logger,
			google.WithRefreshObserver(o.refreshResult))
		if err != nil {
			return nil, err
		}
		// serve cannot prompt, so a token that needs consent disables the service.
		if s := mgr.State(); s == google.NoToken || s == google.Invalid {
			_, err := mgr.ValidToken(ctx)
			return nil, err
		}
		return calendar.NewClient(ctx, mgr, o.calendar...)
	})
	return r
}

// CalendarTokens loads the OAuth client configuration and the token manager
// backed by the configured token file.
func CalendarTokens(cfg config.CalendarConfig, logger logging.Logger, opts ...google.ManagerOption) (*google.Manager, *oauth2.Config, error) {
	conf, err := google.LoadConfig(cfg.CredentialsFile, google.CalendarScopes...)
	if err != nil {
		return nil, nil, err
	}
	opts = append([]google.ManagerOption{google.WithLogger(logger)}, opts...)
	mgr := google.NewManager(google.NewFileTokenStore(cfg.TokenFile), google.ConfigRefresher{Config: conf}, opts...)
	return mgr, conf, nil
}

// Entries lists every integration in report order.
func (r *Registry) Entries() []Entry {
	return []Entry{
		entry(ServiceTodoist, r.Todoist),
		entry(ServiceAnki, r.Anki),
		entry(ServiceObsidian, r.Obsidian),
		entry(ServiceCalendar, r.Calendar),
	}
}

func entry[T Prober](key string, in Integration[T]) Entry {
	e := Entry{Key: key, Name: in.Name(), Configured: in.Configured(), Reason: in.Reason()}
	if client, ok := in.Get(); ok {
		e.Client = client
	}
	return e
}

// MinimallyFunctional reports whether the primary task service is available.
func (r *Registry) MinimallyFunctional() bool {
	return r.Todoist.Configured()
}

// Close releases resources held by the clients.
func (r *Registry) Close() error {
	if v, ok := r.Obsidian.Get(); ok {
		return v.Close()
	}
	return nil
}
