package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/bird/internal/envelope"
	"github.com/teemow/bird/internal/retry"
)

const (
	// PrimaryCalendar is the alias Google uses for the user's main calendar.
	PrimaryCalendar = "primary"

	defaultTimeZone    = "UTC"
	defaultStudyLength = 60 * time.Minute
	todayMaxResults    = 50
	maxResultsLimit    = 2500
)

// Client wraps the Google Calendar service
type Client struct {
	svc    *calendar.Service
	policy retry.Policy
	now    func() time.Time
}

type clientConfig struct {
	serviceOpts []option.ClientOption
	policy      retry.Policy
	now         func() time.Time
}

// Option configures a Client.
type Option func(*clientConfig)

// WithServiceOptions passes options to the underlying API service, for
// example a custom endpoint in tests.
func WithServiceOptions(opts ...option.ClientOption) Option {
	return func(c *clientConfig) { c.serviceOpts = append(c.serviceOpts, opts...) }
}

// WithRetryPolicy replaces the default retry policy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *clientConfig) { c.policy = p }
}

// WithClock sets the time source for today and upcoming queries.
func WithClock(now func() time.Time) Option {
	return func(c *clientConfig) { c.now = now }
}

// NewClient creates a Calendar client that authenticates every request with
// tokens. When tokens is nil the service options must supply the HTTP client.
func NewClient(ctx context.Context, tokens oauth2.TokenSource, opts ...Option) (*Client, error) {
	cfg := clientConfig{policy: retry.DefaultPolicy(), now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	var svcOpts []option.ClientOption
	if tokens != nil {
		base := otelhttp.NewTransport(http.DefaultTransport)
		var rt http.RoundTripper = &oauth2.Transport{Source: tokens, Base: base}
		if cs, ok := tokens.(ContextTokenSource); ok {
			rt = &contextTransport{tokens: cs, base: base}
		}
		svcOpts = append(svcOpts, option.WithHTTPClient(&http.Client{Transport: rt}))
	}
	svcOpts = append(svcOpts, cfg.serviceOpts...)

	svc, err := calendar.NewService(ctx, svcOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return &Client{svc: svc, policy: cfg.policy, now: cfg.now}, nil
}

// ContextTokenSource yields a token under the caller's context, so a refresh
// is cancelled together with the request that needed it.
type ContextTokenSource interface {
	ValidToken(ctx context.Context) (*oauth2.Token, error)
}

// contextTransport authorizes each request with a token obtained under the
// request's own context.
type contextTransport struct {
	tokens ContextTokenSource
	base   http.RoundTripper
}

func (t *contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	tok, err := t.tokens.ValidToken(req.Context())
	if err != nil {
		if req.Body != nil {
			_ = req.Body.Close()
		}
		return nil, err
	}
	r := req.Clone(req.Context())
	tok.SetAuthHeader(r)
	return t.base.RoundTrip(r)
}

func calendarOrPrimary(id string) string {
	if id == "" {
		return PrimaryCalendar
	}
	return id
}

// ListCalendars lists all calendars accessible to the user
func (c *Client) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	list, err := retry.Do(ctx, c.policy, func() (*calendar.CalendarList, error) {
		return c.svc.CalendarList.List().Context(ctx).Do()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	calendars := make([]CalendarInfo, 0, len(list.Items))
	for _, entry := range list.Items {
		calendars = append(calendars, toCalendarInfo(entry))
	}
	return calendars, nil
}

// CreateEvent creates a new calendar event
func (c *Client) CreateEvent(ctx context.Context, calendarID string, input EventInput) (*Event, error) {
	if strings.TrimSpace(input.Summary) == "" {
		return nil, envelope.Validationf("summary is required")
	}
	if input.Start.IsZero() || input.End.IsZero() {
		return nil, envelope.Validationf("start_time and end_time are required")
	}
	if !input.End.After(input.Start) {
		return nil, envelope.Validationf("end_time must be after start_time")
	}
	tz := input.TimeZone
	if tz == "" {
		tz = defaultTimeZone
	}

	event := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Location:    input.Location,
		Start:       dateTime(input.Start, tz),
		End:         dateTime(input.End, tz),
		Attendees:   attendees(input.Attendees),
		Id:          newEventID(),
	}

	// The fixed ID makes a retried insert land on the event an earlier
	// attempt may already have created.
	calID := calendarOrPrimary(calendarID)
	attempt := 0
	created, err := retry.Do(ctx, c.policy, func() (*calendar.Event, error) {
		attempt++
		ev, err := c.svc.Events.Insert(calID, event).Context(ctx).Do()
		if err != nil && attempt > 1 && retry.StatusCode(err) == http.StatusConflict {
			return c.svc.Events.Get(calID, event.Id).Context(ctx).Do()
		}
		return ev, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	e := toEvent(created)
	return &e, nil
}

// newEventID returns a random ID in the base32hex alphabet Google requires
// for client-supplied event IDs.
func newEventID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// UpdateEvent fetches the event, applies the update and writes it back.
func (c *Client) UpdateEvent(ctx context.Context, calendarID, eventID string, u EventUpdate) (*Event, error) {
	if eventID == "" {
		return nil, envelope.Validationf("event_id is required")
	}
	if u.Start != nil && u.End != nil && !u.End.After(*u.Start) {
		return nil, envelope.Validationf("end_time must be after start_time")
	}
	calID := calendarOrPrimary(calendarID)

	existing, err := retry.Do(ctx, c.policy, func() (*calendar.Event, error) {
		return c.svc.Events.Get(calID, eventID).Context(ctx).Do()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get existing event: %w", err)
	}

	tz := u.TimeZone
	if tz == "" {
		tz = defaultTimeZone
	}
	if u.Summary != nil {
		existing.Summary = *u.Summary
	}
	if u.Description != nil {
		existing.Description = *u.Description
	}
	if u.Location != nil {
		existing.Location = *u.Location
	}
	if u.Start != nil {
		existing.Start = dateTime(*u.Start, tz)
	}
	if u.End != nil {
		existing.End = dateTime(*u.End, tz)
	}
	if u.Attendees != nil {
		existing.Attendees = mergeAttendees(existing.Attendees, *u.Attendees)
	}

	updated, err := retry.Do(ctx, c.policy, func() (*calendar.Event, error) {
		return c.svc.Events.Update(calID, eventID, existing).Context(ctx).Do()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	e := toEvent(updated)
	return &e, nil
}

// DeleteEvent deletes a calendar event
func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if eventID == "" {
		return envelope.Validationf("event_id is required")
	}
	_, err := retry.Do(ctx, c.policy, func() (struct{}, error) {
		return struct{}{}, c.svc.Events.Delete(calendarOrPrimary(calendarID), eventID).Context(ctx).Do()
	})
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// ListEvents lists single events in a time window ordered by start time.
func (c *Client) ListEvents(ctx context.Context, calendarID string, q EventQuery) ([]Event, error) {
	if q.MaxResults < 0 || q.MaxResults > maxResultsLimit {
		return nil, envelope.Validationf("max_results must be between 1 and %d", maxResultsLimit)
	}
	if !q.TimeMax.IsZero() && !q.TimeMax.After(q.TimeMin) {
		return nil, envelope.Validationf("time_max must be after time_min")
	}
	timeMin := q.TimeMin
	if timeMin.IsZero() {
		timeMin = c.now()
	}

	events, err := retry.Do(ctx, c.policy, func() (*calendar.Events, error) {
		call := c.svc.Events.List(calendarOrPrimary(calendarID)).
			TimeMin(timeMin.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			Context(ctx)
		if !q.TimeMax.IsZero() {
			call = call.TimeMax(q.TimeMax.Format(time.RFC3339))
		}
		if q.MaxResults > 0 {
			call = call.MaxResults(q.MaxResults)
		}
		if q.Query != "" {
			call = call.Q(q.Query)
		}
		return call.Do()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	out := make([]Event, 0, len(events.Items))
	for _, event := range events.Items {
		out = append(out, toEvent(event))
	}
	return out, nil
}

// QuickAdd creates an event from a free-text phrase parsed by Google.
func (c *Client) QuickAdd(ctx context.Context, calendarID, text string) (*Event, error) {
	if strings.TrimSpace(text) == "" {
		return nil, envelope.Validationf("text is required")
	}
	// Quick add takes no client ID, so only unsent requests are retried.
	created, err := retry.Do(ctx, c.policy.UnsentOnly(), func() (*calendar.Event, error) {
		return c.svc.Events.QuickAdd(calendarOrPrimary(calendarID), text).Context(ctx).Do()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to quick-add event: %w", err)
	}
	e := toEvent(created)
	return &e, nil
}

// TodayEvents lists events between local midnight and the next midnight.
func (c *Client) TodayEvents(ctx context.Context, calendarID string) ([]Event, error) {
	now := c.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return c.ListEvents(ctx, calendarID, EventQuery{
		TimeMin:    start,
		TimeMax:    start.AddDate(0, 0, 1),
		MaxResults: todayMaxResults,
	})
}

// UpcomingEvents lists events in the next days days.
func (c *Client) UpcomingEvents(ctx context.Context, calendarID string, days int, maxResults int64) ([]Event, error) {
	if days <= 0 {
		return nil, envelope.Validationf("days must be positive")
	}
	now := c.now()
	return c.ListEvents(ctx, calendarID, EventQuery{
		TimeMin:    now,
		TimeMax:    now.AddDate(0, 0, days),
		MaxResults: maxResults,
	})
}

// FreeSlots queries busy times for the calendars and returns the free gaps
// of at least q.MinDuration.
func (c *Client) FreeSlots(ctx context.Context, q FreeSlotQuery) ([]TimeRange, error) {
	if !q.Window.End.After(q.Window.Start) {
		return nil, envelope.Validationf("time_max must be after time_min")
	}
	if q.MinDuration <= 0 {
		return nil, envelope.Validationf("duration must be positive")
	}
	ids := q.CalendarIDs
	if len(ids) == 0 {
		ids = []string{PrimaryCalendar}
	}

	busy, err := c.busy(ctx, q.Window, ids)
	if err != nil {
		return nil, err
	}
	return FindFreeSlots(q.Window, busy, q.MinDuration), nil
}

func (c *Client) busy(ctx context.Context, window TimeRange, calendarIDs []string) ([]TimeRange, error) {
	items := make([]*calendar.FreeBusyRequestItem, len(calendarIDs))
	for i, id := range calendarIDs {
		items[i] = &calendar.FreeBusyRequestItem{Id: id}
	}
	query := &calendar.FreeBusyRequest{
		TimeMin: window.Start.Format(time.RFC3339),
		TimeMax: window.End.Format(time.RFC3339),
		Items:   items,
	}

	result, err := retry.Do(ctx, c.policy, func() (*calendar.FreeBusyResponse, error) {
		return c.svc.Freebusy.Query(query).Context(ctx).Do()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query freebusy: %w", err)
	}

	var (
		busy []TimeRange
		errs []error
	)
	for calID, cal := range result.Calendars {
		for _, e := range cal.Errors {
			errs = append(errs, fmt.Errorf("calendar %s: %s", calID, e.Reason))
		}
		for _, b := range cal.Busy {
			start, err := time.Parse(time.RFC3339, b.Start)
			if err != nil {
				return nil, fmt.Errorf("invalid busy start %q: %w", b.Start, err)
			}
			end, err := time.Parse(time.RFC3339, b.End)
			if err != nil {
				return nil, fmt.Errorf("invalid busy end %q: %w", b.End, err)
			}
			busy = append(busy, TimeRange{Start: start, End: end})
		}
	}
	// A calendar that could not be read would make its busy time look free.
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to query freebusy: %w", errors.Join(errs...))
	}
	return busy, nil
}

// CreateStudyBlock creates a "Study: <subject>" event of the given length.
func (c *Client) CreateStudyBlock(ctx context.Context, calendarID, subject string, start time.Time, length time.Duration, timeZone string) (*Event, error) {
	if strings.TrimSpace(subject) == "" {
		return nil, envelope.Validationf("subject is required")
	}
	if length == 0 {
		length = defaultStudyLength
	}
	if length < 0 {
		return nil, envelope.Validationf("duration must be positive")
	}
	minutes := int(length / time.Minute)
	return c.CreateEvent(ctx, calendarID, EventInput{
		Summary:     "Study: " + subject,
		Description: fmt.Sprintf("Focused study session for %s\nDuration: %d minutes", subject, minutes),
		Start:       start,
		End:         start.Add(length),
		TimeZone:    timeZone,
	})
}

// Probe lists calendars as a connectivity check.
func (c *Client) Probe(ctx context.Context) (string, error) {
	cals, err := c.ListCalendars(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d calendars", len(cals)), nil
}

// ParseTime accepts RFC 3339 or a local date-time without offset, which is
// read in timeZone (UTC when empty).
func ParseTime(value, timeZone string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	loc := time.UTC
	if timeZone != "" {
		var err error
		if loc, err = time.LoadLocation(timeZone); err != nil {
			return time.Time{}, envelope.Validationf("unknown timezone %q", timeZone)
		}
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04", time.DateOnly} {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, envelope.Validationf("invalid time %q, expected ISO 8601 such as 2025-11-16T10:00:00", value)
}

func dateTime(t time.Time, tz string) *calendar.EventDateTime {
	return &calendar.EventDateTime{DateTime: t.Format(time.RFC3339), TimeZone: tz}
}

// mergeAttendees returns the guests for emails, reusing current entries so
// their responses survive the update.
func mergeAttendees(current []*calendar.EventAttendee, emails []string) []*calendar.EventAttendee {
	byEmail := make(map[string]*calendar.EventAttendee, len(current))
	for _, a := range current {
		byEmail[strings.ToLower(a.Email)] = a
	}
	out := make([]*calendar.EventAttendee, 0, len(emails))
	for _, email := range emails {
		if a, ok := byEmail[strings.ToLower(email)]; ok {
			out = append(out, a)
			continue
		}
		out = append(out, &calendar.EventAttendee{Email: email})
	}
	return out
}

func attendees(emails []string) []*calendar.EventAttendee {
	if len(emails) == 0 {
		return nil
	}
	out := make([]*calendar.EventAttendee, 0, len(emails))
	for _, email := range emails {
		out = append(out, &calendar.EventAttendee{Email: email})
	}
	return out
}
