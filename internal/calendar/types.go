package calendar

import (
	"encoding/json"
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// TimeRange is a half-open interval [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Duration returns End - Start.
func (r TimeRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// MarshalJSON adds the length in whole minutes.
func (r TimeRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Start           string `json:"start"`
		End             string `json:"end"`
		DurationMinutes int    `json:"duration_minutes"`
	}{
		Start:           r.Start.Format(time.RFC3339),
		End:             r.End.Format(time.RFC3339),
		DurationMinutes: int(r.Duration() / time.Minute),
	})
}

// EventInput represents the input for creating a calendar event.
type EventInput struct {
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	// TimeZone is an IANA name; UTC when empty.
	TimeZone  string
	Attendees []string
}

// EventUpdate carries the fields to change. Nil fields are left as they are.
type EventUpdate struct {
	Summary     *string
	Description *string
	Location    *string
	Start       *time.Time
	End         *time.Time
	TimeZone    string
	// Attendees replaces the guest list when non-nil. Guests already on the
	// event keep their response status; an empty list removes everyone.
	Attendees *[]string
}

// EventQuery selects events for ListEvents.
type EventQuery struct {
	TimeMin    time.Time
	TimeMax    time.Time
	MaxResults int64
	Query      string
}

// FreeSlotQuery describes a free-slot search.
type FreeSlotQuery struct {
	Window      TimeRange
	MinDuration time.Duration
	// CalendarIDs whose busy times count. Defaults to the primary calendar.
	CalendarIDs []string
}

// Event is a simplified calendar event. Start and End are RFC 3339
// date-times, or plain dates for all-day events.
type Event struct {
	ID          string         `json:"id"`
	Summary     string         `json:"summary"`
	Description string         `json:"description,omitempty"`
	Location    string         `json:"location,omitempty"`
	Start       string         `json:"start"`
	End         string         `json:"end"`
	AllDay      bool           `json:"all_day,omitempty"`
	Status      string         `json:"status,omitempty"`
	HTMLLink    string         `json:"html_link,omitempty"`
	Organizer   string         `json:"organizer,omitempty"`
	Attendees   []AttendeeInfo `json:"attendees,omitempty"`
	MeetLink    string         `json:"meet_link,omitempty"`
}

// AttendeeInfo represents information about an event attendee.
type AttendeeInfo struct {
	Email          string `json:"email"`
	DisplayName    string `json:"display_name,omitempty"`
	ResponseStatus string `json:"response_status,omitempty"` // "needsAction", "declined", "tentative", "accepted"
	Optional       bool   `json:"optional,omitempty"`
}

// CalendarInfo represents information about a calendar.
type CalendarInfo struct {
	ID              string `json:"id"`
	Summary         string `json:"summary"`
	Description     string `json:"description,omitempty"`
	TimeZone        string `json:"time_zone,omitempty"`
	Primary         bool   `json:"primary"`
	AccessRole      string `json:"access_role"` // "owner", "writer", "reader", "freeBusyReader"
	BackgroundColor string `json:"background_color,omitempty"`
	ForegroundColor string `json:"foreground_color,omitempty"`
}

// toEvent converts a Google Calendar event to an Event.
func toEvent(event *calendar.Event) Event {
	if event == nil {
		return Event{}
	}
	e := Event{
		ID:          event.Id,
		Summary:     event.Summary,
		Description: event.Description,
		Location:    event.Location,
		Status:      event.Status,
		HTMLLink:    event.HtmlLink,
	}
	if e.Summary == "" {
		e.Summary = "No title"
	}

	if event.Start != nil {
		e.Start = event.Start.DateTime
		if e.Start == "" {
			e.Start = event.Start.Date
			e.AllDay = event.Start.Date != ""
		}
	}
	if event.End != nil {
		e.End = event.End.DateTime
		if e.End == "" {
			e.End = event.End.Date
		}
	}

	if event.Organizer != nil {
		e.Organizer = event.Organizer.Email
	}
	for _, att := range event.Attendees {
		e.Attendees = append(e.Attendees, AttendeeInfo{
			Email:          att.Email,
			DisplayName:    att.DisplayName,
			ResponseStatus: att.ResponseStatus,
			Optional:       att.Optional,
		})
	}

	if event.ConferenceData != nil {
		for _, ep := range event.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" {
				e.MeetLink = ep.Uri
				break
			}
		}
	}
	return e
}

// toCalendarInfo converts a Google Calendar list entry to CalendarInfo.
func toCalendarInfo(entry *calendar.CalendarListEntry) CalendarInfo {
	if entry == nil {
		return CalendarInfo{}
	}
	return CalendarInfo{
		ID:              entry.Id,
		Summary:         entry.Summary,
		Description:     entry.Description,
		TimeZone:        entry.TimeZone,
		Primary:         entry.Primary,
		AccessRole:      entry.AccessRole,
		BackgroundColor: entry.BackgroundColor,
		ForegroundColor: entry.ForegroundColor,
	}
}
