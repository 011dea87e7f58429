package google

import (
	"slices"

	calendar "google.golang.org/api/calendar/v3"
)

// CalendarScopes are the OAuth scopes requested for the Calendar integration.
var CalendarScopes = []string{
	calendar.CalendarScope,
}

// hasScopes reports whether granted covers every required scope. A record
// without scope information is accepted, since older token files lack it.
func hasScopes(granted, required []string) bool {
	if len(granted) == 0 {
		return true
	}
	for _, s := range required {
		if !slices.Contains(granted, s) {
			return false
		}
	}
	return true
}
