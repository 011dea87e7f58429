// Package calendar provides a client for the Google Calendar API and the
// free-slot computation used for scheduling.
//
// The client takes an oauth2.TokenSource, so token refresh and consent are
// handled by the caller (see the google package). Every API call is retried
// on transient failures.
//
// Example usage:
//
//	client, err := calendar.NewClient(ctx, tokens)
//	if err != nil {
//	    return err
//	}
//	slots, err := client.FreeSlots(ctx, calendar.FreeSlotQuery{
//	    Window:      calendar.TimeRange{Start: start, End: end},
//	    MinDuration: time.Hour,
//	})
package calendar
