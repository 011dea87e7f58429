// Package calendar_tools provides MCP tools for Google Calendar.
//
// Event tools list, create, update and delete events; quick add hands a
// free-text phrase to Google's parser. Scheduling tools find free slots
// across one or more calendars and book study blocks.
//
// Times are RFC 3339, or a local date-time without offset that is read in
// the given timezone (UTC by default). Every tool accepts calendar_id and
// falls back to the primary calendar.
package calendar_tools
