// Package registry builds the set of service integrations once at startup
// and dispatches tool operations to them.
//
// Each integration is either Configured, holding a ready client, or
// NotConfigured, holding the reason it is absent. Tool handlers never check
// for nil clients: they hand the integration to Dispatch, which returns the
// "not configured" envelope on their behalf.
package registry
