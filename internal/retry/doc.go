// Package retry runs external calls with a bounded exponential backoff.
//
// Only transient failures are retried: network timeouts, connection resets
// and HTTP 5xx responses. Client errors (4xx) and validation failures are
// returned on the first attempt.
package retry
