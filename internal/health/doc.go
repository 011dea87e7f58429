// Package health probes every integration and reports its status.
package health
