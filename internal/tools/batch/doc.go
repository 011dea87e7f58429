// Package batch holds helpers for tools that act on several IDs at once.
//
// It parses ID parameters that may arrive as a single value, a JSON array or
// an encoded string, and reports per-ID outcomes with totals so that a
// partially applied operation is visible to the caller.
package batch
