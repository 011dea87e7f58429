// Package envelope defines the uniform result returned by every tool.
//
// A Result is either a success carrying a payload or a failure carrying a
// human-readable message and an error kind. Failures never cross an adapter
// boundary as panics or bare errors.
package envelope
