package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/bird/internal/registry"
)

type probeFunc func(ctx context.Context) (string, error)

func (f probeFunc) Probe(ctx context.Context) (string, error) { return f(ctx) }

type entries []registry.Entry

func (e entries) Entries() []registry.Entry { return e }

func TestReporterCheck(t *testing.T) {
	source := entries{
		{Key: "todoist", Configured: true, Client: probeFunc(func(context.Context) (string, error) {
			return "12 projects", nil
		})},
		{Key: "anki", Configured: true, Client: probeFunc(func(context.Context) (string, error) {
			return "", errors.New("Could not connect to AnkiConnect at http://localhost:8765")
		})},
		{Key: "obsidian", Reason: "OBSIDIAN_VAULT_PATH is not set"},
		{Key: "calendar", Configured: true, Client: probeFunc(func(ctx context.Context) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})},
	}

	var observed atomic.Int32
	r := NewReporter(source, WithTimeout(20*time.Millisecond), WithObserver(func(string, string) { observed.Add(1) }))
	report := r.Check(context.Background())

	require.Len(t, report, 4)
	assert.Equal(t, ServiceStatus{Status: StatusConnected, Message: "12 projects"}, report["todoist"])
	assert.Equal(t, StatusError, report["anki"].Status)
	assert.Contains(t, report["anki"].Message, "Could not connect")
	assert.Equal(t, ServiceStatus{Status: StatusDisabled, Message: "OBSIDIAN_VAULT_PATH is not set"}, report["obsidian"])
	assert.Equal(t, StatusError, report["calendar"].Status)
	assert.Contains(t, report["calendar"].Message, "deadline exceeded")
	assert.EqualValues(t, 4, observed.Load())
}

func TestReporterIdempotent(t *testing.T) {
	source := entries{
		{Key: "todoist", Configured: true, Client: probeFunc(func(context.Context) (string, error) { return "3 projects", nil })},
		{Key: "anki", Reason: "ANKI_ENABLED is false"},
	}
	r := NewReporter(source)
	first := r.Check(context.Background())
	second := r.Check(context.Background())
	assert.Equal(t, first, second)
}

func TestReporterProbesConcurrently(t *testing.T) {
	var inFlight, peak atomic.Int32
	slow := probeFunc(func(context.Context) (string, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		return "ok", nil
	})
	source := entries{
		{Key: "a", Configured: true, Client: slow},
		{Key: "b", Configured: true, Client: slow},
		{Key: "c", Configured: true, Client: slow},
	}
	report := NewReporter(source).Check(context.Background())
	assert.Len(t, report, 3)
	assert.Greater(t, peak.Load(), int32(1))
}
