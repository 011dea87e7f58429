package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/teemow/bird/internal/envelope"
	"github.com/teemow/bird/internal/logging"
)

// ErrNotConfigured is returned by a factory whose configuration is absent.
// It is not a failure: the service is simply left out.
var ErrNotConfigured = errors.New("not configured")

// Integration is either a configured client or the reason it is missing.
// The zero value is NotConfigured with an empty reason.
type Integration[T any] struct {
	name       string
	client     T
	configured bool
	reason     string
}

// Configured wraps a ready client.
func Configured[T any](name string, client T) Integration[T] {
	return Integration[T]{name: name, client: client, configured: true}
}

// NotConfigured records why name has no client.
func NotConfigured[T any](name, reason string) Integration[T] {
	return Integration[T]{name: name, reason: reason}
}

// Name is the display name used in messages, e.g. "Todoist".
func (i Integration[T]) Name() string { return i.name }

// Get returns the client and whether it is present.
func (i Integration[T]) Get() (T, bool) {
	return i.client, i.configured
}

// Configured reports whether a client is present.
func (i Integration[T]) Configured() bool { return i.configured }

// Reason is empty for configured integrations.
func (i Integration[T]) Reason() string { return i.reason }

// Register runs factory once. ErrNotConfigured and every other factory error
// yield NotConfigured; startup continues either way.
func Register[T any](logger logging.Logger, name string, factory func() (T, error)) Integration[T] {
	client, err := factory()
	switch {
	case errors.Is(err, ErrNotConfigured):
		reason := err.Error()
		var nc *notConfiguredError
		if errors.As(err, &nc) {
			reason = nc.reason
		}
		logger.Info("Integration disabled", logging.KeyService, name, "reason", reason)
		return NotConfigured[T](name, reason)
	case err != nil:
		logger.Warn("Integration failed to initialize", logging.KeyService, name, logging.KeyError, err)
		return NotConfigured[T](name, err.Error())
	}
	logger.Info("Integration configured", logging.KeyService, name)
	return Configured(name, client)
}

type notConfiguredError struct{ reason string }

func (e *notConfiguredError) Error() string        { return "not configured: " + e.reason }
func (e *notConfiguredError) Is(target error) bool { return target == ErrNotConfigured }

// NotConfiguredf returns an error matching ErrNotConfigured whose message
// becomes the integration's reason.
func NotConfiguredf(format string, args ...any) error {
	return &notConfiguredError{reason: fmt.Sprintf(format, args...)}
}

// Op is an operation against a configured client.
type Op[T any] func(ctx context.Context, client T) (envelope.Payload, error)

// Dispatch runs op against the integration's client and always returns
// exactly one envelope. A missing client, an error and a panic all become
// failure envelopes.
func Dispatch[T any](ctx context.Context, in Integration[T], op Op[T]) (res envelope.Result) {
	client, ok := in.Get()
	if !ok {
		return envelope.Fail(envelope.KindNotConfigured,
			fmt.Sprintf("%s is not configured: %s", in.name, in.reason))
	}

	defer func() {
		if r := recover(); r != nil {
			res = envelope.Fail(envelope.KindPermanent,
				fmt.Sprintf("%s error: internal error: %v", in.name, r))
		}
	}()

	payload, err := op(ctx, client)
	if err != nil {
		return envelope.Failure(in.name, err)
	}
	return envelope.OK(payload)
}
