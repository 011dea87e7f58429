package envelope

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/teemow/bird/internal/retry"
)

// Kind classifies a failure.
type Kind string

const (
	KindNotConfigured Kind = "not_configured"
	KindTransient     Kind = "transient"
	KindPermanent     Kind = "permanent"
	KindValidation    Kind = "validation"
	KindConfiguration Kind = "configuration"
)

// Payload is the body of a successful result. Its keys are flattened next to "success".
type Payload map[string]any

// Result is the success/failure envelope.
type Result struct {
	Success   bool
	Error     string
	ErrorType Kind
	Payload   Payload
}

// OK returns a success result.
func OK(p Payload) Result {
	return Result{Success: true, Payload: p}
}

// Fail returns a failure result with an explicit kind.
func Fail(kind Kind, msg string) Result {
	return Result{Error: msg, ErrorType: kind}
}

// Failure converts an adapter error into a failure result. The message is
// prefixed with the service name.
func Failure(service string, err error) Result {
	return Fail(KindOf(err), fmt.Sprintf("%s error: %v", service, err))
}

// MarshalJSON flattens the payload into the top-level object.
func (r Result) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Payload)+3)
	for k, v := range r.Payload {
		out[k] = v
	}
	out["success"] = r.Success
	if !r.Success {
		out["error"] = r.Error
		out["error_type"] = r.ErrorType
	}
	return json.Marshal(out)
}

// Error is a classified adapter error.
type Error struct {
	Kind    Kind
	Service string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorKind implements the kinded interface.
func (e *Error) ErrorKind() Kind {
	return e.Kind
}

// Validationf returns a validation error. Adapters return it before any external call.
func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Err: fmt.Errorf(format, args...)}
}

// NotFoundf returns a permanent error for a missing resource.
func NotFoundf(format string, args ...any) error {
	return &Error{Kind: KindPermanent, Err: fmt.Errorf(format, args...)}
}

// kinded is implemented by errors that know their own classification.
type kinded interface {
	ErrorKind() Kind
}

// KindOf classifies err.
func KindOf(err error) Kind {
	var k kinded
	if errors.As(err, &k) {
		return k.ErrorKind()
	}
	if retry.IsTransient(err) {
		return KindTransient
	}
	return KindPermanent
}
