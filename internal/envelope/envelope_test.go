package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/bird/internal/retry"
)

func decode(t *testing.T, r Result) map[string]any {
	t.Helper()
	data, err := json.Marshal(r)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestResult_SuccessFlattensPayload(t *testing.T) {
	out := decode(t, OK(Payload{"count": 2, "tasks": []string{"a", "b"}}))

	assert.Equal(t, true, out["success"])
	assert.Equal(t, float64(2), out["count"])
	assert.NotContains(t, out, "error")
}

func TestResult_Failure(t *testing.T) {
	out := decode(t, Failure("Todoist", errors.New("boom")))

	assert.Equal(t, false, out["success"])
	assert.Equal(t, "Todoist error: boom", out["error"])
	assert.Equal(t, string(KindPermanent), out["error_type"])
}

func TestResult_PayloadCannotOverrideSuccess(t *testing.T) {
	out := decode(t, OK(Payload{"success": false}))
	assert.Equal(t, true, out["success"])
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "validation", err: Validationf("priority must be 1-4"), want: KindValidation},
		{name: "wrapped validation", err: fmt.Errorf("create: %w", Validationf("x")), want: KindValidation},
		{name: "not found", err: NotFoundf("note %q not found", "a"), want: KindPermanent},
		{name: "server error", err: &retry.HTTPError{StatusCode: 503}, want: KindTransient},
		{name: "client error", err: &retry.HTTPError{StatusCode: 400}, want: KindPermanent},
		{name: "explicit", err: &Error{Kind: KindConfiguration, Err: errors.New("consent")}, want: KindConfiguration},
		{name: "plain", err: errors.New("x"), want: KindPermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestError_Message(t *testing.T) {
	err := &Error{Kind: KindPermanent, Op: "delete_note", Err: errors.New("missing")}
	assert.Equal(t, "delete_note: missing", err.Error())
	assert.True(t, errors.Is(err, err.Err))
}
