package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAttrHelpers(t *testing.T) {
	tests := []struct {
		name    string
		attr    slog.Attr
		wantKey string
		wantVal string
	}{
		{name: "operation", attr: Operation("create_task"), wantKey: KeyOperation, wantVal: "create_task"},
		{name: "service", attr: Service("anki"), wantKey: KeyService, wantVal: "anki"},
		{name: "tool", attr: Tool("todoist_get_tasks"), wantKey: KeyTool, wantVal: "todoist_get_tasks"},
		{name: "request id", attr: RequestID("abc"), wantKey: KeyRequestID, wantVal: "abc"},
		{name: "status", attr: Status(StatusError), wantKey: KeyStatus, wantVal: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantKey, tt.attr.Key)
			assert.Equal(t, tt.wantVal, tt.attr.Value.String())
		})
	}
}

func TestDurationAttr(t *testing.T) {
	attr := Duration(2 * time.Second)
	assert.Equal(t, KeyDuration, attr.Key)
	assert.Equal(t, 2*time.Second, attr.Value.Duration())
}

func TestErr(t *testing.T) {
	attr := Err(errors.New("boom"))
	assert.Equal(t, KeyError, attr.Key)
	assert.Equal(t, "boom", attr.Value.String())

	nilAttr := Err(nil)
	assert.Equal(t, "", nilAttr.Key)
}

func TestSanitizeToken(t *testing.T) {
	assert.Equal(t, "<empty>", SanitizeToken(""))
	assert.Equal(t, "[token:6 chars]", SanitizeToken("secret"))
	assert.NotContains(t, SanitizeToken("ya29.secret-value"), "ya29")
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, false)
	logger.Debug("hidden")
	logger.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	debugLogger := NewLogger(&buf, true)
	debugLogger.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestWithHelpers(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(&buf, false)

	WithService(WithOperation(WithTool(base, "anki_get_decks"), "list"), "anki").Info("done")

	out := buf.String()
	for _, want := range []string{"tool=anki_get_decks", "operation=list", "service=anki"} {
		assert.True(t, strings.Contains(out, want), "missing %q in %q", want, out)
	}
}
