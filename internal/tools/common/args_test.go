package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/bird/internal/envelope"
)

func TestArgsRequiredString(t *testing.T) {
	args := Args{"content": "Buy milk", "blank": "  ", "number": 3.0}

	v, err := args.RequiredString("content")
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", v)

	for _, key := range []string{"blank", "number", "missing"} {
		_, err := args.RequiredString(key)
		require.Error(t, err, key)
		assert.Equal(t, envelope.KindValidation, envelope.KindOf(err))
		assert.Contains(t, err.Error(), key+" is required")
	}
}

func TestArgsOptionalString(t *testing.T) {
	args := Args{"empty": "", "null": nil, "bad": 1.0}

	p, err := args.OptionalString("empty")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Empty(t, *p)

	p, err = args.OptionalString("null")
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = args.OptionalString("bad")
	assert.Error(t, err)
}

func TestArgsInt(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    int
		wantErr bool
	}{
		{name: "json number", value: 4.0, want: 4},
		{name: "numeric string", value: " 12 ", want: 12},
		{name: "int", value: 7, want: 7},
		{name: "fraction", value: 1.5, wantErr: true},
		{name: "word", value: "four", wantErr: true},
		{name: "bool", value: true, wantErr: true},
		{name: "beyond int64", value: 1e30, wantErr: true},
		{name: "two to the 63", value: 9223372036854775808.0, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Args{"n": tt.value}.Int("n", 99)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, envelope.KindValidation, envelope.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	got, err := Args{}.Int("n", 99)
	require.NoError(t, err)
	assert.Equal(t, 99, got)
}

func TestArgsBool(t *testing.T) {
	got, err := Args{"b": "true"}.Bool("b", false)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = Args{}.Bool("b", true)
	require.NoError(t, err)
	assert.True(t, got)

	_, err = Args{"b": "sometimes"}.Bool("b", false)
	assert.Error(t, err)
}

func TestArgsStrings(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    []string
		wantErr bool
	}{
		{name: "array", value: []any{"a", "b"}, want: []string{"a", "b"}},
		{name: "json string", value: `["x", "y z"]`, want: []string{"x", "y z"}},
		{name: "comma separated", value: "work, urgent ,,home", want: []string{"work", "urgent", "home"}},
		{name: "single", value: "solo", want: []string{"solo"}},
		{name: "mixed array", value: []any{"a", 1.0}, wantErr: true},
		{name: "broken json", value: `["x"`, wantErr: true},
		{name: "number", value: 3.0, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Args{"tags": tt.value}.Strings("tags")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	got, err := Args{}.Strings("tags")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestArgsStringMap(t *testing.T) {
	got, err := Args{"fields": map[string]any{"Front": "Q", "Back": "A"}}.StringMap("fields")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Front": "Q", "Back": "A"}, got)

	got, err = Args{"fields": `{"Front":"Q"}`}.StringMap("fields")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Front": "Q"}, got)

	_, err = Args{"fields": map[string]any{"Front": 1.0}}.StringMap("fields")
	assert.Error(t, err)

	_, err = Args{"fields": "not json"}.StringMap("fields")
	assert.Error(t, err)
}
