package common

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/teemow/bird/internal/envelope"
)

// Args are the raw tool arguments. Accessors return validation errors so
// that bad input is reported before any external call.
type Args map[string]any

// Has reports whether key is present and not null.
func (a Args) Has(key string) bool {
	v, ok := a[key]
	return ok && v != nil
}

// String returns the string argument or "".
func (a Args) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// RequiredString returns a non-blank string argument.
func (a Args) RequiredString(key string) (string, error) {
	s, ok := a[key].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", envelope.Validationf("%s is required", key)
	}
	return s, nil
}

// OptionalString returns nil when key is absent, so callers can tell
// "unset" from "set to empty".
func (a Args) OptionalString(key string) (*string, error) {
	if !a.Has(key) {
		return nil, nil
	}
	s, ok := a[key].(string)
	if !ok {
		return nil, envelope.Validationf("%s must be a string", key)
	}
	return &s, nil
}

// Int returns an integer argument or def when absent. JSON numbers arrive
// as float64; numeric strings are accepted too.
func (a Args) Int(key string, def int) (int, error) {
	p, err := a.OptionalInt(key)
	if err != nil || p == nil {
		return def, err
	}
	return *p, nil
}

// OptionalInt returns nil when key is absent.
func (a Args) OptionalInt(key string) (*int, error) {
	if !a.Has(key) {
		return nil, nil
	}
	n, err := toInt64(a[key])
	if err != nil {
		return nil, envelope.Validationf("%s must be an integer", key)
	}
	i := int(n)
	return &i, nil
}

// Bool returns a boolean argument or def when absent.
func (a Args) Bool(key string, def bool) (bool, error) {
	p, err := a.OptionalBool(key)
	if err != nil || p == nil {
		return def, err
	}
	return *p, nil
}

// OptionalBool returns nil when key is absent.
func (a Args) OptionalBool(key string) (*bool, error) {
	if !a.Has(key) {
		return nil, nil
	}
	switch v := a[key].(type) {
	case bool:
		return &v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, envelope.Validationf("%s must be a boolean", key)
		}
		return &b, nil
	default:
		return nil, envelope.Validationf("%s must be a boolean", key)
	}
}

// Strings returns a list argument. Besides a JSON array it accepts a JSON
// array encoded as a string and a comma-separated string.
func (a Args) Strings(key string) ([]string, error) {
	if !a.Has(key) {
		return nil, nil
	}
	switch v := a[key].(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, envelope.Validationf("%s[%d] must be a string", key, i)
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		trimmed := strings.TrimSpace(v)
		if strings.HasPrefix(trimmed, "[") {
			var out []string
			if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
				return nil, envelope.Validationf("%s is not a valid JSON array of strings: %v", key, err)
			}
			return out, nil
		}
		var out []string
		for part := range strings.SplitSeq(trimmed, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	default:
		return nil, envelope.Validationf("%s must be a list of strings", key)
	}
}

// Object returns a JSON object argument, also accepted as an encoded string.
func (a Args) Object(key string) (map[string]any, error) {
	if !a.Has(key) {
		return nil, nil
	}
	switch v := a[key].(type) {
	case map[string]any:
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		var out map[string]any
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil, envelope.Validationf("%s is not a valid JSON object: %v", key, err)
		}
		return out, nil
	default:
		return nil, envelope.Validationf("%s must be an object", key)
	}
}

// StringMap returns an object whose values are all strings.
func (a Args) StringMap(key string) (map[string]string, error) {
	obj, err := a.Object(key)
	if err != nil || obj == nil {
		return nil, err
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		s, ok := v.(string)
		if !ok {
			return nil, envelope.Validationf("%s.%s must be a string", key, k)
		}
		out[k] = s
	}
	return out, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		if n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, fmt.Errorf("%v is out of range", n)
		}
		return int64(n), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case json.Number:
		return n.Int64()
	case string:
		return strconv.ParseInt(strings.TrimSpace(n), 10, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}
