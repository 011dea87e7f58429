package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/teemow/bird/internal/envelope"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the outcome for a single ID.
type Result struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// BatchResult summarizes a batch.
type BatchResult struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// NewSuccessResult creates a successful result.
func NewSuccessResult(id, message string) Result {
	return Result{ID: id, Status: StatusSuccess, Result: message}
}

// NewErrorResult creates a failed result.
func NewErrorResult(id string, err error) Result {
	return Result{ID: id, Status: StatusError, Error: err.Error()}
}

// Summarize counts the outcomes.
func Summarize(results []Result) BatchResult {
	br := BatchResult{Total: len(results), Results: results}
	for _, r := range results {
		if r.Status == StatusSuccess {
			br.Successful++
		} else {
			br.Failed++
		}
	}
	return br
}

// Payload renders the summary as envelope fields.
func (br BatchResult) Payload() envelope.Payload {
	return envelope.Payload{
		"total":      br.Total,
		"successful": br.Successful,
		"failed":     br.Failed,
		"results":    br.Results,
	}
}

// ProcessBatch runs fn for every ID in order. A failing ID does not stop the
// batch; cancellation of ctx does, and the remaining IDs are marked failed.
func ProcessBatch(ctx context.Context, ids []string, fn func(ctx context.Context, id string) (string, error)) []Result {
	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			results = append(results, NewErrorResult(id, err))
			continue
		}
		msg, err := fn(ctx, id)
		if err != nil {
			results = append(results, NewErrorResult(id, err))
			continue
		}
		results = append(results, NewSuccessResult(id, msg))
	}
	return results
}

// FromApplied builds per-ID results for an operation that reports which of
// the requested IDs it found. IDs not in missing succeed with message.
func FromApplied(requested, missing []int64, message string) []Result {
	absent := make(map[int64]bool, len(missing))
	for _, id := range missing {
		absent[id] = true
	}
	results := make([]Result, 0, len(requested))
	for _, id := range requested {
		sid := strconv.FormatInt(id, 10)
		if absent[id] {
			results = append(results, Result{ID: sid, Status: StatusError, Error: "not found"})
			continue
		}
		results = append(results, NewSuccessResult(sid, message))
	}
	return results
}

// ParseStringOrArray accepts a string, a JSON array encoded as a string or an
// array of strings. Empty values are rejected.
func ParseStringOrArray(param any, paramName string) ([]string, error) {
	if param == nil {
		return nil, envelope.Validationf("%s is required", paramName)
	}

	switch v := param.(type) {
	case string:
		if v == "" {
			return nil, envelope.Validationf("%s cannot be empty", paramName)
		}
		if strings.HasPrefix(v, "[") && strings.HasSuffix(v, "]") {
			var arr []string
			if err := json.Unmarshal([]byte(v), &arr); err == nil {
				if len(arr) == 0 {
					return nil, envelope.Validationf("%s array cannot be empty", paramName)
				}
				return arr, nil
			}
		}
		return []string{v}, nil
	case []any:
		if len(v) == 0 {
			return nil, envelope.Validationf("%s array cannot be empty", paramName)
		}
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, envelope.Validationf("%s[%d] must be a string", paramName, i)
			}
			if s == "" {
				return nil, envelope.Validationf("%s[%d] cannot be empty", paramName, i)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, envelope.Validationf("%s must be a string or array of strings", paramName)
	}
}

// ParseIDs parses numeric IDs. It accepts a number, an array of numbers or
// numeric strings, a JSON array encoded as a string and a comma-separated
// string. Duplicates are dropped, order is kept.
func ParseIDs(param any, paramName string) ([]int64, error) {
	if param == nil {
		return nil, envelope.Validationf("%s is required", paramName)
	}

	var items []any
	switch v := param.(type) {
	case []any:
		items = v
	case []int64:
		for _, n := range v {
			items = append(items, n)
		}
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, envelope.Validationf("%s cannot be empty", paramName)
		}
		if strings.HasPrefix(s, "[") {
			if err := json.Unmarshal([]byte(s), &items); err != nil {
				return nil, envelope.Validationf("%s is not a valid JSON array: %v", paramName, err)
			}
			break
		}
		for part := range strings.SplitSeq(s, ",") {
			items = append(items, strings.TrimSpace(part))
		}
	default:
		items = []any{v}
	}

	if len(items) == 0 {
		return nil, envelope.Validationf("%s array cannot be empty", paramName)
	}

	seen := make(map[int64]bool, len(items))
	out := make([]int64, 0, len(items))
	for i, item := range items {
		id, err := toID(item)
		if err != nil {
			return nil, envelope.Validationf("%s[%d]: %v", paramName, i, err)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

func toID(v any) (int64, error) {
	var id int64
	switch n := v.(type) {
	case float64:
		if n != float64(int64(n)) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		id = int64(n)
	case int:
		id = int64(n)
	case int64:
		id = n
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", n.String())
		}
		id = i
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", n)
		}
		id = i
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
	if id <= 0 {
		return 0, fmt.Errorf("%d is not a valid ID", id)
	}
	return id, nil
}
