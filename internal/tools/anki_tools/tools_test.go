package anki_tools

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/teemow/bird/internal/anki"
	"github.com/teemow/bird/internal/registry"
	"github.com/teemow/bird/internal/retry"
	"github.com/teemow/bird/internal/server"
	"github.com/teemow/bird/internal/tools/toolstest"
)

// fakeConnect answers AnkiConnect actions from a table of canned results.
type fakeConnect struct {
	mu      sync.Mutex
	results map[string]func(params gjson.Result) any
	params  map[string]gjson.Result
}

func (f *fakeConnect) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	action := gjson.GetBytes(body, "action").String()

	f.mu.Lock()
	f.params[action] = gjson.GetBytes(body, "params")
	fn, ok := f.results[action]
	f.mu.Unlock()

	resp := map[string]any{"result": nil, "error": nil}
	if ok {
		resp["result"] = fn(gjson.GetBytes(body, "params"))
	} else {
		resp["error"] = "unsupported action"
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (f *fakeConnect) sent(action string) (gjson.Result, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.params[action]
	return p, ok
}

func newRegistry(t *testing.T, results map[string]func(gjson.Result) any) (*fakeConnect, *registry.Registry) {
	t.Helper()
	f := &fakeConnect{results: results, params: map[string]gjson.Result{}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	client := anki.NewClient(srv.URL, anki.WithRetryPolicy(retry.Policy{Attempts: 1, BaseDelay: time.Millisecond}))
	return f, &registry.Registry{Anki: registry.Configured("Anki", client)}
}

func TestRegisterAnkiTools(t *testing.T) {
	tests := []struct {
		name     string
		readOnly bool
		want     int
	}{
		{name: "read-write", want: 15},
		{name: "read-only", readOnly: true, want: 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, sc := toolstest.NewServer(t, nil, server.WithReadOnly(tt.readOnly))
			require.NoError(t, RegisterAnkiTools(s, sc))
			tools := toolstest.ListTools(t, s)
			assert.Len(t, tools, tt.want)
			for _, tool := range tools {
				if tt.readOnly {
					assert.True(t, tool.ReadOnly, tool.Name)
				}
				assert.Equal(t, tool.Name == "anki_delete_notes", tool.Destructive, tool.Name)
			}
		})
	}
}

func TestSuspendCardsBestEffort(t *testing.T) {
	f, reg := newRegistry(t, map[string]func(gjson.Result) any{
		"areSuspended": func(p gjson.Result) any {
			out := []any{}
			for _, id := range p.Get("cards").Array() {
				if id.Int() == 404 {
					out = append(out, nil)
				} else {
					out = append(out, false)
				}
			}
			return out
		},
		"suspend": func(gjson.Result) any { return true },
	})
	s, sc := toolstest.NewServer(t, reg)
	require.NoError(t, RegisterAnkiTools(s, sc))

	isError, body := toolstest.Call(t, s, "anki_suspend_cards", map[string]any{"card_ids": []any{float64(11), float64(404), float64(12)}})
	require.False(t, isError, body)

	assert.Equal(t, "Suspended 2 of 3 cards", body["message"])
	assert.Equal(t, float64(3), body["total"])
	assert.Equal(t, float64(2), body["successful"])
	assert.Equal(t, float64(1), body["failed"])
	results := body["results"].([]any)
	assert.Equal(t, map[string]any{"id": "404", "status": "error", "error": "not found"}, results[1])

	p, ok := f.sent("suspend")
	require.True(t, ok)
	assert.JSONEq(t, `[11, 12]`, p.Get("cards").Raw)
}

func TestSuspendCardsAllMissing(t *testing.T) {
	f, reg := newRegistry(t, map[string]func(gjson.Result) any{
		"areSuspended": func(gjson.Result) any { return []any{nil} },
	})
	s, sc := toolstest.NewServer(t, reg)
	require.NoError(t, RegisterAnkiTools(s, sc))

	isError, body := toolstest.Call(t, s, "anki_suspend_cards", map[string]any{"card_ids": "7"})
	require.False(t, isError, body)
	assert.Equal(t, float64(0), body["successful"])
	_, called := f.sent("suspend")
	assert.False(t, called)
}

func TestCardIDsValidation(t *testing.T) {
	f, reg := newRegistry(t, nil)
	s, sc := toolstest.NewServer(t, reg)
	require.NoError(t, RegisterAnkiTools(s, sc))

	isError, body := toolstest.Call(t, s, "anki_unsuspend_cards", map[string]any{"card_ids": "1,abc"})
	assert.True(t, isError)
	assert.Equal(t, "validation", body["error_type"])
	assert.Contains(t, body["error"], "card_ids[1]")
	assert.Empty(t, f.params)
}

func TestCreateNoteUnknownModel(t *testing.T) {
	_, reg := newRegistry(t, map[string]func(gjson.Result) any{
		"modelNames": func(gjson.Result) any { return []string{"Basic", "Cloze"} },
	})
	s, sc := toolstest.NewServer(t, reg)
	require.NoError(t, RegisterAnkiTools(s, sc))

	isError, body := toolstest.Call(t, s, "anki_create_note", map[string]any{
		"deck_name": "Spanish", "front": "hola", "back": "hello", "note_type": "Fancy",
	})
	assert.True(t, isError)
	assert.Equal(t, "validation", body["error_type"])
	assert.Contains(t, body["error"], `note type "Fancy" not found`)
}

func TestCreateDeck(t *testing.T) {
	f, reg := newRegistry(t, map[string]func(gjson.Result) any{
		"createDeck": func(gjson.Result) any { return 1700000000 },
	})
	s, sc := toolstest.NewServer(t, reg)
	require.NoError(t, RegisterAnkiTools(s, sc))

	isError, body := toolstest.Call(t, s, "anki_create_deck", map[string]any{"deck_name": "Languages::Spanish"})
	require.False(t, isError, body)
	assert.Equal(t, float64(1700000000), body["deck_id"])
	assert.Equal(t, "Deck 'Languages::Spanish' created successfully", body["message"])
	p, _ := f.sent("createDeck")
	assert.Equal(t, "Languages::Spanish", p.Get("deck").String())
}

func TestUpdateDeckConfig(t *testing.T) {
	f, reg := newRegistry(t, map[string]func(gjson.Result) any{
		"getDeckConfig": func(gjson.Result) any {
			return map[string]any{"id": 1, "name": "Default", "new": map[string]any{"perDay": 20, "delays": []int{1, 10}}, "rev": map[string]any{"perDay": 200}}
		},
		"saveDeckConfig": func(gjson.Result) any { return true },
	})
	s, sc := toolstest.NewServer(t, reg)
	require.NoError(t, RegisterAnkiTools(s, sc))

	isError, body := toolstest.Call(t, s, "anki_update_deck_config", map[string]any{"deck_name": "Default", "new_cards_per_day": float64(5)})
	require.False(t, isError, body)
	assert.Equal(t, float64(5), body["new_cards_per_day"])
	assert.Equal(t, float64(200), body["reviews_per_day"])

	p, _ := f.sent("saveDeckConfig")
	assert.JSONEq(t, `[1, 10]`, p.Get("config.new.delays").Raw)
}

func TestConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := anki.NewClient(url, anki.WithRetryPolicy(retry.Policy{Attempts: 1, BaseDelay: time.Millisecond}))
	s, sc := toolstest.NewServer(t, &registry.Registry{Anki: registry.Configured("Anki", client)})
	require.NoError(t, RegisterAnkiTools(s, sc))

	isError, body := toolstest.Call(t, s, "anki_get_decks", nil)
	assert.True(t, isError)
	assert.Contains(t, body["error"], "Anki error: Could not connect to AnkiConnect at "+url)
}
