package anki

import (
	"context"
	"slices"
	"strings"

	"github.com/teemow/bird/internal/envelope"
)

const (
	basicModel = "Basic"
	clozeModel = "Cloze"
)

// CreateNote adds a front/back note after checking that the model exists
// and has Front and Back fields.
func (c *Client) CreateNote(ctx context.Context, in NoteInput) (int64, error) {
	if strings.TrimSpace(in.Deck) == "" {
		return 0, envelope.Validationf("deck_name is required")
	}
	if strings.TrimSpace(in.Front) == "" || strings.TrimSpace(in.Back) == "" {
		return 0, envelope.Validationf("front and back are required")
	}
	model := in.Model
	if model == "" {
		model = basicModel
	}
	if _, err := c.checkModel(ctx, model, "Front", "Back"); err != nil {
		return 0, err
	}
	return c.addNote(ctx, in.Deck, model, map[string]string{"Front": in.Front, "Back": in.Back}, in.Tags)
}

// CreateClozeNote adds a note of the Cloze model.
func (c *Client) CreateClozeNote(ctx context.Context, in ClozeInput) (int64, error) {
	if strings.TrimSpace(in.Deck) == "" {
		return 0, envelope.Validationf("deck_name is required")
	}
	if !strings.Contains(in.Text, "{{c") {
		return 0, envelope.Validationf("text must contain at least one cloze deletion such as {{c1::answer}}")
	}
	if in.Extra != "" && strings.TrimSpace(in.Extra) == "" {
		return 0, envelope.Validationf("extra cannot be blank")
	}
	modelFields, err := c.checkModel(ctx, clozeModel, "Text")
	if err != nil {
		return 0, err
	}
	fields := map[string]string{"Text": in.Text}
	if in.Extra != "" {
		name, err := extraField(modelFields)
		if err != nil {
			return 0, err
		}
		fields[name] = in.Extra
	}
	return c.addNote(ctx, in.Deck, clozeModel, fields, in.Tags)
}

func (c *Client) addNote(ctx context.Context, deck, model string, fields map[string]string, tags []string) (int64, error) {
	if tags == nil {
		tags = []string{}
	}
	note := map[string]any{
		"deckName":  deck,
		"modelName": model,
		"fields":    fields,
		"tags":      tags,
	}
	// addNote has no idempotency key; a retry after the server saw the
	// request could add the note twice.
	var id int64
	if err := c.callWith(ctx, c.policy.UnsentOnly(), "addNote", map[string]any{"note": note}, &id); err != nil {
		return 0, err
	}
	return id, nil
}

// extraField picks the Cloze field for extra text. Current Anki versions
// name it "Back Extra", older ones "Extra".
func extraField(fields []string) (string, error) {
	for _, name := range []string{"Back Extra", "Extra"} {
		if slices.Contains(fields, name) {
			return name, nil
		}
	}
	return "", envelope.Validationf("note type %q has no Extra field, fields: %s", clozeModel, strings.Join(fields, ", "))
}

func (c *Client) checkModel(ctx context.Context, model string, required ...string) ([]string, error) {
	models, err := c.GetNoteTypes(ctx)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(models, model) {
		return nil, envelope.Validationf("note type %q not found, available types: %s", model, strings.Join(models, ", "))
	}

	var fields []string
	if err := c.call(ctx, "modelFieldNames", map[string]any{"modelName": model}, &fields); err != nil {
		return nil, err
	}
	for _, f := range required {
		if !slices.Contains(fields, f) {
			return nil, envelope.Validationf("note type %q has no %s field, fields: %s", model, f, strings.Join(fields, ", "))
		}
	}
	return fields, nil
}

// GetNoteTypes lists model names.
func (c *Client) GetNoteTypes(ctx context.Context) ([]string, error) {
	var models []string
	if err := c.call(ctx, "modelNames", nil, &models); err != nil {
		return nil, err
	}
	return models, nil
}

// AddTags adds space-joined tags to the notes.
func (c *Client) AddTags(ctx context.Context, noteIDs []int64, tags []string) error {
	if err := requireIDs("note_ids", noteIDs); err != nil {
		return err
	}
	if len(tags) == 0 {
		return envelope.Validationf("tags are required")
	}
	return c.call(ctx, "addTags", map[string]any{"notes": noteIDs, "tags": strings.Join(tags, " ")}, nil)
}

// FindNotes runs an Anki search query and returns note IDs.
func (c *Client) FindNotes(ctx context.Context, query string) ([]int64, error) {
	if strings.TrimSpace(query) == "" {
		return nil, envelope.Validationf("query is required")
	}
	ids := []int64{}
	if err := c.call(ctx, "findNotes", map[string]any{"query": query}, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// GetNotes returns the notes that exist among noteIDs, in request order.
func (c *Client) GetNotes(ctx context.Context, noteIDs []int64) ([]NoteInfo, error) {
	if err := requireIDs("note_ids", noteIDs); err != nil {
		return nil, err
	}
	return c.notesInfo(ctx, noteIDs)
}

func (c *Client) notesInfo(ctx context.Context, noteIDs []int64) ([]NoteInfo, error) {
	var infos []NoteInfo
	if err := c.call(ctx, "notesInfo", map[string]any{"notes": noteIDs}, &infos); err != nil {
		return nil, err
	}
	// Unknown IDs come back as empty objects.
	found := infos[:0]
	for _, n := range infos {
		if n.NoteID != 0 {
			found = append(found, n)
		}
	}
	return found, nil
}

// UpdateNote replaces the given fields and, when tags is non-nil, the tags.
func (c *Client) UpdateNote(ctx context.Context, noteID int64, fields map[string]string, tags []string) error {
	if noteID <= 0 {
		return envelope.Validationf("note_id must be positive")
	}
	if len(fields) == 0 && tags == nil {
		return envelope.Validationf("fields or tags are required")
	}
	note := map[string]any{"id": noteID}
	if len(fields) > 0 {
		note["fields"] = fields
	}
	if tags != nil {
		note["tags"] = tags
	}
	return c.call(ctx, "updateNote", map[string]any{"note": note}, nil)
}

// SuspendCards suspends the cards that exist among cardIDs.
func (c *Client) SuspendCards(ctx context.Context, cardIDs []int64) (*BulkResult, error) {
	return c.setSuspended(ctx, "suspend", cardIDs)
}

// UnsuspendCards unsuspends the cards that exist among cardIDs.
func (c *Client) UnsuspendCards(ctx context.Context, cardIDs []int64) (*BulkResult, error) {
	return c.setSuspended(ctx, "unsuspend", cardIDs)
}

func (c *Client) setSuspended(ctx context.Context, action string, cardIDs []int64) (*BulkResult, error) {
	if err := requireIDs("card_ids", cardIDs); err != nil {
		return nil, err
	}

	// areSuspended answers null for cards that do not exist.
	var states []*bool
	if err := c.call(ctx, "areSuspended", map[string]any{"cards": cardIDs}, &states); err != nil {
		return nil, err
	}
	res := splitByPresence(cardIDs, func(i int) bool { return i < len(states) && states[i] != nil })
	if len(res.Applied) == 0 {
		return res, nil
	}
	if err := c.call(ctx, action, map[string]any{"cards": res.Applied}, nil); err != nil {
		return nil, err
	}
	return res, nil
}

// DeleteNotes permanently deletes the notes that exist among noteIDs.
func (c *Client) DeleteNotes(ctx context.Context, noteIDs []int64) (*BulkResult, error) {
	if err := requireIDs("note_ids", noteIDs); err != nil {
		return nil, err
	}

	infos, err := c.notesInfo(ctx, noteIDs)
	if err != nil {
		return nil, err
	}
	known := make(map[int64]bool, len(infos))
	for _, n := range infos {
		known[n.NoteID] = true
	}
	res := splitByPresence(noteIDs, func(i int) bool { return known[noteIDs[i]] })
	if len(res.Applied) == 0 {
		return res, nil
	}
	if err := c.call(ctx, "deleteNotes", map[string]any{"notes": res.Applied}, nil); err != nil {
		return nil, err
	}
	return res, nil
}

func splitByPresence(ids []int64, exists func(i int) bool) *BulkResult {
	res := &BulkResult{Applied: []int64{}, Missing: []int64{}}
	for i, id := range ids {
		if exists(i) {
			res.Applied = append(res.Applied, id)
		} else {
			res.Missing = append(res.Missing, id)
		}
	}
	return res
}

func requireIDs(name string, ids []int64) error {
	if len(ids) == 0 {
		return envelope.Validationf("%s cannot be empty", name)
	}
	for _, id := range ids {
		if id <= 0 {
			return envelope.Validationf("%s must be positive integers, got %d", name, id)
		}
	}
	return nil
}
