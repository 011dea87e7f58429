package anki

// Deck is a deck name with its ID.
type Deck struct {
	Name string `json:"name"`
	ID   int64  `json:"id"`
}

// DeckStats are card counts for one deck.
type DeckStats struct {
	Deck          string `json:"name"`
	TotalCards    int    `json:"total_cards"`
	NewCards      int    `json:"new_cards"`
	CardsDueToday int    `json:"cards_due_today"`
	NewCardsToday int    `json:"new_cards_today"`
	ReviewCount   int    `json:"review_count"`
	LearnCount    int    `json:"learn_count"`
	TotalInDeck   int    `json:"total_in_deck"`
}

// OverallStats aggregates DeckStats over every deck.
type OverallStats struct {
	TotalDecks         int `json:"total_decks"`
	TotalCards         int `json:"total_cards"`
	TotalNewCards      int `json:"total_new_cards"`
	TotalCardsDueToday int `json:"total_cards_due_today"`
}

// AllStats is the result of Client.AllStats. Decks whose stats could not be
// read are listed in Errors and left out of the totals.
type AllStats struct {
	Overall OverallStats `json:"overall_stats"`
	Decks   []DeckStats  `json:"deck_stats"`
	Errors  []string     `json:"errors,omitempty"`
}

// NoteInput describes a front/back note.
type NoteInput struct {
	Deck  string
	Front string
	Back  string
	// Model defaults to "Basic".
	Model string
	Tags  []string
}

// ClozeInput describes a cloze deletion note.
type ClozeInput struct {
	Deck  string
	Text  string
	Extra string
	Tags  []string
}

// NoteField is one field of a note as notesInfo returns it.
type NoteField struct {
	Value string `json:"value"`
	Order int    `json:"order"`
}

// NoteInfo describes an existing note.
type NoteInfo struct {
	NoteID    int64                `json:"noteId"`
	ModelName string               `json:"modelName"`
	Tags      []string             `json:"tags"`
	Fields    map[string]NoteField `json:"fields"`
	Cards     []int64              `json:"cards"`
}

// DeckLimits are the daily limits after UpdateDeckConfig.
type DeckLimits struct {
	NewCardsPerDay int64 `json:"new_cards_per_day"`
	ReviewsPerDay  int64 `json:"reviews_per_day"`
}

// BulkResult splits the requested IDs of a bulk operation into the ones the
// operation was applied to and the ones Anki does not know.
type BulkResult struct {
	Applied []int64 `json:"applied"`
	Missing []int64 `json:"missing"`
}
