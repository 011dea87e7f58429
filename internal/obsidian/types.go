package obsidian

import "time"

// Note is a note read from the vault.
type Note struct {
	Path         string         `json:"path"`
	Title        string         `json:"title"`
	AbsolutePath string         `json:"absolute_path"`
	Frontmatter  map[string]any `json:"frontmatter"`
	Content      string         `json:"content"`
}

// NoteRef identifies a note in listings and search results.
type NoteRef struct {
	Path     string    `json:"path"`
	Title    string    `json:"title"`
	Folder   string    `json:"folder"`
	Size     int64     `json:"size,omitempty"`
	Modified time.Time `json:"modified,omitzero"`
}

// NoteInput describes a note to create.
type NoteInput struct {
	Title       string
	Content     string
	Folder      string
	Tags        []string
	Frontmatter map[string]any
}

// NoteUpdate describes changes to an existing note. A nil Content leaves the
// body unchanged.
type NoteUpdate struct {
	Content *string
	Append  bool

	Frontmatter map[string]any
	// ReplaceFrontmatter drops every existing key before applying Frontmatter.
	ReplaceFrontmatter bool
}

// SearchQuery filters SearchNotes. Empty fields match everything, but at
// least one must be set.
type SearchQuery struct {
	Query  string
	Folder string
	Tag    string
}

// Stats describes the vault as a whole.
type Stats struct {
	TotalNotes     int            `json:"total_notes"`
	TotalSizeBytes int64          `json:"total_size_bytes"`
	TotalSizeMB    float64        `json:"total_size_mb"`
	Folders        map[string]int `json:"folders"`
	VaultPath      string         `json:"vault_path"`
}
