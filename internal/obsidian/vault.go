package obsidian

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/teemow/bird/internal/envelope"
)

const (
	noteExt = ".md"

	// DefaultDailyFolder is where daily notes live unless configured otherwise.
	DefaultDailyFolder = "7- daily"
)

var unsafeTitleChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// Vault is an Obsidian vault rooted at a directory.
type Vault struct {
	path        string
	root        *os.Root
	dailyFolder string
	now         func() time.Time
}

// Option configures a Vault.
type Option func(*Vault)

// WithDailyFolder sets the folder used by DailyNote.
func WithDailyFolder(folder string) Option {
	return func(v *Vault) {
		if folder != "" {
			v.dailyFolder = folder
		}
	}
}

// WithClock sets the time source for timestamps and the default daily note.
func WithClock(now func() time.Time) Option {
	return func(v *Vault) { v.now = now }
}

// Open opens the vault at dir, which must be an existing directory.
func Open(dir string, opts ...Option) (*Vault, error) {
	if dir == "" {
		return nil, errors.New("vault path is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid vault path %q: %w", dir, err)
	}
	root, err := os.OpenRoot(abs)
	if err != nil {
		return nil, fmt.Errorf("vault path does not exist or is not a directory: %w", err)
	}
	v := &Vault{
		path:        abs,
		root:        root,
		dailyFolder: DefaultDailyFolder,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Close releases the vault directory handle.
func (v *Vault) Close() error {
	return v.root.Close()
}

// Path returns the absolute vault directory.
func (v *Vault) Path() string {
	return v.path
}

// CreateNote writes a new note. It fails if a note with the same sanitized
// title already exists in the folder.
func (v *Vault) CreateNote(ctx context.Context, in NoteInput) (*Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(unsafeTitleChars.ReplaceAllString(in.Title, ""))
	if title == "" {
		return nil, envelope.Validationf("title is required")
	}
	folder, err := cleanFolder(in.Folder)
	if err != nil {
		return nil, err
	}
	rel := path.Join(folder, title+noteExt)

	fm := NewFrontmatter()
	if err := fm.Merge(in.Frontmatter); err != nil {
		return nil, envelope.Validationf("invalid frontmatter: %v", err)
	}
	if err := fm.Set("created", v.timestamp()); err != nil {
		return nil, err
	}
	if len(in.Tags) > 0 {
		if err := fm.Set("tags", in.Tags); err != nil {
			return nil, err
		}
	}
	content, err := Render(fm, "# "+title+"\n\n"+in.Content)
	if err != nil {
		return nil, err
	}

	if folder != "." {
		if err := v.root.MkdirAll(folder, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create folder %s: %w", folder, err)
		}
	}
	f, err := v.root.OpenFile(rel, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, &envelope.Error{Kind: envelope.KindPermanent, Op: "create", Err: fmt.Errorf("note already exists: %s", rel)}
		}
		return nil, fmt.Errorf("failed to create note %s: %w", rel, err)
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to write note %s: %w", rel, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to write note %s: %w", rel, err)
	}
	return v.ReadNote(ctx, rel)
}

// ReadNote returns a note's frontmatter and body.
func (v *Vault) ReadNote(ctx context.Context, notePath string) (*Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel, err := cleanNotePath(notePath)
	if err != nil {
		return nil, err
	}
	fm, body, err := v.load(rel)
	if err != nil {
		return nil, err
	}
	return v.note(rel, fm, body)
}

// UpdateNote changes the body and/or frontmatter of a note and stamps it
// with a modified time.
func (v *Vault) UpdateNote(ctx context.Context, notePath string, u NoteUpdate) (*Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel, err := cleanNotePath(notePath)
	if err != nil {
		return nil, err
	}
	fm, body, err := v.load(rel)
	if err != nil {
		return nil, err
	}

	if u.ReplaceFrontmatter {
		fm = NewFrontmatter()
	}
	if err := fm.Merge(u.Frontmatter); err != nil {
		return nil, envelope.Validationf("invalid frontmatter: %v", err)
	}
	if err := fm.Set("modified", v.timestamp()); err != nil {
		return nil, err
	}

	if u.Content != nil {
		switch {
		case u.Append && body != "":
			body = strings.TrimRight(body, "\n") + "\n\n" + *u.Content
		default:
			body = *u.Content
		}
	}

	content, err := Render(fm, body)
	if err != nil {
		return nil, err
	}
	if err := v.root.WriteFile(rel, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write note %s: %w", rel, err)
	}
	return v.note(rel, fm, body)
}

// DeleteNote removes a note file.
func (v *Vault) DeleteNote(ctx context.Context, notePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel, err := cleanNotePath(notePath)
	if err != nil {
		return err
	}
	if err := v.root.Remove(rel); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return envelope.NotFoundf("note not found: %s", rel)
		}
		return fmt.Errorf("failed to delete note %s: %w", rel, err)
	}
	return nil
}

// SearchNotes returns notes matching every set field of q.
func (v *Vault) SearchNotes(ctx context.Context, q SearchQuery) ([]NoteRef, error) {
	if q.Query == "" && q.Folder == "" && q.Tag == "" {
		return nil, envelope.Validationf("query, folder or tag is required")
	}
	folder, err := cleanFolder(q.Folder)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(q.Query)
	tag := strings.TrimPrefix(q.Tag, "#")
	var inlineTag *regexp.Regexp
	if tag != "" {
		inlineTag = regexp.MustCompile(`(^|\s)#` + regexp.QuoteMeta(tag) + `([^\w/-]|$)`)
	}

	results := []NoteRef{}
	err = v.walk(ctx, folder, true, func(rel string, _ fs.FileInfo) error {
		raw, err := v.root.ReadFile(rel)
		if err != nil {
			return err
		}
		content := string(raw)
		if needle != "" && !strings.Contains(strings.ToLower(content), needle) {
			return nil
		}
		if tag != "" {
			fm, body := SplitNote(content)
			if !containsFold(fm.Tags(), tag) && !inlineTag.MatchString(body) {
				return nil
			}
		}
		results = append(results, ref(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ListNotes lists notes under folder, newest first.
func (v *Vault) ListNotes(ctx context.Context, folder string, recursive bool) ([]NoteRef, error) {
	dir, err := cleanFolder(folder)
	if err != nil {
		return nil, err
	}
	notes := []NoteRef{}
	err = v.walk(ctx, dir, recursive, func(rel string, info fs.FileInfo) error {
		r := ref(rel)
		r.Size = info.Size()
		r.Modified = info.ModTime()
		notes = append(notes, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(notes, func(i, j int) bool { return notes[i].Modified.After(notes[j].Modified) })
	return notes, nil
}

// DailyNote returns the note for date (YYYY-MM-DD, default today) and
// creates it first if needed.
func (v *Vault) DailyNote(ctx context.Context, date string) (*Note, error) {
	day := v.now()
	if date != "" {
		var err error
		if day, err = time.ParseInLocation(time.DateOnly, date, time.Local); err != nil {
			return nil, envelope.Validationf("date must be YYYY-MM-DD: %v", err)
		}
	}
	name := day.Format(time.DateOnly)
	rel := path.Join(v.dailyFolder, name+noteExt)

	if _, err := v.root.Stat(rel); errors.Is(err, fs.ErrNotExist) {
		_, err := v.CreateNote(ctx, NoteInput{
			Title:       name,
			Folder:      v.dailyFolder,
			Content:     "## Daily Note - " + name + "\n\n",
			Frontmatter: map[string]any{"date": name, "type": "daily-note"},
		})
		if err != nil {
			// Lost a race with a concurrent create.
			if note, rerr := v.ReadNote(ctx, rel); rerr == nil {
				return note, nil
			}
			return nil, err
		}
	}
	return v.ReadNote(ctx, rel)
}

// Stats counts notes and bytes per folder.
func (v *Vault) Stats(ctx context.Context) (*Stats, error) {
	s := &Stats{Folders: map[string]int{}, VaultPath: v.path}
	err := v.walk(ctx, ".", true, func(rel string, info fs.FileInfo) error {
		s.TotalNotes++
		s.TotalSizeBytes += info.Size()
		s.Folders[path.Dir(rel)]++
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.TotalSizeMB = math.Round(float64(s.TotalSizeBytes)/(1024*1024)*100) / 100
	return s, nil
}

// Probe checks that the vault directory can be listed.
func (v *Vault) Probe(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := fs.ReadDir(v.root.FS(), "."); err != nil {
		return "", fmt.Errorf("vault not readable: %w", err)
	}
	return "vault at " + v.path, nil
}

func (v *Vault) load(rel string) (*Frontmatter, string, error) {
	raw, err := v.root.ReadFile(rel)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", envelope.NotFoundf("note not found: %s", rel)
		}
		return nil, "", fmt.Errorf("failed to read note %s: %w", rel, err)
	}
	fm, body := SplitNote(string(raw))
	return fm, body, nil
}

func (v *Vault) note(rel string, fm *Frontmatter, body string) (*Note, error) {
	m, err := fm.Map()
	if err != nil {
		return nil, err
	}
	return &Note{
		Path:         rel,
		Title:        strings.TrimSuffix(path.Base(rel), noteExt),
		AbsolutePath: filepath.Join(v.path, filepath.FromSlash(rel)),
		Frontmatter:  m,
		Content:      strings.TrimSpace(body),
	}, nil
}

// walk visits markdown files below dir. Hidden directories such as
// .obsidian and .trash are skipped.
func (v *Vault) walk(ctx context.Context, dir string, recursive bool, fn func(rel string, info fs.FileInfo) error) error {
	err := fs.WalkDir(v.root.FS(), dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir && errors.Is(err, fs.ErrNotExist) {
				return envelope.NotFoundf("folder not found: %s", dir)
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != dir && (strings.HasPrefix(d.Name(), ".") || !recursive) {
				return fs.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(p, noteExt) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return fn(p, info)
	})
	return err
}

func (v *Vault) timestamp() string {
	return v.now().Format(time.RFC3339)
}

func ref(rel string) NoteRef {
	return NoteRef{
		Path:   rel,
		Title:  strings.TrimSuffix(path.Base(rel), noteExt),
		Folder: path.Dir(rel),
	}
}

// cleanNotePath normalizes a vault-relative note path and appends .md when
// it is missing.
func cleanNotePath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", envelope.Validationf("note_path is required")
	}
	rel, err := cleanRel(p)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return "", envelope.Validationf("note_path must name a file")
	}
	if !strings.HasSuffix(rel, noteExt) {
		rel += noteExt
	}
	return rel, nil
}

func cleanFolder(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return ".", nil
	}
	return cleanRel(p)
}

func cleanRel(p string) (string, error) {
	p = filepath.ToSlash(p)
	if path.IsAbs(p) || filepath.IsAbs(p) {
		return "", envelope.Validationf("path must be relative to the vault: %s", p)
	}
	rel := path.Clean(p)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", envelope.Validationf("path escapes the vault: %s", p)
	}
	return rel, nil
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
