package obsidian

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitNote(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantKeys []string
		wantBody string
	}{
		{
			name:     "no frontmatter",
			content:  "# Title\n\nbody",
			wantKeys: []string{},
			wantBody: "# Title\n\nbody",
		},
		{
			name:     "frontmatter",
			content:  "---\nzeta: 1\nalpha: two\n---\n\n# Title\n",
			wantKeys: []string{"zeta", "alpha"},
			wantBody: "# Title\n",
		},
		{
			name:     "crlf",
			content:  "---\r\nkey: v\r\n---\r\nbody",
			wantKeys: []string{"key"},
			wantBody: "body",
		},
		{
			name:     "unterminated",
			content:  "---\nkey: v\nbody",
			wantKeys: []string{},
			wantBody: "---\nkey: v\nbody",
		},
		{
			name:     "invalid yaml is kept as body",
			content:  "---\n: : :\n  - [\n---\nbody",
			wantKeys: []string{},
			wantBody: "---\n: : :\n  - [\n---\nbody",
		},
		{
			name:     "empty header",
			content:  "---\n---\nbody",
			wantKeys: []string{},
			wantBody: "body",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, body := SplitNote(tt.content)
			assert.Equal(t, tt.wantKeys, fm.Keys())
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestFrontmatterPreservesUnknownKeys(t *testing.T) {
	content := "---\nzeta: 1\nnested:\n  a: [1, 2]\n  b: \"quoted\"\naliases:\n  - One\n---\n\nbody\n"
	fm, body := SplitNote(content)

	require.NoError(t, fm.Set("modified", "2024-01-02T03:04:05Z"))
	require.NoError(t, fm.Set("zeta", 2))

	out, err := Render(fm, body)
	require.NoError(t, err)

	again, againBody := SplitNote(out)
	assert.Equal(t, []string{"zeta", "nested", "aliases", "modified"}, again.Keys())
	assert.Equal(t, "body\n", againBody)

	m, err := again.Map()
	require.NoError(t, err)
	assert.Equal(t, 2, m["zeta"])
	assert.Equal(t, map[string]any{"a": []any{1, 2}, "b": "quoted"}, m["nested"])
	assert.Equal(t, []any{"One"}, m["aliases"])
	assert.Equal(t, "2024-01-02T03:04:05Z", m["modified"])
}

func TestRenderIsStable(t *testing.T) {
	fm := NewFrontmatter()
	require.NoError(t, fm.Merge(map[string]any{"b": "x", "a": []string{"y"}}))
	first, err := Render(fm, "# T\n\nbody")
	require.NoError(t, err)

	parsed, body := SplitNote(first)
	second, err := Render(parsed, body)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"a", "b"}, parsed.Keys())
}

func TestFrontmatterTags(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"sequence", "---\ntags:\n  - go\n  - '#mcp'\n---\n", []string{"go", "mcp"}},
		{"flow", "---\ntags: [a, b]\n---\n", []string{"a", "b"}},
		{"string", "---\ntags: a, b c\n---\n", []string{"a", "b", "c"}},
		{"missing", "---\ntitle: x\n---\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, _ := SplitNote(tt.content)
			assert.Equal(t, tt.want, fm.Tags())
		})
	}
}

func TestFrontmatterDelete(t *testing.T) {
	fm, _ := SplitNote("---\na: 1\nb: 2\n---\n")
	fm.Delete("a")
	fm.Delete("missing")
	assert.Equal(t, []string{"b"}, fm.Keys())
}
