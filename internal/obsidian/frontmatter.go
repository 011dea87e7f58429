package obsidian

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

const fence = "---"

// Frontmatter is the YAML header of a note.
type Frontmatter struct {
	node *yaml.Node
}

// NewFrontmatter returns an empty header.
func NewFrontmatter() *Frontmatter {
	return &Frontmatter{node: &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}}
}

// SplitNote separates the frontmatter from the body. Content without a
// well-formed header is returned whole as the body with an empty header.
func SplitNote(content string) (*Frontmatter, string) {
	rest, ok := strings.CutPrefix(content, fence+"\n")
	if !ok {
		if rest, ok = strings.CutPrefix(content, fence+"\r\n"); !ok {
			return NewFrontmatter(), content
		}
	}

	header, body, found := cutFence(rest)
	if !found {
		return NewFrontmatter(), content
	}

	fm := NewFrontmatter()
	if strings.TrimSpace(header) == "" {
		return fm, trimBody(body)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(header), &doc); err != nil || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return NewFrontmatter(), content
	}
	fm.node = doc.Content[0]
	return fm, trimBody(body)
}

// cutFence finds the closing fence line.
func cutFence(s string) (header, body string, found bool) {
	offset := 0
	for offset <= len(s) {
		line := s[offset:]
		end := strings.IndexByte(line, '\n')
		if end >= 0 {
			line = line[:end]
		}
		if strings.TrimRight(line, "\r") == fence {
			if end < 0 {
				return s[:offset], "", true
			}
			return s[:offset], s[offset+end+1:], true
		}
		if end < 0 {
			break
		}
		offset += end + 1
	}
	return "", "", false
}

func trimBody(body string) string {
	return strings.TrimLeft(body, "\r\n")
}

// Len returns the number of keys.
func (f *Frontmatter) Len() int {
	return len(f.node.Content) / 2
}

// Keys returns the keys in document order.
func (f *Frontmatter) Keys() []string {
	keys := make([]string, 0, f.Len())
	for i := 0; i+1 < len(f.node.Content); i += 2 {
		keys = append(keys, f.node.Content[i].Value)
	}
	return keys
}

func (f *Frontmatter) index(key string) int {
	for i := 0; i+1 < len(f.node.Content); i += 2 {
		if f.node.Content[i].Value == key {
			return i
		}
	}
	return -1
}

// Set adds key or replaces its value in place.
func (f *Frontmatter) Set(key string, value any) error {
	var v yaml.Node
	if err := v.Encode(value); err != nil {
		return fmt.Errorf("frontmatter %q: %w", key, err)
	}
	if i := f.index(key); i >= 0 {
		f.node.Content[i+1] = &v
		return nil
	}
	k := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	f.node.Content = append(f.node.Content, k, &v)
	return nil
}

// Merge sets every key of values. New keys are appended in sorted order.
func (f *Frontmatter) Merge(values map[string]any) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if err := f.Set(k, values[k]); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes key if present.
func (f *Frontmatter) Delete(key string) {
	if i := f.index(key); i >= 0 {
		f.node.Content = slices.Delete(f.node.Content, i, i+2)
	}
}

// Map decodes the header into plain values.
func (f *Frontmatter) Map() (map[string]any, error) {
	m := map[string]any{}
	if f.Len() == 0 {
		return m, nil
	}
	if err := f.node.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode frontmatter: %w", err)
	}
	return m, nil
}

// Tags returns the tags key as a list. Both a YAML sequence and a comma or
// space separated string are accepted. Leading '#' is dropped.
func (f *Frontmatter) Tags() []string {
	i := f.index("tags")
	if i < 0 {
		return nil
	}
	v := f.node.Content[i+1]

	var raw []string
	switch v.Kind {
	case yaml.SequenceNode:
		for _, item := range v.Content {
			raw = append(raw, item.Value)
		}
	case yaml.ScalarNode:
		raw = strings.FieldsFunc(v.Value, func(r rune) bool { return r == ',' || r == ' ' })
	}

	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		if t = strings.TrimPrefix(strings.TrimSpace(t), "#"); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// Render joins the header and body into note content.
func Render(f *Frontmatter, body string) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(fence + "\n")
	if f.Len() > 0 {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(f.node); err != nil {
			return "", fmt.Errorf("failed to encode frontmatter: %w", err)
		}
		if err := enc.Close(); err != nil {
			return "", fmt.Errorf("failed to encode frontmatter: %w", err)
		}
	}
	buf.WriteString(fence + "\n\n")
	buf.WriteString(body)
	return buf.String(), nil
}
