// Package obsidian reads and writes notes in an Obsidian vault on the local
// filesystem.
//
// Notes are markdown files with an optional YAML frontmatter block. The
// frontmatter is kept as a yaml.Node so keys this package does not know
// about survive an update with their order and formatting intact. All file
// access goes through an os.Root opened on the vault directory, so a note
// path can never reach outside the vault.
package obsidian
