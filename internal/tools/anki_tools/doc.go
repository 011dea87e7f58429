// Package anki_tools exposes the AnkiConnect adapter as MCP tools.
//
// Deck tools create decks, read statistics and change daily limits. Note
// tools create basic and cloze notes, search, tag and edit them. The card
// and note bulk tools (suspend, unsuspend, delete) are best-effort: IDs that
// do not exist are reported per item instead of failing the whole call.
package anki_tools
