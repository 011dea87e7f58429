// Package anki drives a local Anki instance through the AnkiConnect add-on.
//
// Every request is a JSON object {action, version, params} posted to the
// AnkiConnect URL; the reply carries either a result or an error string.
// Bulk operations on card and note IDs are best-effort: IDs that Anki does
// not know are reported back instead of failing the whole call.
package anki
