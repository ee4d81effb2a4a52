// Package editor reacts to note editing events: single-field edits
// re-run the rules sourced from the edited field, with remote work on
// background goroutines and all state mutation confined to a foreground
// completion loop.
package editor
