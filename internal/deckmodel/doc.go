// Package deckmodel defines the identifiers used to address a field on a
// particular note type within a particular deck. These identifiers are the
// map keys for language assignments and transformation rules throughout
// the application.
package deckmodel
