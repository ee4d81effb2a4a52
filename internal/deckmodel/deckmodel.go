package deckmodel

import "fmt"

// DeckNoteType identifies a (deck, note type) pair. Identity is carried by
// the id pair; the names are display values that may drift after a rename
// without breaking identity.
type DeckNoteType struct {
	DeckID    int64
	DeckName  string
	ModelID   int64
	ModelName string
}

// Key is the comparable identity of a DeckNoteType. Two DeckNoteTypes with
// equal keys are interchangeable as map keys even when their display names
// differ.
type Key struct {
	DeckID  int64
	ModelID int64
}

// Key returns the id-based identity of the pair.
func (d DeckNoteType) Key() Key {
	return Key{DeckID: d.DeckID, ModelID: d.ModelID}
}

func (d DeckNoteType) String() string {
	return fmt.Sprintf("%s / %s", d.ModelName, d.DeckName)
}

// DeckNoteTypeField identifies a single field on a note type within a deck.
// It is the unit of language assignment and the endpoint of transformation
// rules.
type DeckNoteTypeField struct {
	DeckNoteType DeckNoteType
	FieldName    string
}

// FieldKey is the comparable identity of a DeckNoteTypeField.
type FieldKey struct {
	Key
	FieldName string
}

// Key returns the id-based identity of the field.
func (f DeckNoteTypeField) Key() FieldKey {
	return FieldKey{Key: f.DeckNoteType.Key(), FieldName: f.FieldName}
}

// ModelName returns the note type name of the enclosing pair.
func (f DeckNoteTypeField) ModelName() string {
	return f.DeckNoteType.ModelName
}

// DeckName returns the deck name of the enclosing pair.
func (f DeckNoteTypeField) DeckName() string {
	return f.DeckNoteType.DeckName
}

func (f DeckNoteTypeField) String() string {
	return fmt.Sprintf("%s / %s / %s", f.ModelName(), f.DeckName(), f.FieldName)
}
