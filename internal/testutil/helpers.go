package testutil

import (
	"testing"

	"codeberg.org/snonux/lingotools/internal/deckmodel"
	"codeberg.org/snonux/lingotools/internal/rules"
)

// Fixture bundles the world most engine tests need: one deck, one note
// type with Chinese, English, Pinyin and Sound fields, a seeded in-memory
// collection and an empty rule store.
type Fixture struct {
	Collection *MemoryCollection
	Store      *rules.Store
	DNT        deckmodel.DeckNoteType
}

// NewFixture builds the standard fixture.
func NewFixture(t *testing.T) *Fixture {
	t.Helper()

	dnt := deckmodel.DeckNoteType{
		DeckID:    1000,
		DeckName:  "deck 1",
		ModelID:   2000,
		ModelName: "note-type",
	}

	collection := NewMemoryCollection()
	collection.AddDeck(dnt.DeckID, dnt.DeckName)
	collection.AddNoteType(dnt.ModelID, dnt.ModelName, []string{"Chinese", "English", "Pinyin", "Sound"})

	store, err := rules.NewStore(rules.NewMemoryStore(nil))
	if err != nil {
		t.Fatalf("failed to create rule store: %v", err)
	}

	return &Fixture{Collection: collection, Store: store, DNT: dnt}
}

// Field returns the field identifier for a field name on the fixture's
// deck/notetype.
func (f *Fixture) Field(name string) deckmodel.DeckNoteTypeField {
	return deckmodel.DeckNoteTypeField{DeckNoteType: f.DNT, FieldName: name}
}

// AddNote seeds a note with positional values Chinese, English, Pinyin,
// Sound.
func (f *Fixture) AddNote(noteID int64, values ...string) {
	f.Collection.AddNote(noteID, f.DNT.Key(), values)
}

// FieldValue reads one field of one note, failing the test on any error.
func (f *Fixture) FieldValue(t *testing.T, noteID int64, field string) string {
	t.Helper()
	note, err := f.Collection.NoteByID(noteID)
	if err != nil {
		t.Fatalf("failed to load note %d: %v", noteID, err)
	}
	value, err := note.Field(field)
	if err != nil {
		t.Fatalf("failed to read field %s: %v", field, err)
	}
	return value
}
