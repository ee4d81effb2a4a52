package notestore

import (
	"codeberg.org/snonux/lingotools/internal/deckmodel"
	"codeberg.org/snonux/lingotools/internal/errs"
)

// Note is one note's editable state: an id plus named field values.
type Note struct {
	id     int64
	key    deckmodel.Key
	names  []string
	values map[string]string
}

// NewNote builds a note from parallel field names and values. Missing
// values default to empty.
func NewNote(id int64, key deckmodel.Key, names []string, values map[string]string) *Note {
	if values == nil {
		values = map[string]string{}
	}
	return &Note{id: id, key: key, names: names, values: values}
}

// ID returns the note id.
func (n *Note) ID() int64 {
	return n.id
}

// Key returns the (deck, note type) identity this note belongs to.
func (n *Note) Key() deckmodel.Key {
	return n.key
}

// FieldNames returns the note's field names in schema order.
func (n *Note) FieldNames() []string {
	return n.names
}

// Field returns the value of a named field.
func (n *Note) Field(name string) (string, error) {
	if !n.hasField(name) {
		return "", &errs.ItemNotFoundError{Kind: "field", Name: name}
	}
	return n.values[name], nil
}

// SetField overwrites the value of a named field.
func (n *Note) SetField(name, value string) error {
	if !n.hasField(name) {
		return &errs.ItemNotFoundError{Kind: "field", Name: name}
	}
	n.values[name] = value
	return nil
}

func (n *Note) hasField(name string) bool {
	for _, candidate := range n.names {
		if candidate == name {
			return true
		}
	}
	return false
}

// Collection is the host storage contract: note access, persistence and
// id-to-name resolution.
type Collection interface {
	// NoteByID loads a note.
	NoteByID(id int64) (*Note, error)

	// UpdateNote persists a note's current field values.
	UpdateNote(note *Note) error

	// NoteIDs lists the notes belonging to a (deck, note type) pair.
	NoteIDs(key deckmodel.Key) ([]int64, error)

	// DeckName resolves a deck id to its display name.
	DeckName(deckID int64) (string, error)

	// ModelName resolves a note type id to its display name.
	ModelName(modelID int64) (string, error)

	// FieldNames lists a note type's field names in schema order.
	FieldNames(modelID int64) ([]string, error)

	// PopulatedDeckNoteTypes lists every (deck, note type) pair that has
	// at least one note.
	PopulatedDeckNoteTypes() ([]deckmodel.DeckNoteType, error)
}

// BuildDeckNoteType resolves an id pair to a fully-named identifier. The
// resolution fails with a typed not-found error when either id is gone,
// which happens when rules outlive the items they reference.
func BuildDeckNoteType(c Collection, deckID, modelID int64) (deckmodel.DeckNoteType, error) {
	deckName, err := c.DeckName(deckID)
	if err != nil {
		return deckmodel.DeckNoteType{}, err
	}
	modelName, err := c.ModelName(modelID)
	if err != nil {
		return deckmodel.DeckNoteType{}, err
	}
	return deckmodel.DeckNoteType{
		DeckID:    deckID,
		DeckName:  deckName,
		ModelID:   modelID,
		ModelName: modelName,
	}, nil
}

// BuildField resolves an id pair plus field name to a field identifier.
func BuildField(c Collection, deckID, modelID int64, fieldName string) (deckmodel.DeckNoteTypeField, error) {
	dnt, err := BuildDeckNoteType(c, deckID, modelID)
	if err != nil {
		return deckmodel.DeckNoteTypeField{}, err
	}
	return deckmodel.DeckNoteTypeField{DeckNoteType: dnt, FieldName: fieldName}, nil
}

// FieldFromIndex resolves a positional field index, as delivered by editor
// events, to a named field identifier.
func FieldFromIndex(c Collection, dnt deckmodel.DeckNoteType, index int) (deckmodel.DeckNoteTypeField, error) {
	names, err := c.FieldNames(dnt.ModelID)
	if err != nil {
		return deckmodel.DeckNoteTypeField{}, err
	}
	if index < 0 || index >= len(names) {
		return deckmodel.DeckNoteTypeField{}, &errs.ItemNotFoundError{
			Kind: "field",
			Name: dnt.String(),
		}
	}
	return deckmodel.DeckNoteTypeField{DeckNoteType: dnt, FieldName: names[index]}, nil
}
