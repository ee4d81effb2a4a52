package testutil

import (
	"context"
	"fmt"
	"path/filepath"

	"codeberg.org/snonux/lingotools/internal/deckmodel"
	"codeberg.org/snonux/lingotools/internal/errs"
	"codeberg.org/snonux/lingotools/internal/langsvc"
	"codeberg.org/snonux/lingotools/internal/notestore"
)

// MockService mocks the language tools service. Responses are keyed by the
// preprocessed input text; unmapped inputs fall back to a derived value so
// tests only spell out what they assert on.
type MockService struct {
	Translations     map[string]string
	Transliterations map[string]string
	AudioPaths       map[string]string
	Errors           map[string]error
	Calls            []string
}

// NewMockService creates an empty mock service.
func NewMockService() *MockService {
	return &MockService{
		Translations:     map[string]string{},
		Transliterations: map[string]string{},
		AudioPaths:       map[string]string{},
		Errors:           map[string]error{},
	}
}

// Translate mocks a translation call.
func (m *MockService) Translate(ctx context.Context, text string, option langsvc.TranslationOption) (string, error) {
	m.Calls = append(m.Calls, fmt.Sprintf("translate:%s", text))
	if err, ok := m.Errors[text]; ok {
		return "", err
	}
	if result, ok := m.Translations[text]; ok {
		return result, nil
	}
	return "translated:" + text, nil
}

// TranslateAll mocks the per-service translation call.
func (m *MockService) TranslateAll(ctx context.Context, text, fromLanguage, toLanguage string) (map[string]string, error) {
	m.Calls = append(m.Calls, fmt.Sprintf("translate_all:%s:%s:%s", text, fromLanguage, toLanguage))
	if err, ok := m.Errors[text]; ok {
		return nil, err
	}
	return map[string]string{
		"Azure":  "translated:" + text,
		"Google": "also:" + text,
	}, nil
}

// Transliterate mocks a transliteration call.
func (m *MockService) Transliterate(ctx context.Context, text string, option langsvc.TransliterationOption) (string, error) {
	m.Calls = append(m.Calls, fmt.Sprintf("transliterate:%s", text))
	if err, ok := m.Errors[text]; ok {
		return "", err
	}
	if result, ok := m.Transliterations[text]; ok {
		return result, nil
	}
	return "transliterated:" + text, nil
}

// Audio mocks a speech synthesis call, returning a fake file path.
func (m *MockService) Audio(ctx context.Context, text string, voice langsvc.Voice, options map[string]any) (string, error) {
	m.Calls = append(m.Calls, fmt.Sprintf("audio:%s", text))
	if err, ok := m.Errors[text]; ok {
		return "", err
	}
	if path, ok := m.AudioPaths[text]; ok {
		return path, nil
	}
	return "/tmp/mock-" + text + ".mp3", nil
}

// MockImporter mocks the media importer, returning the file's base name.
type MockImporter struct {
	Imported []string
	Err      error
}

// Import records the path and returns its base name as the media name.
func (m *MockImporter) Import(path string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.Imported = append(m.Imported, path)
	return filepath.Base(path), nil
}

// MockNotifier records user-facing notifications.
type MockNotifier struct {
	InfoMessages  []string
	ErrorMessages []string
}

func (m *MockNotifier) Info(message string) {
	m.InfoMessages = append(m.InfoMessages, message)
}

func (m *MockNotifier) Error(message string) {
	m.ErrorMessages = append(m.ErrorMessages, message)
}

// MockReporter records errors routed to the observability channel.
type MockReporter struct {
	Reported []error
}

func (m *MockReporter) ReportUnexpected(action string, err error) {
	m.Reported = append(m.Reported, err)
}

// MemoryCollection is an in-memory note store implementing
// notestore.Collection. Tests seed it with AddDeck, AddNoteType and
// AddNote; UpdateNote calls are recorded in Updated.
type MemoryCollection struct {
	decks     map[int64]string
	models    map[int64]string
	fields    map[int64][]string
	notes     map[int64]*notestore.Note
	noteOrder []int64
	Updated   []int64
}

// NewMemoryCollection creates an empty in-memory collection.
func NewMemoryCollection() *MemoryCollection {
	return &MemoryCollection{
		decks:  map[int64]string{},
		models: map[int64]string{},
		fields: map[int64][]string{},
		notes:  map[int64]*notestore.Note{},
	}
}

// AddDeck seeds a deck.
func (c *MemoryCollection) AddDeck(id int64, name string) {
	c.decks[id] = name
}

// AddNoteType seeds a note type with its ordered fields.
func (c *MemoryCollection) AddNoteType(id int64, name string, fieldNames []string) {
	c.models[id] = name
	c.fields[id] = fieldNames
}

// AddNote seeds a note; values are positional over the note type's fields.
func (c *MemoryCollection) AddNote(noteID int64, key deckmodel.Key, values []string) *notestore.Note {
	names := c.fields[key.ModelID]
	byName := map[string]string{}
	for i, name := range names {
		if i < len(values) {
			byName[name] = values[i]
		}
	}
	note := notestore.NewNote(noteID, key, names, byName)
	c.notes[noteID] = note
	c.noteOrder = append(c.noteOrder, noteID)
	return note
}

func (c *MemoryCollection) NoteByID(id int64) (*notestore.Note, error) {
	note, ok := c.notes[id]
	if !ok {
		return nil, &errs.ItemNotFoundError{Kind: "note", Name: fmt.Sprintf("%d", id)}
	}
	return note, nil
}

func (c *MemoryCollection) UpdateNote(note *notestore.Note) error {
	if _, ok := c.notes[note.ID()]; !ok {
		return &errs.ItemNotFoundError{Kind: "note", Name: fmt.Sprintf("%d", note.ID())}
	}
	c.notes[note.ID()] = note
	c.Updated = append(c.Updated, note.ID())
	return nil
}

func (c *MemoryCollection) NoteIDs(key deckmodel.Key) ([]int64, error) {
	var ids []int64
	for _, id := range c.noteOrder {
		if c.notes[id].Key() == key {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (c *MemoryCollection) DeckName(deckID int64) (string, error) {
	name, ok := c.decks[deckID]
	if !ok {
		return "", &errs.ItemNotFoundError{Kind: "deck", Name: fmt.Sprintf("%d", deckID)}
	}
	return name, nil
}

func (c *MemoryCollection) ModelName(modelID int64) (string, error) {
	name, ok := c.models[modelID]
	if !ok {
		return "", &errs.ItemNotFoundError{Kind: "note type", Name: fmt.Sprintf("%d", modelID)}
	}
	return name, nil
}

func (c *MemoryCollection) FieldNames(modelID int64) ([]string, error) {
	names, ok := c.fields[modelID]
	if !ok {
		return nil, &errs.ItemNotFoundError{Kind: "note type", Name: fmt.Sprintf("%d", modelID)}
	}
	return names, nil
}

func (c *MemoryCollection) PopulatedDeckNoteTypes() ([]deckmodel.DeckNoteType, error) {
	seen := map[deckmodel.Key]bool{}
	var pairs []deckmodel.DeckNoteType
	for _, id := range c.noteOrder {
		key := c.notes[id].Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		pairs = append(pairs, deckmodel.DeckNoteType{
			DeckID:    key.DeckID,
			DeckName:  c.decks[key.DeckID],
			ModelID:   key.ModelID,
			ModelName: c.models[key.ModelID],
		})
	}
	return pairs, nil
}
