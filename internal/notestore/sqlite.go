package notestore

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"codeberg.org/snonux/lingotools/internal/deckmodel"
	"codeberg.org/snonux/lingotools/internal/errs"
)

// fieldSeparator joins field values inside the notes table, matching the
// unit separator Anki collections use.
const fieldSeparator = "\x1f"

// SQLiteCollection is a Collection over an Anki-style collection database:
// decks, notetypes, fields, notes and cards tables, with note field values
// packed into a single column.
type SQLiteCollection struct {
	db *sql.DB
}

// OpenSQLite opens a collection database file.
func OpenSQLite(path string) (*SQLiteCollection, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open collection: %w", err)
	}
	return &SQLiteCollection{db: db}, nil
}

// Close closes the underlying database.
func (c *SQLiteCollection) Close() error {
	return c.db.Close()
}

// Init creates the collection schema. Used by tests and by fixture
// tooling; opening an existing collection does not need it.
func (c *SQLiteCollection) Init() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS decks (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS notetypes (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS fields (ntid INTEGER NOT NULL, ord INTEGER NOT NULL, name TEXT NOT NULL, PRIMARY KEY (ntid, ord))`,
		`CREATE TABLE IF NOT EXISTS notes (id INTEGER PRIMARY KEY, mid INTEGER NOT NULL, flds TEXT NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS cards (id INTEGER PRIMARY KEY, nid INTEGER NOT NULL, did INTEGER NOT NULL)`,
	}
	for _, statement := range schema {
		if _, err := c.db.Exec(statement); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

func (c *SQLiteCollection) DeckName(deckID int64) (string, error) {
	var name string
	err := c.db.QueryRow(`SELECT name FROM decks WHERE id = ?`, deckID).Scan(&name)
	if err == sql.ErrNoRows {
		return "", &errs.ItemNotFoundError{Kind: "deck", Name: strconv.FormatInt(deckID, 10)}
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve deck %d: %w", deckID, err)
	}
	return name, nil
}

func (c *SQLiteCollection) ModelName(modelID int64) (string, error) {
	var name string
	err := c.db.QueryRow(`SELECT name FROM notetypes WHERE id = ?`, modelID).Scan(&name)
	if err == sql.ErrNoRows {
		return "", &errs.ItemNotFoundError{Kind: "note type", Name: strconv.FormatInt(modelID, 10)}
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve note type %d: %w", modelID, err)
	}
	return name, nil
}

func (c *SQLiteCollection) FieldNames(modelID int64) ([]string, error) {
	rows, err := c.db.Query(`SELECT name FROM fields WHERE ntid = ? ORDER BY ord`, modelID)
	if err != nil {
		return nil, fmt.Errorf("failed to load fields for note type %d: %w", modelID, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, &errs.ItemNotFoundError{Kind: "note type", Name: strconv.FormatInt(modelID, 10)}
	}
	return names, nil
}

func (c *SQLiteCollection) NoteByID(id int64) (*Note, error) {
	var modelID int64
	var packed string
	err := c.db.QueryRow(`SELECT mid, flds FROM notes WHERE id = ?`, id).Scan(&modelID, &packed)
	if err == sql.ErrNoRows {
		return nil, &errs.ItemNotFoundError{Kind: "note", Name: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load note %d: %w", id, err)
	}

	var deckID int64
	err = c.db.QueryRow(`SELECT did FROM cards WHERE nid = ? LIMIT 1`, id).Scan(&deckID)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to resolve deck for note %d: %w", id, err)
	}

	names, err := c.FieldNames(modelID)
	if err != nil {
		return nil, err
	}

	values := map[string]string{}
	for i, value := range strings.Split(packed, fieldSeparator) {
		if i < len(names) {
			values[names[i]] = value
		}
	}
	return NewNote(id, deckmodel.Key{DeckID: deckID, ModelID: modelID}, names, values), nil
}

func (c *SQLiteCollection) UpdateNote(note *Note) error {
	values := make([]string, 0, len(note.FieldNames()))
	for _, name := range note.FieldNames() {
		value, err := note.Field(name)
		if err != nil {
			return err
		}
		values = append(values, value)
	}
	_, err := c.db.Exec(`UPDATE notes SET flds = ? WHERE id = ?`,
		strings.Join(values, fieldSeparator), note.ID())
	if err != nil {
		return fmt.Errorf("failed to update note %d: %w", note.ID(), err)
	}
	return nil
}

func (c *SQLiteCollection) NoteIDs(key deckmodel.Key) ([]int64, error) {
	rows, err := c.db.Query(
		`SELECT DISTINCT notes.id FROM notes JOIN cards ON cards.nid = notes.id
		 WHERE cards.did = ? AND notes.mid = ? ORDER BY notes.id`,
		key.DeckID, key.ModelID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (c *SQLiteCollection) PopulatedDeckNoteTypes() ([]deckmodel.DeckNoteType, error) {
	rows, err := c.db.Query(
		`SELECT DISTINCT cards.did, notes.mid, decks.name, notetypes.name
		 FROM cards
		 JOIN notes ON notes.id = cards.nid
		 JOIN decks ON decks.id = cards.did
		 JOIN notetypes ON notetypes.id = notes.mid
		 ORDER BY decks.name, notetypes.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query populated pairs: %w", err)
	}
	defer rows.Close()

	var pairs []deckmodel.DeckNoteType
	for rows.Next() {
		var dnt deckmodel.DeckNoteType
		if err := rows.Scan(&dnt.DeckID, &dnt.ModelID, &dnt.DeckName, &dnt.ModelName); err != nil {
			return nil, err
		}
		pairs = append(pairs, dnt)
	}
	return pairs, rows.Err()
}

// InsertDeck adds a deck. Fixture helper.
func (c *SQLiteCollection) InsertDeck(id int64, name string) error {
	_, err := c.db.Exec(`INSERT INTO decks (id, name) VALUES (?, ?)`, id, name)
	return err
}

// InsertNoteType adds a note type with its ordered fields. Fixture helper.
func (c *SQLiteCollection) InsertNoteType(id int64, name string, fieldNames []string) error {
	if _, err := c.db.Exec(`INSERT INTO notetypes (id, name) VALUES (?, ?)`, id, name); err != nil {
		return err
	}
	for ord, fieldName := range fieldNames {
		if _, err := c.db.Exec(`INSERT INTO fields (ntid, ord, name) VALUES (?, ?, ?)`, id, ord, fieldName); err != nil {
			return err
		}
	}
	return nil
}

// InsertNote adds a note and one card placing it into a deck. Fixture
// helper.
func (c *SQLiteCollection) InsertNote(noteID, deckID, modelID int64, values []string) error {
	if _, err := c.db.Exec(`INSERT INTO notes (id, mid, flds) VALUES (?, ?, ?)`,
		noteID, modelID, strings.Join(values, fieldSeparator)); err != nil {
		return err
	}
	_, err := c.db.Exec(`INSERT INTO cards (id, nid, did) VALUES (?, ?, ?)`,
		noteID, noteID, deckID)
	return err
}
