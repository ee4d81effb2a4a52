package errs

import (
	"errors"
	"fmt"
)

// DocumentationLanguageMapping is appended to mapping errors so the user
// knows where to fix the problem.
const DocumentationLanguageMapping = "Please set up Language Mappings, from the Anki main screen: Tools -> Language Tools: Language Mapping"

// ItemNotFoundError indicates that a referenced deck, note type, note or
// field no longer exists. This happens when stored rules refer to items
// that were renamed or deleted since the rule was created.
type ItemNotFoundError struct {
	Kind string // "deck", "note type", "note", "field"
	Name string
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Name)
}

// MappingError indicates that a field has no language assignment but one
// is required for the requested transformation.
type MappingError struct {
	Field string // rendered "NoteType / Deck / Field" path
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("No language set for %s. %s", e.Field, DocumentationLanguageMapping)
}

// FieldEmptyError indicates that the source field contains no visible text.
// Callers treat this as a defined skip, not a failure.
type FieldEmptyError struct{}

func (e *FieldEmptyError) Error() string {
	return "Field is empty"
}

// RequestError indicates that a call to the language tools service failed.
// For HTTP 400 and 401 the message is the server-provided error text; for
// any other non-2xx status it carries the status code and raw body.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return e.Message
}

// IsLanguageTools reports whether err belongs to the closed set of typed
// engine errors. Anything outside the set is treated as a bug and routed
// to the observability reporter.
func IsLanguageTools(err error) bool {
	var itemNotFound *ItemNotFoundError
	var mapping *MappingError
	var fieldEmpty *FieldEmptyError
	var request *RequestError
	return errors.As(err, &itemNotFound) ||
		errors.As(err, &mapping) ||
		errors.As(err, &fieldEmpty) ||
		errors.As(err, &request)
}
