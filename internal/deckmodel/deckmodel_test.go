package deckmodel

import "testing"

func TestKeyEqualityIgnoresNames(t *testing.T) {
	a := DeckNoteType{DeckID: 1, DeckName: "old name", ModelID: 2, ModelName: "model"}
	b := DeckNoteType{DeckID: 1, DeckName: "renamed", ModelID: 2, ModelName: "model v2"}
	if a.Key() != b.Key() {
		t.Error("keys should match regardless of display names")
	}

	fa := DeckNoteTypeField{DeckNoteType: a, FieldName: "Chinese"}
	fb := DeckNoteTypeField{DeckNoteType: b, FieldName: "Chinese"}
	if fa.Key() != fb.Key() {
		t.Error("field keys should match regardless of display names")
	}
	fc := DeckNoteTypeField{DeckNoteType: a, FieldName: "English"}
	if fa.Key() == fc.Key() {
		t.Error("different fields must not share a key")
	}
}

func TestStringRendering(t *testing.T) {
	dnt := DeckNoteType{DeckID: 1, DeckName: "deck 1", ModelID: 2, ModelName: "vocab"}
	if got := dnt.String(); got != "vocab / deck 1" {
		t.Errorf("String() = %q", got)
	}

	dntf := DeckNoteTypeField{DeckNoteType: dnt, FieldName: "Chinese"}
	if got := dntf.String(); got != "vocab / deck 1 / Chinese" {
		t.Errorf("String() = %q", got)
	}
	if dntf.DeckName() != "deck 1" || dntf.ModelName() != "vocab" {
		t.Errorf("accessors = %q, %q", dntf.DeckName(), dntf.ModelName())
	}
}
