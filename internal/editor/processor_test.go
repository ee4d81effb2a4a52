package editor

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"codeberg.org/snonux/lingotools/internal/batch"
	"codeberg.org/snonux/lingotools/internal/errs"
	"codeberg.org/snonux/lingotools/internal/langsvc"
	"codeberg.org/snonux/lingotools/internal/testutil"
	"codeberg.org/snonux/lingotools/internal/textproc"
)

type editorWorld struct {
	fixture   *testutil.Fixture
	service   *testutil.MockService
	notifier  *testutil.MockNotifier
	runner    *Runner
	processor *Processor
}

// fieldIndex positions in the fixture note type.
const (
	chineseIdx = 0
	englishIdx = 1
)

func newEditorWorld(t *testing.T) *editorWorld {
	t.Helper()
	fixture := testutil.NewFixture(t)

	if err := fixture.Store.SetLanguage(fixture.Field("Chinese"), "zh_cn"); err != nil {
		t.Fatal(err)
	}
	if err := fixture.Store.StoreTranslationRule(fixture.Field("English"), "Chinese",
		langsvc.TranslationOption{Service: "Azure", SourceLanguageID: "zh", TargetLanguageID: "en"}); err != nil {
		t.Fatal(err)
	}
	if err := fixture.Store.StoreTransliterationRule(fixture.Field("Pinyin"), "Chinese",
		langsvc.TransliterationOption{Service: "Azure", TransliterationName: "Pinyin"}); err != nil {
		t.Fatal(err)
	}

	service := testutil.NewMockService()
	notifier := &testutil.MockNotifier{}
	runner := NewRunner()
	textProcessor := textproc.NewProcessor(fixture.Store.ReplacementRules(), slog.Default())
	applier := batch.NewRuleApplier(fixture.Store, textProcessor, service, &testutil.MockImporter{})
	processor := NewProcessor(fixture.Collection, fixture.Store, applier,
		errs.NewManager(nil, nil), notifier, runner, nil)

	return &editorWorld{
		fixture:   fixture,
		service:   service,
		notifier:  notifier,
		runner:    runner,
		processor: processor,
	}
}

func (w *editorWorld) openNote(t *testing.T, noteID int64) {
	t.Helper()
	note, err := w.fixture.Collection.NoteByID(noteID)
	if err != nil {
		t.Fatal(err)
	}
	w.processor.NoteOpened(note)
}

func TestFieldEditedUpdatesTargets(t *testing.T) {
	w := newEditorWorld(t)
	w.fixture.AddNote(1, "", "", "", "")
	w.openNote(t, 1)

	if err := w.processor.FieldEdited(context.Background(), w.fixture.DNT, 1, chineseIdx, "老人家"); err != nil {
		t.Fatalf("FieldEdited() error = %v", err)
	}
	w.runner.Wait()

	if got := w.fixture.FieldValue(t, 1, "English"); got != "translated:老人家" {
		t.Errorf("English = %q", got)
	}
	if got := w.fixture.FieldValue(t, 1, "Pinyin"); got != "transliterated:老人家" {
		t.Errorf("Pinyin = %q", got)
	}
	if len(w.notifier.ErrorMessages) != 0 {
		t.Errorf("unexpected errors: %v", w.notifier.ErrorMessages)
	}
}

func TestFieldEditedUnchangedTextIsNoOp(t *testing.T) {
	w := newEditorWorld(t)
	w.fixture.AddNote(1, "老人家", "old", "lǎo", "")
	w.openNote(t, 1)

	if err := w.processor.FieldEdited(context.Background(), w.fixture.DNT, 1, chineseIdx, "老人家"); err != nil {
		t.Fatal(err)
	}
	w.runner.Wait()

	if len(w.service.Calls) != 0 {
		t.Errorf("unchanged text triggered calls: %v", w.service.Calls)
	}
	if got := w.fixture.FieldValue(t, 1, "English"); got != "old" {
		t.Errorf("English = %q, want untouched", got)
	}
}

func TestFieldEditedEmptySourceClearsTargets(t *testing.T) {
	w := newEditorWorld(t)
	w.fixture.AddNote(1, "老人家", "old people", "lǎo rén jiā", "")
	w.openNote(t, 1)

	if err := w.processor.FieldEdited(context.Background(), w.fixture.DNT, 1, chineseIdx, "<br>&nbsp;"); err != nil {
		t.Fatal(err)
	}
	w.runner.Wait()

	if len(w.service.Calls) != 0 {
		t.Errorf("empty source made remote calls: %v", w.service.Calls)
	}
	if got := w.fixture.FieldValue(t, 1, "English"); got != "" {
		t.Errorf("English = %q, want cleared", got)
	}
	if got := w.fixture.FieldValue(t, 1, "Pinyin"); got != "" {
		t.Errorf("Pinyin = %q, want cleared", got)
	}
	if len(w.fixture.Collection.Updated) != 1 {
		t.Errorf("UpdateNote calls = %v, want one", w.fixture.Collection.Updated)
	}
}

func TestFieldEditedNoRulesNoWork(t *testing.T) {
	w := newEditorWorld(t)
	w.fixture.AddNote(1, "", "", "", "")
	w.openNote(t, 1)

	// English is no rule's source field
	if err := w.processor.FieldEdited(context.Background(), w.fixture.DNT, 1, englishIdx, "hello"); err != nil {
		t.Fatal(err)
	}
	w.runner.Wait()

	if len(w.service.Calls) != 0 {
		t.Errorf("edit without rules triggered calls: %v", w.service.Calls)
	}
}

func TestCompletionDroppedAfterNoteSwitch(t *testing.T) {
	w := newEditorWorld(t)
	w.fixture.AddNote(1, "", "", "", "")
	w.fixture.AddNote(2, "", "", "", "")
	w.openNote(t, 1)

	if err := w.processor.FieldEdited(context.Background(), w.fixture.DNT, 1, chineseIdx, "老人家"); err != nil {
		t.Fatal(err)
	}
	// the user moves on before the transformations land
	w.openNote(t, 2)
	w.runner.Wait()

	if got := w.fixture.FieldValue(t, 1, "English"); got != "" {
		t.Errorf("English = %q, want stale result dropped", got)
	}
	if len(w.fixture.Collection.Updated) != 0 {
		t.Errorf("stale completion persisted: %v", w.fixture.Collection.Updated)
	}
}

func TestNewerEditSupersedesOlder(t *testing.T) {
	w := newEditorWorld(t)
	w.fixture.AddNote(1, "", "", "", "")
	w.openNote(t, 1)

	ctx := context.Background()
	if err := w.processor.FieldEdited(ctx, w.fixture.DNT, 1, chineseIdx, "老"); err != nil {
		t.Fatal(err)
	}
	if err := w.processor.FieldEdited(ctx, w.fixture.DNT, 1, chineseIdx, "老人家"); err != nil {
		t.Fatal(err)
	}
	w.runner.Wait()

	if got := w.fixture.FieldValue(t, 1, "English"); got != "translated:老人家" {
		t.Errorf("English = %q, want result of the latest edit", got)
	}
}

func TestFirstErrorSurfacedOnce(t *testing.T) {
	w := newEditorWorld(t)
	w.fixture.AddNote(1, "", "", "", "")
	w.openNote(t, 1)
	w.service.Errors["老人家"] = &errs.RequestError{StatusCode: 400, Message: "Could not load translation: quota exceeded"}

	if err := w.processor.FieldEdited(context.Background(), w.fixture.DNT, 1, chineseIdx, "老人家"); err != nil {
		t.Fatal(err)
	}
	w.runner.Wait()

	// both rules failed but only the first failure reaches the user
	if len(w.notifier.ErrorMessages) != 1 {
		t.Fatalf("error messages = %v, want exactly one", w.notifier.ErrorMessages)
	}
	if w.notifier.ErrorMessages[0] != "Could not load translation: quota exceeded" {
		t.Errorf("message = %q", w.notifier.ErrorMessages[0])
	}
}

func TestFieldEditedBadIndex(t *testing.T) {
	w := newEditorWorld(t)
	w.fixture.AddNote(1, "", "", "", "")
	w.openNote(t, 1)

	if err := w.processor.FieldEdited(context.Background(), w.fixture.DNT, 1, 17, "x"); err == nil {
		t.Error("expected error for out-of-range field index")
	}
}

func TestNewProcessorDefaultsManagerAndNotifier(t *testing.T) {
	fixture := testutil.NewFixture(t)
	if err := fixture.Store.SetLanguage(fixture.Field("Chinese"), "zh_cn"); err != nil {
		t.Fatal(err)
	}
	if err := fixture.Store.StoreTranslationRule(fixture.Field("English"), "Chinese",
		langsvc.TranslationOption{Service: "Azure", SourceLanguageID: "zh", TargetLanguageID: "en"}); err != nil {
		t.Fatal(err)
	}
	fixture.AddNote(1, "", "", "", "")

	service := testutil.NewMockService()
	service.Errors["老人家"] = &errs.RequestError{StatusCode: 400, Message: "Could not load translation: quota exceeded"}
	runner := NewRunner()
	applier := batch.NewRuleApplier(fixture.Store, textproc.NewProcessor(nil, nil), service, &testutil.MockImporter{})
	processor := NewProcessor(fixture.Collection, fixture.Store, applier, nil, nil, runner, nil)

	note, err := fixture.Collection.NoteByID(1)
	if err != nil {
		t.Fatal(err)
	}
	processor.NoteOpened(note)

	// the failing rule must not panic on the defaulted collaborators
	if err := processor.FieldEdited(context.Background(), fixture.DNT, 1, chineseIdx, "老人家"); err != nil {
		t.Fatal(err)
	}
	runner.Wait()

	if got := fixture.FieldValue(t, 1, "English"); got != "" {
		t.Errorf("English = %q, want untouched after failure", got)
	}
}

func TestTranslationChoicesReadsCurrentSource(t *testing.T) {
	w := newEditorWorld(t)
	if err := w.fixture.Store.SetLanguage(w.fixture.Field("English"), "en"); err != nil {
		t.Fatal(err)
	}
	w.fixture.AddNote(1, "老人家", "", "", "")
	w.openNote(t, 1)

	choices, err := w.processor.TranslationChoices(context.Background(), w.fixture.DNT, 1, "English")
	if err != nil {
		t.Fatalf("TranslationChoices() error = %v", err)
	}
	if choices["Azure"] != "translated:老人家" || choices["Google"] != "also:老人家" {
		t.Errorf("choices = %v", choices)
	}
}

func TestTranslationChoicesWithoutRuleFails(t *testing.T) {
	w := newEditorWorld(t)
	w.fixture.AddNote(1, "老人家", "", "", "")
	w.openNote(t, 1)

	_, err := w.processor.TranslationChoices(context.Background(), w.fixture.DNT, 1, "Chinese")
	var notFound *errs.ItemNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want ItemNotFoundError", err)
	}
}
