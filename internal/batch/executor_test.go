package batch

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"codeberg.org/snonux/lingotools/internal/errs"
	"codeberg.org/snonux/lingotools/internal/langsvc"
	"codeberg.org/snonux/lingotools/internal/testutil"
	"codeberg.org/snonux/lingotools/internal/textproc"
)

type world struct {
	fixture  *testutil.Fixture
	service  *testutil.MockService
	importer *testutil.MockImporter
	executor *Executor
}

// newWorld builds a fixture with the full rule set: Chinese translates to
// English, transliterates to Pinyin and synthesizes into Sound.
func newWorld(t *testing.T) *world {
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
	if err := fixture.Store.StoreAudioRule(fixture.Field("Sound"), "Chinese"); err != nil {
		t.Fatal(err)
	}
	if err := fixture.Store.SetVoice("zh_cn", langsvc.Voice{Service: "Azure", LanguageCode: "zh_cn"}); err != nil {
		t.Fatal(err)
	}

	service := testutil.NewMockService()
	importer := &testutil.MockImporter{}
	processor := textproc.NewProcessor(fixture.Store.ReplacementRules(), slog.Default())
	applier := NewRuleApplier(fixture.Store, processor, service, importer)
	executor := NewExecutor(fixture.Collection, fixture.Store, applier, errs.NewManager(nil, nil), nil)

	return &world{fixture: fixture, service: service, importer: importer, executor: executor}
}

func TestRunAppliesAllRules(t *testing.T) {
	w := newWorld(t)
	w.fixture.AddNote(1, "老人家", "", "", "")
	w.fixture.AddNote(2, "你好", "", "", "")
	w.service.AudioPaths["老人家"] = "/tmp/languagetools-aaa.mp3"
	w.service.AudioPaths["你好"] = "/tmp/languagetools-bbb.mp3"

	var progressCalls []int
	summary, err := w.executor.Run(context.Background(), w.fixture.DNT, []int64{1, 2},
		func(done, total int) {
			if total != 6 {
				t.Errorf("progress total = %d, want 6", total)
			}
			progressCalls = append(progressCalls, done)
		})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.Attempts != 6 || summary.Successes != 6 || summary.Skipped != 0 || summary.Failures != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if len(progressCalls) != 6 || progressCalls[5] != 6 {
		t.Errorf("progress calls = %v", progressCalls)
	}

	if got := w.fixture.FieldValue(t, 1, "English"); got != "translated:老人家" {
		t.Errorf("English = %q", got)
	}
	if got := w.fixture.FieldValue(t, 1, "Pinyin"); got != "transliterated:老人家" {
		t.Errorf("Pinyin = %q", got)
	}
	if got := w.fixture.FieldValue(t, 1, "Sound"); got != "[sound:languagetools-aaa.mp3]" {
		t.Errorf("Sound = %q", got)
	}

	// one persist per note
	if len(w.fixture.Collection.Updated) != 2 {
		t.Errorf("UpdateNote calls = %v, want one per note", w.fixture.Collection.Updated)
	}

	// per note, translation runs first and audio last
	wantOrder := []string{
		"translate:老人家", "transliterate:老人家", "audio:老人家",
		"translate:你好", "transliterate:你好", "audio:你好",
	}
	for i, call := range wantOrder {
		if w.service.Calls[i] != call {
			t.Fatalf("call %d = %q, want %q", i, w.service.Calls[i], call)
		}
	}
}

func TestRunSkipsEmptySource(t *testing.T) {
	w := newWorld(t)
	w.fixture.AddNote(1, "<div>&nbsp;</div>", "", "", "")

	summary, err := w.executor.Run(context.Background(), w.fixture.DNT, []int64{1}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if summary.Attempts != 3 || summary.Skipped != 3 || summary.Successes != 0 || summary.Failures != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if len(w.service.Calls) != 0 {
		t.Errorf("expected no remote calls, got %v", w.service.Calls)
	}
	if len(w.fixture.Collection.Updated) != 0 {
		t.Error("skipped note must not be persisted")
	}
}

func TestRunContinuesPastErrors(t *testing.T) {
	w := newWorld(t)
	w.fixture.AddNote(1, "老人家", "", "", "")
	w.fixture.AddNote(2, "你好", "", "", "")
	w.service.Errors["老人家"] = &errs.RequestError{StatusCode: 400, Message: "Could not load translation: quota exceeded"}

	summary, err := w.executor.Run(context.Background(), w.fixture.DNT, []int64{1, 2}, nil)
	if err != nil {
		t.Fatal(err)
	}

	// all three rules for note 1 hit the same service error
	if summary.Failures != 3 || summary.Successes != 3 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.ErrorCounts["Could not load translation: quota exceeded"] != 3 {
		t.Errorf("error counts = %v", summary.ErrorCounts)
	}
	if !strings.Contains(summary.ErrorSummary, "(3 times)") {
		t.Errorf("summary = %q", summary.ErrorSummary)
	}

	// note 2 still went through
	if got := w.fixture.FieldValue(t, 2, "English"); got != "translated:你好" {
		t.Errorf("English = %q", got)
	}
}

func TestRunRecordsMissingNote(t *testing.T) {
	w := newWorld(t)
	w.fixture.AddNote(1, "老人家", "", "", "")

	summary, err := w.executor.Run(context.Background(), w.fixture.DNT, []int64{1, 999}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if summary.Attempts != 6 || summary.Successes != 3 || summary.Failures != 3 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.ErrorCounts["note not found: 999"] != 3 {
		t.Errorf("error counts = %v", summary.ErrorCounts)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	w := newWorld(t)
	w.fixture.AddNote(1, "老人家", "", "", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := w.executor.Run(ctx, w.fixture.DNT, []int64{1}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestAudioWithoutMappingFails(t *testing.T) {
	fixture := testutil.NewFixture(t)
	if err := fixture.Store.StoreAudioRule(fixture.Field("Sound"), "Chinese"); err != nil {
		t.Fatal(err)
	}
	fixture.AddNote(1, "老人家", "", "", "")

	service := testutil.NewMockService()
	processor := textproc.NewProcessor(nil, slog.Default())
	applier := NewRuleApplier(fixture.Store, processor, service, &testutil.MockImporter{})
	executor := NewExecutor(fixture.Collection, fixture.Store, applier, errs.NewManager(nil, nil), nil)

	summary, err := executor.Run(context.Background(), fixture.DNT, []int64{1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Failures != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	want := "No language set for note-type / deck 1 / Chinese. " + errs.DocumentationLanguageMapping
	if summary.ErrorCounts[want] != 1 {
		t.Errorf("error counts = %v", summary.ErrorCounts)
	}
}

func TestAudioWithoutVoiceFails(t *testing.T) {
	fixture := testutil.NewFixture(t)
	if err := fixture.Store.SetLanguage(fixture.Field("Chinese"), "zh_cn"); err != nil {
		t.Fatal(err)
	}
	if err := fixture.Store.StoreAudioRule(fixture.Field("Sound"), "Chinese"); err != nil {
		t.Fatal(err)
	}
	fixture.AddNote(1, "老人家", "", "", "")

	processor := textproc.NewProcessor(nil, slog.Default())
	applier := NewRuleApplier(fixture.Store, processor, testutil.NewMockService(), &testutil.MockImporter{})
	executor := NewExecutor(fixture.Collection, fixture.Store, applier, errs.NewManager(nil, nil), nil)

	summary, err := executor.Run(context.Background(), fixture.DNT, []int64{1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Failures != 1 || summary.ErrorCounts["voice not found: zh_cn"] != 1 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestApplierPreprocessesBeforeRemoteCall(t *testing.T) {
	fixture := testutil.NewFixture(t)
	if err := fixture.Store.StoreTranslationRule(fixture.Field("English"), "Chinese",
		langsvc.TranslationOption{Service: "Azure"}); err != nil {
		t.Fatal(err)
	}
	fixture.AddNote(1, "<b>老人家</b><br><img src=\"x.png\">", "", "", "")

	service := testutil.NewMockService()
	processor := textproc.NewProcessor(nil, slog.Default())
	applier := NewRuleApplier(fixture.Store, processor, service, &testutil.MockImporter{})
	executor := NewExecutor(fixture.Collection, fixture.Store, applier, errs.NewManager(nil, nil), nil)

	if _, err := executor.Run(context.Background(), fixture.DNT, []int64{1}, nil); err != nil {
		t.Fatal(err)
	}
	if len(service.Calls) != 1 || service.Calls[0] != "translate:老人家" {
		t.Errorf("service calls = %v, want the flattened text", service.Calls)
	}
}

func TestTargetsNonEmpty(t *testing.T) {
	w := newWorld(t)
	w.fixture.AddNote(1, "老人家", "", "", "")

	nonEmpty, err := w.executor.TargetsNonEmpty(w.fixture.DNT, []int64{1})
	if err != nil {
		t.Fatal(err)
	}
	if nonEmpty {
		t.Error("blank targets reported non-empty")
	}

	w.fixture.AddNote(2, "你好", "hello", "", "")
	nonEmpty, err = w.executor.TargetsNonEmpty(w.fixture.DNT, []int64{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if !nonEmpty {
		t.Error("populated target not detected")
	}
}

func TestNewExecutorDefaultsErrorManager(t *testing.T) {
	w := newWorld(t)
	w.fixture.AddNote(1, "老人家", "", "", "")
	w.service.Errors["老人家"] = &errs.RequestError{StatusCode: 400, Message: "Could not load translation: quota exceeded"}

	applier := NewRuleApplier(w.fixture.Store, textproc.NewProcessor(nil, nil), w.service, w.importer)
	executor := NewExecutor(w.fixture.Collection, w.fixture.Store, applier, nil, nil)

	summary, err := executor.Run(context.Background(), w.fixture.DNT, []int64{1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Failures != 3 {
		t.Errorf("summary = %+v, want 3 failures", summary)
	}
	if summary.ErrorCounts["Could not load translation: quota exceeded"] != 3 {
		t.Errorf("error counts = %v", summary.ErrorCounts)
	}
}

func TestTranslationChoices(t *testing.T) {
	w := newWorld(t)
	if err := w.fixture.Store.SetLanguage(w.fixture.Field("English"), "en"); err != nil {
		t.Fatal(err)
	}

	applier := NewRuleApplier(w.fixture.Store, textproc.NewProcessor(nil, nil), w.service, w.importer)
	choices, err := applier.TranslationChoices(context.Background(), w.fixture.Field("English"), "<b>老人家</b>")
	if err != nil {
		t.Fatalf("TranslationChoices() error = %v", err)
	}

	if choices["Azure"] != "translated:老人家" || choices["Google"] != "also:老人家" {
		t.Errorf("choices = %v", choices)
	}
	// HTML is flattened before the remote call, and both mapped languages
	// travel with it
	if len(w.service.Calls) != 1 || w.service.Calls[0] != "translate_all:老人家:zh_cn:en" {
		t.Errorf("service calls = %v", w.service.Calls)
	}
}

func TestTranslationChoicesWithoutRule(t *testing.T) {
	w := newWorld(t)
	applier := NewRuleApplier(w.fixture.Store, textproc.NewProcessor(nil, nil), w.service, w.importer)

	_, err := applier.TranslationChoices(context.Background(), w.fixture.Field("Chinese"), "老人家")
	var notFound *errs.ItemNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want ItemNotFoundError", err)
	}
	if len(w.service.Calls) != 0 {
		t.Errorf("service calls = %v, want none", w.service.Calls)
	}
}

func TestTranslationChoicesWithoutTargetLanguage(t *testing.T) {
	w := newWorld(t)
	applier := NewRuleApplier(w.fixture.Store, textproc.NewProcessor(nil, nil), w.service, w.importer)

	// English has a rule but no language mapping of its own
	_, err := applier.TranslationChoices(context.Background(), w.fixture.Field("English"), "老人家")
	var mapping *errs.MappingError
	if !errors.As(err, &mapping) {
		t.Fatalf("error = %v, want MappingError", err)
	}
}
