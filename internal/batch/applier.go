package batch

import (
	"context"
	"fmt"

	"codeberg.org/snonux/lingotools/internal/deckmodel"
	"codeberg.org/snonux/lingotools/internal/errs"
	"codeberg.org/snonux/lingotools/internal/langsvc"
	"codeberg.org/snonux/lingotools/internal/rules"
	"codeberg.org/snonux/lingotools/internal/textproc"
)

// Service is the remote transformation surface rule application needs.
// langsvc.Client satisfies it; tests substitute a canned implementation.
type Service interface {
	Translate(ctx context.Context, text string, option langsvc.TranslationOption) (string, error)
	TranslateAll(ctx context.Context, text, fromLanguage, toLanguage string) (map[string]string, error)
	Transliterate(ctx context.Context, text string, option langsvc.TransliterationOption) (string, error)
	Audio(ctx context.Context, text string, voice langsvc.Voice, options map[string]any) (string, error)
}

// MediaImporter moves a synthesized audio file into the host media folder
// and returns the bare filename to reference from note fields.
type MediaImporter interface {
	Import(path string) (string, error)
}

// RuleApplier applies one stored rule to one source value. Both the batch
// executor and the as-you-type path run every transformation through it so
// preprocessing, voice lookup and sound-tag wrapping behave identically.
type RuleApplier struct {
	store     *rules.Store
	processor *textproc.Processor
	service   Service
	importer  MediaImporter
}

// NewRuleApplier creates a rule applier.
func NewRuleApplier(store *rules.Store, processor *textproc.Processor, service Service, importer MediaImporter) *RuleApplier {
	return &RuleApplier{
		store:     store,
		processor: processor,
		service:   service,
		importer:  importer,
	}
}

// Apply preprocesses source for the rule's kind and runs the remote
// transformation. An input that preprocesses to nothing returns
// FieldEmptyError before any network call, so callers can treat it as a
// defined skip.
func (a *RuleApplier) Apply(ctx context.Context, dnt deckmodel.DeckNoteType, rule rules.Rule, source string) (string, error) {
	processed := a.processor.Process(source, rule.Kind)
	if processed == "" {
		return "", &errs.FieldEmptyError{}
	}
	switch rule.Kind {
	case textproc.Translation:
		return a.service.Translate(ctx, processed, rule.Translation)
	case textproc.Transliteration:
		return a.service.Transliterate(ctx, processed, rule.Transliteration)
	case textproc.Audio:
		return a.audio(ctx, dnt, rule, processed)
	default:
		return "", fmt.Errorf("unknown transformation kind %v", rule.Kind)
	}
}

// TranslationChoices translates the processed source with every service
// covering the stored rule's language pair, keyed by service name. A
// choose-translation dialog presents the alternatives so the user can
// pick one instead of taking the rule's configured service.
func (a *RuleApplier) TranslationChoices(ctx context.Context, target deckmodel.DeckNoteTypeField, source string) (map[string]string, error) {
	rule, ok := a.store.RuleForTarget(textproc.Translation, target)
	if !ok {
		return nil, &errs.ItemNotFoundError{Kind: "translation rule", Name: target.String()}
	}
	from := deckmodel.DeckNoteTypeField{DeckNoteType: target.DeckNoteType, FieldName: rule.FromField}
	fromLanguage, ok := a.store.Language(from)
	if !ok || !a.store.LanguageAvailableForTranslation(fromLanguage) {
		return nil, &errs.MappingError{Field: from.String()}
	}
	toLanguage, ok := a.store.Language(target)
	if !ok || !a.store.LanguageAvailableForTranslation(toLanguage) {
		return nil, &errs.MappingError{Field: target.String()}
	}

	processed := a.processor.Process(source, textproc.Translation)
	if processed == "" {
		return nil, &errs.FieldEmptyError{}
	}
	return a.service.TranslateAll(ctx, processed, fromLanguage, toLanguage)
}

// audio resolves the source field's language to a configured voice,
// synthesizes the file and returns the sound tag referencing the imported
// media name.
func (a *RuleApplier) audio(ctx context.Context, dnt deckmodel.DeckNoteType, rule rules.Rule, text string) (string, error) {
	dntf := deckmodel.DeckNoteTypeField{DeckNoteType: dnt, FieldName: rule.FromField}
	language, ok := a.store.Language(dntf)
	if !ok || !a.store.LanguageAvailableForTranslation(language) {
		return "", &errs.MappingError{Field: dntf.String()}
	}
	voice, ok := a.store.Voice(language)
	if !ok {
		return "", &errs.ItemNotFoundError{Kind: "voice", Name: language}
	}

	path, err := a.service.Audio(ctx, text, voice, nil)
	if err != nil {
		return "", err
	}
	filename, err := a.importer.Import(path)
	if err != nil {
		return "", fmt.Errorf("failed to import audio file: %w", err)
	}
	return "[sound:" + filename + "]", nil
}
