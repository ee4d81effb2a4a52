package rules

import (
	"fmt"
	"sort"

	"codeberg.org/snonux/lingotools/internal/deckmodel"
	"codeberg.org/snonux/lingotools/internal/langsvc"
	"codeberg.org/snonux/lingotools/internal/textproc"
)

// Rule is the unified view of one stored transformation rule, regardless
// of kind. Option fields are only meaningful for their matching kind.
type Rule struct {
	Kind            textproc.Transformation
	ToField         string
	FromField       string
	Translation     langsvc.TranslationOption
	Transliteration langsvc.TransliterationOption
}

// Store is the rule store accessor. It holds the loaded configuration and
// writes the whole configuration back through the injected ConfigStore on
// every mutation. Single writer assumed; mutate only from the foreground
// context.
type Store struct {
	backend ConfigStore
	config  *Config
}

// NewStore loads the configuration from the backend.
func NewStore(backend ConfigStore) (*Store, error) {
	config, err := backend.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if config == nil {
		config = &Config{}
	}
	config.normalize()
	return &Store{backend: backend, config: config}, nil
}

// Config exposes the loaded configuration for read-only uses like building
// the preprocessing pipeline.
func (s *Store) Config() *Config {
	return s.config
}

func (s *Store) save() error {
	if err := s.backend.Save(s.config); err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}
	return nil
}

// Language returns the language assigned to a field, if any.
func (s *Store) Language(dntf deckmodel.DeckNoteTypeField) (string, bool) {
	decks, ok := s.config.DeckLanguages[dntf.ModelName()]
	if !ok {
		return "", false
	}
	fields, ok := decks[dntf.DeckName()]
	if !ok {
		return "", false
	}
	language, ok := fields[dntf.FieldName]
	return language, ok
}

// SetLanguage assigns a language to a field. Non-special languages are
// added to the wanted set, since assigning one expresses interest in it.
func (s *Store) SetLanguage(dntf deckmodel.DeckNoteTypeField, language string) error {
	ensurePath(s.config.DeckLanguages, dntf.ModelName(), dntf.DeckName())[dntf.FieldName] = language
	if !IsSpecialLanguage(language) {
		s.config.WantedLanguages[language] = true
	}
	return s.save()
}

// LanguageAvailableForTranslation reports whether a field language can act
// as a translation source or target. Unassigned fields and rule-output
// markers cannot.
func (s *Store) LanguageAvailableForTranslation(language string) bool {
	return language != "" && !IsSpecialLanguage(language)
}

// WantedLanguages returns the languages the user cares about, sorted.
func (s *Store) WantedLanguages() []string {
	languages := make([]string, 0, len(s.config.WantedLanguages))
	for language, wanted := range s.config.WantedLanguages {
		if wanted {
			languages = append(languages, language)
		}
	}
	sort.Strings(languages)
	return languages
}

// StoreTranslationRule memorizes a batch translation setting: target field
// dntf is generated from fromField with the given option. Re-storing
// overwrites the previous setting.
func (s *Store) StoreTranslationRule(dntf deckmodel.DeckNoteTypeField, fromField string, option langsvc.TranslationOption) error {
	ensurePath(s.config.BatchTranslations, dntf.ModelName(), dntf.DeckName())[dntf.FieldName] = TranslationRule{
		FromField: fromField,
		Option:    option,
	}
	return s.save()
}

// StoreTransliterationRule memorizes a batch transliteration setting. The
// target field's language is forced to the transliteration marker, since a
// rule output is not independently-translatable text.
func (s *Store) StoreTransliterationRule(dntf deckmodel.DeckNoteTypeField, fromField string, option langsvc.TransliterationOption) error {
	ensurePath(s.config.BatchTransliterations, dntf.ModelName(), dntf.DeckName())[dntf.FieldName] = TransliterationRule{
		FromField: fromField,
		Option:    option,
	}
	ensurePath(s.config.DeckLanguages, dntf.ModelName(), dntf.DeckName())[dntf.FieldName] = SpecialTransliteration
	return s.save()
}

// StoreAudioRule memorizes a batch audio setting. The target field's
// language is forced to the sound marker.
func (s *Store) StoreAudioRule(dntf deckmodel.DeckNoteTypeField, fromField string) error {
	ensurePath(s.config.BatchAudio, dntf.ModelName(), dntf.DeckName())[dntf.FieldName] = fromField
	ensurePath(s.config.DeckLanguages, dntf.ModelName(), dntf.DeckName())[dntf.FieldName] = SpecialSound
	return s.save()
}

// RemoveRule deletes the stored rule of the given kind targeting dntf.
// Removing a rule that does not exist is a no-op; the store stays
// well-formed either way.
func (s *Store) RemoveRule(kind textproc.Transformation, dntf deckmodel.DeckNoteTypeField) error {
	model, deck, field := dntf.ModelName(), dntf.DeckName(), dntf.FieldName
	switch kind {
	case textproc.Translation:
		deletePath(s.config.BatchTranslations, model, deck, field)
	case textproc.Transliteration:
		deletePath(s.config.BatchTransliterations, model, deck, field)
	case textproc.Audio:
		deletePath(s.config.BatchAudio, model, deck, field)
	}
	return s.save()
}

// Rules returns the stored rules of one kind for a deck/notetype, ordered
// by target field name so batch runs are reproducible.
func (s *Store) Rules(kind textproc.Transformation, dnt deckmodel.DeckNoteType) []Rule {
	var result []Rule
	model, deck := dnt.ModelName, dnt.DeckName
	switch kind {
	case textproc.Translation:
		for toField, rule := range lookupPath(s.config.BatchTranslations, model, deck) {
			result = append(result, Rule{
				Kind:        textproc.Translation,
				ToField:     toField,
				FromField:   rule.FromField,
				Translation: rule.Option,
			})
		}
	case textproc.Transliteration:
		for toField, rule := range lookupPath(s.config.BatchTransliterations, model, deck) {
			result = append(result, Rule{
				Kind:            textproc.Transliteration,
				ToField:         toField,
				FromField:       rule.FromField,
				Transliteration: rule.Option,
			})
		}
	case textproc.Audio:
		for toField, fromField := range lookupPath(s.config.BatchAudio, model, deck) {
			result = append(result, Rule{
				Kind:      textproc.Audio,
				ToField:   toField,
				FromField: fromField,
			})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ToField < result[j].ToField })
	return result
}

// AllRules returns every stored rule for a deck/notetype in the fixed
// execution order: translations, then transliterations, then audio.
func (s *Store) AllRules(dnt deckmodel.DeckNoteType) []Rule {
	var result []Rule
	for _, kind := range textproc.AllTransformations {
		result = append(result, s.Rules(kind, dnt)...)
	}
	return result
}

// RulesFromSource returns every stored rule whose source is fromField,
// in execution order. This is the lookup behind as-you-type updates.
func (s *Store) RulesFromSource(dnt deckmodel.DeckNoteType, fromField string) []Rule {
	var result []Rule
	for _, rule := range s.AllRules(dnt) {
		if rule.FromField == fromField {
			result = append(result, rule)
		}
	}
	return result
}

// RuleForTarget returns the stored rule of one kind targeting dntf.
func (s *Store) RuleForTarget(kind textproc.Transformation, dntf deckmodel.DeckNoteTypeField) (Rule, bool) {
	for _, rule := range s.Rules(kind, dntf.DeckNoteType) {
		if rule.ToField == dntf.FieldName {
			return rule, true
		}
	}
	return Rule{}, false
}

// Voice returns the configured voice for a language, if any.
func (s *Store) Voice(language string) (langsvc.Voice, bool) {
	voice, ok := s.config.VoiceSelection[language]
	return voice, ok
}

// SetVoice configures the voice used to synthesize audio for a language.
func (s *Store) SetVoice(language string, voice langsvc.Voice) error {
	s.config.VoiceSelection[language] = voice
	return s.save()
}

// ReplacementRules returns the ordered text replacement rules.
func (s *Store) ReplacementRules() []textproc.ReplacementRule {
	return s.config.ReplacementRules()
}

// AddReplacement appends a text replacement rule.
func (s *Store) AddReplacement(replacement ReplacementConfig) error {
	s.config.TextProcessing.Replacements = append(s.config.TextProcessing.Replacements, replacement)
	return s.save()
}

// RemoveReplacement deletes the replacement rule at index.
func (s *Store) RemoveReplacement(index int) error {
	replacements := s.config.TextProcessing.Replacements
	if index < 0 || index >= len(replacements) {
		return fmt.Errorf("no replacement rule at index %d", index)
	}
	s.config.TextProcessing.Replacements = append(replacements[:index], replacements[index+1:]...)
	return s.save()
}

// LiveUpdateDelay returns the as-you-type debounce delay in milliseconds.
func (s *Store) LiveUpdateDelay() int {
	return s.config.LiveUpdateDelayMS
}

func ensurePath[T any](m map[string]map[string]map[string]T, model, deck string) map[string]T {
	if m[model] == nil {
		m[model] = map[string]map[string]T{}
	}
	if m[model][deck] == nil {
		m[model][deck] = map[string]T{}
	}
	return m[model][deck]
}

func lookupPath[T any](m map[string]map[string]map[string]T, model, deck string) map[string]T {
	return m[model][deck]
}

func deletePath[T any](m map[string]map[string]map[string]T, model, deck, field string) {
	if m[model] == nil || m[model][deck] == nil {
		return
	}
	delete(m[model][deck], field)
}
