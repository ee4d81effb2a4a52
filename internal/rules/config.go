package rules

import (
	"codeberg.org/snonux/lingotools/internal/langsvc"
	"codeberg.org/snonux/lingotools/internal/textproc"
)

// Special language markers stored at the field level. A field marked with
// one of these is the output of a rule, not translatable text.
const (
	SpecialTransliteration = "transliteration"
	SpecialSound           = "sound"
)

// IsSpecialLanguage reports whether code is one of the rule-output markers.
func IsSpecialLanguage(code string) bool {
	return code == SpecialTransliteration || code == SpecialSound
}

// TranslationRule is a stored batch translation setting for one target
// field.
type TranslationRule struct {
	FromField string                    `json:"from_field"`
	Option    langsvc.TranslationOption `json:"translation_option"`
}

// TransliterationRule is a stored batch transliteration setting for one
// target field.
type TransliterationRule struct {
	FromField string                        `json:"from_field"`
	Option    langsvc.TransliterationOption `json:"transliteration_option"`
}

// ReplacementConfig is the persisted form of one text replacement rule.
type ReplacementConfig struct {
	Pattern         string `json:"pattern"`
	Replace         string `json:"replace"`
	MatchType       string `json:"match_type"` // "simple" or "regex"
	Translation     bool   `json:"Translation"`
	Transliteration bool   `json:"Transliteration"`
	Audio           bool   `json:"Audio"`
}

// TextProcessing groups the preprocessing settings.
type TextProcessing struct {
	Replacements []ReplacementConfig `json:"replacements"`
}

// Config is the full persisted shape. All rule maps are keyed by note type
// name, then deck name, then field name; keys are compared by plain string
// equality. This exact nesting is the interoperability contract with
// existing stored configurations.
type Config struct {
	DeckLanguages         map[string]map[string]map[string]string              `json:"deck_languages"`
	WantedLanguages       map[string]bool                                      `json:"wanted_languages"`
	BatchTranslations     map[string]map[string]map[string]TranslationRule     `json:"batch_translations"`
	BatchTransliterations map[string]map[string]map[string]TransliterationRule `json:"batch_transliterations"`
	BatchAudio            map[string]map[string]map[string]string              `json:"batch_audio"`
	VoiceSelection        map[string]langsvc.Voice                             `json:"voice_selection"`
	TextProcessing        TextProcessing                                       `json:"text_processing"`
	LiveUpdateDelayMS     int                                                  `json:"live_update_delay"`
	ApplyUpdates          bool                                                 `json:"apply_updates_automatically"`
}

// normalize replaces nil maps so lookups and insertions never have to
// nil-check.
func (c *Config) normalize() {
	if c.DeckLanguages == nil {
		c.DeckLanguages = map[string]map[string]map[string]string{}
	}
	if c.WantedLanguages == nil {
		c.WantedLanguages = map[string]bool{}
	}
	if c.BatchTranslations == nil {
		c.BatchTranslations = map[string]map[string]map[string]TranslationRule{}
	}
	if c.BatchTransliterations == nil {
		c.BatchTransliterations = map[string]map[string]map[string]TransliterationRule{}
	}
	if c.BatchAudio == nil {
		c.BatchAudio = map[string]map[string]map[string]string{}
	}
	if c.VoiceSelection == nil {
		c.VoiceSelection = map[string]langsvc.Voice{}
	}
}

// ReplacementRules converts the persisted replacement settings into the
// form the preprocessing pipeline consumes, preserving order.
func (c *Config) ReplacementRules() []textproc.ReplacementRule {
	rules := make([]textproc.ReplacementRule, 0, len(c.TextProcessing.Replacements))
	for _, replacement := range c.TextProcessing.Replacements {
		rule := textproc.ReplacementRule{
			Pattern:     replacement.Pattern,
			Replacement: replacement.Replace,
		}
		if replacement.MatchType == "regex" {
			rule.MatchType = textproc.MatchRegex
		}
		if replacement.Translation {
			rule.AppliesTo = append(rule.AppliesTo, textproc.Translation)
		}
		if replacement.Transliteration {
			rule.AppliesTo = append(rule.AppliesTo, textproc.Transliteration)
		}
		if replacement.Audio {
			rule.AppliesTo = append(rule.AppliesTo, textproc.Audio)
		}
		rules = append(rules, rule)
	}
	return rules
}

// ConfigStore is the injected configuration accessor. Every mutating store
// operation ends with a full Save; there is no partial update.
type ConfigStore interface {
	Load() (*Config, error)
	Save(config *Config) error
}

// MemoryStore is a ConfigStore holding the configuration in memory. Tests
// and one-shot CLI runs use it.
type MemoryStore struct {
	config *Config
	saves  int
}

// NewMemoryStore creates an in-memory store seeded with config; nil means
// an empty configuration.
func NewMemoryStore(config *Config) *MemoryStore {
	if config == nil {
		config = &Config{}
	}
	config.normalize()
	return &MemoryStore{config: config}
}

func (m *MemoryStore) Load() (*Config, error) {
	return m.config, nil
}

func (m *MemoryStore) Save(config *Config) error {
	m.config = config
	m.saves++
	return nil
}

// Saves returns the number of Save calls, for asserting write-back
// behavior in tests.
func (m *MemoryStore) Saves() int {
	return m.saves
}
