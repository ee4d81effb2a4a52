package langsvc

import "context"

// Catalog holds the server-provided language, translation, transliteration
// and voice listings, and derives the option sets presented to the user.
type Catalog struct {
	languages              map[string]string
	translationLanguages   []TranslationLanguage
	transliterationOptions []TransliterationOption
	voices                 []Voice
}

// NewCatalog builds a catalog from already-fetched listings. Tests use this
// directly; production code goes through Client.FetchCatalog.
func NewCatalog(languages map[string]string, translations []TranslationLanguage, transliterations []TransliterationOption, voices []Voice) *Catalog {
	return &Catalog{
		languages:              languages,
		translationLanguages:   translations,
		transliterationOptions: transliterations,
		voices:                 voices,
	}
}

// FetchCatalog retrieves all four catalog listings from the service.
func (c *Client) FetchCatalog(ctx context.Context) (*Catalog, error) {
	languages, err := c.LanguageList(ctx)
	if err != nil {
		return nil, err
	}
	translations, err := c.TranslationLanguageList(ctx)
	if err != nil {
		return nil, err
	}
	transliterations, err := c.TransliterationLanguageList(ctx)
	if err != nil {
		return nil, err
	}
	voices, err := c.VoiceList(ctx)
	if err != nil {
		return nil, err
	}
	return NewCatalog(languages, translations, transliterations, voices), nil
}

// LanguageName returns the display name for a language code, or the code
// itself when the catalog does not know it.
func (cat *Catalog) LanguageName(code string) string {
	if name, ok := cat.languages[code]; ok {
		return name
	}
	return code
}

// Languages returns the full code-to-name mapping.
func (cat *Catalog) Languages() map[string]string {
	return cat.languages
}

// HasLanguage reports whether code is part of the server language catalog.
func (cat *Catalog) HasLanguage(code string) bool {
	_, ok := cat.languages[code]
	return ok
}

// TranslationOptions lists one option per service able to translate from
// source to target: the service must offer both languages.
func (cat *Catalog) TranslationOptions(sourceLanguage, targetLanguage string) []TranslationOption {
	var options []TranslationOption
	for _, source := range cat.translationLanguages {
		if source.LanguageCode != sourceLanguage {
			continue
		}
		for _, target := range cat.translationLanguages {
			if target.LanguageCode == targetLanguage && target.Service == source.Service {
				options = append(options, TranslationOption{
					Service:          source.Service,
					SourceLanguageID: source.LanguageID,
					TargetLanguageID: target.LanguageID,
				})
				break
			}
		}
	}
	return options
}

// TransliterationOptions lists the schemes available for a source language.
func (cat *Catalog) TransliterationOptions(languageCode string) []TransliterationOption {
	var options []TransliterationOption
	for _, option := range cat.transliterationOptions {
		if option.LanguageCode == languageCode {
			options = append(options, option)
		}
	}
	return options
}

// VoicesForLanguage lists the text-to-speech voices for a language.
func (cat *Catalog) VoicesForLanguage(languageCode string) []Voice {
	var voices []Voice
	for _, voice := range cat.voices {
		if voice.LanguageCode == languageCode {
			voices = append(voices, voice)
		}
	}
	return voices
}

// Voices returns the full voice catalog.
func (cat *Catalog) Voices() []Voice {
	return cat.voices
}
