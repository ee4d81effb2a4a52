package langsvc

// TranslationOption selects a translation service and the service-specific
// language identifiers for a (from, to) language pair.
type TranslationOption struct {
	Service          string `json:"service"`
	SourceLanguageID string `json:"source_language_id"`
	TargetLanguageID string `json:"target_language_id"`
}

// TransliterationOption selects a transliteration scheme offered by a
// service for a source language. The key is opaque service data echoed back
// on the transliterate call.
type TransliterationOption struct {
	Service             string         `json:"service"`
	TransliterationKey  map[string]any `json:"transliteration_key"`
	TransliterationName string         `json:"transliteration_name"`
	LanguageCode        string         `json:"language_code"`
	LanguageName        string         `json:"language_name"`
}

// Voice describes one text-to-speech voice from the service's voice
// catalog. VoiceKey is opaque service data echoed back on the audio call.
type Voice struct {
	Service          string         `json:"service"`
	Gender           string         `json:"gender"`
	LanguageCode     string         `json:"language_code"`
	VoiceKey         map[string]any `json:"voice_key"`
	VoiceDescription string         `json:"voice_description"`
}

// TranslationLanguage is one (service, language) entry of the translation
// catalog.
type TranslationLanguage struct {
	Service      string `json:"service"`
	LanguageCode string `json:"language_code"`
	LanguageID   string `json:"language_id"`
	LanguageName string `json:"language_name"`
}
