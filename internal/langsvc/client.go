package langsvc

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sony/gobreaker"

	"codeberg.org/snonux/lingotools/internal/errs"
)

const (
	// DefaultBaseURL is the production language tools endpoint.
	DefaultBaseURL = "https://cloud-language-tools-prod.anki.study"

	// EnvBaseURL overrides the service endpoint, mainly for development.
	EnvBaseURL = "ANKI_LANGUAGE_TOOLS_BASE_URL"

	requestTimeout = 60 * time.Second
)

// Client calls the language tools service. Remote calls run through a
// circuit breaker so a flapping service trips open instead of queueing up
// timeouts behind every keystroke.
type Client struct {
	baseURL    string
	apiKey     string
	mediaDir   string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewClient creates a service client. An empty baseURL falls back to the
// EnvBaseURL environment variable, then to DefaultBaseURL. mediaDir is
// where synthesized audio files are written; empty means the system temp
// directory.
func NewClient(baseURL, apiKey, mediaDir string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = os.Getenv(EnvBaseURL)
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if mediaDir == "" {
		mediaDir = os.TempDir()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		mediaDir: mediaDir,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "language-tools",
		}),
		logger: logger,
	}
}

// BaseURL returns the endpoint this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Translate translates text using the service and languages picked by the
// option. Callers must guard against empty input; the client always makes
// the network call.
func (c *Client) Translate(ctx context.Context, text string, option TranslationOption) (string, error) {
	payload := map[string]any{
		"text":              text,
		"service":           option.Service,
		"from_language_key": option.SourceLanguageID,
		"to_language_key":   option.TargetLanguageID,
	}
	body, err := c.post(ctx, "/translate", payload, "Could not load translation")
	if err != nil {
		return "", err
	}
	var result struct {
		TranslatedText string `json:"translated_text"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode translation response: %w", err)
	}
	return result.TranslatedText, nil
}

// TranslateAll translates text with every service supporting the language
// pair, returning service name to translated text.
func (c *Client) TranslateAll(ctx context.Context, text, fromLanguage, toLanguage string) (map[string]string, error) {
	payload := map[string]any{
		"text":          text,
		"from_language": fromLanguage,
		"to_language":   toLanguage,
	}
	body, err := c.post(ctx, "/translate_all", payload, "Could not load translations")
	if err != nil {
		return nil, err
	}
	var result map[string]string
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode translate_all response: %w", err)
	}
	return result, nil
}

// Transliterate renders text using the scheme picked by the option.
func (c *Client) Transliterate(ctx context.Context, text string, option TransliterationOption) (string, error) {
	payload := map[string]any{
		"text":                text,
		"service":             option.Service,
		"transliteration_key": option.TransliterationKey,
	}
	body, err := c.post(ctx, "/transliterate", payload, "Could not load transliteration")
	if err != nil {
		return "", err
	}
	var result struct {
		TransliteratedText string `json:"transliterated_text"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode transliteration response: %w", err)
	}
	return result.TransliteratedText, nil
}

// Detect runs language detection over a sample of field values and returns
// the detected language code.
func (c *Client) Detect(ctx context.Context, textList []string) (string, error) {
	payload := map[string]any{
		"text_list": textList,
	}
	body, err := c.post(ctx, "/detect", payload, "Could not detect language")
	if err != nil {
		return "", err
	}
	var result struct {
		DetectedLanguage string `json:"detected_language"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode detection response: %w", err)
	}
	return result.DetectedLanguage, nil
}

// Audio synthesizes speech for text with the given voice and writes the
// result into the media directory. The filename is content-addressed: a
// hash over the endpoint and the full request payload, so identical
// requests map to the same file and different requests never collide.
func (c *Client) Audio(ctx context.Context, text string, voice Voice, options map[string]any) (string, error) {
	payload := map[string]any{
		"text":          text,
		"service":       voice.Service,
		"language_code": voice.LanguageCode,
		"voice_key":     voice.VoiceKey,
		"options":       options,
	}
	body, err := c.post(ctx, "/audio", payload, "Could not generate audio")
	if err != nil {
		return "", err
	}

	filename := AudioFileName("/audio", payload)
	outputPath := filepath.Join(c.mediaDir, filename)
	if err := os.WriteFile(outputPath, body, 0644); err != nil {
		return "", fmt.Errorf("failed to write audio file: %w", err)
	}
	return outputPath, nil
}

// AudioFileName derives the deterministic audio filename for an endpoint
// and request payload. json.Marshal sorts map keys, so the same request
// always hashes the same.
func AudioFileName(endpoint string, payload map[string]any) string {
	encoded, _ := json.Marshal(payload)
	h := md5.New()
	h.Write([]byte(endpoint))
	h.Write(encoded)
	return "languagetools-" + hex.EncodeToString(h.Sum(nil)) + ".mp3"
}

// LanguageList returns the catalog of all known languages, code to name.
func (c *Client) LanguageList(ctx context.Context) (map[string]string, error) {
	body, err := c.get(ctx, "/language_list")
	if err != nil {
		return nil, err
	}
	var result map[string]string
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode language list: %w", err)
	}
	return result, nil
}

// TranslationLanguageList returns every (service, language) combination
// available for translation.
func (c *Client) TranslationLanguageList(ctx context.Context) ([]TranslationLanguage, error) {
	body, err := c.get(ctx, "/translation_language_list")
	if err != nil {
		return nil, err
	}
	var result []TranslationLanguage
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode translation language list: %w", err)
	}
	return result, nil
}

// TransliterationLanguageList returns every transliteration scheme the
// service offers.
func (c *Client) TransliterationLanguageList(ctx context.Context) ([]TransliterationOption, error) {
	body, err := c.get(ctx, "/transliteration_language_list")
	if err != nil {
		return nil, err
	}
	var result []TransliterationOption
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode transliteration language list: %w", err)
	}
	return result, nil
}

// VoiceList returns the text-to-speech voice catalog.
func (c *Client) VoiceList(ctx context.Context) ([]Voice, error) {
	body, err := c.get(ctx, "/voice_list")
	if err != nil {
		return nil, err
	}
	var result []Voice
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode voice list: %w", err)
	}
	return result, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil, "Request failed")
}

func (c *Client) post(ctx context.Context, path string, payload any, errorPrefix string) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, encoded, errorPrefix)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, errorPrefix string) ([]byte, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.apiKey != "" {
			req.Header.Set("api_key", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, &errs.RequestError{Message: fmt.Sprintf("%s: %v", errorPrefix, err)}
		}
		defer resp.Body.Close()

		responseBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return responseBody, nil
		}
		return nil, c.requestError(resp.StatusCode, responseBody, errorPrefix)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, &errs.RequestError{
				Message: fmt.Sprintf("%s: service temporarily unavailable", errorPrefix),
			}
		}
		return nil, err
	}
	return result.([]byte), nil
}

// requestError turns a non-2xx response into a typed request error. 400
// and 401 carry the server-provided message, anything else the status code
// and raw body.
func (c *Client) requestError(statusCode int, body []byte, errorPrefix string) error {
	if statusCode == http.StatusBadRequest || statusCode == http.StatusUnauthorized {
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
			return &errs.RequestError{
				StatusCode: statusCode,
				Message:    fmt.Sprintf("%s: %s", errorPrefix, payload.Error),
			}
		}
	}
	return &errs.RequestError{
		StatusCode: statusCode,
		Message:    fmt.Sprintf("%s: status %d: %s", errorPrefix, statusCode, string(body)),
	}
}
