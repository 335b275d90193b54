package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/arbovm/levenshtein"
	"github.com/go-resty/resty/v2"
)

// Translator detects the language of extracted text and translates it to
// the configured target language.
type Translator interface {
	// Detect returns the dominant language code of the sample text.
	Detect(ctx context.Context, text string) (string, error)
	// Translate converts text from sourceLang to the target language.
	Translate(ctx context.Context, text string, sourceLang string) (string, error)
	// TargetLanguage reports the language results are translated into.
	TargetLanguage() string
}

// HTTPTranslator talks to a LibreTranslate-compatible backend.
type HTTPTranslator struct {
	client *resty.Client
	target string
}

// NewHTTPTranslator creates a translator against the given base URL.
func NewHTTPTranslator(baseURL string, targetLang string) *HTTPTranslator {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json")

	return &HTTPTranslator{client: client, target: targetLang}
}

type detectResponse struct {
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

// Detect asks the backend for the language of the sample text.
func (t *HTTPTranslator) Detect(ctx context.Context, text string) (string, error) {
	var detections []detectResponse

	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"q": text}).
		SetResult(&detections).
		Post("/detect")
	if err != nil {
		return "", fmt.Errorf("language detection request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("language detection failed: status %d", resp.StatusCode())
	}
	if len(detections) == 0 {
		return "", fmt.Errorf("language detection returned no candidates")
	}
	return detections[0].Language, nil
}

// Translate converts text to the target language.
func (t *HTTPTranslator) Translate(ctx context.Context, text string, sourceLang string) (string, error) {
	var result translateResponse

	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"q":      text,
			"source": sourceLang,
			"target": t.target,
			"format": "text",
		}).
		SetResult(&result).
		Post("/translate")
	if err != nil {
		return "", fmt.Errorf("translation request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("translation failed: status %d", resp.StatusCode())
	}
	return result.TranslatedText, nil
}

// TargetLanguage reports the configured target language.
func (t *HTTPTranslator) TargetLanguage() string {
	return t.target
}

// noopTranslator passes text through unchanged. Used when no translation
// backend is configured; processed images then keep their original text.
type noopTranslator struct{}

// NewNoopTranslator creates a pass-through translator.
func NewNoopTranslator() Translator {
	return noopTranslator{}
}

func (noopTranslator) Detect(ctx context.Context, text string) (string, error) {
	return "en", nil
}

func (noopTranslator) Translate(ctx context.Context, text string, sourceLang string) (string, error) {
	return text, nil
}

func (noopTranslator) TargetLanguage() string {
	return "en"
}

// effectivelyUnchanged reports whether a translation is close enough to the
// original that repainting the word would only degrade the image. Short
// tokens must match exactly; longer ones tolerate a small edit distance,
// which absorbs case and punctuation normalization done by backends.
func effectivelyUnchanged(original, translated string) bool {
	if original == translated {
		return true
	}
	if len(original) < 6 || len(translated) < 6 {
		return false
	}
	distance := levenshtein.Distance(original, translated)
	return distance*10 <= len(original)
}
