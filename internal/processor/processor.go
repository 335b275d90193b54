// Package processor implements the processing service's core: OCR over a
// page image, language detection, translation of the recognized words, and
// repainting the translated words over the originals.
package processor

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	"github.com/sirupsen/logrus"

	apperrors "go-page-translator/internal/errors"
	"go-page-translator/internal/logger"
	"go-page-translator/pkg/datauri"
	"go-page-translator/pkg/models"
)

// sampleWords is how many recognized words feed the one-shot language
// detection for an image.
const sampleWords = 10

// batchWorkers bounds how many images of one batch are processed at once.
const batchWorkers = 4

// Processor translates the text embedded in images.
type Processor struct {
	engine          OCREngine
	translator      Translator
	confidenceFloor float64
}

// New creates a processor. confidenceFloor (0-100) filters out words the
// OCR engine is unsure about before they reach translation.
func New(engine OCREngine, translator Translator, confidenceFloor float64) *Processor {
	return &Processor{
		engine:          engine,
		translator:      translator,
		confidenceFloor: confidenceFloor,
	}
}

// Process translates the text inside one image. It returns the repainted
// image as a PNG data URI, or nil when the image needs no replacement
// (no confident text, text already in the target language, or translations
// that match the original).
func (p *Processor) Process(ctx context.Context, payload string) (*string, error) {
	raw, _, err := datauri.Decode(payload)
	if err != nil {
		return nil, apperrors.NewEncodingError("undecodable image payload", err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, apperrors.NewEncodingError("unsupported image format", err)
	}

	words, err := p.engine.ExtractWords(ctx, raw)
	if err != nil {
		return nil, apperrors.NewProcessingError("OCR failed", err)
	}

	confident := make([]Word, 0, len(words))
	for _, w := range words {
		if w.Confidence > p.confidenceFloor && strings.TrimSpace(w.Text) != "" {
			w.Text = strings.TrimSpace(w.Text)
			confident = append(confident, w)
		}
	}
	if len(confident) == 0 {
		return nil, nil
	}

	// Detect the language once per image from a leading sample.
	sample := make([]string, 0, sampleWords)
	for _, w := range confident {
		sample = append(sample, w.Text)
		if len(sample) == sampleWords {
			break
		}
	}
	lang, err := p.translator.Detect(ctx, strings.Join(sample, " "))
	if err != nil {
		logger.WithError(err).Debug("Language detection failed, leaving image unchanged")
		return nil, nil
	}
	if lang == p.translator.TargetLanguage() {
		return nil, nil
	}

	overlays := make([]overlay, 0, len(confident))
	for _, w := range confident {
		translated, err := p.translator.Translate(ctx, w.Text, lang)
		if err != nil {
			// Fall back to the original word rather than failing the image.
			logger.WithError(err).WithField("word", w.Text).Debug("Translation failed for word")
			continue
		}
		if effectivelyUnchanged(w.Text, translated) {
			continue
		}
		overlays = append(overlays, overlay{
			Box:  image.Rect(w.X, w.Y, w.X+w.Width, w.Y+w.Height),
			Text: translated,
		})
	}
	if len(overlays) == 0 {
		return nil, nil
	}

	rendered := renderOverlays(img, overlays)

	var buf bytes.Buffer
	if err := png.Encode(&buf, rendered); err != nil {
		return nil, apperrors.NewEncodingError("failed to encode result image", err)
	}
	uri := datauri.Encode(buf.Bytes(), "image/png")
	return &uri, nil
}

// ProcessBatch runs Process over each descriptor on a bounded worker pool.
// Results come back in input order. Images that fail are logged and omitted
// from the response; images that need no replacement are reported with a
// nil payload so the caller treats them as no-ops.
func (p *Processor) ProcessBatch(ctx context.Context, images []models.ImageDescriptor) []models.ProcessedResult {
	slots := make([]*models.ProcessedResult, len(images))

	pool := newWorkerPool(batchWorkers)
	defer pool.Close()

	for i, img := range images {
		if img.ID == "" || img.Data == "" {
			continue
		}

		i, img := i, img
		pool.Submit(func() {
			if ctx.Err() != nil {
				return
			}
			translated, err := p.Process(ctx, img.Data)
			if err != nil {
				logger.WithError(err).WithFields(logrus.Fields{
					"image_id": img.ID,
				}).Warn("Failed to process image, omitting from response")
				return
			}
			slots[i] = &models.ProcessedResult{
				ID:             img.ID,
				TranslatedData: translated,
			}
		})
	}
	pool.Wait()

	if err := ctx.Err(); err != nil {
		logger.WithError(err).Warn("Batch processing cancelled")
	}

	results := make([]models.ProcessedResult, 0, len(images))
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}
	return results
}
