package processor

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// Word is one recognized token with its pixel-coordinate box (origin in the
// upper-left corner) and a 0-100 confidence.
type Word struct {
	Text       string
	X, Y       int
	Width      int
	Height     int
	Confidence float64
}

// OCREngine extracts positioned words from an encoded image.
type OCREngine interface {
	ExtractWords(ctx context.Context, image []byte) ([]Word, error)
}

// TesseractEngine implements OCREngine with the gosseract client. A fresh
// client is created per call; gosseract clients are not safe for reuse
// across goroutines.
type TesseractEngine struct {
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs a Tesseract-backed OCR engine.
func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{clientFactory: gosseract.NewClient}
}

// ExtractWords runs word-level recognition over the encoded image.
func (e *TesseractEngine) ExtractWords(ctx context.Context, image []byte) ([]Word, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("word recognition: %w", err)
	}

	words := make([]Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, Word{
			Text:       b.Word,
			X:          b.Box.Min.X,
			Y:          b.Box.Min.Y,
			Width:      b.Box.Dx(),
			Height:     b.Box.Dy(),
			Confidence: b.Confidence,
		})
	}
	return words, nil
}
