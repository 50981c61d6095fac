// Package tesseract adapts the tesseract OCR engine to vision.TextRecognizer.
// It links against libtesseract through cgo.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"ai-shopping-assistant-be/pkg/vision"

	"github.com/otiai10/gosseract/v2"
)

type Recognizer struct {
	Language string
}

func NewRecognizer() *Recognizer {
	return &Recognizer{Language: "eng"}
}

// Recognize runs one OCR pass. A fresh client per call keeps concurrent
// requests from sharing tesseract state.
func (r *Recognizer) Recognize(ctx context.Context, img image.Image, mode vision.RecognitionMode) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encoding OCR input: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if r.Language != "" {
		if err := client.SetLanguage(r.Language); err != nil {
			return "", err
		}
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(mode.PageSegMode)); err != nil {
		return "", err
	}
	if mode.Whitelist != "" {
		if err := client.SetWhitelist(mode.Whitelist); err != nil {
			return "", err
		}
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", err
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return strings.TrimSpace(text), nil
}

var _ vision.TextRecognizer = (*Recognizer)(nil)
