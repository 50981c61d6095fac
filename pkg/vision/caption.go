package vision

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	"ai-shopping-assistant-be/pkg/llm"

	"golang.org/x/image/draw"
)

const (
	CaptionUnavailable = "Image captioning is unavailable on this server."
	CaptionEmpty       = "I see a product image."
	CaptionFailed      = "Sorry, I couldn’t analyze the image."

	captionPrompt  = "Write a short caption (one sentence, under 20 words) describing the main product in this image."
	captionMaxSide = 1024
)

// Captioner produces a one-line description of an image.
type Captioner interface {
	Caption(ctx context.Context, img image.Image) (string, error)
}

// LLMCaptioner captions through a vision-capable chat model (llava, bakllava...).
type LLMCaptioner struct {
	provider llm.LLMProvider
	model    string
}

func NewLLMCaptioner(provider llm.LLMProvider, model string) *LLMCaptioner {
	return &LLMCaptioner{provider: provider, model: model}
}

func (c *LLMCaptioner) Caption(ctx context.Context, img image.Image) (string, error) {
	data, err := encodeForModel(img)
	if err != nil {
		return "", err
	}

	opts := []llm.Option{llm.WithTemperature(0), llm.WithMaxTokens(60)}
	if c.model != "" {
		opts = append(opts, llm.WithModel(c.model))
	}

	out, err := c.provider.Chat(ctx, []llm.Message{
		{Role: "user", Content: captionPrompt, Images: [][]byte{data}},
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("caption request: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Describe always returns something printable: the caption, or one of the
// fixed apology strings when the engine is missing or failing.
func Describe(ctx context.Context, captioner Captioner, img image.Image) string {
	if captioner == nil {
		return CaptionUnavailable
	}
	if img == nil {
		return "No image was uploaded."
	}
	caption, err := captioner.Caption(ctx, img)
	if err != nil {
		return CaptionFailed
	}
	if caption == "" {
		return CaptionEmpty
	}
	return caption
}

// encodeForModel shrinks the image to fit captionMaxSide and encodes it as JPEG.
func encodeForModel(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image")
	}
	b := img.Bounds()
	w, h := fitDimensions(b.Dx(), b.Dy(), captionMaxSide)
	if w != b.Dx() || h != b.Dy() {
		img = resize(img, w, h)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

func fitDimensions(w, h, maxDim int) (int, int) {
	if w <= maxDim && h <= maxDim {
		return w, h
	}
	if w >= h {
		return maxDim, max(1, h*maxDim/w)
	}
	return max(1, w*maxDim/h), maxDim
}

func resize(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
