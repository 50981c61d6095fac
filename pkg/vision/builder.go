package vision

import (
	"context"
	"image"
	"strings"

	"ai-shopping-assistant-be/internal/pkg/logger"
	"ai-shopping-assistant-be/pkg/utils"
)

const (
	seedFallback  = "this product"
	seedMaxTokens = 20
)

// Signals is everything derived from one uploaded image.
type Signals struct {
	Caption  string
	Brand    string
	Color    string // empty unless requested
	SeedText string
}

// Builder turns an image into Signals. Every engine is optional and no
// engine failure escapes Build.
type Builder struct {
	captioner Captioner
	brands    *BrandDetector
	logger    logger.ILogger
}

func NewBuilder(captioner Captioner, brands *BrandDetector, logger logger.ILogger) *Builder {
	return &Builder{captioner: captioner, brands: brands, logger: logger}
}

func (b *Builder) Build(ctx context.Context, img image.Image, wantColor bool) Signals {
	var s Signals
	if img == nil {
		return s
	}

	s.Caption = b.caption(ctx, img)
	s.Brand = b.brand(ctx, img)
	if wantColor {
		s.Color = DominantColor(img)
	}
	s.SeedText = SeedText(s.Brand, s.Caption)
	return s
}

// Describe captions the image with the apology strings for failures.
func (b *Builder) Describe(ctx context.Context, img image.Image) string {
	return Describe(ctx, b.captioner, img)
}

func (b *Builder) caption(ctx context.Context, img image.Image) (caption string) {
	if b.captioner == nil {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn("vision", "captioner panicked", map[string]interface{}{"panic": r})
			caption = ""
		}
	}()

	out, err := b.captioner.Caption(ctx, img)
	if err != nil {
		b.logger.Warn("vision", "caption failed", map[string]interface{}{"error": err.Error()})
		return ""
	}
	if strings.TrimSpace(out) == "" {
		return CaptionEmpty
	}
	return strings.TrimSpace(out)
}

func (b *Builder) brand(ctx context.Context, img image.Image) (brand string) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn("vision", "brand detection panicked", map[string]interface{}{"panic": r})
			brand = ""
		}
	}()
	return b.brands.Detect(ctx, img)
}

// SeedText is the short search phrase for product lookups: brand and
// caption when both exist, capped at 20 tokens.
func SeedText(brand, caption string) string {
	seed := strings.TrimSpace(strings.TrimSpace(brand) + " " + strings.TrimSpace(caption))
	if seed == "" {
		seed = seedFallback
	}
	return utils.FirstTokens(seed, seedMaxTokens)
}
