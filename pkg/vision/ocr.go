package vision

import (
	"context"
	"fmt"
	"image"
	"regexp"
	"sort"
	"strings"

	"ai-shopping-assistant-be/internal/pkg/logger"
	"ai-shopping-assistant-be/pkg/utils"

	"golang.org/x/image/draw"
)

const letterWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Page segmentation modes, numbered as tesseract numbers them.
const (
	SegSingleBlock = 6
	SegSingleLine  = 7
	SegSparseText  = 11
	SegRawLine     = 13
)

// RecognitionMode is one recognizer configuration tried on every variant.
type RecognitionMode struct {
	PageSegMode int
	Whitelist   string
}

func (m RecognitionMode) String() string {
	if m.Whitelist != "" {
		return fmt.Sprintf("psm=%d whitelist=letters", m.PageSegMode)
	}
	return fmt.Sprintf("psm=%d", m.PageSegMode)
}

var RecognitionModes = []RecognitionMode{
	{PageSegMode: SegSingleBlock, Whitelist: letterWhitelist},
	{PageSegMode: SegSingleLine, Whitelist: letterWhitelist},
	{PageSegMode: SegSparseText},
	{PageSegMode: SegRawLine},
}

// TextRecognizer reads text off an image (OCR).
type TextRecognizer interface {
	Recognize(ctx context.Context, img image.Image, mode RecognitionMode) (string, error)
}

// Brands is the fixed vocabulary checked before the token heuristics.
var Brands = []string{
	"revlon", "dyson", "babyliss", "hot tools", "conair", "philips", "panasonic",
	"remington", "ghd", "chi", "andis", "wahl", "nioxin", "olaplex", "kindle",
	"amazon", "apple", "samsung", "sony", "logitech", "anker", "hp", "dell",
	"lenovo", "asus", "acer", "nintendo",
}

var thresholds = []uint8{140, 160, 200}

// maxVariantSide caps the longest side of an upsampled crop.
const maxVariantSide = 4000

type variant struct {
	tag string
	img image.Image
}

// cropRegion is a crop expressed as fractions of the frame.
type cropRegion struct {
	name           string
	x0, y0, x1, y1 float64
}

// Labels tend to sit low or to the right of product shots.
var cropRegions = []cropRegion{
	{"full", 0, 0, 1, 1},
	{"bottom_right", 0.55, 0.55, 1, 1},
	{"bottom_left", 0, 0.55, 0.45, 1},
	{"lower_center", 0.25, 0.55, 0.75, 1},
	{"right_center", 0.6, 0.25, 1, 0.75},
}

// prepareVariants crops each region, upsamples it 2x (capped at
// maxVariantSide), converts to grayscale and adds one binarised copy per
// threshold.
func prepareVariants(img image.Image) []variant {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	var variants []variant
	for _, region := range cropRegions {
		rect := image.Rect(
			b.Min.X+int(float64(w)*region.x0), b.Min.Y+int(float64(h)*region.y0),
			b.Min.X+int(float64(w)*region.x1), b.Min.Y+int(float64(h)*region.y1),
		)
		scale := variantScale(rect.Dx(), rect.Dy())
		cw, ch := max(1, int(float64(rect.Dx())*scale)), max(1, int(float64(rect.Dy())*scale))

		up := image.NewRGBA(image.Rect(0, 0, cw, ch))
		if !rect.Empty() {
			draw.CatmullRom.Scale(up, up.Bounds(), img, rect, draw.Src, nil)
		}

		gray := image.NewGray(up.Bounds())
		draw.Draw(gray, gray.Bounds(), up, image.Point{}, draw.Src)
		variants = append(variants, variant{tag: region.name + "_gray", img: gray})

		for _, t := range thresholds {
			variants = append(variants, variant{
				tag: fmt.Sprintf("%s_thr%d", region.name, t),
				img: binarize(gray, t),
			})
		}
	}
	return variants
}

func variantScale(w, h int) float64 {
	longest := max(w, h)
	if longest*2 <= maxVariantSide {
		return 2
	}
	return float64(maxVariantSide) / float64(longest)
}

func binarize(src *image.Gray, threshold uint8) *image.Gray {
	dst := image.NewGray(src.Bounds())
	for i, p := range src.Pix {
		if p > threshold {
			dst.Pix[i] = 255
		} else {
			dst.Pix[i] = 0
		}
	}
	return dst
}

// BrandDetector runs multi-pass OCR and maps the text to a brand guess.
type BrandDetector struct {
	recognizer TextRecognizer
	debug      logger.ILogger // nil unless OCR debugging is on
}

func NewBrandDetector(recognizer TextRecognizer, debug logger.ILogger) *BrandDetector {
	return &BrandDetector{recognizer: recognizer, debug: debug}
}

// Detect returns the brand or "" when nothing usable was read.
func (d *BrandDetector) Detect(ctx context.Context, img image.Image) string {
	if d == nil || d.recognizer == nil || img == nil || img.Bounds().Empty() {
		return ""
	}

	var texts []string
	for _, v := range prepareVariants(img) {
		for _, mode := range RecognitionModes {
			if ctx.Err() != nil {
				return BrandFromText(strings.Join(texts, "\n"))
			}
			txt, err := d.recognizer.Recognize(ctx, v.img, mode)
			if err != nil || txt == "" {
				continue
			}
			texts = append(texts, txt)
			if d.debug != nil {
				d.debug.Debug("ocr", "recognized text", map[string]interface{}{
					"variant": v.tag,
					"mode":    mode.String(),
					"text":    txt,
				})
			}
		}
	}
	return BrandFromText(strings.Join(texts, "\n"))
}

var (
	normalizePattern = regexp.MustCompile(`[^a-z0-9 +\-]`)
	brandPatterns    = compileBrandPatterns(Brands)
)

type brandPattern struct {
	name string
	re   *regexp.Regexp
}

// compileBrandPatterns orders the vocabulary longest first so "hp" can never
// shadow a longer brand that contains it.
func compileBrandPatterns(brands []string) []brandPattern {
	sorted := append([]string(nil), brands...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	patterns := make([]brandPattern, len(sorted))
	for i, b := range sorted {
		patterns[i] = brandPattern{name: b, re: regexp.MustCompile(`\b` + regexp.QuoteMeta(b) + `\b`)}
	}
	return patterns
}

func normalizeOCR(text string) string {
	return normalizePattern.ReplaceAllString(strings.ToLower(text), " ")
}

// BrandFromText checks the vocabulary, then falls back to the longest
// all-caps token, then the longest capitalised token (both at least three
// characters). Results are title-cased.
func BrandFromText(raw string) string {
	if raw == "" {
		return ""
	}

	norm := normalizeOCR(raw)
	for _, p := range brandPatterns {
		if p.re.MatchString(norm) {
			return utils.TitleCase(p.name)
		}
	}

	var tokens []string
	for _, t := range strings.Fields(raw) {
		tokens = append(tokens, strings.Trim(t, ".,:;!?()[]{}|/\\\"'"))
	}

	if upper := longest(tokens, func(t string) bool { return len(t) >= 3 && utils.IsUpper(t) }); upper != "" {
		return utils.TitleCase(upper)
	}
	if capped := longest(tokens, func(t string) bool {
		return len(t) >= 3 && t[0] >= 'A' && t[0] <= 'Z'
	}); capped != "" {
		return utils.TitleCase(capped)
	}
	return ""
}

// longest returns the first longest token accepted by keep.
func longest(tokens []string, keep func(string) bool) string {
	best := ""
	for _, t := range tokens {
		if keep(t) && len(t) > len(best) {
			best = t
		}
	}
	return best
}
