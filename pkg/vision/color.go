package vision

import (
	"image"
	"image/color"

	"github.com/ericpauley/go-quantize/quantize"
	"golang.org/x/image/colornames"
)

const (
	UnknownColor = "Unknown color"

	colorSampleSize  = 64
	colorPaletteSize = 5
)

// DominantColor samples the image down to 64x64, reduces it to a 5 entry
// median-cut palette and names the most frequent entry. Never panics.
func DominantColor(img image.Image) (name string) {
	defer func() {
		if recover() != nil {
			name = UnknownColor
		}
	}()
	if img == nil || img.Bounds().Empty() {
		return UnknownColor
	}

	small := resize(img, colorSampleSize, colorSampleSize)

	q := quantize.MedianCutQuantizer{}
	palette := q.Quantize(make(color.Palette, 0, colorPaletteSize), small)
	if len(palette) == 0 {
		return UnknownColor
	}

	counts := make([]int, len(palette))
	b := small.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			counts[palette.Index(small.At(x, y))]++
		}
	}

	// Ties go to the later palette entry.
	best := 0
	for i, c := range counts {
		if c >= counts[best] {
			best = i
		}
	}

	r, g, bl, _ := palette[best].RGBA()
	return ColorName(uint8(r>>8), uint8(g>>8), uint8(bl>>8))
}

// preferredNames picks one spelling for colours with two CSS3 names, where
// alphabetical order would otherwise decide.
var preferredNames = map[string]string{
	"aqua":    "cyan",
	"fuchsia": "magenta",
}

// ColorName returns the CSS3 name of the exact colour when there is one,
// otherwise the nearest name by Euclidean distance in RGB space.
func ColorName(r, g, b uint8) string {
	best := ""
	bestDist := -1
	for _, name := range colornames.Names {
		c := colornames.Map[name]
		dr, dg, db := int(c.R)-int(r), int(c.G)-int(g), int(c.B)-int(b)
		dist := dr*dr + dg*dg + db*db
		if bestDist < 0 || dist < bestDist {
			best, bestDist = name, dist
		}
		if dist == 0 {
			break
		}
	}
	if preferred, ok := preferredNames[best]; ok {
		return preferred
	}
	return best
}
