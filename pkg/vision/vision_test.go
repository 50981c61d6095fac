package vision

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
	"sync"
	"testing"

	"ai-shopping-assistant-be/internal/pkg/logger"
	"ai-shopping-assistant-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

type fakeCaptioner struct {
	caption string
	err     error
	panics  bool
}

func (f *fakeCaptioner) Caption(context.Context, image.Image) (string, error) {
	if f.panics {
		panic("captioner exploded")
	}
	return f.caption, f.err
}

type fakeRecognizer struct {
	mu    sync.Mutex
	calls int
	text  func(call int, mode RecognitionMode) string
}

func (f *fakeRecognizer) Recognize(_ context.Context, _ image.Image, mode RecognitionMode) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.text == nil {
		return "", nil
	}
	return f.text(f.calls, mode), nil
}

type fakeProvider struct {
	history []llm.Message
	opts    llm.Options
	reply   string
	err     error
}

func (f *fakeProvider) Chat(_ context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.history = history
	for _, o := range options {
		o(&f.opts)
	}
	return f.reply, f.err
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

func TestColorName(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		want    string
	}{
		{"exact red", 255, 0, 0, "red"},
		{"exact white", 255, 255, 255, "white"},
		{"cyan over aqua", 0, 255, 255, "cyan"},
		{"magenta over fuchsia", 255, 0, 255, "magenta"},
		{"gray over grey", 169, 169, 169, "darkgray"},
		{"nearest to almost black", 3, 2, 1, "black"},
		{"nearest to off red", 250, 5, 5, "red"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ColorName(tt.r, tt.g, tt.b))
		})
	}
}

func TestDominantColor(t *testing.T) {
	assert.Equal(t, UnknownColor, DominantColor(nil))
	assert.Equal(t, UnknownColor, DominantColor(image.NewRGBA(image.Rectangle{})))
	assert.Equal(t, "red", DominantColor(solid(120, 80, color.RGBA{255, 0, 0, 255})))
}

func TestDominantColor_Deterministic(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 90, 90))
	for y := 0; y < 90; y++ {
		for x := 0; x < 90; x++ {
			c := color.RGBA{0, 0, 255, 255}
			if x > 60 {
				c = color.RGBA{255, 255, 0, 255}
			}
			img.Set(x, y, c)
		}
	}
	first := DominantColor(img)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, DominantColor(img))
	}
	assert.NotEqual(t, UnknownColor, first)
}

func TestBrandFromText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"vocabulary", "new dyson supersonic", "Dyson"},
		{"multi word vocabulary", "HOT TOOLS pro artist", "Hot Tools"},
		{"longer brand wins over hp", "PHILIPS hp series", "Philips"},
		{"short brand alone", "hp laptop 15", "Hp"},
		{"whole words only", "Chill vibes", "Chill"},
		{"punctuation is normalized", "(sony)!", "Sony"},
		{"longest upper-case token", "the ACME and ZENITHX deal", "Zenithx"},
		{"capitalised fallback", "made by Zephyr labs", "Zephyr"},
		{"first longest wins ties", "Alpha Gamma", "Alpha"},
		{"nothing usable", "ab cd ef", ""},
		{"trim quote marks", `"BOLDCO"`, "Boldco"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BrandFromText(tt.in))
		})
	}
}

func TestPrepareVariants(t *testing.T) {
	variants := prepareVariants(solid(100, 50, color.RGBA{200, 200, 200, 255}))

	require.Len(t, variants, len(cropRegions)*(1+len(thresholds)))
	assert.Equal(t, "full_gray", variants[0].tag)
	assert.Equal(t, image.Rect(0, 0, 200, 100), variants[0].img.Bounds())

	for _, v := range variants {
		if !strings.Contains(v.tag, "_thr") {
			continue
		}
		g := v.img.(*image.Gray)
		for _, p := range g.Pix {
			assert.True(t, p == 0 || p == 255, v.tag)
		}
	}
}

func TestPrepareVariants_CapsLongestSide(t *testing.T) {
	variants := prepareVariants(image.NewGray(image.Rect(0, 0, 8000, 40)))

	require.NotEmpty(t, variants)
	assert.Equal(t, image.Rect(0, 0, maxVariantSide, 20), variants[0].img.Bounds())
	for _, v := range variants {
		b := v.img.Bounds()
		assert.LessOrEqual(t, max(b.Dx(), b.Dy()), maxVariantSide, v.tag)
	}
}

func TestVariantScale(t *testing.T) {
	assert.Equal(t, 2.0, variantScale(100, 50))
	assert.Equal(t, 2.0, variantScale(maxVariantSide/2, 10))
	assert.Equal(t, 0.5, variantScale(10, maxVariantSide*2))
}

func TestBinarize(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 3, 1))
	src.Pix = []uint8{140, 141, 250}
	out := binarize(src, 140)
	assert.Equal(t, []uint8{0, 255, 255}, out.Pix)
}

func TestBrandDetector_Detect(t *testing.T) {
	rec := &fakeRecognizer{text: func(call int, mode RecognitionMode) string {
		if call == 6 && mode.PageSegMode == SegSingleLine {
			return "SAMSUNG"
		}
		return "zz"
	}}
	d := NewBrandDetector(rec, logger.NewNopLogger())

	assert.Equal(t, "Samsung", d.Detect(context.Background(), solid(40, 40, color.White)))
	assert.Equal(t, len(cropRegions)*(1+len(thresholds))*len(RecognitionModes), rec.calls)
}

func TestBrandDetector_NoEngine(t *testing.T) {
	var d *BrandDetector
	assert.Equal(t, "", d.Detect(context.Background(), solid(4, 4, color.White)))
	assert.Equal(t, "", NewBrandDetector(nil, nil).Detect(context.Background(), solid(4, 4, color.White)))
}

func TestSeedText(t *testing.T) {
	assert.Equal(t, "Dyson a hair dryer", SeedText("Dyson", "a hair dryer"))
	assert.Equal(t, "a hair dryer", SeedText("", "a hair dryer"))
	assert.Equal(t, "Dyson", SeedText("Dyson", ""))
	assert.Equal(t, "this product", SeedText("", ""))

	long := strings.Repeat("word ", 30)
	assert.Len(t, strings.Fields(SeedText("Brand", long)), 20)
}

func TestBuilder_Build(t *testing.T) {
	img := solid(32, 32, color.RGBA{255, 0, 0, 255})
	rec := &fakeRecognizer{text: func(int, RecognitionMode) string { return "dyson" }}

	tests := []struct {
		name      string
		captioner Captioner
		wantColor bool
		want      Signals
	}{
		{
			name:      "all engines",
			captioner: &fakeCaptioner{caption: "a red hair dryer"},
			wantColor: true,
			want:      Signals{Caption: "a red hair dryer", Brand: "Dyson", Color: "red", SeedText: "Dyson a red hair dryer"},
		},
		{
			name:      "color not requested",
			captioner: &fakeCaptioner{caption: "a hair dryer"},
			want:      Signals{Caption: "a hair dryer", Brand: "Dyson", SeedText: "Dyson a hair dryer"},
		},
		{
			name:      "empty caption",
			captioner: &fakeCaptioner{caption: "  "},
			want:      Signals{Caption: CaptionEmpty, Brand: "Dyson", SeedText: "Dyson " + CaptionEmpty},
		},
		{
			name:      "caption error",
			captioner: &fakeCaptioner{err: errors.New("timeout")},
			want:      Signals{Brand: "Dyson", SeedText: "Dyson"},
		},
		{
			name:      "caption panic",
			captioner: &fakeCaptioner{panics: true},
			want:      Signals{Brand: "Dyson", SeedText: "Dyson"},
		},
		{
			name: "no captioner",
			want: Signals{Brand: "Dyson", SeedText: "Dyson"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder(tt.captioner, NewBrandDetector(rec, nil), logger.NewNopLogger())
			assert.Equal(t, tt.want, b.Build(context.Background(), img, tt.wantColor))
		})
	}
}

func TestBuilder_NilImage(t *testing.T) {
	b := NewBuilder(&fakeCaptioner{caption: "x"}, nil, logger.NewNopLogger())
	assert.Equal(t, Signals{}, b.Build(context.Background(), nil, true))
}

func TestBuilder_NoEnginesStillSeeds(t *testing.T) {
	b := NewBuilder(nil, nil, logger.NewNopLogger())
	s := b.Build(context.Background(), solid(8, 8, color.White), false)
	assert.Equal(t, "this product", s.SeedText)
}

func TestDescribe(t *testing.T) {
	ctx := context.Background()
	img := solid(4, 4, color.White)

	assert.Equal(t, CaptionUnavailable, Describe(ctx, nil, img))
	assert.Equal(t, "No image was uploaded.", Describe(ctx, &fakeCaptioner{caption: "x"}, nil))
	assert.Equal(t, CaptionFailed, Describe(ctx, &fakeCaptioner{err: errors.New("down")}, img))
	assert.Equal(t, CaptionEmpty, Describe(ctx, &fakeCaptioner{}, img))
	assert.Equal(t, "a mug", Describe(ctx, &fakeCaptioner{caption: "a mug"}, img))
}

func TestLLMCaptioner(t *testing.T) {
	p := &fakeProvider{reply: "  A black coffee mug.\n"}
	c := NewLLMCaptioner(p, "llava")

	out, err := c.Caption(context.Background(), solid(2048, 512, color.Black))
	require.NoError(t, err)
	assert.Equal(t, "A black coffee mug.", out)
	assert.Equal(t, "llava", p.opts.Model)

	require.Len(t, p.history, 1)
	require.Len(t, p.history[0].Images, 1)
	decoded, err := jpeg.Decode(bytes.NewReader(p.history[0].Images[0]))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 1024, 256), decoded.Bounds())
}

func TestLLMCaptioner_ProviderError(t *testing.T) {
	c := NewLLMCaptioner(&fakeProvider{err: errors.New("503")}, "")
	_, err := c.Caption(context.Background(), solid(4, 4, color.White))
	assert.Error(t, err)
}

func TestFitDimensions(t *testing.T) {
	w, h := fitDimensions(800, 600, 1024)
	assert.Equal(t, []int{800, 600}, []int{w, h})
	w, h = fitDimensions(500, 3000, 1024)
	assert.Equal(t, []int{170, 1024}, []int{w, h})
}
