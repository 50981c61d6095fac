package assistant

import (
	"context"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"ai-shopping-assistant-be/internal/pkg/logger"
	"ai-shopping-assistant-be/pkg/agent"
	"ai-shopping-assistant-be/pkg/enrichment"
	"ai-shopping-assistant-be/pkg/intent"
	"ai-shopping-assistant-be/pkg/vision"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVisual struct {
	signals   vision.Signals
	wantColor []bool
	panics    bool
}

func (f *fakeVisual) Build(_ context.Context, _ image.Image, wantColor bool) vision.Signals {
	f.wantColor = append(f.wantColor, wantColor)
	if f.panics {
		panic("ocr crashed")
	}
	s := f.signals
	if !wantColor {
		s.Color = ""
	}
	return s
}

// fakeResolver returns metas in order and records every call's texts.
type fakeResolver struct {
	metas []enrichment.Meta
	calls [][]string
}

func (f *fakeResolver) Resolve(_ context.Context, texts ...string) enrichment.Meta {
	f.calls = append(f.calls, append([]string(nil), texts...))
	if len(f.metas) == 0 {
		return enrichment.Meta{}
	}
	m := f.metas[0]
	f.metas = f.metas[1:]
	return m
}

type fakeAnswerer struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeAnswerer) Answer(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

type fakeInvoker struct {
	output string
	err    error
	panics bool
	inputs []agent.Input
}

func (f *fakeInvoker) Invoke(_ context.Context, in agent.Input) (*agent.Result, error) {
	f.inputs = append(f.inputs, in)
	if f.panics {
		panic("agent crashed")
	}
	if f.err != nil {
		return nil, f.err
	}
	return &agent.Result{Output: f.output}, nil
}

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(0, 0, color.White)
	return img
}

type pipeline struct {
	visual   *fakeVisual
	resolver *fakeResolver
	answerer *fakeAnswerer
	agent    *fakeInvoker
	agg      *Aggregator
	composer *Composer
}

func newPipeline(force bool) *pipeline {
	p := &pipeline{
		visual:   &fakeVisual{},
		resolver: &fakeResolver{},
		answerer: &fakeAnswerer{},
		agent:    &fakeInvoker{},
	}
	log := logger.NewNopLogger()
	p.agg = NewAggregator(p.visual, p.resolver, p.answerer, p.agent, force, log)
	p.composer = NewComposer(p.resolver, log)
	return p
}

func (p *pipeline) ask(question string, img image.Image) (string, *SignalBundle, SessionUpdate) {
	flags := intent.Classify(question)
	bundle, update := p.agg.Aggregate(context.Background(), Request{Question: question, Image: img, Flags: flags})
	return p.composer.Compose(context.Background(), bundle, flags), bundle, update
}

func TestScenario_WhatIsThisReturnsCaption(t *testing.T) {
	p := newPipeline(false)
	p.visual.signals = vision.Signals{Caption: "a pair of wireless earbuds", SeedText: "a pair of wireless earbuds"}

	answer, bundle, _ := p.ask("what is this", testImage())

	assert.Equal(t, "a pair of wireless earbuds", answer)
	assert.Equal(t, BranchImage, bundle.Branch)
}

func TestScenario_PriceFromSeedText(t *testing.T) {
	p := newPipeline(false)
	p.visual.signals = vision.Signals{Caption: "wireless earbuds", SeedText: "wireless earbuds"}
	p.resolver.metas = []enrichment.Meta{{ASIN: "B0EXAMPLE1", Title: "Wireless Earbuds Pro", Price: "$49.99"}}

	answer, _, update := p.ask("how much does this cost", testImage())

	assert.Equal(t, "The current listed price on Amazon is $49.99 for Wireless Earbuds Pro (ASIN B0EXAMPLE1). Prices change frequently.", answer)
	require.Len(t, p.resolver.calls, 1)
	assert.Equal(t, []string{"how much does this cost", "wireless earbuds"}, p.resolver.calls[0])
	assert.Equal(t, "B0EXAMPLE1", update.LastASIN)
}

func TestScenario_OpinionWithoutImage(t *testing.T) {
	p := newPipeline(false)
	p.answerer.reply = "Reviews are mostly positive   citing battery life."

	answer, bundle, _ := p.ask("what do people think about this", nil)

	assert.Equal(t, BranchText, bundle.Branch)
	assert.Equal(t, OpinionPreface+"\n\nReviews are mostly positive citing battery life.", answer)
}

func TestScenario_NoSignalsAnywhere(t *testing.T) {
	p := newPipeline(false)

	answer, _, _ := p.ask("tell me something", nil)

	assert.Equal(t, RephraseFallback, answer)
}

func TestAggregate_BranchSelection(t *testing.T) {
	tests := []struct {
		name     string
		question string
		image    bool
		force    bool
		want     Branch
	}{
		{"image question with image", "what brand is it", true, false, BranchImage},
		{"refers to this", "is this durable", true, false, BranchImage},
		{"unrelated question with image", "are these durable", true, false, BranchText},
		{"force flag", "are these durable", true, true, BranchImage},
		{"force flag without image", "are these durable", false, true, BranchText},
		{"image question without image", "what brand is it", false, false, BranchText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var img image.Image
			if tt.image {
				img = testImage()
			}
			p := newPipeline(tt.force)
			_, bundle, _ := p.ask(tt.question, img)
			assert.Equal(t, tt.want, bundle.Branch)
			assert.Equal(t, tt.want == BranchImage, len(p.visual.wantColor) == 1)
		})
	}
}

func TestAggregate_ImageBranchPrompts(t *testing.T) {
	p := newPipeline(false)
	p.visual.signals = vision.Signals{Caption: "a hair dryer", Brand: "Dyson", Color: "purple", SeedText: "Dyson a hair dryer"}
	p.resolver.metas = []enrichment.Meta{{ASIN: "B01N5IB20Q", Title: "Supersonic"}}
	p.agent.output = "  It is a Dyson Supersonic.  "

	bundle, update := p.agg.Aggregate(context.Background(), Request{
		Question: "what color is this",
		Image:    testImage(),
		Flags:    intent.Classify("what color is this"),
	})

	ctxText := "Context from product page: asin: B01N5IB20Q; title: Supersonic. "
	assert.Equal(t, []bool{true}, p.visual.wantColor)
	assert.Equal(t, "purple", bundle.Visual.Color)
	assert.Equal(t, ctxText, bundle.Enrichment.Context)
	assert.Equal(t, ctxText+"User question: what color is this\nImage hints: brand=Dyson, caption=\"a hair dryer\".\n"+
		"Answer succinctly and include sentiment from reviews if relevant.", p.answerer.prompts[0])
	require.Len(t, p.agent.inputs, 1)
	assert.Equal(t, ctxText+"what color is this", p.agent.inputs[0].Prompt)
	assert.NotNil(t, p.agent.inputs[0].Image)

	assert.Equal(t, "It is a Dyson Supersonic.", bundle.AgentAnswer)
	assert.Equal(t, SessionUpdate{LastASIN: "B01N5IB20Q", LastAgentText: "It is a Dyson Supersonic.", SetAgentText: true}, update)
}

func TestAggregate_TextBranchPrompts(t *testing.T) {
	p := newPipeline(false)

	bundle, update := p.agg.Aggregate(context.Background(), Request{Question: "is it loud", Flags: intent.Classify("is it loud")})

	assert.Equal(t, [][]string{{"is it loud"}}, p.resolver.calls)
	assert.Equal(t, "User question: is it loud\nUse reviews to answer reliably and concisely.", p.answerer.prompts[0])
	assert.Equal(t, "is it loud", p.agent.inputs[0].Prompt)
	assert.Empty(t, bundle.Visual)
	assert.Equal(t, "", update.LastASIN)
}

func TestAggregate_StepFailuresDegrade(t *testing.T) {
	p := newPipeline(false)
	p.visual.panics = true
	p.answerer.err = errors.New("groq timeout")
	p.agent.panics = true

	bundle, update := p.agg.Aggregate(context.Background(), Request{
		Question: "what is this",
		Image:    testImage(),
		Flags:    intent.Classify("what is this"),
	})

	assert.Equal(t, vision.Signals{}, bundle.Visual)
	assert.Equal(t, "", bundle.TextAnswer)
	assert.Equal(t, "", bundle.AgentAnswer)
	assert.Equal(t, FailurePanic, bundle.Failures["visual"])
	assert.Equal(t, FailureEngine, bundle.Failures["text_answer"])
	assert.Equal(t, FailurePanic, bundle.Failures["agent"])
	assert.False(t, update.SetAgentText)

	// Enrichment still ran after the visual step failed.
	assert.Len(t, p.resolver.calls, 1)
}

func TestAggregate_AgentErrorKeepsSessionText(t *testing.T) {
	p := newPipeline(false)
	p.agent.err = agent.ErrIterationLimit

	_, update := p.agg.Aggregate(context.Background(), Request{Question: "hello"})
	assert.False(t, update.SetAgentText)

	p.agent.err = nil
	p.agent.output = ""
	_, update = p.agg.Aggregate(context.Background(), Request{Question: "hello"})
	assert.True(t, update.SetAgentText)
	assert.Equal(t, "", update.LastAgentText)
}

func TestCompose_PriceRetries(t *testing.T) {
	bundle := &SignalBundle{
		Question:    "how much is it",
		Visual:      vision.Signals{SeedText: "Dyson hair dryer"},
		TextAnswer:  "rag says",
		AgentAnswer: "agent says",
	}
	flags := intent.Flags{Price: true}

	t.Run("second resolution succeeds", func(t *testing.T) {
		r := &fakeResolver{metas: []enrichment.Meta{{Price: "$10"}}}
		out := NewComposer(r, logger.NewNopLogger()).Compose(context.Background(), bundle, flags)
		assert.Equal(t, "The current listed price on Amazon is $10 for this item. Prices change frequently.", out)
		assert.Equal(t, [][]string{{"agent says", "Dyson hair dryer", "rag says"}}, r.calls)
	})

	t.Run("third resolution succeeds", func(t *testing.T) {
		r := &fakeResolver{metas: []enrichment.Meta{{ASIN: "B000000001"}, {ASIN: "B000000002", Price: "$12"}}}
		out := NewComposer(r, logger.NewNopLogger()).Compose(context.Background(), bundle, flags)
		assert.Equal(t, "The current listed price on Amazon is $12 for this item (ASIN B000000002). Prices change frequently.", out)
		assert.Equal(t, []string{"Dyson hair dryer", "how much is it"}, r.calls[1])
	})

	t.Run("gives up after three resolutions", func(t *testing.T) {
		r := &fakeResolver{}
		out := NewComposer(r, logger.NewNopLogger()).Compose(context.Background(), bundle, flags)
		assert.Equal(t, PriceUnavailable, out)
		assert.Len(t, r.calls, 2)
	})

	t.Run("bundle price needs no retry", func(t *testing.T) {
		r := &fakeResolver{}
		withPrice := *bundle
		withPrice.Enrichment.Meta = enrichment.Meta{Price: "$5", Title: "Thing"}
		out := NewComposer(r, logger.NewNopLogger()).Compose(context.Background(), &withPrice, flags)
		assert.Equal(t, "The current listed price on Amazon is $5 for Thing. Prices change frequently.", out)
		assert.Empty(t, r.calls)
	})
}

func TestCompose_Rules(t *testing.T) {
	tests := []struct {
		name     string
		question string
		bundle   SignalBundle
		want     string
	}{
		{
			name:     "visible brand",
			question: "what brand is this",
			bundle:   SignalBundle{Visual: vision.Signals{Brand: "Dyson"}},
			want:     "The visible brand appears to be Dyson.",
		},
		{
			name:     "brand guessed from agent",
			question: "who is the maker",
			bundle:   SignalBundle{AgentAnswer: "This looks like a Panasonic shaver", TextAnswer: "Made by REMINGTON"},
			want:     "It looks like the brand might be Panasonic.",
		},
		{
			name:     "brand guessed from text answer",
			question: "who is the maker",
			bundle:   SignalBundle{AgentAnswer: "no idea", TextAnswer: "reviews mention WAHL often"},
			want:     "It looks like the brand might be Wahl.",
		},
		{
			name:     "brand unreadable",
			question: "which brand",
			want:     BrandUnreadable,
		},
		{
			name:     "color known",
			question: "what colour is it",
			bundle:   SignalBundle{Visual: vision.Signals{Color: "navy"}},
			want:     "navy",
		},
		{
			name:     "color unknown",
			question: "what color",
			want:     ColorUncertain,
		},
		{
			name:     "what is this with brand",
			question: "what is this?",
			bundle:   SignalBundle{HasImage: true, Visual: vision.Signals{Brand: "Sony", Caption: "black headphones"}},
			want:     "Sony — black headphones",
		},
		{
			name:     "what is this with nothing",
			question: "what is it",
			bundle:   SignalBundle{HasImage: true},
			want:     GenericImage,
		},
		{
			name:     "what is this without image goes general",
			question: "what is it",
			bundle:   SignalBundle{TextAnswer: "A kettle."},
			want:     "A kettle.",
		},
		{
			name:     "sales volume with text",
			question: "how many sold last month",
			bundle:   SignalBundle{TextAnswer: " very\npopular "},
			want:     SalesVolumePreface + "\n\nvery popular",
		},
		{
			name:     "sales volume without text",
			question: "units sold?",
			want:     SalesVolumePreface + "\n\n" + SalesVolumeDefault,
		},
		{
			name:     "opinion without text falls through",
			question: "is it worth it",
			bundle:   SignalBundle{Enrichment: Enrichment{Meta: enrichment.Meta{Title: "Kettle"}}},
			want:     "**Product**: Kettle",
		},
		{
			name:     "general with everything",
			question: "tell me about it",
			bundle: SignalBundle{
				Enrichment:  Enrichment{Meta: enrichment.Meta{Title: "Kettle", Price: "$20"}},
				TextAnswer:  "Boils  fast.",
				AgentAnswer: "The kettle is praised for speed and quiet operation.",
			},
			want: "**Product**: Kettle\n\n**Price (Amazon)**: $20\n\nBoils fast.\n\n_Note_: The kettle is praised for speed and quiet operation.",
		},
		{
			name:     "short agent text is not appended",
			question: "tell me about it",
			bundle:   SignalBundle{TextAnswer: "Boils fast.", AgentAnswer: "Boils fast indeed."},
			want:     "Boils fast.",
		},
		{
			name:     "duplicate agent text is not appended",
			question: "tell me about it",
			bundle: SignalBundle{
				TextAnswer:  "Customers say the kettle boils fast and looks great on the counter.",
				AgentAnswer: "the kettle boils fast and looks great",
			},
			want: "Customers say the kettle boils fast and looks great on the counter.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewComposer(&fakeResolver{}, logger.NewNopLogger())
			b := tt.bundle
			b.Question = tt.question
			assert.Equal(t, tt.want, c.Compose(context.Background(), &b, intent.Classify(tt.question)))
		})
	}
}

func TestExtractBrandLike(t *testing.T) {
	assert.Equal(t, "", ExtractBrandLike(""))
	assert.Equal(t, "", ExtractBrandLike("all lower case words"))
	assert.Equal(t, "Remington", ExtractBrandLike("Try the REMINGTON or Braun"))
	assert.Equal(t, "Alpha", ExtractBrandLike("Alpha Gamma"))
	assert.Equal(t, "Wh-1000", ExtractBrandLike("the WH-1000 model"))
}

func TestPriceLine(t *testing.T) {
	assert.Equal(t, "", PriceLine(enrichment.Meta{Title: "x"}))
	assert.True(t, strings.HasPrefix(PriceLine(enrichment.Meta{Price: "$1"}), "The current listed price on Amazon is $1 for this item."))
}
