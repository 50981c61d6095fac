// Package assistant gathers signals for a product question and composes the
// single answer returned to the user.
package assistant

import (
	"context"
	"fmt"
	"image"
	"strings"

	"ai-shopping-assistant-be/internal/pkg/logger"
	"ai-shopping-assistant-be/pkg/agent"
	"ai-shopping-assistant-be/pkg/enrichment"
	"ai-shopping-assistant-be/pkg/intent"
	"ai-shopping-assistant-be/pkg/reviews"
	"ai-shopping-assistant-be/pkg/vision"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "ai-shopping-assistant-be/pkg/assistant"

// VisualBuilder derives caption, brand, color and seed text from an image.
type VisualBuilder interface {
	Build(ctx context.Context, img image.Image, wantColor bool) vision.Signals
}

// MetaResolver is the best-effort product lookup.
type MetaResolver interface {
	Resolve(ctx context.Context, texts ...string) enrichment.Meta
}

// Request is one question with the session's current image, if any.
type Request struct {
	Question string
	Image    image.Image
	Flags    intent.Flags
}

type Aggregator struct {
	visual     VisualBuilder
	resolver   MetaResolver
	answerer   reviews.Answerer
	agent      agent.Invoker
	forceImage bool
	logger     logger.ILogger
	tracer     trace.Tracer
}

func NewAggregator(visual VisualBuilder, resolver MetaResolver, answerer reviews.Answerer, invoker agent.Invoker, forceImage bool, logger logger.ILogger) *Aggregator {
	return &Aggregator{
		visual:     visual,
		resolver:   resolver,
		answerer:   answerer,
		agent:      invoker,
		forceImage: forceImage,
		logger:     logger,
		tracer:     otel.Tracer(tracerName),
	}
}

// SelectBranch picks the image path when an image is present and the
// question is about it (or the force flag is on).
func (a *Aggregator) SelectBranch(req Request) Branch {
	if req.Image != nil && (req.Flags.ImageQuestion || req.Flags.RefersToImage || a.forceImage) {
		return BranchImage
	}
	return BranchText
}

// Aggregate runs every step sequentially; enrichment always precedes the
// text and agent calls because its context is part of their prompts. No step
// failure aborts the request.
func (a *Aggregator) Aggregate(ctx context.Context, req Request) (*SignalBundle, SessionUpdate) {
	branch := a.SelectBranch(req)

	ctx, span := a.tracer.Start(ctx, "assistant.aggregate", trace.WithAttributes(
		attribute.String("assistant.branch", string(branch)),
		attribute.Bool("assistant.has_image", req.Image != nil),
	))
	defer span.End()

	bundle := &SignalBundle{
		Question: req.Question,
		HasImage: req.Image != nil,
		Branch:   branch,
	}

	var textPrompt string
	if branch == BranchImage {
		visual := runStep(ctx, a.tracer, a.logger, "visual", func(ctx context.Context) (vision.Signals, error) {
			return a.visual.Build(ctx, req.Image, req.Flags.Color), nil
		})
		bundle.recordFailure(visual.Step, visual.Failure)
		bundle.Visual = visual.Value

		bundle.Enrichment = a.enrich(ctx, bundle, req.Question, bundle.Visual.SeedText)
		textPrompt = ImagePrompt(bundle.Enrichment.Context, req.Question, bundle.Visual)
	} else {
		bundle.Enrichment = a.enrich(ctx, bundle, req.Question)
		textPrompt = TextPrompt(bundle.Enrichment.Context, req.Question)
	}

	text := runStep(ctx, a.tracer, a.logger, "text_answer", func(ctx context.Context) (string, error) {
		return a.answerer.Answer(ctx, textPrompt)
	})
	bundle.recordFailure(text.Step, text.Failure)
	bundle.TextAnswer = strings.TrimSpace(text.Value)

	agentPrompt := bundle.Enrichment.Context + req.Question
	agentRes := runStep(ctx, a.tracer, a.logger, "agent", func(ctx context.Context) (string, error) {
		res, err := a.agent.Invoke(ctx, agent.Input{Prompt: agentPrompt, Image: req.Image})
		if err != nil {
			return "", err
		}
		if res == nil {
			return "", nil
		}
		return res.Output, nil
	})
	bundle.recordFailure(agentRes.Step, agentRes.Failure)
	bundle.AgentAnswer = strings.TrimSpace(agentRes.Value)

	var update SessionUpdate
	if bundle.Enrichment.Meta.ASIN != "" {
		update.LastASIN = bundle.Enrichment.Meta.ASIN
	}
	if agentRes.Failure != FailureEngine && agentRes.Failure != FailurePanic {
		update.LastAgentText = bundle.AgentAnswer
		update.SetAgentText = true
	}
	return bundle, update
}

func (a *Aggregator) enrich(ctx context.Context, bundle *SignalBundle, texts ...string) Enrichment {
	res := runStep(ctx, a.tracer, a.logger, "enrichment", func(ctx context.Context) (enrichment.Meta, error) {
		return a.resolver.Resolve(ctx, texts...), nil
	})
	bundle.recordFailure(res.Step, res.Failure)

	ctxText := enrichment.Context(res.Value)
	if ctxText != "" {
		a.logger.Info("assistant", "Enrichment context", map[string]interface{}{"context": ctxText})
	}
	return Enrichment{Context: ctxText, Meta: res.Value}
}

// ImagePrompt is the text-answer prompt for the image path.
func ImagePrompt(enrichCtx, question string, v vision.Signals) string {
	brand := v.Brand
	if brand == "" {
		brand = "None"
	}
	return fmt.Sprintf("%sUser question: %s\nImage hints: brand=%s, caption=\"%s\".\n"+
		"Answer succinctly and include sentiment from reviews if relevant.",
		enrichCtx, question, brand, v.Caption)
}

// TextPrompt is the text-answer prompt for the text-only path.
func TextPrompt(enrichCtx, question string) string {
	return fmt.Sprintf("%sUser question: %s\nUse reviews to answer reliably and concisely.", enrichCtx, question)
}
