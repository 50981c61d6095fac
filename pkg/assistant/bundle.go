package assistant

import (
	"context"
	"fmt"
	"strings"

	"ai-shopping-assistant-be/internal/pkg/logger"
	"ai-shopping-assistant-be/pkg/enrichment"
	"ai-shopping-assistant-be/pkg/vision"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Branch is the aggregation path taken for a request.
type Branch string

const (
	BranchImage Branch = "image"
	BranchText  Branch = "text"
)

// FailureKind classifies why a best-effort step produced no value.
type FailureKind string

const (
	FailureNone   FailureKind = ""
	FailureEngine FailureKind = "engine_error"
	FailurePanic  FailureKind = "panic"
	FailureEmpty  FailureKind = "empty"
)

// StepResult carries either a step's value or the reason it has none.
// Callers read Value, which is always the zero value on failure.
type StepResult[T any] struct {
	Step    string
	Value   T
	Failure FailureKind
	Err     error
}

func (r StepResult[T]) OK() bool {
	return r.Failure == FailureNone
}

// Enrichment is the product lookup result plus its prompt rendering.
type Enrichment struct {
	Context string
	Meta    enrichment.Meta
}

// SignalBundle is everything the composer may use to answer one request.
type SignalBundle struct {
	Question    string
	HasImage    bool
	Branch      Branch
	Visual      vision.Signals
	Enrichment  Enrichment
	TextAnswer  string
	AgentAnswer string
	Failures    map[string]FailureKind
}

func (b *SignalBundle) recordFailure(step string, kind FailureKind) {
	if kind == FailureNone {
		return
	}
	if b.Failures == nil {
		b.Failures = make(map[string]FailureKind)
	}
	b.Failures[step] = kind
}

// SessionUpdate lists the advisory session fields a request produced.
// The caller owns the session and applies it.
type SessionUpdate struct {
	LastASIN      string // empty means unchanged
	LastAgentText string
	SetAgentText  bool
}

// runStep executes fn inside a span, converts panics and errors into a typed
// failure, and logs the failure. Empty string results count as FailureEmpty
// but keep their value.
func runStep[T any](ctx context.Context, tracer trace.Tracer, log logger.ILogger, step string, fn func(ctx context.Context) (T, error)) (res StepResult[T]) {
	ctx, span := tracer.Start(ctx, "assistant."+step)
	defer span.End()

	res.Step = step
	defer func() {
		if rec := recover(); rec != nil {
			var zero T
			res.Value = zero
			res.Failure = FailurePanic
			res.Err = fmt.Errorf("panic: %v", rec)
			span.SetStatus(codes.Error, "panic")
			log.Error("assistant", "Step panicked", map[string]interface{}{
				"step":  step,
				"panic": fmt.Sprint(rec),
			})
		}
	}()

	v, err := fn(ctx)
	if err != nil {
		var zero T
		res.Value = zero
		res.Failure = FailureEngine
		res.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn("assistant", "Step failed", map[string]interface{}{
			"step":  step,
			"error": err.Error(),
		})
		return res
	}

	res.Value = v
	if s, ok := any(v).(string); ok && strings.TrimSpace(s) == "" {
		res.Failure = FailureEmpty
		log.Debug("assistant", "Step returned nothing", map[string]interface{}{"step": step})
	}
	span.SetAttributes(attribute.String("assistant.failure", string(res.Failure)))
	return res
}
