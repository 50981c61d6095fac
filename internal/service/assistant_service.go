package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"ai-shopping-assistant-be/internal/dto"
	"ai-shopping-assistant-be/internal/pkg/logger"
	"ai-shopping-assistant-be/internal/repository/contract"
	"ai-shopping-assistant-be/pkg/assistant"
	"ai-shopping-assistant-be/pkg/events"
	"ai-shopping-assistant-be/pkg/intent"
	"ai-shopping-assistant-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	_ "golang.org/x/image/webp"
)

const ErrorFallback = dto.ErrorAnswer

// MaxImagePixels bounds the decoded size of an upload. Larger images are
// treated like undecodable ones.
const MaxImagePixels = 40_000_000

type IAssistantService interface {
	Ask(ctx context.Context, sessionID string, req *dto.AskRequest) *dto.AskResponse
}

type SignalAggregator interface {
	Aggregate(ctx context.Context, req assistant.Request) (*assistant.SignalBundle, assistant.SessionUpdate)
}

type AnswerComposer interface {
	Compose(ctx context.Context, b *assistant.SignalBundle, flags intent.Flags) string
}

// ImageDescriber captions an image for the last-resort answer.
type ImageDescriber interface {
	Describe(ctx context.Context, img image.Image) string
}

type assistantService struct {
	aggregator SignalAggregator
	composer   AnswerComposer
	describer  ImageDescriber
	sessions   contract.SessionRepository
	images     contract.ImageRepository
	publisher  message.Publisher
	topicName  string
	logger     logger.ILogger
}

func NewAssistantService(
	aggregator SignalAggregator,
	composer AnswerComposer,
	describer ImageDescriber,
	sessions contract.SessionRepository,
	images contract.ImageRepository,
	publisher message.Publisher,
	topicName string,
	logger logger.ILogger,
) IAssistantService {
	return &assistantService{
		aggregator: aggregator,
		composer:   composer,
		describer:  describer,
		sessions:   sessions,
		images:     images,
		publisher:  publisher,
		topicName:  topicName,
		logger:     logger,
	}
}

// Ask always produces an answer. Step failures degrade inside the pipeline;
// anything that escapes it falls back to a caption of the session's image or
// a fixed apology.
func (s *assistantService) Ask(ctx context.Context, sessionID string, req *dto.AskRequest) *dto.AskResponse {
	start := time.Now()
	question := strings.TrimSpace(req.Query)

	sess := s.loadSession(ctx, sessionID)
	if req.HasUpload() {
		s.storeUpload(ctx, sess, req)
	}
	img, _ := s.images.Get(ctx, sessionID)

	flags := intent.Classify(question)
	answer, bundle, update, err := s.run(ctx, question, img, flags)
	fallback := err != nil
	if fallback {
		s.logger.Error("ASSISTANT", "Request failed, using fallback answer", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		answer = s.fallbackAnswer(ctx, img)
	}

	applyUpdate(sess, update)
	if err := s.sessions.Save(ctx, sess); err != nil {
		s.logger.Warn("ASSISTANT", "Failed to save session", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}

	ev := events.QueryAnswered{
		SessionID:  sessionID,
		Question:   question,
		Answer:     answer,
		Intents:    flags.Names(),
		HasImage:   img != nil,
		Fallback:   fallback,
		LatencyMs:  time.Since(start).Milliseconds(),
		OccurredAt: time.Now(),
	}
	if bundle != nil {
		ev.Branch = string(bundle.Branch)
		ev.ASIN = bundle.Enrichment.Meta.ASIN
	}
	s.publish(ev)

	s.logger.Info("ASSISTANT", "Answered question", map[string]interface{}{
		"session_id": sessionID,
		"intents":    ev.Intents,
		"branch":     ev.Branch,
		"latency_ms": ev.LatencyMs,
	})
	return dto.NewAskResponse(answer)
}

func (s *assistantService) run(ctx context.Context, question string, img image.Image, flags intent.Flags) (answer string, bundle *assistant.SignalBundle, update assistant.SessionUpdate, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	bundle, update = s.aggregator.Aggregate(ctx, assistant.Request{Question: question, Image: img, Flags: flags})
	if bundle == nil {
		return "", nil, update, fmt.Errorf("aggregation produced no signals")
	}
	return s.composer.Compose(ctx, bundle, flags), bundle, update, nil
}

func (s *assistantService) fallbackAnswer(ctx context.Context, img image.Image) (answer string) {
	if img == nil || s.describer == nil {
		return ErrorFallback
	}
	defer func() {
		if recover() != nil {
			answer = ErrorFallback
		}
	}()
	return s.describer.Describe(ctx, img)
}

func (s *assistantService) loadSession(ctx context.Context, sessionID string) *store.Session {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		s.logger.Warn("ASSISTANT", "Failed to load session", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
	if sess == nil {
		sess = store.NewSession(sessionID)
	}
	return sess
}

// storeUpload replaces the session's image. An undecodable upload clears
// the slot rather than keeping a stale image.
func (s *assistantService) storeUpload(ctx context.Context, sess *store.Session, req *dto.AskRequest) {
	img, format, err := decodeUpload(req.Image)
	if err != nil {
		s.logger.Warn("ASSISTANT", "Failed to load uploaded image", map[string]interface{}{
			"session_id": sess.ID,
			"file":       req.ImageName,
			"error":      err.Error(),
		})
		_ = s.images.Delete(ctx, sess.ID)
		sess.HasImage = false
		return
	}

	if err := s.images.Put(ctx, sess.ID, img); err != nil {
		s.logger.Warn("ASSISTANT", "Failed to store uploaded image", map[string]interface{}{"error": err.Error()})
		sess.HasImage = false
		return
	}
	sess.HasImage = true
	s.logger.Info("ASSISTANT", "Stored latest uploaded image", map[string]interface{}{
		"session_id": sess.ID,
		"format":     format,
		"bounds":     img.Bounds().String(),
	})
}

// decodeUpload reads the header first so oversized images are rejected
// before any pixel buffer is allocated.
func decodeUpload(data []byte) (image.Image, string, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > MaxImagePixels {
		return nil, "", fmt.Errorf("image too large: %dx%d exceeds %d pixels", cfg.Width, cfg.Height, MaxImagePixels)
	}
	return image.Decode(bytes.NewReader(data))
}

func applyUpdate(sess *store.Session, u assistant.SessionUpdate) {
	if u.LastASIN != "" {
		sess.LastASIN = u.LastASIN
	}
	if u.SetAgentText {
		sess.LastAgentText = u.LastAgentText
	}
	sess.UpdatedAt = time.Now()
}

func (s *assistantService) publish(ev events.QueryAnswered) {
	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := s.publisher.Publish(s.topicName, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		s.logger.Warn("ASSISTANT", "Failed to publish event", map[string]interface{}{"error": err.Error()})
	}
}
