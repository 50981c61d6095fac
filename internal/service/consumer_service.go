package service

import (
	"context"
	"encoding/json"

	"ai-shopping-assistant-be/internal/model"
	"ai-shopping-assistant-be/internal/pkg/logger"
	"ai-shopping-assistant-be/internal/repository/contract"
	"ai-shopping-assistant-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains QUERY_ANSWERED messages from the in-process bus,
// persists a QueryLog for each and forwards it to the external bus when one
// is configured.
type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	logs       contract.QueryLogRepository
	forward    events.Publisher // nil when NATS is not configured
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	logs contract.QueryLogRepository,
	forward events.Publisher,
	logger logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		logs:       logs,
		forward:    forward,
		logger:     logger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	ctx := msg.Context()

	var ev events.QueryAnswered
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		cs.logger.Error("CONSUMER", "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // never retry a malformed message
		return
	}

	// Query logs are diagnostic; a failed write is logged and dropped.
	if err := cs.logs.Create(ctx, toQueryLog(ev)); err != nil {
		cs.logger.Error("CONSUMER", "Failed to persist query log", map[string]interface{}{
			"session_id": ev.SessionID,
			"error":      err.Error(),
		})
	}

	if cs.forward != nil {
		if err := cs.forward.Publish(ctx, ev); err != nil {
			cs.logger.Warn("CONSUMER", "Failed to forward event", map[string]interface{}{"error": err.Error()})
		}
	}

	msg.Ack()
}

func toQueryLog(ev events.QueryAnswered) *model.QueryLog {
	intents, err := json.Marshal(ev.Intents)
	if err != nil || ev.Intents == nil {
		intents = []byte("[]")
	}
	return &model.QueryLog{
		Id:        uuid.New(),
		SessionId: ev.SessionID,
		Question:  ev.Question,
		Answer:    ev.Answer,
		Intents:   datatypes.JSON(intents),
		Branch:    ev.Branch,
		ASIN:      ev.ASIN,
		HasImage:  ev.HasImage,
		LatencyMs: ev.LatencyMs,
	}
}
