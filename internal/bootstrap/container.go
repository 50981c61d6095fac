package bootstrap

import (
	"context"
	"log"
	"time"

	"ai-shopping-assistant-be/internal/config"
	"ai-shopping-assistant-be/internal/controller"
	"ai-shopping-assistant-be/internal/pkg/logger"
	"ai-shopping-assistant-be/internal/repository/contract"
	"ai-shopping-assistant-be/internal/repository/implementation"
	"ai-shopping-assistant-be/internal/repository/memory"
	redisRepo "ai-shopping-assistant-be/internal/repository/redis"
	"ai-shopping-assistant-be/internal/service"
	"ai-shopping-assistant-be/pkg/agent"
	"ai-shopping-assistant-be/pkg/assistant"
	"ai-shopping-assistant-be/pkg/embedding"
	"ai-shopping-assistant-be/pkg/enrichment"
	"ai-shopping-assistant-be/pkg/events"
	"ai-shopping-assistant-be/pkg/llm/factory"
	"ai-shopping-assistant-be/pkg/llm/ollama"
	"ai-shopping-assistant-be/pkg/reviews"
	"ai-shopping-assistant-be/pkg/vision"
	"ai-shopping-assistant-be/pkg/vision/tesseract"

	pktNats "ai-shopping-assistant-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	sessionTTL = 24 * time.Hour
	imageTTL   = time.Hour
)

type Container struct {
	// Controllers
	AssistantController controller.IAssistantController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger

	closers []func()
}

// Close releases connections opened by NewContainer.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c := &Container{Logger: sysLogger}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. AI Providers
	embeddingProvider := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
	log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		llmBaseURL(cfg),
		llmAPIKey(cfg),
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Review index
	reviewStore, err := reviews.NewStore(db)
	if err != nil {
		log.Fatalf("[FATAL] %v (run cmd/migrate and cmd/seed first)", err)
	}
	reviewEngine := reviews.NewEngine(reviewStore, embeddingProvider, llmProvider, cfg.Ai.ReviewTopK, sysLogger)

	// 5. Vision
	var captioner vision.Captioner
	if cfg.Vision.CaptionModel != "" {
		captionProvider := ollama.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Vision.CaptionModel)
		captioner = vision.NewLLMCaptioner(captionProvider, cfg.Vision.CaptionModel)
		log.Printf("[INFO] Using Caption Model: %s", cfg.Vision.CaptionModel)
	} else {
		log.Printf("[WARN] IMAGE_CAPTION_MODEL is empty, image captioning disabled")
	}

	var recognizer vision.TextRecognizer
	if cfg.Vision.OCREnabled {
		recognizer = tesseract.NewRecognizer()
	}
	var ocrLogger logger.ILogger
	if cfg.Vision.OCRDebug {
		ocrLogger = logger.NewIsolatedLogger(cfg.Vision.OCRLogPath)
	}
	visualBuilder := vision.NewBuilder(captioner, vision.NewBrandDetector(recognizer, ocrLogger), sysLogger)

	// 6. Pipeline
	resolver := enrichment.NewResolver(enrichment.NewAmazonBackend(""), sysLogger)
	shoppingAgent := agent.New(llmProvider, agent.ShoppingTools(captioner, reviewEngine), cfg.Ai.AgentMaxIterations, sysLogger)
	aggregator := assistant.NewAggregator(visualBuilder, resolver, reviewEngine, shoppingAgent, cfg.Ai.ForceAgentForImage, sysLogger)
	composer := assistant.NewComposer(resolver, sysLogger)

	// 7. Sessions
	sessionRepo := newSessionRepository(cfg, c)
	imageRepo := memory.NewImageRepository(imageTTL)

	// 8. Events
	var forward events.Publisher
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			forward = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	queryLogRepo := implementation.NewQueryLogRepository(db)
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.App.EventsTopic, queryLogRepo, forward, sysLogger)

	assistantService := service.NewAssistantService(
		aggregator,
		composer,
		visualBuilder,
		sessionRepo,
		imageRepo,
		pubSub,
		cfg.App.EventsTopic,
		sysLogger,
	)

	// 9. Controllers
	c.AssistantController = controller.NewAssistantController(assistantService, cfg.App.FrontendDir)
	return c
}

func newSessionRepository(cfg *config.Config, c *Container) contract.SessionRepository {
	if cfg.Session.Store != "redis" {
		return memory.NewSessionRepository(sessionTTL)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Falling back to memory sessions", err)
		_ = rdb.Close()
		return memory.NewSessionRepository(sessionTTL)
	}
	c.closers = append(c.closers, func() { _ = rdb.Close() })
	return redisRepo.NewSessionRepository(rdb, sessionTTL)
}

func llmBaseURL(cfg *config.Config) string {
	if cfg.Ai.LLMBaseURL != "" {
		return cfg.Ai.LLMBaseURL
	}
	if cfg.Ai.LLMProvider == "ollama" {
		return cfg.Ai.OllamaBaseURL
	}
	return ""
}

func llmAPIKey(cfg *config.Config) string {
	switch cfg.Ai.LLMProvider {
	case "groq":
		return cfg.Keys.Groq
	case "huggingface":
		return cfg.Keys.HuggingFace
	}
	return ""
}
