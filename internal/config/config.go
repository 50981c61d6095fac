package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Session  SessionConfig
	Keys     APIKeys
	Ai       AIConfig
	Vision   VisionConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Port               string `validate:"required"`
	Environment        string
	LogFilePath        string `validate:"required"`
	CorsAllowedOrigins string
	FrontendDir        string
	NatsURL            string
	RedisURL           string
	EventsTopic        string `validate:"required"`
}

type DatabaseConfig struct {
	Connection string `validate:"required"`
}

type SessionConfig struct {
	Secret string `validate:"required,min=8"`
	Store  string `validate:"oneof=memory redis"` // "memory" or "redis"
}

type APIKeys struct {
	Groq        string
	HuggingFace string
}

type AIConfig struct {
	LLMProvider        string `validate:"required"` // "ollama", "groq", "huggingface"
	LLMModel           string `validate:"required"`
	LLMBaseURL         string
	OllamaBaseURL      string
	EmbeddingModel     string
	ReviewTopK         int `validate:"min=1"`
	ForceAgentForImage bool
	AgentMaxIterations int `validate:"min=1"`
}

type VisionConfig struct {
	CaptionModel string
	OCREnabled   bool
	OCRDebug     bool
	OCRLogPath   string
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			FrontendDir:        getEnv("FRONTEND_DIR", "../frontend"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			EventsTopic:        getEnv("EVENTS_TOPIC", "QUERY_ANSWERED"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Session: SessionConfig{
			Secret: getEnv("SESSION_SECRET", ""),
			Store:  getEnv("SESSION_STORE", "memory"),
		},
		Keys: APIKeys{
			Groq:        getEnv("GROQ_API_KEY", ""),
			HuggingFace: getEnv("HUGGINGFACE_API_KEY", ""),
		},
		Ai: AIConfig{
			LLMProvider:        getEnv("LLM_PROVIDER", "groq"),
			LLMModel:           getEnv("LLM_MODEL", "llama3-70b-8192"),
			LLMBaseURL:         getEnv("LLM_BASE_URL", ""),
			OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			EmbeddingModel:     getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			ReviewTopK:         getEnvAsInt("REVIEW_TOP_K", 5),
			ForceAgentForImage: getEnvAsBool("FORCE_AGENT_FOR_IMAGE", false),
			AgentMaxIterations: getEnvAsInt("AGENT_MAX_ITERATIONS", 5),
		},
		Vision: VisionConfig{
			CaptionModel: getEnv("IMAGE_CAPTION_MODEL", "llava"),
			OCREnabled:   getEnvAsBool("OCR_ENABLED", true),
			OCRDebug:     getEnv("OCR_DEBUG", "") == "1",
			OCRLogPath:   getEnv("OCR_LOG_PATH", "logs/ocr.log"),
		},
		Tracing: TracingConfig{
			Enabled:     getEnv("OTEL_ENABLED", "") == "true",
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "ai-shopping-assistant-backend"),
		},
	}
}

// Validate reports missing credentials and malformed settings. A failure here
// is meant to stop the process before it serves a single request.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	switch c.Ai.LLMProvider {
	case "groq":
		if c.Keys.Groq == "" {
			return fmt.Errorf("missing GROQ_API_KEY in environment (.env)")
		}
	case "huggingface":
		if c.Keys.HuggingFace == "" {
			return fmt.Errorf("missing HUGGINGFACE_API_KEY in environment (.env)")
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	switch strings.ToLower(getEnv(key, "")) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return fallback
}
