package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"ai-shopping-assistant-be/internal/pkg/logger"
	"ai-shopping-assistant-be/pkg/embedding"
	"ai-shopping-assistant-be/pkg/llm"
)

const (
	DefaultTopK = 5

	conversationTemplate = "You are a helpful assistant. Use the conversation history\n" +
		"and then answer the user's latest query.\n\n" +
		"Conversation History:\n%s\n\n" +
		"User: %s\nAssistant:"

	contextTemplate = "Context information is below.\n" +
		"---------------------\n%s\n---------------------\n" +
		"Given the context information and not prior knowledge, answer the query.\n" +
		"Query: %s\nAnswer: "
)

// Answerer answers a free-form question from the review corpus.
type Answerer interface {
	Answer(ctx context.Context, prompt string) (string, error)
}

type turn struct {
	question string
	answer   string
}

// Engine is retrieval-augmented answering over the review index with one
// conversation buffer shared by every caller.
type Engine struct {
	retriever Retriever
	embedder  embedding.EmbeddingProvider
	llm       llm.LLMProvider
	topK      int
	logger    logger.ILogger

	mu      sync.Mutex
	history []turn
}

func NewEngine(retriever Retriever, embedder embedding.EmbeddingProvider, provider llm.LLMProvider, topK int, logger logger.ILogger) *Engine {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Engine{
		retriever: retriever,
		embedder:  embedder,
		llm:       provider,
		topK:      topK,
		logger:    logger,
	}
}

// Answer wraps the prompt in the conversation template, answers it from the
// retrieved reviews and records the exchange.
func (e *Engine) Answer(ctx context.Context, prompt string) (string, error) {
	full := fmt.Sprintf(conversationTemplate, e.historyText(), prompt)

	answer, err := e.Query(ctx, full)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	e.history = append(e.history, turn{question: prompt, answer: answer})
	e.mu.Unlock()
	return answer, nil
}

// Query answers one prompt from the top-k reviews without touching the
// conversation buffer.
func (e *Engine) Query(ctx context.Context, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", errors.New("empty query")
	}

	resp, err := e.embedder.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return "", fmt.Errorf("embedding query: %w", err)
	}

	found, err := e.retriever.Search(ctx, resp.Embedding.Values, e.topK)
	if err != nil {
		return "", err
	}

	e.logger.Debug("reviews", "retrieved reviews", map[string]interface{}{
		"count": len(found),
	})

	docs := make([]string, 0, len(found))
	for _, r := range found {
		docs = append(docs, r.Document)
	}

	out, err := e.llm.Generate(ctx, fmt.Sprintf(contextTemplate, strings.Join(docs, "\n\n"), query), llm.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("answering from reviews: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func (e *Engine) historyText() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	lines := make([]string, 0, len(e.history)*2)
	for _, t := range e.history {
		lines = append(lines, "Human: "+t.question, "AI: "+t.answer)
	}
	return strings.Join(lines, "\n")
}
