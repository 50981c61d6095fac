// Package llm is the provider-agnostic chat interface shared by the review
// engine, the agent and the image captioner.
package llm

import (
	"context"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn. Images holds encoded PNG/JPEG bytes and is only
// honored by vision-capable backends.
type Message struct {
	Role    string
	Content string
	Images  [][]byte
}

// NormalizeRole maps provider dialects ("model", "ai", "human") onto the
// three roles every backend accepts.
func NormalizeRole(role string) string {
	switch role {
	case "model", "ai":
		return RoleAssistant
	case "human", "":
		return RoleUser
	}
	return role
}

type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int    // 0 leaves the backend default
	Model       string // overrides the provider's model
	Stop        []string
}

// Resolve applies opts on top of defaults.
func Resolve(defaults Options, opts ...Option) Options {
	for _, opt := range opts {
		opt(&defaults)
	}
	return defaults
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// WithStop ends generation before any of the given sequences.
func WithStop(stop ...string) Option {
	return func(o *Options) {
		o.Stop = stop
	}
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single user prompt
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}
