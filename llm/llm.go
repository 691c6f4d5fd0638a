// Package llm defines the model client used by the plan orchestrator and
// its provider implementations. Clients send one request per call; retry
// policy belongs to the caller.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEmptyResponse is returned when a provider answers with no text.
var ErrEmptyResponse = errors.New("llm: empty response")

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Params are the per-request sampling parameters.
type Params struct {
	Temperature float64 `json:"temperature"`
}

// Client sends a conversation and returns the model's reply text.
type Client interface {
	Send(ctx context.Context, msgs []Message, p Params) (string, error)
	// Name identifies provider and model; it is part of cache fingerprints.
	Name() string
}

// Config selects and configures a provider. An empty Provider means no model.
type Config struct {
	Provider  string        `yaml:"provider" split_words:"true"`
	Model     string        `yaml:"model" split_words:"true"`
	BaseURL   string        `yaml:"base_url" split_words:"true"`
	APIKey    string        `yaml:"api_key" split_words:"true"`
	Timeout   time.Duration `yaml:"timeout" split_words:"true"`
	MaxTokens int           `yaml:"max_tokens" split_words:"true"`
}

const defaultTimeout = 2 * time.Minute

// New builds the configured client. It returns nil, nil when no provider is
// configured.
func New(ctx context.Context, cfg Config) (Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "none":
		return nil, nil
	case "openai", "openrouter", "deepseek":
		return NewOpenAI(cfg)
	case "gemini", "genai":
		return NewGemini(ctx, cfg)
	case "ollama":
		return NewOllama(cfg)
	}
	return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
