package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// Ollama talks to a local Ollama server through its native chat API.
type Ollama struct {
	client    *api.Client
	model     string
	maxTokens int
	timeout   time.Duration
}

func NewOllama(cfg Config) (*Ollama, error) {
	base := cfg.BaseURL
	if base == "" {
		base = "http://localhost:11434"
	}
	// The native client wants the server root, not the OpenAI-compatible path.
	base = strings.TrimSuffix(strings.TrimSuffix(base, "/"), "/v1")
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("ollama: parse base url %q: %w", base, err)
	}
	if cfg.Model == "" {
		cfg.Model = "qwen2.5:7b"
	}
	return &Ollama{
		client:    api.NewClient(u, &http.Client{Timeout: cfg.Timeout}),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
	}, nil
}

func (c *Ollama) Name() string { return "ollama/" + c.model }

func (c *Ollama) Send(ctx context.Context, msgs []Message, p Params) (string, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	stream := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: make([]api.Message, 0, len(msgs)),
		Stream:   &stream,
		Format:   []byte(`"json"`),
		Options:  map[string]any{"temperature": p.Temperature},
	}
	if c.maxTokens > 0 {
		req.Options["num_predict"] = c.maxTokens
	}
	for _, m := range msgs {
		req.Messages = append(req.Messages, api.Message{Role: string(m.Role), Content: m.Content})
	}

	var resp api.ChatResponse
	err := c.client.Chat(ctx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	if strings.TrimSpace(resp.Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return resp.Message.Content, nil
}
