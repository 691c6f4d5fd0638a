package llm

import (
	"context"
	"testing"
)

func TestNewProviders(t *testing.T) {
	ctx := context.Background()

	c, err := New(ctx, Config{})
	if err != nil || c != nil {
		t.Fatalf("empty provider: got %v, %v; want nil, nil", c, err)
	}
	if _, err := New(ctx, Config{Provider: "carrier-pigeon"}); err == nil {
		t.Error("unknown provider should fail")
	}
	if _, err := New(ctx, Config{Provider: "openai"}); err == nil {
		t.Error("openai without api key should fail")
	}
	if _, err := New(ctx, Config{Provider: "gemini"}); err == nil {
		t.Error("gemini without api key should fail")
	}

	c, err = New(ctx, Config{Provider: "ollama", BaseURL: "http://localhost:11434/v1/", Model: "llama3"})
	if err != nil {
		t.Fatalf("ollama: %v", err)
	}
	if got := c.Name(); got != "ollama/llama3" {
		t.Errorf("Name() = %q", got)
	}

	c, err = New(ctx, Config{Provider: "OpenRouter", APIKey: "k", Model: "deepseek/deepseek-chat"})
	if err != nil {
		t.Fatalf("openrouter: %v", err)
	}
	if got := c.Name(); got != "openai/deepseek/deepseek-chat" {
		t.Errorf("Name() = %q", got)
	}
}

func TestOpenAIRole(t *testing.T) {
	cases := map[Role]string{RoleSystem: "system", RoleUser: "user", RoleAssistant: "assistant", "other": "user"}
	for in, want := range cases {
		if got := openAIRole(in); got != want {
			t.Errorf("openAIRole(%q) = %q, want %q", in, got, want)
		}
	}
}
