package provider

import (
	"context"
	"errors"
	"time"

	"github.com/clipexplain/clipexplain/config"
	"github.com/clipexplain/clipexplain/models"
	openai_provider "github.com/clipexplain/clipexplain/provider/openai"
)

// Client represents different LLM providers.
type Client string

const (
	OpenAI    Client = "openai"
	Anthropic Client = "anthropic"
)

// KeywordProvider is the interface the keyword deriver consumes. A
// malformed or schema-violating model response comes back as an error,
// never as a panic.
type KeywordProvider interface {
	GenerateKeywords(ctx context.Context, conversationContext, videoContent string) (models.KeywordSet, error)
}

// NewKeywordProvider creates an LLM client from configuration.
func NewKeywordProvider(cfg config.LLMConfig) (KeywordProvider, error) {
	switch Client(cfg.Type) {
	case OpenAI:
		if cfg.APIKey == "" {
			return nil, errors.New("llm api key not set")
		}
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		return openai_provider.NewClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Temperature, cfg.MaxTokens, timeout), nil
	case Anthropic:
		return nil, errors.New("anthropic client not implemented yet")
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
