package provider

import (
	"context"
	"errors"

	"github.com/harborwatch/harborwatch/config"
	anthropic_provider "github.com/harborwatch/harborwatch/provider/anthropic"
)

// Client represents different LLM providers
type Client string

const (
	Anthropic Client = "anthropic"
	OpenAI    Client = "openai"
)

// Message is a single role-tagged turn sent to the completion API.
type Message = anthropic_provider.Message

// Provider is the interface that all LLM implementations must satisfy.
// Options recognize "max_tokens" (int) to override the configured bound
// per call.
type Provider interface {
	Complete(ctx context.Context, messages []Message, options map[string]interface{}) (string, error)
}

// NewProvider creates a new LLM client based on the provided configuration
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	switch Client(cfg.Type) {
	case Anthropic:
		if cfg.APIKey == "" {
			return nil, errors.New("anthropic api key not configured")
		}
		return anthropic_provider.NewClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.MaxTokens, cfg.Timeout), nil
	case OpenAI:
		return nil, errors.New("openai client not implemented yet")
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
