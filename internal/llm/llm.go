package llm

import (
	"context"
	"fmt"

	"ai-diet-planner/internal/config"
	"ai-diet-planner/internal/shared"
)

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// TextGenerator is an interface for generating text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (ContentResponse, error)
}

// Client is a TextGenerator holding resources that must be released.
type Client interface {
	TextGenerator
	Close() error
}

// GenerationConfig holds the sampling parameters sent with every prompt.
type GenerationConfig struct {
	Model           string
	Temperature     float32
	TopK            int32
	TopP            float32
	MaxOutputTokens int32
}

// GenerationConfigFromConfig picks the model of the configured provider.
func GenerationConfigFromConfig(cfg *config.Config) GenerationConfig {
	return GenerationConfig{
		Model:           cfg.Model(),
		Temperature:     cfg.Temperature,
		TopK:            cfg.TopK,
		TopP:            cfg.TopP,
		MaxOutputTokens: cfg.MaxOutputTokens,
	}
}

// NewFromConfig creates the client for cfg.LLMProvider.
func NewFromConfig(ctx context.Context, cfg *config.Config) (Client, error) {
	gen := GenerationConfigFromConfig(cfg)
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg.GeminiAPIKey, gen)
	case config.ProviderGroq:
		return NewGroqClient(cfg.GroqAPIKey, gen), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", cfg.LLMProvider)
	}
}
