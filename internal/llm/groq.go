package llm

import (
	"context"
	"fmt"

	"ai-diet-planner/internal/shared"

	"github.com/openai/openai-go/v3"
	oaioption "github.com/openai/openai-go/v3/option"
	oaishared "github.com/openai/openai-go/v3/shared"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// GroqClient talks to Groq through its OpenAI-compatible chat completions API.
type GroqClient struct {
	client openai.Client
	gen    GenerationConfig
}

// NewGroqClient creates a new Groq API client. The SDK's automatic retries
// are disabled; a failed call is reported to the caller once.
func NewGroqClient(apiKey string, gen GenerationConfig, opts ...oaioption.RequestOption) *GroqClient {
	base := []oaioption.RequestOption{
		oaioption.WithAPIKey(apiKey),
		oaioption.WithBaseURL(groqBaseURL),
		oaioption.WithMaxRetries(0),
	}
	return &GroqClient{
		client: openai.NewClient(append(base, opts...)...),
		gen:    gen,
	}
}

// GenerateContent sends a prompt to the Groq model and returns the generated text.
func (c *GroqClient) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.gen.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(float64(c.gen.Temperature)),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &oaishared.ResponseFormatJSONObjectParam{},
		},
	}
	if c.gen.TopP > 0 {
		params.TopP = openai.Float(float64(c.gen.TopP))
	}
	if c.gen.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(c.gen.MaxOutputTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return ContentResponse{}, fmt.Errorf("groq api error: %w", err)
	}

	usage := shared.TokenUsage{
		Model:            resp.Model,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}
	if usage.Model == "" {
		usage.Model = c.gen.Model
	}

	if len(resp.Choices) == 0 {
		return ContentResponse{Usage: usage}, fmt.Errorf("no content generated")
	}

	return ContentResponse{Content: resp.Choices[0].Message.Content, Usage: usage}, nil
}

// Close is a no-op; the HTTP client needs no teardown.
func (c *GroqClient) Close() error {
	return nil
}
