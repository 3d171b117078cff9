package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient provides completions against OpenAI-compatible endpoints.
type OpenAIClient struct {
	client   *openai.Client
	endpoint string
	model    string
	logger   *zap.Logger
}

// OpenAIConfig holds configuration for creating an OpenAI-compatible client.
type OpenAIConfig struct {
	Endpoint string // Base URL, e.g., "https://api.openai.com/v1"
	Model    string // Model name, e.g., "gpt-4o"
	APIKey   string // Optional for local endpoints
}

// NewOpenAIClient creates a new OpenAI-compatible client.
func NewOpenAIClient(cfg *OpenAIConfig, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")

	return &OpenAIClient{
		client:   openai.NewClientWithConfig(clientConfig),
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		logger:   logger.Named("llm"),
	}, nil
}

// Complete sends a prompt and returns the model's raw text output.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}

	c.logger.Debug("model request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(prompt)),
		zap.Float64("temperature", temperature))

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: float32(temperature),
	})
	if err != nil {
		c.logger.Error("model request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", ClassifyError(err)
	}

	if len(resp.Choices) == 0 {
		return "", NewError(ErrorTypeUnknown, "no choices in response", false, nil)
	}

	c.logger.Info("model request completed",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return resp.Choices[0].Message.Content, nil
}

// Model returns the configured model name.
func (c *OpenAIClient) Model() string {
	return c.model
}
