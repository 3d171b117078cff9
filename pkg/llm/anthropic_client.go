package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

// anthropicMaxTokens bounds completion length for extraction and generation calls.
const anthropicMaxTokens = 4096

// AnthropicClient provides completions against the Anthropic Messages API.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
	logger *zap.Logger
}

// AnthropicConfig holds configuration for creating an Anthropic client.
type AnthropicConfig struct {
	Model  string // Model name, e.g., "claude-sonnet-4-5"
	APIKey string
}

// NewAnthropicClient creates a new Anthropic-backed client.
func NewAnthropicClient(cfg *AnthropicConfig, logger *zap.Logger) (*AnthropicClient, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	return &AnthropicClient{
		client: anthropic.NewClient(cfg.APIKey),
		model:  cfg.Model,
		logger: logger.Named("llm"),
	}, nil
}

// Complete sends a prompt and returns the model's raw text output.
func (c *AnthropicClient) Complete(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error) {
	temp := float32(temperature)

	c.logger.Debug("model request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(prompt)),
		zap.Float64("temperature", temperature))

	start := time.Now()

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(c.model),
		System:      systemMessage,
		MaxTokens:   anthropicMaxTokens,
		Temperature: &temp,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(prompt),
		},
	})
	if err != nil {
		c.logger.Error("model request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", ClassifyError(err)
	}

	text := resp.GetFirstContentText()
	if text == "" {
		return "", NewError(ErrorTypeUnknown, "no text content in response", false, nil)
	}

	c.logger.Info("model request completed",
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)))

	return text, nil
}

// Model returns the configured model name.
func (c *AnthropicClient) Model() string {
	return c.model
}
