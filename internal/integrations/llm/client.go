// Package llm talks to an OpenAI-compatible chat completion endpoint. It
// provides the optional intent labeler and the generic reply generator.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"support-chatbot/internal/common/config"
	"support-chatbot/internal/common/logger"
)

const (
	Name = "openai"

	defaultModel = "gpt-4o-mini"
)

// Client wraps a chat completion client with the configured model.
type Client struct {
	client      openai.Client
	model       string
	temperature float64
	logger      logger.Logger
}

func NewClient(cfg config.AIConfig, log logger.Logger, opts ...option.RequestOption) *Client {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	reqOpts = append(reqOpts, opts...)

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	return &Client{
		client:      openai.NewClient(reqOpts...),
		model:       model,
		temperature: cfg.Temperature,
		logger:      logger.ForComponent(log, "llm"),
	}
}

// complete sends one system and one user message and returns the first
// choice's text.
func (c *Client) complete(ctx context.Context, system, user string, maxTokens int64) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature:         openai.Float(c.temperature),
		MaxCompletionTokens: openai.Int(maxTokens),
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	c.logger.Debug("Chat completion finished", map[string]interface{}{
		"model":            c.model,
		"durationMs":       time.Since(start).Milliseconds(),
		"promptTokens":     resp.Usage.PromptTokens,
		"completionTokens": resp.Usage.CompletionTokens,
	})
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
