// Package adapter wraps the OpenAI-compatible chat completion endpoint
// the agent talks to. The default endpoint is DashScope's
// compatible-mode API; anything speaking the OpenAI wire format works.
package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"askbob-medical/backend/pkg/config"
	"askbob-medical/backend/pkg/errors"
	"askbob-medical/backend/pkg/logger"
)

const maxRetries = 3

// Client is the chat completion contract the agent depends on
type Client interface {
	Chat(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// LLMClient calls a chat completion endpoint with retry and backoff.
// In stub mode no network call is made; the user message is echoed
// back, which keeps the full pipeline runnable offline.
type LLMClient struct {
	client      *openai.Client
	model       string
	temperature float32
	stub        bool
	logger      *zap.Logger
}

// NewLLMClient builds a client from the application configuration
func NewLLMClient(cfg *config.Config) *LLMClient {
	apiKey := cfg.LLMAPIKey
	if apiKey == "" {
		// The endpoint may not check keys (local inference servers)
		apiKey = "dummy-key"
	}
	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = cfg.LLMBaseURL

	return &LLMClient{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.LLMModel,
		temperature: float32(cfg.LLMTemperature),
		stub:        cfg.LLMStub,
		logger:      logger.Get(),
	}
}

// Chat sends one system+user exchange and returns the assistant content
func (c *LLMClient) Chat(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	if c.stub {
		return fmt.Sprintf("(stub) %s", userMessage), nil
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
		Temperature: c.temperature,
	}

	var resp openai.ChatCompletionResponse
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * time.Second
			c.logger.Warn("retrying LLM request",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff))
			select {
			case <-ctx.Done():
				return "", errors.NewLLMRequestFailed(c.model, attempt, ctx.Err())
			case <-time.After(backoff):
			}
		}

		resp, err = c.client.CreateChatCompletion(ctx, req)
		if err == nil {
			break
		}
		c.logger.Error("LLM request failed",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.String("model", c.model))
	}
	if err != nil {
		return "", errors.NewLLMRequestFailed(c.model, maxRetries, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errors.ErrLLMEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
