package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"flatmate/internal/config"

	openai "github.com/sashabaranov/go-openai"
)

const llmService = "openai"

var errNoChoices = errors.New("no choices in completion response")

// OpenAIClient handles OpenAI-compatible API interactions
type OpenAIClient struct {
	config *config.OpenAIConfig
	client *openai.Client
}

// NewOpenAIClient creates a client for the configured base URL
func NewOpenAIClient(cfg *config.OpenAIConfig) *OpenAIClient {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.APIBase != "" {
		clientConfig.BaseURL = cfg.APIBase
	}
	clientConfig.HTTPClient = &http.Client{
		Timeout: time.Duration(cfg.Timeout) * time.Second,
	}

	return &OpenAIClient{
		config: cfg,
		client: openai.NewClientWithConfig(clientConfig),
	}
}

// IsEnabled returns whether the client is configured and ready
func (c *OpenAIClient) IsEnabled() bool {
	return c != nil && c.config.Enabled
}

// Complete runs a chat completion over the given history
func (c *OpenAIClient) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	if !c.IsEnabled() {
		return "", &ExternalServiceError{Service: llmService, Op: "complete", Err: ErrLLMDisabled}
	}

	req := openai.ChatCompletionRequest{
		Model:       c.config.ChatModel,
		Messages:    toOpenAIMessages(messages),
		Temperature: float32(c.config.ChatTemperature),
		MaxTokens:   c.config.ChatMaxTokens,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", &ExternalServiceError{Service: llmService, Op: "complete", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &ExternalServiceError{Service: llmService, Op: "complete", Err: errNoChoices}
	}
	return resp.Choices[0].Message.Content, nil
}

// CompleteJSON asks the model to answer a single prompt in JSON object mode
func (c *OpenAIClient) CompleteJSON(ctx context.Context, prompt string) (string, error) {
	if !c.IsEnabled() {
		return "", &ExternalServiceError{Service: llmService, Op: "complete_json", Err: ErrLLMDisabled}
	}

	req := openai.ChatCompletionRequest{
		Model: c.config.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: float32(c.config.ChatTemperature),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", &ExternalServiceError{Service: llmService, Op: "complete_json", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &ExternalServiceError{Service: llmService, Op: "complete_json", Err: errNoChoices}
	}
	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}
