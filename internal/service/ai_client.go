package service

import (
	"context"
	"errors"
	"fmt"

	"flatmate/internal/model"
)

// ErrLLMDisabled is returned by LLM calls when no API key is configured
var ErrLLMDisabled = errors.New("language model is not configured")

// ChatMessage is a single turn sent to the language model
type ChatMessage struct {
	Role    model.Role
	Content string
}

// LLMClient is the interface for language model providers
type LLMClient interface {
	// Complete returns the assistant reply for the given history. An empty reply is not an error.
	Complete(ctx context.Context, messages []ChatMessage) (string, error)

	// CompleteJSON sends a single prompt and asks the model for a JSON object
	CompleteJSON(ctx context.Context, prompt string) (string, error)

	// IsEnabled returns whether the client is configured and ready
	IsEnabled() bool
}

// ExternalServiceError wraps a failure of a remote dependency
type ExternalServiceError struct {
	Service string
	Op      string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Service, e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// Ensure OpenAIClient implements LLMClient
var _ LLMClient = (*OpenAIClient)(nil)
