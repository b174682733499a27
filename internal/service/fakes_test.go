package service

import (
	"context"
	"sync"
)

// fakeLLM is a scripted LLMClient
type fakeLLM struct {
	mu sync.Mutex

	enabled   bool
	reply     string
	err       error
	jsonReply string
	jsonErr   error

	completeCalls int
	jsonCalls     int
	lastHistory   []ChatMessage
}

func (f *fakeLLM) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completeCalls++
	f.lastHistory = append([]ChatMessage(nil), messages...)
	return f.reply, f.err
}

func (f *fakeLLM) CompleteJSON(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jsonCalls++
	return f.jsonReply, f.jsonErr
}

func (f *fakeLLM) IsEnabled() bool {
	return f.enabled
}

func strPtr(s string) *string { return &s }
func float64Ptr(v float64) *float64 { return &v }
func intPtr(v int) *int { return &v }
