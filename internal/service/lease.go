package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"flatmate/internal/model"

	"github.com/sirupsen/logrus"
)

var (
	// ErrEmptyLease is returned when no lease text is supplied
	ErrEmptyLease = errors.New("lease text must not be empty")
	// ErrLeaseAnalysisUnavailable is returned when the language model cannot analyze the lease
	ErrLeaseAnalysisUnavailable = errors.New("lease analysis is temporarily unavailable")
)

const leasePrompt = `You are a lease contract analysis expert. Please analyze the following lease agreement and provide:
1. A summary of key terms (rent, duration, deposit, etc.)
2. Any potentially problematic clauses
3. Important deadlines or dates to be aware of
4. Overall assessment of fairness

Lease text: %s`

// LeaseService analyzes rental contracts with the language model
type LeaseService struct {
	llm LLMClient
	log logrus.FieldLogger
}

// NewLeaseService creates a lease service
func NewLeaseService(llm LLMClient, log logrus.FieldLogger) *LeaseService {
	return &LeaseService{llm: llm, log: log}
}

// AnalyzeLease returns the model's analysis of text. There is no offline fallback.
func (s *LeaseService) AnalyzeLease(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyLease
	}
	if s.llm == nil || !s.llm.IsEnabled() {
		return "", ErrLeaseAnalysisUnavailable
	}

	analysis, err := s.llm.Complete(ctx, []ChatMessage{{Role: model.RoleUser, Content: fmt.Sprintf(leasePrompt, text)}})
	if err != nil {
		s.log.WithError(err).Error("Lease analysis failed")
		return "", fmt.Errorf("%w: %v", ErrLeaseAnalysisUnavailable, err)
	}
	if strings.TrimSpace(analysis) == "" {
		return "", ErrLeaseAnalysisUnavailable
	}
	return analysis, nil
}
