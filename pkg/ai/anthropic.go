package ai

import (
	"context"
	"fmt"
)

// AnthropicConfig placeholder for anthropic integration configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string
}

// AnthropicCoach is a stub implementation that can be expanded once the SDK is available.
type AnthropicCoach struct{}

// NewAnthropicCoach constructs a new stub coach.
func NewAnthropicCoach(cfg AnthropicConfig) (*AnthropicCoach, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	return &AnthropicCoach{}, nil
}

// Analyze is not yet implemented for Anthropic models.
func (a *AnthropicCoach) Analyze(ctx context.Context, input AnalysisInput) (AnalysisResult, error) {
	return AnalysisResult{}, fmt.Errorf("anthropic coach not implemented")
}

// Reply is not yet implemented for Anthropic models.
func (a *AnthropicCoach) Reply(ctx context.Context, input ReplyInput) (string, error) {
	return "", fmt.Errorf("anthropic coach not implemented")
}

// GeneratePractice is not yet implemented for Anthropic models.
func (a *AnthropicCoach) GeneratePractice(ctx context.Context, input PracticeInput) ([]PracticeItem, error) {
	return nil, fmt.Errorf("anthropic coach not implemented")
}
