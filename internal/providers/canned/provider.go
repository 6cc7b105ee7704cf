// Package canned answers without any network access. It backs local
// development and end-to-end tests.
package canned

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/outreach/outreach-chat/internal/providers"
)

// ModelName is reported as the model of every canned completion
const ModelName = "canned"

// Provider replies with a fixed template around the user's last message
type Provider struct {
	template string
}

// NewProvider creates a canned provider. The template receives the last
// user message through a single %s verb; an empty template uses the default.
func NewProvider(template string) *Provider {
	if template == "" {
		template = "You said: %s"
	}
	return &Provider{template: template}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "canned"
}

// Complete echoes the last user message through the template
func (p *Provider) Complete(ctx context.Context, req providers.CompletionRequest) (*providers.CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content := p.template
	if strings.Contains(p.template, "%s") {
		content = fmt.Sprintf(p.template, req.LastUserMessage())
	}

	return &providers.CompletionResponse{
		ID:           uuid.New().String(),
		Model:        ModelName,
		Message:      providers.Message{Role: providers.RoleAssistant, Content: content},
		FinishReason: "stop",
	}, nil
}

// ValidateConfig always succeeds
func (p *Provider) ValidateConfig() error {
	return nil
}
