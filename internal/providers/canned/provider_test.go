package canned

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outreach/outreach-chat/internal/providers"
)

func TestCompleteEchoesLastUserMessage(t *testing.T) {
	p := NewProvider("")
	resp, err := p.Complete(context.Background(), providers.CompletionRequest{
		Messages: []providers.Message{
			{Role: providers.RoleUser, Content: "first"},
			{Role: providers.RoleAssistant, Content: "ok"},
			{Role: providers.RoleUser, Content: "draft a follow-up"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, providers.RoleAssistant, resp.Message.Role)
	assert.Equal(t, "You said: draft a follow-up", resp.Message.Content)
	assert.Equal(t, ModelName, resp.Model)
	assert.NotEmpty(t, resp.ID)
}

func TestCompleteFixedTemplate(t *testing.T) {
	p := NewProvider("Noted.")
	resp, err := p.Complete(context.Background(), providers.CompletionRequest{
		Messages: []providers.Message{{Role: providers.RoleUser, Content: "hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Noted.", resp.Message.Content)
}

func TestCompleteCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProvider("").Complete(ctx, providers.CompletionRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}
