package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailboxKeepsLatest(t *testing.T) {
	b := newMailbox[int]()
	b.put(1)
	b.put(2)
	b.put(3)

	v, ok := b.take()
	require.True(t, ok)
	assert.Equal(t, 3, v)

	_, ok = b.take()
	assert.False(t, ok)
}

func TestMailboxForward(t *testing.T) {
	b := newMailbox[string]()
	got := make(chan tea.Msg, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.forward(ctx, func(m tea.Msg) { got <- m }, func(s string) tea.Msg { return s })

	b.put("snapshot")
	select {
	case m := <-got:
		assert.Equal(t, "snapshot", m)
	case <-time.After(2 * time.Second):
		t.Fatal("snapshot was not forwarded")
	}
}
