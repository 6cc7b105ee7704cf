package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// mailbox keeps only the newest snapshot and wakes a forwarder. Publishers
// never block, so a subscriber callback may run on the program's own
// goroutine without deadlocking Program.Send.
type mailbox[T any] struct {
	mu     sync.Mutex
	latest T
	full   bool
	notify chan struct{}
}

func newMailbox[T any]() *mailbox[T] {
	return &mailbox[T]{notify: make(chan struct{}, 1)}
}

func (b *mailbox[T]) put(v T) {
	b.mu.Lock()
	b.latest = v
	b.full = true
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
}

func (b *mailbox[T]) take() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	v, ok := b.latest, b.full
	var zero T
	b.latest = zero
	b.full = false
	return v, ok
}

// forward delivers snapshots to send until ctx is done
func (b *mailbox[T]) forward(ctx context.Context, send func(tea.Msg), wrap func(T) tea.Msg) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.notify:
			if v, ok := b.take(); ok {
				send(wrap(v))
			}
		}
	}
}
