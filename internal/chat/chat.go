// Package chat holds the client-side state of the assistant chat: the session
// directory shown in the sidebar and the controller for the open conversation.
// All server state is reached through a Transport; snapshots are pushed to
// subscribers after every change.
package chat

import (
	"context"
	"errors"
	"sync"

	"github.com/outreach/outreach-chat/internal/models"
)

var (
	// ErrSendInFlight is returned when a message is submitted for a session
	// that already has one on the wire
	ErrSendInFlight = errors.New("a message is already being sent for this session")
	// ErrUnknownSession is returned when selecting an id the directory does not list
	ErrUnknownSession = errors.New("session is not in the directory")
)

// Transport is the remote conversational-session service
type Transport interface {
	ListSessions(ctx context.Context) ([]models.Session, error)
	CreateSession(ctx context.Context, req models.CreateSessionRequest) (*models.Session, error)
	GetSession(ctx context.Context, id string) (*models.Session, error)
	SendMessage(ctx context.Context, id, content string) (*models.Session, error)
}

// State is the controller's position in the send lifecycle
type State int

const (
	// StateEmpty means no session is open
	StateEmpty State = iota
	// StateViewing means a session is open and idle
	StateViewing
	// StateSending means the open session has a submission in flight
	StateSending
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateViewing:
		return "viewing"
	case StateSending:
		return "sending"
	default:
		return "unknown"
	}
}

// subscribers fans snapshots out to registered callbacks
type subscribers[T any] struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(T)
}

func (s *subscribers[T]) add(fn func(T)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func(T))
	}
	id := s.next
	s.next++
	s.fns[id] = fn

	return func() {
		s.mu.Lock()
		delete(s.fns, id)
		s.mu.Unlock()
	}
}

func (s *subscribers[T]) publish(v T) {
	s.mu.Lock()
	fns := make([]func(T), 0, len(s.fns))
	for i := 0; i < s.next; i++ {
		if fn, ok := s.fns[i]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

func cloneSessions(in []models.Session) []models.Session {
	out := make([]models.Session, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
