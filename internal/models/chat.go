package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Role identifies who authored a message
type Role string

const (
	// RoleUser marks a turn typed by the signed-in user
	RoleUser Role = "user"
	// RoleAssistant marks a turn produced by the assistant service
	RoleAssistant Role = "assistant"
)

// Label is the speaker name shown above a turn. Unknown roles show their raw
// value.
func (r Role) Label() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// Message is one turn of a session transcript
type Message struct {
	Role      Role      `json:"role" db:"role"`
	Content   string    `json:"content" db:"content"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// Session is one conversation thread between a user and the assistant
type Session struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	Messages    []Message `json:"messages"`
	ContextType string    `json:"context_type,omitempty" db:"context_type"`
	ContextID   string    `json:"context_id,omitempty" db:"context_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// CreateSessionRequest carries the optional fields accepted when opening a session
type CreateSessionRequest struct {
	Title       string `json:"title,omitempty"`
	ContextType string `json:"contextType,omitempty"`
	ContextID   string `json:"contextId,omitempty"`
}

// SendMessageRequest is the body of a message submission
type SendMessageRequest struct {
	Content string `json:"content"`
}

// SessionsResponse wraps a session listing
type SessionsResponse struct {
	Sessions []Session `json:"sessions"`
}

// SessionResponse wraps a single session
type SessionResponse struct {
	Session Session `json:"session"`
}

// ErrorResponse is the body returned with non-2xx statuses
type ErrorResponse struct {
	Error string `json:"error"`
}

const previewLength = 50

// Clone returns a deep copy so the transcript can be handed out without
// exposing the holder's slice.
func (s Session) Clone() Session {
	out := s
	if s.Messages != nil {
		out.Messages = make([]Message, len(s.Messages))
		copy(out.Messages, s.Messages)
	}
	return out
}

// HasContext reports whether the session is linked to another entity
func (s Session) HasContext() bool {
	return s.ContextType != "" && s.ContextID != ""
}

// LastMessage returns the newest message, if any
func (s Session) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// Preview is the summary shown in session lists: the first fifty runes of
// the last message, as stored, followed by "...". List views flatten it to
// one line themselves.
func (s Session) Preview() string {
	last, ok := s.LastMessage()
	if !ok {
		return "No messages yet"
	}
	content := last.Content
	if utf8.RuneCountInString(content) > previewLength {
		runes := []rune(content)
		content = string(runes[:previewLength])
	}
	return content + "..."
}

// OneLine collapses runs of whitespace, newlines included, into single spaces
func OneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
