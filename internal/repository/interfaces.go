package repository

import (
	"context"
	"errors"

	"github.com/outreach/outreach-chat/internal/models"
)

// ErrSessionNotFound is returned when a session does not exist for the user
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository defines chat session storage operations. Every call is
// scoped to a user; another user's session behaves as not found.
type SessionRepository interface {
	// Create stores a new session. ID and timestamps are filled in when empty.
	Create(ctx context.Context, session *models.Session) error
	// Get returns a session with its full transcript
	Get(ctx context.Context, userID, id string) (*models.Session, error)
	// List returns the user's sessions, most recently updated first
	List(ctx context.Context, userID string) ([]models.Session, error)
	// AppendMessages adds messages at the end of the transcript and returns
	// the updated session
	AppendMessages(ctx context.Context, userID, id string, messages ...models.Message) (*models.Session, error)
	// Delete removes a session and its transcript
	Delete(ctx context.Context, userID, id string) error
}
