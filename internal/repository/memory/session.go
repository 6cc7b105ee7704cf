package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/outreach/outreach-chat/internal/models"
	"github.com/outreach/outreach-chat/internal/repository"
)

// SessionRepository keeps sessions in process memory
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	now      func() time.Time
}

// NewSessionRepository creates an empty in-memory repository
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: make(map[string]*models.Session),
		now:      time.Now,
	}
}

// Create stores a new session
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = r.now()
	}
	session.UpdatedAt = session.CreatedAt
	if session.Messages == nil {
		session.Messages = []models.Message{}
	}

	stored := session.Clone()
	r.sessions[session.ID] = &stored
	return nil
}

// Get retrieves a session by ID
func (r *SessionRepository) Get(ctx context.Context, userID, id string) (*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok || s.UserID != userID {
		return nil, repository.ErrSessionNotFound
	}
	out := s.Clone()
	return &out, nil
}

// List retrieves the user's sessions, newest activity first
func (r *SessionRepository) List(ctx context.Context, userID string) ([]models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]models.Session, 0)
	for _, s := range r.sessions {
		if s.UserID == userID {
			result = append(result, s.Clone())
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})

	return result, nil
}

// AppendMessages adds messages to the end of the transcript
func (r *SessionRepository) AppendMessages(ctx context.Context, userID, id string, messages ...models.Message) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || s.UserID != userID {
		return nil, repository.ErrSessionNotFound
	}
	s.Messages = append(s.Messages, messages...)
	s.UpdatedAt = r.now()

	out := s.Clone()
	return &out, nil
}

// Delete deletes a session
func (r *SessionRepository) Delete(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || s.UserID != userID {
		return repository.ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}
