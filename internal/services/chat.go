package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/outreach/outreach-chat/internal/models"
	"github.com/outreach/outreach-chat/internal/providers"
	"github.com/outreach/outreach-chat/internal/repository"
)

// ErrEmptyMessage is returned when a submitted message is blank
var ErrEmptyMessage = errors.New("message content is required")

// ChatService manages chat sessions and assistant replies
type ChatService struct {
	sessions     repository.SessionRepository
	provider     providers.Provider
	defaultTitle string
	logger       *logrus.Logger
	now          func() time.Time
}

// NewChatService creates a new chat service
func NewChatService(sessions repository.SessionRepository, provider providers.Provider, defaultTitle string, logger *logrus.Logger) *ChatService {
	if defaultTitle == "" {
		defaultTitle = "New Chat"
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &ChatService{
		sessions:     sessions,
		provider:     provider,
		defaultTitle: defaultTitle,
		logger:       logger,
		now:          time.Now,
	}
}

// CreateSession opens an empty session for the user
func (s *ChatService) CreateSession(ctx context.Context, userID string, req models.CreateSessionRequest) (*models.Session, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = s.defaultTitle
	}

	session := &models.Session{
		UserID:      userID,
		Title:       title,
		Messages:    []models.Message{},
		ContextType: req.ContextType,
		ContextID:   req.ContextID,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"session_id": session.ID,
	}).Info("Chat session created")

	return session, nil
}

// GetSession retrieves a session with its transcript
func (s *ChatService) GetSession(ctx context.Context, userID, id string) (*models.Session, error) {
	return s.sessions.Get(ctx, userID, id)
}

// ListSessions returns the user's sessions, never nil
func (s *ChatService) ListSessions(ctx context.Context, userID string) ([]models.Session, error) {
	sessions, err := s.sessions.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	return sessions, nil
}

// DeleteSession deletes a session
func (s *ChatService) DeleteSession(ctx context.Context, userID, id string) error {
	return s.sessions.Delete(ctx, userID, id)
}

// SendMessage asks the provider to answer content in the context of the
// session and stores the user turn and exactly one assistant turn. When the
// provider fails nothing is stored.
func (s *ChatService) SendMessage(ctx context.Context, userID, id, content string) (*models.Session, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}

	session, err := s.sessions.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	userTurn := models.Message{
		Role:      models.RoleUser,
		Content:   content,
		Timestamp: s.now().UTC(),
	}

	req := providers.CompletionRequest{
		Messages: make([]providers.Message, 0, len(session.Messages)+1),
	}
	for _, msg := range session.Messages {
		req.Messages = append(req.Messages, providers.Message{Role: string(msg.Role), Content: msg.Content})
	}
	req.Messages = append(req.Messages, providers.Message{Role: providers.RoleUser, Content: content})

	log := s.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"session_id": id,
		"provider":   s.provider.Name(),
	})

	started := s.now()
	resp, err := s.provider.Complete(ctx, req)
	if err != nil {
		log.WithError(err).Error("Assistant completion failed")
		return nil, fmt.Errorf("assistant completion failed: %w", err)
	}

	assistantTurn := models.Message{
		Role:      models.RoleAssistant,
		Content:   resp.Message.Content,
		Timestamp: s.now().UTC(),
	}

	updated, err := s.sessions.AppendMessages(ctx, userID, id, userTurn, assistantTurn)
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"model":    resp.Model,
		"tokens":   resp.Usage.TotalTokens,
		"duration": s.now().Sub(started).String(),
		"messages": len(updated.Messages),
	}).Debug("Assistant replied")

	return updated, nil
}
