package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/outreach/outreach-chat/internal/models"
)

const sessionsPath = "/chat/sessions"

// ListSessions returns the signed-in user's sessions in server order
func (c *Client) ListSessions(ctx context.Context) ([]models.Session, error) {
	var resp models.SessionsResponse
	if err := c.do(ctx, "list sessions", http.MethodGet, sessionsPath, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Sessions == nil {
		return []models.Session{}, nil
	}
	return resp.Sessions, nil
}

// CreateSession opens a new session with an empty transcript
func (c *Client) CreateSession(ctx context.Context, req models.CreateSessionRequest) (*models.Session, error) {
	var resp models.SessionResponse
	if err := c.do(ctx, "create session", http.MethodPost, sessionsPath, req, &resp); err != nil {
		return nil, err
	}
	if err := validateSession("create session", &resp.Session); err != nil {
		return nil, err
	}
	return &resp.Session, nil
}

// GetSession fetches one session including its transcript
func (c *Client) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var resp models.SessionResponse
	if err := c.do(ctx, "get session", http.MethodGet, sessionPath(id), nil, &resp); err != nil {
		return nil, err
	}
	if err := validateSession("get session", &resp.Session); err != nil {
		return nil, err
	}
	return &resp.Session, nil
}

// SendMessage appends a user turn and returns the updated session, which
// includes the assistant's reply
func (c *Client) SendMessage(ctx context.Context, id, content string) (*models.Session, error) {
	var resp models.SessionResponse
	body := models.SendMessageRequest{Content: content}
	if err := c.do(ctx, "send message", http.MethodPost, sessionPath(id)+"/messages", body, &resp); err != nil {
		return nil, err
	}
	if err := validateSession("send message", &resp.Session); err != nil {
		return nil, err
	}
	return &resp.Session, nil
}

func sessionPath(id string) string {
	return sessionsPath + "/" + url.PathEscape(id)
}

// validateSession rejects 2xx bodies that lack a session object
func validateSession(op string, s *models.Session) error {
	if s.ID == "" {
		return &TransportError{Op: op, Kind: KindDecode, Err: errors.New("response has no session")}
	}
	return nil
}
