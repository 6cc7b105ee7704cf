package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/outreach/outreach-chat/internal/api/middleware"
	"github.com/outreach/outreach-chat/internal/models"
	"github.com/outreach/outreach-chat/internal/providers"
	"github.com/outreach/outreach-chat/internal/repository"
	"github.com/outreach/outreach-chat/internal/services"
)

// SessionHandlers serves the chat session endpoints
type SessionHandlers struct {
	chat   *services.ChatService
	logger *logrus.Logger
}

// NewSessionHandlers creates the session handlers
func NewSessionHandlers(chat *services.ChatService, logger *logrus.Logger) *SessionHandlers {
	return &SessionHandlers{chat: chat, logger: logger}
}

// ListSessions returns the user's sessions
func (h *SessionHandlers) ListSessions(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	sessions, err := h.chat.ListSessions(c.UserContext(), userID)
	if err != nil {
		return h.fail(c, err, "Failed to list sessions")
	}

	return c.JSON(models.SessionsResponse{Sessions: sessions})
}

// CreateSession creates a new chat session
func (h *SessionHandlers) CreateSession(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	var req models.CreateSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "Invalid request body"})
		}
	}

	session, err := h.chat.CreateSession(c.UserContext(), userID, req)
	if err != nil {
		return h.fail(c, err, "Failed to create session")
	}

	return c.Status(fiber.StatusCreated).JSON(models.SessionResponse{Session: *session})
}

// GetSession returns a specific session with its transcript
func (h *SessionHandlers) GetSession(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	session, err := h.chat.GetSession(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return h.fail(c, err, "Failed to load session")
	}

	return c.JSON(models.SessionResponse{Session: *session})
}

// DeleteSession deletes a session
func (h *SessionHandlers) DeleteSession(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	if err := h.chat.DeleteSession(c.UserContext(), userID, c.Params("id")); err != nil {
		return h.fail(c, err, "Failed to delete session")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// SendMessage appends a user message and the assistant reply
func (h *SessionHandlers) SendMessage(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	var req models.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "Invalid request body"})
	}

	session, err := h.chat.SendMessage(c.UserContext(), userID, c.Params("id"), req.Content)
	if err != nil {
		return h.fail(c, err, "Failed to send message")
	}

	return c.JSON(models.SessionResponse{Session: *session})
}

func (h *SessionHandlers) fail(c *fiber.Ctx, err error, msg string) error {
	switch {
	case errors.Is(err, repository.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{Error: "Session not found"})
	case errors.Is(err, services.ErrEmptyMessage):
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "Message content is required"})
	case errors.Is(err, providers.ErrCircuitOpen):
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{Error: providers.ErrCircuitOpen.Error()})
	}

	h.logger.WithError(err).WithField("path", c.Path()).Error(msg)
	return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: msg})
}
