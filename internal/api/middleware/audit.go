package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// AuditConfig holds audit middleware configuration
type AuditConfig struct {
	Logger    *logrus.Logger
	SkipPaths []string // Paths to skip audit logging
}

// AuditMiddleware writes one structured log entry per request with the
// acting user, the derived action and the outcome.
func AuditMiddleware(config AuditConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		for _, skipPath := range config.SkipPaths {
			if strings.HasPrefix(path, skipPath) {
				return c.Next()
			}
		}

		startTime := time.Now()
		err := c.Next()
		duration := time.Since(startTime)

		status := c.Response().StatusCode()
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		action, resourceID := determineAction(c.Method(), path)
		fields := logrus.Fields{
			"action":      action,
			"method":      c.Method(),
			"path":        path,
			"status":      status,
			"duration_ms": duration.Milliseconds(),
			"ip":          c.IP(),
		}
		if userID, ok := c.Locals(localUserID).(string); ok {
			fields["user_id"] = userID
		}
		if resourceID != "" {
			fields["session_id"] = resourceID
		}

		entry := config.Logger.WithFields(fields)
		switch {
		case err != nil:
			entry.WithError(err).Warn("Request failed")
		case status >= fiber.StatusInternalServerError:
			entry.Error("Request failed")
		case status >= fiber.StatusBadRequest:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request completed")
		}

		return err
	}
}

// determineAction maps a chat API request to an action name such as
// "sessions.list" or "messages.create", plus the session id when present.
func determineAction(method, path string) (string, string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 3 || parts[0] != "api" || parts[1] != "chat" {
		return fmt.Sprintf("%s.%s", strings.ToLower(method), path), ""
	}

	rest := parts[2:]
	resource := rest[0]
	var id string
	if len(rest) > 1 {
		id = rest[1]
	}
	if len(rest) > 2 {
		resource = rest[2]
	}

	switch method {
	case fiber.MethodGet:
		if id != "" && len(rest) == 2 {
			return resource + ".read", id
		}
		return resource + ".list", id
	case fiber.MethodPost:
		return resource + ".create", id
	case fiber.MethodPut, fiber.MethodPatch:
		return resource + ".update", id
	case fiber.MethodDelete:
		return resource + ".delete", id
	}
	return fmt.Sprintf("%s.%s", strings.ToLower(method), resource), id
}
