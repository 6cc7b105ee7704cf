package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/outreach/outreach-chat/internal/auth"
)

const (
	localUserID    = "user_id"
	localUserEmail = "user_email"
)

// AuthRequired rejects requests without a valid bearer access token and
// stores the token's user in the fiber context.
func AuthRequired(jwtService *auth.JWTService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := auth.ExtractTokenFromBearer(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		claims, err := jwtService.ValidateAccessToken(token)
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				msg = "Token expired"
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": msg,
			})
		}

		c.Locals(localUserID, claims.UserID)
		c.Locals(localUserEmail, claims.Email)
		return c.Next()
	}
}

// GetUserID retrieves the authenticated user ID from the fiber context
func GetUserID(c *fiber.Ctx) (string, error) {
	if id, ok := c.Locals(localUserID).(string); ok && id != "" {
		return id, nil
	}
	return "", fiber.NewError(fiber.StatusUnauthorized, "User not authenticated")
}
