package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Default limits per user: 300 API requests and 30 chat messages per minute
const (
	DefaultAPIMax         = 300
	DefaultAPIExpiration  = time.Minute
	DefaultChatMax        = 30
	DefaultChatExpiration = time.Minute
)

// APIRateLimit returns a rate limiter for API endpoints keyed by user, or by
// IP before authentication.
func APIRateLimit(max int, expiration time.Duration) fiber.Handler {
	if max <= 0 {
		max = DefaultAPIMax
	}
	if expiration <= 0 {
		expiration = DefaultAPIExpiration
	}
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: expiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			if userID := c.Locals(localUserID); userID != nil {
				return fmt.Sprintf("api:user:%s", userID)
			}
			return fmt.Sprintf("api:ip:%s", c.IP())
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "API rate limit exceeded. Please slow down your requests.",
			})
		},
	})
}

// ChatRateLimit limits message submissions. Failed requests do not count.
func ChatRateLimit(max int, expiration time.Duration) fiber.Handler {
	if max <= 0 {
		max = DefaultChatMax
	}
	if expiration <= 0 {
		expiration = DefaultChatExpiration
	}
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: expiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			if userID := c.Locals(localUserID); userID != nil {
				return fmt.Sprintf("chat:user:%s", userID)
			}
			return fmt.Sprintf("chat:ip:%s", c.IP())
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Chat rate limit exceeded. Please wait before sending more messages.",
			})
		},
		SkipFailedRequests: true,
	})
}
