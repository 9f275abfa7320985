package ratelimit

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Middleware returns a fiber handler that rejects requests once a client
// exceeds limit hits per window on a route. Keys combine client IP and
// route path so one hot endpoint can't starve the others. Store failures
// fail open: a broken limiter shouldn't take the API down.
func Middleware(store Store, limit int64, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.IP() + ":" + c.Route().Path

		count, err := store.Incr(c.Context(), key, window)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("rate limit store failed, allowing request")
			return c.Next()
		}
		if count > limit {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		}
		return c.Next()
	}
}
