package middleware

import (
	"log/slog"
	"time"

	"ripple/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// StructuredLogger returns a Fiber middleware for logging requests using slog.
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		latency := time.Since(start)

		fields := []any{
			slog.Int("status", status),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
			slog.Duration("latency", latency),
			slog.String("user_agent", c.Get("User-Agent")),
		}

		if p, ok := Principal(c); ok {
			fields = append(fields, slog.String("uid", p.UID))
		}

		if rid := c.Locals("requestid"); rid != nil {
			fields = append(fields, slog.Any("request_id", rid))
		}

		if err != nil {
			fields = append(fields, slog.String("error", err.Error()))
			observability.GlobalLogger.Error("request failed", fields...)
		} else {
			observability.GlobalLogger.Info("request processed", fields...)
		}

		return err
	}
}
