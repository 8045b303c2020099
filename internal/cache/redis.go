// Package cache holds the Redis connection used for cross-instance change
// fan-out.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewClient connects to Redis at addr. A failed ping returns nil: the
// application degrades to single-instance fan-out instead of refusing to
// start.
func NewClient(addr string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, continuing without cross-instance fan-out",
			slog.String("addr", addr),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return client
}
