package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// initRedis connects to redisURL, which may be a full redis:// URL or a bare
// host:port.
func initRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	raw := redisURL
	if !strings.Contains(raw, "://") {
		raw = "redis://" + raw
	}

	opt, err := redis.ParseURL(raw)
	if err != nil {
		// Fallback to simple connection
		opt = &redis.Options{
			Addr: redisURL,
		}
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}
