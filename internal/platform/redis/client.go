package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"aps-gateway/internal/platform/config"
	"aps-gateway/pkg/platform/sentinel"
)

const clientName = "aps-gateway"

// Open connects to the shared session Redis described by cfg and verifies it
// answers a PING before the gateway starts taking traffic.
func Open(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (*redis.Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis url is required")
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opts.ClientName = clientName
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: redis ping: %v", sentinel.ErrUnavailable, err)
	}

	if logger != nil {
		logger.InfoContext(ctx, "connected to redis",
			"addr", opts.Addr,
			"db", opts.DB,
			"pool_size", opts.PoolSize,
		)
	}
	return client, nil
}
