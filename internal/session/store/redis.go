package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"aps-gateway/internal/session"
	"aps-gateway/pkg/platform/sentinel"
)

const sessionKeyPrefix = "aps:session:"

// Redis stores sessions as JSON records shared by every gateway instance.
// The key TTL is the idle window and is refreshed on every access.
type Redis struct {
	client *redis.Client
	idle   time.Duration
}

// NewRedis constructs a Redis-backed session store.
func NewRedis(client *redis.Client, idle time.Duration) *Redis {
	return &Redis{client: client, idle: idle}
}

func (r *Redis) Load(ctx context.Context, id string) (session.Values, error) {
	raw, err := r.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return session.Values{}, sentinel.ErrNotFound
	}
	if err != nil {
		return session.Values{}, fmt.Errorf("load session: %w", err)
	}
	var v session.Values
	if err := json.Unmarshal(raw, &v); err != nil {
		return session.Values{}, fmt.Errorf("%w: decode session: %v", sentinel.ErrInvalidState, err)
	}
	return v, nil
}

func (r *Redis) Save(ctx context.Context, id string, v session.Values) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKeyPrefix+id, raw, r.idle).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *Redis) Touch(ctx context.Context, id string) error {
	ok, err := r.client.Expire(ctx, sessionKeyPrefix+id, r.idle).Result()
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if !ok {
		return sentinel.ErrNotFound
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *Redis) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
