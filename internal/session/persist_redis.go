package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	platformredis "vlc/internal/platform/redis"
	"vlc/internal/sentinel"
)

// RedisPersistence stores the session record under a single fixed key, for
// kiosk/shared-device deployments where the record must outlive the host.
type RedisPersistence struct {
	client *platformredis.Client
	key    string
}

func NewRedisPersistence(client *platformredis.Client) (*RedisPersistence, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &RedisPersistence{client: client, key: RecordName}, nil
}

func (r *RedisPersistence) Save(ctx context.Context, state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("write session record: %w", err)
	}
	return nil
}

func (r *RedisPersistence) Load(ctx context.Context) (*State, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, fmt.Errorf("session record: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("read session record: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode session record: %w", err)
	}
	return &state, nil
}

func (r *RedisPersistence) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("remove session record: %w", err)
	}
	return nil
}
