package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"ourscreen/internal/core/domain"
	"ourscreen/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

type RedisMediaStateRepository struct {
	client *redis.Client
}

func NewRedisMediaStateRepository(client *redis.Client) ports.MediaStateRepository {
	return &RedisMediaStateRepository{client: client}
}

func mediaKey(roomID domain.RoomID) string {
	return keyPrefix + string(roomID) + ":media"
}

func (r *RedisMediaStateRepository) Get(ctx context.Context, roomID domain.RoomID) (*domain.MediaState, error) {
	data, err := r.client.Get(ctx, mediaKey(roomID)).Result()
	if err == redis.Nil {
		return nil, domain.ErrMediaStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get media state from Redis: %w", err)
	}

	var state domain.MediaState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal media state: %w", err)
	}

	return &state, nil
}

func (r *RedisMediaStateRepository) Set(ctx context.Context, roomID domain.RoomID, state *domain.MediaState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal media state: %w", err)
	}

	if err := r.client.Set(ctx, mediaKey(roomID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set media state in Redis: %w", err)
	}

	return nil
}

func (r *RedisMediaStateRepository) Remove(ctx context.Context, roomID domain.RoomID) error {
	if err := r.client.Del(ctx, mediaKey(roomID)).Err(); err != nil {
		return fmt.Errorf("failed to delete media state from Redis: %w", err)
	}
	return nil
}
