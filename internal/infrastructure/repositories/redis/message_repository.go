package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"ourscreen/internal/core/domain"
	"ourscreen/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

type RedisMessageRepository struct {
	client   *redis.Client
	maxItems int64
}

func NewRedisMessageRepository(client *redis.Client, maxItems int) ports.MessageRepository {
	if maxItems <= 0 {
		maxItems = 1000
	}
	return &RedisMessageRepository{
		client:   client,
		maxItems: int64(maxItems),
	}
}

func messagesKey(roomID domain.RoomID) string {
	return keyPrefix + string(roomID) + ":messages"
}

func (r *RedisMessageRepository) Append(ctx context.Context, roomID domain.RoomID, msg *domain.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	key := messagesKey(roomID)
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -r.maxItems, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append message in Redis: %w", err)
	}

	return nil
}

func (r *RedisMessageRepository) List(ctx context.Context, roomID domain.RoomID, limit int) ([]*domain.Message, error) {
	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}

	entries, err := r.client.LRange(ctx, messagesKey(roomID), start, -1).Result()
	if err == redis.Nil {
		return []*domain.Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list messages from Redis: %w", err)
	}

	messages := make([]*domain.Message, 0, len(entries))
	for _, data := range entries {
		var msg domain.Message
		if err := json.Unmarshal([]byte(data), &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		messages = append(messages, &msg)
	}

	return messages, nil
}

func (r *RedisMessageRepository) RemoveAll(ctx context.Context, roomID domain.RoomID) error {
	if err := r.client.Del(ctx, messagesKey(roomID)).Err(); err != nil {
		return fmt.Errorf("failed to clear messages in Redis: %w", err)
	}
	return nil
}
