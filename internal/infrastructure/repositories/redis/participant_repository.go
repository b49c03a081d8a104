package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"ourscreen/internal/core/domain"
	"ourscreen/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

type RedisParticipantRepository struct {
	client *redis.Client
}

func NewRedisParticipantRepository(client *redis.Client) ports.ParticipantRepository {
	return &RedisParticipantRepository{client: client}
}

func participantsKey(roomID domain.RoomID) string {
	return keyPrefix + string(roomID) + ":participants"
}

func (r *RedisParticipantRepository) Add(ctx context.Context, roomID domain.RoomID, p *domain.Participant) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal participant: %w", err)
	}

	if err := r.client.HSet(ctx, participantsKey(roomID), string(p.Key), data).Err(); err != nil {
		return fmt.Errorf("failed to add participant in Redis: %w", err)
	}

	return nil
}

func (r *RedisParticipantRepository) GetByKey(ctx context.Context, roomID domain.RoomID, key domain.ParticipantKey) (*domain.Participant, error) {
	data, err := r.client.HGet(ctx, participantsKey(roomID), string(key)).Result()
	if err == redis.Nil {
		return nil, domain.ErrParticipantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant from Redis: %w", err)
	}

	var p domain.Participant
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal participant: %w", err)
	}

	return &p, nil
}

func (r *RedisParticipantRepository) Remove(ctx context.Context, roomID domain.RoomID, key domain.ParticipantKey) error {
	removed, err := r.client.HDel(ctx, participantsKey(roomID), string(key)).Result()
	if err != nil {
		return fmt.Errorf("failed to remove participant from Redis: %w", err)
	}
	if removed == 0 {
		return domain.ErrParticipantNotFound
	}

	return nil
}

func (r *RedisParticipantRepository) List(ctx context.Context, roomID domain.RoomID) ([]*domain.Participant, error) {
	entries, err := r.client.HGetAll(ctx, participantsKey(roomID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list participants from Redis: %w", err)
	}

	var participants []*domain.Participant
	for _, data := range entries {
		var p domain.Participant
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal participant: %w", err)
		}
		participants = append(participants, &p)
	}

	return participants, nil
}

func (r *RedisParticipantRepository) Count(ctx context.Context, roomID domain.RoomID) (int, error) {
	count, err := r.client.HLen(ctx, participantsKey(roomID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count participants in Redis: %w", err)
	}
	return int(count), nil
}

func (r *RedisParticipantRepository) Update(ctx context.Context, roomID domain.RoomID, p *domain.Participant) error {
	exists, err := r.client.HExists(ctx, participantsKey(roomID), string(p.Key)).Result()
	if err != nil {
		return fmt.Errorf("failed to check participant in Redis: %w", err)
	}
	if !exists {
		return domain.ErrParticipantNotFound
	}

	return r.Add(ctx, roomID, p)
}

func (r *RedisParticipantRepository) RemoveAll(ctx context.Context, roomID domain.RoomID) error {
	if err := r.client.Del(ctx, participantsKey(roomID)).Err(); err != nil {
		return fmt.Errorf("failed to clear participants in Redis: %w", err)
	}
	return nil
}
