package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"ourscreen/internal/core/domain"
	"ourscreen/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ourscreen:room:"

type RedisRoomRepository struct {
	client *redis.Client
}

func NewRedisRoomRepository(client *redis.Client) ports.RoomRepository {
	return &RedisRoomRepository{client: client}
}

func roomKey(id domain.RoomID) string {
	return keyPrefix + string(id)
}

func publicSetKey() string {
	return "ourscreen:public"
}

func (r *RedisRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("failed to marshal room: %w", err)
	}

	// SETNX keeps ID collisions visible to the caller
	ok, err := r.client.SetNX(ctx, roomKey(room.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to set room in Redis: %w", err)
	}
	if !ok {
		return domain.ErrRoomExists
	}

	return nil
}

func (r *RedisRoomRepository) GetByID(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	data, err := r.client.Get(ctx, roomKey(id)).Result()
	if err == redis.Nil {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room from Redis: %w", err)
	}

	var room domain.Room
	if err := json.Unmarshal([]byte(data), &room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}

	return &room, nil
}

func (r *RedisRoomRepository) Update(ctx context.Context, room *domain.Room) error {
	if _, err := r.GetByID(ctx, room.ID); err != nil {
		return err
	}

	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("failed to marshal room: %w", err)
	}

	if err := r.client.Set(ctx, roomKey(room.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to update room in Redis: %w", err)
	}

	return nil
}

func (r *RedisRoomRepository) Delete(ctx context.Context, id domain.RoomID) error {
	deleted, err := r.client.Del(ctx, roomKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete room from Redis: %w", err)
	}
	if deleted == 0 {
		return domain.ErrRoomNotFound
	}

	if err := r.client.SRem(ctx, publicSetKey(), string(id)).Err(); err != nil {
		return fmt.Errorf("failed to remove room from public set: %w", err)
	}

	return nil
}

func (r *RedisRoomRepository) ListPublic(ctx context.Context) ([]*domain.Room, error) {
	ids, err := r.client.SMembers(ctx, publicSetKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get public rooms from Redis: %w", err)
	}

	var rooms []*domain.Room
	for _, id := range ids {
		room, err := r.GetByID(ctx, domain.RoomID(id))
		if err != nil {
			// Skip rooms that no longer exist
			continue
		}
		rooms = append(rooms, room)
	}

	return rooms, nil
}

func (r *RedisRoomRepository) SetPublic(ctx context.Context, id domain.RoomID, public bool) error {
	if public {
		if err := r.client.SAdd(ctx, publicSetKey(), string(id)).Err(); err != nil {
			return fmt.Errorf("failed to add room to public set: %w", err)
		}
		return nil
	}

	if err := r.client.SRem(ctx, publicSetKey(), string(id)).Err(); err != nil {
		return fmt.Errorf("failed to remove room from public set: %w", err)
	}
	return nil
}
