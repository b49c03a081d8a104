package repositories

import (
	"context"

	"ourscreen/internal/core/ports"
	"ourscreen/internal/infrastructure/repositories/memory"
	redisrepo "ourscreen/internal/infrastructure/repositories/redis"
	"ourscreen/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RepositoryFactory creates repositories with fallback support
type RepositoryFactory struct {
	useRedis    bool
	redisClient *redis.Client
	logger      *zap.SugaredLogger
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(cfg *config.Config, logger *zap.SugaredLogger) (*RepositoryFactory, error) {
	factory := &RepositoryFactory{
		useRedis: cfg.Redis.Enabled,
		logger:   logger,
	}

	if cfg.Redis.Enabled {
		client, err := redisrepo.NewRedisClient(
			cfg.Redis.Address,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
			logger,
		)
		if err != nil {
			logger.Warnw("failed to connect to Redis, falling back to memory repositories",
				"error", err,
			)
			factory.useRedis = false
		} else {
			factory.redisClient = client
			logger.Info("using Redis repositories")
		}
	}

	if !factory.useRedis {
		logger.Info("using memory repositories")
	}

	return factory, nil
}

// RedisClient exposes the shared connection for the event bus and locks.
// Nil when running on memory repositories.
func (f *RepositoryFactory) RedisClient() *redis.Client {
	if f.useRedis {
		return f.redisClient
	}
	return nil
}

// CreateRoomRepository creates a room repository (Redis or memory with fallback)
func (f *RepositoryFactory) CreateRoomRepository() ports.RoomRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisRoomRepository(f.redisClient)
	}
	return memory.NewMemoryRoomRepository()
}

// CreateParticipantRepository creates a participant repository (Redis or memory with fallback)
func (f *RepositoryFactory) CreateParticipantRepository() ports.ParticipantRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisParticipantRepository(f.redisClient)
	}
	return memory.NewMemoryParticipantRepository()
}

// CreateMessageRepository creates a message repository (Redis or memory with fallback)
func (f *RepositoryFactory) CreateMessageRepository(maxItems int) ports.MessageRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisMessageRepository(f.redisClient, maxItems)
	}
	return memory.NewMemoryMessageRepository()
}

// CreateMediaStateRepository creates a media state repository (Redis or memory with fallback)
func (f *RepositoryFactory) CreateMediaStateRepository() ports.MediaStateRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisMediaStateRepository(f.redisClient)
	}
	return memory.NewMemoryMediaStateRepository()
}

// Close closes Redis connection if used
func (f *RepositoryFactory) Close() error {
	if f.redisClient != nil {
		return redisrepo.CloseRedisClient(f.redisClient)
	}
	return nil
}

// HealthCheck checks Redis connection health
func (f *RepositoryFactory) HealthCheck(ctx context.Context) error {
	if f.useRedis && f.redisClient != nil {
		return f.redisClient.Ping(ctx).Err()
	}
	return nil
}
