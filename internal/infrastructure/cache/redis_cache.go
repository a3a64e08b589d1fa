package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/sfauth/internal/config"
	"github.com/turtacn/sfauth/pkg/errors"
	"github.com/turtacn/sfauth/pkg/logger"
)

// NamedCache is a generic namespaced key-value cache. Keys from different
// namespaces never collide; Clear only touches one namespace.
type NamedCache interface {
	Get(ctx context.Context, namespace, key string) (string, error)
	Put(ctx context.Context, namespace, key string, value interface{}, ttl time.Duration) error
	Remove(ctx context.Context, namespace, key string) error
	Clear(ctx context.Context, namespace string) error
}

// RedisConnection wraps the shared Redis client.
type RedisConnection struct {
	Client *redis.Client
}

// NewRedisConnection creates and verifies a Redis connection.
func NewRedisConnection(ctx context.Context, cfg config.RedisConfig) (*RedisConnection, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.System("failed to connect to redis at %s", cfg.Address).WithCause(err)
	}

	return &RedisConnection{Client: client}, nil
}

// Ping verifies the connection is still alive.
func (r *RedisConnection) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (r *RedisConnection) Close() error {
	return r.Client.Close()
}

type redisNamedCache struct {
	conn *RedisConnection
	log  logger.Logger
}

var _ NamedCache = (*redisNamedCache)(nil)

// NewRedisNamedCache creates the Redis-backed named cache.
func NewRedisNamedCache(conn *RedisConnection, log logger.Logger) NamedCache {
	return &redisNamedCache{conn: conn, log: log.WithComponent("redis_cache")}
}

func cacheKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

func (c *redisNamedCache) Get(ctx context.Context, namespace, key string) (string, error) {
	val, err := c.conn.Client.Get(ctx, cacheKey(namespace, key)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", errors.System("cache get failed").WithCause(err)
	}
	return val, nil
}

func (c *redisNamedCache) Put(ctx context.Context, namespace, key string, value interface{}, ttl time.Duration) error {
	var dataToStore interface{}
	switch v := value.(type) {
	case string, []byte:
		dataToStore = v
	default:
		b, err := json.Marshal(value)
		if err != nil {
			return errors.System("cache marshal failed").WithCause(err)
		}
		dataToStore = b
	}

	if err := c.conn.Client.Set(ctx, cacheKey(namespace, key), dataToStore, ttl).Err(); err != nil {
		return errors.System("cache put failed").WithCause(err)
	}
	return nil
}

func (c *redisNamedCache) Remove(ctx context.Context, namespace, key string) error {
	if err := c.conn.Client.Del(ctx, cacheKey(namespace, key)).Err(); err != nil {
		return errors.System("cache remove failed").WithCause(err)
	}
	return nil
}

func (c *redisNamedCache) Clear(ctx context.Context, namespace string) error {
	pattern := cacheKey(namespace, "*")
	iter := c.conn.Client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return errors.System("cache scan failed").WithCause(err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.conn.Client.Del(ctx, keys...).Err(); err != nil {
		return errors.System("cache clear failed").WithCause(err)
	}
	return nil
}
