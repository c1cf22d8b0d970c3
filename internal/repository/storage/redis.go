package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dialTimeout = 5 * time.Second

type RedisStorage struct {
	Connection *redis.Client
}

// NewRedisStorage connects and pings; the caller owns Close.
func NewRedisStorage(ctx context.Context, addr string) (*RedisStorage, error) {
	conn := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: dialTimeout,
	})

	if _, err := conn.Ping(ctx).Result(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	return &RedisStorage{Connection: conn}, nil
}

func (that *RedisStorage) Close() error {
	return that.Connection.Close()
}
