package authkit

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const defaultRedisTokenKey = "wearagain:auth:refreshToken"

// RedisTokenStorage persists the refresh token in Redis. It serves hosts
// that keep per-device session material server-side; the key should include
// a device or installation scope.
type RedisTokenStorage struct {
	client redis.UniversalClient
	key    string
	logger Logger
}

// NewRedisTokenStorage creates a redis-backed storage. An empty key uses the
// package default.
func NewRedisTokenStorage(client redis.UniversalClient, key string, logger Logger) *RedisTokenStorage {
	if key == "" {
		key = defaultRedisTokenKey
	}
	return &RedisTokenStorage{
		client: client,
		key:    key,
		logger: orNoopLogger(logger),
	}
}

func (s *RedisTokenStorage) Store(ctx context.Context, token string) error {
	raw, err := encodeTokenEnvelope(token)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key, raw, 0).Err()
}

func (s *RedisTokenStorage) Read(ctx context.Context) (string, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		s.logger.Errorf("failed to read token from redis: %v", err)
		return "", nil
	}
	return decodeTokenEnvelope(raw), nil
}

func (s *RedisTokenStorage) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}
