package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultRedisPrefix = "mueller:doc:"

// RedisCachedSource is a read-through cache over another Source. Redis
// failures fall back to the inner source; missing documents are not cached.
type RedisCachedSource struct {
	inner  Source
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCachedSource wraps inner. An empty prefix uses "mueller:doc:".
func NewRedisCachedSource(inner Source, client redis.Cmdable, prefix string, ttl time.Duration) *RedisCachedSource {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisCachedSource{inner: inner, client: client, prefix: prefix, ttl: ttl, logger: zap.NewNop()}
}

// WithLogger sets the logger used to report cache failures.
func (s *RedisCachedSource) WithLogger(logger *zap.Logger) *RedisCachedSource {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Open implements Source.
func (s *RedisCachedSource) Open(ctx context.Context, name string) ([]byte, error) {
	key := s.prefix + name
	data, err := s.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		return data, nil
	case errors.Is(err, redis.Nil):
	default:
		s.logger.Warn("redis cache read failed", zap.String("key", key), zap.Error(err))
	}

	data, err = s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.logger.Warn("redis cache write failed", zap.String("key", key), zap.Error(err))
	}
	return data, nil
}

// NewRedisClient parses a redis:// URL and checks the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("directory: parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("directory: redis ping: %w", err)
	}
	return client, nil
}
