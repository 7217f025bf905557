package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ruteri/ans-registry/interfaces"
)

// RedisBackend stores content as plain string keys <prefix>:<type>:<id>.
// Content is immutable, so keys never expire.
type RedisBackend struct {
	client      *redis.Client
	prefix      string
	log         *slog.Logger
	locationURI string
}

// NewRedisBackend connects with a redis:// URL and pings the server.
func NewRedisBackend(ctx context.Context, redisURL, prefix string, log *slog.Logger) (*RedisBackend, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: redis ping: %v", interfaces.ErrBackendUnavailable, err)
	}

	if prefix == "" {
		prefix = "ans"
	}
	return newRedisBackend(client, prefix, opts.Addr, log), nil
}

func newRedisBackend(client *redis.Client, prefix, addr string, log *slog.Logger) *RedisBackend {
	return &RedisBackend{
		client:      client,
		prefix:      prefix,
		log:         log,
		locationURI: fmt.Sprintf("redis://%s?prefix=%s", addr, prefix),
	}
}

func (b *RedisBackend) key(id interfaces.ContentID, contentType interfaces.ContentType) string {
	return fmt.Sprintf("%s:%s:%s", b.prefix, contentType, id)
}

func (b *RedisBackend) Fetch(ctx context.Context, id interfaces.ContentID, contentType interfaces.ContentType) ([]byte, error) {
	data, err := b.client.Get(ctx, b.key(id, contentType)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, interfaces.ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	b.log.Debug("Fetched content from redis", slog.String("key", b.key(id, contentType)), slog.Int("size", len(data)))
	return data, nil
}

func (b *RedisBackend) Store(ctx context.Context, data []byte, contentType interfaces.ContentType) (interfaces.ContentID, error) {
	id := interfaces.ComputeID(data)
	if err := b.client.Set(ctx, b.key(id, contentType), data, 0).Err(); err != nil {
		return id, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	b.log.Debug("Stored content in redis", slog.String("key", b.key(id, contentType)))
	return id, nil
}

func (b *RedisBackend) Available(ctx context.Context) bool {
	return b.client.Ping(ctx).Err() == nil
}

func (b *RedisBackend) Name() string {
	return fmt.Sprintf("redis-%s", b.prefix)
}

func (b *RedisBackend) LocationURI() string {
	return b.locationURI
}

// Close releases the connection pool.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
