package portal

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"employee-portal/core"
)

// RedisStore keeps the bundle under one Redis key, optionally namespaced so
// several users can share an instance.
type RedisStore struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

// NewRedisStore stores under "<prefix>:portal.jwt" (or just "portal.jwt" when
// prefix is empty). A zero ttl keeps the key until Clear.
func NewRedisStore(client redis.Cmdable, prefix string, ttl time.Duration) *RedisStore {
	key := StorageKey
	if prefix != "" {
		key = prefix + ":" + StorageKey
	}
	return &RedisStore{client: client, key: key, ttl: ttl}
}

// NewRedisClient returns a configured go-redis client from URL (e.g., redis://localhost:6379/0).
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, errors.New("empty redis url")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func (s *RedisStore) Get(ctx context.Context) Lookup {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Lookup{State: Missing}
		}
		return unreadable(err)
	}
	return decodeLookup(raw, true)
}

func (s *RedisStore) Set(ctx context.Context, bundle core.TokenBundle) error {
	data, err := encodeBundle(bundle)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key, data, s.ttl).Err()
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}
