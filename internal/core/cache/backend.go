package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	gocache "github.com/patrickmn/go-cache"
)

// backend stores encoded entries. get reports found=false on a miss.
type backend interface {
	get(ctx context.Context, key string) (data []byte, found bool, err error)
	set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	del(ctx context.Context, keys ...string) error
}

type redisBackend struct {
	client *redis.Client
}

func (b *redisBackend) get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (b *redisBackend) set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return b.client.Set(ctx, key, data, ttl).Err()
}

func (b *redisBackend) del(ctx context.Context, keys ...string) error {
	return b.client.Del(ctx, keys...).Err()
}

// memoryBackend keeps entries in a go-cache map. It never fails.
type memoryBackend struct {
	items *gocache.Cache
}

func newMemoryBackend(ttl time.Duration) *memoryBackend {
	return &memoryBackend{items: gocache.New(ttl, 2*ttl)}
}

func (b *memoryBackend) get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok := b.items.Get(key)
	if !ok {
		return nil, false, nil
	}
	data, ok := v.([]byte)
	return data, ok, nil
}

func (b *memoryBackend) set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	b.items.Set(key, data, ttl)
	return nil
}

func (b *memoryBackend) del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		b.items.Delete(k)
	}
	return nil
}
