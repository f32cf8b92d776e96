// Package cache fronts profile and condition reads with Redis, or with an
// in-process store when no Redis is configured.
//
// The sensor API evaluates every request against the catalog and condition
// set of a device type; both change rarely and only through the admin API,
// which calls Invalidate after each write. Backend errors never fail a read:
// the cache logs and falls through to the source.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/solatis/parkwatch/internal/types"
)

// DefaultTTL bounds staleness when an invalidation is lost.
const DefaultTTL = 5 * time.Minute

// ProfileLister supplies the catalog of a device type.
type ProfileLister interface {
	ListProfiles(ctx context.Context, objectID types.ObjectID) ([]types.DeviceProfile, error)
}

// ConditionFetcher supplies the persisted condition set of a device type.
type ConditionFetcher interface {
	FetchConditions(ctx context.Context, objectID types.ObjectID) ([]types.EventCondition, error)
}

// Recorder observes cache lookups. Implemented by *metrics.Metrics.
type Recorder interface {
	CacheLookup(kind string, hit bool)
}

// Cache holds the backend and key layout.
type Cache struct {
	store    backend
	prefix   string
	ttl      time.Duration
	logger   *zap.Logger
	recorder Recorder
}

// New creates a Redis-backed cache. prefix namespaces every key; ttl <= 0
// uses DefaultTTL.
func New(client *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) (*Cache, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	return newCache(&redisBackend{client: client}, prefix, ttl, logger), nil
}

// NewMemory creates a cache private to this process. Invalidate only
// reaches readers in the same process, so it suits single-binary
// deployments that run both APIs together.
func NewMemory(prefix string, ttl time.Duration, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return newCache(newMemoryBackend(ttl), prefix, ttl, logger)
}

func newCache(store backend, prefix string, ttl time.Duration, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{store: store, prefix: prefix, ttl: ttl, logger: logger}
}

// SetRecorder installs r to observe hits and misses. Call before use.
func (c *Cache) SetRecorder(r Recorder) {
	c.recorder = r
}

// NewClient connects to addr and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

func (c *Cache) profilesKey(objectID types.ObjectID) string {
	return fmt.Sprintf("%sprofiles:%s", c.prefix, objectID)
}

func (c *Cache) conditionsKey(objectID types.ObjectID) string {
	return fmt.Sprintf("%sconditions:%s", c.prefix, objectID)
}

// Invalidate drops both cached entries of objectID.
func (c *Cache) Invalidate(ctx context.Context, objectID types.ObjectID) error {
	if err := c.store.del(ctx, c.profilesKey(objectID), c.conditionsKey(objectID)); err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	return nil
}

// Profiles wraps src with this cache.
func (c *Cache) Profiles(src ProfileLister) *ProfileSource {
	return &ProfileSource{cache: c, src: src}
}

// Conditions wraps src with this cache.
func (c *Cache) Conditions(src ConditionFetcher) *ConditionSource {
	return &ConditionSource{cache: c, src: src}
}

// ProfileSource is a read-through cached ProfileLister.
type ProfileSource struct {
	cache *Cache
	src   ProfileLister
}

// ListProfiles returns the cached catalog, loading it from the source on a miss.
func (p *ProfileSource) ListProfiles(ctx context.Context, objectID types.ObjectID) ([]types.DeviceProfile, error) {
	var out []types.DeviceProfile
	err := readThrough(ctx, p.cache, kindProfiles, p.cache.profilesKey(objectID), &out, func() (interface{}, error) {
		list, err := p.src.ListProfiles(ctx, objectID)
		out = list
		return list, err
	})
	return out, err
}

// ConditionSource is a read-through cached ConditionFetcher.
type ConditionSource struct {
	cache *Cache
	src   ConditionFetcher
}

// FetchConditions returns the cached set, loading it from the source on a miss.
func (s *ConditionSource) FetchConditions(ctx context.Context, objectID types.ObjectID) ([]types.EventCondition, error) {
	var out []types.EventCondition
	err := readThrough(ctx, s.cache, kindConditions, s.cache.conditionsKey(objectID), &out, func() (interface{}, error) {
		list, err := s.src.FetchConditions(ctx, objectID)
		out = list
		return list, err
	})
	return out, err
}

// Entry kinds as reported to the Recorder.
const (
	kindProfiles   = "profiles"
	kindConditions = "conditions"
)

// readThrough decodes key into dest on a hit. On a miss or a backend error it
// calls load, which must also populate dest, and stores the result.
func readThrough(ctx context.Context, c *Cache, kind, key string, dest interface{}, load func() (interface{}, error)) error {
	val, found, err := c.store.get(ctx, key)
	switch {
	case err != nil:
		c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	case found:
		if jsonErr := json.Unmarshal(val, dest); jsonErr == nil {
			c.record(kind, true)
			return nil
		}
		c.logger.Warn("dropping undecodable cache entry", zap.String("key", key))
	}
	c.record(kind, false)

	fresh, err := load()
	if err != nil {
		return err
	}

	data, err := json.Marshal(fresh)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if err := c.store.set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return nil
}

func (c *Cache) record(kind string, hit bool) {
	if c.recorder != nil {
		c.recorder.CacheLookup(kind, hit)
	}
}
