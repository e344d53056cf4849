package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/lucasvital/todocomplete/internal/feed"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "snapshot:"
	versionPrefix = "snapshot-version:"
)

var errStale = errors.New("snapshot predates a write")

// SnapshotCache caches collection snapshots per (kind, scope) in Redis.
// scope is the owner id or e-mail the snapshot was filtered by.
//
// Every kind has a version counter bumped by InvalidateKind. A snapshot is
// only stored while the version it was fetched under is still current.
type SnapshotCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSnapshotCache returns a new SnapshotCache.
func NewSnapshotCache(rdb *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{rdb: rdb, ttl: ttl}
}

func key(kind feed.Kind, scope string) string {
	return keyPrefix + string(kind) + ":" + scope
}

func versionKey(kind feed.Kind) string {
	return versionPrefix + string(kind)
}

// Version returns the current write version of kind. Read it before
// fetching the snapshot that is passed to Set.
func (c *SnapshotCache) Version(ctx context.Context, kind feed.Kind) (int64, error) {
	v, err := c.rdb.Get(ctx, versionKey(kind)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Get decodes the cached snapshot into dst. It reports false on a miss.
func (c *SnapshotCache) Get(ctx context.Context, kind feed.Kind, scope string, dst any) (bool, error) {
	b, err := c.rdb.Get(ctx, key(kind, scope)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores the snapshot if no write to kind happened since version was
// read. A stale snapshot is silently dropped.
func (c *SnapshotCache) Set(ctx context.Context, kind feed.Kind, scope string, version int64, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	vk := versionKey(kind)
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, vk).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != version {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key(kind, scope), b, c.ttl)
			return nil
		})
		return err
	}, vk)
	if errors.Is(err, errStale) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

// InvalidateKind bumps the version of kind and removes every cached
// snapshot of it. A write to a shared list changes other users' snapshots,
// so invalidation is per kind.
func (c *SnapshotCache) InvalidateKind(ctx context.Context, kind feed.Kind) error {
	if err := c.rdb.Incr(ctx, versionKey(kind)).Err(); err != nil {
		return err
	}
	iter := c.rdb.Scan(ctx, 0, keyPrefix+string(kind)+":*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
