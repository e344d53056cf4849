package testutil

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/lucasvital/todocomplete/internal/feed"
)

// Cache is an in-memory remote.SnapshotCache with the version rule of the
// Redis cache: Set drops snapshots fetched before the last invalidation.
type Cache struct {
	mu       sync.Mutex
	entries  map[string][]byte
	versions map[feed.Kind]int64
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string][]byte), versions: make(map[feed.Kind]int64)}
}

func cacheKey(kind feed.Kind, scope string) string {
	return string(kind) + ":" + scope
}

func (c *Cache) Version(_ context.Context, kind feed.Kind) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[kind], nil
}

func (c *Cache) Get(_ context.Context, kind feed.Kind, scope string, dst any) (bool, error) {
	c.mu.Lock()
	b, ok := c.entries[cacheKey(kind, scope)]
	c.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *Cache) Set(_ context.Context, kind feed.Kind, scope string, version int64, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.versions[kind] != version {
		return nil
	}
	c.entries[cacheKey(kind, scope)] = b
	return nil
}

func (c *Cache) InvalidateKind(_ context.Context, kind feed.Kind) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[kind]++
	for k := range c.entries {
		if strings.HasPrefix(k, string(kind)+":") {
			delete(c.entries, k)
		}
	}
	return nil
}
