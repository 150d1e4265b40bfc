// Package settings is a read-through cache over the durable settings rows,
// so hot-path checks like the submissions toggle never touch the store.
package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/abakedjoetato/luxqueue/internal/adapters/repository"
	"github.com/abakedjoetato/luxqueue/pkg/logger"
)

// Well-known settings keys.
const (
	// KeySubmissionsOpen gates Submit; anything but "false" means open.
	KeySubmissionsOpen = "submissions_open"

	// KeySummaryChannel is the channel ref session summaries are sent to.
	KeySummaryChannel = "summary_channel"
)

// Store is the slice of the queue store the cache needs.
type Store interface {
	Setting(ctx context.Context, key string) (string, error)
	PutSetting(ctx context.Context, key, value string) error
	Settings(ctx context.Context) (map[string]string, error)
}

// Cache is a write-through, read-through settings cache. Zero value is not
// usable; create with New.
type Cache struct {
	store Store
	log   logger.Logger

	mu     sync.RWMutex
	values map[string]string
}

// New creates a settings cache over the given store.
func New(store Store, opts ...Option) *Cache {
	c := &Cache{
		store:  store,
		log:    logger.Get().Named("settings"),
		values: make(map[string]string),
	}

	// Apply all options
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Load warms the cache with every persisted setting.
func (c *Cache) Load(ctx context.Context) error {
	values, err := c.store.Settings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	c.mu.Lock()
	c.values = make(map[string]string, len(values))
	for k, v := range values {
		c.values[k] = v
	}
	c.mu.Unlock()

	c.log.Debug(ctx, "settings loaded", logger.Int("count", len(values)))
	return nil
}

// Get returns a setting, reading through to the store on a cache miss.
// Missing keys report false.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	c.mu.RLock()
	value, ok := c.values[key]
	c.mu.RUnlock()
	if ok {
		return value, true
	}

	value, err := c.store.Setting(ctx, key)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			c.log.Error(ctx, "reading setting",
				logger.String("key", key), logger.Error(err))
		}
		return "", false
	}

	c.mu.Lock()
	c.values[key] = value
	c.mu.Unlock()
	return value, true
}

// Set writes through to the store and updates the cache.
func (c *Cache) Set(ctx context.Context, key, value string) error {
	if err := c.store.PutSetting(ctx, key, value); err != nil {
		return fmt.Errorf("put setting: %w", err)
	}

	c.mu.Lock()
	c.values[key] = value
	c.mu.Unlock()
	return nil
}

// Invalidate drops a key from the cache; the next Get re-reads the store.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.values, key)
	c.mu.Unlock()
}

// Bool reads a setting as a boolean, returning fallback when the key is
// absent. Only the exact strings "true" and "false" override the fallback.
func (c *Cache) Bool(ctx context.Context, key string, fallback bool) bool {
	value, ok := c.Get(ctx, key)
	if !ok {
		return fallback
	}
	switch value {
	case "true":
		return true
	case "false":
		return false
	}
	return fallback
}
