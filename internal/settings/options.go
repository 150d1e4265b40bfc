package settings

import "github.com/abakedjoetato/luxqueue/pkg/logger"

// Option applies a configuration option to the cache.
type Option func(*Cache)

// WithLogger sets the logger used by the cache.
func WithLogger(l logger.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}
