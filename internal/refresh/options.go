package refresh

import (
	"time"

	"github.com/abakedjoetato/luxqueue/pkg/logger"
)

// Option applies a configuration option to the coordinator.
type Option func(*coordinator)

// WithTickInterval sets how often dirty surfaces are scanned and published.
func WithTickInterval(interval time.Duration) Option {
	return func(c *coordinator) {
		if interval > 0 {
			c.tickInterval = interval
		}
	}
}

// WithPublishSpacing sets the delay between consecutive publishes in a tick.
func WithPublishSpacing(spacing time.Duration) Option {
	return func(c *coordinator) {
		if spacing > 0 {
			c.publishSpacing = spacing
		}
	}
}

// WithReconcileInterval sets how often pointers are probed for liveness.
func WithReconcileInterval(interval time.Duration) Option {
	return func(c *coordinator) {
		if interval > 0 {
			c.reconcileInterval = interval
		}
	}
}

// WithPageSize sets how many submissions each rendered page carries.
func WithPageSize(size int) Option {
	return func(c *coordinator) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// WithLogger sets the logger used by the coordinator.
func WithLogger(l logger.Logger) Option {
	return func(c *coordinator) {
		if l != nil {
			c.log = l
		}
	}
}

// RegisterOption configures one surface at registration time.
type RegisterOption func(*surfaceState)

// WithControls marks the surface as carrying interactive paging controls,
// which reconciliation validates along with the message itself.
func WithControls() RegisterOption {
	return func(s *surfaceState) {
		s.hasControls = true
	}
}

// WithStartPage opens the surface at a page other than the first.
func WithStartPage(page int) RegisterOption {
	return func(s *surfaceState) {
		if page > 0 {
			s.page = page
		}
	}
}
