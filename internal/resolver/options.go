package resolver

import (
	"github.com/abakedjoetato/luxqueue/internal/domain/model"
	"github.com/abakedjoetato/luxqueue/pkg/logger"
)

// Option applies a configuration option to the resolver.
type Option func(*priorityResolver)

// WithOrder overrides the tier dispatch order.
func WithOrder(order []model.Tier) Option {
	return func(r *priorityResolver) {
		if len(order) > 0 {
			r.order = order
		}
	}
}

// WithLogger sets the logger used by the resolver.
func WithLogger(l logger.Logger) Option {
	return func(r *priorityResolver) {
		if l != nil {
			r.log = l
		}
	}
}
