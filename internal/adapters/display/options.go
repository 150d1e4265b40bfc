// Package display is the log-backed display boundary.
package display

import (
	"github.com/abakedjoetato/luxqueue/pkg/logger"
)

// Option applies a configuration option to the LogDisplay.
type Option func(*LogDisplay)

// WithChannelLookup sets the resolver for the summary destination channel.
func WithChannelLookup(lookup ChannelLookup) Option {
	return func(d *LogDisplay) {
		if lookup != nil {
			d.channel = lookup
		}
	}
}

// WithLogger sets a custom logger for the display.
func WithLogger(logger logger.Logger) Option {
	return func(d *LogDisplay) {
		if logger != nil {
			d.logger = logger
		}
	}
}
