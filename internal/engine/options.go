package engine

import (
	"time"

	"github.com/abakedjoetato/luxqueue/pkg/logger"
)

// Option applies a configuration option to the engine.
type Option func(*scoreEngine)

// WithWatchInterval sets how often watch time accrues to present handles.
func WithWatchInterval(interval time.Duration) Option {
	return func(e *scoreEngine) {
		if interval > 0 {
			e.watchInterval = interval
		}
	}
}

// WithResortInterval sets how often watch scores are flushed to the store.
func WithResortInterval(interval time.Duration) Option {
	return func(e *scoreEngine) {
		if interval > 0 {
			e.resortInterval = interval
		}
	}
}

// WithSummarySink sets the sink that receives close-of-session summaries.
func WithSummarySink(sink SummarySink) Option {
	return func(e *scoreEngine) {
		if sink != nil {
			e.sink = sink
		}
	}
}

// WithLogger sets the logger used by the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *scoreEngine) {
		if l != nil {
			e.log = l
		}
	}
}
