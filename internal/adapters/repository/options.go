package repository

import (
	"time"

	"github.com/abakedjoetato/luxqueue/internal/domain/model"
	"github.com/abakedjoetato/luxqueue/pkg/logger"
)

// ChangeNotifier receives the set of tiers structurally changed by a
// committed mutation. It runs synchronously after commit, once per mutation.
type ChangeNotifier func(tiers ...model.Tier)

// Option applies a configuration option to the SQLiteStore.
type Option func(*SQLiteStore)

// WithPath sets the database file path. Defaults to a private in-memory
// database.
func WithPath(path string) Option {
	return func(s *SQLiteStore) {
		if path != "" {
			s.path = path
		}
	}
}

// WithChangeNotifier registers the callback invoked after committed
// structural mutations.
func WithChangeNotifier(fn ChangeNotifier) Option {
	return func(s *SQLiteStore) {
		if fn != nil {
			s.notify = fn
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *SQLiteStore) {
		if l != nil {
			s.log = l
		}
	}
}

// WithBusyTimeout sets how long SQLite waits on a locked database before
// giving up with a busy error.
func WithBusyTimeout(d time.Duration) Option {
	return func(s *SQLiteStore) {
		if d > 0 {
			s.busyTimeout = d
		}
	}
}
