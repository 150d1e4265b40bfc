package settings_test

import (
	"context"
	"sync"
	"testing"

	repository "github.com/abakedjoetato/luxqueue/internal/adapters/repository"
	settings "github.com/abakedjoetato/luxqueue/internal/settings"
	logging "github.com/abakedjoetato/luxqueue/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing.
type mockStore struct {
	mu     sync.Mutex
	values map[string]string
	reads  int
	writes int
	getErr error
}

func newMockStore() *mockStore {
	return &mockStore{values: make(map[string]string)}
}

func (m *mockStore) Setting(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.getErr != nil {
		return "", m.getErr
	}
	value, ok := m.values[key]
	if !ok {
		return "", repository.ErrNotFound
	}
	return value, nil
}

func (m *mockStore) PutSetting(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	m.values[key] = value
	return nil
}

func (m *mockStore) Settings(ctx context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out, nil
}

func (m *mockStore) readCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

func TestReadThrough(t *testing.T) {
	_ = logging.Init()

	convey.Convey("Given a store with a persisted setting", t, func() {
		store := newMockStore()
		store.values[settings.KeySummaryChannel] = "chan-42"
		cache := settings.New(store)
		ctx := context.Background()

		convey.Convey("When the same key is read twice", func() {
			first, ok1 := cache.Get(ctx, settings.KeySummaryChannel)
			second, ok2 := cache.Get(ctx, settings.KeySummaryChannel)

			convey.Convey("Then the store is hit exactly once", func() {
				convey.So(ok1, convey.ShouldBeTrue)
				convey.So(ok2, convey.ShouldBeTrue)
				convey.So(first, convey.ShouldEqual, "chan-42")
				convey.So(second, convey.ShouldEqual, "chan-42")
				convey.So(store.readCount(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When a missing key is read", func() {
			_, ok := cache.Get(ctx, "nope")

			convey.Convey("Then it reports absent without caching", func() {
				convey.So(ok, convey.ShouldBeFalse)
				_, ok = cache.Get(ctx, "nope")
				convey.So(ok, convey.ShouldBeFalse)
				convey.So(store.readCount(), convey.ShouldEqual, 2)
			})
		})
	})
}

func TestWriteThroughAndInvalidate(t *testing.T) {
	_ = logging.Init()

	convey.Convey("Given a warm cache", t, func() {
		store := newMockStore()
		cache := settings.New(store)
		ctx := context.Background()

		convey.Convey("When a value is set", func() {
			err := cache.Set(ctx, settings.KeySubmissionsOpen, "false")

			convey.Convey("Then it persists and later reads are cached", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(store.writes, convey.ShouldEqual, 1)

				value, ok := cache.Get(ctx, settings.KeySubmissionsOpen)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(value, convey.ShouldEqual, "false")
				convey.So(store.readCount(), convey.ShouldEqual, 0)
			})

			convey.Convey("And invalidation forces a fresh read", func() {
				store.mu.Lock()
				store.values[settings.KeySubmissionsOpen] = "true"
				store.mu.Unlock()

				cache.Invalidate(settings.KeySubmissionsOpen)
				value, ok := cache.Get(ctx, settings.KeySubmissionsOpen)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(value, convey.ShouldEqual, "true")
				convey.So(store.readCount(), convey.ShouldEqual, 1)
			})
		})
	})
}

func TestLoad(t *testing.T) {
	_ = logging.Init()

	convey.Convey("Given several persisted settings", t, func() {
		store := newMockStore()
		store.values[settings.KeySubmissionsOpen] = "true"
		store.values[settings.KeySummaryChannel] = "chan-7"
		cache := settings.New(store)
		ctx := context.Background()

		convey.Convey("When the cache loads", func() {
			err := cache.Load(ctx)

			convey.Convey("Then every key is served without store reads", func() {
				convey.So(err, convey.ShouldBeNil)

				open, ok := cache.Get(ctx, settings.KeySubmissionsOpen)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(open, convey.ShouldEqual, "true")

				channel, ok := cache.Get(ctx, settings.KeySummaryChannel)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(channel, convey.ShouldEqual, "chan-7")

				convey.So(store.readCount(), convey.ShouldEqual, 0)
			})
		})
	})
}

func TestBool(t *testing.T) {
	_ = logging.Init()

	convey.Convey("Given boolean-ish settings", t, func() {
		store := newMockStore()
		store.values["a"] = "true"
		store.values["b"] = "false"
		store.values["c"] = "maybe"
		cache := settings.New(store)
		ctx := context.Background()

		convey.Convey("When read as booleans", func() {
			convey.Convey("Then exact strings override the fallback", func() {
				convey.So(cache.Bool(ctx, "a", false), convey.ShouldBeTrue)
				convey.So(cache.Bool(ctx, "b", true), convey.ShouldBeFalse)
			})

			convey.Convey("Then junk and absence use the fallback", func() {
				convey.So(cache.Bool(ctx, "c", true), convey.ShouldBeTrue)
				convey.So(cache.Bool(ctx, "missing", true), convey.ShouldBeTrue)
				convey.So(cache.Bool(ctx, "missing", false), convey.ShouldBeFalse)
			})
		})
	})
}
