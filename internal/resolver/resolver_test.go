package resolver_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	repository "github.com/abakedjoetato/luxqueue/internal/adapters/repository"
	model "github.com/abakedjoetato/luxqueue/internal/domain/model"
	resolver "github.com/abakedjoetato/luxqueue/internal/resolver"
	logging "github.com/abakedjoetato/luxqueue/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing.
type mockStore struct {
	mu        sync.Mutex
	next      []model.Submission
	takeErr   error
	counts    map[model.Tier]int
	countsErr error
	gotOrder  []model.Tier
}

func (m *mockStore) TakeNext(ctx context.Context, order []model.Tier) (model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gotOrder = append([]model.Tier(nil), order...)
	if m.takeErr != nil {
		return model.Submission{}, m.takeErr
	}
	if len(m.next) == 0 {
		return model.Submission{}, repository.ErrEmpty
	}
	taken := m.next[0]
	m.next = m.next[1:]
	return taken, nil
}

func (m *mockStore) TierCounts(ctx context.Context) (map[model.Tier]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.countsErr != nil {
		return nil, m.countsErr
	}
	return m.counts, nil
}

func (m *mockStore) lastOrder() []model.Tier {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gotOrder
}

func TestTakeNext(t *testing.T) {
	_ = logging.Init()

	convey.Convey("Given a resolver over a stocked store", t, func() {
		store := &mockStore{
			next: []model.Submission{
				{ID: 1, PublicID: "100001", Tier: model.TierT2, SubmitterID: "alice"},
				{ID: 2, PublicID: "100002", Tier: model.TierStandard, SubmitterID: "bob"},
			},
		}
		r := resolver.New(store)

		convey.Convey("When taking the next submission", func() {
			taken, err := r.TakeNext(context.Background())

			convey.Convey("Then the store head comes back", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(taken.PublicID, convey.ShouldEqual, "100001")
				convey.So(taken.Tier, convey.ShouldEqual, model.TierT2)
			})

			convey.Convey("And the store was asked in dispatch order", func() {
				order := store.lastOrder()
				convey.So(len(order), convey.ShouldEqual, 6)
				convey.So(order[0], convey.ShouldEqual, model.TierT5Plus)
				convey.So(order[len(order)-1], convey.ShouldEqual, model.TierStandard)
			})
		})

		convey.Convey("When draining past the last submission", func() {
			_, _ = r.TakeNext(context.Background())
			_, _ = r.TakeNext(context.Background())
			_, err := r.TakeNext(context.Background())

			convey.Convey("Then the empty outcome is reported as ErrEmpty", func() {
				convey.So(errors.Is(err, resolver.ErrEmpty), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a store that fails", t, func() {
		store := &mockStore{takeErr: errors.New("disk full")}
		r := resolver.New(store)

		convey.Convey("When taking the next submission", func() {
			_, err := r.TakeNext(context.Background())

			convey.Convey("Then the failure is not masked as empty", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, resolver.ErrEmpty), convey.ShouldBeFalse)
			})
		})
	})
}

func TestClose(t *testing.T) {
	_ = logging.Init()

	convey.Convey("Given a closed resolver", t, func() {
		store := &mockStore{
			next: []model.Submission{{ID: 1, PublicID: "100001", Tier: model.TierT1}},
		}
		r := resolver.New(store)
		r.Close()

		convey.Convey("When taking the next submission", func() {
			_, err := r.TakeNext(context.Background())

			convey.Convey("Then ErrClosed is returned even with stock available", func() {
				convey.So(errors.Is(err, resolver.ErrClosed), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When closing again", func() {
			convey.Convey("Then it is a safe no-op", func() {
				convey.So(r.Close, convey.ShouldNotPanic)
			})
		})
	})
}

func TestPendingCount(t *testing.T) {
	_ = logging.Init()

	convey.Convey("Given tier counts with a pending backlog", t, func() {
		store := &mockStore{
			counts: map[model.Tier]int{
				model.TierStandard:        4,
				model.TierPendingApproval: 7,
			},
		}
		r := resolver.New(store)

		convey.Convey("When asking for the pending count", func() {
			count, err := r.PendingCount(context.Background())

			convey.Convey("Then only the holding tier is reported", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(count, convey.ShouldEqual, 7)
			})
		})
	})

	convey.Convey("Given tier counts without a pending entry", t, func() {
		store := &mockStore{counts: map[model.Tier]int{model.TierStandard: 2}}
		r := resolver.New(store)

		convey.Convey("When asking for the pending count", func() {
			count, err := r.PendingCount(context.Background())

			convey.Convey("Then the count is zero", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(count, convey.ShouldEqual, 0)
			})
		})
	})

	convey.Convey("Given a store that fails counting", t, func() {
		store := &mockStore{countsErr: errors.New("closed")}
		r := resolver.New(store)

		convey.Convey("When asking for the pending count", func() {
			_, err := r.PendingCount(context.Background())

			convey.Convey("Then the error propagates", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestOrder(t *testing.T) {
	_ = logging.Init()

	convey.Convey("Given a resolver with the default order", t, func() {
		r := resolver.New(&mockStore{})

		convey.Convey("When reading the order", func() {
			order := r.Order()

			convey.Convey("Then priority runs from t5plus down to standard", func() {
				convey.So(order, convey.ShouldResemble, []model.Tier{
					model.TierT5Plus, model.TierT4, model.TierT3,
					model.TierT2, model.TierT1, model.TierStandard,
				})
			})

			convey.Convey("And mutating the returned slice does not leak back", func() {
				order[0] = model.TierArchived
				convey.So(r.Order()[0], convey.ShouldEqual, model.TierT5Plus)
			})
		})
	})

	convey.Convey("Given a resolver with a custom order", t, func() {
		store := &mockStore{
			next: []model.Submission{{ID: 1, PublicID: "100001", Tier: model.TierStandard}},
		}
		r := resolver.New(store, resolver.WithOrder([]model.Tier{model.TierStandard}))

		convey.Convey("When taking the next submission", func() {
			_, err := r.TakeNext(context.Background())

			convey.Convey("Then the custom order reaches the store", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(store.lastOrder(), convey.ShouldResemble, []model.Tier{model.TierStandard})
			})
		})
	})
}
