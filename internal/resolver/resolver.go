// Package resolver owns the dispatch decision: which submission the reviewer
// sees next when they ask for one.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abakedjoetato/luxqueue/internal/adapters/repository"
	"github.com/abakedjoetato/luxqueue/internal/domain/model"
	"github.com/abakedjoetato/luxqueue/internal/domain/scoring"
	"github.com/abakedjoetato/luxqueue/pkg/logger"
	"github.com/abakedjoetato/luxqueue/pkg/metrics"
)

// ErrEmpty is returned when no tier holds a dispatch-eligible submission.
// It is an outcome, not a failure; pending-approval entries do not count.
var ErrEmpty = errors.New("no submission eligible for dispatch")

// ErrClosed is returned once the resolver has been shut down.
var ErrClosed = errors.New("resolver closed")

// Store is the slice of the queue store the resolver needs.
type Store interface {
	TakeNext(ctx context.Context, order []model.Tier) (model.Submission, error)
	TierCounts(ctx context.Context) (map[model.Tier]int, error)
}

// Resolver picks the next submission for review.
type Resolver interface {
	// TakeNext removes and returns the head of the highest-priority
	// non-empty tier. Returns ErrEmpty when nothing is eligible.
	TakeNext(ctx context.Context) (model.Submission, error)

	// PendingCount reports how many submissions sit in the holding tier,
	// so callers can tell an empty queue from an all-pending one.
	PendingCount(ctx context.Context) (int, error)

	// Order returns the tier dispatch order, highest priority first.
	Order() []model.Tier

	// Close marks the resolver as shut down; subsequent TakeNext calls
	// fail with ErrClosed.
	Close()
}

type priorityResolver struct {
	store  Store
	order  []model.Tier
	log    logger.Logger
	closed chan struct{}
}

// New creates a resolver over the given store using the default dispatch
// order.
func New(store Store, opts ...Option) Resolver {
	r := &priorityResolver{
		store:  store,
		order:  scoring.DispatchOrder(),
		log:    logger.Get().Named("resolver"),
		closed: make(chan struct{}),
	}

	// Apply all options
	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *priorityResolver) TakeNext(ctx context.Context) (model.Submission, error) {
	select {
	case <-r.closed:
		return model.Submission{}, ErrClosed
	default:
	}

	start := time.Now()
	taken, err := r.store.TakeNext(ctx, r.order)
	if err != nil {
		if errors.Is(err, repository.ErrEmpty) {
			metrics.RecordTakeNextEmpty()
			return model.Submission{}, ErrEmpty
		}
		metrics.RecordErrorByComponent("resolver", "take_next")
		return model.Submission{}, fmt.Errorf("take next: %w", err)
	}

	metrics.RecordTakeNext()
	metrics.RecordStoreWriteLatency(float64(time.Since(start).Milliseconds()))
	r.log.Info(ctx, "submission dispatched",
		logger.String("public_id", taken.PublicID),
		logger.String("tier", taken.Tier.String()),
		logger.String("submitter", taken.SubmitterID))
	return taken, nil
}

func (r *priorityResolver) PendingCount(ctx context.Context) (int, error) {
	counts, err := r.store.TierCounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("pending count: %w", err)
	}
	return counts[model.TierPendingApproval], nil
}

func (r *priorityResolver) Order() []model.Tier {
	out := make([]model.Tier, len(r.order))
	copy(out, r.order)
	return out
}

func (r *priorityResolver) Close() {
	select {
	case <-r.closed:
	default:
		close(r.closed)
	}
}
