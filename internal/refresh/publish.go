package refresh

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/abakedjoetato/luxqueue/internal/domain/model"
	"github.com/abakedjoetato/luxqueue/pkg/logger"
	"github.com/abakedjoetato/luxqueue/pkg/metrics"
)

func (c *coordinator) run() {
	defer c.wg.Done()

	tick := time.NewTicker(c.tickInterval)
	defer tick.Stop()
	reconcile := time.NewTicker(c.reconcileInterval)
	defer reconcile.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-tick.C:
			c.publishDue(context.Background())
		case <-reconcile.C:
			c.reconcile(context.Background())
		}
	}
}

// publishDue publishes every surface whose content is stale, in key order,
// spacing consecutive publishes so the display boundary is never burst.
// One failing surface never blocks the rest.
func (c *coordinator) publishDue(ctx context.Context) {
	c.mu.Lock()
	due := make([]*surfaceState, 0, len(c.surfaces))
	for _, st := range c.surfaces {
		if st.due() {
			due = append(due, st)
		}
	}
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].key < due[j].key })

	for i, st := range due {
		if i > 0 {
			select {
			case <-c.stopCh:
				return
			case <-time.After(c.publishSpacing):
			}
		}
		c.publishOne(ctx, st)
	}

	c.mu.Lock()
	dirty := 0
	for _, st := range c.surfaces {
		if st.due() {
			dirty++
		}
	}
	c.mu.Unlock()
	metrics.UpdateDirtySurfaces(dirty)
}

func (c *coordinator) publishOne(ctx context.Context, st *surfaceState) {
	c.mu.Lock()
	if current, ok := c.surfaces[st.key]; !ok || current != st {
		// Unregistered or replaced while queued for publish.
		c.mu.Unlock()
		return
	}
	seq := st.seq
	tier := st.tier
	page := st.page
	target := Target{ChannelRef: st.channelRef, MessageRef: st.messageRef}
	st.state = StatePublishing
	c.mu.Unlock()

	pageData, err := c.store.SubmissionsPage(ctx, tier, page, c.pageSize)
	if err == nil {
		if count := pageData.PageCount(); page >= count {
			// The tier shrank under the surface: clamp back into range.
			page = count - 1
			pageData, err = c.store.SubmissionsPage(ctx, tier, page, c.pageSize)
		}
	}
	if err != nil {
		c.markDirty(st)
		metrics.RecordPublishFailure("store")
		c.log.Error(ctx, "loading page for surface",
			logger.String("surface", st.key), logger.Error(err))
		return
	}

	rendered := model.RenderedPage{
		SurfaceKey:  st.key,
		Tier:        tier,
		Page:        page,
		PageSize:    pageData.Size,
		PageCount:   pageData.PageCount(),
		Total:       pageData.Total,
		Entries:     pageData.Items,
		GeneratedAt: time.Now(),
	}

	start := time.Now()
	newRef, err := c.publisher.Publish(ctx, target, rendered)
	if err != nil {
		switch {
		case errors.Is(err, ErrTargetGone):
			c.clearPointer(ctx, st.key, err)
		case errors.Is(err, ErrRateLimited):
			c.markDirty(st)
			metrics.RecordPublishFailure("rate_limited")
			c.log.Warn(ctx, "publish rate limited; will retry",
				logger.String("surface", st.key))
		default:
			c.markDirty(st)
			metrics.RecordPublishFailure("transient")
			c.log.Error(ctx, "publishing surface",
				logger.String("surface", st.key), logger.Error(err))
		}
		return
	}

	c.mu.Lock()
	st.messageRef = newRef
	st.page = page
	st.publishedSeq = seq
	if st.due() {
		// Changed again mid-publish: go around once more.
		st.state = StateDirty
	} else {
		st.state = StateActive
	}
	c.mu.Unlock()

	if err := c.store.SetViewPointerRef(ctx, st.key, target.ChannelRef, newRef); err != nil {
		c.log.Error(ctx, "persisting surface ref",
			logger.String("surface", st.key), logger.Error(err))
	}
	if err := c.store.SetViewPointerPage(ctx, st.key, page); err != nil {
		c.log.Error(ctx, "persisting surface page",
			logger.String("surface", st.key), logger.Error(err))
	}

	metrics.RecordPublish()
	metrics.RecordPublishLatency(float64(time.Since(start).Milliseconds()))
	c.log.Debug(ctx, "surface published",
		logger.String("surface", st.key),
		logger.String("tier", tier.String()),
		logger.Int("page", page),
		logger.Int("entries", len(rendered.Entries)))
}

func (c *coordinator) markDirty(st *surfaceState) {
	c.mu.Lock()
	st.state = StateDirty
	c.mu.Unlock()
}

// clearPointer drops a surface whose display target is confirmed gone. The
// pointer row keeps its channel ref so a re-registration lands in the same
// place, but the surface leaves the active set.
func (c *coordinator) clearPointer(ctx context.Context, key string, cause error) {
	c.mu.Lock()
	delete(c.surfaces, key)
	c.mu.Unlock()

	if err := c.store.ClearViewPointerRef(ctx, key); err != nil {
		c.log.Error(ctx, "clearing surface pointer",
			logger.String("surface", key), logger.Error(err))
	}

	metrics.RecordPublishFailure("target_gone")
	metrics.RecordPointerCleared()
	c.log.Warn(ctx, "surface target gone; re-registration required",
		logger.String("surface", key), logger.Error(cause))
}

// reconcile probes every bound pointer against the display boundary. Probes
// that keep failing clear the pointer so state is never left ambiguous.
func (c *coordinator) reconcile(ctx context.Context) {
	pointers, err := c.store.ViewPointers(ctx)
	if err != nil {
		c.log.Error(ctx, "listing pointers for reconciliation", logger.Error(err))
		return
	}

	for _, p := range pointers {
		if !p.Bound() {
			continue
		}
		target := Target{ChannelRef: p.ChannelRef, MessageRef: p.MessageRef}
		probeErr := retry.Do(
			func() error {
				return c.publisher.Probe(ctx, target, p.HasControls)
			},
			retry.Attempts(3),
			retry.Delay(200*time.Millisecond),
			retry.MaxDelay(time.Second),
			retry.Context(ctx),
			retry.RetryIf(func(err error) bool {
				// Gone is definitive; only blips are worth retrying.
				return !errors.Is(err, ErrTargetGone)
			}),
		)
		if probeErr != nil {
			c.clearPointer(ctx, p.SurfaceKey, probeErr)
		}
	}

	metrics.RecordReconcileRun()
	c.log.Debug(ctx, "reconciliation pass complete",
		logger.Int("pointers", len(pointers)))
}
