// Package refresh keeps registered display surfaces in sync with the queue.
// Each surface mirrors one tier onto an external message; the coordinator
// republishes dirty surfaces on a tick, spaces consecutive publishes, and
// reconciles persisted pointers against the display boundary.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/abakedjoetato/luxqueue/internal/domain/model"
	"github.com/abakedjoetato/luxqueue/pkg/logger"
	"github.com/abakedjoetato/luxqueue/pkg/metrics"
)

// ErrUnknownSurface is returned for operations on a surface key that is not
// registered with this coordinator.
var ErrUnknownSurface = errors.New("unknown surface")

// ErrTargetGone is returned by publishers when the backing message or channel
// no longer exists. The pointer is cleared; the surface needs re-registration.
var ErrTargetGone = errors.New("publish target gone")

// ErrRateLimited is returned by publishers when the display boundary asks us
// to back off. The surface stays dirty and is retried on a later tick.
var ErrRateLimited = errors.New("publish rate limited")

// Target identifies where a rendered page lives on the display boundary.
type Target struct {
	ChannelRef string
	MessageRef string // empty until the first publish creates the message
}

// Publisher is the display boundary port.
type Publisher interface {
	// Publish renders the page at the target, creating the backing message
	// when target.MessageRef is empty. Returns the (possibly new) message
	// ref. Failures are classified by ErrTargetGone and ErrRateLimited;
	// anything else is treated as transient.
	Publish(ctx context.Context, target Target, page model.RenderedPage) (string, error)

	// Probe verifies the target still exists. When hasControls is set the
	// interactive paging controls are validated too.
	Probe(ctx context.Context, target Target, hasControls bool) error
}

// State labels a surface's position in its publish lifecycle.
type State string

const (
	StateInactive   State = "inactive"
	StateActive     State = "active"
	StateDirty      State = "dirty"
	StatePublishing State = "publishing"
)

// Handle names a registered surface.
type Handle string

// SurfaceStatus is one surface's observable state.
type SurfaceStatus struct {
	Key         string
	Tier        model.Tier
	State       State
	Page        int
	Bound       bool
	HasControls bool
}

// Store is the slice of the queue store the coordinator needs.
type Store interface {
	SubmissionsPage(ctx context.Context, tier model.Tier, page, size int) (model.Page, error)
	UpsertViewPointer(ctx context.Context, p model.ViewPointer) error
	ViewPointers(ctx context.Context) ([]model.ViewPointer, error)
	SetViewPointerPage(ctx context.Context, surfaceKey string, page int) error
	SetViewPointerRef(ctx context.Context, surfaceKey, channelRef, messageRef string) error
	ClearViewPointerRef(ctx context.Context, surfaceKey string) error
	DeleteViewPointer(ctx context.Context, surfaceKey string) error
}

// Coordinator owns registered surfaces and their publish lifecycle.
type Coordinator interface {
	// Start hydrates persisted pointers, runs one reconciliation pass, and
	// launches the tick loop.
	Start(ctx context.Context) error

	// Stop halts the loops; an in-flight publish completes first.
	Stop(ctx context.Context) error

	// Register adds (or replaces) a surface mirroring the given tier into
	// the given channel. The surface activates on its first successful
	// publish.
	Register(ctx context.Context, surfaceKey string, tier model.Tier, channelRef string, opts ...RegisterOption) (Handle, error)

	// Unregister removes a surface and its persisted pointer.
	Unregister(ctx context.Context, handle Handle) error

	// SetPage moves a surface to a page and schedules a republish. Unlike
	// a queue change, paging keeps the requested page.
	SetPage(ctx context.Context, handle Handle, page int) error

	// Surfaces lists every known surface, including cleared pointers that
	// await re-registration.
	Surfaces(ctx context.Context) ([]SurfaceStatus, error)

	// QueueChanged marks surfaces of the affected tiers dirty and resets
	// them to the first page. Matches the repository change notifier.
	QueueChanged(tiers ...model.Tier)
}

// surfaceState is the in-memory record of one registered surface. The seq
// counter bumps on every change; a surface is due for publish while seq is
// ahead of publishedSeq, so a change landing mid-publish is never lost.
type surfaceState struct {
	key          string
	tier         model.Tier
	channelRef   string
	messageRef   string
	page         int
	hasControls  bool
	state        State
	seq          uint64
	publishedSeq uint64
}

func (s *surfaceState) due() bool {
	return s.seq > s.publishedSeq
}

type coordinator struct {
	store             Store
	publisher         Publisher
	log               logger.Logger
	tickInterval      time.Duration
	publishSpacing    time.Duration
	reconcileInterval time.Duration
	pageSize          int

	mu       sync.Mutex
	surfaces map[string]*surfaceState

	stopCh  chan struct{}
	wg      sync.WaitGroup
	started bool
}

// New creates a coordinator over the given store and publisher.
func New(store Store, publisher Publisher, opts ...Option) Coordinator {
	c := &coordinator{
		store:             store,
		publisher:         publisher,
		log:               logger.Get().Named("refresh"),
		tickInterval:      10 * time.Second,
		publishSpacing:    time.Second,
		reconcileInterval: 5 * time.Minute,
		pageSize:          10,
		surfaces:          make(map[string]*surfaceState),
		stopCh:            make(chan struct{}),
	}

	// Apply all options
	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.mu.Unlock()

	pointers, err := c.store.ViewPointers(ctx)
	if err != nil {
		return fmt.Errorf("load view pointers: %w", err)
	}

	c.mu.Lock()
	for _, p := range pointers {
		if !p.Bound() {
			// Cleared pointer: stays inactive until re-registered.
			continue
		}
		c.surfaces[p.SurfaceKey] = &surfaceState{
			key:         p.SurfaceKey,
			tier:        p.Tier,
			channelRef:  p.ChannelRef,
			messageRef:  p.MessageRef,
			page:        p.CurrentPage,
			hasControls: p.HasControls,
			state:       StateDirty, // republish fresh content after a restart
			seq:         1,
		}
	}
	hydrated := len(c.surfaces)
	c.mu.Unlock()

	if hydrated > 0 {
		c.log.Info(ctx, "hydrated display surfaces", logger.Int("count", hydrated))
	}

	c.reconcile(ctx)

	c.wg.Add(1)
	go c.run()
	return nil
}

func (c *coordinator) Stop(ctx context.Context) error {
	select {
	case <-c.stopCh:
	default:
		close(c.stopCh)
	}
	c.wg.Wait()
	return nil
}

func (c *coordinator) Register(ctx context.Context, surfaceKey string, tier model.Tier, channelRef string, opts ...RegisterOption) (Handle, error) {
	if surfaceKey == "" {
		return "", errors.New("surface key required")
	}
	if channelRef == "" {
		return "", errors.New("channel ref required")
	}
	if _, err := model.ParseTier(tier.String()); err != nil {
		return "", fmt.Errorf("register surface: %w", err)
	}

	st := &surfaceState{
		key:        surfaceKey,
		tier:       tier,
		channelRef: channelRef,
		state:      StateInactive,
		seq:        1,
	}
	for _, opt := range opts {
		opt(st)
	}

	err := c.store.UpsertViewPointer(ctx, model.ViewPointer{
		SurfaceKey:  surfaceKey,
		Tier:        tier,
		ChannelRef:  channelRef,
		CurrentPage: st.page,
		HasControls: st.hasControls,
	})
	if err != nil {
		return "", fmt.Errorf("persist surface pointer: %w", err)
	}

	c.mu.Lock()
	c.surfaces[surfaceKey] = st
	c.mu.Unlock()

	c.log.Info(ctx, "surface registered",
		logger.String("surface", surfaceKey),
		logger.String("tier", tier.String()),
		logger.String("channel", channelRef))
	return Handle(surfaceKey), nil
}

func (c *coordinator) Unregister(ctx context.Context, handle Handle) error {
	key := string(handle)

	c.mu.Lock()
	_, known := c.surfaces[key]
	delete(c.surfaces, key)
	c.mu.Unlock()

	if err := c.store.DeleteViewPointer(ctx, key); err != nil {
		if !known {
			return ErrUnknownSurface
		}
		return fmt.Errorf("delete surface pointer: %w", err)
	}

	c.log.Info(ctx, "surface unregistered", logger.String("surface", key))
	return nil
}

func (c *coordinator) SetPage(ctx context.Context, handle Handle, page int) error {
	if page < 0 {
		page = 0
	}
	key := string(handle)

	c.mu.Lock()
	st, ok := c.surfaces[key]
	if !ok {
		c.mu.Unlock()
		return ErrUnknownSurface
	}
	st.page = page
	st.seq++
	if st.state == StateActive {
		st.state = StateDirty
	}
	c.mu.Unlock()

	if err := c.store.SetViewPointerPage(ctx, key, page); err != nil {
		return fmt.Errorf("persist surface page: %w", err)
	}
	return nil
}

func (c *coordinator) Surfaces(ctx context.Context) ([]SurfaceStatus, error) {
	rows, err := c.store.ViewPointers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list view pointers: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]SurfaceStatus, 0, len(rows))
	for _, row := range rows {
		status := SurfaceStatus{
			Key:         row.SurfaceKey,
			Tier:        row.Tier,
			State:       StateInactive,
			Page:        row.CurrentPage,
			Bound:       row.Bound(),
			HasControls: row.HasControls,
		}
		if st, ok := c.surfaces[row.SurfaceKey]; ok {
			status.State = st.state
			status.Page = st.page
			status.Bound = st.messageRef != ""
		}
		out = append(out, status)
	}
	return out, nil
}

func (c *coordinator) QueueChanged(tiers ...model.Tier) {
	c.mu.Lock()
	for _, st := range c.surfaces {
		for _, tier := range tiers {
			if st.tier != tier {
				continue
			}
			st.seq++
			st.page = 0 // content shifted under the reader; back to the top
			if st.state == StateActive {
				st.state = StateDirty
			}
			break
		}
	}
	dirty := 0
	for _, st := range c.surfaces {
		if st.due() {
			dirty++
		}
	}
	c.mu.Unlock()

	metrics.UpdateDirtySurfaces(dirty)
}
