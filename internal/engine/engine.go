// Package engine applies the live event feed to the queue: interaction
// scoring, gift rewards, identity bookkeeping, and the session lifecycle.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abakedjoetato/luxqueue/internal/adapters/repository"
	"github.com/abakedjoetato/luxqueue/internal/domain/model"
	"github.com/abakedjoetato/luxqueue/internal/domain/scoring"
	"github.com/abakedjoetato/luxqueue/pkg/logger"
	"github.com/abakedjoetato/luxqueue/pkg/metrics"
)

// ErrSessionOpen is returned when opening a session while one is running.
var ErrSessionOpen = errors.New("a session is already open")

// ErrNoOpenSession is returned when closing without an open session.
var ErrNoOpenSession = errors.New("no open session")

// Store is the slice of the queue store the engine needs.
type Store interface {
	AddInteractionPoints(ctx context.Context, handle string, points int) (int, error)
	RecomputeWatchScores(ctx context.Context, scores map[string]float64) error
	MostRecentForSubmitterInTiers(ctx context.Context, submitterID string, tiers []model.Tier) (model.Submission, error)
	MoveSubmission(ctx context.Context, publicID string, target model.Tier) (model.Tier, error)
	BeginSession(ctx context.Context, s model.Session) error
	EndSession(ctx context.Context, sessionID string, endedAt time.Time) error
	EndDanglingSessions(ctx context.Context, endedAt time.Time) (int, error)
	ObserveHandle(ctx context.Context, handle string, seenAt time.Time) error
	AccumulateIdentity(ctx context.Context, handle string, delta model.IdentityDelta, seenAt time.Time) error
	Identity(ctx context.Context, handle string) (model.Identity, error)
}

// SummarySink receives the close-of-session report.
type SummarySink interface {
	Emit(ctx context.Context, summary model.SessionSummary) error
}

// Engine drives scoring and sessions from the live event feed.
type Engine interface {
	// Start heals any session row left open by a previous process.
	Start(ctx context.Context) error

	// Stop ends the open session administratively (no summary) and waits
	// for the watch and resort loops to exit.
	Stop(ctx context.Context) error

	// OpenSession begins a new session. ErrSessionOpen if one is running.
	OpenSession(ctx context.Context, hostHandle string) (model.Session, error)

	// CloseSession ends the open session, persists its end, and emits the
	// summary. ErrNoOpenSession if none is running.
	CloseSession(ctx context.Context) (model.SessionSummary, error)

	// Apply processes one feed event. Events outside an open session are
	// discarded, not failed.
	Apply(ctx context.Context, event model.LiveEvent) error

	// RecomputeWatch rewrites Standard watch scores from a minutes map.
	RecomputeWatch(ctx context.Context, minutes map[string]float64) error

	// Session returns the open session, if any.
	Session() (model.Session, bool)
}

// sessionState is the in-memory state of one open session. It is discarded
// when the session closes; only identity and score writes outlive it.
type sessionState struct {
	session model.Session
	minutes map[string]float64                   // watch minutes per handle seen this session
	tallies map[string]*model.ParticipantSummary // per-handle session tallies
	counts  map[model.EventKind]int
	coins   int
	stop    chan struct{} // closed when the session ends
}

func (st *sessionState) tally(handle string) *model.ParticipantSummary {
	t, ok := st.tallies[handle]
	if !ok {
		t = &model.ParticipantSummary{Handle: handle}
		st.tallies[handle] = t
	}
	return t
}

// touch puts the handle in the presence set without adding minutes.
func (st *sessionState) touch(handle string) {
	if _, ok := st.minutes[handle]; !ok {
		st.minutes[handle] = 0
	}
}

type scoreEngine struct {
	store          Store
	sink           SummarySink
	log            logger.Logger
	watchInterval  time.Duration
	resortInterval time.Duration

	mu    sync.Mutex
	state *sessionState // nil while no session is open

	wg sync.WaitGroup
}

// New creates an engine over the given store.
func New(store Store, opts ...Option) Engine {
	e := &scoreEngine{
		store:          store,
		log:            logger.Get().Named("engine"),
		watchInterval:  time.Minute,
		resortInterval: 30 * time.Second,
	}

	// Apply all options
	for _, opt := range opts {
		opt(e)
	}

	return e
}

func (e *scoreEngine) Start(ctx context.Context) error {
	healed, err := e.store.EndDanglingSessions(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("heal dangling sessions: %w", err)
	}
	if healed > 0 {
		e.log.Warn(ctx, "closed dangling sessions from a previous run",
			logger.Int("count", healed))
	}
	metrics.UpdateSessionOpen(false)
	return nil
}

func (e *scoreEngine) Stop(ctx context.Context) error {
	e.mu.Lock()
	st := e.state
	e.state = nil
	if st != nil {
		close(st.stop)
	}
	e.mu.Unlock()

	if st != nil {
		// No summary on an administrative close; the row is simply ended.
		if err := e.store.EndSession(ctx, st.session.ID, time.Now()); err != nil {
			e.log.Error(ctx, "ending open session on shutdown",
				logger.String("session_id", st.session.ID), logger.Error(err))
		} else {
			e.log.Warn(ctx, "session ended administratively on shutdown",
				logger.String("session_id", st.session.ID))
		}
	}

	e.wg.Wait()
	metrics.UpdateSessionOpen(false)
	return nil
}

func (e *scoreEngine) OpenSession(ctx context.Context, hostHandle string) (model.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != nil {
		return model.Session{}, ErrSessionOpen
	}

	s := model.Session{
		ID:         uuid.New().String(),
		HostHandle: hostHandle,
		StartedAt:  time.Now(),
	}
	if err := e.store.BeginSession(ctx, s); err != nil {
		return model.Session{}, fmt.Errorf("begin session: %w", err)
	}

	st := &sessionState{
		session: s,
		minutes: make(map[string]float64),
		tallies: make(map[string]*model.ParticipantSummary),
		counts:  make(map[model.EventKind]int),
		stop:    make(chan struct{}),
	}
	e.state = st

	e.wg.Add(2)
	go e.watchLoop(st)
	go e.resortLoop(st)

	metrics.RecordSessionStarted()
	metrics.UpdateSessionOpen(true)
	e.log.Info(ctx, "session opened",
		logger.String("session_id", s.ID),
		logger.String("host", hostHandle))
	return s, nil
}

func (e *scoreEngine) CloseSession(ctx context.Context) (model.SessionSummary, error) {
	e.mu.Lock()
	st := e.state
	if st == nil {
		e.mu.Unlock()
		return model.SessionSummary{}, ErrNoOpenSession
	}

	endedAt := time.Now()
	if err := e.store.EndSession(ctx, st.session.ID, endedAt); err != nil {
		// State stays intact so the close can be retried.
		e.mu.Unlock()
		return model.SessionSummary{}, fmt.Errorf("end session: %w", err)
	}

	e.state = nil
	close(st.stop)
	st.session.EndedAt = &endedAt
	summary := buildSummary(st)
	e.mu.Unlock()

	metrics.UpdateSessionOpen(false)
	metrics.UpdateWatchedHandles(0)
	e.log.Info(ctx, "session closed",
		logger.String("session_id", summary.Session.ID),
		logger.Int("participants", len(summary.Participants)),
		logger.Int("total_coins", summary.TotalCoins))

	if e.sink != nil {
		if err := e.sink.Emit(ctx, summary); err != nil {
			metrics.RecordErrorByComponent("engine", "summary_emit")
			e.log.Error(ctx, "emitting session summary", logger.Error(err))
		}
	}
	return summary, nil
}

func buildSummary(st *sessionState) model.SessionSummary {
	counts := make(map[model.EventKind]int, len(st.counts))
	for kind, n := range st.counts {
		counts[kind] = n
	}
	participants := make([]model.ParticipantSummary, 0, len(st.tallies))
	for _, t := range st.tallies {
		participants = append(participants, *t)
	}
	model.SortParticipants(participants)
	return model.SessionSummary{
		Session:      st.session,
		EventCounts:  counts,
		TotalCoins:   st.coins,
		Participants: participants,
	}
}

func (e *scoreEngine) Session() (model.Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return model.Session{}, false
	}
	return e.state.session, true
}

func (e *scoreEngine) Apply(ctx context.Context, event model.LiveEvent) error {
	switch event.Kind {
	case model.EventConnect:
		return e.applyConnect(ctx, event)
	case model.EventDisconnect:
		return e.applyDisconnect(ctx, event)
	default:
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == nil {
		metrics.RecordEventDiscarded("no_session")
		e.log.Debug(ctx, "event discarded: no open session",
			logger.String("kind", string(event.Kind)),
			logger.String("event_id", event.EventID))
		return nil
	}
	if event.Handle == "" {
		metrics.RecordEventDiscarded("no_handle")
		e.log.Debug(ctx, "event discarded: empty handle",
			logger.String("kind", string(event.Kind)),
			logger.String("event_id", event.EventID))
		return nil
	}

	start := time.Now()
	var err error
	switch event.Kind {
	case model.EventJoin:
		err = e.applyJoin(ctx, event)
	case model.EventLike, model.EventComment, model.EventShare, model.EventFollow:
		err = e.applyInteraction(ctx, event)
	case model.EventGift:
		if event.Streak {
			// Mid-streak ticks carry no final value.
			metrics.RecordEventDiscarded("streak_tick")
			e.log.Debug(ctx, "gift streak tick ignored",
				logger.String("handle", event.Handle),
				logger.String("event_id", event.EventID))
			return nil
		}
		err = e.applyGift(ctx, event)
	default:
		metrics.RecordEventDiscarded("unknown_kind")
		e.log.Debug(ctx, "event discarded: unknown kind",
			logger.String("kind", string(event.Kind)),
			logger.String("event_id", event.EventID))
		return nil
	}
	if err != nil {
		metrics.RecordErrorByComponent("engine", string(event.Kind))
		return err
	}

	e.state.touch(event.Handle)
	e.state.counts[event.Kind]++
	metrics.RecordEventProcessed()
	metrics.RecordScoringLatency(float64(time.Since(start).Milliseconds()))
	return nil
}

// applyConnect opens a session for the connecting host. A connect while a
// session is open is discarded; sessions are one-shot.
func (e *scoreEngine) applyConnect(ctx context.Context, event model.LiveEvent) error {
	if _, err := e.OpenSession(ctx, event.Handle); err != nil {
		if errors.Is(err, ErrSessionOpen) {
			metrics.RecordEventDiscarded("session_already_open")
			e.log.Warn(ctx, "connect ignored: session already open",
				logger.String("host", event.Handle))
			return nil
		}
		return err
	}
	return nil
}

func (e *scoreEngine) applyDisconnect(ctx context.Context, event model.LiveEvent) error {
	if _, err := e.CloseSession(ctx); err != nil {
		if errors.Is(err, ErrNoOpenSession) {
			metrics.RecordEventDiscarded("no_session")
			e.log.Debug(ctx, "disconnect ignored: no open session",
				logger.String("host", event.Handle))
			return nil
		}
		return err
	}
	return nil
}

// applyJoin records the handle's existence. Joins earn no points.
func (e *scoreEngine) applyJoin(ctx context.Context, event model.LiveEvent) error {
	if err := e.store.ObserveHandle(ctx, event.Handle, eventTime(event)); err != nil {
		return fmt.Errorf("observe handle: %w", err)
	}
	return nil
}

func (e *scoreEngine) applyInteraction(ctx context.Context, event model.LiveEvent) error {
	points, ok := scoring.InteractionPoints(event.Kind)
	if !ok {
		return fmt.Errorf("no point value for event kind %q", event.Kind)
	}

	touched, err := e.store.AddInteractionPoints(ctx, event.Handle, points)
	if err != nil {
		return fmt.Errorf("add interaction points: %w", err)
	}

	delta := model.IdentityDelta{Points: points}
	switch event.Kind {
	case model.EventLike:
		delta.Likes = 1
	case model.EventComment:
		delta.Comments = 1
	case model.EventShare:
		delta.Shares = 1
	case model.EventFollow:
		delta.Follows = 1
	}
	if err := e.store.AccumulateIdentity(ctx, event.Handle, delta, eventTime(event)); err != nil {
		return fmt.Errorf("accumulate identity: %w", err)
	}

	t := e.state.tally(event.Handle)
	t.Points += points
	switch event.Kind {
	case model.EventLike:
		t.Likes++
	case model.EventComment:
		t.Comments++
	case model.EventShare:
		t.Shares++
	case model.EventFollow:
		t.Follows++
	}

	e.log.Debug(ctx, "interaction scored",
		logger.String("kind", string(event.Kind)),
		logger.String("handle", event.Handle),
		logger.Int("points", points),
		logger.Int("submissions_touched", touched))
	return nil
}

func (e *scoreEngine) applyGift(ctx context.Context, event model.LiveEvent) error {
	points := scoring.GiftPoints(event.Coins)

	touched, err := e.store.AddInteractionPoints(ctx, event.Handle, points)
	if err != nil {
		return fmt.Errorf("add gift points: %w", err)
	}
	delta := model.IdentityDelta{Points: points, Coins: event.Coins}
	if err := e.store.AccumulateIdentity(ctx, event.Handle, delta, eventTime(event)); err != nil {
		return fmt.Errorf("accumulate identity: %w", err)
	}

	t := e.state.tally(event.Handle)
	t.Points += points
	t.Coins += event.Coins
	e.state.coins += event.Coins

	e.log.Debug(ctx, "gift scored",
		logger.String("handle", event.Handle),
		logger.String("gift", event.GiftName),
		logger.Int("coins", event.Coins),
		logger.Int("points", points),
		logger.Int("submissions_touched", touched))

	if target, ok := scoring.RewardTier(event.Coins); ok {
		e.applyGiftReward(ctx, event.Handle, target)
	}
	return nil
}

// applyGiftReward moves the gifter's own submission to the tier their gift
// earned. Requires a linked identity and a reward-eligible submission; a
// submission already at the reward tier is left untouched.
func (e *scoreEngine) applyGiftReward(ctx context.Context, handle string, target model.Tier) {
	ident, err := e.store.Identity(ctx, handle)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			metrics.RecordErrorByComponent("engine", "gift_reward")
			e.log.Error(ctx, "looking up gifter identity",
				logger.String("handle", handle), logger.Error(err))
		}
		return
	}
	if ident.LinkedSubmitterID == "" {
		e.log.Debug(ctx, "gift reward skipped: handle not linked",
			logger.String("handle", handle))
		return
	}

	sub, err := e.store.MostRecentForSubmitterInTiers(ctx, ident.LinkedSubmitterID, scoring.RewardEligibleTiers())
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			metrics.RecordErrorByComponent("engine", "gift_reward")
			e.log.Error(ctx, "looking up reward submission",
				logger.String("submitter", ident.LinkedSubmitterID), logger.Error(err))
			return
		}
		e.log.Debug(ctx, "gift reward skipped: no eligible submission",
			logger.String("handle", handle),
			logger.String("submitter", ident.LinkedSubmitterID))
		return
	}
	if sub.Tier == target {
		e.log.Debug(ctx, "gift reward skipped: already at reward tier",
			logger.String("public_id", sub.PublicID),
			logger.String("tier", target.String()))
		return
	}

	prior, err := e.store.MoveSubmission(ctx, sub.PublicID, target)
	if err != nil {
		metrics.RecordErrorByComponent("engine", "gift_reward")
		e.log.Error(ctx, "moving submission for gift reward",
			logger.String("public_id", sub.PublicID), logger.Error(err))
		return
	}

	metrics.RecordGiftReward()
	metrics.RecordTierMove(target.String())
	e.log.Info(ctx, "gift reward applied",
		logger.String("handle", handle),
		logger.String("submitter", ident.LinkedSubmitterID),
		logger.String("public_id", sub.PublicID),
		logger.String("from", prior.String()),
		logger.String("to", target.String()))
}

// eventTime prefers the feed timestamp, falling back to arrival time.
func eventTime(event model.LiveEvent) time.Time {
	if !event.TS.IsZero() {
		return event.TS
	}
	return time.Now()
}
