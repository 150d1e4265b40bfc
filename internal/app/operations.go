package service

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	eventqueue "github.com/abakedjoetato/luxqueue/internal/adapters/mq/queue"
	"github.com/abakedjoetato/luxqueue/internal/domain/model"
	"github.com/abakedjoetato/luxqueue/internal/refresh"
	"github.com/abakedjoetato/luxqueue/internal/settings"
	"github.com/abakedjoetato/luxqueue/pkg/logger"
	"github.com/abakedjoetato/luxqueue/pkg/metrics"
)

// --- Submissions ---

// Submit creates a Standard-tier submission. ErrSubmissionsClosed while the
// toggle is off; repository.ErrDuplicateActiveSubmission when the submitter
// already holds a Standard entry.
func (s *Service) Submit(ctx context.Context, in model.NewSubmission) (model.Submission, error) {
	if !s.SubmissionsOpen(ctx) {
		return model.Submission{}, ErrSubmissionsClosed
	}

	sub, err := s.store.CreateSubmission(ctx, in)
	if err != nil {
		return model.Submission{}, err
	}

	metrics.RecordSubmissionCreated()
	s.logger.Info(ctx, "submission created",
		logger.String("public_id", sub.PublicID),
		logger.String("submitter", sub.SubmitterID),
		logger.String("artist", sub.Artist),
		logger.String("song", sub.Song),
	)
	return sub, nil
}

// Move places a submission in the target tier and returns the tier it held
// before. Moving to the tier it already occupies is an idempotent no-op.
func (s *Service) Move(ctx context.Context, publicID string, target model.Tier) (model.Tier, error) {
	prior, err := s.store.MoveSubmission(ctx, publicID, target)
	if err != nil {
		return "", err
	}

	metrics.RecordTierMove(target.String())
	s.logger.Info(ctx, "submission moved",
		logger.String("public_id", publicID),
		logger.String("from", prior.String()),
		logger.String("to", target.String()),
	)
	return prior, nil
}

// Remove deletes a submission outright and returns the tier it held.
func (s *Service) Remove(ctx context.Context, publicID string) (model.Tier, error) {
	tier, err := s.store.RemoveSubmission(ctx, publicID)
	if err != nil {
		return "", err
	}

	metrics.RecordSubmissionRemoved()
	s.logger.Info(ctx, "submission removed",
		logger.String("public_id", publicID),
		logger.String("tier", tier.String()),
	)
	return tier, nil
}

// TakeNext dispatches the head of the highest-priority non-empty tier into
// the archive. Returns resolver.ErrEmpty when nothing is eligible.
func (s *Service) TakeNext(ctx context.Context) (model.Submission, error) {
	return s.resolver.TakeNext(ctx)
}

// ClearStandard empties the Standard tier, returning how many submissions
// were dropped. Paid and pending tiers are never bulk-cleared.
func (s *Service) ClearStandard(ctx context.Context) (int, error) {
	count, err := s.store.ClearTier(ctx, model.TierStandard)
	if err != nil {
		return 0, err
	}

	if count > 0 {
		s.logger.Info(ctx, "standard tier cleared", logger.Int("count", count))
	}
	return count, nil
}

// Submission fetches one submission by public id.
func (s *Service) Submission(ctx context.Context, publicID string) (model.Submission, error) {
	return s.store.Submission(ctx, publicID)
}

// Queue returns a tier's submissions in queue order.
func (s *Service) Queue(ctx context.Context, tier model.Tier) ([]model.Submission, error) {
	return s.store.Submissions(ctx, tier)
}

// QueuePage returns one zero-based page of a tier's ordering. A non-positive
// size falls back to the configured page size.
func (s *Service) QueuePage(ctx context.Context, tier model.Tier, page, size int) (model.Page, error) {
	if size <= 0 {
		size = s.pageSize
	}
	return s.store.SubmissionsPage(ctx, tier, page, size)
}

// MyQueue lists a submitter's non-archived submissions, oldest first.
func (s *Service) MyQueue(ctx context.Context, submitterID string) ([]model.Submission, error) {
	return s.store.SubmissionsForSubmitter(ctx, submitterID)
}

// TierCounts reports the submission count per tier.
func (s *Service) TierCounts(ctx context.Context) (map[model.Tier]int, error) {
	return s.store.TierCounts(ctx)
}

// --- Identities ---

// LinkIdentity binds a feed handle to a submitter so interactions and gifts
// credit their submissions.
func (s *Service) LinkIdentity(ctx context.Context, submitterID, handle string) error {
	if err := s.store.LinkIdentity(ctx, submitterID, handle); err != nil {
		return err
	}

	s.logger.Info(ctx, "identity linked",
		logger.String("submitter", submitterID),
		logger.String("handle", handle),
	)
	return nil
}

// UnlinkIdentity removes the binding between a submitter and a handle.
func (s *Service) UnlinkIdentity(ctx context.Context, submitterID, handle string) error {
	if err := s.store.UnlinkIdentity(ctx, submitterID, handle); err != nil {
		return err
	}

	s.logger.Info(ctx, "identity unlinked",
		logger.String("submitter", submitterID),
		logger.String("handle", handle),
	)
	return nil
}

// IdentityStats returns the lifetime engagement record for a handle.
func (s *Service) IdentityStats(ctx context.Context, handle string) (model.Identity, error) {
	return s.store.Identity(ctx, handle)
}

// --- Sessions ---

// OpenSession starts a live session hosted by the given handle.
func (s *Service) OpenSession(ctx context.Context, hostHandle string) (model.Session, error) {
	return s.engine.OpenSession(ctx, hostHandle)
}

// CloseSession ends the open session and returns its summary.
func (s *Service) CloseSession(ctx context.Context) (model.SessionSummary, error) {
	return s.engine.CloseSession(ctx)
}

// CurrentSession returns the open session, if any.
func (s *Service) CurrentSession() (model.Session, bool) {
	return s.engine.Session()
}

// --- Live events ---

// IngestEvent accepts one feed event for asynchronous processing. A
// duplicate event id reports (true, nil) without re-queueing. Backpressure
// surfaces as queue.ErrFull and shutdown as queue.ErrClosed; either way the
// event id is released so a retry is not mistaken for a duplicate.
func (s *Service) IngestEvent(ctx context.Context, event model.LiveEvent) (bool, error) {
	if event.EventID == "" {
		// The feed occasionally omits ids; mint one so the rest of the
		// pipeline can assume an idempotency key exists.
		event.EventID = uuid.New().String()
	}

	if s.deduper.SeenAndRecord(ctx, event.EventID) {
		metrics.RecordEventDuplicate()
		s.logger.Debug(ctx, "duplicate event dropped",
			logger.String("event_id", event.EventID),
			logger.String("kind", string(event.Kind)),
		)
		return true, nil
	}

	if !s.eventQueue.Enqueue(ctx, event) {
		s.deduper.Unrecord(ctx, event.EventID)
		if s.eventQueue.IsClosed() {
			return false, eventqueue.ErrClosed
		}
		return false, eventqueue.ErrFull
	}
	return false, nil
}

// --- Display surfaces ---

// RegisterSurface adds (or replaces) a display surface mirroring a tier into
// the given channel.
func (s *Service) RegisterSurface(ctx context.Context, surfaceKey string, tier model.Tier, channelRef string, hasControls bool) error {
	var opts []refresh.RegisterOption
	if hasControls {
		opts = append(opts, refresh.WithControls())
	}

	_, err := s.coordinator.Register(ctx, surfaceKey, tier, channelRef, opts...)
	return err
}

// UnregisterSurface removes a surface and its persisted pointer.
func (s *Service) UnregisterSurface(ctx context.Context, surfaceKey string) error {
	return s.coordinator.Unregister(ctx, refresh.Handle(surfaceKey))
}

// SetSurfacePage moves a surface to a zero-based page and schedules a
// republish.
func (s *Service) SetSurfacePage(ctx context.Context, surfaceKey string, page int) error {
	return s.coordinator.SetPage(ctx, refresh.Handle(surfaceKey), page)
}

// Surfaces lists every known display surface.
func (s *Service) Surfaces(ctx context.Context) ([]refresh.SurfaceStatus, error) {
	return s.coordinator.Surfaces(ctx)
}

// --- Settings ---

// Setting reads one settings value. Missing keys report false.
func (s *Service) Setting(ctx context.Context, key string) (string, bool) {
	return s.settings.Get(ctx, key)
}

// PutSetting writes one settings value.
func (s *Service) PutSetting(ctx context.Context, key, value string) error {
	return s.settings.Set(ctx, key, value)
}

// SubmissionsOpen reports whether new submissions are being accepted. The
// toggle defaults open when it has never been set.
func (s *Service) SubmissionsOpen(ctx context.Context) bool {
	return s.settings.Bool(ctx, settings.KeySubmissionsOpen, true)
}

// SetSubmissionsOpen flips the submissions toggle.
func (s *Service) SetSubmissionsOpen(ctx context.Context, open bool) error {
	if err := s.settings.Set(ctx, settings.KeySubmissionsOpen, strconv.FormatBool(open)); err != nil {
		return err
	}

	s.logger.Info(ctx, "submissions toggle set", logger.Any("open", open))
	return nil
}
