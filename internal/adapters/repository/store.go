// Package repository defines the durable queue store interface and its
// SQLite implementation. Every mutating operation runs as a single
// transaction; structural submission mutations report the affected tiers to
// the change notifier after commit, exactly once per logical mutation.
package repository

import (
	"context"
	"time"

	"github.com/abakedjoetato/luxqueue/internal/domain/model"
)

// Store provides durable access to submissions, sessions, identities, view
// pointers, and settings.
type Store interface {
	// CreateSubmission inserts a Standard-tier submission with a fresh
	// unique public id. Returns ErrDuplicateActiveSubmission when the
	// submitter already holds a Standard entry.
	CreateSubmission(ctx context.Context, in model.NewSubmission) (model.Submission, error)

	// MoveSubmission moves a submission to the target tier and returns the
	// tier held immediately before. Already in target is an idempotent
	// no-op: the current tier comes back and no timestamp resets. A real
	// move resets submitted_at; moving into Archived also stamps played_at.
	MoveSubmission(ctx context.Context, publicID string, target model.Tier) (model.Tier, error)

	// RemoveSubmission deletes a submission and returns the tier it held.
	RemoveSubmission(ctx context.Context, publicID string) (model.Tier, error)

	// ClearTier bulk-deletes every submission in the tier, returning the count.
	ClearTier(ctx context.Context, tier model.Tier) (int, error)

	// Submission fetches one submission by public id.
	Submission(ctx context.Context, publicID string) (model.Submission, error)

	// Submissions returns the tier's submissions in the tier's ordering.
	Submissions(ctx context.Context, tier model.Tier) ([]model.Submission, error)

	// SubmissionsPage returns one zero-based page of the tier's ordering
	// along with the tier's total count.
	SubmissionsPage(ctx context.Context, tier model.Tier, page, size int) (model.Page, error)

	// SubmissionsForSubmitter lists a submitter's non-archived submissions,
	// oldest first.
	SubmissionsForSubmitter(ctx context.Context, submitterID string) ([]model.Submission, error)

	// CountForSubmitterInTier counts the submitter's entries in one tier.
	CountForSubmitterInTier(ctx context.Context, submitterID string, tier model.Tier) (int, error)

	// TierCounts returns the submission count per tier.
	TierCounts(ctx context.Context) (map[model.Tier]int, error)

	// TakeNext atomically selects the head of the first non-empty tier in
	// order and moves it into Archived. The returned submission carries the
	// tier it was taken from. Returns ErrEmpty when every listed tier is
	// empty. Selection and move happen in one transaction so concurrent
	// callers can never take the same submission.
	TakeNext(ctx context.Context, order []model.Tier) (model.Submission, error)

	// MostRecentForSubmitterInTiers returns the submitter's newest
	// submission among the given tiers, or ErrNotFound.
	MostRecentForSubmitterInTiers(ctx context.Context, submitterID string, tiers []model.Tier) (model.Submission, error)

	// AddInteractionPoints adds points to the interaction score of every
	// scoreable-tier submission whose engagement handle matches. Returns
	// the number of submissions touched.
	AddInteractionPoints(ctx context.Context, handle string, points int) (int, error)

	// RecomputeWatchScores rewrites watch_score for every Standard
	// submission from the per-handle score map (absent handle means zero)
	// in one transaction.
	RecomputeWatchScores(ctx context.Context, scores map[string]float64) error

	// BeginSession persists a newly opened session row.
	BeginSession(ctx context.Context, s model.Session) error

	// EndSession stamps ended_at on a session.
	EndSession(ctx context.Context, sessionID string, endedAt time.Time) error

	// CurrentSession returns the open session, or ErrNotFound.
	CurrentSession(ctx context.Context) (model.Session, error)

	// EndDanglingSessions closes any session left open by a previous
	// process, returning how many were closed.
	EndDanglingSessions(ctx context.Context, endedAt time.Time) (int, error)

	// ObserveHandle records that a handle exists on the feed.
	ObserveHandle(ctx context.Context, handle string, seenAt time.Time) error

	// AccumulateIdentity upserts the handle and applies lifetime counter
	// deltas in one statement.
	AccumulateIdentity(ctx context.Context, handle string, delta model.IdentityDelta, seenAt time.Time) error

	// LinkIdentity binds a handle to a submitter. ErrHandleNotObserved when
	// the handle has never been seen, ErrAlreadyLinked when bound to a
	// different submitter. Re-linking the same pair is a no-op; a
	// submitter's previous handle, if any, is released in the same
	// transaction.
	LinkIdentity(ctx context.Context, submitterID, handle string) error

	// UnlinkIdentity removes the binding; ErrNotFound when the pair was not
	// linked.
	UnlinkIdentity(ctx context.Context, submitterID, handle string) error

	// Identity fetches the lifetime record for a handle, or ErrNotFound.
	Identity(ctx context.Context, handle string) (model.Identity, error)

	// IdentityForSubmitter fetches the identity linked to a submitter, or
	// ErrNotFound.
	IdentityForSubmitter(ctx context.Context, submitterID string) (model.Identity, error)

	// UpsertViewPointer creates or replaces a surface's pointer row.
	UpsertViewPointer(ctx context.Context, p model.ViewPointer) error

	// ViewPointers lists every known pointer.
	ViewPointers(ctx context.Context) ([]model.ViewPointer, error)

	// SetViewPointerPage persists a surface's current page.
	SetViewPointerPage(ctx context.Context, surfaceKey string, page int) error

	// SetViewPointerRef persists the backing channel/message refs after a
	// successful publish.
	SetViewPointerRef(ctx context.Context, surfaceKey, channelRef, messageRef string) error

	// ClearViewPointerRef deactivates a pointer whose target is gone.
	ClearViewPointerRef(ctx context.Context, surfaceKey string) error

	// DeleteViewPointer removes a surface's pointer row.
	DeleteViewPointer(ctx context.Context, surfaceKey string) error

	// Setting reads one settings value, or ErrNotFound.
	Setting(ctx context.Context, key string) (string, error)

	// PutSetting writes one settings value.
	PutSetting(ctx context.Context, key, value string) error

	// Settings returns all settings rows.
	Settings(ctx context.Context) (map[string]string, error)

	// Close releases the underlying database.
	Close() error
}
