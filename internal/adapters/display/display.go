// Package display is the log-backed display boundary: rendered queue
// pages and session summaries land in the structured log instead of a
// chat surface. Deployments with a real chat frontend swap in their own
// Publisher; this one keeps headless operation and dev environments
// honest.
package display

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abakedjoetato/luxqueue/internal/domain/model"
	"github.com/abakedjoetato/luxqueue/internal/refresh"
	"github.com/abakedjoetato/luxqueue/pkg/logger"
)

// summaryRowLimit caps how many participants the rendered report lists.
const summaryRowLimit = 10

// ChannelLookup resolves the destination channel for session summaries
// at emit time, so a settings change applies without a restart.
type ChannelLookup func(ctx context.Context) string

// LogDisplay implements the refresh Publisher and the engine summary
// sink over the structured log.
type LogDisplay struct {
	channel ChannelLookup

	// Logging
	logger logger.Logger
}

// New creates a log display with configuration options.
func New(opts ...Option) *LogDisplay {
	d := &LogDisplay{
		logger: logger.Get().Named("display"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Publish writes the rendered page to the log. An empty message ref
// mints a new one; a non-empty ref is reused, matching edit-in-place
// semantics on a real chat surface.
func (d *LogDisplay) Publish(ctx context.Context, target refresh.Target, page model.RenderedPage) (string, error) {
	ref := target.MessageRef
	created := ref == ""
	if created {
		ref = "log-" + uuid.New().String()
	}

	d.logger.Info(ctx, "queue page published",
		logger.String("surface", page.SurfaceKey),
		logger.String("channel", target.ChannelRef),
		logger.String("message_ref", ref),
		logger.Any("created", created),
		logger.String("tier", string(page.Tier)),
		logger.Int("page", page.Page+1),
		logger.Int("page_count", page.PageCount),
		logger.Int("total", page.Total),
		logger.String("body", RenderPage(page)),
	)

	return ref, nil
}

// Probe always succeeds: the log cannot lose a message.
func (d *LogDisplay) Probe(ctx context.Context, target refresh.Target, hasControls bool) error {
	d.logger.Debug(ctx, "probing surface target",
		logger.String("channel", target.ChannelRef),
		logger.String("message_ref", target.MessageRef),
		logger.Any("has_controls", hasControls),
	)
	return nil
}

// Emit writes the close-of-session report to the log.
func (d *LogDisplay) Emit(ctx context.Context, summary model.SessionSummary) error {
	channel := ""
	if d.channel != nil {
		channel = d.channel(ctx)
	}

	d.logger.Info(ctx, "session summary",
		logger.String("session_id", summary.Session.ID),
		logger.String("host", summary.Session.HostHandle),
		logger.String("channel", channel),
		logger.Int("total_coins", summary.TotalCoins),
		logger.Int("participants", len(summary.Participants)),
		logger.String("body", RenderSummary(summary)),
	)

	return nil
}

// RenderPage formats one queue page the way a chat embed would show it:
// a tier header and one numbered line per submission. Reusable by real
// chat publishers.
func RenderPage(page model.RenderedPage) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s - page %d/%d (%d waiting)\n",
		strings.ToUpper(string(page.Tier)), page.Page+1, page.PageCount, page.Total)

	if len(page.Entries) == 0 {
		b.WriteString("  queue is empty\n")
		return b.String()
	}

	for i, sub := range page.Entries {
		position := page.Page*page.PageSize + i + 1
		if page.PageSize <= 0 {
			position = i + 1
		}
		fmt.Fprintf(&b, "%3d. [%s] %s - %s by %s\n",
			position, sub.PublicID, sub.Artist, sub.Song, sub.SubmitterName)
	}

	return b.String()
}

// RenderSummary formats the close-of-session report.
func RenderSummary(summary model.SessionSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "session %s, host %s", summary.Session.ID, summary.Session.HostHandle)
	if summary.Session.EndedAt != nil {
		fmt.Fprintf(&b, ", %s", summary.Session.EndedAt.Sub(summary.Session.StartedAt).Round(time.Second))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "events: %d likes, %d comments, %d shares, %d follows, %d gifts\n",
		summary.EventCounts[model.EventLike],
		summary.EventCounts[model.EventComment],
		summary.EventCounts[model.EventShare],
		summary.EventCounts[model.EventFollow],
		summary.EventCounts[model.EventGift],
	)
	fmt.Fprintf(&b, "coins: %d\n", summary.TotalCoins)

	if len(summary.Participants) == 0 {
		b.WriteString("no participants engaged\n")
		return b.String()
	}

	b.WriteString("top supporters:\n")
	for i, row := range summary.Participants {
		if i >= summaryRowLimit {
			fmt.Fprintf(&b, "  ... and %d more\n", len(summary.Participants)-summaryRowLimit)
			break
		}
		fmt.Fprintf(&b, "%3d. %s: %d coins, %d pts\n", i+1, row.Handle, row.Coins, row.Points)
	}

	return b.String()
}
