// Package types contains common types used across the application
package types

import (
	"time"

	"github.com/abakedjoetato/luxqueue/internal/domain/model"
)

// QueueEntry is the wire shape of one submission inside a queue view.
type QueueEntry struct {
	Position         int        `json:"position"` // 1-based within the tier's ordering
	PublicID         string     `json:"public_id"`
	SubmitterID      string     `json:"submitter_id"`
	SubmitterName    string     `json:"submitter_name"`
	Artist           string     `json:"artist"`
	Song             string     `json:"song"`
	ContentRef       string     `json:"content_ref,omitempty"`
	Tier             string     `json:"tier"`
	Note             string     `json:"note,omitempty"`
	EngagementHandle string     `json:"engagement_handle,omitempty"`
	WatchScore       float64    `json:"watch_score"`
	InteractionScore float64    `json:"interaction_score"`
	TotalScore       float64    `json:"total_score"`
	SubmittedAt      time.Time  `json:"submitted_at"`
	PlayedAt         *time.Time `json:"played_at,omitempty"`
}

// FromSubmission converts a domain submission into its wire shape.
// Position is the 1-based slot within the tier ordering.
func FromSubmission(s model.Submission, position int) QueueEntry {
	return QueueEntry{
		Position:         position,
		PublicID:         s.PublicID,
		SubmitterID:      s.SubmitterID,
		SubmitterName:    s.SubmitterName,
		Artist:           s.Artist,
		Song:             s.Song,
		ContentRef:       s.ContentRef,
		Tier:             s.Tier.String(),
		Note:             s.Note,
		EngagementHandle: s.EngagementHandle,
		WatchScore:       s.WatchScore,
		InteractionScore: s.InteractionScore,
		TotalScore:       s.TotalScore,
		SubmittedAt:      s.SubmittedAt,
		PlayedAt:         s.PlayedAt,
	}
}

// FromPage converts a domain page into wire entries with display positions.
func FromPage(p model.Page) []QueueEntry {
	entries := make([]QueueEntry, len(p.Items))
	for i, s := range p.Items {
		entries[i] = FromSubmission(s, p.Page*p.Size+i+1)
	}
	return entries
}

// RenderedPage is the content handed to the display boundary for one surface:
// ordering and fields only, nothing about appearance.
type RenderedPage struct {
	SurfaceKey string       `json:"surface_key"`
	Tier       string       `json:"tier"`
	Page       int          `json:"page"`
	PageCount  int          `json:"page_count"`
	Total      int          `json:"total"`
	Entries    []QueueEntry `json:"entries"`
	RenderedAt time.Time    `json:"rendered_at"`
}

// IdentityStats is the wire shape of an engagement identity's lifetime record.
type IdentityStats struct {
	Handle            string    `json:"handle"`
	LinkedSubmitterID string    `json:"linked_submitter_id,omitempty"`
	LifetimePoints    int       `json:"lifetime_points"`
	LifetimeCoins     int       `json:"lifetime_coins"`
	Likes             int       `json:"likes"`
	Comments          int       `json:"comments"`
	Shares            int       `json:"shares"`
	Follows           int       `json:"follows"`
	FirstSeenAt       time.Time `json:"first_seen_at"`
	LastSeenAt        time.Time `json:"last_seen_at"`
}

// FromIdentity converts a domain identity into its wire shape.
func FromIdentity(id model.Identity) IdentityStats {
	return IdentityStats{
		Handle:            id.Handle,
		LinkedSubmitterID: id.LinkedSubmitterID,
		LifetimePoints:    id.LifetimePoints,
		LifetimeCoins:     id.LifetimeCoins,
		Likes:             id.Likes,
		Comments:          id.Comments,
		Shares:            id.Shares,
		Follows:           id.Follows,
		FirstSeenAt:       id.FirstSeenAt,
		LastSeenAt:        id.LastSeenAt,
	}
}

// ParticipantActivity is one identity's totals within a single session.
type ParticipantActivity struct {
	Handle   string `json:"handle"`
	Coins    int    `json:"coins"`
	Points   int    `json:"points"`
	Likes    int    `json:"likes"`
	Comments int    `json:"comments"`
	Shares   int    `json:"shares"`
	Follows  int    `json:"follows"`
	Gifts    int    `json:"gifts"`
}

// SessionSummary is emitted to the summary sink when a session closes.
// Participants are sorted by coins first, interaction points second.
type SessionSummary struct {
	SessionID    string                `json:"session_id"`
	HostHandle   string                `json:"host_handle"`
	StartedAt    time.Time             `json:"started_at"`
	EndedAt      time.Time             `json:"ended_at"`
	EventCounts  map[string]int        `json:"event_counts"`
	TotalCoins   int                   `json:"total_coins"`
	TotalPoints  int                   `json:"total_points"`
	Participants []ParticipantActivity `json:"participants"`
}
