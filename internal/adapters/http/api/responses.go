package api

import (
	"time"

	"github.com/abakedjoetato/luxqueue/internal/domain/model"
	"github.com/abakedjoetato/luxqueue/internal/refresh"
)

// Response shapes mirror the OpenAPI schemas. The domain model stays free of
// transport tags, so every outbound body is converted here.

type submissionResponse struct {
	PublicID         string     `json:"public_id"`
	SubmitterID      string     `json:"submitter_id"`
	SubmitterName    string     `json:"submitter_name,omitempty"`
	Artist           string     `json:"artist"`
	Song             string     `json:"song"`
	ContentRef       string     `json:"content_ref,omitempty"`
	Tier             string     `json:"tier"`
	SubmittedAt      time.Time  `json:"submitted_at"`
	PlayedAt         *time.Time `json:"played_at,omitempty"`
	Note             string     `json:"note,omitempty"`
	EngagementHandle string     `json:"engagement_handle,omitempty"`
	WatchScore       float64    `json:"watch_score"`
	InteractionScore float64    `json:"interaction_score"`
	TotalScore       float64    `json:"total_score"`
}

func toSubmissionResponse(sub model.Submission) submissionResponse {
	return submissionResponse{
		PublicID:         sub.PublicID,
		SubmitterID:      sub.SubmitterID,
		SubmitterName:    sub.SubmitterName,
		Artist:           sub.Artist,
		Song:             sub.Song,
		ContentRef:       sub.ContentRef,
		Tier:             sub.Tier.String(),
		SubmittedAt:      sub.SubmittedAt,
		PlayedAt:         sub.PlayedAt,
		Note:             sub.Note,
		EngagementHandle: sub.EngagementHandle,
		WatchScore:       sub.WatchScore,
		InteractionScore: sub.InteractionScore,
		TotalScore:       sub.TotalScore,
	}
}

func toSubmissionResponses(subs []model.Submission) []submissionResponse {
	out := make([]submissionResponse, 0, len(subs))
	for _, sub := range subs {
		out = append(out, toSubmissionResponse(sub))
	}
	return out
}

type pageResponse struct {
	Tier      string               `json:"tier"`
	Page      int                  `json:"page"`
	Size      int                  `json:"size"`
	Total     int                  `json:"total"`
	PageCount int                  `json:"page_count"`
	Items     []submissionResponse `json:"items"`
}

func toPageResponse(p model.Page) pageResponse {
	return pageResponse{
		Tier:      p.Tier.String(),
		Page:      p.Page,
		Size:      p.Size,
		Total:     p.Total,
		PageCount: p.PageCount(),
		Items:     toSubmissionResponses(p.Items),
	}
}

type identityResponse struct {
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

func toIdentityResponse(id model.Identity) identityResponse {
	return identityResponse{
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

type sessionResponse struct {
	ID         string     `json:"id"`
	HostHandle string     `json:"host_handle"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
}

func toSessionResponse(sess model.Session) sessionResponse {
	return sessionResponse{
		ID:         sess.ID,
		HostHandle: sess.HostHandle,
		StartedAt:  sess.StartedAt,
		EndedAt:    sess.EndedAt,
	}
}

type participantResponse struct {
	Handle   string `json:"handle"`
	Coins    int    `json:"coins"`
	Points   int    `json:"points"`
	Likes    int    `json:"likes"`
	Comments int    `json:"comments"`
	Shares   int    `json:"shares"`
	Follows  int    `json:"follows"`
}

type summaryResponse struct {
	Session      sessionResponse       `json:"session"`
	EventCounts  map[string]int        `json:"event_counts"`
	TotalCoins   int                   `json:"total_coins"`
	Participants []participantResponse `json:"participants"`
}

func toSummaryResponse(sum model.SessionSummary) summaryResponse {
	counts := make(map[string]int, len(sum.EventCounts))
	for kind, n := range sum.EventCounts {
		counts[string(kind)] = n
	}
	participants := make([]participantResponse, 0, len(sum.Participants))
	for _, p := range sum.Participants {
		participants = append(participants, participantResponse{
			Handle:   p.Handle,
			Coins:    p.Coins,
			Points:   p.Points,
			Likes:    p.Likes,
			Comments: p.Comments,
			Shares:   p.Shares,
			Follows:  p.Follows,
		})
	}
	return summaryResponse{
		Session:      toSessionResponse(sum.Session),
		EventCounts:  counts,
		TotalCoins:   sum.TotalCoins,
		Participants: participants,
	}
}

type surfaceResponse struct {
	Key         string `json:"key"`
	Tier        string `json:"tier"`
	State       string `json:"state"`
	Page        int    `json:"page"`
	Bound       bool   `json:"bound"`
	HasControls bool   `json:"has_controls"`
}

func toSurfaceResponses(statuses []refresh.SurfaceStatus) []surfaceResponse {
	out := make([]surfaceResponse, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, surfaceResponse{
			Key:         st.Key,
			Tier:        st.Tier.String(),
			State:       string(st.State),
			Page:        st.Page,
			Bound:       st.Bound,
			HasControls: st.HasControls,
		})
	}
	return out
}
