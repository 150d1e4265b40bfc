package feedsim

import "time"

// Config holds configuration for one simulator run
type Config struct {
	BaseURL       string        // Base URL of the service
	NumEvents     int           // Number of feed events to generate
	NumHandles    int           // Number of distinct viewer handles
	NumSubmitters int           // Number of seed submissions to create
	Workers       int           // Number of concurrent workers
	Timeout       time.Duration // HTTP request timeout
	OutputFile    string        // Output file for events
	LogFile       string        // Log file for simulator output
	KeepSession   bool          // Leave the session open at the end
	Verbose       bool          // Enable verbose logging
}

// FeedEvent is the wire shape posted to /live/events
type FeedEvent struct {
	EventID  string `json:"event_id"`
	Kind     string `json:"kind"`
	Handle   string `json:"handle,omitempty"`
	Text     string `json:"text,omitempty"`
	Coins    int    `json:"coins,omitempty"`
	GiftName string `json:"gift_name,omitempty"`
	Streak   bool   `json:"streak,omitempty"`
	TS       string `json:"ts"`
}

// CreateSubmissionRequest is the wire shape posted to /submissions
type CreateSubmissionRequest struct {
	SubmitterID      string `json:"submitter_id"`
	SubmitterName    string `json:"submitter_name"`
	Artist           string `json:"artist"`
	Song             string `json:"song"`
	EngagementHandle string `json:"engagement_handle,omitempty"`
}

// LinkRequest is the wire shape posted to /identities/link
type LinkRequest struct {
	SubmitterID string `json:"submitter_id"`
	Handle      string `json:"handle"`
}

// StatusToggleRequest is the wire shape posted to /submissions/status
type StatusToggleRequest struct {
	Open bool `json:"open"`
}

// QueueEntry is one submission as returned by GET /queue
type QueueEntry struct {
	PublicID         string  `json:"public_id"`
	SubmitterID      string  `json:"submitter_id"`
	Artist           string  `json:"artist"`
	Song             string  `json:"song"`
	Tier             string  `json:"tier"`
	EngagementHandle string  `json:"engagement_handle"`
	WatchScore       float64 `json:"watch_score"`
	InteractionScore float64 `json:"interaction_score"`
	TotalScore       float64 `json:"total_score"`
	SubmittedAt      string  `json:"submitted_at"`
}

// IdentityRecord is the lifetime record returned by GET /identities/{handle}
type IdentityRecord struct {
	Handle            string `json:"handle"`
	LinkedSubmitterID string `json:"linked_submitter_id"`
	LifetimePoints    int    `json:"lifetime_points"`
	LifetimeCoins     int    `json:"lifetime_coins"`
	Likes             int    `json:"likes"`
	Comments          int    `json:"comments"`
	Shares            int    `json:"shares"`
	Follows           int    `json:"follows"`
}

// AckResponse represents the response from event submission
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// SubmissionResponse is the created submission returned by POST /submissions
type SubmissionResponse struct {
	PublicID string `json:"public_id"`
	Tier     string `json:"tier"`
}

// SummaryResponse is the session summary returned by POST /live/session/close
type SummaryResponse struct {
	Session struct {
		ID         string `json:"id"`
		HostHandle string `json:"host_handle"`
	} `json:"session"`
	EventCounts  map[string]int `json:"event_counts"`
	TotalCoins   int            `json:"total_coins"`
	Participants []struct {
		Handle string `json:"handle"`
		Coins  int    `json:"coins"`
		Points int    `json:"points"`
	} `json:"participants"`
}

// Stats holds simulator statistics
type Stats struct {
	SubmissionsCreated  int
	IdentitiesLinked    int
	EventsGenerated     int
	EventsSubmitted     int
	EventsAccepted      int
	EventsDuplicate     int
	EventsDropped       int
	EventsFailed        int
	IdentitiesRetrieved int
	QueueEntries        int
	PromotedEntries     int
	StartTime           time.Time
	EndTime             time.Time
	Duration            time.Duration
}
