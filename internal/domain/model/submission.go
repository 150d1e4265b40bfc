package model

import "time"

// Submission is one reviewable item in the queue.
type Submission struct {
	ID               int64  // internal key, monotonic, breaks ordering ties
	PublicID         string // 6-digit user-facing id, unique while in use
	SubmitterID      string
	SubmitterName    string
	Artist           string
	Song             string
	ContentRef       string // URL or uploaded-file reference, opaque here
	Tier             Tier
	SubmittedAt      time.Time  // reset on every tier move
	PlayedAt         *time.Time // set once, on entry into Archived
	Note             string
	EngagementHandle string // optional correlation key into live-event identity space
	WatchScore       float64
	InteractionScore float64
	TotalScore       float64 // always watch + interaction, never written directly
}

// NewSubmission carries the caller-supplied fields for a create.
type NewSubmission struct {
	SubmitterID      string
	SubmitterName    string
	Artist           string
	Song             string
	ContentRef       string
	Note             string
	EngagementHandle string
}

// Page is one window of a tier's ordered submissions.
type Page struct {
	Items []Submission
	Tier  Tier
	Page  int // zero-based
	Size  int
	Total int // submissions in the tier, not just this window
}

// PageCount returns how many pages the tier currently spans; an empty tier
// still has one (empty) page so surfaces always have something to show.
func (p Page) PageCount() int {
	if p.Total == 0 || p.Size <= 0 {
		return 1
	}
	return (p.Total + p.Size - 1) / p.Size
}
