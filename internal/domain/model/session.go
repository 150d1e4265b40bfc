package model

import (
	"sort"
	"time"
)

// Session is one bounded window of the live event feed. Retained after close
// for audit; at most one session is open at a time.
type Session struct {
	ID         string // uuid
	HostHandle string
	StartedAt  time.Time
	EndedAt    *time.Time // nil while open
}

// Open reports whether the session has not ended yet.
func (s Session) Open() bool {
	return s.EndedAt == nil
}

// ParticipantSummary is one identity's tallies for a single session.
type ParticipantSummary struct {
	Handle   string
	Coins    int
	Points   int
	Likes    int
	Comments int
	Shares   int
	Follows  int
}

// SessionSummary is the close-of-session report: how the session went and who
// engaged, ready for a summary sink to render.
type SessionSummary struct {
	Session      Session
	EventCounts  map[EventKind]int
	TotalCoins   int
	Participants []ParticipantSummary
}

// SortParticipants orders rows for the session report: most coins first, then
// most interaction points, then handle for a stable order.
func SortParticipants(rows []ParticipantSummary) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Coins != rows[j].Coins {
			return rows[i].Coins > rows[j].Coins
		}
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		return rows[i].Handle < rows[j].Handle
	})
}
