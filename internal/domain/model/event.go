// Package model contains domain models passed between layers.
package model

import "time"

// EventKind enumerates the live-feed event types the engine understands.
type EventKind string

const (
	EventConnect    EventKind = "connect"
	EventDisconnect EventKind = "disconnect"
	EventJoin       EventKind = "join"
	EventLike       EventKind = "like"
	EventComment    EventKind = "comment"
	EventShare      EventKind = "share"
	EventFollow     EventKind = "follow"
	EventGift       EventKind = "gift"
)

// ParseEventKind validates a wire string and returns the matching kind.
func ParseEventKind(s string) (EventKind, bool) {
	k := EventKind(s)
	switch k {
	case EventConnect, EventDisconnect, EventJoin, EventLike,
		EventComment, EventShare, EventFollow, EventGift:
		return k, true
	}
	return "", false
}

// LiveEvent is one event from the live stream, normalized at the ingest
// boundary. Handle is the participant for interaction events and the host
// for connect/disconnect.
type LiveEvent struct {
	EventID  string // unique id for idempotency
	Kind     EventKind
	Handle   string
	Text     string // comment body; empty for other kinds
	Coins    int    // gift coin value
	GiftName string
	Streak   bool // true for mid-streak gift ticks, which carry no final value
	TS       time.Time
}
