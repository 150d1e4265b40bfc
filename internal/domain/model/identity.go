package model

import "time"

// Identity is the lifetime record for one engagement handle. A row exists
// from the first time the handle is observed on the feed, whether or not it
// is ever linked to a submitter.
type Identity struct {
	Handle            string
	LinkedSubmitterID string // empty when unlinked
	LifetimePoints    int    // interaction points across all sessions
	LifetimeCoins     int    // gift coins across all sessions
	Likes             int
	Comments          int
	Shares            int
	Follows           int
	FirstSeenAt       time.Time
	LastSeenAt        time.Time
}

// IdentityDelta is one event's contribution to an identity's lifetime
// counters; the store applies it atomically.
type IdentityDelta struct {
	Points   int
	Coins    int
	Likes    int
	Comments int
	Shares   int
	Follows  int
}
