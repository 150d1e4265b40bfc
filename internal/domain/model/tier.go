package model

import "fmt"

// Tier identifies the queue bucket a submission currently occupies.
// Dispatch priority runs highest-first: T5Plus > T4 > T3 > T2 > T1 >
// Standard. PendingApproval and Archived sit outside the dispatch order.
type Tier string

const (
	TierT5Plus   Tier = "t5plus"
	TierT4       Tier = "t4"
	TierT3       Tier = "t3"
	TierT2       Tier = "t2"
	TierT1       Tier = "t1"
	TierStandard Tier = "standard"

	// TierPendingApproval holds submissions awaiting human or reward
	// promotion; never dispatched.
	TierPendingApproval Tier = "pending_approval"

	// TierArchived is terminal. Entry into it stamps played_at.
	TierArchived Tier = "archived"
)

// Tiers lists every valid tier.
func Tiers() []Tier {
	return []Tier{
		TierT5Plus, TierT4, TierT3, TierT2, TierT1,
		TierStandard, TierPendingApproval, TierArchived,
	}
}

// ParseTier validates a wire/db string and returns the matching Tier.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	switch t {
	case TierT5Plus, TierT4, TierT3, TierT2, TierT1,
		TierStandard, TierPendingApproval, TierArchived:
		return t, nil
	}
	return "", fmt.Errorf("unknown tier %q", s)
}

// Dispatchable reports whether the tier participates in take-next selection.
func (t Tier) Dispatchable() bool {
	switch t {
	case TierT5Plus, TierT4, TierT3, TierT2, TierT1, TierStandard:
		return true
	default:
		return false
	}
}

// Terminal reports whether the tier is the append-only history bucket.
func (t Tier) Terminal() bool {
	return t == TierArchived
}

// Scoreable reports whether submissions in the tier accumulate engagement
// points: every non-terminal tier except the pending holding area.
func (t Tier) Scoreable() bool {
	return t.Dispatchable()
}

func (t Tier) String() string {
	return string(t)
}
