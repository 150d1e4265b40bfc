// Package scoring holds the static engagement rules: interaction point
// values, the gift point formula, the gift reward-tier table, and the queue
// dispatch policy. Rules are fixed lookup tables so the threshold-selection
// behavior stays auditable and testable in isolation.
package scoring

import "github.com/abakedjoetato/luxqueue/internal/domain/model"

// interactionPoints maps interaction kinds to their fixed point values.
var interactionPoints = map[model.EventKind]int{
	model.EventLike:    1,
	model.EventComment: 2,
	model.EventShare:   5,
	model.EventFollow:  10,
}

// InteractionPoints returns the point value for an interaction kind and
// whether the kind awards points at all (joins, for example, do not).
func InteractionPoints(kind model.EventKind) (int, bool) {
	pts, ok := interactionPoints[kind]
	return pts, ok
}

// giftBonusThreshold is the coin value at which gift points stop doubling.
// The resulting discontinuity (999 coins -> 1998 points, 1000 -> 1000) is
// long-standing behavior, kept until product says otherwise.
const giftBonusThreshold = 1000

// GiftPoints returns the interaction points awarded for a gift of the given
// coin value: double below the bonus threshold, face value at or above it.
func GiftPoints(coins int) int {
	if coins < giftBonusThreshold {
		return 2 * coins
	}
	return coins
}

// GiftTierRule maps a minimum coin value to the tier it unlocks.
type GiftTierRule struct {
	MinCoins int
	Tier     model.Tier
}

// giftTiers is evaluated top-down; keep sorted by MinCoins descending.
var giftTiers = []GiftTierRule{
	{MinCoins: 6000, Tier: model.TierT5Plus},
	{MinCoins: 5000, Tier: model.TierT4},
	{MinCoins: 4000, Tier: model.TierT3},
	{MinCoins: 2000, Tier: model.TierT2},
	{MinCoins: 1000, Tier: model.TierT1},
}

// GiftTierTable returns a copy of the reward table, highest threshold first.
func GiftTierTable() []GiftTierRule {
	out := make([]GiftTierRule, len(giftTiers))
	copy(out, giftTiers)
	return out
}

// RewardTier returns the tier unlocked by a gift of the given coin value.
// Gifts below the lowest threshold unlock nothing.
func RewardTier(coins int) (model.Tier, bool) {
	for _, rule := range giftTiers {
		if coins >= rule.MinCoins {
			return rule.Tier, true
		}
	}
	return "", false
}

// watchMultiplier converts accumulated watch minutes into watch score.
const watchMultiplier = 1.0

// WatchScore converts session watch minutes into a watch score.
func WatchScore(minutes float64) float64 {
	return minutes * watchMultiplier
}

// dispatchOrder is the take-next precedence, highest first. PendingApproval
// and Archived are deliberately absent.
var dispatchOrder = []model.Tier{
	model.TierT5Plus,
	model.TierT4,
	model.TierT3,
	model.TierT2,
	model.TierT1,
	model.TierStandard,
}

// DispatchOrder returns the tier precedence used by take-next, highest first.
func DispatchOrder() []model.Tier {
	out := make([]model.Tier, len(dispatchOrder))
	copy(out, dispatchOrder)
	return out
}

// rewardEligible lists the tiers a gift reward may move a submission out of.
var rewardEligible = []model.Tier{
	model.TierStandard,
	model.TierPendingApproval,
}

// RewardEligibleTiers returns the tiers searched for a reward-move target.
func RewardEligibleTiers() []model.Tier {
	out := make([]model.Tier, len(rewardEligible))
	copy(out, rewardEligible)
	return out
}
