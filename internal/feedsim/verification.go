package feedsim

import (
	"context"
	"fmt"
	"log"
	"time"
)

// verifyResults checks tier ordering, promotions and identity accrual
// against what the run pumped in. Inconsistencies are logged as warnings;
// only an empty read-back fails the run.
func verifyResults(ctx context.Context, config *Config, views map[string][]QueueEntry, identities []IdentityRecord, stats *Stats) error {
	log.Println("🔍 Verifying results...")

	if stats.QueueEntries == 0 {
		return fmt.Errorf("no queue entries to verify")
	}

	if err := verifyStandardOrdering(views["standard"]); err != nil {
		log.Printf("⚠️  Standard tier warning: %v", err)
	} else {
		log.Println("✅ Standard tier ordered by total score")
	}

	if err := verifyPaidTiers(views); err != nil {
		log.Printf("⚠️  Paid tier warning: %v", err)
	} else {
		log.Println("✅ Paid tiers consistent")
	}

	if err := verifyIdentities(identities); err != nil {
		log.Printf("⚠️  Identity warning: %v", err)
	} else {
		log.Println("✅ Identity records consistent")
	}

	displayStandings(views, config.Verbose)

	log.Println("✅ Result verification completed")
	return nil
}

// verifyStandardOrdering checks that the standard tier is sorted by total
// score, highest first.
func verifyStandardOrdering(standard []QueueEntry) error {
	for i, entry := range standard {
		if entry.Tier != "standard" {
			return fmt.Errorf("entry %d reports tier %q inside the standard view", i, entry.Tier)
		}
		if i > 0 && entry.TotalScore > standard[i-1].TotalScore {
			return fmt.Errorf("standard queue not sorted by score: entry %d outranks entry %d", i, i-1)
		}
	}
	return nil
}

// verifyPaidTiers checks that each paid tier only holds its own entries and
// keeps them in submission order.
func verifyPaidTiers(views map[string][]QueueEntry) error {
	for _, tier := range reviewTiers {
		if tier == "standard" {
			continue
		}
		entries := views[tier]
		var prev time.Time
		for i, entry := range entries {
			if entry.Tier != tier {
				return fmt.Errorf("entry %d reports tier %q inside the %s view", i, entry.Tier, tier)
			}
			at, err := time.Parse(time.RFC3339Nano, entry.SubmittedAt)
			if err != nil {
				return fmt.Errorf("entry %d in %s has unparseable submitted_at %q", i, tier, entry.SubmittedAt)
			}
			if i > 0 && at.Before(prev) {
				return fmt.Errorf("%s queue not in submission order: entry %d predates entry %d", tier, i, i-1)
			}
			prev = at
		}
	}
	return nil
}

// verifyIdentities checks that the feed left its mark on the lifetime
// records: points accrued somewhere and at least one handle is linked.
func verifyIdentities(identities []IdentityRecord) error {
	if len(identities) == 0 {
		return fmt.Errorf("no identity records retrieved")
	}

	scored := 0
	linked := 0
	for _, record := range identities {
		if record.LifetimePoints > 0 {
			scored++
		}
		if record.LinkedSubmitterID != "" {
			linked++
		}
	}

	if scored == 0 {
		return fmt.Errorf("no identity accumulated points")
	}
	if linked == 0 {
		return fmt.Errorf("no identity is linked to a submitter")
	}
	return nil
}

// displayStandings shows the top standard entries and the promotion counts.
func displayStandings(views map[string][]QueueEntry, verbose bool) {
	standard := views["standard"]

	topN := 10
	if len(standard) < topN {
		topN = len(standard)
	}

	log.Printf("🏆 Top %d standard queue entries:", topN)
	for i := 0; i < topN; i++ {
		entry := standard[i]
		log.Printf("   %d. %q by %s (%s) - Score: %.3f",
			i+1, entry.Song, entry.Artist, entry.EngagementHandle, entry.TotalScore)
	}

	for _, tier := range reviewTiers {
		if tier == "standard" {
			continue
		}
		if count := len(views[tier]); count > 0 {
			log.Printf("💎 %s: %d promoted", tier, count)
		}
	}

	if verbose {
		// Show some statistics
		if len(standard) > 0 {
			avgScore := calculateAverageScore(standard)
			maxScore := standard[0].TotalScore
			minScore := standard[len(standard)-1].TotalScore

			log.Printf(`📊 Score statistics:
   Average: %.3f
   Maximum: %.3f
   Minimum: %.3f
`, avgScore, maxScore, minScore)
		}
	}
}

// calculateAverageScore calculates the average total score of a view.
func calculateAverageScore(entries []QueueEntry) float64 {
	if len(entries) == 0 {
		return 0
	}

	sum := 0.0
	for _, entry := range entries {
		sum += entry.TotalScore
	}

	return sum / float64(len(entries))
}
