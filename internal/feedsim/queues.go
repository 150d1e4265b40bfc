package feedsim

import (
	"context"
	"fmt"
	"log"
)

// reviewTiers are the tiers read back after the feed drains, highest first.
var reviewTiers = []string{"t5plus", "t4", "t3", "t2", "t1", "standard"}

// getQueueViews retrieves every review tier's ordered view.
func getQueueViews(ctx context.Context, config *Config, stats *Stats) (map[string][]QueueEntry, error) {
	log.Printf("📋 Reading queue views for %d tiers...", len(reviewTiers))

	client := newHTTPClient(config.Timeout)
	views := make(map[string][]QueueEntry, len(reviewTiers))
	total := 0
	promoted := 0

	for _, tier := range reviewTiers {
		entries, err := getQueueView(ctx, client, config.BaseURL, tier)
		if err != nil {
			return nil, fmt.Errorf("queue view %s: %w", tier, err)
		}
		views[tier] = entries
		total += len(entries)
		if tier != "standard" {
			promoted += len(entries)
		}
	}

	stats.QueueEntries = total
	stats.PromotedEntries = promoted

	log.Printf("✅ Read %d queue entries (%d promoted to paid tiers)", total, promoted)
	return views, nil
}

// getQueueView retrieves the full ordered view of one tier.
func getQueueView(ctx context.Context, client *HTTPClient, baseURL, tier string) ([]QueueEntry, error) {
	url := fmt.Sprintf("%s/queue?tier=%s", baseURL, tier)

	status, body, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if status != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", status, string(body))
	}

	var entries []QueueEntry
	if err := unmarshalJSON(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return entries, nil
}

// getServiceStats retrieves the service's runtime stats snapshot.
func getServiceStats(ctx context.Context, config *Config) (map[string]interface{}, error) {
	client := newHTTPClient(config.Timeout)

	status, body, err := client.Get(ctx, config.BaseURL+"/stats")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if status != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", status, string(body))
	}

	var snapshot map[string]interface{}
	if err := unmarshalJSON(body, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return snapshot, nil
}
