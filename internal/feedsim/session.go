package feedsim

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/abakedjoetato/luxqueue/pkg/logger"
)

// startSession connects the host handle, which opens the live session.
// A connect while a session is already open is discarded server-side, so
// repeat runs against a live server are harmless.
func startSession(ctx context.Context, client *HTTPClient, config *Config, hostHandle string) error {
	logger.Get().Info(ctx, "connecting session host", logger.String("host", hostHandle))

	event := FeedEvent{
		Kind:   "connect",
		Handle: hostHandle,
		TS:     time.Now().UTC().Format(time.RFC3339),
	}
	status, body, err := client.Post(ctx, config.BaseURL+"/live/events", event)
	if err != nil {
		return fmt.Errorf("connect host: %w", err)
	}
	if status != StatusAccepted {
		return fmt.Errorf("connect host: HTTP %d: %s", status, string(body))
	}
	return nil
}

// announceHandles sends a join for every viewer handle. Joins make the
// handles observed, which the identity link step requires, and start watch
// accrual for the session.
func announceHandles(ctx context.Context, client *HTTPClient, config *Config, handles []string) error {
	url := config.BaseURL + "/live/events"

	for _, handle := range handles {
		event := FeedEvent{
			Kind:   "join",
			Handle: handle,
			TS:     time.Now().UTC().Format(time.RFC3339),
		}
		status, body, err := client.Post(ctx, url, event)
		if err != nil {
			return fmt.Errorf("join %q: %w", handle, err)
		}
		if status != StatusAccepted {
			return fmt.Errorf("join %q: HTTP %d: %s", handle, status, string(body))
		}
	}

	log.Printf("👋 %d viewer handles joined the room", len(handles))
	return nil
}

// closeSession ends the live session and returns its summary.
func closeSession(ctx context.Context, client *HTTPClient, config *Config) (*SummaryResponse, error) {
	logger.Get().Info(ctx, "closing session")

	status, body, err := client.Post(ctx, config.BaseURL+"/live/session/close", nil)
	if err != nil {
		return nil, fmt.Errorf("close session: %w", err)
	}
	if status != StatusOK {
		return nil, fmt.Errorf("close session: HTTP %d: %s", status, string(body))
	}

	var summary SummaryResponse
	if err := unmarshalJSON(body, &summary); err != nil {
		return nil, fmt.Errorf("parse session summary: %w", err)
	}
	return &summary, nil
}

// displaySessionSummary prints the closed session's totals.
func displaySessionSummary(summary *SummaryResponse) {
	log.Printf("🎬 Session %s closed (host %s): %d total coins",
		summary.Session.ID, summary.Session.HostHandle, summary.TotalCoins)

	for kind, count := range summary.EventCounts {
		log.Printf("   %s: %d", kind, count)
	}

	topN := 5
	if len(summary.Participants) < topN {
		topN = len(summary.Participants)
	}
	if topN > 0 {
		log.Printf("💎 Top %d supporters:", topN)
		for i := 0; i < topN; i++ {
			p := summary.Participants[i]
			log.Printf("   %d. %s - %d coins, %d points", i+1, p.Handle, p.Coins, p.Points)
		}
	}
}
