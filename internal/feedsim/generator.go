package feedsim

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/abakedjoetato/luxqueue/pkg/logger"
)

// Constants for random draws.
const (
	eventIDDivisor  = 10000
	kindRollDivisor = 100
	shortIDLength   = 8
)

// Cutoffs for the event kind distribution, rolled on [0, 100). Likes
// dominate, gifts are rare, and large gifts rarer still so that only a
// handful of submissions earn a tier promotion per run.
const (
	likeCutoff       = 40
	commentCutoff    = 60
	shareCutoff      = 70
	followCutoff     = 78
	lateJoinCutoff   = 84
	smallGiftCutoff  = 92
	mediumGiftCutoff = 97
)

// Coin ranges for gift sizes. Large gifts draw from the promotion ladder
// so runs reliably exercise tier rewards.
const (
	smallGiftMaxCoins    = 99
	mediumGiftBaseCoins  = 100
	mediumGiftCoinsRange = 900
)

var largeGiftCoins = []int{1000, 2000, 4000, 5000, 6000}

var largeGiftNames = []string{"lion", "golden crown", "interstellar", "dragon", "meteor shower"}

var smallGiftNames = []string{"rose", "finger heart", "doughnut", "mic drop"}

var mediumGiftNames = []string{"galaxy", "disco ball", "confetti storm", "money gun"}

var commentTexts = []string{
	"this one goes hard",
	"play it again",
	"W pick",
	"who produced this??",
	"crying rn",
	"volume UP",
	"skip tbh",
	"instant classic",
	"the bridge >>>",
	"somebody clip this",
}

var submitterNames = []string{
	"Ava", "Bruno", "Carmen", "Dre", "Elif", "Franka", "Gio", "Hana",
	"Ivo", "June", "Kofi", "Lena", "Marek", "Nia", "Otis", "Priya",
}

var artistSongPairs = [][2]string{
	{"Neon Harbor", "Glass Tides"},
	{"Velvet Static", "Midnight Mile"},
	{"Juniper Vale", "Paper Planets"},
	{"The Low Keys", "Borrowed Time"},
	{"Mara Quinn", "Echo Chamber"},
	{"Sable & Ash", "Winter Engine"},
	{"Cobalt Run", "Switchback"},
	{"Prism Atlas", "Night Cartographer"},
	{"Hazel Motive", "Second Sunrise"},
	{"Wren Delacroix", "Fault Lines"},
	{"Stereo Ghosts", "Afterimage"},
	{"Kite Theory", "Uplift"},
}

// randomInt returns a uniform int in [0, max) using crypto/rand.
func randomInt(max int) int {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(max)))
	return int(n.Int64())
}

// shortID returns the first eight characters of a fresh UUID.
func shortID() string {
	return uuid.New().String()[:shortIDLength]
}

// makeHostHandle generates the handle the session host connects with.
func makeHostHandle() string {
	return "host_" + shortID()
}

// makeHandles generates the pool of distinct viewer handles.
func makeHandles(count int) []string {
	handles := make([]string, count)
	for i := range handles {
		handles[i] = "viewer_" + shortID()
	}
	return handles
}

// generateEvents creates the interaction stream across the viewer handles.
func generateEvents(ctx context.Context, config *Config, handles []string, stats *Stats) ([]FeedEvent, error) {
	logger.Get().Info(ctx, "generating feed events",
		logger.Int("numEvents", config.NumEvents),
		logger.Int("handles", len(handles)))

	events := make([]FeedEvent, config.NumEvents)

	// Generate events concurrently
	type eventResult struct {
		index int
		event FeedEvent
		err   error
	}

	resultChan := make(chan eventResult, config.NumEvents)

	// Use worker pool for event generation
	workerCount := minInt(config.Workers, config.NumEvents)
	eventsPerWorker := config.NumEvents / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * eventsPerWorker
		end := start + eventsPerWorker
		if worker == workerCount-1 {
			end = config.NumEvents // Last worker gets remaining events
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- eventResult{index: i, err: ctx.Err()}
					return
				default:
					handle := handles[randomInt(len(handles))]
					resultChan <- eventResult{index: i, event: generateSingleEvent(i, handle)}
				}
			}
		}(start, end)
	}

	// Collect results
	for i := 0; i < config.NumEvents; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during event generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate event %d: %w", result.index, result.err)
			}
			events[result.index] = result.event
		}
	}

	stats.EventsGenerated = len(events)
	logger.Get().Info(ctx, "generated events successfully", logger.Int("count", len(events)))

	return events, nil
}

// generateSingleEvent creates one feed event for the given handle.
func generateSingleEvent(index int, handle string) FeedEvent {
	event := FeedEvent{
		EventID: newEventID(index),
		Handle:  handle,
		TS:      time.Now().UTC().Format(time.RFC3339),
	}

	roll := randomInt(kindRollDivisor)
	switch {
	case roll < likeCutoff:
		event.Kind = "like"
	case roll < commentCutoff:
		event.Kind = "comment"
		event.Text = commentTexts[randomInt(len(commentTexts))]
	case roll < shareCutoff:
		event.Kind = "share"
	case roll < followCutoff:
		event.Kind = "follow"
	case roll < lateJoinCutoff:
		// Late joins restart watch accrual for handles already in the room.
		event.Kind = "join"
	case roll < smallGiftCutoff:
		event.Kind = "gift"
		event.Coins = 1 + randomInt(smallGiftMaxCoins)
		event.GiftName = smallGiftNames[randomInt(len(smallGiftNames))]
	case roll < mediumGiftCutoff:
		event.Kind = "gift"
		event.Coins = mediumGiftBaseCoins + randomInt(mediumGiftCoinsRange)
		event.GiftName = mediumGiftNames[randomInt(len(mediumGiftNames))]
	default:
		event.Kind = "gift"
		pick := randomInt(len(largeGiftCoins))
		event.Coins = largeGiftCoins[pick]
		event.GiftName = largeGiftNames[pick]
	}

	return event
}

// newEventID generates a unique event ID.
func newEventID(index int) string {
	randNum, _ := rand.Int(rand.Reader, big.NewInt(eventIDDivisor))
	return "evt_" + strconv.FormatInt(int64(index), 10) + "_" + strconv.FormatInt(time.Now().Unix(), 10) + "_" + strconv.FormatInt(randNum.Int64(), 10)
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
