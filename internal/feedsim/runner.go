package feedsim

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/abakedjoetato/luxqueue/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete feed simulation.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting feed simulation",
		logger.String("baseURL", config.BaseURL),
		logger.Int("events", config.NumEvents),
		logger.Int("handles", config.NumHandles),
		logger.Int("submitters", config.NumSubmitters),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.String("logFile", config.LogFile),
		logger.Any("keepSession", config.KeepSession),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	client := newHTTPClient(config.Timeout)

	// Step 2: Open submissions and seed the standard queue
	if err := openSubmissions(ctx, client, config); err != nil {
		return fmt.Errorf("opening submissions failed: %w", err)
	}
	handles := makeHandles(config.NumHandles)
	links, err := seedSubmissions(ctx, client, config, handles, stats)
	if err != nil {
		return fmt.Errorf("seeding submissions failed: %w", err)
	}

	// Step 3: Connect the host and bring the viewers into the room
	hostHandle := makeHostHandle()
	if err := startSession(ctx, client, config, hostHandle); err != nil {
		return fmt.Errorf("starting session failed: %w", err)
	}
	if err := announceHandles(ctx, client, config, handles); err != nil {
		return fmt.Errorf("announcing handles failed: %w", err)
	}

	// Step 4: Let the pump apply the joins, then link handles to submitters
	time.Sleep(SessionSettleDelay)
	if err := linkIdentities(ctx, client, config, links, stats); err != nil {
		return fmt.Errorf("linking identities failed: %w", err)
	}

	// Step 5: Generate the interaction stream
	events, err := generateEvents(ctx, config, handles, stats)
	if err != nil {
		return fmt.Errorf("event generation failed: %w", err)
	}

	// Step 6: Send events concurrently
	if err := sendEvents(ctx, config, events, stats); err != nil {
		return fmt.Errorf("event submission failed: %w", err)
	}

	// Step 7: Wait for processing
	logger.Get().Info(ctx, "waiting for the feed to drain")
	time.Sleep(ProcessingDrainDelay)

	// Step 8: Read identity records and queue views back
	identities, err := retrieveIdentities(ctx, config, handles, stats)
	if err != nil {
		return fmt.Errorf("identity retrieval failed: %w", err)
	}
	views, err := getQueueViews(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("queue view retrieval failed: %w", err)
	}

	// Step 9: Verify results
	if err := verifyResults(ctx, config, views, identities, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 10: Cross-check the service's own counters
	if serviceStats, err := getServiceStats(ctx, config); err != nil {
		logger.Get().Warn(ctx, "failed to read service stats", logger.Error(err))
	} else {
		reportServiceStats(ctx, serviceStats, stats)
	}

	// Step 11: Close the session unless asked to keep it open
	if config.KeepSession {
		logger.Get().Info(ctx, "leaving session open", logger.String("host", hostHandle))
	} else if summary, err := closeSession(ctx, client, config); err != nil {
		logger.Get().Warn(ctx, "failed to close session", logger.Error(err))
	} else {
		displaySessionSummary(summary)
	}

	// Step 12: Save events to file
	if err := saveEventsToFile(ctx, config, events); err != nil {
		logger.Get().Warn(ctx, "failed to save events to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "simulation completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)

	status, _, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", status)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// reportServiceStats logs the service's view of the run and warns when its
// counters disagree with what the simulator seeded.
func reportServiceStats(ctx context.Context, snapshot map[string]interface{}, stats *Stats) {
	fields := make([]logger.Field, 0, 4)
	if v, ok := snapshot["queueLength"].(float64); ok {
		fields = append(fields, logger.Int("ingestBacklog", int(v)))
	}
	if v, ok := snapshot["sessionOpen"].(bool); ok {
		fields = append(fields, logger.Any("sessionOpen", v))
	}
	if v, ok := snapshot["totalSubmissions"].(float64); ok {
		fields = append(fields, logger.Int("totalSubmissions", int(v)))
		if int(v) < stats.SubmissionsCreated {
			logger.Get().Warn(ctx, "service reports fewer submissions than were seeded",
				logger.Int("seeded", stats.SubmissionsCreated),
				logger.Int("reported", int(v)))
		}
	}
	logger.Get().Info(ctx, "service stats snapshot", fields...)
}

// saveEventsToFile saves the generated events to a JSON file.
func saveEventsToFile(ctx context.Context, config *Config, events []FeedEvent) error {
	if len(events) == 0 {
		return fmt.Errorf("no events to save")
	}

	// Determine output filename
	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "feed_events_" + timestamp + ".json"
	}

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write events to file
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	// Write JSON array
	if _, err := file.WriteString("[\n"); err != nil {
		return fmt.Errorf("failed to write opening bracket: %w", err)
	}

	for i, event := range events {
		jsonData, err := marshalJSON(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event %d: %w", i, err)
		}

		if _, err := file.Write(jsonData); err != nil {
			return fmt.Errorf("failed to write event %d: %w", i, err)
		}

		// Add comma except for last event
		if i < len(events)-1 {
			if _, err := file.WriteString(","); err != nil {
				return fmt.Errorf("failed to write comma: %w", err)
			}
		}
		_, _ = file.WriteString("\n")
	}

	if _, err := file.WriteString("]\n"); err != nil {
		return fmt.Errorf("failed to write closing bracket: %w", err)
	}

	logger.Get().Info(ctx, "events saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final simulation statistics.
func displayFinalStats(stats *Stats) {
	var successRate, eventsPerSecond float64

	if stats.EventsSubmitted > 0 {
		successRate = float64(stats.EventsAccepted) / float64(stats.EventsSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		eventsPerSecond = float64(stats.EventsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("submissionsCreated", stats.SubmissionsCreated),
		logger.Int("identitiesLinked", stats.IdentitiesLinked),
		logger.Int("eventsGenerated", stats.EventsGenerated),
		logger.Int("eventsSubmitted", stats.EventsSubmitted),
		logger.Int("eventsAccepted", stats.EventsAccepted),
		logger.Int("eventsDuplicate", stats.EventsDuplicate),
		logger.Int("eventsDropped", stats.EventsDropped),
		logger.Int("eventsFailed", stats.EventsFailed),
		logger.Int("identitiesRetrieved", stats.IdentitiesRetrieved),
		logger.Int("queueEntries", stats.QueueEntries),
		logger.Int("promotedEntries", stats.PromotedEntries),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("eventsPerSecond", eventsPerSecond))
}
