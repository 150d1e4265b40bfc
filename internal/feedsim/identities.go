package feedsim

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// retrieveIdentities fetches lifetime records for all handles concurrently.
func retrieveIdentities(ctx context.Context, config *Config, handles []string, stats *Stats) ([]IdentityRecord, error) {
	log.Printf("🪪 Retrieving identity records for %d handles with %d workers...", len(handles), config.Workers)

	client := newHTTPClient(config.Timeout)

	// Results storage
	records := make([]IdentityRecord, len(handles))
	var (
		retrieved int64
		failed    int64
	)

	// Progress reporting
	var lastReport time.Time
	reportInterval := 1 * time.Second

	// Create worker pool
	handleChan := make(chan int, config.Workers*WorkerChannelMultiplier) // Send indices instead of handles
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range handleChan {
				select {
				case <-ctx.Done():
					return
				default:
					handle := handles[index]
					record, err := retrieveSingleIdentity(ctx, client, config.BaseURL, handle)

					if err != nil {
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							log.Printf("⚠️  Failed to get identity for %s: %v", handle, err)
						}
					} else {
						records[index] = record
						atomic.AddInt64(&retrieved, 1)
					}

					// Progress reporting
					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&retrieved) + atomic.LoadInt64(&failed)
						ret := atomic.LoadInt64(&retrieved)
						fail := atomic.LoadInt64(&failed)

						log.Printf("🪪 Identities: %d/%d retrieved (success: %d, failed: %d)",
							total, len(handles), ret, fail)
					}
				}
			}
		}()
	}

	// Send handle indices to workers
	go func() {
		defer close(handleChan)
		for i := range handles {
			select {
			case <-ctx.Done():
				return
			case handleChan <- i:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Filter out empty entries (failed retrievals)
	validRecords := make([]IdentityRecord, 0, len(records))
	for _, record := range records {
		if record.Handle != "" { // Empty Handle indicates failed retrieval
			validRecords = append(validRecords, record)
		}
	}

	// Update stats
	stats.IdentitiesRetrieved = len(validRecords)

	log.Printf(`✅ Identity retrieval completed:
   Retrieved: %d
   Failed: %d
`, len(validRecords), int(atomic.LoadInt64(&failed)))

	return validRecords, nil
}

// retrieveSingleIdentity retrieves the lifetime record for one handle.
func retrieveSingleIdentity(ctx context.Context, client *HTTPClient, baseURL, handle string) (IdentityRecord, error) {
	url := fmt.Sprintf("%s/identities/%s", baseURL, handle)

	status, body, err := client.Get(ctx, url)
	if err != nil {
		return IdentityRecord{}, fmt.Errorf("request failed: %w", err)
	}
	if status != StatusOK {
		return IdentityRecord{}, fmt.Errorf("HTTP %d: %s", status, string(body))
	}

	var record IdentityRecord
	if err := unmarshalJSON(body, &record); err != nil {
		return IdentityRecord{}, fmt.Errorf("failed to parse response: %w", err)
	}

	return record, nil
}
