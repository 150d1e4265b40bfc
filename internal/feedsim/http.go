package feedsim

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/abakedjoetato/luxqueue/pkg/logger"
)

// HTTPClient wraps http.Client with timeout and retry
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// httpStatusError marks a non-2xx response so the retry policy can
// distinguish terminal client errors from transient server ones.
type httpStatusError struct {
	status int
	body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.status, e.body)
}

// isRetryableError reports whether a request should be retried. Transport
// failures, backpressure and server errors are transient; other 4xx
// responses are terminal.
func isRetryableError(err error) bool {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.status == StatusTooManyRequests || statusErr.status >= StatusServerError
	}
	return true
}

// Get performs a GET request with retry
func (c *HTTPClient) Get(ctx context.Context, url string) (int, []byte, error) {
	return c.do(ctx, http.MethodGet, url, nil)
}

// Post performs a POST request with a JSON body and retry
func (c *HTTPClient) Post(ctx context.Context, url string, payload interface{}) (int, []byte, error) {
	return c.do(ctx, http.MethodPost, url, payload)
}

// do runs one request through the retry policy. The last response's status
// and body are returned even when the request ultimately fails, so callers
// can classify terminal 4xx outcomes.
func (c *HTTPClient) do(ctx context.Context, method, url string, payload interface{}) (int, []byte, error) {
	var jsonData []byte
	if payload != nil {
		var err error
		jsonData, err = marshalJSON(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	var (
		status int
		body   []byte
	)

	err := retry.Do(
		func() error {
			var reqBody io.Reader = http.NoBody
			if jsonData != nil {
				reqBody = bytes.NewReader(jsonData)
			}

			req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
			if err != nil {
				return fmt.Errorf("failed to create request: %w", err)
			}
			if jsonData != nil {
				req.Header.Set("Content-Type", "application/json")
			}

			resp, err := c.client.Do(req)
			if err != nil {
				return fmt.Errorf("request failed: %w", err)
			}

			body, err = readResponseBody(resp)
			status = resp.StatusCode
			if err != nil {
				return fmt.Errorf("failed to read response: %w", err)
			}
			if status >= http.StatusBadRequest {
				return &httpStatusError{status: status, body: string(body)}
			}
			return nil
		},
		retry.Attempts(retryAttempts),
		retry.Delay(retryBaseDelay),
		retry.MaxDelay(retryMaxDelay),
		retry.MaxJitter(retryMaxJitter),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			logger.Get().Warn(ctx, "retrying request",
				logger.String("method", method),
				logger.String("url", url),
				logger.Int("attempt", int(n)),
				logger.Error(err))
		}),
		retry.RetryIf(isRetryableError),
	)

	return status, body, err
}

// marshalJSON marshals a struct to JSON
func marshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// unmarshalJSON unmarshals JSON to a struct
func unmarshalJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// sendEvents submits feed events concurrently using worker pools
func sendEvents(ctx context.Context, config *Config, events []FeedEvent, stats *Stats) error {
	log.Printf("📤 Sending %d feed events with %d workers...", len(events), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/live/events"

	// Counters for statistics
	var (
		accepted  int64
		duplicate int64
		dropped   int64
		failed    int64
		submitted int64
	)

	// Progress reporting
	var lastReport time.Time
	reportInterval := 1 * time.Second

	// Create worker pool
	eventChan := make(chan FeedEvent, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for event := range eventChan {
				select {
				case <-ctx.Done():
					return
				default:
					result := sendSingleEvent(ctx, client, url, event)

					// Update counters
					atomic.AddInt64(&submitted, 1)
					switch result {
					case "accepted":
						atomic.AddInt64(&accepted, 1)
					case "duplicate":
						atomic.AddInt64(&duplicate, 1)
					case "dropped":
						atomic.AddInt64(&dropped, 1)
					case "failed":
						atomic.AddInt64(&failed, 1)
					}

					// Progress reporting
					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&submitted)
						acc := atomic.LoadInt64(&accepted)
						dup := atomic.LoadInt64(&duplicate)
						drop := atomic.LoadInt64(&dropped)
						fail := atomic.LoadInt64(&failed)

						if config.Verbose {
							log.Printf("📊 Progress: %d/%d sent (accepted: %d, duplicate: %d, dropped: %d, failed: %d)",
								total, len(events), acc, dup, drop, fail)
						} else {
							fmt.Printf("\r📤 Sent: %d/%d (accepted: %d, duplicate: %d, dropped: %d, failed: %d)",
								total, len(events), acc, dup, drop, fail)
						}
					}
				}
			}
		}()
	}

	// Send events to workers
	go func() {
		defer close(eventChan)
		for _, event := range events {
			select {
			case <-ctx.Done():
				return
			case eventChan <- event:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Final progress report
	if !config.Verbose {
		fmt.Println() // New line after progress indicator
	}

	// Update stats
	stats.EventsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.EventsAccepted = int(atomic.LoadInt64(&accepted))
	stats.EventsDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.EventsDropped = int(atomic.LoadInt64(&dropped))
	stats.EventsFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`✅ Feed event submission completed:
   Accepted: %d
   Duplicate: %d
   Dropped: %d
   Failed: %d
`, stats.EventsAccepted, stats.EventsDuplicate, stats.EventsDropped, stats.EventsFailed)

	return nil
}

// sendSingleEvent submits a single feed event and returns the result.
// Backpressure responses are retried inside the client; an event is only
// counted as dropped once those retries are exhausted.
func sendSingleEvent(ctx context.Context, client *HTTPClient, url string, event FeedEvent) string {
	status, body, err := client.Post(ctx, url, event)
	switch {
	case err != nil && status == StatusTooManyRequests:
		return "dropped"
	case err != nil:
		return "failed"
	case status == StatusAccepted:
		return "accepted"
	case status == StatusOK:
		// OK - duplicate event
		var ack AckResponse
		if err := unmarshalJSON(body, &ack); err == nil && !ack.Duplicate {
			return "accepted"
		}
		return "duplicate"
	default:
		return "failed"
	}
}
